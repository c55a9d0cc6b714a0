package workflow

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/parcels_backend/config"
	"bitbucket.org/mmdatafocus/parcels_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UpdateParcel replaces a not-yet-finalized parcel's contents in place:
// the original sender-side ledger decrement is reversed using the currently
// stored components, the new field values and components are applied, and a
// fresh decrement is taken for the new contents. Equivalent to delete-then-
// send, but one transaction and one parcel identity.
func UpdateParcel(ctx context.Context, fileStore FileStore, parcelId int, input *models.NewParcel, userId int) (*models.Parcel, error) {
	db := config.GetDB()
	logger := config.GetLogger()
	debug := config.DebugParcel()

	if err := input.Validate(ctx); err != nil {
		return nil, err
	}

	var parcel models.Parcel

	err := runInTransaction(ctx, db, func(tx *gorm.DB) error {
		parcel = models.Parcel{}
		if err := tx.Preload("Components").Preload("Attachments").
			First(&parcel, parcelId).Error; err != nil {
			return err
		}

		oldSenderId := parcel.SenderManufactureId
		oldDetailIds := make([]int, 0, len(parcel.Components))
		for _, component := range parcel.Components {
			oldDetailIds = append(oldDetailIds, component.DetailId)
		}
		oldDetails, err := models.FetchDetailsByIds(tx, oldDetailIds)
		if err != nil {
			return err
		}

		// Reverse the original decrement and log the old state as removed.
		reversals := make([]models.LedgerDelta, 0, len(parcel.Components))
		logs := make([]models.ParcelLog, 0, len(parcel.Components)+len(input.Components))
		for _, component := range parcel.Components {
			qty, tested := splitQuantity(oldDetails[component.DetailId], component.Quantity)
			reversals = append(reversals, models.LedgerDelta{
				DetailId:       component.DetailId,
				ManufactureId:  oldSenderId,
				Quantity:       qty,
				TestedQuantity: tested,
			})
			logs = append(logs, models.ParcelLog{
				ParcelId:    parcel.ID,
				Action:      models.ParcelActionDeleted,
				Quantity:    component.Quantity,
				DetailId:    component.DetailId,
				WarehouseId: oldSenderId,
				UserId:      userId,
			})
		}
		if err := models.ApplyLedgerDeltas(tx, reversals); err != nil {
			return err
		}

		resolver := newManufactureResolver()
		senderId, err := resolver.resolve(tx, input.SenderManufactureId)
		if err != nil {
			return err
		}
		receiverId, err := resolver.resolve(tx, input.ReceiverManufactureId)
		if err != nil {
			return err
		}

		// Typed patch of the parcel row; absent delivery cost clears both
		// logistics fields.
		parcel.SenderManufactureId = senderId
		parcel.ReceiverManufactureId = receiverId
		parcel.UserId = userId
		parcel.Comment = input.Comment
		if input.DeliveryCost != nil {
			parcel.LogisticsCost = decimal.NullDecimal{Decimal: *input.DeliveryCost, Valid: true}
			parcel.LogisticsCurrencyId = input.CurrencyId
		} else {
			parcel.LogisticsCost = decimal.NullDecimal{}
			parcel.LogisticsCurrencyId = nil
		}
		if err := tx.Omit("Components", "Attachments").Save(&parcel).Error; err != nil {
			return err
		}

		if err := tx.Where("parcel_id = ?", parcel.ID).
			Delete(&models.ParcelComponent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("parcel_id = ?", parcel.ID).
			Delete(&models.ParcelAttachment{}).Error; err != nil {
			return err
		}

		newDetailIds := make([]int, 0, len(input.Components))
		for _, component := range input.Components {
			newDetailIds = append(newDetailIds, component.DetailId)
		}
		newDetails, err := models.FetchDetailsByIds(tx, newDetailIds)
		if err != nil {
			return err
		}
		for _, id := range newDetailIds {
			if newDetails[id] == nil {
				return errors.New("detail not found")
			}
		}

		senderPrices, err := models.LookupAvgPrices(tx, newDetailIds, []int{senderId})
		if err != nil {
			return err
		}

		components := make([]models.ParcelComponent, 0, len(input.Components))
		for _, component := range input.Components {
			components = append(components, models.ParcelComponent{
				ParcelId: parcel.ID,
				DetailId: component.DetailId,
				Quantity: component.Quantity,
				Posted:   decimal.Zero,
				Price:    senderPrices[component.DetailId][senderId],
			})
		}
		if err := tx.Create(&components).Error; err != nil {
			return err
		}
		parcel.Components = components

		if err := storeAttachments(ctx, tx, fileStore, input.Attachments, parcel.ID); err != nil {
			return err
		}

		decrements := make([]models.LedgerDelta, 0, len(components))
		for _, component := range components {
			qty, tested := splitQuantity(newDetails[component.DetailId], component.Quantity.Neg())
			decrements = append(decrements, models.LedgerDelta{
				DetailId:       component.DetailId,
				ManufactureId:  senderId,
				Quantity:       qty,
				TestedQuantity: tested,
			})
			logs = append(logs, models.ParcelLog{
				ParcelId:    parcel.ID,
				Action:      models.ParcelActionSent,
				Quantity:    component.Quantity,
				DetailId:    component.DetailId,
				WarehouseId: senderId,
				UserId:      userId,
				Comment:     input.Comment,
			})
		}
		if err := models.ApplyLedgerDeltas(tx, decrements); err != nil {
			return err
		}

		return models.InsertParcelLogs(tx, logs)
	})
	if err != nil {
		if debug {
			logger.WithFields(logrus.Fields{
				"funcName":  "UpdateParcel",
				"parcel_id": parcelId,
			}).Error(err.Error())
		}
		return nil, err
	}

	if debug {
		logger.WithFields(logrus.Fields{
			"funcName":   "UpdateParcel",
			"parcel_id":  parcel.ID,
			"components": len(parcel.Components),
		}).Info("parcel updated")
	}

	return &parcel, nil
}
