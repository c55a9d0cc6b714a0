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

// SendParcel creates a transfer order: it captures the sender's current
// average price per detail, persists the parcel with its components and
// attachments, decrements the sender's ledger and appends SENT audit entries,
// all in one transaction. Not idempotent: calling it again creates a second
// parcel and a second ledger decrement.
func SendParcel(ctx context.Context, fileStore FileStore, input *models.NewParcel, userId int) (*models.Parcel, error) {
	db := config.GetDB()
	logger := config.GetLogger()
	debug := config.DebugParcel()

	if err := input.Validate(ctx); err != nil {
		return nil, err
	}

	var parcel models.Parcel

	err := runInTransaction(ctx, db, func(tx *gorm.DB) error {
		resolver := newManufactureResolver()
		senderId, err := resolver.resolve(tx, input.SenderManufactureId)
		if err != nil {
			return err
		}
		receiverId, err := resolver.resolve(tx, input.ReceiverManufactureId)
		if err != nil {
			return err
		}

		detailIds := make([]int, 0, len(input.Components))
		for _, component := range input.Components {
			detailIds = append(detailIds, component.DetailId)
		}
		details, err := models.FetchDetailsByIds(tx, detailIds)
		if err != nil {
			return err
		}
		for _, id := range detailIds {
			if details[id] == nil {
				return errors.New("detail not found")
			}
		}

		// Capture the sender's average price per detail; a missing row or a
		// NULL average captures no price.
		senderPrices, err := models.LookupAvgPrices(tx, detailIds, []int{senderId})
		if err != nil {
			return err
		}

		parcel = models.Parcel{
			SenderManufactureId:   senderId,
			ReceiverManufactureId: receiverId,
			UserId:                userId,
			Comment:               input.Comment,
		}
		if input.DeliveryCost != nil {
			parcel.LogisticsCost = decimal.NullDecimal{Decimal: *input.DeliveryCost, Valid: true}
			parcel.LogisticsCurrencyId = input.CurrencyId
		}

		for _, component := range input.Components {
			parcel.Components = append(parcel.Components, models.ParcelComponent{
				DetailId: component.DetailId,
				Quantity: component.Quantity,
				Posted:   decimal.Zero,
				Price:    senderPrices[component.DetailId][senderId],
			})
		}

		if err := tx.Create(&parcel).Error; err != nil {
			return err
		}

		if err := storeAttachments(ctx, tx, fileStore, input.Attachments, parcel.ID); err != nil {
			return err
		}

		deltas := make([]models.LedgerDelta, 0, len(parcel.Components))
		logs := make([]models.ParcelLog, 0, len(parcel.Components))
		for _, component := range parcel.Components {
			qty, tested := splitQuantity(details[component.DetailId], component.Quantity.Neg())
			deltas = append(deltas, models.LedgerDelta{
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

		if err := models.ApplyLedgerDeltas(tx, deltas); err != nil {
			return err
		}
		return models.InsertParcelLogs(tx, logs)
	})
	if err != nil {
		if debug {
			logger.WithFields(logrus.Fields{
				"funcName":   "SendParcel",
				"sender":     input.SenderManufactureId,
				"receiver":   input.ReceiverManufactureId,
				"components": len(input.Components),
			}).Error(err.Error())
		}
		return nil, err
	}

	if debug {
		logger.WithFields(logrus.Fields{
			"funcName":   "SendParcel",
			"parcel_id":  parcel.ID,
			"sender":     parcel.SenderManufactureId,
			"receiver":   parcel.ReceiverManufactureId,
			"components": len(parcel.Components),
		}).Info("parcel sent")
	}

	return &parcel, nil
}
