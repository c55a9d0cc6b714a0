package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/parcels_backend/config"
	"bitbucket.org/mmdatafocus/parcels_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DeleteParcel permanently removes a parcel, restoring the sender-side ledger
// decrement for every current component and appending DELETED audit entries.
// Receiver-side stock already gained through posting is left untouched.
func DeleteParcel(ctx context.Context, parcelId int, userId int) error {
	db := config.GetDB()
	logger := config.GetLogger()
	debug := config.DebugParcel()

	err := runInTransaction(ctx, db, func(tx *gorm.DB) error {
		var parcel models.Parcel
		if err := tx.Preload("Components").Preload("Attachments").
			First(&parcel, parcelId).Error; err != nil {
			return err
		}

		detailIds := make([]int, 0, len(parcel.Components))
		for _, component := range parcel.Components {
			detailIds = append(detailIds, component.DetailId)
		}
		details, err := models.FetchDetailsByIds(tx, detailIds)
		if err != nil {
			return err
		}

		deltas := make([]models.LedgerDelta, 0, len(parcel.Components))
		logs := make([]models.ParcelLog, 0, len(parcel.Components))
		for _, component := range parcel.Components {
			qty, tested := splitQuantity(details[component.DetailId], component.Quantity)
			deltas = append(deltas, models.LedgerDelta{
				DetailId:       component.DetailId,
				ManufactureId:  parcel.SenderManufactureId,
				Quantity:       qty,
				TestedQuantity: tested,
			})
			logs = append(logs, models.ParcelLog{
				ParcelId:    parcel.ID,
				Action:      models.ParcelActionDeleted,
				Quantity:    component.Quantity,
				DetailId:    component.DetailId,
				WarehouseId: parcel.SenderManufactureId,
				UserId:      userId,
			})
		}

		if err := models.ApplyLedgerDeltas(tx, deltas); err != nil {
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
		if err := tx.Delete(&parcel).Error; err != nil {
			return err
		}

		return models.InsertParcelLogs(tx, logs)
	})
	if err != nil {
		if debug {
			logger.WithFields(logrus.Fields{
				"funcName":  "DeleteParcel",
				"parcel_id": parcelId,
			}).Error(err.Error())
		}
		return err
	}

	if debug {
		logger.WithFields(logrus.Fields{
			"funcName":  "DeleteParcel",
			"parcel_id": parcelId,
		}).Info("parcel deleted")
	}

	return nil
}
