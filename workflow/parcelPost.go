package workflow

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/parcels_backend/config"
	"bitbucket.org/mmdatafocus/parcels_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostParcel records partial or full receipt of a parcel's components at the
// receiver. Concurrent posts against the same parcel are serialized by a
// shared lock on the component rows (and the currency row when a logistics
// cost is set) so the fully-posted fold reads a consistent snapshot. The
// whole transaction is retried on transient conflicts.
//
// A received quantity exceeding the remaining ordered amount is accepted and
// recorded as-is; the exact-equality fold then never reports that component
// complete. That legacy permissiveness is deliberate.
func PostParcel(ctx context.Context, parcelId int, input *models.PostParcelInput, userId int) (*models.Parcel, error) {
	db := config.GetDB()
	logger := config.GetLogger()
	debug := config.DebugParcel()

	var parcel models.Parcel

	err := runInTransaction(ctx, db, func(tx *gorm.DB) error {
		parcel = models.Parcel{}
		if err := tx.First(&parcel, parcelId).Error; err != nil {
			return err
		}

		var components []models.ParcelComponent
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("parcel_id = ?", parcel.ID).
			Find(&components).Error; err != nil {
			return err
		}
		byId := make(map[int]*models.ParcelComponent, len(components))
		totalQuantity := decimal.Zero
		detailIds := make([]int, 0, len(components))
		for i := range components {
			byId[components[i].ID] = &components[i]
			totalQuantity = totalQuantity.Add(components[i].Quantity)
			detailIds = append(detailIds, components[i].DetailId)
		}

		details, err := models.FetchDetailsByIds(tx, detailIds)
		if err != nil {
			return err
		}

		logisticsCost := decimal.Zero
		if parcel.LogisticsCost.Valid && parcel.LogisticsCost.Decimal.IsPositive() {
			var currency *models.Currency
			if parcel.LogisticsCurrencyId != nil {
				currency = &models.Currency{}
				if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
					First(currency, *parcel.LogisticsCurrencyId).Error; err != nil {
					return err
				}
			}
			logisticsCost = logisticsCostInBaseUnits(parcel.LogisticsCost.Decimal, currency)
		}

		recalculate := config.PriceRecalculationEnabled()

		// One resolution pass for every component still unpriced.
		unpriced := make([]int, 0, len(components))
		for i := range components {
			if !components[i].Price.Valid {
				unpriced = append(unpriced, components[i].DetailId)
			}
		}
		var resolvedPrices map[int]decimal.NullDecimal
		if len(unpriced) > 0 {
			resolvedPrices, err = resolveComponentPrices(tx, unpriced, parcel.ReceiverManufactureId)
			if err != nil {
				return err
			}
		}

		incomingById := make(map[int]decimal.Decimal, len(input.Components))
		for _, incoming := range input.Components {
			if _, ok := byId[incoming.ComponentId]; !ok {
				return fmt.Errorf("component %d does not belong to parcel %d", incoming.ComponentId, parcel.ID)
			}
			incomingById[incoming.ComponentId] = incomingById[incoming.ComponentId].Add(incoming.Quantity)
		}

		// The fold runs over every component of the parcel, treating absent
		// ones as receiving zero now; a component already complete stays
		// complete, an untouched incomplete one keeps the parcel open.
		fullyPosted := true
		for i := range components {
			component := &components[i]
			fullyPosted = fullyPosted &&
				quantitiesEqual(component.Posted.Add(incomingById[component.ID]), component.Quantity)
		}

		deltas := make([]models.LedgerDelta, 0, len(input.Components))
		logs := make([]models.ParcelLog, 0, len(input.Components))

		for _, incoming := range input.Components {
			component := byId[incoming.ComponentId]

			logs = append(logs, models.ParcelLog{
				ParcelId:    parcel.ID,
				Action:      models.ParcelActionPosted,
				Quantity:    incoming.Quantity,
				DetailId:    component.DetailId,
				WarehouseId: parcel.ReceiverManufactureId,
				UserId:      userId,
				Comment:     incoming.Comment,
			})

			if !quantityIsPositive(incoming.Quantity) {
				continue
			}

			if err := tx.Model(&models.ParcelComponent{}).
				Where("id = ?", component.ID).
				UpdateColumn("posted", gorm.Expr("posted + ?", incoming.Quantity)).Error; err != nil {
				return err
			}

			// First receipt resolves and pins the captured price; it is
			// immutable from then on.
			if !component.Price.Valid {
				if resolved := resolvedPrices[component.DetailId]; resolved.Valid {
					component.Price = resolved
					if err := tx.Model(&models.ParcelComponent{}).
						Where("id = ?", component.ID).
						UpdateColumn("price", resolved).Error; err != nil {
						return err
					}
				}
			}

			lastPrice := decimal.NullDecimal{}
			if recalculate && component.Price.Valid {
				lastPrice = decimal.NullDecimal{
					Decimal: allocateLandedCost(incoming.Quantity, totalQuantity, component.Price.Decimal, logisticsCost),
					Valid:   true,
				}
			}

			qty, tested := splitQuantity(details[component.DetailId], incoming.Quantity)
			deltas = append(deltas, models.LedgerDelta{
				DetailId:       component.DetailId,
				ManufactureId:  parcel.ReceiverManufactureId,
				Quantity:       qty,
				TestedQuantity: tested,
				LastPrice:      lastPrice,
			})
		}

		if err := models.ApplyLedgerDeltas(tx, deltas); err != nil {
			return err
		}

		if fullyPosted {
			if err := tx.Model(&parcel).Update("is_posted", true).Error; err != nil {
				return err
			}
		}

		return models.InsertParcelLogs(tx, logs)
	})
	if err != nil {
		if debug {
			logger.WithFields(logrus.Fields{
				"funcName":  "PostParcel",
				"parcel_id": parcelId,
			}).Error(err.Error())
		}
		return nil, err
	}

	if debug {
		logger.WithFields(logrus.Fields{
			"funcName":  "PostParcel",
			"parcel_id": parcel.ID,
			"is_posted": parcel.IsPosted != nil && *parcel.IsPosted,
		}).Info("parcel posted")
	}

	return &parcel, nil
}
