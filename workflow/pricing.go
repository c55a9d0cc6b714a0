package workflow

import (
	"bitbucket.org/mmdatafocus/parcels_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// logisticsCostInBaseUnits converts a parcel's logistics cost into base units
// by dividing through the currency rate at RateScale. A nil currency or a
// zero/negative rate substitutes a rate of 1 instead of failing.
func logisticsCostInBaseUnits(cost decimal.Decimal, currency *models.Currency) decimal.Decimal {
	rate := decimal.NewFromInt(1)
	if currency != nil && currency.Rate.IsPositive() {
		rate = currency.Rate
	}
	return cost.DivRound(rate, RateScale)
}

// allocateLandedCost computes the per-unit landed price written to the ledger
// when landed-price recalculation is enabled: the captured unit price plus
// the component's quantity-proportional share of the parcel's logistics cost.
func allocateLandedCost(quantity decimal.Decimal, totalQuantity decimal.Decimal, unitPrice decimal.Decimal, logisticsCost decimal.Decimal) decimal.Decimal {
	if totalQuantity.Round(QuantityScale).IsZero() {
		return unitPrice.Round(QuantityScale)
	}
	share := logisticsCost.Mul(quantity).DivRound(totalQuantity, RateScale)
	return unitPrice.Add(share).Round(QuantityScale)
}

// resolveComponentPrices fills in captured prices for components that do not
// have one yet: the receiver manufacture's average price, else the fallback
// manufacture's. Both missing resolves to null and the component proceeds
// unpriced.
func resolveComponentPrices(tx *gorm.DB, detailIds []int, receiverManufactureId int) (map[int]decimal.NullDecimal, error) {
	fallback, err := models.FallbackManufacture(tx)
	if err != nil {
		return nil, err
	}

	prices, err := models.LookupAvgPrices(tx, detailIds, []int{receiverManufactureId, fallback.ID})
	if err != nil {
		return nil, err
	}

	resolved := make(map[int]decimal.NullDecimal, len(detailIds))
	for _, detailId := range detailIds {
		byManufacture := prices[detailId]
		if price, ok := byManufacture[receiverManufactureId]; ok && price.Valid {
			resolved[detailId] = price
			continue
		}
		resolved[detailId] = byManufacture[fallback.ID]
	}
	return resolved, nil
}
