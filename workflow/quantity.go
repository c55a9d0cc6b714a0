package workflow

import (
	"bitbucket.org/mmdatafocus/parcels_backend/models"
	"github.com/shopspring/decimal"
)

const (
	// QuantityScale is the fixed fraction-digit scale for all quantity
	// arithmetic and comparisons. The is_posted decision compares at this
	// scale exactly; there is no epsilon.
	QuantityScale = 6

	// RateScale is the scale used when dividing a logistics cost by a
	// currency rate.
	RateScale = 30
)

func quantitiesEqual(a decimal.Decimal, b decimal.Decimal) bool {
	return a.Round(QuantityScale).Cmp(b.Round(QuantityScale)) == 0
}

func quantityIsPositive(q decimal.Decimal) bool {
	return q.Round(QuantityScale).IsPositive()
}

// splitQuantity routes a signed ledger movement into the counter the detail
// belongs to: tested_quantity when the detail requires testing, quantity
// otherwise. Exactly one of the two returns is non-zero.
func splitQuantity(detail *models.Detail, qty decimal.Decimal) (quantity decimal.Decimal, tested decimal.Decimal) {
	if detail.RequiresTesting != nil && *detail.RequiresTesting {
		return decimal.Zero, qty
	}
	return qty, decimal.Zero
}
