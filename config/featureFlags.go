package config

import (
	"os"
	"strings"
)

// PriceRecalculationEnabled controls landed-price recalculation on posting:
// when on, a component's captured unit price is adjusted with its share of the
// parcel's logistics cost before being written to the ledger's last_price.
//
// Set via env:
// - PRICE_RECALCULATION=true
func PriceRecalculationEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("PRICE_RECALCULATION")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// DebugParcel gates verbose per-stage logging of parcel lifecycle operations.
//
// Set via env:
// - DEBUG_PARCEL=true
func DebugParcel() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("DEBUG_PARCEL")), "true")
}
