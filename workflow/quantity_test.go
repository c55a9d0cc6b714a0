package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/parcels_backend/models"
	"bitbucket.org/mmdatafocus/parcels_backend/utils"
	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. The fully-posted decision is an
// exact comparison at six fraction digits; there is no epsilon and no
// float64 anywhere in the path.

func TestQuantitiesEqual_ExactAtSixDigits(t *testing.T) {
	ten := decimal.NewFromInt(10)

	cases := []struct {
		name  string
		a     decimal.Decimal
		b     decimal.Decimal
		equal bool
	}{
		{"identical integers", ten, decimal.RequireFromString("10.000000"), true},
		{"sum of partials lands exactly", decimal.RequireFromString("9.999999").Add(decimal.RequireFromString("0.000001")), ten, true},
		{"one millionth short", decimal.RequireFromString("9.999999"), ten, false},
		{"over-received half unit", decimal.RequireFromString("10.5"), ten, false},
		{"sub-scale residue rounds away", decimal.RequireFromString("10.0000004"), ten, true},
	}

	for _, tc := range cases {
		if got := quantitiesEqual(tc.a, tc.b); got != tc.equal {
			t.Errorf("%s: quantitiesEqual(%s, %s) = %v, want %v", tc.name, tc.a, tc.b, got, tc.equal)
		}
	}
}

func TestQuantityIsPositive_RoundsBeforeDeciding(t *testing.T) {
	if quantityIsPositive(decimal.Zero) {
		t.Errorf("zero must not count as a receipt")
	}
	if quantityIsPositive(decimal.RequireFromString("-1")) {
		t.Errorf("negative must not count as a receipt")
	}
	if quantityIsPositive(decimal.RequireFromString("0.0000004")) {
		t.Errorf("sub-scale residue rounds to zero and must not move the ledger")
	}
	if !quantityIsPositive(decimal.RequireFromString("0.000001")) {
		t.Errorf("one millionth is a valid receipt")
	}
}

func TestSplitQuantity_RoutesByRequiresTesting(t *testing.T) {
	qty := decimal.RequireFromString("3.5")

	plain := &models.Detail{RequiresTesting: utils.NewFalse()}
	q, tested := splitQuantity(plain, qty)
	if q.Cmp(qty) != 0 || !tested.IsZero() {
		t.Fatalf("plain detail: got (%s, %s), want (%s, 0)", q, tested, qty)
	}

	testable := &models.Detail{RequiresTesting: utils.NewTrue()}
	q, tested = splitQuantity(testable, qty)
	if !q.IsZero() || tested.Cmp(qty) != 0 {
		t.Fatalf("testable detail: got (%s, %s), want (0, %s)", q, tested, qty)
	}

	// A nil flag behaves like false.
	q, tested = splitQuantity(&models.Detail{}, qty.Neg())
	if q.Cmp(qty.Neg()) != 0 || !tested.IsZero() {
		t.Fatalf("nil flag: got (%s, %s), want (%s, 0)", q, tested, qty.Neg())
	}
}
