package models

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBuildLedgerUpsert_SingleStatementAccumulate(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	deltas := []LedgerDelta{
		{DetailId: 1, ManufactureId: 10, Quantity: decimal.NewFromInt(-5)},
		{DetailId: 2, ManufactureId: 10, TestedQuantity: decimal.NewFromInt(3), LastPrice: decimal.NewNullDecimal(decimal.NewFromInt(7))},
	}

	stmt, args := buildLedgerUpsert(deltas, now)

	if !strings.HasPrefix(stmt, "INSERT INTO detail_manufactures (detail_id, manufacture_id, quantity, tested_quantity, last_price, created_at, updated_at) VALUES ") {
		t.Fatalf("unexpected statement prefix: %s", stmt)
	}
	if got := strings.Count(stmt, "(?,?,?,?,?,?,?)"); got != len(deltas) {
		t.Fatalf("expected %d value groups, got %d: %s", len(deltas), got, stmt)
	}
	if len(args) != len(deltas)*7 {
		t.Fatalf("expected %d args, got %d", len(deltas)*7, len(args))
	}

	// Existing rows accumulate; they are never overwritten.
	if !strings.Contains(stmt, "quantity=quantity+VALUES(quantity)") {
		t.Errorf("quantity must accumulate: %s", stmt)
	}
	if !strings.Contains(stmt, "tested_quantity=tested_quantity+VALUES(tested_quantity)") {
		t.Errorf("tested_quantity must accumulate: %s", stmt)
	}
	// A NULL incoming price preserves the stored one.
	if !strings.Contains(stmt, "last_price=COALESCE(VALUES(last_price),last_price)") {
		t.Errorf("last_price must be COALESCE-guarded: %s", stmt)
	}

	// Signed values go to the insert side verbatim, so a missing row is
	// created with the delta itself.
	if args[0] != 1 || args[1] != 10 {
		t.Fatalf("first row keys: got (%v, %v), want (1, 10)", args[0], args[1])
	}
	if q, ok := args[2].(decimal.Decimal); !ok || q.Cmp(decimal.NewFromInt(-5)) != 0 {
		t.Fatalf("first row quantity: got %v, want -5", args[2])
	}
	if p, ok := args[11].(decimal.NullDecimal); !ok || !p.Valid || p.Decimal.Cmp(decimal.NewFromInt(7)) != 0 {
		t.Fatalf("second row last_price: got %v, want valid 7", args[11])
	}
}
