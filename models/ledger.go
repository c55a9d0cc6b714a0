package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DetailManufacture is the aggregate stock ledger row, one per
// (detail, manufacture) pair. Quantity holds untested stock, TestedQuantity
// holds stock for details flagged requires_testing. LastPrice is the most
// recently captured unit price; AvgPrice is maintained by the valuation job,
// this package only reads it.
type DetailManufacture struct {
	ID             int                 `gorm:"primary_key" json:"id"`
	DetailId       int                 `gorm:"uniqueIndex:idx_detail_manufacture;not null" json:"detail_id"`
	ManufactureId  int                 `gorm:"uniqueIndex:idx_detail_manufacture;not null" json:"manufacture_id"`
	Quantity       decimal.Decimal     `gorm:"type:decimal(32,6);default:0" json:"quantity"`
	TestedQuantity decimal.Decimal     `gorm:"type:decimal(32,6);default:0" json:"tested_quantity"`
	LastPrice      decimal.NullDecimal `gorm:"type:decimal(32,6)" json:"last_price"`
	AvgPrice       decimal.NullDecimal `gorm:"type:decimal(32,6)" json:"avg_price"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// LedgerDelta is one accumulation against a ledger row. Quantities are
// signed; exactly one of Quantity/TestedQuantity is non-zero for a given
// detail (decided by Detail.RequiresTesting). LastPrice, when valid, replaces
// the row's captured price; an invalid LastPrice preserves whatever is there.
type LedgerDelta struct {
	DetailId       int
	ManufactureId  int
	Quantity       decimal.Decimal
	TestedQuantity decimal.Decimal
	LastPrice      decimal.NullDecimal
}

// ApplyLedgerDeltas flushes a batch of deltas as a single
// INSERT ... ON DUPLICATE KEY UPDATE statement. A missing (detail,
// manufacture) row is created with the delta's values; an existing row
// accumulates. The single-statement form is what makes concurrent operations
// against the same ledger key safe without explicit row locks: MySQL
// linearizes the accumulate per key, so no update is lost.
func ApplyLedgerDeltas(tx *gorm.DB, deltas []LedgerDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	stmt, args := buildLedgerUpsert(deltas, time.Now())
	return tx.Exec(stmt, args...).Error
}

func buildLedgerUpsert(deltas []LedgerDelta, now time.Time) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO detail_manufactures (detail_id, manufacture_id, quantity, tested_quantity, last_price, created_at, updated_at) VALUES ")

	args := make([]interface{}, 0, len(deltas)*7)
	for i, d := range deltas {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?,?,?,?,?)")
		args = append(args, d.DetailId, d.ManufactureId, d.Quantity, d.TestedQuantity, d.LastPrice, now, now)
	}

	sb.WriteString(" ON DUPLICATE KEY UPDATE" +
		" quantity=quantity+VALUES(quantity)," +
		" tested_quantity=tested_quantity+VALUES(tested_quantity)," +
		" last_price=COALESCE(VALUES(last_price),last_price)," +
		" updated_at=VALUES(updated_at)")

	return sb.String(), args
}

// LookupAvgPrices plucks avg_price for the given details at the given
// manufactures, keyed detailId then manufactureId. Rows that do not exist are
// simply absent from the result.
func LookupAvgPrices(tx *gorm.DB, detailIds []int, manufactureIds []int) (map[int]map[int]decimal.NullDecimal, error) {
	if len(detailIds) == 0 || len(manufactureIds) == 0 {
		return map[int]map[int]decimal.NullDecimal{}, nil
	}

	var rows []DetailManufacture
	if err := tx.
		Where("detail_id IN (?) AND manufacture_id IN (?)", detailIds, manufactureIds).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	prices := make(map[int]map[int]decimal.NullDecimal, len(detailIds))
	for _, row := range rows {
		byManufacture, ok := prices[row.DetailId]
		if !ok {
			byManufacture = make(map[int]decimal.NullDecimal, len(manufactureIds))
			prices[row.DetailId] = byManufacture
		}
		byManufacture[row.ManufactureId] = row.AvgPrice
	}
	return prices, nil
}

// LookupAvgPrice returns a single ledger row's avg_price. A missing row or a
// NULL price both come back as an invalid NullDecimal.
func LookupAvgPrice(tx *gorm.DB, detailId int, manufactureId int) (decimal.NullDecimal, error) {
	var row DetailManufacture
	err := tx.
		Where("detail_id = ? AND manufacture_id = ?", detailId, manufactureId).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.NullDecimal{}, nil
		}
		return decimal.NullDecimal{}, err
	}
	return row.AvgPrice, nil
}

// GetLedgerEntry fetches one ledger row, mostly for reports and tests.
func GetLedgerEntry(tx *gorm.DB, detailId int, manufactureId int) (*DetailManufacture, error) {
	var row DetailManufacture
	if err := tx.
		Where("detail_id = ? AND manufacture_id = ?", detailId, manufactureId).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
