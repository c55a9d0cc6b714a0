package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ParcelLog is the append-only audit trail of ledger-affecting parcel events.
// Rows are inserted in batches inside the operation's transaction and are
// never updated or deleted. Quantity is a magnitude; the ledger direction is
// implied by Action.
type ParcelLog struct {
	ID          int             `gorm:"primary_key" json:"id"`
	ParcelId    int             `gorm:"index;not null" json:"parcel_id"`
	Action      ParcelAction    `gorm:"type:enum('SENT','POSTED','DELETED');not null" json:"action"`
	Quantity    decimal.Decimal `gorm:"type:decimal(32,6);default:0" json:"quantity"`
	DetailId    int             `gorm:"index;not null" json:"detail_id"`
	WarehouseId int             `gorm:"index;not null" json:"warehouse_id"`
	UserId      int             `gorm:"index;not null" json:"user_id"`
	Comment     string          `gorm:"size:255" json:"comment"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// InsertParcelLogs appends audit entries. Pure insert, no uniqueness
// constraint; ordering is insertion order.
func InsertParcelLogs(tx *gorm.DB, logs []ParcelLog) error {
	if len(logs) == 0 {
		return nil
	}
	return tx.Create(&logs).Error
}
