package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/parcels_backend/config"
	"bitbucket.org/mmdatafocus/parcels_backend/utils"
	"github.com/shopspring/decimal"
)

// Parcel is a transfer order moving details from the sender manufacture to
// the receiver manufacture. IsPosted flips to true once every component's
// received total exactly equals its ordered quantity.
type Parcel struct {
	ID                    int                 `gorm:"primary_key" json:"id"`
	SenderManufactureId   int                 `gorm:"index;not null" json:"sender_manufacture_id"`
	ReceiverManufactureId int                 `gorm:"index;not null" json:"receiver_manufacture_id"`
	LogisticsCost         decimal.NullDecimal `gorm:"type:decimal(32,6)" json:"logistics_cost"`
	LogisticsCurrencyId   *int                `gorm:"default:null" json:"logistics_currency_id"`
	IsPosted              *bool               `gorm:"not null;default:false" json:"is_posted"`
	UserId                int                 `gorm:"index;not null" json:"user_id"`
	Comment               string              `gorm:"size:255" json:"comment"`
	Components            []ParcelComponent   `gorm:"foreignKey:ParcelId" json:"components"`
	Attachments           []ParcelAttachment  `gorm:"foreignKey:ParcelId" json:"attachments"`
	CreatedAt             time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// ParcelComponent is one line item. Posted accumulates across partial
// receipts and never decreases. Price is captured once (at send from the
// sender's average, or at first post from the receiver/fallback average) and
// is immutable afterwards.
type ParcelComponent struct {
	ID        int                 `gorm:"primary_key" json:"id"`
	ParcelId  int                 `gorm:"index;not null" json:"parcel_id"`
	DetailId  int                 `gorm:"index;not null" json:"detail_id"`
	Quantity  decimal.Decimal     `gorm:"type:decimal(32,6);not null" json:"quantity"`
	Posted    decimal.Decimal     `gorm:"type:decimal(32,6);default:0" json:"posted"`
	Price     decimal.NullDecimal `gorm:"type:decimal(32,6)" json:"price"`
	CreatedAt time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// ParcelAttachment is an opaque reference into the external file store; the
// bytes themselves never touch this database.
type ParcelAttachment struct {
	ID        int       `gorm:"primary_key" json:"id"`
	ParcelId  int       `gorm:"index;not null" json:"parcel_id"`
	Hash      string    `gorm:"size:64;not null" json:"hash"`
	Url       string    `gorm:"size:512;not null" json:"url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NewParcelComponent is one validated input line. DetailId is internal.
type NewParcelComponent struct {
	DetailId int             `json:"detail_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required,dgt0"`
}

// NewParcelAttachment carries an attachment payload (base64) to be handed to
// the file store; only the returned reference is persisted.
type NewParcelAttachment struct {
	FileName string `json:"file_name"`
	Data     string `json:"data" binding:"required"`
}

// NewParcel is the validated input for Send and Update. Manufacture ids may
// be internal ids or legacy external ids; the lifecycle resolves them through
// an explicit per-operation cache.
type NewParcel struct {
	SenderManufactureId   string                 `json:"sender_manufacture_id" binding:"required"`
	ReceiverManufactureId string                 `json:"receiver_manufacture_id" binding:"required"`
	Components            []NewParcelComponent   `json:"components" binding:"required,dive"`
	DeliveryCost          *decimal.Decimal       `json:"delivery_cost"`
	CurrencyId            *int                   `json:"currency_id"`
	Attachments           []*NewParcelAttachment `json:"attachments"`
	Comment               string                 `json:"comment"`
}

// PostParcelComponent is the amount of one component being received now. It
// may be any subset of the remaining quantity; zero-or-negative amounts are
// recorded in the audit trail but produce no ledger movement.
type PostParcelComponent struct {
	ComponentId int             `json:"component_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Comment     string          `json:"comment"`
}

type PostParcelInput struct {
	Components []PostParcelComponent `json:"components" binding:"required,dive"`
}

func GetParcel(ctx context.Context, id int) (*Parcel, error) {
	return utils.FetchModel[Parcel](ctx, id, "Components", "Attachments")
}

func GetParcels(ctx context.Context, limit int, offset int, isPosted *bool) ([]*Parcel, error) {
	if limit <= 0 || limit > 100 {
		limit = config.SearchLimit
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Preload("Components").
		Preload("Attachments").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)
	if isPosted != nil {
		dbCtx = dbCtx.Where("is_posted = ?", *isPosted)
	}

	var parcels []*Parcel
	if err := dbCtx.Find(&parcels).Error; err != nil {
		return nil, err
	}
	return parcels, nil
}

func (input *NewParcel) Validate(ctx context.Context) error {
	if input.SenderManufactureId == input.ReceiverManufactureId {
		return errors.New("transfers cannot be made within the same warehouse. please choose a different one and proceed")
	}
	if len(input.Components) == 0 {
		return errors.New("parcel requires at least one component")
	}
	for _, component := range input.Components {
		if component.Quantity.IsZero() {
			return errors.New("transfer quantity cannot be zero")
		}
		if err := utils.ValidateResourceId[Detail](ctx, component.DetailId); err != nil {
			return errors.New("detail not found")
		}
	}
	if input.CurrencyId != nil {
		if err := utils.ValidateResourceId[Currency](ctx, *input.CurrencyId); err != nil {
			return errors.New("currency not found")
		}
	}
	return nil
}
