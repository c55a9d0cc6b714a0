package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/parcels_backend/config"
	"bitbucket.org/mmdatafocus/parcels_backend/utils"
	"gorm.io/gorm"
)

// Manufacture is a warehouse/party stock can be held at. Exactly one
// manufacture is flagged as the fallback price source: when the receiving
// warehouse has never seen a detail, posting resolves the captured price from
// the fallback's ledger row instead.
type Manufacture struct {
	ID         int       `gorm:"primary_key" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name" binding:"required"`
	ExternalId string    `gorm:"size:64;index;default:null" json:"external_id"`
	IsFallback *bool     `gorm:"not null;default:false" json:"is_fallback"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewManufacture struct {
	Name       string `json:"name" binding:"required"`
	ExternalId string `json:"external_id"`
	IsFallback bool   `json:"is_fallback"`
}

func CreateManufacture(ctx context.Context, input *NewManufacture) (*Manufacture, error) {
	manufacture := Manufacture{
		Name:       input.Name,
		ExternalId: input.ExternalId,
		IsFallback: &input.IsFallback,
		IsActive:   utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&manufacture).Error; err != nil {
		return nil, err
	}
	return &manufacture, nil
}

func GetManufacture(ctx context.Context, id int) (*Manufacture, error) {
	return utils.FetchModel[Manufacture](ctx, id)
}

func GetManufactures(ctx context.Context) ([]*Manufacture, error) {
	return utils.FetchAllModels[Manufacture](ctx)
}

// FallbackManufacture returns the designated fallback price source within the
// current transaction.
func FallbackManufacture(tx *gorm.DB) (*Manufacture, error) {
	var manufacture Manufacture
	if err := tx.Where("is_fallback = ?", true).First(&manufacture).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("fallback manufacture is not configured")
		}
		return nil, err
	}
	return &manufacture, nil
}
