package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/parcels_backend/config"
	"bitbucket.org/mmdatafocus/parcels_backend/utils"
	"github.com/shopspring/decimal"
)

// Currency carries the exchange rate used to convert a parcel's logistics
// cost into base units. A zero or missing rate is substituted with 1 at the
// point of use, never rejected.
type Currency struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Symbol    string          `gorm:"index;size:3;not null" json:"symbol" binding:"required"`
	Name      string          `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Rate      decimal.Decimal `gorm:"type:decimal(40,30);default:1" json:"rate"`
	IsActive  *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCurrency struct {
	Symbol string          `json:"symbol" binding:"required"`
	Name   string          `json:"name" binding:"required"`
	Rate   decimal.Decimal `json:"rate"`
}

func CreateCurrency(ctx context.Context, input *NewCurrency) (*Currency, error) {
	currency := Currency{
		Symbol:   input.Symbol,
		Name:     input.Name,
		Rate:     input.Rate,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&currency).Error; err != nil {
		return nil, err
	}
	return &currency, nil
}

func GetCurrency(ctx context.Context, id int) (*Currency, error) {
	return utils.FetchModel[Currency](ctx, id)
}

func GetCurrencies(ctx context.Context) ([]*Currency, error) {
	return utils.FetchAllModels[Currency](ctx)
}
