package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/parcels_backend/config"
	"bitbucket.org/mmdatafocus/parcels_backend/utils"
	"gorm.io/gorm"
)

// Detail is a catalog item. RequiresTesting decides which ledger counter a
// quantity movement lands in: tested_quantity when true, quantity otherwise.
type Detail struct {
	ID              int       `gorm:"primary_key" json:"id"`
	Name            string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Sku             string    `gorm:"size:100;index" json:"sku"`
	RequiresTesting *bool     `gorm:"not null;default:false" json:"requires_testing"`
	IsActive        *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDetail struct {
	Name            string `json:"name" binding:"required"`
	Sku             string `json:"sku"`
	RequiresTesting bool   `json:"requires_testing"`
}

func CreateDetail(ctx context.Context, input *NewDetail) (*Detail, error) {
	detail := Detail{
		Name:            input.Name,
		Sku:             input.Sku,
		RequiresTesting: &input.RequiresTesting,
		IsActive:        utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&detail).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

func GetDetail(ctx context.Context, id int) (*Detail, error) {
	return utils.FetchModel[Detail](ctx, id)
}

// FetchDetailsByIds loads the details referenced by an operation's components,
// keyed by id, within the operation's transaction.
func FetchDetailsByIds(tx *gorm.DB, ids []int) (map[int]*Detail, error) {
	var details []*Detail
	if err := tx.Where("id IN (?)", ids).Find(&details).Error; err != nil {
		return nil, err
	}
	byId := make(map[int]*Detail, len(details))
	for _, d := range details {
		byId[d.ID] = d
	}
	return byId, nil
}
