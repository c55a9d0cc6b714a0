package models

import (
	"log"

	"bitbucket.org/mmdatafocus/parcels_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Currency{},
		&Detail{},
		&DetailManufacture{},
		&Manufacture{},
		&Parcel{}, &ParcelComponent{}, &ParcelAttachment{},
		&ParcelLog{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
