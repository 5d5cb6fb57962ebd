package models

import (
	"log"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&CashRecord{}, &InvestmentMovement{}, &Bill{},
		&ForecastLine{},
		&Category{}, &SubCategory{},
		&Contract{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
