package migration

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"nomorewaste/entities"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	models := []struct {
		name  string
		model any
	}{
		{"household", &entities.Household{}},
		{"fridge member", &entities.Member{}},
		{"item", &entities.Item{}},
		{"waste log", &entities.WasteLog{}},
		{"consumed log", &entities.ConsumedLog{}},
		{"activity log", &entities.ActivityLog{}},
		{"recipe usage", &entities.RecipeUsage{}},
		{"receipt scan", &entities.ReceiptScan{}},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m.model); err != nil {
			log.Printf("Error migrating %s database: %v", m.name, err)
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
	}

	fmt.Println("Database migration complete")
	return nil
}
