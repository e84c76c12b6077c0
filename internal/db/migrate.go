package db

import (
	"fmt"

	"github.com/propertystewards/steward/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model Steward owns, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&models.Inspector{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.Media{},
		&models.Client{},
		&models.Contract{},
		&models.WorkOrder{},
		&models.ChecklistItem{},
		&models.Comment{},
		&models.WebhookDelivery{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
