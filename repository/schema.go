package repository

import (
	"fmt"

	"github.com/amirphl/order-relay/models"
	"gorm.io/gorm"
)

// Models lists every persisted entity in migration order
func Models() []any {
	return []any{
		&models.TenantConfig{},
		&models.NotificationRecord{},
	}
}

// AutoMigrate creates or updates the tables and indexes of the relay
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
