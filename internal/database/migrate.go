package database

import (
	"fmt"

	"opsboard/internal/models"

	"gorm.io/gorm"
)

// AllModels returns every table of the board store in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Board{},
		&models.Column{},
		&models.Task{},
		&models.Label{},
		&models.TaskLabel{},
		&models.Attachment{},
		&models.ActivityLog{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("database: auto-migrate: %w", err)
	}
	return nil
}

// SeedLabels inserts the default labels only when the labels table is empty.
func SeedLabels(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Label{}).Count(&count).Error; err != nil {
		return fmt.Errorf("database: count labels: %w", err)
	}
	if count > 0 {
		return nil
	}

	labels := make([]models.Label, len(models.DefaultLabels))
	copy(labels, models.DefaultLabels)
	if err := db.Create(&labels).Error; err != nil {
		return fmt.Errorf("database: seed labels: %w", err)
	}
	return nil
}

// Migrate brings the schema up to date and seeds reference data.
func Migrate(db *gorm.DB) error {
	if err := AutoMigrate(db); err != nil {
		return err
	}
	return SeedLabels(db)
}
