package database

import (
	"fmt"

	"gorm.io/gorm"
)

// RunMigrations executes the migrations AutoMigrate cannot express
func RunMigrations(db *gorm.DB) error {
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createIndexes creates database indexes
func createIndexes(db *gorm.DB) error {
	// Recent-case listing
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_case_records_updated
		ON case_records(updated_at)
	`).Error; err != nil {
		return err
	}

	// Cause-list ordering within a court and date
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_cause_list_order
		ON cause_list_entries(court_name, date, hearing_time, case_number)
	`).Error; err != nil {
		return err
	}

	return nil
}
