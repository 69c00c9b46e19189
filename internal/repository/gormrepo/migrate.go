package gormrepo

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the users, questions, choices,
// follow_up_questions and follow_up_choices tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&userRecord{},
		&questionRecord{},
		&choiceRecord{},
		&followUpRecord{},
		&followUpChoiceRecord{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
