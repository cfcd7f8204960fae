package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConfigTimestamp records when the configuration database last changed.
// Downstream config generation compares against it to detect staleness.
type ConfigTimestamp struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	LastUpdate time.Time `json:"last_update" gorm:"not null"`
}

// TableName sets the table name for the ConfigTimestamp model
func (ConfigTimestamp) TableName() string {
	return "config_timestamps"
}

// ConfigTimestampService maintains the single config timestamp row.
type ConfigTimestampService struct {
	db *gorm.DB
}

// NewConfigTimestampService creates a new config timestamp service with the
// given database connection
func NewConfigTimestampService(db *gorm.DB) *ConfigTimestampService {
	return &ConfigTimestampService{db: db}
}

// Touch sets the config timestamp to the current time.
func (s *ConfigTimestampService) Touch() error {
	row := &ConfigTimestamp{ID: 1, LastUpdate: time.Now().UTC()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_update"}),
	}).Create(row).Error
}

// LastUpdate returns the time of the last configuration change, or the zero
// time if nothing was recorded yet.
func (s *ConfigTimestampService) LastUpdate() (time.Time, error) {
	var row ConfigTimestamp
	err := s.db.First(&row, 1).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return row.LastUpdate, nil
}
