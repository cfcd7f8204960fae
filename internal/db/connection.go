package db

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mapadmin/config-portal/internal/db/models"
)

// Connect creates a connection to the database using the provided URL.
func Connect(databaseURL string) (*gorm.DB, error) {
	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// RunMigrations migrates the schema and seeds the resource type lookup table.
func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.ResourceType{},
		&models.Resource{},
		&models.Permission{},
		&models.ConfigTimestamp{},
	)
	if err != nil {
		return err
	}
	return models.SeedResourceTypes(db)
}
