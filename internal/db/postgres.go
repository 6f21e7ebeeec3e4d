package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the Postgres store and brings the schema up to date.
func Connect(dsn string, defaultCapacity, defaultPricePerHour int) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := runMigrations(gdb, defaultCapacity, defaultPricePerHour); err != nil {
		return nil, err
	}
	return gdb, nil
}
