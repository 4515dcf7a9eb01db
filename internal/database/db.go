package database

import (
	"fmt"
	"time"

	"balepos/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens MySQL and syncs the schema. The retry loop covers the
// usual docker-compose race where the app comes up before the database.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database: DB_DSN is not configured")
	}

	var db *gorm.DB
	var err error
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			break
		}
		log.Warn("database connect failed, retrying", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("database: connect after 5 attempts: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Bale{},
		&models.Product{},
		&models.Customer{},
		&models.Order{},
		&models.OrderLog{},
		&models.LiveSession{},
		&models.Transaction{},
		&models.Category{},
		&models.Setting{},
		&models.Device{},
		&models.OutboxEntry{},
	)
	if err != nil {
		return nil, fmt.Errorf("database: migrate: %w", err)
	}

	log.Info("database connected, schema synced")
	return db, nil
}
