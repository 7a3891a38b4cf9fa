package postgres

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gravadigital/nominations-api/internal/config"
	"github.com/gravadigital/nominations-api/internal/domain/contact"
	"github.com/gravadigital/nominations-api/internal/domain/nominee"
	"github.com/gravadigital/nominations-api/internal/domain/nomination"
	"github.com/gravadigital/nominations-api/internal/domain/outbox"
	"github.com/gravadigital/nominations-api/internal/domain/vote"
	"github.com/gravadigital/nominations-api/internal/logger"
)

// Outbox table names, one per external system.
const (
	HubSpotOutboxTable = "hubspot_outbox"
	LoopsOutboxTable   = "loops_outbox"
)

// Connect opens a PostgreSQL connection using the application configuration.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	log := logger.Database()

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("database connection established", "host", cfg.DB.Host, "database", cfg.DB.Name)
	return db, nil
}

// AutoMigrate creates or updates the entity tables and both outbox tables.
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&contact.Contact{},
		&nominee.Nominee{},
		&nomination.Nomination{},
		&vote.Vote{},
	}

	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	// outbox.Event has no fixed table name; each external system gets its own.
	for _, table := range []string{HubSpotOutboxTable, LoopsOutboxTable} {
		if err := db.Table(table).AutoMigrate(&outbox.Event{}); err != nil {
			return fmt.Errorf("auto-migration failed for %s: %w", table, err)
		}
	}

	return nil
}
