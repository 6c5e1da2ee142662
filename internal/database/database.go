package database

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opsdesk/opsdesk-api/internal/config"
	"github.com/opsdesk/opsdesk-api/internal/models"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Database connection established")
	return nil
}

func Migrate() error {
	return MigrateWith(DB)
}

// MigrateWith runs the schema migration against the given connection.
// Test suites call it with an in-memory sqlite handle.
func MigrateWith(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Business{},
		&models.Profile{},
		&models.Invite{},
		&models.CustomType{},
		&models.Contact{},
		&models.Item{},
		&models.ItemNote{},
		&models.ContactItem{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.TaskComment{},
		&models.TaskCommentMention{},
		&models.TaskActivity{},
		&models.CalendarEntry{},
		&models.CalendarAttendee{},
		&models.PipelineStage{},
		&models.Deal{},
		&models.DealActivity{},
		&models.Invoice{},
		&models.InvoiceLineItem{},
		&models.Payment{},
		&models.TimeEntry{},
		&models.Document{},
		&models.DocumentActivity{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// AutoMigrate cannot express a partial unique index. One open timer per
	// user per business; works on both postgres and sqlite.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_open_time_entry ON time_entries (business_id, user_id) WHERE end_time IS NULL",
	).Error; err != nil {
		return fmt.Errorf("failed to create open-timer index: %w", err)
	}

	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (used for testing)
func SetDB(db *gorm.DB) {
	DB = db
}
