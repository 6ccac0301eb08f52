package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lms/config"
	"lms/models"
	courseModels "lms/models/course"
)

// Connect establishes a connection to PostgreSQL and runs migrations.
// TranslateError is enabled so unique-constraint violations come back as
// gorm.ErrDuplicatedKey, which the stores turn into conflict results.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// runMigrations performs database migrations
func runMigrations(db *gorm.DB) error {
	log.Println("Running Migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&courseModels.Course{},
		&courseModels.Module{},
		&courseModels.Enrollment{},
		&courseModels.CompletedModule{},
		&courseModels.RosterEntry{},
		&courseModels.WebhookEvent{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// One live enrollment per (student, course). Partial so a dropped
	// enrollment never blocks a re-purchase while its payment trail is kept.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollments_live_pair
		ON enrollments (student_id, course_id)
		WHERE status IN ('active', 'completed')`).Error
	if err != nil {
		return fmt.Errorf("create live-pair index: %w", err)
	}

	log.Println("Migrations completed successfully.")
	return nil
}
