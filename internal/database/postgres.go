package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/models"
)

// ConnectPostgres establishes a connection to the PostgreSQL database using the provided DSN.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// Migrate creates or updates every table the API persists.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Semester{},
		&models.Session{},
		&models.SessionStudent{},
		&models.AttendanceRecord{},
		&models.Student{},
		&models.Installment{},
		&models.PaymentSettings{},
		&models.TeacherRequest{},
		&models.Leave{},
		&models.Applicant{},
		&models.Incompatibility{},
		&models.ScheduleEvent{},
		&models.ActivityLog{},
	)
}
