package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/maestro-api/internal/models"
)

// AttendanceRepository persists cells of the weekly attendance ledger.
type AttendanceRepository interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	ListWeek(ctx context.Context, semesterID uint, weekStart string) ([]models.AttendanceRecord, error)
	ListForStudent(ctx context.Context, semesterID, studentID uint) ([]models.AttendanceRecord, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository constructs the attendance ledger repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Upsert writes a single ledger cell, replacing the status of an existing one.
func (r *attendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "semester_id"},
			{Name: "week_start"},
			{Name: "session_id"},
			{Name: "student_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"status", "teacher", "updated_at"}),
	}).Create(record).Error
}

func (r *attendanceRepository) ListWeek(ctx context.Context, semesterID uint, weekStart string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("semester_id = ? AND week_start = ?", semesterID, weekStart).
		Order("teacher ASC, session_id ASC, student_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepository) ListForStudent(ctx context.Context, semesterID, studentID uint) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("semester_id = ? AND student_id = ?", semesterID, studentID).
		Order("week_start ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
