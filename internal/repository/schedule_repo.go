package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/models"
)

// SessionFilter narrows session listings inside a semester.
type SessionFilter struct {
	Teacher string
	Day     string
}

// Enrollment is a student's derived view of one session membership.
type Enrollment struct {
	SemesterID uint   `json:"semester_id"`
	SessionID  uint   `json:"session_id"`
	Teacher    string `json:"teacher"`
	Day        string `json:"day"`
	Time       string `json:"time"`
}

// ScheduleRepository persists sessions, their enrollments and the schedule mutation log.
type ScheduleRepository interface {
	Transaction(ctx context.Context, fn func(repo ScheduleRepository) error) error
	ListSessions(ctx context.Context, semesterID uint, filter SessionFilter) ([]models.Session, error)
	GetSession(ctx context.Context, id uint) (models.Session, error)
	FindSlot(ctx context.Context, semesterID uint, teacher, day string, startMinutes int) (models.Session, error)
	CreateSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, id uint) error
	AddStudent(ctx context.Context, entry *models.SessionStudent) error
	RemoveStudent(ctx context.Context, sessionID, studentID uint) error
	SetPendingRemoval(ctx context.Context, sessionID, studentID uint, pending bool) error
	EnrollmentsForStudent(ctx context.Context, studentID uint, semesterID *uint) ([]Enrollment, error)
	AppendEvent(ctx context.Context, event *models.ScheduleEvent) error
	ListEvents(ctx context.Context, semesterID uint, limit int) ([]models.ScheduleEvent, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository constructs the schedule repository.
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Transaction(ctx context.Context, fn func(repo ScheduleRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&scheduleRepository{db: tx})
	})
}

func (r *scheduleRepository) ListSessions(ctx context.Context, semesterID uint, filter SessionFilter) ([]models.Session, error) {
	query := r.db.WithContext(ctx).Preload("Students").Where("semester_id = ?", semesterID)
	if filter.Teacher != "" {
		query = query.Where("teacher = ?", filter.Teacher)
	}
	if filter.Day != "" {
		query = query.Where("day = ?", filter.Day)
	}

	var sessions []models.Session
	if err := query.Order("teacher ASC, start_minutes ASC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *scheduleRepository) GetSession(ctx context.Context, id uint) (models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Preload("Students").First(&session, id).Error; err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (r *scheduleRepository) FindSlot(ctx context.Context, semesterID uint, teacher, day string, startMinutes int) (models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).Preload("Students").
		Where("semester_id = ? AND teacher = ? AND day = ? AND start_minutes = ?", semesterID, teacher, day, startMinutes).
		First(&session).Error
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (r *scheduleRepository) CreateSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Omit("Students").Create(session).Error
}

func (r *scheduleRepository) DeleteSession(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("session_id = ?", id).Delete(&models.SessionStudent{}).Error; err != nil {
		return err
	}

	result := db.Delete(&models.Session{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *scheduleRepository) AddStudent(ctx context.Context, entry *models.SessionStudent) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *scheduleRepository) RemoveStudent(ctx context.Context, sessionID, studentID uint) error {
	result := r.db.WithContext(ctx).
		Where("session_id = ? AND student_id = ?", sessionID, studentID).
		Delete(&models.SessionStudent{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *scheduleRepository) SetPendingRemoval(ctx context.Context, sessionID, studentID uint, pending bool) error {
	result := r.db.WithContext(ctx).Model(&models.SessionStudent{}).
		Where("session_id = ? AND student_id = ?", sessionID, studentID).
		Update("pending_removal", pending)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *scheduleRepository) EnrollmentsForStudent(ctx context.Context, studentID uint, semesterID *uint) ([]Enrollment, error) {
	query := r.db.WithContext(ctx).Table("session_students").
		Select("sessions.semester_id, sessions.id AS session_id, sessions.teacher, sessions.day, sessions.time").
		Joins("JOIN sessions ON sessions.id = session_students.session_id").
		Where("session_students.student_id = ?", studentID)
	if semesterID != nil {
		query = query.Where("sessions.semester_id = ?", *semesterID)
	}

	enrollments := make([]Enrollment, 0)
	if err := query.Order("sessions.semester_id ASC, sessions.id ASC").Scan(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *scheduleRepository) AppendEvent(ctx context.Context, event *models.ScheduleEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *scheduleRepository) ListEvents(ctx context.Context, semesterID uint, limit int) ([]models.ScheduleEvent, error) {
	query := r.db.WithContext(ctx).Where("semester_id = ?", semesterID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var events []models.ScheduleEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
