package dto

import (
	"time"

	"github.com/noah-isme/maestro-api/internal/models"
)

// SemesterCreateRequest captures the payload for creating a semester.
type SemesterCreateRequest struct {
	Name      string   `json:"name" validate:"required,min=2,max=255"`
	StartDate string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	Teachers  []string `json:"teachers" validate:"omitempty,dive,required,max=255"`
}

// SemesterUpdateRequest captures partial semester updates.
type SemesterUpdateRequest struct {
	Name      *string  `json:"name" validate:"omitempty,min=2,max=255"`
	StartDate *string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Teachers  []string `json:"teachers" validate:"omitempty,dive,required,max=255"`
}

// SemesterResponse serializes a semester.
type SemesterResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Teachers  []string  `json:"teachers"`
	IsActive  bool      `json:"is_active"`
	IsCurrent bool      `json:"is_current"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSemesterResponse converts a semester model; the current flag is evaluated at the reference time.
func NewSemesterResponse(semester models.Semester, reference time.Time) SemesterResponse {
	teachers := make([]string, 0, len(semester.Teachers))
	teachers = append(teachers, semester.Teachers...)
	return SemesterResponse{
		ID:        semester.ID,
		Name:      semester.Name,
		StartDate: semester.StartDate.Format(dateLayout),
		EndDate:   semester.EndDate.Format(dateLayout),
		Teachers:  teachers,
		IsActive:  semester.IsActive,
		IsCurrent: semester.IsCurrent(reference),
		CreatedAt: semester.CreatedAt,
	}
}

// SessionStudentView is a session member as shown in the master schedule.
type SessionStudentView struct {
	StudentID      uint      `json:"student_id"`
	Name           string    `json:"name"`
	PendingRemoval bool      `json:"pending_removal"`
	Attendance     *string   `json:"attendance"`
	EnrolledAt     time.Time `json:"enrolled_at"`
}

// SessionView is one session inside the master schedule projection.
type SessionView struct {
	ID             uint                 `json:"id"`
	SlotKey        string               `json:"slot_key"`
	Teacher        string               `json:"teacher"`
	Day            string               `json:"day"`
	Time           string               `json:"time"`
	EndTime        string               `json:"end_time"`
	Duration       float64              `json:"duration"`
	Specialization string               `json:"specialization"`
	Type           string               `json:"type"`
	Students       []SessionStudentView `json:"students"`
}

// ScheduleResponse is the teacher → day → sessions projection of a semester.
type ScheduleResponse struct {
	SemesterID uint                                `json:"semester_id"`
	Week       string                              `json:"week,omitempty"`
	Master     map[string]map[string][]SessionView `json:"master_schedule"`
	CacheHit   bool                                `json:"cache_hit"`
}

// NewSessionView converts a session without attendance overlay.
func NewSessionView(session models.Session) SessionView {
	students := make([]SessionStudentView, 0, len(session.Students))
	for _, student := range session.Students {
		students = append(students, SessionStudentView{
			StudentID:      student.StudentID,
			Name:           student.StudentName,
			PendingRemoval: student.PendingRemoval,
			EnrolledAt:     student.EnrolledAt,
		})
	}

	return SessionView{
		ID:             session.ID,
		SlotKey:        session.SlotKey,
		Teacher:        session.Teacher,
		Day:            session.Day,
		Time:           session.Time,
		EndTime:        session.EndTime,
		Duration:       session.Duration,
		Specialization: session.Specialization,
		Type:           session.Type,
		Students:       students,
	}
}

const dateLayout = "2006-01-02"
