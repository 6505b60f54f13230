package models

import "time"

// Session types.
const (
	SessionTypePractical = "practical"
	SessionTypeTheory    = "theory"
)

// Session is a recurring weekly slot owned by one teacher on one day of a semester.
type Session struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	SemesterID     uint             `gorm:"not null;uniqueIndex:idx_session_slot,priority:1" json:"semester_id"`
	Teacher        string           `gorm:"size:255;not null;uniqueIndex:idx_session_slot,priority:2" json:"teacher"`
	Day            string           `gorm:"size:16;not null;uniqueIndex:idx_session_slot,priority:3" json:"day"`
	StartMinutes   int              `gorm:"not null;uniqueIndex:idx_session_slot,priority:4" json:"start_minutes"`
	Time           string           `gorm:"size:16;not null" json:"time"`
	EndTime        string           `gorm:"size:16;not null" json:"end_time"`
	Duration       float64          `gorm:"not null" json:"duration"`
	Specialization string           `gorm:"size:128" json:"specialization"`
	Type           string           `gorm:"size:16;not null;default:practical" json:"type"`
	SlotKey        string           `gorm:"size:320;index" json:"slot_key"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Students       []SessionStudent `gorm:"constraint:OnDelete:CASCADE" json:"students"`
}

// SessionStudent is a student's enrollment inside a session.
type SessionStudent struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SessionID      uint      `gorm:"not null;uniqueIndex:idx_session_student,priority:1" json:"session_id"`
	StudentID      uint      `gorm:"not null;uniqueIndex:idx_session_student,priority:2;index" json:"student_id"`
	StudentName    string    `gorm:"size:255" json:"student_name"`
	PendingRemoval bool      `gorm:"not null;default:false" json:"pending_removal"`
	EnrolledAt     time.Time `json:"enrolled_at"`
}

// HasStudent reports whether the student is enrolled in the session.
func (s Session) HasStudent(studentID uint) bool {
	for _, student := range s.Students {
		if student.StudentID == studentID {
			return true
		}
	}
	return false
}
