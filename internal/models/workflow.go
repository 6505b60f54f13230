package models

import (
	"time"

	"gorm.io/datatypes"
)

// Teacher request types.
const (
	RequestTypeAddStudent    = "add-student"
	RequestTypeRemoveStudent = "remove-student"
	RequestTypeChangeTime    = "change-time"
)

// Shared workflow statuses for requests and leaves.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

// Leave types.
const (
	LeaveTypeStudent = "student"
	LeaveTypeTeacher = "teacher"
)

// RequestDetails carries the free-form payload of a teacher request.
type RequestDetails struct {
	StudentID   uint   `json:"student_id,omitempty"`
	SessionID   uint   `json:"session_id,omitempty"`
	Day         string `json:"day,omitempty"`
	SessionTime string `json:"session_time,omitempty"`
	Reason      string `json:"reason,omitempty"`
	SemesterID  uint   `json:"semester_id,omitempty"`
}

// TeacherRequest is a change a teacher asks the administration to apply.
type TeacherRequest struct {
	ID         uint                                `gorm:"primaryKey" json:"id"`
	Type       string                              `gorm:"size:32;not null;index" json:"type"`
	Status     string                              `gorm:"size:16;not null;default:pending;index" json:"status"`
	Teacher    string                              `gorm:"size:255;not null;index" json:"teacher"`
	Details    datatypes.JSONType[RequestDetails]  `gorm:"type:json" json:"details"`
	ReviewedBy *uint                               `json:"reviewed_by"`
	ReviewedAt *time.Time                          `json:"reviewed_at"`
	CreatedAt  time.Time                           `json:"created_at"`
	UpdatedAt  time.Time                           `json:"updated_at"`
}

// Leave is a period of absence for a student or a teacher.
type Leave struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Type       string     `gorm:"size:16;not null;index" json:"type"`
	PersonID   uint       `gorm:"index" json:"person_id"`
	PersonName string     `gorm:"size:255;not null" json:"person_name"`
	StartDate  time.Time  `gorm:"not null" json:"start_date"`
	EndDate    time.Time  `gorm:"not null" json:"end_date"`
	Reason     string     `gorm:"type:text" json:"reason"`
	Status     string     `gorm:"size:16;not null;default:pending;index" json:"status"`
	DecidedBy  *uint      `json:"decided_by"`
	DecidedAt  *time.Time `json:"decided_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Covers reports whether the leave interval contains the given calendar day.
func (l Leave) Covers(day time.Time) bool {
	d := truncateDay(day)
	return !d.Before(truncateDay(l.StartDate)) && !d.After(truncateDay(l.EndDate))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
