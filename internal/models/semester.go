package models

import (
	"time"

	"gorm.io/datatypes"
)

// Semester owns a weekly schedule, its attendance ledger and the roster of teachers.
type Semester struct {
	ID        uint                        `gorm:"primaryKey" json:"id"`
	Name      string                      `gorm:"size:255;not null" json:"name"`
	StartDate time.Time                   `gorm:"not null" json:"start_date"`
	EndDate   time.Time                   `gorm:"not null" json:"end_date"`
	Teachers  datatypes.JSONSlice[string] `gorm:"type:json" json:"teachers"`
	IsActive  bool                        `gorm:"not null;default:false;index" json:"is_active"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// HasTeacher reports whether the teacher belongs to the semester roster.
func (s Semester) HasTeacher(name string) bool {
	for _, teacher := range s.Teachers {
		if teacher == name {
			return true
		}
	}
	return false
}

// IsCurrent reports whether the reference date falls inside the semester dates.
func (s Semester) IsCurrent(reference time.Time) bool {
	return !reference.Before(s.StartDate) && !reference.After(s.EndDate.Add(24*time.Hour-time.Nanosecond))
}
