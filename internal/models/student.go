package models

import (
	"time"

	"gorm.io/datatypes"
)

// Student profile statuses.
const (
	StudentStatusActive  = "active"
	StudentStatusDeleted = "deleted"
)

// LevelChange records a previous level assignment.
type LevelChange struct {
	Level     string    `json:"level"`
	ChangedAt time.Time `json:"changed_at"`
}

// Student is the academy's student profile.
type Student struct {
	ID                 uint                             `gorm:"primaryKey" json:"id"`
	Name               string                           `gorm:"size:255;not null" json:"name"`
	Email              string                           `gorm:"size:255;index" json:"email"`
	Phone              string                           `gorm:"size:64" json:"phone"`
	Gender             string                           `gorm:"size:16" json:"gender"`
	DateOfBirth        string                           `gorm:"size:10" json:"dob"`
	Nationality        string                           `gorm:"size:64" json:"nationality"`
	InstrumentInterest string                           `gorm:"size:128" json:"instrument_interest"`
	Level              string                           `gorm:"size:64" json:"level"`
	LevelHistory       datatypes.JSONSlice[LevelChange] `gorm:"type:json" json:"level_history"`
	PaymentPlan        string                           `gorm:"size:16" json:"payment_plan"`
	Status             string                           `gorm:"size:16;not null;default:active;index" json:"status"`
	CreatedAt          time.Time                        `json:"created_at"`
	UpdatedAt          time.Time                        `json:"updated_at"`
}

// IsDeleted reports whether the profile was soft deleted.
func (s Student) IsDeleted() bool {
	return s.Status == StudentStatusDeleted
}
