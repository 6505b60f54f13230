package models

import "time"

// ApplicantStatusNew marks freshly imported applicants.
const ApplicantStatusNew = "new"

// Applicant is a prospective student awaiting placement.
type Applicant struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Name               string    `gorm:"size:255;not null" json:"name"`
	Level              string    `gorm:"size:64" json:"level"`
	Gender             string    `gorm:"size:16" json:"gender"`
	DateOfBirth        string    `gorm:"size:32" json:"dob"`
	Nationality        string    `gorm:"size:64" json:"nationality"`
	Phone              string    `gorm:"size:64" json:"phone"`
	Email              string    `gorm:"size:255" json:"email"`
	InstrumentInterest string    `gorm:"size:128" json:"instrument_interest"`
	Status             string    `gorm:"size:16;not null;default:new" json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Incompatibility is a passive exclusion rule between two students.
type Incompatibility struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentAID uint      `gorm:"not null;index" json:"student_a_id"`
	StudentBID uint      `gorm:"not null;index" json:"student_b_id"`
	Reason     string    `gorm:"type:text" json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}
