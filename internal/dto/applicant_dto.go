package dto

import "github.com/noah-isme/maestro-api/internal/models"

// ApplicantImportResponse summarises a CSV import.
type ApplicantImportResponse struct {
	Imported   int                `json:"imported"`
	Applicants []models.Applicant `json:"applicants"`
}

// IncompatibilityCreateRequest records an exclusion rule between two students.
type IncompatibilityCreateRequest struct {
	StudentAID uint   `json:"student_a_id" validate:"required"`
	StudentBID uint   `json:"student_b_id" validate:"required,nefield=StudentAID"`
	Reason     string `json:"reason" validate:"omitempty,max=2000"`
}
