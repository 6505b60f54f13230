package dto

import (
	"time"

	"github.com/noah-isme/maestro-api/internal/models"
)

// StudentListRequest defines filters for listing students.
type StudentListRequest struct {
	Page     int
	PageSize int
	Search   string
	Status   string
	Level    string
	Sort     string
}

// StudentCreateRequest captures a new student profile.
type StudentCreateRequest struct {
	Name               string `json:"name" validate:"required,min=2,max=255"`
	Email              string `json:"email" validate:"omitempty,email"`
	Phone              string `json:"phone" validate:"omitempty,max=64"`
	Gender             string `json:"gender" validate:"omitempty,max=16"`
	DateOfBirth        string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Nationality        string `json:"nationality" validate:"omitempty,max=64"`
	InstrumentInterest string `json:"instrument_interest" validate:"omitempty,max=128"`
	Level              string `json:"level" validate:"omitempty,max=64"`
}

// StudentUpdateRequest captures partial profile updates.
type StudentUpdateRequest struct {
	Name               *string `json:"name" validate:"omitempty,min=2,max=255"`
	Email              *string `json:"email" validate:"omitempty,email"`
	Phone              *string `json:"phone" validate:"omitempty,max=64"`
	Gender             *string `json:"gender" validate:"omitempty,max=16"`
	DateOfBirth        *string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Nationality        *string `json:"nationality" validate:"omitempty,max=64"`
	InstrumentInterest *string `json:"instrument_interest" validate:"omitempty,max=128"`
	Level              *string `json:"level" validate:"omitempty,max=64"`
}

// StudentResponse serializes a student profile together with its derived enrollments.
type StudentResponse struct {
	ID                 uint                 `json:"id"`
	Name               string               `json:"name"`
	Email              string               `json:"email"`
	Phone              string               `json:"phone"`
	Gender             string               `json:"gender"`
	DateOfBirth        string               `json:"dob"`
	Nationality        string               `json:"nationality"`
	InstrumentInterest string               `json:"instrument_interest"`
	Level              string               `json:"level"`
	LevelHistory       []models.LevelChange `json:"level_history"`
	PaymentPlan        string               `json:"payment_plan"`
	Status             string               `json:"status"`
	EnrolledIn         []EnrollmentResponse `json:"enrolled_in"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// StudentListResponse wraps a paginated student listing.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewStudentResponse converts a student model with the supplied enrollments.
func NewStudentResponse(student models.Student, enrolledIn []EnrollmentResponse) StudentResponse {
	history := make([]models.LevelChange, 0, len(student.LevelHistory))
	history = append(history, student.LevelHistory...)
	if enrolledIn == nil {
		enrolledIn = []EnrollmentResponse{}
	}

	return StudentResponse{
		ID:                 student.ID,
		Name:               student.Name,
		Email:              student.Email,
		Phone:              student.Phone,
		Gender:             student.Gender,
		DateOfBirth:        student.DateOfBirth,
		Nationality:        student.Nationality,
		InstrumentInterest: student.InstrumentInterest,
		Level:              student.Level,
		LevelHistory:       history,
		PaymentPlan:        student.PaymentPlan,
		Status:             student.Status,
		EnrolledIn:         enrolledIn,
		CreatedAt:          student.CreatedAt,
		UpdatedAt:          student.UpdatedAt,
	}
}
