package dto

import (
	"time"

	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/schedule"
)

// LeaveCreateRequest captures a leave submission.
type LeaveCreateRequest struct {
	Type       string `json:"type" validate:"required,oneof=student teacher"`
	PersonID   uint   `json:"person_id" validate:"required_if=Type student"`
	PersonName string `json:"person_name" validate:"required_if=Type teacher,max=255"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason     string `json:"reason" validate:"omitempty,max=2000"`
}

// LeaveListRequest filters leave listings.
type LeaveListRequest struct {
	Type   string
	Status string
}

// LeaveResponse serializes a leave.
type LeaveResponse struct {
	ID         uint       `json:"id"`
	Type       string     `json:"type"`
	PersonID   uint       `json:"person_id,omitempty"`
	PersonName string     `json:"person_name"`
	StartDate  string     `json:"start_date"`
	EndDate    string     `json:"end_date"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	DecidedBy  *uint      `json:"decided_by"`
	DecidedAt  *time.Time `json:"decided_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewLeaveResponse converts a leave model.
func NewLeaveResponse(leave models.Leave) LeaveResponse {
	return LeaveResponse{
		ID:         leave.ID,
		Type:       leave.Type,
		PersonID:   leave.PersonID,
		PersonName: leave.PersonName,
		StartDate:  leave.StartDate.Format(dateLayout),
		EndDate:    leave.EndDate.Format(dateLayout),
		Reason:     leave.Reason,
		Status:     leave.Status,
		DecidedBy:  leave.DecidedBy,
		DecidedAt:  leave.DecidedAt,
		CreatedAt:  leave.CreatedAt,
	}
}

// TransferPreviewResponse lists the enrollments a teacher leave affects.
type TransferPreviewResponse struct {
	LeaveID    uint                `json:"leave_id"`
	SemesterID uint                `json:"semester_id"`
	Teacher    string              `json:"teacher"`
	Affected   []schedule.Affected `json:"affected"`
}

// TransferRequest moves one affected student to a substitute teacher.
type TransferRequest struct {
	StudentID  uint   `json:"student_id" validate:"required"`
	SessionID  uint   `json:"session_id" validate:"required"`
	NewTeacher string `json:"new_teacher" validate:"required,max=255"`
}

// LeaveApproveRequest carries the transfers required to approve a teacher leave.
type LeaveApproveRequest struct {
	SemesterID uint              `json:"semester_id"`
	Transfers  []TransferRequest `json:"transfers" validate:"omitempty,dive"`
}

// TeacherRequestCreateRequest captures a teacher's change request.
type TeacherRequestCreateRequest struct {
	Type        string `json:"type" validate:"required,oneof=add-student remove-student change-time"`
	Teacher     string `json:"teacher" validate:"required,max=255"`
	SemesterID  uint   `json:"semester_id"`
	StudentID   uint   `json:"student_id" validate:"required_if=Type remove-student"`
	SessionID   uint   `json:"session_id" validate:"required_if=Type remove-student"`
	Day         string `json:"day" validate:"required_if=Type remove-student"`
	SessionTime string `json:"session_time"`
	Reason      string `json:"reason" validate:"omitempty,max=2000"`
}

// TeacherRequestListRequest filters teacher requests.
type TeacherRequestListRequest struct {
	Status  string
	Teacher string
	Type    string
}

// TeacherRequestResponse serializes a teacher request.
type TeacherRequestResponse struct {
	ID         uint                  `json:"id"`
	Type       string                `json:"type"`
	Status     string                `json:"status"`
	Teacher    string                `json:"teacher"`
	Details    models.RequestDetails `json:"details"`
	ReviewedBy *uint                 `json:"reviewed_by"`
	ReviewedAt *time.Time            `json:"reviewed_at"`
	CreatedAt  time.Time             `json:"created_at"`
}

// NewTeacherRequestResponse converts a teacher request model.
func NewTeacherRequestResponse(request models.TeacherRequest) TeacherRequestResponse {
	return TeacherRequestResponse{
		ID:         request.ID,
		Type:       request.Type,
		Status:     request.Status,
		Teacher:    request.Teacher,
		Details:    request.Details.Data(),
		ReviewedBy: request.ReviewedBy,
		ReviewedAt: request.ReviewedAt,
		CreatedAt:  request.CreatedAt,
	}
}
