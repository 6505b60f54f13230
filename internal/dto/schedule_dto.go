package dto

import (
	"time"

	"github.com/noah-isme/maestro-api/internal/models"
)

// SessionCreateRequest captures the payload for creating a session.
type SessionCreateRequest struct {
	Teacher        string  `json:"teacher" validate:"required,max=255"`
	Day            string  `json:"day" validate:"required"`
	Time           string  `json:"time" validate:"required"`
	Duration       float64 `json:"duration" validate:"required,gte=1,lte=4"`
	Specialization string  `json:"specialization" validate:"omitempty,max=128"`
	Type           string  `json:"type" validate:"omitempty,oneof=practical theory"`
}

// EnrollRequest places a student into a slot, creating the session when the slot is empty.
type EnrollRequest struct {
	Teacher        string  `json:"teacher" validate:"required,max=255"`
	Day            string  `json:"day" validate:"required"`
	Time           string  `json:"time" validate:"required"`
	StudentID      uint    `json:"student_id" validate:"required"`
	Duration       float64 `json:"duration" validate:"omitempty,gte=1,lte=4"`
	Specialization string  `json:"specialization" validate:"omitempty,max=128"`
	Type           string  `json:"type" validate:"omitempty,oneof=practical theory"`
}

// EnrollmentResponse is one entry of a student's derived enrollment list.
type EnrollmentResponse struct {
	SemesterID uint   `json:"semester_id"`
	SessionID  uint   `json:"session_id"`
	Teacher    string `json:"teacher"`
	Day        string `json:"day"`
	Time       string `json:"time"`
}

// ScheduleEventMessage is the payload streamed to schedule feed subscribers.
type ScheduleEventMessage struct {
	ID         uint                   `json:"id"`
	SemesterID uint                   `json:"semester_id"`
	Kind       string                 `json:"kind"`
	SessionID  uint                   `json:"session_id"`
	StudentID  uint                   `json:"student_id,omitempty"`
	Teacher    string                 `json:"teacher"`
	Day        string                 `json:"day"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	ActorID    uint                   `json:"actor_id"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewScheduleEventMessage converts a logged schedule event.
func NewScheduleEventMessage(event models.ScheduleEvent) ScheduleEventMessage {
	return ScheduleEventMessage{
		ID:         event.ID,
		SemesterID: event.SemesterID,
		Kind:       event.Kind,
		SessionID:  event.SessionID,
		StudentID:  event.StudentID,
		Teacher:    event.Teacher,
		Day:        event.Day,
		Payload:    metadataFromJSON(event.Payload),
		ActorID:    event.ActorID,
		CreatedAt:  event.CreatedAt,
	}
}

// NewScheduleEventMessages converts a slice of events.
func NewScheduleEventMessages(events []models.ScheduleEvent) []ScheduleEventMessage {
	messages := make([]ScheduleEventMessage, 0, len(events))
	for _, event := range events {
		messages = append(messages, NewScheduleEventMessage(event))
	}
	return messages
}

// AttendanceMarkRequest records one attendance cell.
type AttendanceMarkRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	SessionID uint   `json:"session_id" validate:"required"`
	StudentID uint   `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused"`
}

// AttendanceCellResponse is the stored state of a ledger cell.
type AttendanceCellResponse struct {
	SemesterID uint   `json:"semester_id"`
	WeekStart  string `json:"week_start"`
	Teacher    string `json:"teacher"`
	SessionID  uint   `json:"session_id"`
	StudentID  uint   `json:"student_id"`
	Status     string `json:"status"`
}

// StudentAttendanceResponse lists one student's ledger cells in a semester together with the
// approved leaves during which marking is suppressed.
type StudentAttendanceResponse struct {
	SemesterID uint                     `json:"semester_id"`
	StudentID  uint                     `json:"student_id"`
	Records    []AttendanceCellResponse `json:"records"`
	Leaves     []LeaveWindow            `json:"leaves"`
}

// LeaveWindow is the inclusive date range of an approved student leave.
type LeaveWindow struct {
	LeaveID   uint   `json:"leave_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// AttendanceWeekResponse nests a week of the ledger as teacher → session → student → status.
type AttendanceWeekResponse struct {
	SemesterID uint                                    `json:"semester_id"`
	WeekStart  string                                  `json:"week_start"`
	Teachers   map[string]map[string]map[string]string `json:"teachers"`
}
