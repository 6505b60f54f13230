package models

import (
	"time"

	"gorm.io/datatypes"
)

// Schedule event kinds appended to the mutation log.
const (
	EventCreateSession = "create-session"
	EventDeleteSession = "delete-session"
	EventAddStudent    = "add-student"
	EventRemoveStudent = "remove-student"
	EventMoveStudent   = "move-student"
)

// ScheduleEvent is an append-only record of one schedule mutation.
type ScheduleEvent struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	SemesterID uint              `gorm:"not null;index" json:"semester_id"`
	Kind       string            `gorm:"size:32;not null" json:"kind"`
	SessionID  uint              `gorm:"index" json:"session_id"`
	StudentID  uint              `json:"student_id"`
	Teacher    string            `gorm:"size:255" json:"teacher"`
	Day        string            `gorm:"size:16" json:"day"`
	Payload    datatypes.JSONMap `gorm:"type:json" json:"payload"`
	ActorID    uint              `json:"actor_id"`
	CreatedAt  time.Time         `json:"created_at"`
}
