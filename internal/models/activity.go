package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Entity types written to the activity log.
const (
	ActivityEntitySemester        = "semester"
	ActivityEntityStudent         = "student"
	ActivityEntityLeave           = "leave"
	ActivityEntityTeacherRequest  = "teacher_request"
	ActivityEntityInstallment     = "installment"
	ActivityEntityPaymentSettings = "payment_settings"
)

// ActivityLog is one audited office decision: semester activation, student changes, leave and
// teacher request decisions, payment updates.
type ActivityLog struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ActorID       uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole     string            `gorm:"size:32;not null" json:"actor_role"`
	Action        string            `gorm:"size:64;not null;index" json:"action"`
	EntityType    string            `gorm:"size:64;not null;index:idx_activity_entity" json:"entity_type"`
	EntityID      *uint             `gorm:"index:idx_activity_entity" json:"entity_id"`
	Outcome       string            `gorm:"size:16;index" json:"outcome"`
	CorrelationID string            `gorm:"size:64;index" json:"correlation_id"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
}

// ActivityOutcome returns approved or denied for workflow decisions such as "leave.approved" and
// an empty string for every other action.
func ActivityOutcome(action string) string {
	switch {
	case strings.HasSuffix(action, "."+StatusApproved):
		return StatusApproved
	case strings.HasSuffix(action, "."+StatusDenied):
		return StatusDenied
	default:
		return ""
	}
}
