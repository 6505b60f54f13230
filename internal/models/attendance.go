package models

import "time"

// Attendance statuses.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

// AttendanceRecord is one cell of the weekly attendance ledger. It deliberately carries no
// foreign key to sessions so deleting a session leaves its history in place.
type AttendanceRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SemesterID uint      `gorm:"not null;uniqueIndex:idx_attendance_cell,priority:1" json:"semester_id"`
	WeekStart  string    `gorm:"size:10;not null;uniqueIndex:idx_attendance_cell,priority:2" json:"week_start"`
	SessionID  uint      `gorm:"not null;uniqueIndex:idx_attendance_cell,priority:3" json:"session_id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_attendance_cell,priority:4" json:"student_id"`
	Teacher    string    `gorm:"size:255;not null" json:"teacher"`
	Status     string    `gorm:"size:16;not null" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
