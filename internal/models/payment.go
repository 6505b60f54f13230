package models

import "time"

// Installment statuses as persisted. Overdue is derived at read time.
const (
	InstallmentStatusPaid   = "paid"
	InstallmentStatusUnpaid = "unpaid"
)

// Installment is one scheduled payment of a student's plan.
type Installment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	StudentID        uint       `gorm:"not null;index" json:"student_id"`
	Sequence         int        `gorm:"not null" json:"sequence"`
	DueDate          time.Time  `gorm:"not null" json:"due_date"`
	Amount           float64    `gorm:"not null" json:"amount"`
	Status           string     `gorm:"size:16;not null;default:unpaid" json:"status"`
	PaymentDate      *time.Time `json:"payment_date"`
	PaymentMethod    string     `gorm:"size:32" json:"payment_method"`
	InvoiceNumber    string     `gorm:"size:64;index" json:"invoice_number"`
	GracePeriodUntil *time.Time `json:"grace_period_until"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// PaymentSettings is the global mutable price table.
type PaymentSettings struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	MonthlyPrice   float64   `gorm:"not null" json:"monthly_price"`
	QuarterlyPrice float64   `gorm:"not null" json:"quarterly_price"`
	YearlyPrice    float64   `gorm:"not null" json:"yearly_price"`
	UpdatedAt      time.Time `json:"updated_at"`
}
