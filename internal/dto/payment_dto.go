package dto

import (
	"time"

	"github.com/noah-isme/maestro-api/internal/models"
)

// PricesRequest replaces the global plan prices.
type PricesRequest struct {
	Monthly   float64 `json:"monthly" validate:"gt=0"`
	Quarterly float64 `json:"quarterly" validate:"gt=0"`
	Yearly    float64 `json:"yearly" validate:"gt=0"`
}

// PricesResponse serializes the current price table.
type PricesResponse struct {
	Monthly   float64   `json:"monthly"`
	Quarterly float64   `json:"quarterly"`
	Yearly    float64   `json:"yearly"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssignPlanRequest chooses a plan and the first due date.
type AssignPlanRequest struct {
	Plan      string `json:"plan" validate:"required,oneof=monthly quarterly yearly"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
}

// MarkPaidRequest records a payment.
type MarkPaidRequest struct {
	Method string `json:"method" validate:"required,max=32"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// GracePeriodRequest sets or clears an installment grace period.
type GracePeriodRequest struct {
	Until *string `json:"until" validate:"omitempty,datetime=2006-01-02"`
}

// DueDayRequest moves future unpaid installments to a new day of month.
type DueDayRequest struct {
	Day int `json:"day" validate:"required,gte=1,lte=31"`
}

// InstallmentResponse serializes an installment with its read-time status.
type InstallmentResponse struct {
	ID               uint      `json:"id"`
	StudentID        uint      `json:"student_id"`
	Sequence         int       `json:"sequence"`
	DueDate          string    `json:"due_date"`
	Amount           float64   `json:"amount"`
	Status           string    `json:"status"`
	EffectiveStatus  string    `json:"effective_status"`
	PaymentDate      *string   `json:"payment_date"`
	PaymentMethod    string    `json:"payment_method"`
	InvoiceNumber    string    `json:"invoice_number"`
	GracePeriodUntil *string   `json:"grace_period_until"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewInstallmentResponse converts an installment with the effective status computed by the caller.
func NewInstallmentResponse(installment models.Installment, effective string) InstallmentResponse {
	return InstallmentResponse{
		ID:               installment.ID,
		StudentID:        installment.StudentID,
		Sequence:         installment.Sequence,
		DueDate:          installment.DueDate.Format(dateLayout),
		Amount:           installment.Amount,
		Status:           installment.Status,
		EffectiveStatus:  effective,
		PaymentDate:      formatDatePtr(installment.PaymentDate),
		PaymentMethod:    installment.PaymentMethod,
		InvoiceNumber:    installment.InvoiceNumber,
		GracePeriodUntil: formatDatePtr(installment.GracePeriodUntil),
		UpdatedAt:        installment.UpdatedAt,
	}
}

func formatDatePtr(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.Format(dateLayout)
	return &formatted
}
