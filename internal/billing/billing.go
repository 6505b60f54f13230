// Package billing generates installment plans and derives their read-time status.
package billing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/maestro-api/internal/models"
)

// Plan identifiers.
const (
	PlanMonthly   = "monthly"
	PlanQuarterly = "quarterly"
	PlanYearly    = "yearly"
)

// StatusOverdue is the derived status of an unpaid installment past its due date.
const StatusOverdue = "overdue"

// ErrUnknownPlan is returned for unsupported plan names.
var ErrUnknownPlan = errors.New("unknown payment plan")

// Prices is a snapshot of the global price table.
type Prices struct {
	Monthly   float64
	Quarterly float64
	Yearly    float64
}

type planShape struct {
	count      int
	stepMonths int
}

var plans = map[string]planShape{
	PlanMonthly:   {count: 12, stepMonths: 1},
	PlanQuarterly: {count: 4, stepMonths: 3},
	PlanYearly:    {count: 1, stepMonths: 12},
}

// PriceFor returns the per-installment price of a plan.
func (p Prices) PriceFor(plan string) (float64, error) {
	switch plan {
	case PlanMonthly:
		return p.Monthly, nil
	case PlanQuarterly:
		return p.Quarterly, nil
	case PlanYearly:
		return p.Yearly, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
}

// NormalizePlan lowercases and validates a plan name.
func NormalizePlan(plan string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(plan))
	if _, ok := plans[normalized]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}
	return normalized, nil
}

// Generate builds the installments of a plan starting at start. Amounts are copied from prices,
// so later price changes never reach already generated installments.
func Generate(studentID uint, plan string, start time.Time, prices Prices) ([]models.Installment, error) {
	normalized, err := NormalizePlan(plan)
	if err != nil {
		return nil, err
	}
	amount, err := prices.PriceFor(normalized)
	if err != nil {
		return nil, err
	}

	shape := plans[normalized]
	first := dateOnly(start)
	installments := make([]models.Installment, 0, shape.count)
	for i := 0; i < shape.count; i++ {
		installments = append(installments, models.Installment{
			StudentID: studentID,
			Sequence:  i + 1,
			DueDate:   addMonthsClamped(first, i*shape.stepMonths, first.Day()),
			Amount:    amount,
			Status:    models.InstallmentStatusUnpaid,
		})
	}
	return installments, nil
}

// EffectiveStatus returns paid, overdue or unpaid. The grace period, when set, replaces the
// due date in the comparison.
func EffectiveStatus(inst models.Installment, today time.Time) string {
	if inst.Status == models.InstallmentStatusPaid {
		return models.InstallmentStatusPaid
	}
	reference := inst.DueDate
	if inst.GracePeriodUntil != nil {
		reference = *inst.GracePeriodUntil
	}
	if dateOnly(reference).Before(dateOnly(today)) {
		return StatusOverdue
	}
	return models.InstallmentStatusUnpaid
}

// ShouldRewriteDueDay reports whether a bulk due-day change applies: only unpaid installments
// due today or later are touched.
func ShouldRewriteDueDay(inst models.Installment, today time.Time) bool {
	if inst.Status == models.InstallmentStatusPaid {
		return false
	}
	return !dateOnly(inst.DueDate).Before(dateOnly(today))
}

// RewriteDueDay moves due to the given day of its own month, clamped to the month length.
func RewriteDueDay(due time.Time, day int) time.Time {
	return addMonthsClamped(dateOnly(due), 0, day)
}

// InvoiceNumber formats an invoice identifier from the payment instant and a random suffix.
func InvoiceNumber(now time.Time, suffix string) string {
	suffix = strings.ToUpper(strings.ReplaceAll(suffix, "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("INV-%d-%s", now.UnixMilli(), suffix)
}

func addMonthsClamped(base time.Time, months, day int) time.Time {
	firstOfMonth := time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	last := firstOfMonth.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(firstOfMonth.Year(), firstOfMonth.Month(), day, 0, 0, 0, 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
