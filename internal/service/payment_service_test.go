package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maestro-api/internal/billing"
	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
)

func TestAssignPlanSnapshotsPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.student(t, "Xavier")

	prices, err := f.payments.Prices(ctx)
	require.NoError(t, err)
	require.Equal(t, 120.0, prices.Monthly)

	installments, err := f.payments.AssignPlan(ctx, x.ID, dto.AssignPlanRequest{Plan: "monthly", StartDate: "2026-10-31"}, admin)
	require.NoError(t, err)
	require.Len(t, installments, 12)
	require.Equal(t, "2026-10-31", installments[0].DueDate)
	require.Equal(t, "2026-11-30", installments[1].DueDate)
	require.Equal(t, "2027-02-28", installments[4].DueDate)
	for _, installment := range installments {
		require.Equal(t, 120.0, installment.Amount)
	}

	updated, err := f.payments.UpdatePrices(ctx, dto.PricesRequest{Monthly: 150, Quarterly: 400, Yearly: 1500}, admin)
	require.NoError(t, err)
	require.Equal(t, 150.0, updated.Monthly)

	stored, err := f.payments.Installments(ctx, x.ID)
	require.NoError(t, err)
	require.Len(t, stored, 12)
	require.Equal(t, 120.0, stored[11].Amount)

	quarterly, err := f.payments.AssignPlan(ctx, x.ID, dto.AssignPlanRequest{Plan: "quarterly", StartDate: "2026-11-01"}, admin)
	require.NoError(t, err)
	require.Len(t, quarterly, 4)
	require.Equal(t, 400.0, quarterly[0].Amount)

	stored, err = f.payments.Installments(ctx, x.ID)
	require.NoError(t, err)
	require.Len(t, stored, 4)

	student, err := f.studentRepo.GetByID(ctx, x.ID)
	require.NoError(t, err)
	require.Equal(t, "quarterly", student.PaymentPlan)

	_, err = f.payments.AssignPlan(ctx, 999, dto.AssignPlanRequest{Plan: "yearly", StartDate: "2026-11-01"}, admin)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestMarkPaidKeepsInvoiceNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.student(t, "Xavier")

	installments, err := f.payments.AssignPlan(ctx, x.ID, dto.AssignPlanRequest{Plan: "yearly", StartDate: "2026-10-01"}, admin)
	require.NoError(t, err)
	require.Equal(t, billing.StatusOverdue, installments[0].EffectiveStatus)

	paid, err := f.payments.MarkPaid(ctx, installments[0].ID, dto.MarkPaidRequest{Method: "cash"}, admin)
	require.NoError(t, err)
	require.Equal(t, models.InstallmentStatusPaid, paid.EffectiveStatus)
	require.True(t, strings.HasPrefix(paid.InvoiceNumber, "INV-"))
	require.NotNil(t, paid.PaymentDate)
	require.Equal(t, "2026-10-16", *paid.PaymentDate)

	again, err := f.payments.MarkPaid(ctx, installments[0].ID, dto.MarkPaidRequest{Method: "card", Date: "2026-10-15"}, admin)
	require.NoError(t, err)
	require.Equal(t, paid.InvoiceNumber, again.InvoiceNumber)
	require.Equal(t, "card", again.PaymentMethod)
	require.Equal(t, "2026-10-15", *again.PaymentDate)

	unpaid, err := f.payments.MarkUnpaid(ctx, installments[0].ID, admin)
	require.NoError(t, err)
	require.Empty(t, unpaid.InvoiceNumber)
	require.Empty(t, unpaid.PaymentMethod)
	require.Nil(t, unpaid.PaymentDate)

	_, err = f.payments.MarkPaid(ctx, 999, dto.MarkPaidRequest{Method: "cash"}, admin)
	require.ErrorIs(t, err, ErrInstallmentNotFound)
}

func TestChangeDueDayOnlyTouchesFutureUnpaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.student(t, "Xavier")

	installments, err := f.payments.AssignPlan(ctx, x.ID, dto.AssignPlanRequest{Plan: "monthly", StartDate: "2026-09-16"}, admin)
	require.NoError(t, err)
	_, err = f.payments.MarkPaid(ctx, installments[2].ID, dto.MarkPaidRequest{Method: "transfer"}, admin)
	require.NoError(t, err)

	changed, err := f.payments.ChangeDueDay(ctx, x.ID, dto.DueDayRequest{Day: 31})
	require.NoError(t, err)
	require.Equal(t, "2026-09-16", changed[0].DueDate, "past installments keep their date")
	require.Equal(t, "2026-10-31", changed[1].DueDate, "installments due today are rewritten")
	require.Equal(t, "2026-11-16", changed[2].DueDate, "paid installments keep their date")
	require.Equal(t, "2026-12-31", changed[3].DueDate)
	require.Equal(t, "2027-02-28", changed[5].DueDate)

	stored, err := f.paymentRepo.ListByStudent(ctx, x.ID)
	require.NoError(t, err)
	require.Equal(t, 31, stored[1].DueDate.Day())

	_, err = f.payments.ChangeDueDay(ctx, x.ID, dto.DueDayRequest{Day: 32})
	require.Error(t, err)
}

func TestOverdueHonoursGracePeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.student(t, "Xavier")

	installments, err := f.payments.AssignPlan(ctx, x.ID, dto.AssignPlanRequest{Plan: "monthly", StartDate: "2026-08-10"}, admin)
	require.NoError(t, err)

	overdue, err := f.payments.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 3)

	until := "2026-10-20"
	graced, err := f.payments.SetGracePeriod(ctx, installments[2].ID, dto.GracePeriodRequest{Until: &until})
	require.NoError(t, err)
	require.Equal(t, models.InstallmentStatusUnpaid, graced.EffectiveStatus)

	overdue, err = f.payments.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 2)

	cleared, err := f.payments.SetGracePeriod(ctx, installments[2].ID, dto.GracePeriodRequest{})
	require.NoError(t, err)
	require.Nil(t, cleared.GracePeriodUntil)
	require.Equal(t, billing.StatusOverdue, cleared.EffectiveStatus)
}

func TestPaymentDatesUseUTCCalendarDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.student(t, "Xavier")

	cairo := time.FixedZone("EEST", 3*60*60)
	f.payments.(*paymentService).now = func() time.Time {
		return time.Date(2026, 10, 17, 1, 30, 0, 0, cairo)
	}

	installments, err := f.payments.AssignPlan(ctx, x.ID, dto.AssignPlanRequest{Plan: "monthly", StartDate: "2026-10-16"}, admin)
	require.NoError(t, err)
	require.Equal(t, models.InstallmentStatusUnpaid, installments[0].EffectiveStatus, "due today in UTC is not overdue")

	overdue, err := f.payments.Overdue(ctx)
	require.NoError(t, err)
	require.Empty(t, overdue)

	changed, err := f.payments.ChangeDueDay(ctx, x.ID, dto.DueDayRequest{Day: 20})
	require.NoError(t, err)
	require.Equal(t, "2026-10-20", changed[0].DueDate)
}
