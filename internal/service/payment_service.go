package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/billing"
	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/repository"
	"github.com/noah-isme/maestro-api/internal/schedule"
)

// ErrInstallmentNotFound indicates the installment does not exist.
var ErrInstallmentNotFound = errors.New("installment not found")

// PaymentService manages plans, installments and the global price table.
type PaymentService interface {
	Prices(ctx context.Context) (dto.PricesResponse, error)
	UpdatePrices(ctx context.Context, payload dto.PricesRequest, actor ActivityActor) (dto.PricesResponse, error)
	AssignPlan(ctx context.Context, studentID uint, payload dto.AssignPlanRequest, actor ActivityActor) ([]dto.InstallmentResponse, error)
	Installments(ctx context.Context, studentID uint) ([]dto.InstallmentResponse, error)
	MarkPaid(ctx context.Context, installmentID uint, payload dto.MarkPaidRequest, actor ActivityActor) (dto.InstallmentResponse, error)
	MarkUnpaid(ctx context.Context, installmentID uint, actor ActivityActor) (dto.InstallmentResponse, error)
	SetGracePeriod(ctx context.Context, installmentID uint, payload dto.GracePeriodRequest) (dto.InstallmentResponse, error)
	ChangeDueDay(ctx context.Context, studentID uint, payload dto.DueDayRequest) ([]dto.InstallmentResponse, error)
	Overdue(ctx context.Context) ([]dto.InstallmentResponse, error)
}

type paymentService struct {
	repo      repository.InstallmentRepository
	students  repository.StudentRepository
	defaults  billing.Prices
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewPaymentService constructs the payment service. defaults seed the price table until an
// administrator stores one.
func NewPaymentService(
	repo repository.InstallmentRepository,
	students repository.StudentRepository,
	defaults billing.Prices,
	activity ActivityRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		repo:      repo,
		students:  students,
		defaults:  defaults,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "payment_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/maestro-api/internal/service/payment"),
		now:       time.Now,
	}
}

func (s *paymentService) Prices(ctx context.Context) (dto.PricesResponse, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return dto.PricesResponse{}, err
	}
	return pricesResponse(settings), nil
}

func (s *paymentService) UpdatePrices(ctx context.Context, payload dto.PricesRequest, actor ActivityActor) (dto.PricesResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PricesResponse{}, err
	}

	settings := models.PaymentSettings{
		MonthlyPrice:   payload.Monthly,
		QuarterlyPrice: payload.Quarterly,
		YearlyPrice:    payload.Yearly,
	}
	if err := s.repo.SaveSettings(ctx, &settings); err != nil {
		return dto.PricesResponse{}, err
	}

	s.record(ctx, actor, "payments.prices_updated", models.ActivityEntityPaymentSettings, nil, map[string]interface{}{
		"monthly":   payload.Monthly,
		"quarterly": payload.Quarterly,
		"yearly":    payload.Yearly,
	})
	return pricesResponse(settings), nil
}

// AssignPlan regenerates a student's installments at today's prices. Installments already
// generated never follow later price changes.
func (s *paymentService) AssignPlan(ctx context.Context, studentID uint, payload dto.AssignPlanRequest, actor ActivityActor) ([]dto.InstallmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}
	plan, err := billing.NormalizePlan(payload.Plan)
	if err != nil {
		return nil, err
	}
	start, err := time.Parse(schedule.DateLayout, payload.StartDate)
	if err != nil {
		return nil, err
	}

	student, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}

	installments, err := billing.Generate(student.ID, plan, start, billing.Prices{
		Monthly:   settings.MonthlyPrice,
		Quarterly: settings.QuarterlyPrice,
		Yearly:    settings.YearlyPrice,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceForStudent(ctx, student.ID, installments); err != nil {
		return nil, err
	}
	student.PaymentPlan = plan
	if err := s.students.Save(ctx, &student); err != nil {
		return nil, err
	}

	s.record(ctx, actor, "payments.plan_assigned", models.ActivityEntityStudent, &student.ID, map[string]interface{}{
		"plan":         plan,
		"installments": len(installments),
	})
	s.logger.Info().Uint("student_id", student.ID).Str("plan", plan).Msg("payment plan assigned")

	return s.responses(installments), nil
}

func (s *paymentService) Installments(ctx context.Context, studentID uint) ([]dto.InstallmentResponse, error) {
	if _, err := s.student(ctx, studentID); err != nil {
		return nil, err
	}

	installments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.responses(installments), nil
}

// MarkPaid replaces the payment fields. Repeating it on a paid installment keeps its invoice number.
func (s *paymentService) MarkPaid(ctx context.Context, installmentID uint, payload dto.MarkPaidRequest, actor ActivityActor) (dto.InstallmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.InstallmentResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "payments.mark_paid", trace.WithAttributes(attribute.Int64("installment.id", int64(installmentID))))
	defer span.End()

	installment, err := s.installment(ctx, installmentID)
	if err != nil {
		return dto.InstallmentResponse{}, err
	}

	now := s.now().UTC()
	paidOn := schedule.Date(now)
	if payload.Date != "" {
		paidOn, err = time.Parse(schedule.DateLayout, payload.Date)
		if err != nil {
			return dto.InstallmentResponse{}, err
		}
	}

	installment.Status = models.InstallmentStatusPaid
	installment.PaymentDate = &paidOn
	installment.PaymentMethod = strings.TrimSpace(payload.Method)
	if installment.InvoiceNumber == "" {
		installment.InvoiceNumber = billing.InvoiceNumber(now, uuid.NewString())
	}

	if err := s.repo.Save(ctx, &installment); err != nil {
		span.RecordError(err)
		return dto.InstallmentResponse{}, err
	}

	s.record(ctx, actor, "payments.paid", models.ActivityEntityInstallment, &installment.ID, map[string]interface{}{
		"student_id": installment.StudentID,
		"method":     installment.PaymentMethod,
		"invoice":    installment.InvoiceNumber,
	})
	return s.response(installment), nil
}

func (s *paymentService) MarkUnpaid(ctx context.Context, installmentID uint, actor ActivityActor) (dto.InstallmentResponse, error) {
	installment, err := s.installment(ctx, installmentID)
	if err != nil {
		return dto.InstallmentResponse{}, err
	}

	installment.Status = models.InstallmentStatusUnpaid
	installment.PaymentDate = nil
	installment.PaymentMethod = ""
	installment.InvoiceNumber = ""

	if err := s.repo.Save(ctx, &installment); err != nil {
		return dto.InstallmentResponse{}, err
	}

	s.record(ctx, actor, "payments.unpaid", models.ActivityEntityInstallment, &installment.ID, map[string]interface{}{
		"student_id": installment.StudentID,
	})
	return s.response(installment), nil
}

func (s *paymentService) SetGracePeriod(ctx context.Context, installmentID uint, payload dto.GracePeriodRequest) (dto.InstallmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.InstallmentResponse{}, err
	}

	installment, err := s.installment(ctx, installmentID)
	if err != nil {
		return dto.InstallmentResponse{}, err
	}

	installment.GracePeriodUntil = nil
	if payload.Until != nil && *payload.Until != "" {
		until, err := time.Parse(schedule.DateLayout, *payload.Until)
		if err != nil {
			return dto.InstallmentResponse{}, err
		}
		installment.GracePeriodUntil = &until
	}

	if err := s.repo.Save(ctx, &installment); err != nil {
		return dto.InstallmentResponse{}, err
	}
	return s.response(installment), nil
}

// ChangeDueDay moves every unpaid installment due today or later to the given day of its month.
// Past and paid installments keep their dates.
func (s *paymentService) ChangeDueDay(ctx context.Context, studentID uint, payload dto.DueDayRequest) ([]dto.InstallmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}
	if _, err := s.student(ctx, studentID); err != nil {
		return nil, err
	}

	installments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC()
	changed := make([]models.Installment, 0, len(installments))
	for i := range installments {
		if !billing.ShouldRewriteDueDay(installments[i], today) {
			continue
		}
		installments[i].DueDate = billing.RewriteDueDay(installments[i].DueDate, payload.Day)
		changed = append(changed, installments[i])
	}

	if err := s.repo.SaveAll(ctx, changed); err != nil {
		return nil, err
	}

	s.logger.Info().Uint("student_id", studentID).Int("day", payload.Day).Int("rewritten", len(changed)).Msg("due day changed")
	return s.responses(installments), nil
}

func (s *paymentService) Overdue(ctx context.Context) ([]dto.InstallmentResponse, error) {
	installments, err := s.repo.ListUnpaid(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC()
	overdue := make([]dto.InstallmentResponse, 0)
	for _, installment := range installments {
		status := billing.EffectiveStatus(installment, today)
		if status == billing.StatusOverdue {
			overdue = append(overdue, dto.NewInstallmentResponse(installment, status))
		}
	}
	return overdue, nil
}

func (s *paymentService) settings(ctx context.Context) (models.PaymentSettings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PaymentSettings{}, err
	}

	return models.PaymentSettings{
		MonthlyPrice:   s.defaults.Monthly,
		QuarterlyPrice: s.defaults.Quarterly,
		YearlyPrice:    s.defaults.Yearly,
	}, nil
}

func (s *paymentService) student(ctx context.Context, id uint) (models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}
	return student, nil
}

func (s *paymentService) installment(ctx context.Context, id uint) (models.Installment, error) {
	installment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Installment{}, ErrInstallmentNotFound
		}
		return models.Installment{}, err
	}
	return installment, nil
}

func (s *paymentService) response(installment models.Installment) dto.InstallmentResponse {
	return dto.NewInstallmentResponse(installment, billing.EffectiveStatus(installment, s.now().UTC()))
}

func (s *paymentService) responses(installments []models.Installment) []dto.InstallmentResponse {
	responses := make([]dto.InstallmentResponse, 0, len(installments))
	for _, installment := range installments {
		responses = append(responses, s.response(installment))
	}
	return responses
}

func (s *paymentService) record(ctx context.Context, actor ActivityActor, action, entityType string, entityID *uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
	})
}

func pricesResponse(settings models.PaymentSettings) dto.PricesResponse {
	return dto.PricesResponse{
		Monthly:   settings.MonthlyPrice,
		Quarterly: settings.QuarterlyPrice,
		Yearly:    settings.YearlyPrice,
		UpdatedAt: settings.UpdatedAt,
	}
}
