package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/repository"
	"github.com/noah-isme/maestro-api/internal/schedule"
)

var (
	// ErrLeaveNotFound indicates the leave does not exist.
	ErrLeaveNotFound = errors.New("leave not found")
	// ErrLeaveNotPending indicates the leave was already decided.
	ErrLeaveNotPending = errors.New("leave is not pending")
	// ErrTransferMismatch indicates the transfers do not cover the affected enrollments one to one.
	ErrTransferMismatch = errors.New("transfers must cover every affected student exactly once")
	// ErrInvalidSubstitute indicates a transfer targets the teacher on leave or a teacher outside the roster.
	ErrInvalidSubstitute = errors.New("substitute teacher must be another teacher of the semester")
	// ErrNotTeacherLeave indicates a transfer operation on a student leave.
	ErrNotTeacherLeave = errors.New("transfers only apply to teacher leaves")
)

// LeaveService runs the leave workflow, including the transfer step of teacher leaves.
type LeaveService interface {
	Create(ctx context.Context, payload dto.LeaveCreateRequest) (dto.LeaveResponse, error)
	List(ctx context.Context, req dto.LeaveListRequest) ([]dto.LeaveResponse, error)
	Get(ctx context.Context, id uint) (dto.LeaveResponse, error)
	Deny(ctx context.Context, id uint, actor ActivityActor) (dto.LeaveResponse, error)
	Approve(ctx context.Context, id uint, payload dto.LeaveApproveRequest, actor ActivityActor) (dto.LeaveResponse, error)
	PreviewTransfers(ctx context.Context, id uint, semesterID *uint) (dto.TransferPreviewResponse, error)
}

type leaveService struct {
	repo      repository.LeaveRepository
	semesters repository.SemesterRepository
	sessions  repository.ScheduleRepository
	students  repository.StudentRepository
	schedule  ScheduleService
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewLeaveService constructs the leave service.
func NewLeaveService(
	repo repository.LeaveRepository,
	semesters repository.SemesterRepository,
	sessions repository.ScheduleRepository,
	students repository.StudentRepository,
	scheduleService ScheduleService,
	activity ActivityRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) LeaveService {
	return &leaveService{
		repo:      repo,
		semesters: semesters,
		sessions:  sessions,
		students:  students,
		schedule:  scheduleService,
		activity:  activity,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "leave_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/maestro-api/internal/service/leave"),
		now:       time.Now,
	}
}

func (s *leaveService) Create(ctx context.Context, payload dto.LeaveCreateRequest) (dto.LeaveResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LeaveResponse{}, err
	}

	start, end, err := parseDateRange(payload.StartDate, payload.EndDate)
	if err != nil {
		return dto.LeaveResponse{}, err
	}

	leave := models.Leave{
		Type:       payload.Type,
		PersonName: strings.TrimSpace(payload.PersonName),
		StartDate:  start,
		EndDate:    end,
		Reason:     strings.TrimSpace(s.sanitizer.Sanitize(payload.Reason)),
		Status:     models.StatusPending,
	}

	if payload.Type == models.LeaveTypeStudent {
		student, err := s.students.GetByID(ctx, payload.PersonID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.LeaveResponse{}, ErrStudentNotFound
			}
			return dto.LeaveResponse{}, err
		}
		leave.PersonID = student.ID
		leave.PersonName = student.Name
	}

	if err := s.repo.Create(ctx, &leave); err != nil {
		return dto.LeaveResponse{}, err
	}

	s.logger.Info().Uint("leave_id", leave.ID).Str("type", leave.Type).Str("person", leave.PersonName).Msg("leave submitted")
	return dto.NewLeaveResponse(leave), nil
}

func (s *leaveService) List(ctx context.Context, req dto.LeaveListRequest) ([]dto.LeaveResponse, error) {
	leaves, err := s.repo.List(ctx, repository.LeaveFilter{
		Type:   strings.TrimSpace(req.Type),
		Status: strings.TrimSpace(req.Status),
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.LeaveResponse, 0, len(leaves))
	for _, leave := range leaves {
		responses = append(responses, dto.NewLeaveResponse(leave))
	}
	return responses, nil
}

func (s *leaveService) Get(ctx context.Context, id uint) (dto.LeaveResponse, error) {
	leave, err := s.find(ctx, id)
	if err != nil {
		return dto.LeaveResponse{}, err
	}
	return dto.NewLeaveResponse(leave), nil
}

func (s *leaveService) Deny(ctx context.Context, id uint, actor ActivityActor) (dto.LeaveResponse, error) {
	leave, err := s.pending(ctx, id)
	if err != nil {
		return dto.LeaveResponse{}, err
	}

	if err := s.decide(ctx, &leave, models.StatusDenied, actor, nil); err != nil {
		return dto.LeaveResponse{}, err
	}
	return dto.NewLeaveResponse(leave), nil
}

// Approve decides a pending leave. Student leaves are approved as is; teacher leaves require the
// transfers of every affected student, which commit before the leave flips to approved.
func (s *leaveService) Approve(ctx context.Context, id uint, payload dto.LeaveApproveRequest, actor ActivityActor) (dto.LeaveResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LeaveResponse{}, err
	}

	leave, err := s.pending(ctx, id)
	if err != nil {
		return dto.LeaveResponse{}, err
	}

	if leave.Type == models.LeaveTypeStudent {
		if err := s.decide(ctx, &leave, models.StatusApproved, actor, nil); err != nil {
			return dto.LeaveResponse{}, err
		}
		return dto.NewLeaveResponse(leave), nil
	}

	ctx, span := s.tracer.Start(ctx, "leaves.approve_teacher", trace.WithAttributes(
		attribute.Int64("leave.id", int64(id)),
		attribute.String("leave.teacher", leave.PersonName),
	))
	defer span.End()

	semester, err := s.resolveSemester(ctx, optionalID(payload.SemesterID))
	if err != nil {
		return dto.LeaveResponse{}, err
	}

	transfers, err := s.schedule.TransferForLeave(ctx, semester.ID, leave, payload.Transfers, actor)
	if err != nil {
		span.RecordError(err)
		return dto.LeaveResponse{}, err
	}

	metadata := map[string]interface{}{
		"semester_id": semester.ID,
		"transfers":   len(transfers),
	}
	if err := s.decide(ctx, &leave, models.StatusApproved, actor, metadata); err != nil {
		return dto.LeaveResponse{}, err
	}
	return dto.NewLeaveResponse(leave), nil
}

func (s *leaveService) PreviewTransfers(ctx context.Context, id uint, semesterID *uint) (dto.TransferPreviewResponse, error) {
	leave, err := s.find(ctx, id)
	if err != nil {
		return dto.TransferPreviewResponse{}, err
	}
	if leave.Type != models.LeaveTypeTeacher {
		return dto.TransferPreviewResponse{}, ErrNotTeacherLeave
	}

	semester, err := s.resolveSemester(ctx, semesterID)
	if err != nil {
		return dto.TransferPreviewResponse{}, err
	}

	affected, err := s.affected(ctx, leave, semester.ID)
	if err != nil {
		return dto.TransferPreviewResponse{}, err
	}

	return dto.TransferPreviewResponse{
		LeaveID:    leave.ID,
		SemesterID: semester.ID,
		Teacher:    leave.PersonName,
		Affected:   affected,
	}, nil
}

func (s *leaveService) affected(ctx context.Context, leave models.Leave, semesterID uint) ([]schedule.Affected, error) {
	sessions, err := s.sessions.ListSessions(ctx, semesterID, repository.SessionFilter{Teacher: leave.PersonName})
	if err != nil {
		return nil, err
	}
	return schedule.AffectedByLeave(sessions, leave.StartDate, leave.EndDate), nil
}

func (s *leaveService) decide(ctx context.Context, leave *models.Leave, status string, actor ActivityActor, metadata map[string]interface{}) error {
	decidedAt := s.now().UTC()
	decidedBy := actor.ID
	leave.Status = status
	leave.DecidedAt = &decidedAt
	leave.DecidedBy = &decidedBy

	if err := s.repo.Save(ctx, leave); err != nil {
		return err
	}

	if s.activity != nil {
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		metadata["type"] = leave.Type
		metadata["person"] = leave.PersonName
		id := leave.ID
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "leave." + status,
			EntityType: models.ActivityEntityLeave,
			EntityID:   &id,
			Metadata:   metadata,
		})
	}

	s.logger.Info().Uint("leave_id", leave.ID).Str("status", status).Msg("leave decided")
	return nil
}

func (s *leaveService) find(ctx context.Context, id uint) (models.Leave, error) {
	leave, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Leave{}, ErrLeaveNotFound
		}
		return models.Leave{}, err
	}
	return leave, nil
}

func (s *leaveService) pending(ctx context.Context, id uint) (models.Leave, error) {
	leave, err := s.find(ctx, id)
	if err != nil {
		return models.Leave{}, err
	}
	if leave.Status != models.StatusPending {
		return models.Leave{}, ErrLeaveNotPending
	}
	return leave, nil
}

func (s *leaveService) resolveSemester(ctx context.Context, semesterID *uint) (models.Semester, error) {
	var (
		semester models.Semester
		err      error
	)
	if semesterID != nil {
		semester, err = s.semesters.GetByID(ctx, *semesterID)
	} else {
		semester, err = s.semesters.GetActive(ctx)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if semesterID == nil {
				return models.Semester{}, ErrNoActiveSemester
			}
			return models.Semester{}, ErrSemesterNotFound
		}
		return models.Semester{}, err
	}
	return semester, nil
}

func matchTransfers(leave models.Leave, semester models.Semester, affected []schedule.Affected, requested []dto.TransferRequest) ([]Transfer, error) {
	if len(requested) != len(affected) {
		return nil, ErrTransferMismatch
	}

	expected := make(map[schedule.PairKey]struct{}, len(affected))
	for _, entry := range affected {
		expected[entry.Key()] = struct{}{}
	}

	transfers := make([]Transfer, 0, len(requested))
	for _, request := range requested {
		key := schedule.PairKey{StudentID: request.StudentID, SessionID: request.SessionID}
		if _, ok := expected[key]; !ok {
			return nil, ErrTransferMismatch
		}
		delete(expected, key)

		newTeacher := strings.TrimSpace(request.NewTeacher)
		if newTeacher == leave.PersonName || !semester.HasTeacher(newTeacher) {
			return nil, ErrInvalidSubstitute
		}
		transfers = append(transfers, Transfer{
			StudentID:  request.StudentID,
			SessionID:  request.SessionID,
			NewTeacher: newTeacher,
		})
	}
	return transfers, nil
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
