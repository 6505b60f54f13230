package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/repository"
	"github.com/noah-isme/maestro-api/internal/schedule"
)

var (
	// ErrRequestNotFound indicates the teacher request does not exist.
	ErrRequestNotFound = errors.New("teacher request not found")
	// ErrRequestNotPending indicates the request was already reviewed.
	ErrRequestNotPending = errors.New("teacher request is not pending")
)

// TeacherRequestService handles change requests raised by teachers.
type TeacherRequestService interface {
	Create(ctx context.Context, payload dto.TeacherRequestCreateRequest) (dto.TeacherRequestResponse, error)
	List(ctx context.Context, req dto.TeacherRequestListRequest) ([]dto.TeacherRequestResponse, error)
	Approve(ctx context.Context, id uint, actor ActivityActor) (dto.TeacherRequestResponse, error)
	Deny(ctx context.Context, id uint, actor ActivityActor) (dto.TeacherRequestResponse, error)
}

type teacherRequestService struct {
	repo      repository.RequestRepository
	sessions  repository.ScheduleRepository
	schedule  ScheduleService
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTeacherRequestService constructs the teacher request service.
func NewTeacherRequestService(
	repo repository.RequestRepository,
	sessions repository.ScheduleRepository,
	scheduleService ScheduleService,
	activity ActivityRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) TeacherRequestService {
	return &teacherRequestService{
		repo:      repo,
		sessions:  sessions,
		schedule:  scheduleService,
		activity:  activity,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "teacher_request_service").Logger(),
		now:       time.Now,
	}
}

func (s *teacherRequestService) Create(ctx context.Context, payload dto.TeacherRequestCreateRequest) (dto.TeacherRequestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TeacherRequestResponse{}, err
	}

	details := models.RequestDetails{
		StudentID:   payload.StudentID,
		SessionID:   payload.SessionID,
		Day:         strings.TrimSpace(payload.Day),
		SessionTime: strings.TrimSpace(payload.SessionTime),
		Reason:      strings.TrimSpace(s.sanitizer.Sanitize(payload.Reason)),
		SemesterID:  payload.SemesterID,
	}
	teacher := strings.TrimSpace(payload.Teacher)

	if payload.Type == models.RequestTypeRemoveStudent {
		session, err := s.locate(ctx, teacher, details)
		if err != nil {
			return dto.TeacherRequestResponse{}, err
		}
		if !session.HasStudent(details.StudentID) {
			return dto.TeacherRequestResponse{}, ErrNotEnrolled
		}
		details.Day = session.Day
		details.SessionTime = session.Time
		details.SemesterID = session.SemesterID
	}

	request := models.TeacherRequest{
		Type:    payload.Type,
		Status:  models.StatusPending,
		Teacher: teacher,
		Details: datatypes.NewJSONType(details),
	}
	if err := s.repo.Create(ctx, &request); err != nil {
		return dto.TeacherRequestResponse{}, err
	}

	if request.Type == models.RequestTypeRemoveStudent {
		if err := s.schedule.MarkPendingRemoval(ctx, details.SessionID, details.StudentID, true); err != nil {
			s.logger.Warn().Err(err).Uint("request_id", request.ID).Msg("failed to flag pending removal")
		}
	}

	s.logger.Info().Uint("request_id", request.ID).Str("type", request.Type).Str("teacher", teacher).Msg("teacher request submitted")
	return dto.NewTeacherRequestResponse(request), nil
}

func (s *teacherRequestService) List(ctx context.Context, req dto.TeacherRequestListRequest) ([]dto.TeacherRequestResponse, error) {
	requests, err := s.repo.List(ctx, repository.RequestFilter{
		Status:  strings.TrimSpace(req.Status),
		Teacher: strings.TrimSpace(req.Teacher),
		Type:    strings.TrimSpace(req.Type),
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TeacherRequestResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, dto.NewTeacherRequestResponse(request))
	}
	return responses, nil
}

// Approve applies a remove-student request to the schedule; a student already removed counts as
// applied. Add-student and change-time requests only change status; the administrator performs
// those edits by hand.
func (s *teacherRequestService) Approve(ctx context.Context, id uint, actor ActivityActor) (dto.TeacherRequestResponse, error) {
	request, err := s.pending(ctx, id)
	if err != nil {
		return dto.TeacherRequestResponse{}, err
	}

	if request.Type == models.RequestTypeRemoveStudent {
		details := request.Details.Data()
		if _, err := s.locate(ctx, request.Teacher, details); err != nil {
			return dto.TeacherRequestResponse{}, err
		}
		err := s.schedule.RemoveStudent(ctx, details.SessionID, details.StudentID, actor)
		if errors.Is(err, ErrNotEnrolled) {
			s.logger.Info().Uint("request_id", request.ID).Uint("student_id", details.StudentID).Msg("student already removed, approving request")
		} else if err != nil {
			return dto.TeacherRequestResponse{}, err
		}
	}

	if err := s.review(ctx, &request, models.StatusApproved, actor); err != nil {
		return dto.TeacherRequestResponse{}, err
	}
	return dto.NewTeacherRequestResponse(request), nil
}

func (s *teacherRequestService) Deny(ctx context.Context, id uint, actor ActivityActor) (dto.TeacherRequestResponse, error) {
	request, err := s.pending(ctx, id)
	if err != nil {
		return dto.TeacherRequestResponse{}, err
	}

	if request.Type == models.RequestTypeRemoveStudent {
		details := request.Details.Data()
		err := s.schedule.MarkPendingRemoval(ctx, details.SessionID, details.StudentID, false)
		if err != nil && !errors.Is(err, ErrNotEnrolled) && !errors.Is(err, ErrSessionNotFound) {
			return dto.TeacherRequestResponse{}, err
		}
	}

	if err := s.review(ctx, &request, models.StatusDenied, actor); err != nil {
		return dto.TeacherRequestResponse{}, err
	}
	return dto.NewTeacherRequestResponse(request), nil
}

// locate finds the session named by a request and checks it still belongs to the requesting
// teacher on the requested day.
func (s *teacherRequestService) locate(ctx context.Context, teacher string, details models.RequestDetails) (models.Session, error) {
	session, err := s.sessions.GetSession(ctx, details.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}

	if session.Teacher != teacher {
		return models.Session{}, ErrSessionNotFound
	}
	if details.Day != "" {
		day, err := schedule.NormalizeDay(details.Day)
		if err != nil || string(day) != session.Day {
			return models.Session{}, ErrSessionNotFound
		}
	}
	if details.SemesterID != 0 && details.SemesterID != session.SemesterID {
		return models.Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *teacherRequestService) pending(ctx context.Context, id uint) (models.TeacherRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TeacherRequest{}, ErrRequestNotFound
		}
		return models.TeacherRequest{}, err
	}
	if request.Status != models.StatusPending {
		return models.TeacherRequest{}, ErrRequestNotPending
	}
	return request, nil
}

func (s *teacherRequestService) review(ctx context.Context, request *models.TeacherRequest, status string, actor ActivityActor) error {
	reviewedAt := s.now().UTC()
	reviewedBy := actor.ID
	request.Status = status
	request.ReviewedAt = &reviewedAt
	request.ReviewedBy = &reviewedBy

	if err := s.repo.Save(ctx, request); err != nil {
		return err
	}

	if s.activity != nil {
		id := request.ID
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "request." + status,
			EntityType: models.ActivityEntityTeacherRequest,
			EntityID:   &id,
			Metadata: map[string]interface{}{
				"type":    request.Type,
				"teacher": request.Teacher,
			},
		})
	}

	s.logger.Info().Uint("request_id", request.ID).Str("status", status).Msg("teacher request reviewed")
	return nil
}
