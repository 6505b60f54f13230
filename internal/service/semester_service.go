package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/repository"
	"github.com/noah-isme/maestro-api/internal/schedule"
)

var (
	// ErrSemesterNotFound indicates the semester does not exist.
	ErrSemesterNotFound = errors.New("semester not found")
	// ErrNoActiveSemester indicates no semester is flagged active.
	ErrNoActiveSemester = errors.New("no active semester")
	// ErrInvalidDateRange indicates an end date before the start date.
	ErrInvalidDateRange = errors.New("end date must not be before start date")
)

// SemesterService manages semesters and serves their master schedule projection.
type SemesterService interface {
	Create(ctx context.Context, payload dto.SemesterCreateRequest) (dto.SemesterResponse, error)
	List(ctx context.Context) ([]dto.SemesterResponse, error)
	Get(ctx context.Context, id uint) (dto.SemesterResponse, error)
	Active(ctx context.Context) (dto.SemesterResponse, error)
	Update(ctx context.Context, id uint, payload dto.SemesterUpdateRequest) (dto.SemesterResponse, error)
	Activate(ctx context.Context, id uint, actor ActivityActor) (dto.SemesterResponse, error)
	Schedule(ctx context.Context, id uint, week *time.Time) (dto.ScheduleResponse, error)
}

type semesterService struct {
	repo       repository.SemesterRepository
	schedule   repository.ScheduleRepository
	attendance repository.AttendanceRepository
	cache      ScheduleCache
	activity   ActivityRecorder
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewSemesterService constructs the semester service.
func NewSemesterService(
	repo repository.SemesterRepository,
	scheduleRepo repository.ScheduleRepository,
	attendance repository.AttendanceRepository,
	cache ScheduleCache,
	activity ActivityRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) SemesterService {
	return &semesterService{
		repo:       repo,
		schedule:   scheduleRepo,
		attendance: attendance,
		cache:      cache,
		activity:   activity,
		validator:  validate,
		logger:     logger.With().Str("component", "semester_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/maestro-api/internal/service/semester"),
		now:        time.Now,
	}
}

func (s *semesterService) Create(ctx context.Context, payload dto.SemesterCreateRequest) (dto.SemesterResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SemesterResponse{}, err
	}

	start, end, err := parseDateRange(payload.StartDate, payload.EndDate)
	if err != nil {
		return dto.SemesterResponse{}, err
	}

	semester := models.Semester{
		Name:      strings.TrimSpace(payload.Name),
		StartDate: start,
		EndDate:   end,
		Teachers:  datatypes.JSONSlice[string](dedupeNames(payload.Teachers)),
	}
	if err := s.repo.Create(ctx, &semester); err != nil {
		return dto.SemesterResponse{}, err
	}

	s.logger.Info().Uint("semester_id", semester.ID).Str("name", semester.Name).Msg("semester created")
	return dto.NewSemesterResponse(semester, s.now()), nil
}

func (s *semesterService) List(ctx context.Context) ([]dto.SemesterResponse, error) {
	semesters, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	responses := make([]dto.SemesterResponse, 0, len(semesters))
	for _, semester := range semesters {
		responses = append(responses, dto.NewSemesterResponse(semester, now))
	}
	return responses, nil
}

func (s *semesterService) Get(ctx context.Context, id uint) (dto.SemesterResponse, error) {
	semester, err := s.find(ctx, id)
	if err != nil {
		return dto.SemesterResponse{}, err
	}
	return dto.NewSemesterResponse(semester, s.now()), nil
}

func (s *semesterService) Active(ctx context.Context) (dto.SemesterResponse, error) {
	semester, err := s.repo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SemesterResponse{}, ErrNoActiveSemester
		}
		return dto.SemesterResponse{}, err
	}
	return dto.NewSemesterResponse(semester, s.now()), nil
}

func (s *semesterService) Update(ctx context.Context, id uint, payload dto.SemesterUpdateRequest) (dto.SemesterResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SemesterResponse{}, err
	}

	semester, err := s.find(ctx, id)
	if err != nil {
		return dto.SemesterResponse{}, err
	}

	if payload.Name != nil {
		semester.Name = strings.TrimSpace(*payload.Name)
	}
	startValue := semester.StartDate.Format(schedule.DateLayout)
	endValue := semester.EndDate.Format(schedule.DateLayout)
	if payload.StartDate != nil {
		startValue = *payload.StartDate
	}
	if payload.EndDate != nil {
		endValue = *payload.EndDate
	}
	start, end, err := parseDateRange(startValue, endValue)
	if err != nil {
		return dto.SemesterResponse{}, err
	}
	semester.StartDate, semester.EndDate = start, end
	if payload.Teachers != nil {
		semester.Teachers = datatypes.JSONSlice[string](dedupeNames(payload.Teachers))
	}

	if err := s.repo.Update(ctx, &semester); err != nil {
		return dto.SemesterResponse{}, err
	}
	s.cache.Invalidate(ctx, id)

	return dto.NewSemesterResponse(semester, s.now()), nil
}

func (s *semesterService) Activate(ctx context.Context, id uint, actor ActivityActor) (dto.SemesterResponse, error) {
	if err := s.repo.Activate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SemesterResponse{}, ErrSemesterNotFound
		}
		return dto.SemesterResponse{}, err
	}

	semester, err := s.find(ctx, id)
	if err != nil {
		return dto.SemesterResponse{}, err
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "semester.activated",
			EntityType: models.ActivityEntitySemester,
			EntityID:   &id,
			Metadata:   map[string]interface{}{"name": semester.Name},
		})
	}

	s.logger.Info().Uint("semester_id", id).Msg("semester activated")
	return dto.NewSemesterResponse(semester, s.now()), nil
}

// Schedule returns the master schedule of a semester. With a week date the students carry the
// attendance recorded for that week; otherwise attendance is null.
func (s *semesterService) Schedule(ctx context.Context, id uint, week *time.Time) (dto.ScheduleResponse, error) {
	ctx, span := s.tracer.Start(ctx, "semesters.schedule", trace.WithAttributes(attribute.Int64("semester.id", int64(id))))
	defer span.End()

	projection, hit := s.cache.Get(ctx, id)
	span.SetAttributes(attribute.Bool("schedule.cache_hit", hit))
	if !hit {
		version, cacheable := s.cache.Version(ctx, id)
		semester, err := s.find(ctx, id)
		if err != nil {
			return dto.ScheduleResponse{}, err
		}
		sessions, err := s.schedule.ListSessions(ctx, id, repository.SessionFilter{})
		if err != nil {
			span.RecordError(err)
			return dto.ScheduleResponse{}, err
		}

		projection = buildProjection(id, semester.Teachers, sessions)
		if cacheable {
			span.SetAttributes(attribute.Bool("schedule.cache_filled", s.cache.Fill(ctx, id, version, projection)))
		}
	}
	projection.CacheHit = hit

	if week == nil {
		return projection, nil
	}

	weekKey := schedule.WeekKey(*week)
	records, err := s.attendance.ListWeek(ctx, id, weekKey)
	if err != nil {
		return dto.ScheduleResponse{}, err
	}
	overlayAttendance(&projection, records)
	projection.Week = weekKey
	return projection, nil
}

func (s *semesterService) find(ctx context.Context, id uint) (models.Semester, error) {
	semester, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Semester{}, ErrSemesterNotFound
		}
		return models.Semester{}, err
	}
	return semester, nil
}

func buildProjection(semesterID uint, teachers []string, sessions []models.Session) dto.ScheduleResponse {
	master := schedule.Project(teachers, sessions)

	view := make(map[string]map[string][]dto.SessionView, len(master))
	for teacher, days := range master {
		byDay := make(map[string][]dto.SessionView, len(days))
		for day, daySessions := range days {
			views := make([]dto.SessionView, 0, len(daySessions))
			for _, session := range daySessions {
				views = append(views, dto.NewSessionView(session))
			}
			byDay[string(day)] = views
		}
		view[teacher] = byDay
	}

	return dto.ScheduleResponse{SemesterID: semesterID, Master: view}
}

func overlayAttendance(projection *dto.ScheduleResponse, records []models.AttendanceRecord) {
	cells := make(map[string]string, len(records))
	for _, record := range records {
		cells[attendanceCellKey(record.SessionID, record.StudentID)] = record.Status
	}

	for _, days := range projection.Master {
		for _, sessions := range days {
			for i := range sessions {
				for j := range sessions[i].Students {
					student := &sessions[i].Students[j]
					student.Attendance = nil
					if status, ok := cells[attendanceCellKey(sessions[i].ID, student.StudentID)]; ok {
						value := status
						student.Attendance = &value
					}
				}
			}
		}
	}
}

func attendanceCellKey(sessionID, studentID uint) string {
	return strconv.FormatUint(uint64(sessionID), 10) + ":" + strconv.FormatUint(uint64(studentID), 10)
}

func parseDateRange(startValue, endValue string) (time.Time, time.Time, error) {
	start, err := time.Parse(schedule.DateLayout, strings.TrimSpace(startValue))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(schedule.DateLayout, strings.TrimSpace(endValue))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return start, end, nil
}

func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
