package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/repository"
)

// ErrStudentNotFound indicates the student profile does not exist.
var ErrStudentNotFound = errors.New("student not found")

const defaultStudentLevel = "beginner"

// StudentService manages student profiles.
type StudentService interface {
	List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest, actor ActivityActor) (dto.StudentResponse, error)
	SoftDelete(ctx context.Context, id uint, actor ActivityActor) error
	HardDelete(ctx context.Context, id uint, actor ActivityActor) error
}

type studentService struct {
	repo      repository.StudentRepository
	schedule  repository.ScheduleRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo repository.StudentRepository, scheduleRepo repository.ScheduleRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) StudentService {
	return &studentService{
		repo:      repo,
		schedule:  scheduleRepo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "student_service").Logger(),
		now:       time.Now,
	}
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	filter := repository.StudentFilter{
		Search:   strings.TrimSpace(req.Search),
		Status:   strings.ToLower(strings.TrimSpace(req.Status)),
		Level:    strings.TrimSpace(req.Level),
		Sort:     req.Sort,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	responses := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		enrolledIn, err := s.enrolledIn(ctx, student)
		if err != nil {
			return dto.StudentListResponse{}, err
		}
		responses = append(responses, dto.NewStudentResponse(student, enrolledIn))
	}

	return dto.StudentListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.find(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	enrolledIn, err := s.enrolledIn(ctx, student)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student, enrolledIn), nil
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	level := strings.TrimSpace(payload.Level)
	if level == "" {
		level = defaultStudentLevel
	}

	student := models.Student{
		Name:               strings.TrimSpace(payload.Name),
		Email:              strings.ToLower(strings.TrimSpace(payload.Email)),
		Phone:              strings.TrimSpace(payload.Phone),
		Gender:             strings.TrimSpace(payload.Gender),
		DateOfBirth:        strings.TrimSpace(payload.DateOfBirth),
		Nationality:        strings.TrimSpace(payload.Nationality),
		InstrumentInterest: strings.TrimSpace(payload.InstrumentInterest),
		Level:              level,
		LevelHistory:       datatypes.JSONSlice[models.LevelChange]{{Level: level, ChangedAt: s.now().UTC()}},
		Status:             models.StudentStatusActive,
	}
	if err := s.repo.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.logger.Info().Uint("student_id", student.ID).Msg("student created")
	return dto.NewStudentResponse(student, nil), nil
}

func (s *studentService) Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest, actor ActivityActor) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := s.find(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	changedFields := make([]string, 0)
	assign := func(field string, target *string, value *string) {
		if value == nil {
			return
		}
		*target = strings.TrimSpace(*value)
		changedFields = append(changedFields, field)
	}
	assign("name", &student.Name, payload.Name)
	assign("email", &student.Email, payload.Email)
	assign("phone", &student.Phone, payload.Phone)
	assign("gender", &student.Gender, payload.Gender)
	assign("dob", &student.DateOfBirth, payload.DateOfBirth)
	assign("nationality", &student.Nationality, payload.Nationality)
	assign("instrument_interest", &student.InstrumentInterest, payload.InstrumentInterest)

	if payload.Level != nil {
		level := strings.TrimSpace(*payload.Level)
		if level != "" && level != student.Level {
			student.Level = level
			student.LevelHistory = append(student.LevelHistory, models.LevelChange{Level: level, ChangedAt: s.now().UTC()})
			changedFields = append(changedFields, "level")
		}
	}

	if len(changedFields) > 0 {
		if err := s.repo.Save(ctx, &student); err != nil {
			return dto.StudentResponse{}, err
		}

		if s.activity != nil {
			_, _ = s.activity.Record(ctx, ActivityEntry{
				ActorID:    actor.ID,
				ActorRole:  actor.Role,
				Action:     "student.updated",
				EntityType: models.ActivityEntityStudent,
				EntityID:   &id,
				Metadata:   map[string]interface{}{"student_id": id, "fields": changedFields},
			})
		}
	}

	enrolledIn, err := s.enrolledIn(ctx, student)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student, enrolledIn), nil
}

// SoftDelete only changes the profile status. Session student lists are left as they are and the
// derived enrollment list turns empty.
func (s *studentService) SoftDelete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	s.recordDeletion(ctx, id, actor, "student.deleted")
	return nil
}

func (s *studentService) HardDelete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.HardDelete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	s.recordDeletion(ctx, id, actor, "student.purged")
	return nil
}

func (s *studentService) recordDeletion(ctx context.Context, id uint, actor ActivityActor, action string) {
	s.logger.Info().Uint("student_id", id).Str("action", action).Msg("student removed")
	if s.activity == nil {
		return
	}
	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: models.ActivityEntityStudent,
		EntityID:   &id,
		Metadata:   map[string]interface{}{"student_id": id},
	})
}

func (s *studentService) find(ctx context.Context, id uint) (models.Student, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}
	return student, nil
}

func (s *studentService) enrolledIn(ctx context.Context, student models.Student) ([]dto.EnrollmentResponse, error) {
	if student.IsDeleted() {
		return []dto.EnrollmentResponse{}, nil
	}

	rows, err := s.schedule.EnrollmentsForStudent(ctx, student.ID, nil)
	if err != nil {
		return nil, err
	}
	return enrollmentResponses(rows), nil
}

func enrollmentResponses(rows []repository.Enrollment) []dto.EnrollmentResponse {
	enrollments := make([]dto.EnrollmentResponse, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, dto.EnrollmentResponse{
			SemesterID: row.SemesterID,
			SessionID:  row.SessionID,
			Teacher:    row.Teacher,
			Day:        row.Day,
			Time:       row.Time,
		})
	}
	return enrollments
}
