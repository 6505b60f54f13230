package service

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/noah-isme/maestro-api/internal/observability"
	"github.com/noah-isme/maestro-api/internal/repository"
	"github.com/noah-isme/maestro-api/internal/schedule"
)

var (
	// ErrSessionNotFound indicates the session does not exist in the addressed semester.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSlotTaken indicates the teacher already has a session starting at that time on that day.
	ErrSlotTaken = errors.New("teacher already has a session in this slot")
	// ErrUnknownTeacher indicates the teacher is not part of the semester roster.
	ErrUnknownTeacher = errors.New("teacher is not assigned to this semester")
	// ErrInvalidDuration indicates a session duration outside 1 to 4 hours.
	ErrInvalidDuration = errors.New("session duration must be between 1 and 4 hours")
	// ErrAlreadyEnrolled indicates the student already belongs to the session.
	ErrAlreadyEnrolled = errors.New("student already enrolled in this session")
	// ErrNotEnrolled indicates the student does not belong to the session.
	ErrNotEnrolled = errors.New("student is not enrolled in this session")
	// ErrStudentDeleted indicates a soft deleted student was addressed by a schedule write.
	ErrStudentDeleted = errors.New("student has been deleted")
)

const (
	minSessionHours = 1
	maxSessionHours = 4
)

// Transfer moves one student from a session to the same slot under another teacher.
type Transfer struct {
	StudentID  uint
	SessionID  uint
	NewTeacher string
}

// ScheduleService applies mutations to a semester's weekly schedule.
type ScheduleService interface {
	CreateSession(ctx context.Context, semesterID uint, payload dto.SessionCreateRequest, actor ActivityActor) (dto.SessionView, error)
	DeleteSession(ctx context.Context, sessionID uint, actor ActivityActor) error
	Enroll(ctx context.Context, semesterID uint, payload dto.EnrollRequest, actor ActivityActor) (dto.SessionView, error)
	RemoveStudent(ctx context.Context, sessionID, studentID uint, actor ActivityActor) error
	MarkPendingRemoval(ctx context.Context, sessionID, studentID uint, pending bool) error
	Transfer(ctx context.Context, semesterID uint, transfers []Transfer, actor ActivityActor) error
	TransferForLeave(ctx context.Context, semesterID uint, leave models.Leave, requested []dto.TransferRequest, actor ActivityActor) ([]Transfer, error)
	StudentEnrollments(ctx context.Context, studentID uint, semesterID *uint) ([]dto.EnrollmentResponse, error)
	Events(ctx context.Context, semesterID uint, limit int) ([]dto.ScheduleEventMessage, error)
}

type scheduleService struct {
	repo      repository.ScheduleRepository
	semesters repository.SemesterRepository
	students  repository.StudentRepository
	locker    SemesterLocker
	cache     ScheduleCache
	feed      ScheduleFeed
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewScheduleService constructs the schedule mutation service.
func NewScheduleService(
	repo repository.ScheduleRepository,
	semesters repository.SemesterRepository,
	students repository.StudentRepository,
	locker SemesterLocker,
	cache ScheduleCache,
	feed ScheduleFeed,
	validate *validator.Validate,
	logger zerolog.Logger,
) ScheduleService {
	return &scheduleService{
		repo:      repo,
		semesters: semesters,
		students:  students,
		locker:    locker,
		cache:     cache,
		feed:      feed,
		validator: validate,
		logger:    logger.With().Str("component", "schedule_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/maestro-api/internal/service/schedule"),
		now:       time.Now,
	}
}

func (s *scheduleService) CreateSession(ctx context.Context, semesterID uint, payload dto.SessionCreateRequest, actor ActivityActor) (dto.SessionView, error) {
	if payload.Duration < minSessionHours || payload.Duration > maxSessionHours {
		return dto.SessionView{}, ErrInvalidDuration
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionView{}, err
	}

	semester, err := s.semester(ctx, semesterID)
	if err != nil {
		return dto.SessionView{}, err
	}
	slot, err := parseSlot(semester, payload.Teacher, payload.Day, payload.Time)
	if err != nil {
		return dto.SessionView{}, err
	}

	var created models.Session
	err = s.mutate(ctx, semesterID, "create_session", func(tx repository.ScheduleRepository) ([]models.ScheduleEvent, error) {
		if _, err := tx.FindSlot(ctx, semesterID, slot.teacher, string(slot.day), slot.minutes); err == nil {
			return nil, ErrSlotTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		session, event, err := s.createSession(ctx, tx, semesterID, slot, payload.Duration, payload.Specialization, payload.Type, actor)
		if err != nil {
			return nil, err
		}
		created = session
		return []models.ScheduleEvent{event}, nil
	})
	if err != nil {
		return dto.SessionView{}, err
	}

	s.logger.Info().Uint("semester_id", semesterID).Uint("session_id", created.ID).Str("slot", created.SlotKey).Msg("session created")
	return dto.NewSessionView(created), nil
}

func (s *scheduleService) DeleteSession(ctx context.Context, sessionID uint, actor ActivityActor) error {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	err = s.mutate(ctx, session.SemesterID, "delete_session", func(tx repository.ScheduleRepository) ([]models.ScheduleEvent, error) {
		current, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		if err := tx.DeleteSession(ctx, sessionID); err != nil {
			return nil, err
		}

		studentIDs := make([]interface{}, 0, len(current.Students))
		for _, student := range current.Students {
			studentIDs = append(studentIDs, student.StudentID)
		}
		return []models.ScheduleEvent{{
			Kind:      models.EventDeleteSession,
			SessionID: current.ID,
			Teacher:   current.Teacher,
			Day:       current.Day,
			ActorID:   actor.ID,
			Payload: datatypes.JSONMap{
				"slot_key": current.SlotKey,
				"time":     current.Time,
				"students": studentIDs,
			},
		}}, nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Uint("semester_id", session.SemesterID).Uint("session_id", sessionID).Msg("session deleted")
	return nil
}

func (s *scheduleService) Enroll(ctx context.Context, semesterID uint, payload dto.EnrollRequest, actor ActivityActor) (dto.SessionView, error) {
	if payload.Duration != 0 && (payload.Duration < minSessionHours || payload.Duration > maxSessionHours) {
		return dto.SessionView{}, ErrInvalidDuration
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionView{}, err
	}

	semester, err := s.semester(ctx, semesterID)
	if err != nil {
		return dto.SessionView{}, err
	}
	slot, err := parseSlot(semester, payload.Teacher, payload.Day, payload.Time)
	if err != nil {
		return dto.SessionView{}, err
	}
	student, err := s.activeStudent(ctx, payload.StudentID)
	if err != nil {
		return dto.SessionView{}, err
	}

	duration := payload.Duration
	if duration == 0 {
		duration = minSessionHours
	}

	var sessionID uint
	err = s.mutate(ctx, semesterID, "enroll", func(tx repository.ScheduleRepository) ([]models.ScheduleEvent, error) {
		events := make([]models.ScheduleEvent, 0, 2)

		session, err := tx.FindSlot(ctx, semesterID, slot.teacher, string(slot.day), slot.minutes)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			created, event, err := s.createSession(ctx, tx, semesterID, slot, duration, payload.Specialization, payload.Type, actor)
			if err != nil {
				return nil, err
			}
			session = created
			events = append(events, event)
		}

		if session.HasStudent(student.ID) {
			return nil, ErrAlreadyEnrolled
		}

		event, err := s.addStudent(ctx, tx, session, student.ID, student.Name, actor)
		if err != nil {
			return nil, err
		}
		sessionID = session.ID
		return append(events, event), nil
	})
	if err != nil {
		return dto.SessionView{}, err
	}

	s.logger.Info().Uint("semester_id", semesterID).Uint("session_id", sessionID).Uint("student_id", student.ID).Msg("student enrolled")

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return dto.SessionView{}, err
	}
	return dto.NewSessionView(session), nil
}

func (s *scheduleService) RemoveStudent(ctx context.Context, sessionID, studentID uint, actor ActivityActor) error {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	err = s.mutate(ctx, session.SemesterID, "remove_student", func(tx repository.ScheduleRepository) ([]models.ScheduleEvent, error) {
		if err := tx.RemoveStudent(ctx, sessionID, studentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotEnrolled
			}
			return nil, err
		}
		return []models.ScheduleEvent{{
			Kind:      models.EventRemoveStudent,
			SessionID: session.ID,
			StudentID: studentID,
			Teacher:   session.Teacher,
			Day:       session.Day,
			ActorID:   actor.ID,
			Payload:   datatypes.JSONMap{"time": session.Time},
		}}, nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Uint("session_id", sessionID).Uint("student_id", studentID).Msg("student removed from session")
	return nil
}

// MarkPendingRemoval flags an enrollment awaiting a removal decision. It is not logged as a schedule event.
func (s *scheduleService) MarkPendingRemoval(ctx context.Context, sessionID, studentID uint, pending bool) error {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	unlock, err := s.locker.Lock(ctx, session.SemesterID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.repo.SetPendingRemoval(ctx, sessionID, studentID, pending); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEnrolled
		}
		return err
	}

	s.cache.Invalidate(ctx, session.SemesterID)
	return nil
}

// Transfer applies every move inside one transaction; either all students move or none do.
func (s *scheduleService) Transfer(ctx context.Context, semesterID uint, transfers []Transfer, actor ActivityActor) error {
	if len(transfers) == 0 {
		return nil
	}

	semester, err := s.semester(ctx, semesterID)
	if err != nil {
		return err
	}
	for _, transfer := range transfers {
		if !semester.HasTeacher(strings.TrimSpace(transfer.NewTeacher)) {
			return ErrUnknownTeacher
		}
	}

	ctx, span := s.tracer.Start(ctx, "schedule.transfer", trace.WithAttributes(
		attribute.Int64("semester.id", int64(semesterID)),
		attribute.Int("transfer.count", len(transfers)),
	))
	defer span.End()

	err = s.mutate(ctx, semesterID, "transfer", func(tx repository.ScheduleRepository) ([]models.ScheduleEvent, error) {
		return s.applyTransfers(ctx, tx, semesterID, transfers, actor)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.logger.Info().Uint("semester_id", semesterID).Int("count", len(transfers)).Msg("students transferred")
	return nil
}

// TransferForLeave recomputes the enrollments a teacher leave affects while holding the semester
// lock and applies the requested transfers only when they match that list one to one.
func (s *scheduleService) TransferForLeave(ctx context.Context, semesterID uint, leave models.Leave, requested []dto.TransferRequest, actor ActivityActor) ([]Transfer, error) {
	semester, err := s.semester(ctx, semesterID)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "schedule.transfer_for_leave", trace.WithAttributes(
		attribute.Int64("semester.id", int64(semesterID)),
		attribute.Int64("leave.id", int64(leave.ID)),
	))
	defer span.End()

	var applied []Transfer
	err = s.mutate(ctx, semesterID, "transfer", func(tx repository.ScheduleRepository) ([]models.ScheduleEvent, error) {
		sessions, err := tx.ListSessions(ctx, semesterID, repository.SessionFilter{Teacher: leave.PersonName})
		if err != nil {
			return nil, err
		}
		affected := schedule.AffectedByLeave(sessions, leave.StartDate, leave.EndDate)

		transfers, err := matchTransfers(leave, semester, affected, requested)
		if err != nil {
			return nil, err
		}
		applied = transfers
		return s.applyTransfers(ctx, tx, semesterID, transfers, actor)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info().Uint("semester_id", semesterID).Uint("leave_id", leave.ID).Int("count", len(applied)).Msg("leave transfers applied")
	return applied, nil
}

func (s *scheduleService) applyTransfers(ctx context.Context, tx repository.ScheduleRepository, semesterID uint, transfers []Transfer, actor ActivityActor) ([]models.ScheduleEvent, error) {
	events := make([]models.ScheduleEvent, 0, len(transfers)*2)
	for _, transfer := range transfers {
		moved, err := s.transferOne(ctx, tx, semesterID, transfer, actor)
		if err != nil {
			return nil, err
		}
		events = append(events, moved...)
	}
	return events, nil
}

func (s *scheduleService) transferOne(ctx context.Context, tx repository.ScheduleRepository, semesterID uint, transfer Transfer, actor ActivityActor) ([]models.ScheduleEvent, error) {
	source, err := tx.GetSession(ctx, transfer.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if source.SemesterID != semesterID {
		return nil, ErrSessionNotFound
	}

	var entry *models.SessionStudent
	for i := range source.Students {
		if source.Students[i].StudentID == transfer.StudentID {
			entry = &source.Students[i]
			break
		}
	}
	if entry == nil {
		return nil, ErrNotEnrolled
	}

	if err := tx.RemoveStudent(ctx, source.ID, transfer.StudentID); err != nil {
		return nil, err
	}

	newTeacher := strings.TrimSpace(transfer.NewTeacher)
	events := make([]models.ScheduleEvent, 0, 2)
	target, err := tx.FindSlot(ctx, semesterID, newTeacher, source.Day, source.StartMinutes)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		slot := slotSpec{teacher: newTeacher, day: schedule.Day(source.Day), minutes: source.StartMinutes}
		created, event, err := s.createSession(ctx, tx, semesterID, slot, source.Duration, source.Specialization, source.Type, actor)
		if err != nil {
			return nil, err
		}
		target = created
		events = append(events, event)
	}

	if !target.HasStudent(transfer.StudentID) {
		added := models.SessionStudent{
			SessionID:   target.ID,
			StudentID:   transfer.StudentID,
			StudentName: entry.StudentName,
			EnrolledAt:  s.now().UTC(),
		}
		if err := tx.AddStudent(ctx, &added); err != nil {
			return nil, err
		}
	}

	events = append(events, models.ScheduleEvent{
		Kind:      models.EventMoveStudent,
		SessionID: target.ID,
		StudentID: transfer.StudentID,
		Teacher:   target.Teacher,
		Day:       target.Day,
		ActorID:   actor.ID,
		Payload: datatypes.JSONMap{
			"from_session_id": source.ID,
			"from_teacher":    source.Teacher,
			"to_session_id":   target.ID,
			"to_teacher":      target.Teacher,
			"time":            target.Time,
		},
	})
	return events, nil
}

func (s *scheduleService) StudentEnrollments(ctx context.Context, studentID uint, semesterID *uint) ([]dto.EnrollmentResponse, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return s.enrollmentsFor(ctx, student, semesterID)
}

func (s *scheduleService) enrollmentsFor(ctx context.Context, student models.Student, semesterID *uint) ([]dto.EnrollmentResponse, error) {
	if student.IsDeleted() {
		return []dto.EnrollmentResponse{}, nil
	}

	rows, err := s.repo.EnrollmentsForStudent(ctx, student.ID, semesterID)
	if err != nil {
		return nil, err
	}

	return enrollmentResponses(rows), nil
}

func (s *scheduleService) Events(ctx context.Context, semesterID uint, limit int) ([]dto.ScheduleEventMessage, error) {
	if _, err := s.semester(ctx, semesterID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	events, err := s.repo.ListEvents(ctx, semesterID, limit)
	if err != nil {
		return nil, err
	}
	return dto.NewScheduleEventMessages(events), nil
}

// mutate runs fn under the semester writer lock inside one transaction and appends the events it
// returns to the mutation log, stamped with the request's correlation id. Cache invalidation and
// fan-out happen only after commit.
func (s *scheduleService) mutate(ctx context.Context, semesterID uint, operation string, fn func(tx repository.ScheduleRepository) ([]models.ScheduleEvent, error)) error {
	ctx, span := s.tracer.Start(ctx, "schedule."+operation, trace.WithAttributes(
		attribute.Int64("semester.id", int64(semesterID)),
	))
	defer span.End()

	unlock, err := s.locker.Lock(ctx, semesterID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("lock semester %d: %w", semesterID, err)
	}
	defer unlock()

	var committed []models.ScheduleEvent
	err = s.repo.Transaction(ctx, func(tx repository.ScheduleRepository) error {
		events, err := fn(tx)
		if err != nil {
			return err
		}
		correlationID := observability.CorrelationID(ctx)
		for i := range events {
			events[i].SemesterID = semesterID
			if correlationID != "" {
				if events[i].Payload == nil {
					events[i].Payload = datatypes.JSONMap{}
				}
				events[i].Payload["correlation_id"] = correlationID
			}
			if err := tx.AppendEvent(ctx, &events[i]); err != nil {
				return err
			}
		}
		committed = events
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.cache.Invalidate(ctx, semesterID)
	for _, event := range committed {
		s.feed.Publish(ctx, event)
	}
	observability.ScheduleMutations().WithLabelValues(operation).Inc()
	return nil
}

func (s *scheduleService) createSession(ctx context.Context, tx repository.ScheduleRepository, semesterID uint, slot slotSpec, duration float64, specialization, sessionType string, actor ActivityActor) (models.Session, models.ScheduleEvent, error) {
	if sessionType == "" {
		sessionType = models.SessionTypePractical
	}

	session := models.Session{
		SemesterID:     semesterID,
		Teacher:        slot.teacher,
		Day:            string(slot.day),
		StartMinutes:   slot.minutes,
		Time:           schedule.FormatClock(slot.minutes),
		EndTime:        schedule.EndClock(slot.minutes, duration),
		Duration:       duration,
		Specialization: strings.TrimSpace(specialization),
		Type:           sessionType,
		SlotKey:        schedule.SlotKey(slot.day, slot.teacher, slot.minutes),
	}
	if err := tx.CreateSession(ctx, &session); err != nil {
		return models.Session{}, models.ScheduleEvent{}, err
	}

	event := models.ScheduleEvent{
		Kind:      models.EventCreateSession,
		SessionID: session.ID,
		Teacher:   session.Teacher,
		Day:       session.Day,
		ActorID:   actor.ID,
		Payload: datatypes.JSONMap{
			"slot_key": session.SlotKey,
			"time":     session.Time,
			"duration": session.Duration,
			"type":     session.Type,
		},
	}
	return session, event, nil
}

func (s *scheduleService) addStudent(ctx context.Context, tx repository.ScheduleRepository, session models.Session, studentID uint, name string, actor ActivityActor) (models.ScheduleEvent, error) {
	entry := models.SessionStudent{
		SessionID:   session.ID,
		StudentID:   studentID,
		StudentName: name,
		EnrolledAt:  s.now().UTC(),
	}
	if err := tx.AddStudent(ctx, &entry); err != nil {
		return models.ScheduleEvent{}, err
	}

	return models.ScheduleEvent{
		Kind:      models.EventAddStudent,
		SessionID: session.ID,
		StudentID: studentID,
		Teacher:   session.Teacher,
		Day:       session.Day,
		ActorID:   actor.ID,
		Payload:   datatypes.JSONMap{"time": session.Time, "student_name": name},
	}, nil
}

func (s *scheduleService) semester(ctx context.Context, id uint) (models.Semester, error) {
	semester, err := s.semesters.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Semester{}, ErrSemesterNotFound
		}
		return models.Semester{}, err
	}
	return semester, nil
}

func (s *scheduleService) activeStudent(ctx context.Context, id uint) (models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}
	if student.IsDeleted() {
		return models.Student{}, ErrStudentDeleted
	}
	return student, nil
}

type slotSpec struct {
	teacher string
	day     schedule.Day
	minutes int
}

func parseSlot(semester models.Semester, teacher, day, clock string) (slotSpec, error) {
	name := strings.TrimSpace(teacher)
	if !semester.HasTeacher(name) {
		return slotSpec{}, ErrUnknownTeacher
	}
	parsedDay, err := schedule.NormalizeDay(day)
	if err != nil {
		return slotSpec{}, err
	}
	minutes, err := schedule.ParseClock(clock)
	if err != nil {
		return slotSpec{}, err
	}
	return slotSpec{teacher: name, day: parsedDay, minutes: minutes}, nil
}
