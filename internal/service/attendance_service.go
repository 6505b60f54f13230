package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/repository"
	"github.com/noah-isme/maestro-api/internal/schedule"
)

// ErrStudentOnLeave indicates attendance cannot be recorded while an approved leave covers the date.
var ErrStudentOnLeave = errors.New("student is on approved leave for this date")

// AttendanceService records and reads the weekly attendance ledger.
type AttendanceService interface {
	Mark(ctx context.Context, semesterID uint, payload dto.AttendanceMarkRequest) (dto.AttendanceCellResponse, error)
	Week(ctx context.Context, semesterID uint, date time.Time) (dto.AttendanceWeekResponse, error)
	StudentHistory(ctx context.Context, studentID uint, semesterID *uint) (dto.StudentAttendanceResponse, error)
}

type attendanceService struct {
	repo      repository.AttendanceRepository
	semesters repository.SemesterRepository
	schedule  repository.ScheduleRepository
	leaves    repository.LeaveRepository
	students  repository.StudentRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(
	repo repository.AttendanceRepository,
	semesters repository.SemesterRepository,
	scheduleRepo repository.ScheduleRepository,
	leaves repository.LeaveRepository,
	students repository.StudentRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) AttendanceService {
	return &attendanceService{
		repo:      repo,
		semesters: semesters,
		schedule:  scheduleRepo,
		leaves:    leaves,
		students:  students,
		validator: validate,
		logger:    logger.With().Str("component", "attendance_service").Logger(),
		now:       time.Now,
	}
}

func (s *attendanceService) Mark(ctx context.Context, semesterID uint, payload dto.AttendanceMarkRequest) (dto.AttendanceCellResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttendanceCellResponse{}, err
	}
	date, err := time.Parse(schedule.DateLayout, payload.Date)
	if err != nil {
		return dto.AttendanceCellResponse{}, err
	}

	if _, err := s.semesters.GetByID(ctx, semesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceCellResponse{}, ErrSemesterNotFound
		}
		return dto.AttendanceCellResponse{}, err
	}

	session, err := s.schedule.GetSession(ctx, payload.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceCellResponse{}, ErrSessionNotFound
		}
		return dto.AttendanceCellResponse{}, err
	}
	if session.SemesterID != semesterID {
		return dto.AttendanceCellResponse{}, ErrSessionNotFound
	}
	if !session.HasStudent(payload.StudentID) {
		return dto.AttendanceCellResponse{}, ErrNotEnrolled
	}

	onLeave, err := s.onLeave(ctx, payload.StudentID, date)
	if err != nil {
		return dto.AttendanceCellResponse{}, err
	}
	if onLeave {
		return dto.AttendanceCellResponse{}, ErrStudentOnLeave
	}

	record := models.AttendanceRecord{
		SemesterID: semesterID,
		WeekStart:  schedule.WeekKey(date),
		SessionID:  session.ID,
		StudentID:  payload.StudentID,
		Teacher:    session.Teacher,
		Status:     payload.Status,
		UpdatedAt:  s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, &record); err != nil {
		return dto.AttendanceCellResponse{}, err
	}

	s.logger.Info().
		Uint("semester_id", semesterID).
		Uint("session_id", session.ID).
		Uint("student_id", payload.StudentID).
		Str("week", record.WeekStart).
		Str("status", record.Status).
		Msg("attendance recorded")

	return dto.AttendanceCellResponse{
		SemesterID: semesterID,
		WeekStart:  record.WeekStart,
		Teacher:    record.Teacher,
		SessionID:  record.SessionID,
		StudentID:  record.StudentID,
		Status:     record.Status,
	}, nil
}

func (s *attendanceService) Week(ctx context.Context, semesterID uint, date time.Time) (dto.AttendanceWeekResponse, error) {
	if _, err := s.semesters.GetByID(ctx, semesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceWeekResponse{}, ErrSemesterNotFound
		}
		return dto.AttendanceWeekResponse{}, err
	}

	weekKey := schedule.WeekKey(date)
	records, err := s.repo.ListWeek(ctx, semesterID, weekKey)
	if err != nil {
		return dto.AttendanceWeekResponse{}, err
	}

	teachers := make(map[string]map[string]map[string]string)
	for _, record := range records {
		sessions, ok := teachers[record.Teacher]
		if !ok {
			sessions = make(map[string]map[string]string)
			teachers[record.Teacher] = sessions
		}
		sessionKey := strconv.FormatUint(uint64(record.SessionID), 10)
		students, ok := sessions[sessionKey]
		if !ok {
			students = make(map[string]string)
			sessions[sessionKey] = students
		}
		students[strconv.FormatUint(uint64(record.StudentID), 10)] = record.Status
	}

	return dto.AttendanceWeekResponse{SemesterID: semesterID, WeekStart: weekKey, Teachers: teachers}, nil
}

// StudentHistory returns the student's ledger cells in the given semester, or the active one when
// none is named, ordered by week.
func (s *attendanceService) StudentHistory(ctx context.Context, studentID uint, semesterID *uint) (dto.StudentAttendanceResponse, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentAttendanceResponse{}, ErrStudentNotFound
		}
		return dto.StudentAttendanceResponse{}, err
	}

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
				return dto.StudentAttendanceResponse{}, ErrNoActiveSemester
			}
			return dto.StudentAttendanceResponse{}, ErrSemesterNotFound
		}
		return dto.StudentAttendanceResponse{}, err
	}

	records, err := s.repo.ListForStudent(ctx, semester.ID, studentID)
	if err != nil {
		return dto.StudentAttendanceResponse{}, err
	}
	leaves, err := s.leaves.ApprovedStudentLeaves(ctx, studentID)
	if err != nil {
		return dto.StudentAttendanceResponse{}, err
	}

	response := dto.StudentAttendanceResponse{
		SemesterID: semester.ID,
		StudentID:  studentID,
		Records:    make([]dto.AttendanceCellResponse, 0, len(records)),
		Leaves:     make([]dto.LeaveWindow, 0, len(leaves)),
	}
	for _, record := range records {
		response.Records = append(response.Records, dto.AttendanceCellResponse{
			SemesterID: record.SemesterID,
			WeekStart:  record.WeekStart,
			Teacher:    record.Teacher,
			SessionID:  record.SessionID,
			StudentID:  record.StudentID,
			Status:     record.Status,
		})
	}
	for _, leave := range leaves {
		if leave.EndDate.Before(semester.StartDate) || leave.StartDate.After(semester.EndDate) {
			continue
		}
		response.Leaves = append(response.Leaves, dto.LeaveWindow{
			LeaveID:   leave.ID,
			StartDate: leave.StartDate.Format(schedule.DateLayout),
			EndDate:   leave.EndDate.Format(schedule.DateLayout),
		})
	}
	return response, nil
}

// onLeave is a read-only check; leaves never change the schedule itself.
func (s *attendanceService) onLeave(ctx context.Context, studentID uint, date time.Time) (bool, error) {
	leaves, err := s.leaves.ApprovedStudentLeaves(ctx, studentID)
	if err != nil {
		return false, err
	}
	for _, leave := range leaves {
		if leave.Covers(date) {
			return true, nil
		}
	}
	return false, nil
}
