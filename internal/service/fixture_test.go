package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/billing"
	"github.com/noah-isme/maestro-api/internal/database"
	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/repository"
)

var fixedNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db        *gorm.DB
	redis     *redis.Client
	miniredis *miniredis.Miniredis

	semesterRepo   repository.SemesterRepository
	scheduleRepo   repository.ScheduleRepository
	studentRepo    repository.StudentRepository
	attendanceRepo repository.AttendanceRepository
	leaveRepo      repository.LeaveRepository
	requestRepo    repository.RequestRepository
	paymentRepo    repository.InstallmentRepository
	activityRepo   repository.ActivityLogRepository

	activity   ActivityService
	cache      ScheduleCache
	feed       ScheduleFeed
	schedule   ScheduleService
	semesters  SemesterService
	attendance AttendanceService
	leaves     LeaveService
	requests   TeacherRequestService
	students   StudentService
	payments   PaymentService
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db := newTestDB(t)
	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := testLogger()
	clock := func() time.Time { return fixedNow }

	f := &fixture{
		db:             db,
		redis:          client,
		miniredis:      mr,
		semesterRepo:   repository.NewSemesterRepository(db),
		scheduleRepo:   repository.NewScheduleRepository(db),
		studentRepo:    repository.NewStudentRepository(db),
		attendanceRepo: repository.NewAttendanceRepository(db),
		leaveRepo:      repository.NewLeaveRepository(db),
		requestRepo:    repository.NewRequestRepository(db),
		paymentRepo:    repository.NewInstallmentRepository(db),
		activityRepo:   repository.NewActivityLogRepository(db),
	}

	f.activity = NewActivityService(f.activityRepo, logger)
	f.cache = NewScheduleCache(client, time.Minute, logger)
	f.feed = NewScheduleFeed(nil, nil, "", logger)

	scheduleSvc := NewScheduleService(f.scheduleRepo, f.semesterRepo, f.studentRepo, NewSemesterLocker(client, time.Second, logger), f.cache, f.feed, validate, logger).(*scheduleService)
	scheduleSvc.now = clock
	f.schedule = scheduleSvc

	semesterSvc := NewSemesterService(f.semesterRepo, f.scheduleRepo, f.attendanceRepo, f.cache, f.activity, validate, logger).(*semesterService)
	semesterSvc.now = clock
	f.semesters = semesterSvc

	attendanceSvc := NewAttendanceService(f.attendanceRepo, f.semesterRepo, f.scheduleRepo, f.leaveRepo, f.studentRepo, validate, logger).(*attendanceService)
	attendanceSvc.now = clock
	f.attendance = attendanceSvc

	leaveSvc := NewLeaveService(f.leaveRepo, f.semesterRepo, f.scheduleRepo, f.studentRepo, f.schedule, f.activity, validate, logger).(*leaveService)
	leaveSvc.now = clock
	f.leaves = leaveSvc

	requestSvc := NewTeacherRequestService(f.requestRepo, f.scheduleRepo, f.schedule, f.activity, validate, logger).(*teacherRequestService)
	requestSvc.now = clock
	f.requests = requestSvc

	studentSvc := NewStudentService(f.studentRepo, f.scheduleRepo, validate, f.activity, logger).(*studentService)
	studentSvc.now = clock
	f.students = studentSvc

	paymentSvc := NewPaymentService(f.paymentRepo, f.studentRepo, billing.Prices{Monthly: 120, Quarterly: 330, Yearly: 1200}, f.activity, validate, logger).(*paymentService)
	paymentSvc.now = clock
	f.payments = paymentSvc

	return f
}

func (f *fixture) semester(t *testing.T, teachers ...string) models.Semester {
	t.Helper()
	semester := models.Semester{
		Name:      "Fall 2026",
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Teachers:  datatypes.JSONSlice[string](teachers),
		IsActive:  true,
	}
	require.NoError(t, f.semesterRepo.Create(context.Background(), &semester))
	return semester
}

func (f *fixture) student(t *testing.T, name string) models.Student {
	t.Helper()
	student := models.Student{Name: name, Level: "beginner", Status: models.StudentStatusActive}
	require.NoError(t, f.studentRepo.Create(context.Background(), &student))
	return student
}

var admin = ActivityActor{ID: 1, Role: "admin"}
