package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/billing"
	"github.com/noah-isme/maestro-api/internal/config"
	"github.com/noah-isme/maestro-api/internal/database"
	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/handler"
	"github.com/noah-isme/maestro-api/internal/middleware"
	"github.com/noah-isme/maestro-api/internal/repository"
	"github.com/noah-isme/maestro-api/internal/router"
	"github.com/noah-isme/maestro-api/internal/service"
)

const testSecret = "handler-test-secret"

type testServer struct {
	app  *fiber.App
	feed service.ScheduleFeed
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	semesterRepo := repository.NewSemesterRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	cache := service.NewScheduleCache(redisClient, time.Minute, logger)
	feed := service.NewScheduleFeed(nil, nil, "", logger)
	locker := service.NewSemesterLocker(redisClient, time.Second, logger)

	scheduleSvc := service.NewScheduleService(scheduleRepo, semesterRepo, studentRepo, locker, cache, feed, validate, logger)
	semesterSvc := service.NewSemesterService(semesterRepo, scheduleRepo, attendanceRepo, cache, activity, validate, logger)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, semesterRepo, scheduleRepo, leaveRepo, studentRepo, validate, logger)
	leaveSvc := service.NewLeaveService(leaveRepo, semesterRepo, scheduleRepo, studentRepo, scheduleSvc, activity, validate, logger)
	requestSvc := service.NewTeacherRequestService(repository.NewRequestRepository(db), scheduleRepo, scheduleSvc, activity, validate, logger)
	studentSvc := service.NewStudentService(studentRepo, scheduleRepo, validate, activity, logger)
	paymentSvc := service.NewPaymentService(repository.NewInstallmentRepository(db), studentRepo, billing.Prices{Monthly: 120, Quarterly: 330, Yearly: 1200}, activity, validate, logger)
	importSvc := service.NewImportService(repository.NewApplicantRepository(db), 1<<16, logger)
	incompatibilitySvc := service.NewIncompatibilityService(repository.NewIncompatibilityRepository(db), studentRepo, validate, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, config.Config{AppName: "Maestro API", AppEnv: "test"}, router.Dependencies{
		SemesterHandler:        handler.NewSemesterHandler(semesterSvc, scheduleSvc, logger),
		SessionHandler:         handler.NewSessionHandler(scheduleSvc, attendanceSvc, logger),
		ScheduleFeedHandler:    handler.NewScheduleFeedHandler(feed, semesterSvc, logger),
		StudentHandler:         handler.NewStudentHandler(studentSvc, scheduleSvc, attendanceSvc, logger),
		LeaveHandler:           handler.NewLeaveHandler(leaveSvc, logger),
		TeacherRequestHandler:  handler.NewTeacherRequestHandler(requestSvc, logger),
		PaymentHandler:         handler.NewPaymentHandler(paymentSvc, logger),
		ApplicantHandler:       handler.NewApplicantHandler(importSvc, logger),
		IncompatibilityHandler: handler.NewIncompatibilityHandler(incompatibilitySvc, logger),
		ActivityHandler:        handler.NewAdminActivityHandler(activity, logger),
		JWTMiddleware:          middleware.JWTProtected(testSecret),
		HealthChecks: []handler.DependencyCheck{
			{Name: "postgres", Required: true, Check: sqlDB.PingContext},
			{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
			{Name: "nats"},
		},
	})

	return &testServer{app: app, feed: feed}
}

func signToken(t *testing.T, id uint, role, name string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprint(id),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	if name != "" {
		claims["name"] = name
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func adminToken(t *testing.T) string {
	return signToken(t, 1, "admin", "Office")
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	return s.doWithHeaders(t, method, path, token, body, nil)
}

func (s *testServer) doWithHeaders(t *testing.T, method, path, token string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func (s *testServer) createSemester(t *testing.T, teachers ...string) dto.SemesterResponse {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/admin/semesters", adminToken(t), dto.SemesterCreateRequest{
		Name:      "Fall 2026",
		StartDate: "2026-09-01",
		EndDate:   "2026-12-31",
		Teachers:  teachers,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body envelope[dto.SemesterResponse]
	decodeResponse(t, resp, &body)
	return body.Data
}

func (s *testServer) createStudent(t *testing.T, name string) dto.StudentResponse {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/admin/students", adminToken(t), dto.StudentCreateRequest{Name: name})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body envelope[dto.StudentResponse]
	decodeResponse(t, resp, &body)
	return body.Data
}

func (s *testServer) enroll(t *testing.T, semesterID uint, payload dto.EnrollRequest) *http.Response {
	t.Helper()
	return s.do(t, http.MethodPost, fmt.Sprintf("/api/admin/semesters/%d/enrollments", semesterID), adminToken(t), payload)
}
