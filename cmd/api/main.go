package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/maestro-api/internal/billing"
	"github.com/noah-isme/maestro-api/internal/config"
	"github.com/noah-isme/maestro-api/internal/database"
	"github.com/noah-isme/maestro-api/internal/handler"
	"github.com/noah-isme/maestro-api/internal/middleware"
	"github.com/noah-isme/maestro-api/internal/repository"
	"github.com/noah-isme/maestro-api/internal/router"
	"github.com/noah-isme/maestro-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL, cfg.AppName, service.RedisScripts()...)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured; schedule cache and cross-instance locking disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	semesterRepo := repository.NewSemesterRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	applicantRepo := repository.NewApplicantRepository(db)
	incompatibilityRepo := repository.NewIncompatibilityRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()

	activityService := service.NewActivityService(activityRepo, logger)
	scheduleCache := service.NewScheduleCache(redisClient, cfg.ScheduleCacheTTL, logger)
	scheduleFeed := service.NewScheduleFeed(redisClient, natsConn, cfg.ScheduleEventChannel, logger)
	scheduleFeed.Start(feedCtx)
	locker := service.NewSemesterLocker(redisClient, cfg.ScheduleLockTTL, logger)

	scheduleService := service.NewScheduleService(scheduleRepo, semesterRepo, studentRepo, locker, scheduleCache, scheduleFeed, validate, logger)
	semesterService := service.NewSemesterService(semesterRepo, scheduleRepo, attendanceRepo, scheduleCache, activityService, validate, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, semesterRepo, scheduleRepo, leaveRepo, studentRepo, validate, logger)
	leaveService := service.NewLeaveService(leaveRepo, semesterRepo, scheduleRepo, studentRepo, scheduleService, activityService, validate, logger)
	requestService := service.NewTeacherRequestService(requestRepo, scheduleRepo, scheduleService, activityService, validate, logger)
	studentService := service.NewStudentService(studentRepo, scheduleRepo, validate, activityService, logger)
	paymentService := service.NewPaymentService(installmentRepo, studentRepo, billing.Prices{
		Monthly:   cfg.MonthlyPrice,
		Quarterly: cfg.QuarterlyPrice,
		Yearly:    cfg.YearlyPrice,
	}, activityService, validate, logger)
	importService := service.NewImportService(applicantRepo, cfg.ImportMaxBytes, logger)
	incompatibilityService := service.NewIncompatibilityService(incompatibilityRepo, studentRepo, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.ImportMaxBytes) + 64<<10,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		SemesterHandler:        handler.NewSemesterHandler(semesterService, scheduleService, logger),
		SessionHandler:         handler.NewSessionHandler(scheduleService, attendanceService, logger),
		ScheduleFeedHandler:    handler.NewScheduleFeedHandler(scheduleFeed, semesterService, logger),
		StudentHandler:         handler.NewStudentHandler(studentService, scheduleService, attendanceService, logger),
		LeaveHandler:           handler.NewLeaveHandler(leaveService, logger),
		TeacherRequestHandler:  handler.NewTeacherRequestHandler(requestService, logger),
		PaymentHandler:         handler.NewPaymentHandler(paymentService, logger),
		ApplicantHandler:       handler.NewApplicantHandler(importService, logger),
		IncompatibilityHandler: handler.NewIncompatibilityHandler(incompatibilityService, logger),
		ActivityHandler:        handler.NewAdminActivityHandler(activityService, logger),
		JWTMiddleware:          middleware.JWTProtected(cfg.JWTSecret),
		HealthChecks:           dependencyChecks(db, redisClient, natsConn),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Str("env", cfg.AppEnv).Msg("maestro api started")
	waitForShutdown(app)
}

// dependencyChecks marks the schedule store as required. Cache and event bus are optional.
func dependencyChecks(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) []handler.DependencyCheck {
	checks := []handler.DependencyCheck{{
		Name:     "postgres",
		Required: true,
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}

	redisCheck := handler.DependencyCheck{Name: "redis"}
	if redisClient != nil {
		redisCheck.Check = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	natsCheck := handler.DependencyCheck{Name: "nats"}
	if natsConn != nil {
		natsCheck.Check = func(context.Context) error {
			if !natsConn.IsConnected() {
				return fmt.Errorf("connection %s", natsConn.Status())
			}
			return nil
		}
	}

	return append(checks, redisCheck, natsCheck)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
