package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/maestro-api/internal/billing"
	"github.com/noah-isme/maestro-api/internal/middleware"
	"github.com/noah-isme/maestro-api/internal/schedule"
	"github.com/noah-isme/maestro-api/internal/service"
	"github.com/noah-isme/maestro-api/internal/utils"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var serviceErrors = []errorMapping{
	{service.ErrSemesterNotFound, fiber.StatusNotFound, "semester_not_found"},
	{service.ErrNoActiveSemester, fiber.StatusNotFound, "no_active_semester"},
	{service.ErrSessionNotFound, fiber.StatusNotFound, "session_not_found"},
	{service.ErrStudentNotFound, fiber.StatusNotFound, "student_not_found"},
	{service.ErrLeaveNotFound, fiber.StatusNotFound, "leave_not_found"},
	{service.ErrRequestNotFound, fiber.StatusNotFound, "request_not_found"},
	{service.ErrInstallmentNotFound, fiber.StatusNotFound, "installment_not_found"},
	{service.ErrIncompatibilityNotFound, fiber.StatusNotFound, "incompatibility_not_found"},

	{service.ErrInvalidDuration, fiber.StatusBadRequest, "invalid_duration"},
	{service.ErrUnknownTeacher, fiber.StatusBadRequest, "unknown_teacher"},
	{service.ErrInvalidDateRange, fiber.StatusBadRequest, "invalid_date_range"},
	{service.ErrTransferMismatch, fiber.StatusBadRequest, "transfer_mismatch"},
	{service.ErrInvalidSubstitute, fiber.StatusBadRequest, "invalid_substitute"},
	{service.ErrNotTeacherLeave, fiber.StatusBadRequest, "not_teacher_leave"},
	{service.ErrMissingColumns, fiber.StatusBadRequest, "missing_columns"},
	{service.ErrUnsupportedImport, fiber.StatusBadRequest, "unsupported_import"},
	{schedule.ErrInvalidDay, fiber.StatusBadRequest, "invalid_day"},
	{schedule.ErrInvalidClock, fiber.StatusBadRequest, "invalid_clock"},
	{billing.ErrUnknownPlan, fiber.StatusBadRequest, "unknown_plan"},

	{service.ErrSlotTaken, fiber.StatusConflict, "slot_taken"},
	{service.ErrAlreadyEnrolled, fiber.StatusConflict, "already_enrolled"},
	{service.ErrNotEnrolled, fiber.StatusConflict, "not_enrolled"},
	{service.ErrStudentDeleted, fiber.StatusConflict, "student_deleted"},
	{service.ErrStudentOnLeave, fiber.StatusConflict, "student_on_leave"},
	{service.ErrLeaveNotPending, fiber.StatusConflict, "leave_not_pending"},
	{service.ErrRequestNotPending, fiber.StatusConflict, "request_not_pending"},

	{service.ErrImportTooLarge, fiber.StatusRequestEntityTooLarge, "import_too_large"},
}

// respondError maps service errors onto the response envelope with a stable reason code.
// Unknown errors are logged and reported with the generic fallback message.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	for _, mapping := range serviceErrors {
		if errors.Is(err, mapping.target) {
			return utils.SendErrorCode(c, mapping.status, mapping.code, err.Error())
		}
	}
	if isValidationError(err) {
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	var parseErr *time.ParseError
	if errors.As(err, &parseErr) {
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_date", "invalid date")
	}

	requestLogger(logger, c).Error().Err(err).Msg(fallback)
	return utils.SendErrorCode(c, fiber.StatusInternalServerError, "internal_error", fallback)
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

// parseOptionalUintQuery returns nil when the query parameter is absent.
func parseOptionalUintQuery(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid " + key)
	}
	id := uint(parsed)
	return &id, nil
}

func parseDateQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(schedule.DateLayout, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func pageParams(c *fiber.Ctx, defaultSize, maxSize int) (int, int, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return 0, 0, errors.New("invalid page")
	}
	if page <= 0 {
		page = 1
	}

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return 0, 0, errors.New("invalid page size")
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	} else if pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize, nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

// teacherNameFromContext returns the display name of a caller authenticated with the teacher role.
func teacherNameFromContext(c *fiber.Ctx) string {
	if !strings.EqualFold(userRoleFromContext(c), "teacher") {
		return ""
	}
	name, _ := c.Locals("user_name").(string)
	return strings.TrimSpace(name)
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	return service.ActivityActor{
		ID:   userIDFromContext(c),
		Role: userRoleFromContext(c),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
