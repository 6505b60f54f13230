package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/service"
	"github.com/noah-isme/maestro-api/internal/utils"
)

// SessionHandler exposes schedule mutations and the attendance ledger.
type SessionHandler struct {
	schedule   service.ScheduleService
	attendance service.AttendanceService
	logger     zerolog.Logger
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(schedule service.ScheduleService, attendance service.AttendanceService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		schedule:   schedule,
		attendance: attendance,
		logger:     logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register attaches session, enrollment and attendance routes to the admin group.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Post("/semesters/:id/sessions", h.createSession)
	router.Post("/semesters/:id/enrollments", h.enroll)
	router.Post("/semesters/:id/attendance", h.markAttendance)
	router.Get("/semesters/:id/attendance", h.attendanceWeek)
	router.Delete("/sessions/:id", h.deleteSession)
	router.Delete("/sessions/:id/students/:studentId", h.removeStudent)
}

func (h *SessionHandler) createSession(c *fiber.Ctx) error {
	semesterID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.SessionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	session, err := h.schedule.CreateSession(c.Context(), semesterID, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to create session")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session created", session)
}

func (h *SessionHandler) enroll(c *fiber.Ctx) error {
	semesterID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.EnrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	session, err := h.schedule.Enroll(c.Context(), semesterID, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to enroll student")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student enrolled", session)
}

func (h *SessionHandler) deleteSession(c *fiber.Ctx) error {
	sessionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.schedule.DeleteSession(c.Context(), sessionID, activityActorFromContext(c)); err != nil {
		return respondError(c, h.logger, err, "failed to delete session")
	}
	return utils.SendSuccess(c, "session deleted", fiber.Map{"id": sessionID})
}

func (h *SessionHandler) removeStudent(c *fiber.Ctx) error {
	sessionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student identifier")
	}

	if err := h.schedule.RemoveStudent(c.Context(), sessionID, studentID, activityActorFromContext(c)); err != nil {
		return respondError(c, h.logger, err, "failed to remove student")
	}
	return utils.SendSuccess(c, "student removed", fiber.Map{"session_id": sessionID, "student_id": studentID})
}

func (h *SessionHandler) markAttendance(c *fiber.Ctx) error {
	semesterID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.AttendanceMarkRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	cell, err := h.attendance.Mark(c.Context(), semesterID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to record attendance")
	}
	return utils.SendSuccess(c, "attendance recorded", cell)
}

func (h *SessionHandler) attendanceWeek(c *fiber.Ctx) error {
	semesterID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	date, err := parseDateQuery(c, "date")
	if err != nil || date == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "date is required")
	}

	week, err := h.attendance.Week(c.Context(), semesterID, *date)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load attendance")
	}
	return utils.SendSuccess(c, "attendance retrieved", week)
}
