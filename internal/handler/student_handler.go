package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/service"
	"github.com/noah-isme/maestro-api/internal/utils"
)

// StudentHandler wires student profile endpoints.
type StudentHandler struct {
	service    service.StudentService
	schedule   service.ScheduleService
	attendance service.AttendanceService
	logger     zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(students service.StudentService, schedule service.ScheduleService, attendance service.AttendanceService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service:    students,
		schedule:   schedule,
		attendance: attendance,
		logger:     logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student routes to the router group.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.softDelete)
	router.Delete("/:id/purge", h.hardDelete)
	router.Get("/:id/enrollments", h.enrollments)
	router.Get("/:id/attendance", h.attendanceHistory)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c, 20, 100)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	req := dto.StudentListRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Level:    c.Query("level"),
		Sort:     c.Query("sort"),
	}

	response, err := h.service.List(c.Context(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list students")
	}
	return utils.SendSuccess(c, "students retrieved", response)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create student")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", student)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	student, err := h.service.Get(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch student")
	}
	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.StudentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.Update(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update student")
	}
	return utils.SendSuccess(c, "student updated", student)
}

func (h *StudentHandler) softDelete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.SoftDelete(c.Context(), id, activityActorFromContext(c)); err != nil {
		return respondError(c, h.logger, err, "failed to delete student")
	}
	return utils.SendSuccess(c, "student deleted", fiber.Map{"id": id})
}

func (h *StudentHandler) hardDelete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.HardDelete(c.Context(), id, activityActorFromContext(c)); err != nil {
		return respondError(c, h.logger, err, "failed to purge student")
	}
	return utils.SendSuccess(c, "student purged", fiber.Map{"id": id})
}

func (h *StudentHandler) enrollments(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	semesterID, err := parseOptionalUintQuery(c, "semester_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	enrollments, err := h.schedule.StudentEnrollments(c.Context(), id, semesterID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list enrollments")
	}
	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *StudentHandler) attendanceHistory(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	semesterID, err := parseOptionalUintQuery(c, "semester_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	history, err := h.attendance.StudentHistory(c.Context(), id, semesterID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list attendance")
	}
	return utils.SendSuccess(c, "attendance retrieved", history)
}
