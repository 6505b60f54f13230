package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/service"
	"github.com/noah-isme/maestro-api/internal/utils"
)

// TeacherRequestHandler exposes teacher change requests.
type TeacherRequestHandler struct {
	service service.TeacherRequestService
	logger  zerolog.Logger
}

// NewTeacherRequestHandler constructs the handler.
func NewTeacherRequestHandler(service service.TeacherRequestService, logger zerolog.Logger) *TeacherRequestHandler {
	return &TeacherRequestHandler{
		service: service,
		logger:  logger.With().Str("component", "teacher_request_handler").Logger(),
	}
}

// Register attaches the review routes of the admin group.
func (h *TeacherRequestHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/:id/approve", h.approve)
	router.Post("/:id/deny", h.deny)
}

// RegisterTeacher attaches the submission routes of the teacher group.
func (h *TeacherRequestHandler) RegisterTeacher(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
}

func (h *TeacherRequestHandler) list(c *fiber.Ctx) error {
	teacher := c.Query("teacher")
	if name := teacherNameFromContext(c); name != "" {
		teacher = name
	}

	requests, err := h.service.List(c.Context(), dto.TeacherRequestListRequest{
		Status:  c.Query("status"),
		Teacher: teacher,
		Type:    c.Query("type"),
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list requests")
	}
	return utils.SendSuccess(c, "requests retrieved", requests)
}

func (h *TeacherRequestHandler) create(c *fiber.Ctx) error {
	var payload dto.TeacherRequestCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if name := teacherNameFromContext(c); name != "" {
		payload.Teacher = name
	}

	request, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit request")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "request submitted", request)
}

func (h *TeacherRequestHandler) approve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	request, err := h.service.Approve(c.Context(), id, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to approve request")
	}
	return utils.SendSuccess(c, "request approved", request)
}

func (h *TeacherRequestHandler) deny(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	request, err := h.service.Deny(c.Context(), id, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to deny request")
	}
	return utils.SendSuccess(c, "request denied", request)
}
