package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/service"
	"github.com/noah-isme/maestro-api/internal/utils"
)

// LeaveHandler exposes the leave workflow.
type LeaveHandler struct {
	service service.LeaveService
	logger  zerolog.Logger
}

// NewLeaveHandler constructs the handler.
func NewLeaveHandler(service service.LeaveService, logger zerolog.Logger) *LeaveHandler {
	return &LeaveHandler{
		service: service,
		logger:  logger.With().Str("component", "leave_handler").Logger(),
	}
}

// Register attaches the administrative leave routes.
func (h *LeaveHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Get("/:id/transfers", h.transfers)
	router.Post("/:id/approve", h.approve)
	router.Post("/:id/deny", h.deny)
}

// RegisterTeacher attaches the routes teachers may call. Teachers file leaves for themselves.
func (h *LeaveHandler) RegisterTeacher(router fiber.Router) {
	router.Post("", h.createOwn)
}

func (h *LeaveHandler) list(c *fiber.Ctx) error {
	leaves, err := h.service.List(c.Context(), dto.LeaveListRequest{
		Type:   c.Query("type"),
		Status: c.Query("status"),
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list leaves")
	}
	return utils.SendSuccess(c, "leaves retrieved", leaves)
}

func (h *LeaveHandler) create(c *fiber.Ctx) error {
	var payload dto.LeaveCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	leave, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit leave")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "leave submitted", leave)
}

func (h *LeaveHandler) createOwn(c *fiber.Ctx) error {
	var payload dto.LeaveCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if name := teacherNameFromContext(c); name != "" {
		payload.Type = models.LeaveTypeTeacher
		payload.PersonID = 0
		payload.PersonName = name
	}

	leave, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit leave")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "leave submitted", leave)
}

func (h *LeaveHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	leave, err := h.service.Get(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch leave")
	}
	return utils.SendSuccess(c, "leave retrieved", leave)
}

func (h *LeaveHandler) transfers(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	semesterID, err := parseOptionalUintQuery(c, "semester_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	preview, err := h.service.PreviewTransfers(c.Context(), id, semesterID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to preview transfers")
	}
	return utils.SendSuccess(c, "affected students", preview)
}

func (h *LeaveHandler) approve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.LeaveApproveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	leave, err := h.service.Approve(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to approve leave")
	}
	return utils.SendSuccess(c, "leave approved", leave)
}

func (h *LeaveHandler) deny(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	leave, err := h.service.Deny(c.Context(), id, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to deny leave")
	}
	return utils.SendSuccess(c, "leave denied", leave)
}
