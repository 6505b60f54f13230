package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/service"
	"github.com/noah-isme/maestro-api/internal/utils"
)

// SemesterHandler exposes semester management and the schedule projection.
type SemesterHandler struct {
	service  service.SemesterService
	schedule service.ScheduleService
	logger   zerolog.Logger
}

// NewSemesterHandler constructs the handler.
func NewSemesterHandler(semesters service.SemesterService, schedule service.ScheduleService, logger zerolog.Logger) *SemesterHandler {
	return &SemesterHandler{
		service:  semesters,
		schedule: schedule,
		logger:   logger.With().Str("component", "semester_handler").Logger(),
	}
}

// Register attaches semester routes to the router group.
func (h *SemesterHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/active", h.active)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Post("/:id/activate", h.activate)
	router.Get("/:id/schedule", h.projection)
	router.Get("/:id/events", h.events)
}

func (h *SemesterHandler) list(c *fiber.Ctx) error {
	semesters, err := h.service.List(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "failed to list semesters")
	}
	return utils.SendSuccess(c, "semesters retrieved", semesters)
}

func (h *SemesterHandler) create(c *fiber.Ctx) error {
	var payload dto.SemesterCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	semester, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create semester")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "semester created", semester)
}

func (h *SemesterHandler) active(c *fiber.Ctx) error {
	semester, err := h.service.Active(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch active semester")
	}
	return utils.SendSuccess(c, "active semester", semester)
}

func (h *SemesterHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	semester, err := h.service.Get(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch semester")
	}
	return utils.SendSuccess(c, "semester retrieved", semester)
}

func (h *SemesterHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.SemesterUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	semester, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update semester")
	}
	return utils.SendSuccess(c, "semester updated", semester)
}

func (h *SemesterHandler) activate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	semester, err := h.service.Activate(c.Context(), id, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to activate semester")
	}
	return utils.SendSuccess(c, "semester activated", semester)
}

func (h *SemesterHandler) projection(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	week, err := parseDateQuery(c, "week")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid week")
	}

	projection, err := h.service.Schedule(c.Context(), id, week)
	if err != nil {
		return respondError(c, h.logger, err, "failed to build schedule")
	}
	return utils.SendSuccess(c, "schedule retrieved", projection)
}

func (h *SemesterHandler) events(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	events, err := h.schedule.Events(c.Context(), id, limit)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list schedule events")
	}
	return utils.SendSuccess(c, "schedule events", events)
}
