package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/service"
	"github.com/noah-isme/maestro-api/internal/utils"
)

// AdminActivityHandler exposes the audit trail of office decisions.
type AdminActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewAdminActivityHandler constructs the handler.
func NewAdminActivityHandler(service service.ActivityService, logger zerolog.Logger) *AdminActivityHandler {
	return &AdminActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_activity_handler").Logger(),
	}
}

// Register attaches activity log routes to the router group.
func (h *AdminActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AdminActivityHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c, 25, 200)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actorIDInt, err := parseQueryInt(c, "actor_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor id")
	}
	entityID, err := parseOptionalUintQuery(c, "entity_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	since, err := parseDateQuery(c, "from")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid from date")
	}
	until, err := parseDateQuery(c, "to")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid to date")
	}
	if until != nil {
		next := until.AddDate(0, 0, 1)
		until = &next
	}

	outcome := strings.ToLower(strings.TrimSpace(c.Query("outcome")))
	if outcome != "" && outcome != models.StatusApproved && outcome != models.StatusDenied {
		return utils.SendError(c, fiber.StatusBadRequest, "outcome must be approved or denied")
	}

	req := dto.AdminActivityListRequest{
		Page:          page,
		PageSize:      pageSize,
		Action:        c.Query("action"),
		EntityType:    c.Query("entity_type"),
		Outcome:       outcome,
		CorrelationID: c.Query("correlation_id"),
		Since:         since,
		Until:         until,
	}
	if actorIDInt > 0 {
		req.ActorID = uint(actorIDInt)
	}
	if entityID != nil {
		req.EntityID = *entityID
	}

	response, err := h.service.List(c.Context(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activity logs")
	}
	return utils.SendSuccess(c, "activity logs", response)
}
