package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/service"
	"github.com/noah-isme/maestro-api/internal/utils"
)

// PaymentHandler exposes prices, plans and installment bookkeeping.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("component", "payment_handler").Logger(),
	}
}

// Register attaches payment routes to the admin group.
func (h *PaymentHandler) Register(router fiber.Router) {
	router.Get("/payments/prices", h.prices)
	router.Put("/payments/prices", h.updatePrices)
	router.Get("/payments/overdue", h.overdue)
	router.Get("/students/:id/installments", h.installments)
	router.Post("/students/:id/plan", h.assignPlan)
	router.Post("/students/:id/due-day", h.changeDueDay)
	router.Post("/installments/:id/pay", h.markPaid)
	router.Post("/installments/:id/unpay", h.markUnpaid)
	router.Post("/installments/:id/grace", h.gracePeriod)
}

func (h *PaymentHandler) prices(c *fiber.Ctx) error {
	prices, err := h.service.Prices(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load prices")
	}
	return utils.SendSuccess(c, "prices retrieved", prices)
}

func (h *PaymentHandler) updatePrices(c *fiber.Ctx) error {
	var payload dto.PricesRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	prices, err := h.service.UpdatePrices(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update prices")
	}
	return utils.SendSuccess(c, "prices updated", prices)
}

func (h *PaymentHandler) overdue(c *fiber.Ctx) error {
	installments, err := h.service.Overdue(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "failed to list overdue installments")
	}
	return utils.SendSuccess(c, "overdue installments", installments)
}

func (h *PaymentHandler) installments(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	installments, err := h.service.Installments(c.Context(), studentID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list installments")
	}
	return utils.SendSuccess(c, "installments retrieved", installments)
}

func (h *PaymentHandler) assignPlan(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.AssignPlanRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	installments, err := h.service.AssignPlan(c.Context(), studentID, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to assign plan")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "plan assigned", installments)
}

func (h *PaymentHandler) changeDueDay(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.DueDayRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	installments, err := h.service.ChangeDueDay(c.Context(), studentID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to change due day")
	}
	return utils.SendSuccess(c, "due day changed", installments)
}

func (h *PaymentHandler) markPaid(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.MarkPaidRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	installment, err := h.service.MarkPaid(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to record payment")
	}
	return utils.SendSuccess(c, "installment paid", installment)
}

func (h *PaymentHandler) markUnpaid(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	installment, err := h.service.MarkUnpaid(c.Context(), id, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to reset payment")
	}
	return utils.SendSuccess(c, "installment unpaid", installment)
}

func (h *PaymentHandler) gracePeriod(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.GracePeriodRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	installment, err := h.service.SetGracePeriod(c.Context(), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to set grace period")
	}
	return utils.SendSuccess(c, "grace period updated", installment)
}
