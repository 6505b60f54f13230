package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/service"
	"github.com/noah-isme/maestro-api/internal/utils"
)

// ApplicantHandler handles CSV imports and the applicant pool.
type ApplicantHandler struct {
	service service.ImportService
	logger  zerolog.Logger
}

// NewApplicantHandler constructs an applicant handler.
func NewApplicantHandler(service service.ImportService, logger zerolog.Logger) *ApplicantHandler {
	return &ApplicantHandler{
		service: service,
		logger:  logger.With().Str("component", "applicant_handler").Logger(),
	}
}

// Register wires applicant routes.
func (h *ApplicantHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/import", h.importCSV)
}

func (h *ApplicantHandler) importCSV(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	file, err := header.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read file")
	}
	defer file.Close()

	result, err := h.service.ImportApplicants(c.Context(), file)
	if err != nil {
		return respondError(c, h.logger, err, "import failed")
	}

	requestLogger(h.logger, c).Info().Str("filename", header.Filename).Int("rows", result.Imported).Msg("applicant import finished")
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "applicants imported", result)
}

func (h *ApplicantHandler) list(c *fiber.Ctx) error {
	applicants, err := h.service.ListApplicants(c.Context(), c.Query("status"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list applicants")
	}
	return utils.SendSuccess(c, "applicants retrieved", applicants)
}

// IncompatibilityHandler manages exclusion rules between students.
type IncompatibilityHandler struct {
	service service.IncompatibilityService
	logger  zerolog.Logger
}

// NewIncompatibilityHandler constructs the handler.
func NewIncompatibilityHandler(service service.IncompatibilityService, logger zerolog.Logger) *IncompatibilityHandler {
	return &IncompatibilityHandler{
		service: service,
		logger:  logger.With().Str("component", "incompatibility_handler").Logger(),
	}
}

// Register wires exclusion rule routes.
func (h *IncompatibilityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Delete("/:id", h.delete)
}

func (h *IncompatibilityHandler) list(c *fiber.Ctx) error {
	rules, err := h.service.List(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "failed to list incompatibilities")
	}
	return utils.SendSuccess(c, "incompatibilities retrieved", rules)
}

func (h *IncompatibilityHandler) create(c *fiber.Ctx) error {
	var payload dto.IncompatibilityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	rule, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create incompatibility")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "incompatibility created", rule)
}

func (h *IncompatibilityHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete incompatibility")
	}
	return utils.SendSuccess(c, "incompatibility deleted", fiber.Map{"id": id})
}
