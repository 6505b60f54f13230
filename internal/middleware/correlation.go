package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/maestro-api/internal/observability"
)

const correlationLocal = "correlation_id"

// CorrelationID tags every request with an identifier taken from X-Correlation-ID or
// X-Request-ID. Browsers cannot set headers on websocket upgrades, so schedule feed requests may
// pass it as the correlation_id query parameter instead. Missing or malformed values are replaced
// with a fresh UUID.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := observability.NormalizeCorrelationID(c.Get(observability.CorrelationHeader))
		if id == "" {
			id = observability.NormalizeCorrelationID(c.Get("X-Request-ID"))
		}
		if id == "" && strings.HasSuffix(c.Path(), "/feed") {
			id = observability.NormalizeCorrelationID(c.Query("correlation_id"))
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(correlationLocal, id)
		c.Set(observability.CorrelationHeader, id)
		observability.BindCorrelationID(c, id)

		return c.Next()
	}
}

// GetCorrelationID returns the correlation identifier bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(correlationLocal).(string); ok && id != "" {
		return id
	}
	return observability.CorrelationID(c.UserContext())
}
