package observability

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CorrelationHeader carries the request identifier that is stamped on schedule events and
// activity log entries.
const CorrelationHeader = "X-Correlation-ID"

const maxCorrelationLength = 64

type correlationKey struct{}

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}

// BindCorrelationID attaches id to both the request's fasthttp context, which handlers pass to
// services, and its user context.
func BindCorrelationID(c *fiber.Ctx, id string) {
	id = NormalizeCorrelationID(id)
	if id == "" {
		return
	}
	c.Context().SetUserValue(correlationKey{}, id)
	c.SetUserContext(context.WithValue(c.UserContext(), correlationKey{}, id))
}

// WithCorrelationID returns a copy of ctx carrying id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id = NormalizeCorrelationID(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the identifier bound to ctx, or an empty string.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// NormalizeCorrelationID trims id and rejects values longer than 64 characters or containing
// anything other than letters, digits, '.', '_', ':' and '-'.
func NormalizeCorrelationID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxCorrelationLength {
		return ""
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == ':', r == '-':
		default:
			return ""
		}
	}
	return id
}
