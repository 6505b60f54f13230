package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/maestro-api/internal/config"
	"github.com/noah-isme/maestro-api/internal/utils"
)

const dependencyCheckTimeout = 2 * time.Second

// Component states reported by the health endpoint.
const (
	ComponentUp       = "up"
	ComponentDown     = "down"
	ComponentDisabled = "disabled"
)

// DependencyCheck pings one backing service. A nil Check marks the dependency as not configured.
// A Required dependency that is down makes the whole API unavailable.
type DependencyCheck struct {
	Name     string
	Required bool
	Check    func(ctx context.Context) error
}

// ComponentHealth is the state of a single dependency.
type ComponentHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	Components  []ComponentHealth `json:"components,omitempty"`
}

// HealthCheck reports whether the schedule store, cache and event bus are reachable.
// Status is "ok", "degraded" when an optional dependency is down, or "unavailable" with 503
// when a required one is.
func HealthCheck(cfg config.Config, checks ...DependencyCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		requiredDown := false
		for _, check := range checks {
			component := runDependencyCheck(c.UserContext(), check)
			if component.Status == ComponentDown {
				if check.Required {
					requiredDown = true
				} else if payload.Status == "ok" {
					payload.Status = "degraded"
				}
			}
			payload.Components = append(payload.Components, component)
		}

		if requiredDown {
			payload.Status = "unavailable"
			return utils.SendFailure(c, fiber.StatusServiceUnavailable, "dependency_unavailable", "service unavailable", payload)
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}

func runDependencyCheck(parent context.Context, check DependencyCheck) ComponentHealth {
	component := ComponentHealth{Name: check.Name, Status: ComponentUp}
	if check.Check == nil {
		component.Status = ComponentDisabled
		return component
	}

	ctx, cancel := context.WithTimeout(parent, dependencyCheckTimeout)
	defer cancel()

	if err := check.Check(ctx); err != nil {
		component.Status = ComponentDown
		component.Error = err.Error()
	}
	return component
}
