package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CircuitReporter exposes the moderation circuit breaker state
type CircuitReporter interface {
	CircuitState() string
}

// HealthCheck reports liveness and the moderation circuit state
func HealthCheck(moderation CircuitReporter) echo.HandlerFunc {
	return func(c echo.Context) error {
		return respond(c, http.StatusOK, "healthy", map[string]string{
			"service":    "farmfeed-api",
			"moderation": moderation.CircuitState(),
		})
	}
}
