package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthChecker verifies a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// RegisterHealthRoutes registers health check endpoints.
// these are public and don't require authentication.
func RegisterHealthRoutes(e *echo.Echo, db HealthChecker) {
	e.GET("/health", healthHandler)
	e.GET("/ready", readyHandler(db))
}

// healthHandler returns the basic health status.
// used for liveness probes.
func healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "scoreboard",
	})
}

// readyHandler returns the readiness status.
// used for readiness probes; checks database connectivity.
func readyHandler(db HealthChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()

			if err := db.HealthCheck(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, HealthResponse{
					Status:  "unavailable",
					Service: "scoreboard",
				})
			}
		}

		return c.JSON(http.StatusOK, HealthResponse{
			Status:  "ready",
			Service: "scoreboard",
		})
	}
}
