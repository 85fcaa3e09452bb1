package api

import (
	"log/slog"
	"net/http"

	"geo-alert/internal/api/middleware"
	"geo-alert/internal/modules/monitor"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all the API endpoints for the application. Operator
// routes are only registered when jwtSecret is set.
func SetupRoutes(
	e *echo.Echo,
	monitorHandler *monitor.Handler,
	metricsHandler http.Handler,
	jwtSecret string,
	logger *slog.Logger,
) {
	// --- Public Routes ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Worker safety-zone monitor"})
	})
	e.GET("/healthz", monitorHandler.Health)
	e.GET("/metrics", echo.WrapHandler(metricsHandler))

	if jwtSecret == "" {
		logger.Warn("JWT_SECRET not set, operator API disabled")
		return
	}

	// --- Operator Routes ---
	operatorGroup := e.Group("/api", middleware.JWTMAuth(jwtSecret, logger))
	monitor.RegisterRoutes(operatorGroup, monitorHandler)
}
