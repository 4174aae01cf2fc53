package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tarhal-app/backend/pkg/config"
)

// HealthHandler reports process and datastore liveness
type HealthHandler struct {
	db *config.DB
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *config.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// RegisterHealthRoutes registers the health endpoint
func (h *HealthHandler) RegisterHealthRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
}

// Health pings the datastores and reports their status. The endpoint answers
// 200 as long as the process is up; per-store status is in the body.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	status := echo.Map{"status": "ok", "time": time.Now().UTC()}

	if h.db.Mongo != nil {
		if err := h.db.Mongo.Ping(ctx, nil); err != nil {
			status["mongo"] = "down"
		} else {
			status["mongo"] = "up"
		}
	}
	if h.db.Postgres != nil {
		if sqlDB, err := h.db.Postgres.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["postgres"] = "down"
		} else {
			status["postgres"] = "up"
		}
	}
	if h.db.Redis != nil {
		if err := h.db.Redis.Ping(ctx).Err(); err != nil {
			status["redis"] = "down"
		} else {
			status["redis"] = "up"
		}
	}
	return c.JSON(http.StatusOK, status)
}
