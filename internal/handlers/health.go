package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"example.com/shopping-planner/backend/internal/shopping"
)

const healthTimeout = 2 * time.Second

type HealthResponse struct {
	Status  string `json:"status"`
	Catalog string `json:"catalog"`
}

// Health возвращает статус сервиса и доступность каталога.
func Health(catalog shopping.Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if catalog == nil {
			return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Catalog: "unknown"})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		if err := catalog.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Catalog: "unavailable"})
		}

		return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Catalog: "ok"})
	}
}
