package handlers

import (
	"context"

	xhttp "github.com/nimasrn/hero-points/pkg/http"
	"github.com/nimasrn/hero-points/pkg/logger"
)

type HealthService interface {
	Get(ctx context.Context) (map[string]string, error)
}

type HealthHandler struct {
	svc HealthService
}

func RegisterHealthRoutes(e *xhttp.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(svc HealthService) *HealthHandler {
	return &HealthHandler{
		svc: svc,
	}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	deps, err := h.svc.Get(ctx)
	resp := map[string]any{"status": "ok", "deps": deps}
	if err != nil {
		logger.Warn("health check failed", "error", err)
		resp["status"] = "down"
		writeJSON(ctx, xhttp.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, resp)
}
