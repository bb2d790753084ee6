package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/KigaliAI/youtufy-app/internal/auth"
	"github.com/KigaliAI/youtufy-app/internal/middleware"
	"github.com/KigaliAI/youtufy-app/internal/service"
	"github.com/KigaliAI/youtufy-app/internal/youtube"
)

type SubscriptionsHandler struct {
	svc *service.SubscriptionService
}

func NewSubscriptionsHandler(svc *service.SubscriptionService) *SubscriptionsHandler {
	return &SubscriptionsHandler{svc: svc}
}

// Get handles GET /api/subscriptions?favorites=only&refresh=true
func (h *SubscriptionsHandler) Get(c fiber.Ctx) error {
	userID := middleware.UserID(c)

	opts := service.ListOptions{
		Force:         c.Query("refresh") == "true",
		FavoritesOnly: c.Query("favorites") == "only",
	}

	resp, err := h.svc.List(c.Context(), userID, opts)
	if err != nil {
		return pipelineError(c, err)
	}

	if resp.Cached {
		Metrics.CacheHits.Inc()
	} else {
		Metrics.CacheMisses.Inc()
		Metrics.PipelineRuns.WithLabelValues(partialLabel(resp.Partial)).Inc()
	}

	return c.JSON(resp)
}

// Refresh handles POST /api/subscriptions/refresh — the operator-triggered
// cache bypass. The result cache entry is invalidated and repopulated from a
// full pipeline run.
func (h *SubscriptionsHandler) Refresh(c fiber.Ctx) error {
	userID := middleware.UserID(c)

	resp, err := h.svc.Refresh(c.Context(), userID)
	if err != nil {
		return pipelineError(c, err)
	}
	Metrics.PipelineRuns.WithLabelValues(partialLabel(resp.Partial)).Inc()
	return c.JSON(resp)
}

// Export handles GET /api/subscriptions/export — CSV download of the current
// aggregation result.
func (h *SubscriptionsHandler) Export(c fiber.Ctx) error {
	userID := middleware.UserID(c)

	data, name, err := h.svc.ExportCSV(c.Context(), userID)
	if err != nil {
		return pipelineError(c, err)
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", "attachment; filename="+name)
	return c.Send(data)
}

// pipelineError maps the pipeline error taxonomy onto HTTP responses:
// authentication failures prompt re-login, quota exhaustion prompts "try
// again later", upstream unavailability prompts a retry affordance.
func pipelineError(c fiber.Ctx, err error) error {
	var exchErr *auth.ExchangeError
	if errors.As(err, &exchErr) {
		if exchErr.Kind == auth.ExchangeCodeInvalid {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "CODE_INVALID",
				"Authorization code expired or already used. Restart the sign-in flow.")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "OAUTH_CONFIG",
			"OAuth client misconfigured. Contact the operator.")
	}

	if errors.Is(err, auth.ErrAuthExpired) {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "AUTH_REQUIRED",
			"Google authorization expired. Sign in again.")
	}

	var apiErr *youtube.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Kind == youtube.KindRateLimited {
			return middleware.ErrorResponse(c, fiber.StatusTooManyRequests, "QUOTA_EXCEEDED",
				"Platform API quota exhausted. Try again later.")
		}
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "UPSTREAM_UNAVAILABLE",
			"The platform API is unavailable. Try again shortly.")
	}

	return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR",
		"Failed to load subscriptions")
}

func partialLabel(partial bool) string {
	if partial {
		return "partial"
	}
	return "complete"
}
