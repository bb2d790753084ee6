package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/KigaliAI/youtufy-app/internal/handler"
	"github.com/KigaliAI/youtufy-app/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Auth          *handler.AuthHandler
	Subscriptions *handler.SubscriptionsHandler
	Favorites     *handler.FavoritesHandler
	Health        *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	// Health and metrics (no auth needed)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	api := app.Group("/api")

	// Auth routes. The callback arrives from the authorization server and
	// carries no user header; the state nonce identifies the user.
	authLimit := middleware.NewAuthRateLimiter().Handler()
	api.Get("/auth/login", h.Auth.Login, authLimit, middleware.RequireUser())
	api.Get("/auth/callback", h.Auth.Callback, authLimit)
	api.Post("/auth/logout", h.Auth.Logout, middleware.RequireUser())

	// Subscription routes
	api.Get("/subscriptions", h.Subscriptions.Get,
		middleware.RequireUser(), middleware.NewSubscriptionsRateLimiter().Handler())
	api.Post("/subscriptions/refresh", h.Subscriptions.Refresh,
		middleware.RequireUser(), middleware.NewRefreshRateLimiter().Handler())
	api.Get("/subscriptions/export", h.Subscriptions.Export,
		middleware.RequireUser(), middleware.NewExportRateLimiter().Handler())

	// Favorites routes
	if h.Favorites != nil {
		favLimit := middleware.NewFavoritesRateLimiter().Handler()
		api.Get("/favorites", h.Favorites.List, middleware.RequireUser(), favLimit)
		api.Put("/favorites/:channelId", h.Favorites.Add, middleware.RequireUser(), favLimit)
		api.Delete("/favorites/:channelId", h.Favorites.Remove, middleware.RequireUser(), favLimit)
	}
}
