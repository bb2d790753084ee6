package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KigaliAI/youtufy-app/internal/auth"
	"github.com/KigaliAI/youtufy-app/internal/cache"
	"github.com/KigaliAI/youtufy-app/internal/config"
	"github.com/KigaliAI/youtufy-app/internal/db"
	"github.com/KigaliAI/youtufy-app/internal/handler"
	"github.com/KigaliAI/youtufy-app/internal/middleware"
	"github.com/KigaliAI/youtufy-app/internal/pipeline"
	"github.com/KigaliAI/youtufy-app/internal/router"
	"github.com/KigaliAI/youtufy-app/internal/service"
	"github.com/KigaliAI/youtufy-app/internal/store"
	"github.com/KigaliAI/youtufy-app/internal/youtube"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "youtufy-api")
	logger := middleware.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Credential storage: Postgres by default, per-user JSON files for
	// deployments without a database (favorites are disabled there).
	var pool *pgxpool.Pool
	var creds store.CredentialStore
	var favorites store.FavoriteStore

	switch cfg.CredentialBackend {
	case "file":
		fs, err := store.NewFileStore(cfg.CredentialDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open credential directory")
		}
		creds = fs
	default:
		var err error
		pool, err = db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		creds = store.NewPostgresStore(pool)
		favorites = store.NewPostgresFavorites(pool)
	}

	flow := auth.NewFlow(auth.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
	})
	refresher := auth.NewRefresher(flow.OAuth2(), creds)

	platform := youtube.NewClient(youtube.Options{
		BaseURL:        cfg.APIBaseURL,
		Workers:        cfg.EnrichWorkers,
		CallsPerSecond: cfg.CallsPerSecond,
	})

	results := cache.NewRedis(cfg.RedisURL)
	defer results.Close()

	pipe := pipeline.New(creds, refresher, platform, results, pipeline.Options{
		TTL:             cfg.CacheTTL,
		Workers:         cfg.EnrichWorkers,
		ResolveActivity: cfg.ResolveActivity,
	})
	subs := service.NewSubscriptionService(pipe, favorites, creds)

	handler.InitMetrics(pool)

	h := &router.Handlers{
		Auth:          handler.NewAuthHandler(flow, creds, subs),
		Subscriptions: handler.NewSubscriptionsHandler(subs),
		Health:        handler.NewHealthHandler(pool, results.Client()),
	}
	if favorites != nil {
		h.Favorites = handler.NewFavoritesHandler(favorites)
	}

	app := fiber.New(fiber.Config{
		AppName:      "YouTufy API",
		ServerHeader: "YouTufy",
	})
	router.Setup(app, h, cfg.CORSOrigins)

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		_ = app.Shutdown()
	}()

	logger.Info().Str("port", cfg.Port).Str("env", cfg.Environment).
		Str("credential_backend", cfg.CredentialBackend).
		Msg("YouTufy backend starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
