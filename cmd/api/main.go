package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/spot-form-api/internal/config"
	"github.com/noah-isme/spot-form-api/internal/database"
	"github.com/noah-isme/spot-form-api/internal/handler"
	"github.com/noah-isme/spot-form-api/internal/middleware"
	"github.com/noah-isme/spot-form-api/internal/models"
	"github.com/noah-isme/spot-form-api/internal/places"
	"github.com/noah-isme/spot-form-api/internal/repository"
	"github.com/noah-isme/spot-form-api/internal/router"
	"github.com/noah-isme/spot-form-api/internal/service"
)

// multipart overhead allowed on top of the image itself
const bodyLimitSlack = 1 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.SubmissionAttempt{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis only backs the submission list cache; the form works without it.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, submission list cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var events service.EventPublisher
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, submission events disabled")
			natsConn = nil
		} else {
			defer natsConn.Drain()
			events = service.NewEventPublisher(natsConn, cfg.NATSSubject, logger)
		}
	}

	placesClient, err := places.New(places.Config{
		BaseURL: cfg.PlacesBaseURL,
		Timeout: cfg.PlacesTimeout,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create places client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	attemptRepo := repository.NewAttemptRepository(db)

	attemptService := service.NewAttemptService(attemptRepo, validate, logger)
	listService := service.NewSubmissionListService(placesClient, cfg.PlacesListMode, redisClient, cfg.SubmissionsCacheTTL, logger)
	imageService := service.NewImageService(cfg.MaxImageBytes, logger)
	sessionService := service.NewFormSessionService(service.FormSessionConfig{
		Places:          placesClient,
		NotificationTTL: cfg.NotificationTTL,
		ReloadDelay:     cfg.ReloadDelay,
		Lists:           listService,
		Attempts:        attemptService,
		Events:          events,
	}, logger)

	submitLimiter := middleware.RateLimit("submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow)
	formHandler := handler.NewFormHandler(sessionService, listService, imageService, validate, submitLimiter, logger)
	submissionHandler := handler.NewSubmissionHandler(listService, attemptService, logger)
	sessionHandler := handler.NewSessionHandler(sessionService, cfg.LoginURL, logger)

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.MaxImageBytes) + bodyLimitSlack,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.AllowOrigins,
		AccessLog:    cfg.AccessLog,
	})
	router.Register(app, cfg, router.Dependencies{
		FormHandler:       formHandler,
		SubmissionHandler: submissionHandler,
		SessionHandler:    sessionHandler,
		Health: handler.HealthOptions{
			ActiveSessions: sessionService.Active,
			Probes:         probes,
		},
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret, cfg.LoginURL),
		Metrics:       true,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, sessionService, logger)
}

func waitForShutdown(app *fiber.App, sessions service.FormSessionService, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Closing the controllers ends every open form websocket.
	sessions.Shutdown()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
