package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradx-api/internal/config"
	"github.com/noah-isme/gradx-api/internal/database"
	"github.com/noah-isme/gradx-api/internal/handler"
	"github.com/noah-isme/gradx-api/internal/middleware"
	"github.com/noah-isme/gradx-api/internal/repository"
	"github.com/noah-isme/gradx-api/internal/router"
	"github.com/noah-isme/gradx-api/internal/service"
	"github.com/noah-isme/gradx-api/pkg/ai"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	ctx := context.Background()

	store, closeStore, err := openKeyValueStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to open storage")
	}
	defer closeStore()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, notifications stay local")
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	gemini, err := ai.NewGeminiEngine(ctx, ai.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create gemini client")
	}
	defer gemini.Close()

	var conversationalist ai.Conversationalist = gemini
	var planner ai.Planner = gemini
	if cfg.AIProvider == "openai" {
		openAI, err := ai.NewOpenAIEngine(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create openai client")
		}
		conversationalist = openAI
		planner = openAI
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	ledger := service.NewHistoryLedger(store, logger)
	ledger.LoadAll(ctx)

	notifications := service.NewNotificationQueue(cfg.NotificationTTL, natsConn, cfg.RealtimeChannel, logger)
	chat := service.NewChatRefinement(conversationalist, cfg.ChatTimeout, logger)
	session := service.NewGradingSession(
		service.NewArtifactStore(cfg.UploadMaxMB, logger),
		ledger,
		gemini,
		chat,
		notifications,
		validate,
		service.SessionConfig{
			GradingTimeout:       cfg.GradingTimeout,
			ConfirmedStudentName: cfg.ConfirmedStudentName,
		},
		logger,
	)
	lessonPlans := service.NewLessonPlanService(planner, validate, service.DefaultLessonPlanTimeout, logger)
	exporter := service.NewLessonPlanExporter(validate)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		ErrorHandler: middleware.ErrorHandler(logger),
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AccessLog:    cfg.AppEnv == "development",
		AllowOrigins: cfg.CORSAllowOrigins,
	})
	router.Register(app, cfg, router.Dependencies{
		SessionHandler:      handler.NewSessionHandler(session, validate, cfg.UploadMaxMB, logger),
		HistoryHandler:      handler.NewHistoryHandler(session),
		ChatHandler:         handler.NewChatHandler(session, validate, logger),
		NotificationHandler: handler.NewNotificationHandler(notifications, logger, cfg.NotificationKeepAlive),
		LessonPlanHandler:   handler.NewLessonPlanHandler(lessonPlans, exporter, validate, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Str("storage", cfg.StorageDriver).Str("ai_provider", cfg.AIProvider).Msg("gradx api started")
	waitForShutdown(app, logger)
}

// openKeyValueStore opens the configured history backend and returns its closer.
func openKeyValueStore(ctx context.Context, cfg config.Config) (repository.KeyValueStore, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageDriverRedis:
		client, err := database.ConnectRedis(ctx, database.RedisOptions{URL: cfg.RedisURL, PoolSize: cfg.RedisPoolSize, ClientName: cfg.AppName})
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisKeyValueStore(client, cfg.RealtimeChannel), func() { _ = client.Close() }, nil
	default:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closer := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repository.NewGormKeyValueStore(db), closer, nil
	}
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
