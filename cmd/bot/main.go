package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-bot/internal/api/http"
	"github.com/spec-kit/ticket-bot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/controls"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/platform"
	"github.com/spec-kit/ticket-bot/internal/platform/memory"
	"github.com/spec-kit/ticket-bot/internal/repository"
	"github.com/spec-kit/ticket-bot/internal/service"
	"github.com/spec-kit/ticket-bot/internal/session"
	"github.com/spec-kit/ticket-bot/internal/settings"
	"github.com/spec-kit/ticket-bot/internal/transcript"
	"github.com/spec-kit/ticket-bot/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var client platform.Client
	switch cfg.Platform.Mode {
	case "memory":
		client = memory.New()
		logger.Warn("running against the in-memory platform; no external chat service is connected")
	default:
		logger.Fatal("no platform driver for PLATFORM_MODE; set PLATFORM_MODE=memory for local development",
			zap.String("mode", cfg.Platform.Mode))
	}

	store, err := settings.Open(cfg.Settings.Path, logger)
	if err != nil {
		logger.Fatal("failed to open settings store", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	var guard session.Guard
	if rdb.Ping(ctx) == nil {
		guard = session.NewRedisGuard(rdb.Client)
	} else {
		logger.Warn("redis unavailable; using in-process appeal guard")
		guard = session.NewMemoryGuard()
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics()
	metrics.ObserveEvents(dispatcher)

	var transcriptRepo repository.TranscriptRepository
	if pool := pg.PoolHandle(); pool != nil {
		transcriptRepo = repository.NewTranscriptRepository(pool)
	}
	worker.StartTranscriptArchiver(dispatcher, transcriptRepo, logger)

	inbox := platform.NewInbox()
	transcripts := transcript.NewGenerator(client, 0)

	tickets := service.NewTicketService(service.TicketDependencies{
		Client:      client,
		Settings:    store,
		Transcripts: transcripts,
		Inbox:       inbox,
		Dispatcher:  dispatcher,
		Logger:      logger,
		CloseGrace:  cfg.Tickets.CloseGrace(),
		DeleteDelay: cfg.Tickets.DeleteDelay(),

		CloseReasonTimeout: cfg.Tickets.CloseReasonTimeout(),
		TryoutStepTimeout:  cfg.Tickets.TryoutStepTimeout(),
		TryoutAbortDelay:   cfg.Tickets.TryoutAbortDelay(),
	})
	appeals := service.NewAppealService(service.AppealDependencies{
		Client:          client,
		Inbox:           inbox,
		Settings:        store,
		Guard:           guard,
		Dispatcher:      dispatcher,
		Logger:          logger,
		QuestionTimeout: cfg.Appeals.QuestionTimeout(),
		ConfirmTimeout:  cfg.Appeals.ConfirmTimeout(),
		MinAnswerLength: cfg.Appeals.MinAnswerLength,
	})
	access := service.NewAccessService(service.AccessDependencies{
		Settings:   store,
		Appeals:    appeals,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	reviews := service.NewReviewService(service.ReviewDependencies{
		Client:     client,
		Inbox:      inbox,
		Settings:   store,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	panels := service.NewPanelService(client, store, logger)

	router := controls.NewRouter(logger)
	service.RegisterControls(router, tickets, access, appeals, reviews)

	tokens := auth.NewTokenManager(cfg.Ops.JWTSecret, cfg.Ops.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokens)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb),
		Auth:           handlers.NewAuthHandler(tokens, cfg.Ops.OperatorPasswordHash),
		Workspaces:     handlers.NewWorkspaceHandler(store),
		Panel:          handlers.NewPanelHandler(panels),
		Transcripts:    handlers.NewTranscriptsHandler(transcriptRepo),
		Stats:          handlers.NewStatsHandler(tickets, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
