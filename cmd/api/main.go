package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/emr-service/internal/api/http"
	"github.com/spec-kit/emr-service/internal/api/http/handlers"
	"github.com/spec-kit/emr-service/internal/auth"
	"github.com/spec-kit/emr-service/internal/config"
	"github.com/spec-kit/emr-service/internal/events"
	"github.com/spec-kit/emr-service/internal/observability"
	"github.com/spec-kit/emr-service/internal/persistence"
	"github.com/spec-kit/emr-service/internal/repository"
	"github.com/spec-kit/emr-service/internal/service"
	"github.com/spec-kit/emr-service/internal/worker"
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

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing, cfg.App.Name, cfg.App.Version, logger)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, persistence.MigrationFiles(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger, events.WithFailureHook(func(t events.EventType) {
		metrics.RecordEventHandlerFailure(string(t))
	}))

	userRepo := repository.NewUserRepository(pool)
	logRepo := repository.NewActivityLogRepository(pool)
	attemptRepo := repository.NewLoginAttemptRepository(redis.Client, cfg.Auth.LoginAttemptWindow())
	credentialStore := repository.NewCredentialStore(userRepo)

	worker.StartLoginAuditWorker(service.NewLoginAuditService(dispatcher, userRepo, logRepo, logger))
	if cfg.Kafka.Enabled() {
		writer := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.LoginTopic, cfg.Kafka.WriteTimeout(), logger)
		exporter := events.NewKafkaExporter(writer, logger)
		exporter.Register(dispatcher)
		defer exporter.Close() //nolint:errcheck
	}

	authService, err := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Store:      credentialStore,
		Attempts:   attemptRepo,
		Dispatcher: dispatcher,
		Recorder:   metrics,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}
	resolver := auth.NewResolver(authService.TokenCodec(), credentialStore, logger)
	authMiddleware := auth.NewAuthMiddleware(resolver, metrics)

	userService := service.NewUserService(userRepo, authService.Hasher())
	activityService := service.NewActivityService(userRepo, logRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Activity:       handlers.NewActivityHandler(activityService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
