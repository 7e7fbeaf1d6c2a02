package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/access-gateway/internal/api/http"
	"github.com/spec-kit/access-gateway/internal/api/http/handlers"
	"github.com/spec-kit/access-gateway/internal/auth"
	"github.com/spec-kit/access-gateway/internal/config"
	"github.com/spec-kit/access-gateway/internal/guard"
	"github.com/spec-kit/access-gateway/internal/observability"
	"github.com/spec-kit/access-gateway/internal/persistence"
	"github.com/spec-kit/access-gateway/internal/repository"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.Enabled() {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var redis *persistence.Redis
	if cfg.Auth.RevocationEnabled {
		redis = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
	}

	tokens, err := buildTokenSource(cfg, pg, redis)
	if err != nil {
		logger.Fatal("failed to init identity provider", zap.Error(err))
	}

	accessGuard, err := guard.New(cfg.Guard, tokens, logger.Named("guard"))
	if err != nil {
		logger.Fatal("failed to init access guard", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Upstream: handlers.NewUpstreamHandler(cfg.Upstream.URL),
		Guard:    httptransport.GuardMiddleware(accessGuard, guard.NewMatcher(cfg.Guard.Matcher), cfg.Auth.SessionCookie, logger, metrics),
		Metrics:  metrics,
	})

	go func() {
		logger.Info("gateway listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("upstream", cfg.Upstream.URL),
			zap.String("session_strategy", cfg.Auth.SessionStrategy),
		)
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func buildTokenSource(cfg *config.Config, pg *persistence.Postgres, redis *persistence.Redis) (guard.TokenSource, error) {
	if cfg.Auth.SessionStrategy == config.SessionStrategyDatabase {
		return auth.NewDatabaseProvider(repository.NewSessionRepository(pg.PoolHandle())), nil
	}

	manager, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		return nil, err
	}
	var revocations auth.RevocationChecker
	if redis.Enabled() {
		revocations = repository.NewRevocationRepository(redis.Client)
	}
	return auth.NewJWTProvider(manager, revocations), nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
