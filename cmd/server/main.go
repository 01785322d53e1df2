package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/searchblog/blog-auth/docs" // swagger docs

	"github.com/searchblog/blog-auth/internal/api"
	"github.com/searchblog/blog-auth/internal/core/ports"
	"github.com/searchblog/blog-auth/internal/core/service"
	"github.com/searchblog/blog-auth/internal/infrastructure/config"
	mongostore "github.com/searchblog/blog-auth/internal/infrastructure/db/mongo"
	redisstore "github.com/searchblog/blog-auth/internal/infrastructure/db/redis"
	"github.com/searchblog/blog-auth/internal/infrastructure/db/sqlite"
	"github.com/searchblog/blog-auth/internal/infrastructure/http/handlers"
	"github.com/searchblog/blog-auth/internal/infrastructure/queue"
	"github.com/searchblog/blog-auth/internal/infrastructure/security"
	"github.com/searchblog/blog-auth/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title Blog Auth API
// @version 1.0
// @description Account signup, login and JWT bearer authentication for the blog.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// Init is a no-op when run already built the logger.
		log := logger.Init(logger.Options{})
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "blog-auth",
	})

	repo, storeCheck, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	log.Info().Str("driver", cfg.Storage.Driver).Msg("user store ready")

	checks := []handlers.HealthCheck{storeCheck}

	// A typed nil must not reach the services, so the interface stays unset
	// when Redis is disabled.
	var denylist ports.TokenDenylist
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		denylist = redisstore.NewTokenDenylist(rdb)
		checks = append(checks, redisstore.NewHealthCheck(rdb))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("token denylist enabled")
	} else {
		log.Warn().Msg("REDIS_ADDR empty, logout will not revoke tokens")
	}

	pool := queue.NewHashPool(cfg.Security.HashWorkers, cfg.Security.BcryptCost, logger.Component("hash_pool"))
	pool.Start(ctx)

	tokens, err := security.NewTokenProvider(cfg.JWT.Secret, cfg.JWT.TokenValidity(), logger.Component("token_provider"))
	if err != nil {
		return err
	}

	users := service.NewUserService(repo, pool, cfg.Security.OpTimeout, logger.Component("user_service"))
	auth := service.NewAuthService(repo, pool, tokens, denylist, cfg.Security.OpTimeout, logger.Component("auth_service"))

	e := api.NewRouter(api.Dependencies{
		Users:    users,
		Auth:     auth,
		Tokens:   tokens,
		Denylist: denylist,
		Checks:   checks,
		Log:      logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore connects the configured user store and returns its readiness check.
func openStore(ctx context.Context, cfg *config.Config) (ports.UserRepository, handlers.HealthCheck, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLite.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return sqlite.NewUserRepository(db), sqlite.NewHealthCheck(db), func() { _ = db.Close() }, nil

	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}

		repo := mongostore.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		return repo, mongostore.NewHealthCheck(db), closeFn, nil
	}
}
