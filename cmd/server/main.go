package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"bizcards/docs"
	"bizcards/internal/auth"
	"bizcards/internal/cache"
	"bizcards/internal/config"
	"bizcards/internal/db"
	"bizcards/internal/handler"
	"bizcards/internal/policy"
	"bizcards/internal/report"
	"bizcards/internal/repository"
	"bizcards/internal/router"
	"bizcards/internal/schema"
	"bizcards/internal/service"
)

// @title Business Cards API
// @version 1.0
// @description Directory of user accounts and business cards with token based authorization.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	if err := db.Migrate(gormDB, cfg.ResetDB, logger); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.CacheTTL)
	defer cacheClient.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, serving without cache", "addr", cfg.RedisAddr, "error", err)
	}
	cancel()

	reporter := report.New(cfg.SentryDSN, cfg.SentryEnvironment, logger)
	defer reporter.Close()

	schemas, err := schema.Load()
	if err != nil {
		return err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB, logger)
	cardRepo := repository.NewCardRepository(gormDB, logger)

	// Initialize auth components
	hasher := auth.NewPasswordHasher(auth.DefaultHashCost)
	codec := auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)
	engine := policy.NewEngine(policy.Options{AllowAdminSignup: cfg.AllowAdminSignup})

	// Initialize services
	userService := service.NewUserService(userRepo, hasher, codec, engine, cacheClient)
	cardService := service.NewCardService(cardRepo, engine, cacheClient)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userService, schemas, logger, reporter)
	cardHandler := handler.NewCardHandler(cardService, schemas, logger, reporter)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, logger, codec, userHandler, cardHandler)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	logger.Info("swagger documentation available", "url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      e,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down gracefully")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
		close(done)
	}()

	logger.Info("starting server", "addr", srv.Addr, "driver", cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-done
	logger.Info("graceful shutdown complete")
	return nil
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
