package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/shopping-planner/backend/internal/cache"
	"example.com/shopping-planner/backend/internal/config"
	"example.com/shopping-planner/backend/internal/database"
	"example.com/shopping-planner/backend/internal/events"
	"example.com/shopping-planner/backend/internal/server"
)

func main() {
	ensureEnvFile()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	deps := server.Deps{DB: db, Publisher: events.NopPublisher{}}

	if cfg.Cache.Enabled() {
		rdb, err := cache.Open(ctx, cfg.Cache)
		if err != nil {
			logger.Warn("catalog cache disabled", slog.String("error", err.Error()))
		} else {
			defer rdb.Close()
			deps.Redis = rdb
			logger.Info("catalog cache enabled", slog.String("addr", cfg.Cache.Addr), slog.Duration("ttl", cfg.Cache.TTL))
		}
	}

	if cfg.Events.Enabled() {
		deps.Publisher = events.NewKafkaPublisher(cfg.Events, logger)
		logger.Info("kafka events enabled", slog.String("topic", cfg.Events.Topic), slog.Any("brokers", cfg.Events.Brokers))
	}
	defer func() {
		if err := deps.Publisher.Close(); err != nil {
			logger.Error("close event publisher failed", slog.String("error", err.Error()))
		}
	}()

	e := server.New(cfg, logger, deps)
	httpServer := server.NewHTTPServer(cfg.Server, e)

	go func() {
		logger.Info("http server started", slog.String("addr", httpServer.Addr))
		if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownSignal

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}

func ensureEnvFile() {
	if os.Getenv("ENV_FILE") != "" {
		return
	}

	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = os.Setenv("ENV_FILE", path)
			return
		}
	}
}
