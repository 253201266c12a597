package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/profiles/backend/config"
	"github.com/pageza/profiles/backend/internal/database"
	"github.com/pageza/profiles/backend/internal/logctx"
	"github.com/pageza/profiles/backend/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (overrides CONFIG_PATH)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log := logctx.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.DB.AutoMigrate {
		if err := database.RunMigrations(ctx, db, cfg.DB.MigrationsDir, log); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn("redis unavailable, continuing without login throttling", slog.Any("error", err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	srv, err := server.New(cfg, db, redisClient, log)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errChan; err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
