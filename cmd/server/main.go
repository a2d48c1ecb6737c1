package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/KirkDiggler/gamenight/internal/common/logger"
	"github.com/KirkDiggler/gamenight/internal/config"
	"github.com/KirkDiggler/gamenight/internal/handlers/rest"
	sessionRepo "github.com/KirkDiggler/gamenight/internal/repositories/session"
	sessionService "github.com/KirkDiggler/gamenight/internal/services/session"
)

func main() {
	// A missing .env is fine; the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatal().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logr := logger.New(cfg)

	if err := run(cfg, logr); err != nil {
		logr.Fatal().Err(err).Msg("server exited")
	}

	logr.Info().Msg("server has been shut down")
}

func run(cfg *config.Config, logr zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize repository
	repo, closeRepo, err := newRepository(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRepo.Close(); err != nil {
			logr.Error().Err(err).Msg("failed to close session store")
		}
	}()

	logr.Info().Str("driver", cfg.StoreDriver).Msg("session store ready")

	// Initialize session service
	svc, err := sessionService.New(&sessionService.Config{
		SessionRepo: repo,
		Logger:      &logr,
	})
	if err != nil {
		return fmt.Errorf("failed to create session service: %w", err)
	}

	// Initialize HTTP server
	server, err := rest.New(&rest.Config{
		Addr:           cfg.Addr(),
		SessionService: svc,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         &logr,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	// Wait for interrupt signal or a failed listener
	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return server.Stop(shutdownCtx)
}

// newRepository opens the configured session store. The returned closer
// releases its connection.
func newRepository(cfg *config.Config) (sessionRepo.Repository, io.Closer, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		repo, err := sessionRepo.OpenSQLite(&sessionRepo.SQLiteConfig{
			Path: cfg.SQLitePath,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite session store: %w", err)
		}
		return repo, repo, nil

	default:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		opts.DialTimeout = 5 * time.Second

		redisClient := redis.NewClient(opts)

		repo, err := sessionRepo.NewRedis(&sessionRepo.Config{
			RedisClient: redisClient,
		})
		if err != nil {
			_ = redisClient.Close()
			return nil, nil, fmt.Errorf("failed to create redis session store: %w", err)
		}
		return repo, redisClient, nil
	}
}
