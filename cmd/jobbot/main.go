package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"job-bot-go/internal/bot"
	"job-bot-go/internal/config"
	"job-bot-go/internal/jsearch"
	"job-bot-go/internal/pager"
	"job-bot-go/internal/recent"
	"job-bot-go/internal/scheduler"
	"job-bot-go/internal/server"
	"job-bot-go/internal/storage"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuration validation failed")
	}

	// Setup logging
	logger, logFile, err := setupLogging(cfg.Monitoring.LogFile, cfg.Monitoring.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup logging")
	}
	if logFile != nil {
		defer logFile.Close()
	}

	logger.Info().Str("version", version).Str("store", cfg.Storage.Driver).Msg("starting job bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	store, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer store.Close()

	// Initialize recent jobs buffer
	buffer, rdb, err := setupRecent(ctx, cfg.Recent, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize recent jobs buffer")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	client := jsearch.NewClient(cfg.JSearch, logger)
	registry := pager.NewRegistry(cfg.Session.IdleTimeout)

	discord, err := bot.NewDiscord(cfg.Discord.Token, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create discord session")
	}

	dispatcher := bot.NewDispatcher(bot.Options{
		Searcher:  client,
		Store:     store,
		Recent:    buffer,
		Registry:  registry,
		Prefix:    cfg.Discord.Prefix,
		PerSearch: cfg.Recent.PerSearch,
		Latency:   discord.Latency,
		Logger:    logger,
	})
	discord.SetDispatcher(dispatcher)

	if err := discord.Open(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to discord")
	}
	defer discord.Close()

	sweeper := scheduler.NewSweeper(cfg.Session.SweepSpec, discord.DisableExpired, logger)
	if err := sweeper.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start session sweeper")
	}

	var health *server.Server
	if cfg.Server.Enabled {
		if logger.GetLevel() > zerolog.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}
		health = server.NewServer(cfg.Server.Address, version, server.Probes{
			SearchStats:    client.Stats,
			GatewayLatency: discord.Latency,
			ActiveSessions: registry.Len,
		}, logger)
		health.Start()
	}

	logger.Info().Str("prefix", cfg.Discord.Prefix).Msg("job bot is running")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

	cancel()
	sweeper.Stop()

	if health != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := health.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("health server shutdown failed")
		}
		shutdownCancel()
	}

	logger.Info().Interface("search_metrics", client.Stats()).Msg("job bot shutdown complete")
}

// setupLogging configures logging based on the configuration
func setupLogging(logFile, logLevel string) (zerolog.Logger, *os.File, error) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	var logOutput *os.File

	if logFile != "" {
		// Ensure log directory exists
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		logOutput, err = os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = logOutput
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "job-bot").Logger()
	return logger, logOutput, nil
}

// setupRecent returns a Redis-backed buffer when a Redis URL is configured
// and an in-memory ring otherwise.
func setupRecent(ctx context.Context, cfg config.RecentConfig, logger zerolog.Logger) (recent.Buffer, *redis.Client, error) {
	if cfg.RedisURL == "" {
		return recent.NewRing(cfg.Capacity), nil, nil
	}

	rdb, err := recent.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Str("key", cfg.RedisKey).Msg("sharing recent jobs through redis")
	return recent.NewRedisBuffer(rdb, cfg.RedisKey, cfg.Capacity, logger), rdb, nil
}
