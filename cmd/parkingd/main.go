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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/abansal0486/parking-admin/config"
	"github.com/abansal0486/parking-admin/internal/api"
	"github.com/abansal0486/parking-admin/internal/db"
	"github.com/abansal0486/parking-admin/internal/filestore"
	"github.com/abansal0486/parking-admin/internal/metrics"
	"github.com/abansal0486/parking-admin/internal/service"
	"github.com/abansal0486/parking-admin/internal/session"
	"github.com/abansal0486/parking-admin/internal/store"
	"github.com/abansal0486/parking-admin/internal/ticket"
)

func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level; using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func newFileStore(ctx context.Context, cfg config.FilesConfig, gormDB *gorm.DB) (filestore.Store, error) {
	if cfg.Backend != "s3" {
		return filestore.NewGormStore(gormDB), nil
	}
	client, err := filestore.NewS3Client(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}
	log.Info().Str("bucket", cfg.S3.Bucket).Str("prefix", cfg.S3.Prefix).Msg("banned plate files stored in s3")
	return filestore.NewS3Store(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
}

func newSessionStore(ctx context.Context, cfg config.AuthConfig) (session.Store, error) {
	if cfg.Backend != "redis" {
		return session.NewMemoryStore(cfg.SessionTTL()), nil
	}
	client, err := session.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("sessions stored in redis")
	return session.NewRedisStore(client, cfg.SessionTTL()), nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}
	setupLogger(cfg.Log)
	log.Info().Str("path", configPath).Msg("configuration loaded")

	loc, err := cfg.Tickets.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid ticket timezone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	files, err := newFileStore(ctx, cfg.Files, gormDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize file store")
	}
	dir := store.NewGormStore(gormDB, files)

	sessions, err := newSessionStore(ctx, cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session store")
	}
	auth := session.NewAuthenticator(cfg.Auth.Operators)
	if auth.Len() == 0 {
		log.Warn().Msg("no operators configured; nobody can sign in")
	}

	engine := ticket.NewEngine(
		ticket.WithDefaultNights(cfg.Tickets.DefaultNights),
		ticket.WithLocation(loc),
	)
	svc := service.New(dir, engine, service.WithMetrics(metrics.NewTicketMetrics(prometheus.DefaultRegisterer)))

	router := api.NewRouter(api.NewHandler(svc, sessions, auth, dir), api.RouterConfig{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		CacheTTL:        cfg.Server.CacheTTL(),
		Gatherer:        prometheus.DefaultGatherer,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	log.Info().Msg("shutdown signal received, stopping server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("HTTP server Shutdown")
	}

	log.Info().Msg("server gracefully stopped")
}
