package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ringba-rpc-monitor/browser"
	"ringba-rpc-monitor/config"
	"ringba-rpc-monitor/metrics"
	"ringba-rpc-monitor/notify"
	"ringba-rpc-monitor/runner"
	"ringba-rpc-monitor/scraper/ringba"
	"ringba-rpc-monitor/server"
	"ringba-rpc-monitor/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}
	log.Info().Int("max_attempts", cfg.MaxRunAttempts).Bool("headless", cfg.Headless).
		Msg("starting Ringba RPC monitor")

	store := openStore(cfg)
	defer store.Close()

	notifier := notify.NewClient(cfg.SlackWebhookURL, log.Logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	met := metrics.New(reg)

	factory := func(ctx context.Context) (runner.Pipeline, error) {
		pg, err := browser.NewChromePage(cfg.Headless, log.Logger)
		if err != nil {
			return nil, err
		}
		return ringba.NewScraper(pg, cfg, log.Logger), nil
	}

	status := runner.NewStatus()
	run := runner.New(cfg, store, notifier, factory, status, met, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: server.New(cfg, run, status, log.Logger).Router(reg),
	}
	go func() {
		log.Info().Int("port", cfg.Port).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Initial check on startup, then the daily schedule.
	log.Info().Msg("running initial check")
	run.RunOnce(ctx)

	sched := runner.NewScheduler(run, cfg.Location, log.Logger)
	sched.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info().Msg("shut down")
}

func openStore(cfg *config.Config) storage.SnapshotStore {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, keeping snapshots in memory only")
		return storage.NewMemoryStore()
	}

	store, err := storage.NewPostgresStore(cfg.DatabaseURL, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to PostgreSQL")
	}
	if err := store.CreateTable(); err != nil {
		log.Fatal().Err(err).Msg("cannot prepare snapshot table")
	}
	return store
}

func setupLogging() {
	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	switch strings.ToLower(os.Getenv("LOGLEVEL")) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
