package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/reckman-cloud/employee-admin-app/go/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	// load .env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogger(cfg)

	// signal-aware context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := setupDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("setup database")
	}
	if database != nil {
		defer database.Close()
	}

	services, err := setupServices(ctx, cfg, database)
	if err != nil {
		log.Fatal().Err(err).Msg("setup services")
	}
	defer func() {
		if err := services.Gateway.Close(); err != nil {
			log.Error().Err(err).Msg("close queue gateway")
		}
	}()

	if err := services.Warmer.Start(cfg.Directory.WarmSchedule); err != nil {
		log.Fatal().Err(err).Msg("start directory warmer")
	}
	defer services.Warmer.Stop()

	go services.Probe.Run(ctx)
	go services.Streamer.Start(ctx)

	server := setupServer(cfg, services)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.Env).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// wait for shutdown or error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server exited unexpectedly")
	}

	// allow in-flight requests to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("graceful shutdown complete")
}
