package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/reckman-cloud/employee-admin-app/go/internal/config"
	"github.com/reckman-cloud/employee-admin-app/go/internal/dbconfig"
)

// setupDatabase opens the ledger database. A nil *sql.DB means the ledger is disabled.
func setupDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		log.Info().Msg("no database configured, submission ledger disabled")
		return nil, nil
	}

	database, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if parsed, err := dbconfig.ParseDSN(cfg.URL); err == nil {
		log.Info().
			Str("host", parsed.Host).
			Int("port", parsed.Port).
			Str("database", parsed.Database).
			Msg("connected to database")
	}
	return database, nil
}
