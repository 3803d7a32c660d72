package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/reckman-cloud/employee-admin-app/go/internal/api"
	"github.com/reckman-cloud/employee-admin-app/go/internal/config"
	"github.com/reckman-cloud/employee-admin-app/go/internal/directory"
	"github.com/reckman-cloud/employee-admin-app/go/internal/health"
	"github.com/reckman-cloud/employee-admin-app/go/internal/i18n"
	"github.com/reckman-cloud/employee-admin-app/go/internal/ledger"
	"github.com/reckman-cloud/employee-admin-app/go/internal/queue"
	"github.com/reckman-cloud/employee-admin-app/go/internal/submission"
)

type Services struct {
	API      *api.Handler
	Gate     *api.Gate
	Ledger   *ledger.Service
	Cache    *directory.Cache
	Warmer   *directory.Warmer
	Gateway  *queue.Gateway
	Probe    *health.Probe
	Streamer *health.Streamer
}

func setupServices(ctx context.Context, cfg config.Config, database *sql.DB) (*Services, error) {
	// Wire up dependency injection chain
	// Directory client → cache → coordinator → HTTP handlers
	clock := clockwork.NewRealClock()

	// Directory
	chain := directory.NewChain(directory.SourcesFromConfig(cfg.Directory)...)
	dirClient := directory.NewClient(cfg.Directory, cfg.Locale, chain)
	cache := directory.NewCache(dirClient, clock, cfg.Directory.CacheTTL)
	cache.SetRefreshTimeout(3 * cfg.Directory.Timeout)
	warmer := directory.NewWarmer(cache, cfg.Directory.Timeout)

	// Queue
	gateway := queue.NewGateway(cfg.Queue, nil)
	if !gateway.Configured() {
		log.Warn().Msg("queue not configured, submissions will be rejected")
	}

	// Ledger
	opts := []submission.Option{
		submission.WithBatchSize(cfg.Submission.BatchSize),
		submission.WithClock(clock),
	}
	var ledgerService *ledger.Service
	if database != nil {
		repo := ledger.NewRepository(database)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		opts = append(opts, submission.WithRecorder(repo))
		ledgerService = ledger.NewService(repo)
	}

	// Submission
	normalizer := submission.NewNormalizer(cache, cfg.Submission.FormatStartDate)
	coordinator := submission.NewCoordinator(gateway, normalizer, opts...)

	// Health
	probe := health.NewProbe(health.NewGatewayChecker(gateway), health.ProbeConfig{
		Interval:     cfg.Health.Interval,
		Timeout:      cfg.Health.Timeout,
		Clock:        clock,
		Connectivity: health.InterfaceConnectivity,
	})
	streamCfg := health.DefaultStreamConfig()
	streamCfg.Identify = api.Identify
	streamer := health.NewStreamer(probe, streamCfg)

	// HTTP
	translator, err := i18n.New(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}
	dataDir, err := api.ResolveDataDir(cfg.DataDir)
	if err != nil {
		log.Warn().Err(err).Msg("no data dir found, /api/lists will fail")
	}
	gate := api.NewGate(cfg)
	handler := api.NewHandler(api.Deps{
		Managers:   cache,
		Groups:     dirClient,
		Submitter:  coordinator,
		Queue:      gateway,
		Catalog:    api.NewCatalog(dataDir),
		Translator: translator,
		Gate:       gate,
	})

	return &Services{
		API:      handler,
		Gate:     gate,
		Ledger:   ledgerService,
		Cache:    cache,
		Warmer:   warmer,
		Gateway:  gateway,
		Probe:    probe,
		Streamer: streamer,
	}, nil
}
