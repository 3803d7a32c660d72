package main

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/reckman-cloud/employee-admin-app/go/internal/api"
	"github.com/reckman-cloud/employee-admin-app/go/internal/config"
	"github.com/reckman-cloud/employee-admin-app/go/internal/ledger"
)

func setupServer(cfg config.Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Register REST endpoints
	services.API.RegisterRoutes(mux)

	// Register ledger service
	if services.Ledger != nil {
		path, handler := ledger.NewHandler(services.Ledger)
		mux.Handle(path, services.Gate.RequireAdmin(handler))
	}

	// Health stream
	mux.Handle("GET /ws/health", services.Gate.RequireHealthAccess(services.Streamer))

	// Liveness
	setupLiveness(mux)

	// Wrap with CORS
	handler := api.WithCORS(mux)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func setupLiveness(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write liveness response")
		}
	})
}
