package api

import (
	"net/http"

	"github.com/rs/cors"
)

// WithCORS echoes the request origin and answers preflights with 204.
func WithCORS(h http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", PrincipalHeader, "Accept-Language",
			"Connect-Protocol-Version", "Connect-Timeout-Ms"},
		OptionsSuccessStatus: http.StatusNoContent,
	})
	return c.Handler(h)
}
