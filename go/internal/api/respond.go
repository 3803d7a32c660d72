package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/reckman-cloud/employee-admin-app/go/internal/drafts"
	"github.com/reckman-cloud/employee-admin-app/go/internal/queue"
	"github.com/reckman-cloud/employee-admin-app/go/internal/submission"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verr *drafts.ValidationError
	switch {
	case errors.Is(err, submission.ErrEmployeeRequired), errors.As(err, &verr):
		return http.StatusBadRequest
	case queue.IsReason(err, queue.ReasonMissingConfig):
		return http.StatusServiceUnavailable
	case errors.Is(err, queue.ErrMessageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, queue.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error, message string) {
	status := statusFor(err)
	body := map[string]any{"ok": false, "error": message}
	var verr *drafts.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	if status >= 500 {
		log.Error().Err(err).Int("status", status).Msg(message)
	}
	writeJSON(w, status, body)
}
