package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/reckman-cloud/employee-admin-app/go/internal/config"
)

// PrincipalHeader carries the signed-in user as base64 JSON, set by the hosting platform.
const PrincipalHeader = "x-ms-client-principal"

// Principal is the signed-in user.
type Principal struct {
	IdentityProvider string   `json:"identityProvider,omitempty"`
	UserID           string   `json:"userId"`
	UserDetails      string   `json:"userDetails"`
	UserRoles        []string `json:"userRoles"`
}

// Name is what goes into requestedBy.
func (p *Principal) Name() string {
	if p == nil {
		return ""
	}
	if p.UserDetails != "" {
		return p.UserDetails
	}
	return p.UserID
}

type principalKey struct{}

// ParsePrincipal decodes the principal header. A missing or malformed header yields nil.
func ParsePrincipal(r *http.Request) *Principal {
	raw := r.Header.Get(PrincipalHeader)
	if raw == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var p Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	return &p
}

// EncodePrincipal is the inverse of ParsePrincipal, for clients and tests.
func EncodePrincipal(p Principal) string {
	data, _ := json.Marshal(p)
	return base64.StdEncoding.EncodeToString(data)
}

// PrincipalFromContext returns the principal stored by the admin gate.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// Gate decides who may call the admin endpoints.
type Gate struct {
	roles           map[string]struct{}
	bypassLocal     bool
	allowAnonHealth bool
}

func NewGate(cfg config.Config) *Gate {
	roles := make(map[string]struct{}, len(cfg.Auth.AdminRoles))
	for _, r := range cfg.Auth.AdminRoles {
		roles[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return &Gate{
		roles:           roles,
		bypassLocal:     cfg.Auth.AllowAnonLocal && cfg.IsDevelopment(),
		allowAnonHealth: cfg.Auth.AllowAnonHealth,
	}
}

// IsAdmin matches roles case-insensitively.
func (g *Gate) IsAdmin(p *Principal) bool {
	if p == nil {
		return false
	}
	for _, r := range p.UserRoles {
		if _, ok := g.roles[strings.ToLower(strings.TrimSpace(r))]; ok {
			return true
		}
	}
	return false
}

// RequireAdmin rejects non-admins with 403 {ok:false}.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return g.require(next, false)
}

// RequireHealthAccess is RequireAdmin, relaxed when anonymous health checks are allowed.
func (g *Gate) RequireHealthAccess(next http.Handler) http.Handler {
	return g.require(next, g.allowAnonHealth)
}

func (g *Gate) require(next http.Handler, anonymous bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := ParsePrincipal(r)
		if !g.IsAdmin(p) && !g.bypassLocal && !anonymous {
			log.Warn().
				Str("path", r.URL.Path).
				Str("user", p.Name()).
				Msg("rejected non-admin request")
			writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "reason": "unauthorized"})
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Identify names the caller of r for logs.
func Identify(r *http.Request) string {
	if name := ParsePrincipal(r).Name(); name != "" {
		return name
	}
	return "anonymous"
}
