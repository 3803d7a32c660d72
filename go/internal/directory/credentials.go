package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/reckman-cloud/employee-admin-app/go/clients"
	"github.com/reckman-cloud/employee-admin-app/go/internal/config"
)

// TokenProvider issues bearer tokens for a scope.
type TokenProvider interface {
	Token(ctx context.Context, scope string) (string, error)
}

// CredentialSource is one strategy in the credential chain. Credential returns false when the
// strategy is not configured and the next one should be tried.
type CredentialSource interface {
	Name() string
	Credential() (TokenProvider, bool)
}

// Chain resolves the first configured source and hands out its tokens.
type Chain struct {
	sources []CredentialSource

	once     sync.Once
	provider TokenProvider
	name     string
}

func NewChain(sources ...CredentialSource) *Chain {
	return &Chain{sources: sources}
}

// SourcesFromConfig builds the ordered source list named in cfg.Credentials.
func SourcesFromConfig(cfg config.DirectoryConfig) []CredentialSource {
	var sources []CredentialSource
	for _, name := range cfg.Credentials {
		switch name {
		case config.CredentialClientSecret:
			sources = append(sources, &ClientSecretSource{
				TenantID:      cfg.TenantID,
				ClientID:      cfg.ClientID,
				ClientSecret:  cfg.ClientSecret,
				AuthorityHost: cfg.AuthorityHost,
			})
		case config.CredentialManagedIdentity:
			sources = append(sources, &ManagedIdentitySource{
				Endpoint: cfg.ManagedIdentityEndpoint,
				ClientID: cfg.ManagedIdentityClientID,
			})
		case config.CredentialStaticToken:
			sources = append(sources, StaticTokenSource(cfg.StaticToken))
		}
	}
	return sources
}

func (c *Chain) resolve() {
	for _, s := range c.sources {
		if p, ok := s.Credential(); ok {
			c.provider, c.name = p, s.Name()
			log.Info().Str("source", c.name).Msg("directory credential selected")
			return
		}
	}
	log.Warn().Int("sources", len(c.sources)).Msg("no directory credential source is configured")
}

// Source names the selected strategy, or "" when none is configured.
func (c *Chain) Source() string {
	c.once.Do(c.resolve)
	return c.name
}

func (c *Chain) Token(ctx context.Context, scope string) (string, error) {
	c.once.Do(c.resolve)
	if c.provider == nil {
		return "", &AuthTokenError{Err: ErrNoCredential}
	}
	tok, err := c.provider.Token(ctx, scope)
	if err != nil {
		return "", &AuthTokenError{Source: c.name, Err: err}
	}
	if tok == "" {
		return "", &AuthTokenError{Source: c.name, Err: errors.New("empty token")}
	}
	return tok, nil
}

// ClientSecretSource is an app registration using the OAuth2 client-credentials grant.
type ClientSecretSource struct {
	TenantID      string
	ClientID      string
	ClientSecret  string
	AuthorityHost string
}

func (s *ClientSecretSource) Name() string { return config.CredentialClientSecret }

func (s *ClientSecretSource) Credential() (TokenProvider, bool) {
	if s.TenantID == "" || s.ClientID == "" || s.ClientSecret == "" {
		return nil, false
	}
	host := strings.TrimRight(s.AuthorityHost, "/")
	if host == "" {
		host = "https://login.microsoftonline.com"
	}
	return &clientSecretProvider{
		tokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", host, url.PathEscape(s.TenantID)),
		clientID:     s.ClientID,
		clientSecret: s.ClientSecret,
		cached:       make(map[string]*oauth2.Token),
	}, true
}

type clientSecretProvider struct {
	tokenURL     string
	clientID     string
	clientSecret string

	mu     sync.Mutex
	cached map[string]*oauth2.Token
}

func (p *clientSecretProvider) Token(ctx context.Context, scope string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if tok, ok := p.cached[scope]; ok && tok.Valid() {
		return tok.AccessToken, nil
	}

	cc := clientcredentials.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		TokenURL:     p.tokenURL,
		Scopes:       []string{scope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tok, err := cc.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("client credentials grant: %w", err)
	}
	p.cached[scope] = tok
	return tok.AccessToken, nil
}

// ManagedIdentitySource asks the host's identity endpoint (IMDS shaped) for a token.
type ManagedIdentitySource struct {
	Endpoint string
	ClientID string
}

func (s *ManagedIdentitySource) Name() string { return config.CredentialManagedIdentity }

func (s *ManagedIdentitySource) Credential() (TokenProvider, bool) {
	if s.Endpoint == "" {
		return nil, false
	}
	client := clients.NewBaseClient(s.Endpoint)
	client.SetHeader("Metadata", "true")
	return &managedIdentityProvider{client: client, clientID: s.ClientID}, true
}

type managedIdentityProvider struct {
	client   *clients.BaseClient
	clientID string

	mu      sync.Mutex
	token   string
	expires time.Time
}

type managedIdentityToken struct {
	AccessToken string `json:"access_token"`
	ExpiresOn   string `json:"expires_on"`
}

func (p *managedIdentityProvider) Token(ctx context.Context, scope string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Until(p.expires) > time.Minute {
		return p.token, nil
	}

	q := url.Values{}
	q.Set("api-version", "2018-02-01")
	q.Set("resource", strings.TrimSuffix(scope, "/.default"))
	if p.clientID != "" {
		q.Set("client_id", p.clientID)
	}
	body, err := p.client.Get(ctx, p.client.BaseURL()+"?"+q.Encode(), http.Header{})
	if err != nil {
		return "", fmt.Errorf("managed identity request: %w", err)
	}

	var tok managedIdentityToken
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("failed to unmarshal managed identity token: %w", err)
	}
	p.token = tok.AccessToken
	p.expires = time.Now().Add(5 * time.Minute)
	if secs, err := strconv.ParseInt(tok.ExpiresOn, 10, 64); err == nil {
		p.expires = time.Unix(secs, 0)
	}
	return p.token, nil
}

// StaticTokenSource serves a pre-issued token, e.g. one minted by a deployment pipeline.
type StaticTokenSource string

func (s StaticTokenSource) Name() string { return config.CredentialStaticToken }

func (s StaticTokenSource) Credential() (TokenProvider, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}

func (s StaticTokenSource) Token(context.Context, string) (string, error) {
	return string(s), nil
}
