package graph_client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/reckman-cloud/employee-admin-app/go/clients"
)

// TokenFunc returns a bearer token for Scope. It is called before every remote call.
type TokenFunc func(ctx context.Context) (string, error)

type GraphClient struct {
	*clients.BaseClient
	token TokenFunc
}

func NewGraphClient(baseURL string, token TokenFunc) *GraphClient {
	if baseURL == "" {
		baseURL = BaseURL
	}
	client := &GraphClient{
		BaseClient: clients.NewBaseClient(baseURL),
		token:      token,
	}

	client.SetHeader(ConsistencyLevelHeader, ConsistencyEventual)

	return client
}

// get fetches a fresh token and issues an authorized GET. The token call is bounded by the
// same timeout as the request.
func (c *GraphClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	tokenCtx, cancel := context.WithTimeout(ctx, c.Timeout())
	at, err := c.token(tokenCtx)
	expired := errors.Is(tokenCtx.Err(), context.DeadlineExceeded)
	cancel()
	if err != nil {
		if expired {
			return nil, fmt.Errorf("%w: %w", clients.ErrTimeout, err)
		}
		return nil, err
	}
	h := http.Header{}
	h.Set(AuthorizationHeader, "Bearer "+at)
	return c.Get(ctx, endpoint, h)
}
