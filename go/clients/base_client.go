package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every remote call made through a BaseClient.
const DefaultTimeout = 10 * time.Second

type BaseClient struct {
	baseURL string
	client  *http.Client
	headers map[string]string
	timeout time.Duration
}

func NewBaseClient(baseURL string) *BaseClient {
	return &BaseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		headers: make(map[string]string),
		timeout: DefaultTimeout,
	}
}

func (c *BaseClient) BaseURL() string {
	return c.baseURL
}

func (c *BaseClient) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *BaseClient) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

func (c *BaseClient) Timeout() time.Duration {
	return c.timeout
}

// SetHTTPClient swaps the transport, mostly for tests.
func (c *BaseClient) SetHTTPClient(client *http.Client) {
	c.client = client
}

// MakeRequest issues a single request bounded by the client timeout. The endpoint is either a
// path relative to the base URL or an absolute URL (pagination links come back absolute).
func (c *BaseClient) MakeRequest(ctx context.Context, method, endpoint string, body io.Reader, extra http.Header) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, values := range extra {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s %s: %w", method, endpoint, ErrTimeout)
		}
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s %s: %w", method, endpoint, ErrTimeout)
		}
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(responseBody)}
	}

	return responseBody, nil
}

func (c *BaseClient) Get(ctx context.Context, endpoint string, extra http.Header) ([]byte, error) {
	return c.MakeRequest(ctx, http.MethodGet, endpoint, nil, extra)
}

func (c *BaseClient) Post(ctx context.Context, endpoint string, body io.Reader, extra http.Header) ([]byte, error) {
	return c.MakeRequest(ctx, http.MethodPost, endpoint, body, extra)
}
