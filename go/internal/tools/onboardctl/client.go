package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/reckman-cloud/employee-admin-app/go/clients"
	"github.com/reckman-cloud/employee-admin-app/go/internal/api"
	"github.com/reckman-cloud/employee-admin-app/go/internal/models"
	"github.com/reckman-cloud/employee-admin-app/go/internal/submission"
)

// apiClient talks to a running server's /api surface.
type apiClient struct {
	*clients.BaseClient
}

func newAPIClient(baseURL string, principal *api.Principal) *apiClient {
	base := clients.NewBaseClient(baseURL)
	base.SetHeader("Content-Type", "application/json")
	if principal != nil {
		base.SetHeader(api.PrincipalHeader, api.EncodePrincipal(*principal))
	}
	return &apiClient{BaseClient: base}
}

type submitAllResponse struct {
	submission.Result
	Message string `json:"message"`
}

// SubmitAll posts the drafts. A 4xx/5xx with an error body comes back as an error.
func (c *apiClient) SubmitAll(ctx context.Context, entries []models.Entry) (*submitAllResponse, error) {
	body, err := json.Marshal(map[string]any{"entries": entries})
	if err != nil {
		return nil, fmt.Errorf("failed to encode entries: %w", err)
	}
	data, err := c.Post(ctx, "/api/submit-all", bytes.NewReader(body), nil)
	if err != nil {
		return nil, describe(err)
	}
	var resp submitAllResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode submit response: %w", err)
	}
	return &resp, nil
}

func (c *apiClient) Offboard(ctx context.Context, req submission.OffboardRequest) (*submission.OffboardResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	data, err := c.Post(ctx, "/api/offboard", bytes.NewReader(body), nil)
	if err != nil {
		return nil, describe(err)
	}
	var resp submission.OffboardResult
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode offboard response: %w", err)
	}
	return &resp, nil
}

// describe lifts the server's {"error": ...} message out of a status error.
func describe(err error) error {
	var se *clients.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(se.Body), &body) == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", se.StatusCode, body.Error)
	}
	return err
}
