package graph_client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Group struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type GroupsResponse struct {
	Value    []Group `json:"value"`
	NextLink string  `json:"@odata.nextLink"`
}

// FindGroup runs a single top-1 group query. A nil group with nil error means no match.
func (c *GraphClient) FindGroup(ctx context.Context, filter string) (*Group, error) {
	endpoint := GroupsEndpoint + "?" + query(filter, groupSelect, 1)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}

	var response GroupsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal groups response: %w", err)
	}
	if len(response.Value) == 0 || response.Value[0].ID == "" {
		return nil, nil
	}
	return &response.Value[0], nil
}

// CountDirectMembers returns the $count of direct members.
func (c *GraphClient) CountDirectMembers(ctx context.Context, groupID string) (int, error) {
	return c.count(ctx, fmt.Sprintf("%s/%s/members/$count", GroupsEndpoint, groupID))
}

// CountTransitiveMembers returns the $count of transitive members of any type.
func (c *GraphClient) CountTransitiveMembers(ctx context.Context, groupID string) (int, error) {
	return c.count(ctx, fmt.Sprintf("%s/%s/transitiveMembers/$count", GroupsEndpoint, groupID))
}

func (c *GraphClient) count(ctx context.Context, endpoint string) (int, error) {
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(string(body), "\ufeff")))
	if err != nil {
		return 0, fmt.Errorf("unexpected count response %q: %w", string(body), err)
	}
	return n, nil
}
