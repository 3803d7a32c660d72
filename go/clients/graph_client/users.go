package graph_client

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
)

type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	JobTitle          string `json:"jobTitle"`
	Department        string `json:"department"`
}

type UsersResponse struct {
	Value    []User `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

func transitiveUsersEndpoint(groupID string, top int) string {
	return fmt.Sprintf("%s/%s/transitiveMembers/microsoft.graph.user?%s",
		GroupsEndpoint, groupID, query("", userSelect, top))
}

// TransitiveUserPages yields one page of user-type transitive members at a time, following
// @odata.nextLink until it is exhausted. Iteration stops after the first error.
func (c *GraphClient) TransitiveUserPages(ctx context.Context, groupID string) iter.Seq2[[]User, error] {
	return func(yield func([]User, error) bool) {
		next := transitiveUsersEndpoint(groupID, MaxPageSize)
		for next != "" {
			page, err := c.usersPage(ctx, next)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page.Value, nil) {
				return
			}
			next = page.NextLink
		}
	}
}

// SampleTransitiveUsers returns at most n user-type transitive members (single page).
func (c *GraphClient) SampleTransitiveUsers(ctx context.Context, groupID string, n int) ([]User, error) {
	page, err := c.usersPage(ctx, transitiveUsersEndpoint(groupID, n))
	if err != nil {
		return nil, err
	}
	return page.Value, nil
}

func (c *GraphClient) usersPage(ctx context.Context, endpoint string) (*UsersResponse, error) {
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get members page: %w", err)
	}
	var response UsersResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal members page: %w", err)
	}
	return &response, nil
}
