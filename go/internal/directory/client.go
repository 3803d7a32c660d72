package directory

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/reckman-cloud/employee-admin-app/go/clients/graph_client"
	"github.com/reckman-cloud/employee-admin-app/go/internal/config"
	"github.com/reckman-cloud/employee-admin-app/go/internal/models"
)

// Client turns the configured managers group into a sorted list of Managers.
type Client struct {
	graph     *graph_client.GraphClient
	groupID   string
	groupName string
	lang      language.Tag
}

func NewClient(cfg config.DirectoryConfig, locale string, creds TokenProvider) *Client {
	graph := graph_client.NewGraphClient(cfg.BaseURL, func(ctx context.Context) (string, error) {
		return creds.Token(ctx, graph_client.Scope)
	})
	if cfg.Timeout > 0 {
		graph.SetTimeout(cfg.Timeout)
	}

	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}

	return &Client{
		graph:     graph,
		groupID:   cfg.GroupID,
		groupName: cfg.GroupName,
		lang:      tag,
	}
}

// Graph exposes the underlying API client for diagnostics.
func (c *Client) Graph() *graph_client.GraphClient {
	return c.graph
}

type lookup struct {
	name   string
	filter string
}

// ResolveGroupID returns the configured group id, or looks the group up by nickname, then
// exact display name, then display-name prefix. Attempts run one after another and stop at
// the first hit; any transport or auth error aborts the resolution.
func (c *Client) ResolveGroupID(ctx context.Context) (string, error) {
	if c.groupID != "" {
		return c.groupID, nil
	}
	if c.groupName == "" {
		return "", ErrGroupNotFound
	}

	lookups := []lookup{
		{"mailNickname", graph_client.EqFilter("mailNickname", c.groupName)},
		{"displayName", graph_client.EqFilter("displayName", c.groupName)},
		{"displayName prefix", graph_client.StartsWithFilter("displayName", c.groupName)},
	}
	for _, l := range lookups {
		group, err := c.graph.FindGroup(ctx, l.filter)
		if err != nil {
			return "", fmt.Errorf("resolve group by %s: %w", l.name, err)
		}
		if group != nil {
			log.Debug().
				Str("group", c.groupName).
				Str("group_id", group.ID).
				Str("matched_by", l.name).
				Msg("resolved managers group")
			return group.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrGroupNotFound, c.groupName)
}

// FetchMembers reads every page of user-type transitive members before returning them,
// de-duplicated by id and sorted by display name.
func (c *Client) FetchMembers(ctx context.Context, groupID string) ([]models.Manager, error) {
	seen := make(map[string]bool)
	var managers []models.Manager
	for page, err := range c.graph.TransitiveUserPages(ctx, groupID) {
		if err != nil {
			return nil, fmt.Errorf("fetch members of %s: %w", groupID, err)
		}
		for _, u := range page {
			if u.ID == "" || seen[u.ID] {
				continue
			}
			seen[u.ID] = true
			managers = append(managers, MapUser(u))
		}
	}
	SortManagers(managers, c.lang)
	return managers, nil
}

// Managers resolves the group and fetches its members.
func (c *Client) Managers(ctx context.Context) ([]models.Manager, error) {
	gid, err := c.ResolveGroupID(ctx)
	if err != nil {
		return nil, err
	}
	return c.FetchMembers(ctx, gid)
}

// MapUser normalizes a directory user into a Manager.
func MapUser(u graph_client.User) models.Manager {
	m := models.Manager{
		ID:         u.ID,
		Name:       u.DisplayName,
		Title:      u.JobTitle,
		Department: u.Department,
	}
	if u.UserPrincipalName != "" {
		upn := u.UserPrincipalName
		m.UPN = &upn
	}
	if m.Name == "" {
		m.Name = u.UserPrincipalName
	}
	if m.Name == "" {
		m.Name = "(no name)"
	}
	if m.Title == "" {
		m.Title = "Unknown"
	}
	if m.Department == "" {
		m.Department = "Unknown"
	}
	return m
}

// SortManagers orders managers by name, ignoring case and accents, using tag's collation.
func SortManagers(managers []models.Manager, tag language.Tag) {
	col := collate.New(tag, collate.IgnoreCase, collate.IgnoreDiacritics)
	slices.SortStableFunc(managers, func(a, b models.Manager) int {
		return col.CompareString(a.Name, b.Name)
	})
}
