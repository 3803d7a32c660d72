package directory

import (
	"context"

	"github.com/rs/zerolog/log"
)

const reportNotes = "If counts > 0 but sampleUsers are empty or missing fields, grant User.Read.All; for hidden membership, grant Member.Read.Hidden."

// SampleUser is a trimmed member record for diagnostics.
type SampleUser struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Title *string `json:"title"`
	Dept  *string `json:"dept"`
}

// GroupReport describes what the directory returns for the managers group.
type GroupReport struct {
	OK              bool         `json:"ok"`
	GroupID         string       `json:"groupId"`
	DirectCount     *int         `json:"directCount"`
	TransitiveCount *int         `json:"transitiveCount"`
	SampleUsers     []SampleUser `json:"sampleUsers"`
	Notes           string       `json:"notes"`
}

// CheckGroup resolves the group and reports member counts and a few sample users. Count and
// sample failures are reported as missing values; only resolution failures are errors.
func (c *Client) CheckGroup(ctx context.Context) (*GroupReport, error) {
	gid, err := c.ResolveGroupID(ctx)
	if err != nil {
		return nil, err
	}

	report := &GroupReport{OK: true, GroupID: gid, SampleUsers: []SampleUser{}, Notes: reportNotes}

	if n, err := c.graph.CountDirectMembers(ctx, gid); err == nil {
		report.DirectCount = &n
	} else {
		log.Warn().Err(err).Str("group_id", gid).Msg("direct member count failed")
	}
	if n, err := c.graph.CountTransitiveMembers(ctx, gid); err == nil {
		report.TransitiveCount = &n
	} else {
		log.Warn().Err(err).Str("group_id", gid).Msg("transitive member count failed")
	}

	users, err := c.graph.SampleTransitiveUsers(ctx, gid, 5)
	if err != nil {
		log.Warn().Err(err).Str("group_id", gid).Msg("sample members failed")
		return report, nil
	}
	for _, u := range users {
		s := SampleUser{ID: u.ID}
		switch {
		case u.DisplayName != "":
			s.Name = strPtr(u.DisplayName)
		case u.UserPrincipalName != "":
			s.Name = strPtr(u.UserPrincipalName)
		}
		if u.JobTitle != "" {
			s.Title = strPtr(u.JobTitle)
		}
		if u.Department != "" {
			s.Dept = strPtr(u.Department)
		}
		report.SampleUsers = append(report.SampleUsers, s)
	}
	return report, nil
}

func strPtr(s string) *string {
	return &s
}
