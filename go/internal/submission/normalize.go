package submission

import (
	"fmt"
	"strings"
	"time"

	"github.com/reckman-cloud/employee-admin-app/go/internal/models"
)

// StartDateLayout renders start dates as month abbreviation, zero-padded day and year.
const StartDateLayout = "Jan02,2006"

var startDateInputs = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	StartDateLayout,
}

// Normalizer turns drafts into wire payloads. It performs no I/O.
type Normalizer struct {
	lookup          ManagerLookup
	formatStartDate bool
}

func NewNormalizer(lookup ManagerLookup, formatStartDate bool) *Normalizer {
	return &Normalizer{lookup: lookup, formatStartDate: formatStartDate}
}

// EntryID is the id used for an entry in results; drafts without one get a positional id.
func EntryID(e models.Entry, index int) string {
	if id := strings.TrimSpace(e.ID); id != "" {
		return id
	}
	return fmt.Sprintf("no-id-%d", index)
}

// Normalize fills derived fields. managerName stays behind; it is display-only.
func (n *Normalizer) Normalize(e models.Entry, index int) models.EntryPayload {
	p := models.EntryPayload{
		ID:           EntryID(e, index),
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		Title:        e.Title,
		Department:   e.Department,
		BusinessUnit: e.BusinessUnit,
		FullTime:     e.IsFullTime(),
		ManagerID:    e.ManagerID,
	}

	switch {
	case e.ManagerUPN != "":
		upn := e.ManagerUPN
		p.ManagerUPN = &upn
	case e.ManagerID != "" && n.lookup != nil:
		if upn, ok := n.lookup.LookupUPN(e.ManagerID); ok {
			p.ManagerUPN = &upn
		}
	}

	if e.StartDate != nil && strings.TrimSpace(*e.StartDate) != "" {
		date := strings.TrimSpace(*e.StartDate)
		if n.formatStartDate {
			date = FormatStartDate(date)
		}
		p.StartDate = &date
	}

	if !e.Meta.SavedAt.IsZero() {
		meta := e.Meta
		p.Meta = &meta
	}
	return p
}

// FormatStartDate renders raw in StartDateLayout in UTC. Unparseable input is returned as is.
func FormatStartDate(raw string) string {
	for _, layout := range startDateInputs {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(StartDateLayout)
		}
	}
	return raw
}
