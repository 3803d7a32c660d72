package models

import (
	"encoding/json"
	"time"
)

// Draft schema versions. Version 4 added the start date.
const (
	SchemaV3      = 3
	SchemaV4      = 4
	CurrentSchema = SchemaV4
)

// Meta is the bookkeeping block persisted with every draft entry.
type Meta struct {
	SavedAt     time.Time  `json:"savedAt"`
	SubmittedAt *time.Time `json:"submittedAt"`
	Schema      int        `json:"schema"`
}

// Entry is an employee-onboarding draft as persisted by the client.
type Entry struct {
	ID           string  `json:"id"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Title        string  `json:"title"`
	Department   string  `json:"department"`
	BusinessUnit string  `json:"businessUnit"`
	FullTime     *bool   `json:"fullTime,omitempty"`
	StartDate    *string `json:"startDate,omitempty"`
	ManagerID    string  `json:"managerId"`
	ManagerUPN   string  `json:"managerUpn,omitempty"`
	ManagerName  string  `json:"managerName,omitempty"`
	Meta         Meta    `json:"_meta"`
}

// UnmarshalJSON tolerates records written by older clients: a non-boolean fullTime is
// dropped instead of failing the whole collection, and a missing schema defaults to 3.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type alias Entry
	aux := struct {
		*alias
		FullTime json.RawMessage `json:"fullTime"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	e.FullTime = nil
	var ft bool
	if len(aux.FullTime) > 0 && json.Unmarshal(aux.FullTime, &ft) == nil {
		e.FullTime = &ft
	}
	if e.Meta.Schema == 0 {
		e.Meta.Schema = SchemaV3
	}
	return nil
}

// IsFullTime reports the effective full-time flag; an unset flag means full time.
func (e Entry) IsFullTime() bool {
	return e.FullTime == nil || *e.FullTime
}

// Submitted reports whether the entry carries a submission timestamp.
func (e Entry) Submitted() bool {
	return e.Meta.SubmittedAt != nil
}
