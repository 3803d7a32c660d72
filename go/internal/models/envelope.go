package models

const (
	EnvelopeTypeEntry       = "employee.entry"
	EnvelopeTypeTermination = "employee.termination"

	EnvelopeSchema = 1
)

// EntryPayload is the normalized form of an Entry placed inside an entry envelope.
// managerName is display-only and never leaves the client.
type EntryPayload struct {
	ID           string  `json:"id"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Title        string  `json:"title"`
	Department   string  `json:"department"`
	BusinessUnit string  `json:"businessUnit"`
	FullTime     bool    `json:"fullTime"`
	StartDate    *string `json:"startDate,omitempty"`
	ManagerID    string  `json:"managerId"`
	ManagerUPN   *string `json:"managerUpn"`
	Meta         *Meta   `json:"_meta,omitempty"`
}

// EntryEnvelope wraps one onboarding record for the queue.
type EntryEnvelope struct {
	Type        string       `json:"type"`
	Schema      int          `json:"schema"`
	SubmittedAt string       `json:"submittedAt"`
	ID          string       `json:"id"`
	Data        EntryPayload `json:"data"`
}

// TerminationEnvelope wraps one offboarding request for the queue.
type TerminationEnvelope struct {
	Type        string      `json:"type"`
	Schema      int         `json:"schema"`
	SubmittedAt string      `json:"submittedAt"`
	RequestedBy *string     `json:"requestedBy"`
	Employee    string      `json:"employee"`
	Manager     *ManagerRef `json:"manager"`
	Notes       *string     `json:"notes"`
}
