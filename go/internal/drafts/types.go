package drafts

// SaveRequest carries the form fields of a draft. An empty ID creates a new draft; a known
// ID edits that draft in place.
type SaveRequest struct {
	ID           string  `json:"id,omitempty"`
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
}

// ReconcileResult reports what a reconciliation pass removed.
type ReconcileResult struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}
