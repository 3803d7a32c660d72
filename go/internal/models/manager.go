package models

// Manager is a directory user eligible to be selected as a reporting manager.
type Manager struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	UPN        *string `json:"upn"`
	Title      string  `json:"title"`
	Department string  `json:"department"`
}

// ManagerRef is the manager block carried on the wire. Every field may be null.
type ManagerRef struct {
	ID   *string `json:"id"`
	UPN  *string `json:"upn"`
	Name *string `json:"name"`
}
