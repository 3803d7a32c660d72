package graph_client

const (
	// Base URL
	BaseURL = "https://graph.microsoft.com/v1.0"

	// Scope requested from the credential chain
	Scope = "https://graph.microsoft.com/.default"

	// API Endpoints
	GroupsEndpoint = "/groups"

	// Headers
	AuthorizationHeader    = "Authorization"
	ConsistencyLevelHeader = "ConsistencyLevel"
	ConsistencyEventual    = "eventual"

	// Page size for membership listing; Graph caps this at 999.
	MaxPageSize = 999

	userSelect  = "id,displayName,jobTitle,department,userPrincipalName"
	groupSelect = "id,displayName"
)
