// Package ops implements the read operations shared by the CLI, web UI,
// and MCP surfaces. Ingestion writes through internal/tracker, not here.
package ops

// Pagination limits
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	DefaultLatestLimit = 20
	MaxLatestLimit     = 100
	DefaultAlertsLimit = 50
	MaxAlertsLimit     = 200
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// boundLimit applies a default and an upper bound to a requested limit.
func boundLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
