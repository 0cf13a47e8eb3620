package model

// SyncResult is the aggregate outcome of a bulk price sync. It is always
// returned fully populated, even when the sync aborted early; operational
// tooling alerts on the Errors list rather than on a raised error.
type SyncResult struct {
	TotalProducts int      `json:"total_products"`
	Matched       int      `json:"matched"`
	Updated       int      `json:"updated"`
	Skipped       int      `json:"skipped"`
	Errors        []string `json:"errors"`
}
