package model

import "time"

// RunStatus represents the current state of a search run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// SearchRun is a persisted record of one orchestration call.
type SearchRun struct {
	ID        string      `json:"id"`
	Owner     string      `json:"owner,omitempty"`
	Query     SearchQuery `json:"query"`
	Status    RunStatus   `json:"status"`
	Result    *RunResult  `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunResult holds the final outcome of a search run.
type RunResult struct {
	Contacts   []Contact      `json:"contacts"`
	Strategies []StrategyStat `json:"strategies"`
	Fallback   bool           `json:"fallback"`
	DurationMs int64          `json:"duration_ms"`
}

// StrategyStat summarizes one strategy execution.
type StrategyStat struct {
	Name       string `json:"name"`
	Records    int    `json:"records"`
	Extracted  int    `json:"extracted"`
	Merged     int    `json:"merged"`
	Skipped    int    `json:"skipped"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// DomainCacheEntry maps an employer to its email domain. An empty Domain
// records that resolution found nothing.
type DomainCacheEntry struct {
	Employer   string    `json:"employer"`
	Domain     string    `json:"domain"`
	ResolvedAt time.Time `json:"resolved_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the entry is stale at now.
func (e DomainCacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// ContactedRecord is one row of the cross-run exclusion table.
type ContactedRecord struct {
	Owner     string      `json:"owner"`
	Key       IdentityKey `json:"identity_key"`
	Source    string      `json:"source"`
	CreatedAt time.Time   `json:"created_at"`
}
