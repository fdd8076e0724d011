// Package store persists search runs, the employer domain cache and the
// contacted roster.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Owner  string          `json:"owner,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines persistence for the prospecting workflow.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, owner string, query model.SearchQuery) (*model.SearchRun, error)
	StartRun(ctx context.Context, runID string) error
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, msg string) error
	GetRun(ctx context.Context, runID string) (*model.SearchRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.SearchRun, error)

	// Domain cache. GetCachedDomain returns nil for missing or expired entries.
	GetCachedDomain(ctx context.Context, employer string) (*model.DomainCacheEntry, error)
	SetCachedDomain(ctx context.Context, entry model.DomainCacheEntry) error
	DeleteExpiredDomains(ctx context.Context) (int, error)

	// Contacted roster. An empty owner lists every owner's records.
	ListContacted(ctx context.Context, owner string) ([]model.ContactedRecord, error)
	MarkContacted(ctx context.Context, owner, source string, keys []model.IdentityKey) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100
