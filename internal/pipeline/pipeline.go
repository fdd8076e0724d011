// Package pipeline ties search, exclusion, persistence, and drafting into
// the two workflows the CLI and HTTP API expose.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/exclusion"
	"github.com/sells-group/prospect-cli/internal/identity"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/search"
	"github.com/sells-group/prospect-cli/internal/store"
)

// SourceDraft tags contacted records written after a successful draft.
const SourceDraft = "draft"

// Searcher runs one orchestration.
type Searcher interface {
	Search(ctx context.Context, q model.SearchQuery) (*search.Result, error)
}

// Drafter creates drafts for a batch of requests.
type Drafter interface {
	CreateDrafts(ctx context.Context, reqs []model.DraftRequest) []model.DraftResult
}

// Pipeline runs searches and draft batches for an owner.
type Pipeline struct {
	store         store.Store
	searcher      Searcher
	exclusions    exclusion.Provider
	drafter       Drafter
	markContacted bool
	queryLimit    int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithExclusions sets the provider consulted before every search.
func WithExclusions(p exclusion.Provider) Option {
	return func(pl *Pipeline) { pl.exclusions = p }
}

// WithDrafter enables draft batches.
func WithDrafter(d Drafter) Option {
	return func(pl *Pipeline) { pl.drafter = d }
}

// WithMarkContacted records successfully drafted contacts in the store.
func WithMarkContacted(on bool) Option {
	return func(pl *Pipeline) { pl.markContacted = on }
}

// WithQueryLimit caps SearchQuery.MaxContacts. Zero disables the cap.
func WithQueryLimit(n int) Option {
	return func(pl *Pipeline) { pl.queryLimit = n }
}

// New creates a Pipeline.
func New(st store.Store, searcher Searcher, opts ...Option) *Pipeline {
	p := &Pipeline{store: st, searcher: searcher}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Search persists a run, merges the owner's exclusions into the query, and
// executes it. The returned run is complete or failed. An invalid query is
// rejected with a nil run before anything is persisted or loaded. An
// exclusion failure is returned as an error alongside the failed run.
func (p *Pipeline) Search(ctx context.Context, owner string, q model.SearchQuery) (*model.SearchRun, error) {
	if err := q.Validate(p.queryLimit); err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("owner", owner), zap.String("title", q.PrimaryTitle))

	run, err := p.store.CreateRun(ctx, owner, q)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log = log.With(zap.String("run_id", run.ID))

	fail := func(cause error) (*model.SearchRun, error) {
		if ferr := p.store.FailRun(ctx, run.ID, cause.Error()); ferr != nil {
			log.Warn("pipeline: failed to record run failure", zap.Error(ferr))
		}
		run.Status = model.RunStatusFailed
		run.Error = cause.Error()
		return run, cause
	}

	if err := p.store.StartRun(ctx, run.ID); err != nil {
		log.Warn("pipeline: failed to mark run started", zap.Error(err))
	}

	if p.exclusions != nil {
		keys, err := p.exclusions.Keys(ctx, owner)
		if err != nil {
			return fail(eris.Wrap(err, "pipeline: load exclusions"))
		}
		q.ExcludeKeys = mergeKeys(q.ExcludeKeys, keys)
		log.Debug("pipeline: exclusions loaded", zap.Int("keys", len(q.ExcludeKeys)))
	}

	res, err := p.searcher.Search(ctx, q)
	if err != nil {
		return fail(err)
	}

	result := &model.RunResult{
		Contacts:   res.Contacts,
		Strategies: res.Strategies,
		Fallback:   res.Fallback,
		DurationMs: res.Duration.Milliseconds(),
	}
	if err := p.store.CompleteRun(ctx, run.ID, result); err != nil {
		log.Warn("pipeline: failed to save run result", zap.Error(err))
	}
	run.Status = model.RunStatusComplete
	run.Result = result
	run.UpdatedAt = time.Now().UTC()

	log.Info("pipeline: search complete",
		zap.Int("contacts", len(res.Contacts)),
		zap.Bool("fallback", res.Fallback),
	)
	return run, nil
}

// Drafts creates one draft per request. When contact marking is enabled,
// every successfully drafted contact is added to owner's contacted set.
func (p *Pipeline) Drafts(ctx context.Context, owner string, reqs []model.DraftRequest) ([]model.DraftResult, error) {
	if p.drafter == nil {
		return nil, eris.New("pipeline: drafts are not configured")
	}
	results := p.drafter.CreateDrafts(ctx, reqs)

	if !p.markContacted {
		return results, nil
	}
	byIndex := make(map[int]model.Contact, len(reqs))
	for _, r := range reqs {
		byIndex[r.Index] = r.Contact
	}
	var keys []model.IdentityKey
	for _, r := range results {
		if !r.OK() {
			continue
		}
		c, ok := byIndex[r.Index]
		if !ok {
			continue
		}
		// Contacts posted by hand often carry names but no key.
		key := c.Key
		if key.IsZero() {
			key = identity.KeyFor(c.FirstName, c.LastName, c.Employer)
			if key.FirstName == "" || key.LastName == "" || key.Employer == "" {
				continue
			}
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return results, nil
	}
	// Drafts already exist at this point; marking is best effort.
	n, err := p.store.MarkContacted(ctx, owner, SourceDraft, keys)
	if err != nil {
		zap.L().Warn("pipeline: failed to mark contacted", zap.String("owner", owner), zap.Error(err))
		return results, nil
	}
	zap.L().Info("pipeline: contacts marked", zap.String("owner", owner), zap.Int("added", n))
	return results, nil
}

// Run returns a persisted run.
func (p *Pipeline) Run(ctx context.Context, id string) (*model.SearchRun, error) {
	return p.store.GetRun(ctx, id)
}

// Runs lists persisted runs.
func (p *Pipeline) Runs(ctx context.Context, f store.RunFilter) ([]model.SearchRun, error) {
	return p.store.ListRuns(ctx, f)
}

func mergeKeys(a, b model.KeySet) model.KeySet {
	out := make(model.KeySet, len(a)+len(b))
	for k := range a {
		out.Add(k)
	}
	for k := range b {
		out.Add(k)
	}
	return out
}
