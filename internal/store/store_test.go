package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleQuery() model.SearchQuery {
	return model.SearchQuery{
		PrimaryTitle:  "VP Finance",
		SimilarTitles: []string{"CFO"},
		Company:       "Acme",
		Location:      model.LocationStrategy{Mode: model.LocationMetroPrimary, City: "Austin", State: "TX", MetroName: "Austin-Round Rock"},
		MaxContacts:   5,
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("RunLifecycle", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		run, err := st.CreateRun(ctx, "ann", sampleQuery())
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusQueued, run.Status)

		require.NoError(t, st.StartRun(ctx, run.ID))
		got, err := st.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusRunning, got.Status)
		assert.Equal(t, "ann", got.Owner)
		assert.Equal(t, "VP Finance", got.Query.PrimaryTitle)
		assert.Equal(t, []string{"CFO"}, got.Query.SimilarTitles)
		assert.Nil(t, got.Result)

		result := &model.RunResult{
			Contacts: []model.Contact{{
				Key:       model.IdentityKey{FirstName: "jane", LastName: "doe", Employer: "acme"},
				FirstName: "Jane",
				LastName:  "Doe",
				Email:     &model.ResolvedEmail{Address: "jane@acme.com", Verified: true, Source: model.SourceFinder},
			}},
			Strategies: []model.StrategyStat{{Name: "metro", Records: 3, Merged: 1}},
			DurationMs: 1200,
		}
		require.NoError(t, st.CompleteRun(ctx, run.ID, result))

		got, err = st.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusComplete, got.Status)
		require.NotNil(t, got.Result)
		require.Len(t, got.Result.Contacts, 1)
		assert.Equal(t, "jane@acme.com", got.Result.Contacts[0].Email.Address)
		assert.Equal(t, "metro", got.Result.Strategies[0].Name)
	})

	t.Run("FailRun", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		run, err := st.CreateRun(ctx, "", sampleQuery())
		require.NoError(t, err)
		require.NoError(t, st.FailRun(ctx, run.ID, "all strategies failed"))

		got, err := st.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, got.Status)
		assert.Equal(t, "all strategies failed", got.Error)
	})

	t.Run("RunNotFound", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		_, err := st.GetRun(ctx, "missing")
		assert.True(t, eris.Is(err, ErrNotFound))
		assert.True(t, eris.Is(st.StartRun(ctx, "missing"), ErrNotFound))
		assert.True(t, eris.Is(st.CompleteRun(ctx, "missing", &model.RunResult{}), ErrNotFound))
		assert.True(t, eris.Is(st.FailRun(ctx, "missing", "x"), ErrNotFound))
	})

	t.Run("ListRunsFilters", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		a, err := st.CreateRun(ctx, "ann", sampleQuery())
		require.NoError(t, err)
		_, err = st.CreateRun(ctx, "bob", sampleQuery())
		require.NoError(t, err)
		_, err = st.CreateRun(ctx, "ann", sampleQuery())
		require.NoError(t, err)
		require.NoError(t, st.FailRun(ctx, a.ID, "boom"))

		all, err := st.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		anns, err := st.ListRuns(ctx, RunFilter{Owner: "ann"})
		require.NoError(t, err)
		assert.Len(t, anns, 2)

		failed, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, a.ID, failed[0].ID)

		limited, err := st.ListRuns(ctx, RunFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, limited, 2)

		offset, err := st.ListRuns(ctx, RunFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Len(t, offset, 1)
	})

	t.Run("DomainCache", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Second)

		missing, err := st.GetCachedDomain(ctx, "acme")
		require.NoError(t, err)
		assert.Nil(t, missing)

		require.NoError(t, st.SetCachedDomain(ctx, model.DomainCacheEntry{
			Employer: "acme", Domain: "acme.com", ResolvedAt: now, ExpiresAt: now.Add(time.Hour),
		}))
		got, err := st.GetCachedDomain(ctx, "acme")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "acme.com", got.Domain)
		assert.WithinDuration(t, now.Add(time.Hour), got.ExpiresAt, time.Second)

		// Overwrite.
		require.NoError(t, st.SetCachedDomain(ctx, model.DomainCacheEntry{
			Employer: "acme", Domain: "acme.io", ResolvedAt: now, ExpiresAt: now.Add(time.Hour),
		}))
		got, err = st.GetCachedDomain(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, "acme.io", got.Domain)

		// Negative and expired entries.
		require.NoError(t, st.SetCachedDomain(ctx, model.DomainCacheEntry{
			Employer: "ghost", Domain: "", ResolvedAt: now, ExpiresAt: now.Add(time.Hour),
		}))
		neg, err := st.GetCachedDomain(ctx, "ghost")
		require.NoError(t, err)
		require.NotNil(t, neg)
		assert.Empty(t, neg.Domain)

		require.NoError(t, st.SetCachedDomain(ctx, model.DomainCacheEntry{
			Employer: "stale", Domain: "stale.com", ResolvedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
		}))
		stale, err := st.GetCachedDomain(ctx, "stale")
		require.NoError(t, err)
		assert.Nil(t, stale)

		n, err := st.DeleteExpiredDomains(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("Contacted", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		k1 := model.IdentityKey{FirstName: "jane", LastName: "doe", Employer: "acme"}
		k2 := model.IdentityKey{FirstName: "john", LastName: "roe", Employer: "globex"}

		n, err := st.MarkContacted(ctx, "ann", "import", []model.IdentityKey{k1, k2, {}})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = st.MarkContacted(ctx, "ann", "draft", []model.IdentityKey{k1})
		require.NoError(t, err)
		assert.Zero(t, n, "existing keys are not re-inserted")

		_, err = st.MarkContacted(ctx, "bob", "draft", []model.IdentityKey{k1})
		require.NoError(t, err)

		anns, err := st.ListContacted(ctx, "ann")
		require.NoError(t, err)
		require.Len(t, anns, 2)
		keys := model.NewKeySet()
		for _, r := range anns {
			keys.Add(r.Key)
			assert.Equal(t, "import", r.Source)
		}
		assert.True(t, keys.Has(k1))
		assert.True(t, keys.Has(k2))

		all, err := st.ListContacted(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)

		n, err = st.MarkContacted(ctx, "ann", "x", nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLite(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestNewSQLite_InvalidPath(t *testing.T) {
	_, err := NewSQLite(filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	assert.Error(t, err)
}
