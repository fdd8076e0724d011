package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/db"
	"github.com/sells-group/prospect-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS search_runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	owner      TEXT NOT NULL DEFAULT '',
	query      JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS domain_cache (
	employer    TEXT PRIMARY KEY,
	domain      TEXT NOT NULL,
	resolved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS contacted (
	owner        TEXT NOT NULL,
	identity_key TEXT NOT NULL,
	source       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (owner, identity_key)
);

CREATE INDEX IF NOT EXISTS idx_search_runs_status ON search_runs(status);
CREATE INDEX IF NOT EXISTS idx_search_runs_owner ON search_runs(owner);
CREATE INDEX IF NOT EXISTS idx_domain_cache_expires_at ON domain_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, owner string, query model.SearchQuery) (*model.SearchRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal query")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO search_runs (id, owner, query, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, owner, queryJSON, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.SearchRun{
		ID:        id,
		Owner:     owner,
		Query:     query,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) StartRun(ctx context.Context, runID string) error {
	return s.updateRun(ctx, runID, "start",
		`UPDATE search_runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(model.RunStatusRunning), time.Now().UTC(), runID)
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}
	return s.updateRun(ctx, runID, "complete",
		`UPDATE search_runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusComplete), time.Now().UTC(), runID)
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, msg string) error {
	return s.updateRun(ctx, runID, "fail",
		`UPDATE search_runs SET error = $1, status = $2, updated_at = $3 WHERE id = $4`,
		msg, string(model.RunStatusFailed), time.Now().UTC(), runID)
}

func (s *PostgresStore) updateRun(ctx context.Context, runID, op, sql string, args ...any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: %s run %s", op, runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
	}
	return nil
}

const postgresRunColumns = `id, owner, query, status, result, error, created_at, updated_at`

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.SearchRun, error) {
	r, err := scanPostgresRun(s.pool.QueryRow(ctx,
		`SELECT `+postgresRunColumns+` FROM search_runs WHERE id = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.SearchRun, error) {
	query := `SELECT ` + postgresRunColumns + ` FROM search_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Owner != "" {
		query += fmt.Sprintf(` AND owner = $%d`, argIdx)
		args = append(args, filter.Owner)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.SearchRun
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPostgresRun(row pgx.Row) (*model.SearchRun, error) {
	var r model.SearchRun
	var queryJSON []byte
	var resultJSON *[]byte

	if err := row.Scan(&r.ID, &r.Owner, &queryJSON, &r.Status, &resultJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	var result []byte
	if resultJSON != nil {
		result = *resultJSON
	}
	if err := decodeRun(&r, queryJSON, resultJSON != nil, result); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) GetCachedDomain(ctx context.Context, employer string) (*model.DomainCacheEntry, error) {
	var e model.DomainCacheEntry
	err := s.pool.QueryRow(ctx,
		`SELECT employer, domain, resolved_at, expires_at FROM domain_cache WHERE employer = $1 AND expires_at > now()`,
		employer,
	).Scan(&e.Employer, &e.Domain, &e.ResolvedAt, &e.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get cached domain %s", employer)
	}
	return &e, nil
}

func (s *PostgresStore) SetCachedDomain(ctx context.Context, entry model.DomainCacheEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO domain_cache (employer, domain, resolved_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (employer) DO UPDATE SET domain = EXCLUDED.domain,
		   resolved_at = EXCLUDED.resolved_at, expires_at = EXCLUDED.expires_at`,
		entry.Employer, entry.Domain, entry.ResolvedAt, entry.ExpiresAt,
	)
	return eris.Wrapf(err, "postgres: set cached domain %s", entry.Employer)
}

func (s *PostgresStore) DeleteExpiredDomains(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM domain_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired domains")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) ListContacted(ctx context.Context, owner string) ([]model.ContactedRecord, error) {
	query := `SELECT owner, identity_key, source, created_at FROM contacted`
	var args []any
	if owner != "" {
		query += ` WHERE owner = $1`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at, identity_key`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contacted")
	}
	defer rows.Close()

	var out []model.ContactedRecord
	for rows.Next() {
		rec, err := scanContacted(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: list contacted")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list contacted iterate")
}

var contactedInsert = db.BulkInsert{
	Table:        "contacted",
	Columns:      []string{"owner", "identity_key", "source", "created_at"},
	ConflictKeys: []string{"owner", "identity_key"},
}

func (s *PostgresStore) MarkContacted(ctx context.Context, owner, source string, keys []model.IdentityKey) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		key := k.String()
		if k.IsZero() || seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, []any{owner, key, source, now})
	}
	n, err := db.InsertBulk(ctx, s.pool, contactedInsert, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: mark contacted")
	}
	return int(n), nil
}
