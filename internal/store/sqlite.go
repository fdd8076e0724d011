package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // driver

	"github.com/sells-group/prospect-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Domain cache timestamps are unix seconds so expiry compares numerically.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS search_runs (
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL DEFAULT '',
	query      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS domain_cache (
	employer    TEXT PRIMARY KEY,
	domain      TEXT NOT NULL,
	resolved_at INTEGER NOT NULL,
	expires_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS contacted (
	owner        TEXT NOT NULL,
	identity_key TEXT NOT NULL,
	source       TEXT NOT NULL,
	created_at   DATETIME NOT NULL,
	PRIMARY KEY (owner, identity_key)
);

CREATE INDEX IF NOT EXISTS idx_search_runs_status ON search_runs(status);
CREATE INDEX IF NOT EXISTS idx_search_runs_owner ON search_runs(owner);
CREATE INDEX IF NOT EXISTS idx_domain_cache_expires_at ON domain_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, owner string, query model.SearchQuery) (*model.SearchRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal query")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_runs (id, owner, query, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, owner, string(queryJSON), string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
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

func (s *SQLiteStore) StartRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE search_runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusRunning), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: start run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE search_runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE search_runs SET error = ?, status = ?, updated_at = ? WHERE id = ?`,
		msg, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

const sqliteRunColumns = `id, owner, query, status, result, error, created_at, updated_at`

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.SearchRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteRunColumns+` FROM search_runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: run %s", runID)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.SearchRun, error) {
	query := `SELECT ` + sqliteRunColumns + ` FROM search_runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Owner != "" {
		query += ` AND owner = ?`
		args = append(args, filter.Owner)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.SearchRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) GetCachedDomain(ctx context.Context, employer string) (*model.DomainCacheEntry, error) {
	var e model.DomainCacheEntry
	var resolvedAt, expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT employer, domain, resolved_at, expires_at FROM domain_cache WHERE employer = ? AND expires_at > ?`,
		employer, time.Now().Unix(),
	).Scan(&e.Employer, &e.Domain, &resolvedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get cached domain %s", employer)
	}
	e.ResolvedAt = time.Unix(resolvedAt, 0).UTC()
	e.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return &e, nil
}

func (s *SQLiteStore) SetCachedDomain(ctx context.Context, entry model.DomainCacheEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO domain_cache (employer, domain, resolved_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (employer) DO UPDATE SET domain = excluded.domain,
		   resolved_at = excluded.resolved_at, expires_at = excluded.expires_at`,
		entry.Employer, entry.Domain, entry.ResolvedAt.Unix(), entry.ExpiresAt.Unix(),
	)
	return eris.Wrapf(err, "sqlite: set cached domain %s", entry.Employer)
}

func (s *SQLiteStore) DeleteExpiredDomains(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM domain_cache WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired domains")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) ListContacted(ctx context.Context, owner string) ([]model.ContactedRecord, error) {
	query := `SELECT owner, identity_key, source, created_at FROM contacted`
	var args []any
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at, identity_key`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacted")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ContactedRecord
	for rows.Next() {
		rec, err := scanContacted(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list contacted iterate")
}

func (s *SQLiteStore) MarkContacted(ctx context.Context, owner, source string, keys []model.IdentityKey) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin mark contacted")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO contacted (owner, identity_key, source, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (owner, identity_key) DO NOTHING`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare mark contacted")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	inserted := 0
	for _, k := range keys {
		if k.IsZero() {
			continue
		}
		res, err := stmt.ExecContext(ctx, owner, k.String(), source, now)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: mark contacted %s", k)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit mark contacted")
	}
	return inserted, nil
}

// helpers

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.SearchRun, error) {
	var r model.SearchRun
	var queryJSON string
	var resultJSON sql.NullString

	err := row.Scan(&r.ID, &r.Owner, &queryJSON, &r.Status, &resultJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if err := decodeRun(&r, []byte(queryJSON), resultJSON.Valid, []byte(resultJSON.String)); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanContacted(row scannable) (model.ContactedRecord, error) {
	var rec model.ContactedRecord
	var key string
	if err := row.Scan(&rec.Owner, &key, &rec.Source, &rec.CreatedAt); err != nil {
		return rec, eris.Wrap(err, "scan contacted")
	}
	k, err := model.ParseIdentityKey(key)
	if err != nil {
		return rec, eris.Wrapf(err, "parse contacted key %q", key)
	}
	rec.Key = k
	return rec, nil
}

func decodeRun(r *model.SearchRun, queryJSON []byte, hasResult bool, resultJSON []byte) error {
	if err := json.Unmarshal(queryJSON, &r.Query); err != nil {
		return eris.Wrap(err, "store: unmarshal query")
	}
	if hasResult && len(resultJSON) > 0 {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal(resultJSON, r.Result); err != nil {
			return eris.Wrap(err, "store: unmarshal result")
		}
	}
	return nil
}
