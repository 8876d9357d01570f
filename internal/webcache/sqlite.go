package webcache

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteBackend stores the cache in a SQLite database.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteBackend, error) {
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
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteBackend{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS website_cache (
	cache_key TEXT PRIMARY KEY,
	website   TEXT,
	name      TEXT NOT NULL,
	postcode  TEXT NOT NULL,
	cached_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS website_cache_stats (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	hits        INTEGER NOT NULL DEFAULT 0,
	misses      INTEGER NOT NULL DEFAULT 0,
	additions   INTEGER NOT NULL DEFAULT 0,
	last_update TEXT
);
`

// Migrate creates the cache tables.
func (b *SQLiteBackend) Migrate(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Load implements Backend.
func (b *SQLiteBackend) Load(ctx context.Context) (map[string]Entry, Stats, error) {
	var stats Stats

	rows, err := b.db.QueryContext(ctx,
		`SELECT cache_key, website, name, postcode, cached_at FROM website_cache`)
	if err != nil {
		return nil, stats, eris.Wrap(err, "sqlite: query cache")
	}
	defer rows.Close() //nolint:errcheck

	entries := make(map[string]Entry)
	for rows.Next() {
		var (
			key     string
			website sql.NullString
			e       Entry
		)
		if err := rows.Scan(&key, &website, &e.Name, &e.Postcode, &e.Timestamp); err != nil {
			return nil, stats, eris.Wrap(err, "sqlite: scan cache row")
		}
		if website.Valid {
			w := website.String
			e.Website = &w
		}
		entries[key] = e
	}
	if err := rows.Err(); err != nil {
		return nil, stats, eris.Wrap(err, "sqlite: iterate cache")
	}

	var last sql.NullString
	err = b.db.QueryRowContext(ctx,
		`SELECT hits, misses, additions, last_update FROM website_cache_stats WHERE id = 1`,
	).Scan(&stats.Hits, &stats.Misses, &stats.Additions, &last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, Stats{}, eris.Wrap(err, "sqlite: query stats")
	}
	if last.Valid {
		s := last.String
		stats.LastUpdate = &s
	}

	return entries, stats, nil
}

// Save implements Backend, upserting only the dirty keys.
func (b *SQLiteBackend) Save(ctx context.Context, batch Batch) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, key := range batch.Dirty {
		e, ok := batch.Entries[key]
		if !ok {
			continue
		}
		var website any
		if e.Website != nil {
			website = *e.Website
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO website_cache (cache_key, website, name, postcode, cached_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (cache_key) DO UPDATE SET
				website = excluded.website,
				name = excluded.name,
				postcode = excluded.postcode,
				cached_at = excluded.cached_at`,
			key, website, e.Name, e.Postcode, e.Timestamp,
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert %s", key)
		}
	}

	var last any
	if batch.Stats.LastUpdate != nil {
		last = *batch.Stats.LastUpdate
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO website_cache_stats (id, hits, misses, additions, last_update)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			hits = excluded.hits,
			misses = excluded.misses,
			additions = excluded.additions,
			last_update = excluded.last_update`,
		batch.Stats.Hits, batch.Stats.Misses, batch.Stats.Additions, last,
	); err != nil {
		return eris.Wrap(err, "sqlite: upsert stats")
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// Close implements Backend.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
