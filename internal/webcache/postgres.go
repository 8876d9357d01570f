package webcache

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the cache uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend stores the cache in Postgres.
type PostgresBackend struct {
	pool    Pool
	closeFn func()
}

// NewPostgres connects a pool for the cache.
func NewPostgres(ctx context.Context, connString string) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresBackend{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS website_cache (
	cache_key TEXT PRIMARY KEY,
	website   TEXT,
	name      TEXT NOT NULL,
	postcode  TEXT NOT NULL,
	cached_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS website_cache_stats (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	hits        INTEGER NOT NULL DEFAULT 0,
	misses      INTEGER NOT NULL DEFAULT 0,
	additions   INTEGER NOT NULL DEFAULT 0,
	last_update TIMESTAMPTZ
);
`

// Migrate creates the cache tables.
func (b *PostgresBackend) Migrate(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Load implements Backend.
func (b *PostgresBackend) Load(ctx context.Context) (map[string]Entry, Stats, error) {
	var stats Stats

	rows, err := b.pool.Query(ctx,
		`SELECT cache_key, COALESCE(website, ''), website IS NULL, name, postcode, cached_at FROM website_cache`)
	if err != nil {
		return nil, stats, eris.Wrap(err, "postgres: query cache")
	}
	defer rows.Close()

	entries := make(map[string]Entry)
	for rows.Next() {
		var (
			key      string
			website  string
			absent   bool
			cachedAt time.Time
			e        Entry
		)
		if err := rows.Scan(&key, &website, &absent, &e.Name, &e.Postcode, &cachedAt); err != nil {
			return nil, stats, eris.Wrap(err, "postgres: scan cache row")
		}
		if !absent {
			e.Website = &website
		}
		e.Timestamp = cachedAt.UTC().Format(time.RFC3339Nano)
		entries[key] = e
	}
	if err := rows.Err(); err != nil {
		return nil, stats, eris.Wrap(err, "postgres: iterate cache")
	}

	var last string
	err = b.pool.QueryRow(ctx,
		`SELECT hits, misses, additions, COALESCE(to_char(last_update AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"'), '') FROM website_cache_stats WHERE id = 1`,
	).Scan(&stats.Hits, &stats.Misses, &stats.Additions, &last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, Stats{}, eris.Wrap(err, "postgres: query stats")
	}
	if last != "" {
		stats.LastUpdate = &last
	}

	return entries, stats, nil
}

// Save implements Backend, upserting only the dirty keys.
func (b *PostgresBackend) Save(ctx context.Context, batch Batch) error {
	for _, key := range batch.Dirty {
		e, ok := batch.Entries[key]
		if !ok {
			continue
		}
		cachedAt := time.Now().UTC()
		if ts, ok := parseTimestamp(e.Timestamp); ok {
			cachedAt = ts
		}
		if _, err := b.pool.Exec(ctx,
			`INSERT INTO website_cache (cache_key, website, name, postcode, cached_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (cache_key) DO UPDATE SET
				website = EXCLUDED.website,
				name = EXCLUDED.name,
				postcode = EXCLUDED.postcode,
				cached_at = EXCLUDED.cached_at`,
			key, e.Website, e.Name, e.Postcode, cachedAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: upsert %s", key)
		}
	}

	if _, err := b.pool.Exec(ctx,
		`INSERT INTO website_cache_stats (id, hits, misses, additions, last_update)
		 VALUES (1, $1, $2, $3, now())
		 ON CONFLICT (id) DO UPDATE SET
			hits = EXCLUDED.hits,
			misses = EXCLUDED.misses,
			additions = EXCLUDED.additions,
			last_update = EXCLUDED.last_update`,
		batch.Stats.Hits, batch.Stats.Misses, batch.Stats.Additions,
	); err != nil {
		return eris.Wrap(err, "postgres: upsert stats")
	}
	return nil
}

// Close implements Backend.
func (b *PostgresBackend) Close() error {
	if b.closeFn != nil {
		b.closeFn()
	}
	return nil
}
