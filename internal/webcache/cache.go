// Package webcache persists venue website lookups between runs.
package webcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/model"
)

// Defaults for a Store.
const (
	DefaultTTL        = 30 * 24 * time.Hour
	DefaultFlushEvery = 50
)

// Entry is one cached lookup. A nil Website records a confirmed absence.
type Entry struct {
	Website   *string `json:"website"`
	Timestamp string  `json:"timestamp,omitempty"`
	Name      string  `json:"name"`
	Postcode  string  `json:"postcode"`
}

// Stats are the cache counters persisted alongside the entries.
type Stats struct {
	Hits       int     `json:"hits"`
	Misses     int     `json:"misses"`
	Additions  int     `json:"additions"`
	LastUpdate *string `json:"last_update"`
}

// Lookup is a fresh cache hit.
type Lookup struct {
	Website string
	// Absent is true when the cache records that no website exists.
	Absent bool
}

// Batch is what a backend persists on flush.
type Batch struct {
	Entries map[string]Entry
	// Dirty lists keys written since the previous flush.
	Dirty []string
	Stats Stats
}

// Backend loads and saves cache state.
type Backend interface {
	Load(ctx context.Context) (map[string]Entry, Stats, error)
	Save(ctx context.Context, b Batch) error
	Close() error
}

// Summary reports cache usage.
type Summary struct {
	TotalCached int     `json:"total_cached"`
	Hits        int     `json:"hits"`
	Misses      int     `json:"misses"`
	HitRate     string  `json:"hit_rate"`
	LastUpdate  *string `json:"last_update"`
}

// Store is the in-memory cache, authoritative for the run, backed by a
// Backend that is flushed periodically.
type Store struct {
	backend    Backend
	ttl        time.Duration
	flushEvery int
	now        func() time.Time

	mu         sync.Mutex
	entries    map[string]Entry
	dirty      map[string]struct{}
	stats      Stats
	sinceFlush int
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the freshness window. Zero disables expiry.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithFlushEvery sets how many additions trigger a flush.
func WithFlushEvery(n int) Option {
	return func(s *Store) { s.flushEvery = n }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Key renders the cache key for a venue.
func Key(name, postcode string) string {
	return model.KeyFor(name, postcode).String()
}

// New loads the backend's state. A load failure is logged and the store
// starts empty.
func New(ctx context.Context, backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		ttl:        DefaultTTL,
		flushEvery: DefaultFlushEvery,
		now:        time.Now,
		entries:    make(map[string]Entry),
		dirty:      make(map[string]struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	if backend != nil {
		entries, stats, err := backend.Load(ctx)
		if err != nil {
			zap.L().Warn("webcache: load failed, starting empty", zap.Error(err))
		} else {
			if entries != nil {
				s.entries = entries
			}
			s.stats = stats
		}
	}

	zap.L().Info("webcache: loaded", zap.Int("entries", len(s.entries)))
	return s
}

// Get returns a fresh entry. Stale, missing, and unparseable-timestamp
// entries are misses.
func (s *Store) Get(name, postcode string) (Lookup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[Key(name, postcode)]
	if !ok || !s.fresh(e) {
		s.stats.Misses++
		return Lookup{}, false
	}

	s.stats.Hits++
	if e.Website == nil {
		return Lookup{Absent: true}, true
	}
	return Lookup{Website: *e.Website}, true
}

// Set records a lookup result. A nil website records a confirmed absence.
func (s *Store) Set(ctx context.Context, name, postcode string, website *string) {
	s.mu.Lock()
	key := Key(name, postcode)
	var w *string
	if website != nil {
		v := *website
		w = &v
	}
	s.entries[key] = Entry{
		Website:   w,
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		Name:      name,
		Postcode:  postcode,
	}
	s.dirty[key] = struct{}{}
	s.stats.Additions++
	s.sinceFlush++
	due := s.flushEvery > 0 && s.sinceFlush >= s.flushEvery
	s.mu.Unlock()

	if due {
		_ = s.Flush(ctx)
	}
}

// Flush persists the current state. Failures are logged and returned; the
// in-memory state is kept either way.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	now := s.now().UTC().Format(time.RFC3339Nano)
	s.stats.LastUpdate = &now
	b := Batch{
		Entries: make(map[string]Entry, len(s.entries)),
		Stats:   s.stats,
	}
	for k, e := range s.entries {
		b.Entries[k] = e
	}
	for k := range s.dirty {
		b.Dirty = append(b.Dirty, k)
	}
	s.mu.Unlock()

	if s.backend == nil {
		return nil
	}
	if err := s.backend.Save(ctx, b); err != nil {
		zap.L().Warn("webcache: save failed", zap.Error(err))
		return err
	}

	s.mu.Lock()
	for _, k := range b.Dirty {
		delete(s.dirty, k)
	}
	s.sinceFlush = 0
	s.mu.Unlock()
	return nil
}

// Finalize flushes and logs usage.
func (s *Store) Finalize(ctx context.Context) error {
	err := s.Flush(ctx)
	sum := s.Summary()
	zap.L().Info("webcache: finalized",
		zap.Int("total_cached", sum.TotalCached),
		zap.Int("hits", sum.Hits),
		zap.Int("misses", sum.Misses),
		zap.String("hit_rate", sum.HitRate),
	)
	return err
}

// Summary reports cache usage.
func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	rate := 0.0
	if total := s.stats.Hits + s.stats.Misses; total > 0 {
		rate = float64(s.stats.Hits) / float64(total) * 100
	}
	return Summary{
		TotalCached: len(s.entries),
		Hits:        s.stats.Hits,
		Misses:      s.stats.Misses,
		HitRate:     fmt.Sprintf("%.1f%%", rate),
		LastUpdate:  s.stats.LastUpdate,
	}
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close releases the backend.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

func (s *Store) fresh(e Entry) bool {
	if e.Timestamp == "" || s.ttl <= 0 {
		return true
	}
	ts, ok := parseTimestamp(e.Timestamp)
	if !ok {
		return false
	}
	return s.now().Sub(ts) < s.ttl
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp accepts RFC 3339 and naive ISO-8601 timestamps; naive
// ones are read as local time.
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
