package webcache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// File names inside the cache directory.
const (
	EntriesFile = "venue_websites.json"
	StatsFile   = "cache_stats.json"
)

type entriesDoc struct {
	Venues  map[string]Entry `json:"venues"`
	Updated string           `json:"updated"`
	Version string           `json:"version"`
}

// JSONBackend stores the cache as two JSON files in a directory.
type JSONBackend struct {
	dir string
}

// NewJSONBackend creates a backend rooted at dir.
func NewJSONBackend(dir string) *JSONBackend {
	return &JSONBackend{dir: dir}
}

// Load implements Backend. A missing entries file is an empty cache; an
// unreadable stats file resets the counters.
func (b *JSONBackend) Load(_ context.Context) (map[string]Entry, Stats, error) {
	var stats Stats
	entries := make(map[string]Entry)

	data, err := os.ReadFile(filepath.Join(b.dir, EntriesFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, stats, eris.Wrap(err, "webcache: read entries")
	default:
		var doc entriesDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, stats, eris.Wrap(err, "webcache: decode entries")
		}
		if doc.Venues != nil {
			entries = doc.Venues
		}
	}

	if data, err := os.ReadFile(filepath.Join(b.dir, StatsFile)); err == nil {
		if err := json.Unmarshal(data, &stats); err != nil {
			zap.L().Debug("webcache: ignoring unreadable stats", zap.Error(err))
			stats = Stats{}
		}
	}

	return entries, stats, nil
}

// Save implements Backend by rewriting both files.
func (b *JSONBackend) Save(_ context.Context, batch Batch) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return eris.Wrap(err, "webcache: create dir")
	}

	doc := entriesDoc{
		Venues:  batch.Entries,
		Updated: time.Now().UTC().Format(time.RFC3339Nano),
		Version: "1.0",
	}
	if doc.Venues == nil {
		doc.Venues = map[string]Entry{}
	}
	if err := writeJSON(filepath.Join(b.dir, EntriesFile), doc); err != nil {
		return err
	}
	return writeJSON(filepath.Join(b.dir, StatsFile), batch.Stats)
}

// Close implements Backend.
func (b *JSONBackend) Close() error { return nil }

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "webcache: encode %s", filepath.Base(path))
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "webcache: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "webcache: rename %s", tmp)
	}
	return nil
}
