// Package snapshot holds a downloaded copy of region venues from
// OpenStreetMap, used when the live query servers are unreachable.
package snapshot

import (
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Coord is a coordinate that tolerates numbers, numeric strings, and blanks.
type Coord float64

// UnmarshalJSON implements json.Unmarshaler.
func (c *Coord) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return eris.Wrapf(err, "snapshot: parse coordinate %q", s)
	}
	*c = Coord(f)
	return nil
}

// Venue is one OSM element flattened for offline lookup.
type Venue struct {
	Name     string `json:"name"`
	Website  string `json:"website"`
	Lat      Coord  `json:"lat"`
	Lon      Coord  `json:"lon"`
	Postcode string `json:"postcode"`
	Address  string `json:"address"`
	Amenity  string `json:"amenity"`
	Source   string `json:"source"`
}

// Snapshot is the offline dataset.
type Snapshot struct {
	Venues    []Venue `json:"venues"`
	Area      string  `json:"area,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// Load reads a snapshot file. A missing file yields an empty snapshot.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: read %s", path)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "snapshot: decode %s", path)
	}
	return &s, nil
}

// Save writes venues to path.
func Save(path, area string, venues []Venue) error {
	s := Snapshot{Venues: venues, Area: area, CreatedAt: time.Now().UTC().Format(time.RFC3339)}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return eris.Wrap(err, "snapshot: encode")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "snapshot: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "snapshot: rename %s", tmp)
	}
	return nil
}

// FindWebsite returns the website of the first venue whose name matches
// exactly (case-insensitive), then of the first whose name contains or is
// contained by the query. Both passes require the postcode to match
// exactly, case included.
// It returns "" when nothing with a website matches.
func (s *Snapshot) FindWebsite(name, postcode string) string {
	if s == nil || name == "" {
		return ""
	}
	qName := strings.ToLower(strings.TrimSpace(name))
	qPC := strings.TrimSpace(postcode)

	for _, v := range s.Venues {
		if v.Website != "" && strings.ToLower(v.Name) == qName && v.Postcode == qPC {
			return v.Website
		}
	}
	for _, v := range s.Venues {
		if v.Website == "" || v.Postcode != qPC {
			continue
		}
		vn := strings.ToLower(v.Name)
		if vn == "" {
			continue
		}
		if strings.Contains(vn, qName) || strings.Contains(qName, vn) {
			return v.Website
		}
	}
	return ""
}

// Len returns the number of venues.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Venues)
}
