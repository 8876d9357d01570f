package filter

import (
	"fmt"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-cli/internal/model"
)

// FilterType categorises a filter log entry.
type FilterType string

const (
	TypeBusinessName    FilterType = "business_name"
	TypeDomain          FilterType = "domain"
	TypePropertyListing FilterType = "property_listing"
	TypeNoWebsite       FilterType = "no_website"
)

// LogEntry is one row of the filter audit log.
type LogEntry struct {
	VenueName  string     `csv:"venue_name" json:"venue_name"`
	Reason     string     `csv:"reason" json:"reason"`
	FilterType FilterType `csv:"filter_type" json:"filter_type"`
}

// Stats counts filtering decisions and keeps the audit log.
type Stats struct {
	policy *Policy

	TotalProcessed int
	Passed         int

	counts  map[FilterType]int
	entries []LogEntry
}

// NewStats creates a Stats bound to a policy.
func NewStats(p *Policy) *Stats {
	return &Stats{policy: p, counts: make(map[FilterType]int)}
}

// Policy returns the policy the stats apply.
func (s *Stats) Policy() *Policy { return s.policy }

// Log appends an entry and bumps the counter for its type.
func (s *Stats) Log(name, reason string, ft FilterType) {
	s.entries = append(s.entries, LogEntry{VenueName: name, Reason: reason, FilterType: ft})
	s.counts[ft]++
}

// Count returns how many venues were filtered with the given type.
func (s *Stats) Count(ft FilterType) int { return s.counts[ft] }

// Entries returns the audit log.
func (s *Stats) Entries() []LogEntry { return s.entries }

// Check runs the name, website-presence, and domain checks in that order.
// It returns false with the logged reason when the venue is filtered.
func (s *Stats) Check(v model.Venue) (bool, string) {
	s.TotalProcessed++

	if s.policy.ExcludeBusinessName(v.Name) {
		reason := s.policy.Reason(v.Name, "")
		s.Log(v.Name, reason, TypeBusinessName)
		return false, reason
	}

	if v.Website == "" {
		s.Log(v.Name, ReasonNoWebsite, TypeNoWebsite)
		return false, ReasonNoWebsite
	}

	if s.policy.ExcludeDomain(v.Website) {
		reason := s.policy.Reason("", v.Website)
		ft := TypeDomain
		if s.policy.Domain(v.Website) == DomainProperty {
			ft = TypePropertyListing
		}
		s.Log(v.Name, reason, ft)
		return false, reason
	}

	s.Passed++
	return true, ""
}

// Summary renders the counters as a text block.
func (s *Stats) Summary() string {
	filtered := s.TotalProcessed - s.Passed
	var b strings.Builder
	b.WriteString("Filter summary\n")
	fmt.Fprintf(&b, "  total processed:   %d\n", s.TotalProcessed)
	fmt.Fprintf(&b, "  passed:            %d\n", s.Passed)
	fmt.Fprintf(&b, "  filtered:          %d\n", filtered)
	fmt.Fprintf(&b, "    business name:   %d\n", s.counts[TypeBusinessName])
	fmt.Fprintf(&b, "    no website:      %d\n", s.counts[TypeNoWebsite])
	fmt.Fprintf(&b, "    domain:          %d\n", s.counts[TypeDomain])
	fmt.Fprintf(&b, "    property listing: %d\n", s.counts[TypePropertyListing])
	if s.TotalProcessed > 0 {
		fmt.Fprintf(&b, "  pass rate:         %.1f%%\n", float64(s.Passed)/float64(s.TotalProcessed)*100)
	}
	return b.String()
}

// SaveLog writes the audit log as CSV. An empty log writes an empty file.
func (s *Stats) SaveLog(path string) error {
	var data []byte
	if len(s.entries) > 0 {
		var err error
		data, err = csvutil.Marshal(s.entries)
		if err != nil {
			return eris.Wrap(err, "filter: encode log")
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "filter: write log %s", path)
	}
	return nil
}
