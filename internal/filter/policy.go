package filter

import (
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultFuzzyThreshold is the similarity at which a name counts as a chain.
const DefaultFuzzyThreshold = 0.8

// Chains shorter than this (after normalisation) are only matched as
// substrings; three- and four-letter names fuzz into ordinary words.
const minFuzzyLen = 5

// Reason strings, in priority order.
const (
	ReasonChain      = "Excluded chain/franchise"
	ReasonNonAlcohol = "Non-alcohol venue (coffee/cafe/tea)"
	ReasonGov        = "Government/educational domain"
	ReasonProperty   = "Property listing site"
	ReasonDirectory  = "Business directory/aggregator"
	ReasonUnknown    = "Unknown reason"
	ReasonNoWebsite  = "No website"
)

// DomainCategory classifies an excluded URL.
type DomainCategory int

const (
	DomainOK DomainCategory = iota
	DomainGov
	DomainProperty
	DomainDirectory
)

// Policy decides which venues and URLs are out of scope.
type Policy struct {
	lists     Lists
	threshold float64
	chainKeys []chainKey
}

type chainKey struct {
	raw    string
	norm   string
	tokens int
}

// Option configures a Policy.
type Option func(*Policy)

// WithFuzzyThreshold sets the chain similarity threshold.
func WithFuzzyThreshold(t float64) Option {
	return func(p *Policy) {
		if t > 0 {
			p.threshold = t
		}
	}
}

// NewPolicy builds a Policy. Empty lists fall back to the defaults.
func NewPolicy(lists Lists, opts ...Option) *Policy {
	p := &Policy{
		lists:     DefaultLists().Merge(lists),
		threshold: DefaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(p)
	}
	for _, c := range p.lists.Chains {
		lc := strings.ToLower(c)
		p.chainKeys = append(p.chainKeys, chainKey{
			raw:    lc,
			norm:   normalizeName(lc),
			tokens: len(strings.Fields(lc)),
		})
	}
	return p
}

// Lists returns the effective vocabularies.
func (p *Policy) Lists() Lists { return p.lists }

// ExcludeBusinessName reports whether the name is empty, a chain, or a
// non-alcohol venue.
func (p *Policy) ExcludeBusinessName(name string) bool {
	if name == "" {
		return true
	}
	return p.nameReason(name) != ""
}

// ExcludeDomain reports whether the URL is empty or belongs to an excluded
// domain category.
func (p *Policy) ExcludeDomain(url string) bool {
	if url == "" {
		return true
	}
	return p.Domain(url) != DomainOK
}

// IsChain reports a substring or fuzzy match against the chain list.
func (p *Policy) IsChain(name string) bool {
	lower := strings.ToLower(name)
	for _, c := range p.chainKeys {
		if strings.Contains(lower, c.raw) {
			return true
		}
	}

	n := normalizeName(lower)
	if n == "" {
		return false
	}
	words := strings.Fields(foldName(lower))
	for _, c := range p.chainKeys {
		if len(c.norm) < minFuzzyLen {
			continue
		}
		if NameSimilarity(n, c.norm) >= p.threshold {
			return true
		}
		for i := 0; i+c.tokens <= len(words); i++ {
			w := normalizeName(strings.Join(words[i:i+c.tokens], " "))
			if w != "" && NameSimilarity(w, c.norm) >= p.threshold {
				return true
			}
		}
	}
	return false
}

// Domain classifies url against the domain lists.
func (p *Policy) Domain(url string) DomainCategory {
	lower := strings.ToLower(url)
	switch {
	case containsAny(lower, p.lists.GovDomains):
		return DomainGov
	case containsAny(lower, p.lists.PropertyDomains):
		return DomainProperty
	case containsAny(lower, p.lists.Directories):
		return DomainDirectory
	}
	return DomainOK
}

// IsSocial reports whether url points at a social network.
func (p *Policy) IsSocial(url string) bool {
	return containsAny(strings.ToLower(url), p.lists.SocialDomains)
}

// Reason explains why a name and/or URL is excluded.
func (p *Policy) Reason(name, url string) string {
	var reasons []string
	if name != "" {
		if r := p.nameReason(name); r != "" {
			reasons = append(reasons, r)
		}
	}
	if url != "" {
		switch p.Domain(url) {
		case DomainGov:
			reasons = append(reasons, ReasonGov)
		case DomainProperty:
			reasons = append(reasons, ReasonProperty)
		case DomainDirectory:
			reasons = append(reasons, ReasonDirectory)
		}
	}
	if len(reasons) == 0 {
		return ReasonUnknown
	}
	return strings.Join(reasons, " | ")
}

func (p *Policy) nameReason(name string) string {
	if p.IsChain(name) {
		return ReasonChain
	}
	if containsAny(strings.ToLower(name), p.lists.Keywords) {
		return ReasonNonAlcohol
	}
	return ""
}

// NameSimilarity scores two strings in [0, 1].
func NameSimilarity(a, b string) float64 {
	return levenshtein.Similarity(a, b, nil)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// foldName strips diacritics.
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// normalizeName lowercases, folds accents and keeps only letters and digits.
func normalizeName(s string) string {
	s = strings.ToLower(foldName(s))
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
