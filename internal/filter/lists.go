package filter

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Lists holds the exclusion vocabularies. All entries are matched
// case-insensitively as substrings.
type Lists struct {
	Chains          []string `yaml:"chains"`
	Keywords        []string `yaml:"keywords"`
	GovDomains      []string `yaml:"gov_domains"`
	PropertyDomains []string `yaml:"property_domains"`
	Directories     []string `yaml:"directories"`
	SocialDomains   []string `yaml:"social_domains"`
}

// DefaultLists returns the built-in vocabularies.
func DefaultLists() Lists {
	return Lists{
		Chains: []string{
			"mcdonald's", "mcdonalds", "burger king", "kfc", "subway",
			"starbucks", "costa coffee", "costa", "pret a manger", "pret",
			"five guys", "taco bell", "nandos", "nando's", "popeyes",
			"wendy's", "wendys", "greggs", "pizza hut", "dominos",
			"domino's", "papa johns", "papa john's", "john lewis",
		},
		Keywords: []string{"coffee", "cafe", "tea", "bakery", "sandwich"},
		GovDomains: []string{
			".gov", ".gov.uk", ".nhs.uk", ".ac.uk", ".edu",
			".police.uk", ".mod.uk", ".parliament.uk",
		},
		PropertyDomains: []string{
			"zoopla.co.uk", "rightmove.co.uk", "onthemarket.com",
			"primelocation.com", "purplebricks.co.uk", "foxtons.co.uk",
			"knight-frank.co.uk", "savills.co.uk", "hamptons.co.uk",
			"spareroom.co.uk", "openrent.com",
		},
		Directories: []string{
			"yell.com", "yelp.com", "yelp.co.uk", "tripadvisor.com",
			"tripadvisor.co.uk", "scoot.co.uk", "192.com", "thomsonlocal.com",
			"opentable.com", "opentable.co.uk", "bookatable.com",
			"bookatable.co.uk", "timeout.com", "designmynight.com",
			"hardens.com", "allinlondon.co.uk", "squaremeal.co.uk",
			"londontown.com", "visitlondon.com",
		},
		SocialDomains: []string{
			"facebook.com", "instagram.com", "twitter.com", "x.com",
			"linkedin.com", "tiktok.com", "youtube.com", "pinterest.com",
		},
	}
}

// Merge returns l with every non-empty list in o replacing its counterpart.
func (l Lists) Merge(o Lists) Lists {
	pick := func(base, over []string) []string {
		if len(over) > 0 {
			return over
		}
		return base
	}
	return Lists{
		Chains:          pick(l.Chains, o.Chains),
		Keywords:        pick(l.Keywords, o.Keywords),
		GovDomains:      pick(l.GovDomains, o.GovDomains),
		PropertyDomains: pick(l.PropertyDomains, o.PropertyDomains),
		Directories:     pick(l.Directories, o.Directories),
		SocialDomains:   pick(l.SocialDomains, o.SocialDomains),
	}
}

// LoadLists reads a YAML lists file.
func LoadLists(path string) (Lists, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lists{}, eris.Wrapf(err, "filter: read lists %s", path)
	}
	var l Lists
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Lists{}, eris.Wrapf(err, "filter: parse lists %s", path)
	}
	return l, nil
}
