package feeds

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/venue-cli/internal/fetcher"
	"github.com/sells-group/venue-cli/internal/model"
)

// FHRS business types kept from the ratings feed.
var fhrsBusinessTypes = map[string]bool{
	"Restaurant/Cafe/Canteen": true,
	"Pub/bar/nightclub":       true,
}

type fhrsEstablishment struct {
	BusinessName    string `xml:"BusinessName"`
	BusinessType    string `xml:"BusinessType"`
	BusinessWebsite string `xml:"BusinessWebsite"`
	AddressLine1    string `xml:"AddressLine1"`
	AddressLine2    string `xml:"AddressLine2"`
	AddressLine3    string `xml:"AddressLine3"`
	AddressLine4    string `xml:"AddressLine4"`
	PostCode        string `xml:"PostCode"`
	Latitude        string `xml:"Geocode>Latitude"`
	Longitude       string `xml:"Geocode>Longitude"`
}

// FHRSSource reads one local authority's food hygiene ratings file.
type FHRSSource struct {
	fetcher     fetcher.Fetcher
	baseURL     string
	authorityID int
}

// NewFHRSSource creates a source for the given local authority.
func NewFHRSSource(f fetcher.Fetcher, baseURL string, authorityID int) *FHRSSource {
	return &FHRSSource{fetcher: f, baseURL: strings.TrimRight(baseURL, "/"), authorityID: authorityID}
}

// Name implements Source.
func (s *FHRSSource) Name() string { return fmt.Sprintf("fhrs-%d", s.authorityID) }

// URL returns the authority's open data file location.
func (s *FHRSSource) URL() string {
	return fmt.Sprintf("%s/FHRS%den-GB.xml", s.baseURL, s.authorityID)
}

// Fetch implements Source.
func (s *FHRSSource) Fetch(ctx context.Context) ([]model.Venue, error) {
	body, err := s.fetcher.Download(ctx, s.URL())
	if err != nil {
		return nil, eris.Wrapf(err, "feeds: download %s", s.Name())
	}
	defer body.Close() //nolint:errcheck

	title := cases.Title(language.English)
	var venues []model.Venue
	err = fetcher.DecodeXML(ctx, body, "EstablishmentDetail", func(e fhrsEstablishment) error {
		if !fhrsBusinessTypes[strings.TrimSpace(e.BusinessType)] {
			return nil
		}
		name := strings.TrimSpace(e.BusinessName)
		if name == "" {
			return nil
		}
		kind, _, _ := strings.Cut(strings.TrimSpace(e.BusinessType), "/")
		venues = append(venues, model.Venue{
			Name:         name,
			BusinessType: title.String(kind),
			Website:      strings.TrimSpace(e.BusinessWebsite),
			Lat:          parseCoord(e.Latitude),
			Lon:          parseCoord(e.Longitude),
			AddressLine1: strings.TrimSpace(e.AddressLine1),
			AddressLine2: joinNonEmpty(", ", e.AddressLine2, e.AddressLine3, e.AddressLine4),
			Postcode:     cleanPostcode(e.PostCode),
		})
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "feeds: decode %s", s.Name())
	}
	return venues, nil
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
