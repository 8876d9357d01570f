package feeds

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-cli/internal/fetcher"
	"github.com/sells-group/venue-cli/internal/model"
)

// openPubsHeader is the dataset's column order; the file's own first row
// is discarded.
var openPubsHeader = []string{
	"fsa_id", "name", "address", "postcode", "easting",
	"northing", "latitude", "longitude", "local_authority",
}

type openPubsRow struct {
	FSAID          string `csv:"fsa_id"`
	Name           string `csv:"name"`
	Address        string `csv:"address"`
	Postcode       string `csv:"postcode"`
	Easting        string `csv:"easting"`
	Northing       string `csv:"northing"`
	Latitude       string `csv:"latitude"`
	Longitude      string `csv:"longitude"`
	LocalAuthority string `csv:"local_authority"`
}

// OpenPubsSource reads the zipped Open Pubs CSV.
type OpenPubsSource struct {
	fetcher fetcher.Fetcher
	url     string
}

// NewOpenPubsSource creates a source for the given archive URL.
func NewOpenPubsSource(f fetcher.Fetcher, url string) *OpenPubsSource {
	return &OpenPubsSource{fetcher: f, url: url}
}

// Name implements Source.
func (s *OpenPubsSource) Name() string { return "open-pubs" }

// Fetch implements Source.
func (s *OpenPubsSource) Fetch(ctx context.Context) ([]model.Venue, error) {
	data, err := s.fetcher.DownloadBytes(ctx, s.url)
	if err != nil {
		return nil, eris.Wrap(err, "feeds: download open pubs")
	}

	rc, _, err := fetcher.OpenZIPSingle(data)
	if err != nil {
		return nil, eris.Wrap(err, "feeds: open pubs archive")
	}
	defer rc.Close() //nolint:errcheck

	venues, err := parseOpenPubs(rc)
	if err != nil {
		return nil, eris.Wrap(err, "feeds: parse open pubs")
	}
	return venues, nil
}

func parseOpenPubs(r io.Reader) ([]model.Venue, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	dec, err := csvutil.NewDecoder(cr, openPubsHeader...)
	if err != nil {
		return nil, eris.Wrap(err, "csv decoder")
	}

	var venues []model.Venue
	first := true
	for {
		var row openPubsRow
		err := dec.Decode(&row)
		if err == io.EOF {
			break
		}
		if errors.Is(err, csvutil.ErrFieldCount) {
			first = false
			continue
		}
		if err != nil {
			return nil, eris.Wrap(err, "decode row")
		}
		if first {
			first = false
			continue
		}
		if len(dec.Record()) != len(openPubsHeader) {
			continue
		}
		name := strings.TrimSpace(row.Name)
		if name == "" {
			continue
		}
		venues = append(venues, model.Venue{
			Name:         name,
			BusinessType: "Pub",
			Lat:          parseCoord(row.Latitude),
			Lon:          parseCoord(row.Longitude),
			AddressLine1: strings.TrimSpace(row.Address),
			Postcode:     cleanPostcode(row.Postcode),
		})
	}
	return venues, nil
}
