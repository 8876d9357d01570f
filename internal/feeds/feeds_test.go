package feeds

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-cli/internal/fetcher"
	"github.com/sells-group/venue-cli/internal/model"
)

const fhrsXML = `<?xml version="1.0" encoding="utf-8"?>
<FHRSEstablishment>
  <EstablishmentCollection>
    <EstablishmentDetail>
      <BusinessName>The Red Lion</BusinessName>
      <BusinessType>Pub/bar/nightclub</BusinessType>
      <AddressLine1>1 High Street</AddressLine1>
      <AddressLine2>Writtle</AddressLine2>
      <AddressLine3></AddressLine3>
      <AddressLine4>Chelmsford</AddressLine4>
      <PostCode>cm1 3aa</PostCode>
      <Geocode><Longitude>0.4312</Longitude><Latitude>51.7290</Latitude></Geocode>
    </EstablishmentDetail>
    <EstablishmentDetail>
      <BusinessName>Bella Italia</BusinessName>
      <BusinessType>Restaurant/Cafe/Canteen</BusinessType>
      <PostCode>CM1 1AB</PostCode>
      <Geocode />
    </EstablishmentDetail>
    <EstablishmentDetail>
      <BusinessName>Corner Shop</BusinessName>
      <BusinessType>Retailers - other</BusinessType>
      <PostCode>CM1 1AC</PostCode>
    </EstablishmentDetail>
  </EstablishmentCollection>
</FHRSEstablishment>`

func newTestFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{MaxRetries: 1, BaseBackoff: time.Millisecond})
}

func TestFHRSSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/FHRS109en-GB.xml", r.URL.Path)
		w.Write([]byte(fhrsXML))
	}))
	defer srv.Close()

	src := NewFHRSSource(newTestFetcher(), srv.URL+"/", 109)
	assert.Equal(t, "fhrs-109", src.Name())

	venues, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, venues, 2)

	pub := venues[0]
	assert.Equal(t, "The Red Lion", pub.Name)
	assert.Equal(t, "Pub", pub.BusinessType)
	assert.Equal(t, "Writtle, Chelmsford", pub.AddressLine2)
	assert.Equal(t, "CM1 3AA", pub.Postcode)
	require.NotNil(t, pub.Lat)
	assert.InDelta(t, 51.729, *pub.Lat, 0.0001)

	assert.Equal(t, "Restaurant", venues[1].BusinessType)
	assert.Nil(t, venues[1].Lat)
}

func TestFHRSSource_DownloadFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFHRSSource(newTestFetcher(), srv.URL, 1).Fetch(context.Background())
	assert.Error(t, err)
}

func zipOf(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create(name)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestOpenPubsSource(t *testing.T) {
	csvData := strings.Join([]string{
		`fsa_id,name,address,postcode,easting,northing,latitude,longitude,local_authority`,
		`1,The Anchor,"1 Quay, Maldon",CM9 4LQ,585000,207000,51.73,0.68,Maldon`,
		`2,The Bell,"2 Road",SS1 1AA,588000,186000,\N,\N,Southend-on-Sea`,
		`3,short,row`,
		`4,,"3 Road",CO1 1AA,1,1,51.8,0.9,Colchester`,
	}, "\n")
	archive := zipOf(t, "open_pubs.csv", csvData)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	src := NewOpenPubsSource(newTestFetcher(), srv.URL)
	venues, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, venues, 2)

	assert.Equal(t, "The Anchor", venues[0].Name)
	assert.Equal(t, "Pub", venues[0].BusinessType)
	assert.Equal(t, "1 Quay, Maldon", venues[0].AddressLine1)
	require.NotNil(t, venues[0].Lon)
	assert.InDelta(t, 0.68, *venues[0].Lon, 0.0001)
	assert.Nil(t, venues[1].Lat)
}

type stubSource struct {
	name   string
	venues []model.Venue
	err    error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Fetch(context.Context) ([]model.Venue, error) { return s.venues, s.err }

func TestCollectSkipsFailedSources(t *testing.T) {
	streams := Collect(context.Background(), []Source{
		stubSource{name: "a", venues: []model.Venue{{Name: "A"}}},
		stubSource{name: "b", err: errors.New("boom")},
		stubSource{name: "c", venues: []model.Venue{{Name: "C"}}},
	})

	require.Len(t, streams, 2)
	assert.Equal(t, "A", streams[0][0].Name)
	assert.Equal(t, "C", streams[1][0].Name)
}

func TestParseCoord(t *testing.T) {
	assert.Nil(t, parseCoord(""))
	assert.Nil(t, parseCoord(`\N`))
	require.NotNil(t, parseCoord(" 51.5 "))
	assert.InDelta(t, 51.5, *parseCoord("51.5"), 0.0001)
}
