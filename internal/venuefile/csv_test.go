package venuefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-cli/internal/model"
)

func f64(v float64) *float64 { return &v }

func TestReadInputSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venues.csv")
	data := "name,business_type,website,lat,lon,address_line1,address_line2,postcode,rating\n" +
		"The Red Lion,Pub,https://redlion.example,51.7356,0.4685,1 High St,\"Chelmsford, Essex\",CM1 1AA,5\n" +
		"The Swan,Pub,,,,2 Low Rd,,CM2 2BB,\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	venues, err := Read(path)
	require.NoError(t, err)
	require.Len(t, venues, 2)

	assert.Equal(t, "The Red Lion", venues[0].Name)
	require.NotNil(t, venues[0].Lat)
	assert.InDelta(t, 51.7356, *venues[0].Lat, 1e-9)
	assert.Equal(t, "Chelmsford, Essex", venues[0].AddressLine2)
	assert.Nil(t, venues[1].Lat)
	assert.Nil(t, venues[1].Lon)
	assert.Empty(t, venues[1].Website)
}

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "enriched.csv")
	in := []model.Venue{
		{
			Name: "The Red Lion", BusinessType: "Pub", Website: "https://redlion.example",
			Lat: f64(51.7356), Lon: f64(0.4685), Postcode: "CM1 1AA",
			EmailFound: "info@redlion.example", PhoneFound: "01245123456",
			ExtractionStatus: model.ExtractionSuccess, ExtractionMethod: "direct_http",
		},
		{Name: "The Swan", Postcode: "CM2 2BB", ExtractionStatus: model.ExtractionSkipped, ExtractionNotes: "No website"},
	}
	require.NoError(t, Write(path, in))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	out, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriteEmptyHasHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, Write(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(Header(), ","), strings.TrimSpace(string(data)))

	venues, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, venues)
}

func TestHeaderOrder(t *testing.T) {
	h := Header()
	assert.Equal(t, []string{"name", "business_type", "website", "lat", "lon", "address_line1", "address_line2", "postcode"}, h[:8])
	assert.Contains(t, h, "extraction_timestamp")
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	venues, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, venues)
}
