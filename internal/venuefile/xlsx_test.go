package venuefile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/venue-cli/internal/model"
)

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venues.xlsx")
	venues := []model.Venue{
		{Name: "The Red Lion", BusinessType: "Pub", Postcode: "CM1 1AA", EmailFound: "info@redlion.example"},
		{Name: "The Swan", BusinessType: "Pub", Postcode: "CM2 2BB"},
	}
	require.NoError(t, WriteXLSX(path, venues))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)

	header := sheet.Rows[0].Cells
	assert.Equal(t, "name", header[0].String())
	assert.Equal(t, "The Red Lion", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "CM2 2BB", sheet.Rows[2].Cells[7].String())
}
