package venuefile

import (
	"bytes"
	"encoding/csv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/venue-cli/internal/model"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Venues"

// WriteXLSX exports venues as a single-sheet workbook with the same columns
// as the CSV.
func WriteXLSX(path string, venues []model.Venue) error {
	data, err := Encode(venues)
	if err != nil {
		return err
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return eris.Wrap(err, "xlsx: reparse rows")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}
