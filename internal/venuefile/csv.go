// Package venuefile reads and writes venue lists as CSV and XLSX.
package venuefile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-cli/internal/model"
)

// Header returns the output column order.
func Header() []string {
	h, _ := csvutil.Header(model.Venue{}, "csv")
	return h
}

// Read loads venues from a CSV file with a header row. Unknown columns are
// ignored and missing ones left empty.
func Read(path string) ([]model.Venue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "venuefile: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return Decode(f)
}

// Decode reads venues from CSV.
func Decode(r io.Reader) ([]model.Venue, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(cr)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "venuefile: read header")
	}

	var venues []model.Venue
	for {
		var v model.Venue
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "venuefile: decode row %d", len(venues)+2)
		}
		venues = append(venues, v)
	}
	return venues, nil
}

// Encode renders venues as CSV with a header row.
func Encode(venues []model.Venue) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(w)
	if len(venues) == 0 {
		if err := enc.EncodeHeader(model.Venue{}); err != nil {
			return nil, eris.Wrap(err, "venuefile: encode header")
		}
	}
	for i := range venues {
		if err := enc.Encode(venues[i]); err != nil {
			return nil, eris.Wrapf(err, "venuefile: encode %s", venues[i].Name)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, eris.Wrap(err, "venuefile: flush")
	}
	return buf.Bytes(), nil
}

// Write replaces path with the venues, writing through a temp file so a
// crash never leaves a truncated list.
func Write(path string, venues []model.Venue) error {
	data, err := Encode(venues)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "venuefile: create dir %s", dir)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "venuefile: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "venuefile: rename %s", tmp)
	}
	return nil
}
