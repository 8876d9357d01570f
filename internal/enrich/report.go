package enrich

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

// WriteReport writes r as indented JSON.
func WriteReport(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return eris.Wrap(err, "enrich: encode report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "enrich: write report %s", path)
	}
	return nil
}
