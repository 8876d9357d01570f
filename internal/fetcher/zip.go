package fetcher

import (
	"archive/zip"
	"bytes"
	"io"

	"github.com/rotisserie/eris"
)

// OpenZIPSingle opens the only file inside an in-memory ZIP archive.
// Directory entries are ignored.
func OpenZIPSingle(data []byte) (io.ReadCloser, string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, "", eris.Wrap(err, "zip: open archive")
	}

	var files []*zip.File
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}
	if len(files) != 1 {
		return nil, "", eris.Errorf("zip: expected exactly 1 file, got %d", len(files))
	}

	rc, err := files[0].Open()
	if err != nil {
		return nil, "", eris.Wrapf(err, "zip: open %s", files[0].Name)
	}
	return rc, files[0].Name, nil
}
