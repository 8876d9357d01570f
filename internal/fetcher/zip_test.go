package fetcher

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZIP(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestOpenZIPSingle(t *testing.T) {
	data := buildZIP(t, map[string]string{"open_pubs.csv": "a,b,c\n"})

	rc, name, err := OpenZIPSingle(data)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "open_pubs.csv", name)
	assert.Equal(t, "a,b,c\n", string(content))
}

func TestOpenZIPSingle_MultipleFiles(t *testing.T) {
	data := buildZIP(t, map[string]string{"a.csv": "1", "b.csv": "2"})

	_, _, err := OpenZIPSingle(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected exactly 1 file, got 2")
}

func TestOpenZIPSingle_NotZIP(t *testing.T) {
	_, _, err := OpenZIPSingle([]byte("not a zip"))
	assert.Error(t, err)
}
