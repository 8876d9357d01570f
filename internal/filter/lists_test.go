package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadListsMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lists.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chains:\n  - wetherspoons\n  - greene king\n"), 0o644))

	over, err := LoadLists(path)
	require.NoError(t, err)

	merged := DefaultLists().Merge(over)
	assert.Equal(t, []string{"wetherspoons", "greene king"}, merged.Chains)
	assert.Equal(t, DefaultLists().Keywords, merged.Keywords)
}

func TestLoadListsMissing(t *testing.T) {
	_, err := LoadLists(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadListsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lists.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chains: {"), 0o644))

	_, err := LoadLists(path)
	assert.Error(t, err)
}
