package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GoldenString compares got against testdata/<name>.golden.
// With UPDATE_GOLDEN set the file is rewritten instead.
func GoldenString(t *testing.T, name, got string) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")
	if os.Getenv("UPDATE_GOLDEN") != "" {
		require.NoError(t, os.MkdirAll("testdata", 0755))
		require.NoError(t, os.WriteFile(path, []byte(got), 0644))
		return
	}

	want, err := os.ReadFile(path)
	require.NoError(t, err, "missing golden file %s, got:\n%s", path, got)
	assert.Equal(t, string(want), got, "output mismatch for %s", name)
}
