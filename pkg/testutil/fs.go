package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TempHome creates an empty home directory for one test
func TempHome(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), "home", "neko")
	require.NoError(t, os.MkdirAll(home, 0755))
	return home
}

// WriteTree creates files (relative path -> content) under root
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// ReadFile returns the content of path, failing the test if it is missing
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
