package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, parts ...string) {
	t.Helper()

	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
}

func layout(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	touch(t, root, "zed", "tool", "main.rs.json")
	touch(t, root, "acme", "widgets", "src_lib.rs.json")
	touch(t, root, "acme", "widgets", "src_a.rs.json.lz4")
	touch(t, root, "acme", "widgets", "notes.txt")
	touch(t, root, "acme", "widgets", ".hidden.json")
	touch(t, root, "acme", "gadgets", "x.json")
	touch(t, root, ".cache", "repo", "y.json")
	touch(t, root, "stray.json")

	require.NoError(t, os.MkdirAll(filepath.Join(root, "acme", "widgets", "nested"), 0o755))

	return root
}

func TestDiscover_OrdersAndFilters(t *testing.T) {
	t.Parallel()

	root := layout(t)

	repos, err := Discover(root, 0)
	require.NoError(t, err)
	require.Len(t, repos, 3)

	assert.Equal(t, "acme", repos[0].Owner)
	assert.Equal(t, "gadgets", repos[0].Name)
	assert.Equal(t, "widgets", repos[1].Name)
	assert.Equal(t, "zed", repos[2].Owner)

	assert.Equal(t, []string{
		filepath.Join(root, "acme", "widgets", "src_a.rs.json.lz4"),
		filepath.Join(root, "acme", "widgets", "src_lib.rs.json"),
	}, repos[1].Files)

	assert.Len(t, Files(repos), 4)
}

func TestDiscover_Limit(t *testing.T) {
	t.Parallel()

	repos, err := Discover(layout(t), 2)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "widgets", repos[1].Name)
}

func TestDiscover_MissingRoot(t *testing.T) {
	t.Parallel()

	_, err := Discover(filepath.Join(t.TempDir(), "res"), 0)
	require.ErrorIs(t, err, ErrNoResultsDir)
}

func TestDiscover_EmptyRoot(t *testing.T) {
	t.Parallel()

	repos, err := Discover(t.TempDir(), 0)
	require.NoError(t, err)
	assert.Empty(t, repos)
	assert.Empty(t, Files(repos))
}
