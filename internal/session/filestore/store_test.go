package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikiqa/internal/logging"
	"wikiqa/internal/session"
)

func TestExportWritesArtifact(t *testing.T) {
	store, err := New(t.TempDir(), logging.Nop())
	require.NoError(t, err)

	sess := session.New()
	sess.AppendUser("q")
	sess.AppendAssistant("a")

	path, err := store.Export(sess)
	require.NoError(t, err)
	require.NotEmpty(t, path)
	assert.Equal(t, store.Dir(), filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var turns []map[string]any
	require.NoError(t, json.Unmarshal(data, &turns))
	assert.Len(t, turns, 2)

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Base(path)}, names)
}

func TestExportEmptySessionProducesNothing(t *testing.T) {
	store, err := New(t.TempDir(), logging.Nop())
	require.NoError(t, err)

	path, err := store.Export(session.New())
	require.NoError(t, err)
	assert.Empty(t, path)

	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestNewCreatesDirectory(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "exports")
	store, err := New(base, nil)
	require.NoError(t, err)

	info, err := os.Stat(store.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
