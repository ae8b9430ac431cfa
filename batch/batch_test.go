package batch

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGobBatch(t *testing.T, path string, b gobBatch) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, gob.NewEncoder(f).Encode(b))
}

func TestLoadUsesEmbeddedID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "whatever.batch")
	writeGobBatch(t, path, gobBatch{
		ID:      "explicit-id",
		ClassID: []string{"@default_class"},
		Token:   []string{"cat"},
		Items: []Item{
			{TokenID: []int{0}, TokenWeight: []float32{1}},
		},
	})

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "explicit-id", b.ID)
	assert.Equal(t, 1, b.ItemSize())
	assert.Equal(t, 1, b.TokenSize())
}

func TestLoadFallsBackToFilenameUUID(t *testing.T) {
	dir := t.TempDir()
	id := uuid.New()
	path := filepath.Join(dir, id.String()+".batch")
	writeGobBatch(t, path, gobBatch{
		Token: []string{"dog"},
		Items: []Item{{TokenID: []int{0}, TokenWeight: []float32{2}}},
	})

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, id.String(), b.ID)
}

func TestLoadFailsWithoutIDOrUUIDFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-a-uuid.batch")
	writeGobBatch(t, path, gobBatch{
		Token: []string{"fox"},
	})

	_, err := Load(path)
	assert.Error(t, err)
}
