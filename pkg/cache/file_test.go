package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fileDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestFileCacheSetGet(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	in := fileDoc{Name: "LUCK", Count: 3}
	require.NoError(t, fc.Set(ctx, "psx:predictions", in, 0))

	var out fileDoc
	require.NoError(t, fc.Get(ctx, "psx:predictions", &out))
	assert.Equal(t, in, out)
}

func TestFileCacheMiss(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	var out fileDoc
	err = fc.Get(context.Background(), "absent", &out)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestFileCacheKeySanitization(t *testing.T) {
	dir := t.TempDir()
	fc, err := NewFileCache(dir)
	require.NoError(t, err)

	require.NoError(t, fc.Set(context.Background(), "psx:news:FFC", fileDoc{Name: "FFC"}, 0))

	// Separators flatten to underscores so keys map to plain file names.
	_, err = os.Stat(filepath.Join(dir, "psx_news_FFC.json"))
	assert.NoError(t, err)
}

func TestFileCacheStringPassthrough(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fc.Set(ctx, "raw", "plain text, not json", 0))

	var out string
	require.NoError(t, fc.Get(ctx, "raw", &out))
	assert.Equal(t, "plain text, not json", out)
}

func TestFileCacheDeleteAndExists(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fc.Set(ctx, "a", fileDoc{}, 0))

	ok, err := fc.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, fc.Delete(ctx, "a", "never-existed"))

	ok, err = fc.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewFileCacheRequiresDir(t *testing.T) {
	_, err := NewFileCache("")
	assert.Error(t, err)
}
