package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nezhar/voicevault/storage"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewStorage(base)
	require.NoError(t, err)

	key := storage.EntryKey("e1", "talk.mp3")
	require.NoError(t, s.Upload(ctx, key, strings.NewReader("audio"), "audio/mpeg"))

	_, err = os.Stat(filepath.Join(base, "files", "e1", "talk.mp3"))
	require.NoError(t, err)

	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := s.Download(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "audio", string(data))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key), "deleting twice is fine")

	_, err = s.Download(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKeysStayInsideBase(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewStorage(filepath.Join(base, "blobs"))
	require.NoError(t, err)

	require.NoError(t, s.Upload(ctx, "../../escape.txt", strings.NewReader("x"), ""))
	_, err = os.Stat(filepath.Join(base, "escape.txt"))
	assert.True(t, os.IsNotExist(err), "upload must not escape the base directory")
	_, err = os.Stat(filepath.Join(base, "blobs", "escape.txt"))
	assert.NoError(t, err)
}

func TestUploadLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewStorage(base)
	require.NoError(t, err)

	require.NoError(t, s.Upload(ctx, "a/b.bin", strings.NewReader("1"), ""))
	entries, err := os.ReadDir(filepath.Join(base, "a"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.bin", entries[0].Name())
}
