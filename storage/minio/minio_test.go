package minio

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/storage"
	"github.com/nezhar/voicevault/testutil"
)

func testConfig(endpoint string) storage.Config {
	return storage.Config{
		Provider:  storage.ProviderMinio,
		Bucket:    "media",
		Region:    "us-east-1",
		Endpoint:  endpoint,
		AccessKey: "minio",
		SecretKey: "minio-secret",
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := testutil.NewS3Server(t, "media")
	s, err := NewStorage(ctx, testConfig(srv.Host()), logger.Nop())
	require.NoError(t, err)

	key := storage.EntryKey("e1", "talk.mp3")
	require.NoError(t, s.Upload(ctx, key, strings.NewReader("audio"), "audio/mpeg"))

	data, contentType, ok := srv.Object("media", "files/e1/talk.mp3")
	require.True(t, ok, "object is stored under the entry key")
	assert.Equal(t, "audio", string(data))
	assert.Equal(t, "audio/mpeg", contentType)

	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := s.Download(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "audio", string(got))

	require.NoError(t, s.Delete(ctx, key))

	exists, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Download(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateBucket(t *testing.T) {
	ctx := context.Background()
	srv := testutil.NewS3Server(t)

	cfg := testConfig(srv.Host())
	cfg.CreateBucket = true
	_, err := NewStorage(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	assert.True(t, srv.HasBucket("media"))

	_, err = NewStorage(ctx, cfg, logger.Nop())
	assert.NoError(t, err, "an existing bucket is reused")
}

func TestObjectSize(t *testing.T) {
	assert.Equal(t, int64(5), objectSize(strings.NewReader("audio")))
	assert.Equal(t, int64(-1), objectSize(io.MultiReader(strings.NewReader("audio"))))

	path := filepath.Join(t.TempDir(), "talk.mp3")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Read(make([]byte, 4))
	require.NoError(t, err)
	assert.Equal(t, int64(6), objectSize(f), "only the unread part is uploaded")
}

func TestFactory(t *testing.T) {
	ctx := context.Background()
	assert.Contains(t, storage.Providers(), storage.ProviderMinio)

	srv := testutil.NewS3Server(t, "media")
	s, err := storage.New(ctx, testConfig(srv.Host()), logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Storage{}, s)

	tests := []struct {
		name   string
		mutate func(*storage.Config)
		want   string
	}{
		{"no endpoint", func(c *storage.Config) { c.Endpoint = "" }, "endpoint is required"},
		{"no bucket", func(c *storage.Config) { c.Bucket = "" }, "bucket is required"},
		{"no secret", func(c *storage.Config) { c.SecretKey = "" }, "access_key and secret_key are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(srv.Host())
			tt.mutate(&cfg)
			_, err := storage.New(ctx, cfg, logger.Nop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
