package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/resilience"
	"github.com/nezhar/voicevault/storage"
)

// upload stores the file at path under key. The file is reopened on every
// attempt.
func (l *Loop) upload(ctx context.Context, key, path string, log *logger.Logger) error {
	return resilience.RetryFunc(ctx, l.retryConfig(log), func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return apperrors.Internal(fmt.Errorf("open %s: %w", filepath.Base(path), err))
		}
		defer f.Close()
		return blobError(l.deps.Blobs.Upload(ctx, key, f, contentType(path)), key)
	})
}

// fetchBlob copies the object at key into dst.
func (l *Loop) fetchBlob(ctx context.Context, key, dst string, log *logger.Logger) error {
	return resilience.RetryFunc(ctx, l.retryConfig(log), func(ctx context.Context) error {
		rc, err := l.deps.Blobs.Download(ctx, key)
		if err != nil {
			return blobError(err, key)
		}
		defer rc.Close()

		f, err := os.Create(dst)
		if err != nil {
			return apperrors.Internal(fmt.Errorf("create %s: %w", filepath.Base(dst), err))
		}
		if _, err := io.Copy(f, rc); err != nil {
			f.Close()
			return blobError(err, key)
		}
		if err := f.Close(); err != nil {
			return apperrors.Internal(err)
		}
		return nil
	})
}

func blobError(err error, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NotFound("file", "").WithDetail("key", key).WithCause(err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.PersistenceFailed("blob", err).WithDetail("key", key)
}

func contentType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func mkdir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Internal(fmt.Errorf("create %s: %w", filepath.Base(dir), err))
	}
	return nil
}
