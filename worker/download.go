package worker

import (
	"context"
	"strings"

	"github.com/nezhar/voicevault/entry"
	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/fetcher"
	"github.com/nezhar/voicevault/logger"
	"github.com/nezhar/voicevault/storage"
)

const maxTitleLength = 255

// download fetches the entry's URL, stores the media and hands the entry
// to the transcribe stage.
func (l *Loop) download(ctx context.Context, e *entry.Entry, dir string, log *logger.Logger) (entry.Patch, error) {
	src := strings.TrimSpace(entry.Str(e.SourceURL))
	if src == "" {
		return entry.Patch{}, apperrors.FetchUnsupported("the entry has no source URL")
	}

	m, err := stage(ctx, "fetch", func(ctx context.Context) (*fetcher.Media, error) {
		return l.deps.Fetcher.Resolve(ctx, src, dir)
	})
	if err != nil {
		return entry.Patch{}, err
	}
	log.Info("Media downloaded", map[string]interface{}{
		"filename": m.Filename,
		"size":     m.Size,
	})

	key := storage.EntryKey(e.ID, m.Filename)
	if _, err := stage(ctx, "store", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, l.upload(ctx, key, m.Path, log)
	}); err != nil {
		return entry.Patch{}, err
	}

	filename := storage.SafeFilename(m.Filename)
	p := entry.Patch{
		Status:   entry.StatusInProgress,
		FilePath: &key,
		Filename: &filename,
	}
	if strings.TrimSpace(e.Title) == "" {
		if title := truncate(strings.TrimSpace(m.Title), maxTitleLength); title != "" {
			p.Title = &title
		}
	}
	return p, nil
}
