package worker

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	apperrors "github.com/nezhar/voicevault/errors"
)

const ellipsis = "..."

// UserMessage reduces err to the message stored on the entry: the
// AppError's user-facing message, or a generic one for anything else,
// truncated to max characters. Causes are never included.
func UserMessage(err error, max int) string {
	msg := apperrors.Internal(err).Message
	if appErr, ok := apperrors.AsAppError(err); ok && appErr.Message != "" {
		msg = appErr.Message
	} else if errors.Is(err, context.DeadlineExceeded) {
		msg = "Processing took too long and was stopped."
	}
	return truncate(strings.TrimSpace(msg), max)
}

// truncate shortens s to at most max runes, marking the cut.
func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return string([]rune(s)[:max])
	}
	return strings.TrimSpace(string([]rune(s)[:max-len(ellipsis)])) + ellipsis
}

// errorCode returns the AppError code of err for metrics and spans.
func errorCode(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return string(apperrors.ErrCodeInternal)
}
