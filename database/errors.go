package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/nezhar/voicevault/errors"
)

var connectionPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"no route to host",
	"network is unreachable",
	"connection closed",
	"driver: bad connection",
	"invalid connection",
}

var transientPatterns = []string{
	"deadlock",
	"lock timeout",
	"database is locked",
	"sqlite_busy",
	"too many connections",
}

// IsConnectionError reports whether err looks like a lost or refused connection.
func IsConnectionError(err error) bool {
	return matchesAny(err, connectionPatterns)
}

// IsRetryableError reports whether a single statement may succeed if re-run.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return IsConnectionError(err) || matchesAny(err, transientPatterns)
}

func matchesAny(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// FromDatabase converts a gorm error into an AppError.
func FromDatabase(err error, resource, id string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource, id)
	}
	appErr := apperrors.PersistenceFailed(resource, err)
	if !IsRetryableError(err) {
		appErr.Transient = false
	}
	return appErr
}
