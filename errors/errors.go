package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is user-facing and must never contain paths, URLs with
	// credentials or raw tool output.
	Message string `json:"message"`
	// Transient is true when the condition may clear without intervention.
	Transient bool `json:"transient"`
	// Details contains additional context for logs.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another AppError by code, so errors.Is(err, ErrNotFoundSentinel)
// style comparisons work across wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic transient detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Transient: IsTransientCode(code),
	}
}

// --- Fetch ---

// FetchNetwork reports a network failure while downloading media.
func FetchNetwork(cause error) *AppError {
	return New(ErrCodeFetchNetwork, "The media could not be downloaded because of a network error.").WithCause(cause)
}

// FetchUnsupported reports a source the worker cannot download from.
func FetchUnsupported(reason string) *AppError {
	msg := "This source is not supported."
	if reason != "" {
		msg = fmt.Sprintf("This source is not supported: %s.", reason)
	}
	return New(ErrCodeFetchUnsupported, msg)
}

// FetchAccessDenied reports a source that requires sign-in or is private.
func FetchAccessDenied(cause error) *AppError {
	return New(ErrCodeFetchAccessDenied,
		"The media is private or requires sign-in and cannot be downloaded.").WithCause(cause)
}

// FetchTooLarge reports media exceeding the accepted file size.
func FetchTooLarge(limit int64) *AppError {
	return New(ErrCodeFetchTooLarge,
		fmt.Sprintf("The media exceeds the maximum accepted size of %d MB.", limit/(1024*1024))).
		WithDetail("limit_bytes", limit)
}

// --- Audio ---

// ConversionFailed reports an audio transcoding failure.
func ConversionFailed(reason string, cause error) *AppError {
	return New(ErrCodeConversionFailed,
		"The audio could not be converted. The file may be corrupt or use an unsupported codec.").
		WithDetail("reason", reason).WithCause(cause)
}

// ChunkingFailed reports a failure while splitting audio for transcription.
func ChunkingFailed(reason string, cause error) *AppError {
	return New(ErrCodeChunkingFailed, "The audio could not be split for transcription.").
		WithDetail("reason", reason).WithCause(cause)
}

// --- Provider ---

// ProviderAuth reports rejected provider credentials.
func ProviderAuth(provider string, cause error) *AppError {
	return New(ErrCodeProviderAuth, "The transcription service rejected the configured credentials.").
		WithDetail("provider", provider).WithCause(cause)
}

// ProviderRateLimited reports provider throttling.
func ProviderRateLimited(provider string, cause error) *AppError {
	return New(ErrCodeProviderRateLimited, "The transcription service is rate limiting requests.").
		WithDetail("provider", provider).WithCause(cause)
}

// ProviderTimeout reports a provider call that did not finish in time.
func ProviderTimeout(provider string, cause error) *AppError {
	return New(ErrCodeProviderTimeout, "The transcription service timed out.").
		WithDetail("provider", provider).WithCause(cause)
}

// ProviderPayloadTooLarge reports an audio chunk the provider refused for its
// size. It indicates a chunking defect.
func ProviderPayloadTooLarge(provider string, size int64, cause error) *AppError {
	return New(ErrCodeProviderPayloadTooLarge, "An audio segment was too large for the transcription service.").
		WithDetail("provider", provider).WithDetail("size_bytes", size).WithCause(cause)
}

// ProviderUnavailable reports a provider outage or server error.
func ProviderUnavailable(provider string, cause error) *AppError {
	return New(ErrCodeProviderUnavailable, "The transcription service is unavailable.").
		WithDetail("provider", provider).WithCause(cause)
}

// ProviderInvalid reports a request or response the provider could not handle.
func ProviderInvalid(provider string, cause error) *AppError {
	return New(ErrCodeProviderInvalid, "The transcription service could not process the audio.").
		WithDetail("provider", provider).WithCause(cause)
}

// --- Storage and general ---

// PersistenceFailed reports an unavailable entry or blob store.
func PersistenceFailed(store string, cause error) *AppError {
	return New(ErrCodePersistence, "A storage error occurred while processing the entry.").
		WithDetail("store", store).WithCause(cause)
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource)).
		WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

// Conflict reports an operation that does not apply to the current state.
func Conflict(reason string) *AppError {
	return New(ErrCodeConflict, reason)
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, fmt.Sprintf("Invalid input: %s", reason))
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred while processing the entry.").WithCause(cause)
}

// --- Helpers ---

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap converts any error into an AppError, passing existing AppErrors
// through unchanged. Unknown errors become Internal.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
