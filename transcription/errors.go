package transcription

import (
	"context"
	"errors"
	"net"
	"net/http"

	apperrors "github.com/nezhar/voicevault/errors"
)

// ClassifyStatus maps an HTTP status returned by a backend to a provider
// error. size is the rejected chunk size, reported for 413.
func ClassifyStatus(status int, provider string, size int64, cause error) *apperrors.AppError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.ProviderAuth(provider, cause)
	case status == http.StatusTooManyRequests:
		return apperrors.ProviderRateLimited(provider, cause)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return apperrors.ProviderTimeout(provider, cause)
	case status == http.StatusRequestEntityTooLarge:
		return apperrors.ProviderPayloadTooLarge(provider, size, cause)
	case status >= 500:
		return apperrors.ProviderUnavailable(provider, cause)
	default:
		return apperrors.ProviderInvalid(provider, cause).WithDetail("status", status)
	}
}

// ClassifyTransport maps a failure to reach the backend. Context
// cancellation is returned unchanged so shutdown is not reported as an
// entry failure.
func ClassifyTransport(ctx context.Context, provider string, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.ProviderTimeout(provider, err)
	}
	return apperrors.ProviderUnavailable(provider, err)
}
