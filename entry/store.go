package entry

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is the cause of NOT_FOUND errors returned for unknown ids.
	ErrNotFound = errors.New("entry not found")
	// ErrLeaseLost is returned when the caller no longer holds the entry's lease.
	ErrLeaseLost = errors.New("entry lease not held")
)

// ClaimRequest selects which entries a worker may claim.
type ClaimRequest struct {
	// Eligible is the status an entry must have.
	Eligible Status
	// SourceType optionally restricts claims to one source type.
	SourceType SourceType
	// Owner identifies the claiming worker.
	Owner string
	// Lease is how long the claim lasts unless renewed.
	Lease time.Duration
	// MaxAttempts excludes entries already claimed this many times in their
	// current status. Zero disables the limit.
	MaxAttempts int
}

// Patch describes the result of a job. Nil fields are left unchanged,
// except that Status governs Transcript and ErrorMessage.
type Patch struct {
	Status       Status
	Transcript   *string
	ErrorMessage *string
	FilePath     *string
	Filename     *string
	Title        *string
}

// Store persists entries and arbitrates claims between workers.
type Store interface {
	Create(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)

	// Claim atomically leases the oldest eligible entry. It returns nil, nil
	// when nothing is claimable.
	Claim(ctx context.Context, req ClaimRequest) (*Entry, error)

	// Update applies p if owner still holds the lease, and releases it.
	Update(ctx context.Context, id, owner string, p Patch) (*Entry, error)

	// Renew extends a held lease.
	Renew(ctx context.Context, id, owner string, lease time.Duration) error

	// MarkComplete moves a READY entry to COMPLETE.
	MarkComplete(ctx context.Context, id string) (*Entry, error)

	// ListExhausted returns unleased, unfinished entries claimed at least
	// maxAttempts times in their current status.
	ListExhausted(ctx context.Context, maxAttempts int) ([]Entry, error)

	// Abandon moves an exhausted entry to ERROR with message. It reports
	// false when the entry was no longer exhausted.
	Abandon(ctx context.Context, id string, maxAttempts int, message string) (bool, error)
}
