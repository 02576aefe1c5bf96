package entry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/nezhar/voicevault/database"
	apperrors "github.com/nezhar/voicevault/errors"
)

const (
	leaseFree = "(lease_expires_at IS NULL OR lease_expires_at < ?)"

	// claimRetries bounds how often a claim re-selects after losing a race.
	claimRetries = 3
)

// GormStore implements Store on a gorm connection.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time

	// beforeClaimUpdate runs between candidate selection and the
	// conditional update. Tests use it to force claim races.
	beforeClaimUpdate func()
}

var _ Store = (*GormStore)(nil)

// StoreOption configures a GormStore.
type StoreOption func(*GormStore)

// WithClock overrides the time source used for leases.
func WithClock(now func() time.Time) StoreOption {
	return func(s *GormStore) { s.now = now }
}

// NewGormStore creates a store on db. Call Migrate (or enable database
// auto-migration for Entry) before use.
func NewGormStore(db *gorm.DB, opts ...StoreOption) *GormStore {
	s := &GormStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates or updates the entries table.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return database.FromDatabase(err, "entry", "")
	}
	return nil
}

func (s *GormStore) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *GormStore) Create(ctx context.Context, e *Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.LeaseOwner, e.LeaseExpiresAt, e.Attempts = nil, nil, 0
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return database.FromDatabase(err, "entry", e.ID)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		return nil, database.FromDatabase(err, "entry", id)
	}
	return &e, nil
}

func (s *GormStore) Claim(ctx context.Context, req ClaimRequest) (*Entry, error) {
	if req.Owner == "" || req.Lease <= 0 {
		return nil, apperrors.InvalidInput("claim", "owner and a positive lease are required")
	}

	for range claimRetries {
		now := s.clock()

		q := s.db.WithContext(ctx).Model(&Entry{}).
			Where("status = ?", req.Eligible).
			Where(leaseFree, now)
		if req.SourceType != "" {
			q = q.Where("source_type = ?", req.SourceType)
		}
		if req.MaxAttempts > 0 {
			q = q.Where("attempts < ?", req.MaxAttempts)
		}

		var ids []string
		if err := q.Order("created_at ASC").Order("id ASC").Limit(1).Pluck("id", &ids).Error; err != nil {
			return nil, database.FromDatabase(err, "entry", "")
		}
		if len(ids) == 0 {
			return nil, nil
		}
		id := ids[0]

		if s.beforeClaimUpdate != nil {
			s.beforeClaimUpdate()
		}

		res := s.db.WithContext(ctx).Model(&Entry{}).
			Where("id = ? AND status = ?", id, req.Eligible).
			Where(leaseFree, now).
			Updates(map[string]interface{}{
				"lease_owner":      req.Owner,
				"lease_expires_at": now.Add(req.Lease),
				"attempts":         gorm.Expr("attempts + 1"),
			})
		if res.Error != nil {
			return nil, database.FromDatabase(res.Error, "entry", id)
		}
		if res.RowsAffected == 1 {
			return s.Get(ctx, id)
		}
		// Another worker won the row; look for the next candidate.
	}
	return nil, nil
}

func (s *GormStore) Update(ctx context.Context, id, owner string, p Patch) (*Entry, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if Str(cur.LeaseOwner) != owner || owner == "" {
		return nil, leaseLost(id)
	}

	target := p.Status
	if target == "" {
		target = cur.Status
	}
	if target != cur.Status && !CanTransition(cur.Status, target) {
		return nil, invalidTransition(cur.Status, target)
	}

	updates := map[string]interface{}{
		"status":           target,
		"lease_owner":      nil,
		"lease_expires_at": nil,
	}
	if target != cur.Status {
		updates["attempts"] = 0
	}

	switch {
	case target == StatusError:
		if p.ErrorMessage == nil || *p.ErrorMessage == "" {
			return nil, apperrors.InvalidInput("error_message", "an ERROR entry needs an error message")
		}
		updates["error_message"] = *p.ErrorMessage
		updates["transcript"] = nil
	case target.HasTranscript():
		if p.Transcript == nil && cur.Transcript == nil {
			return nil, apperrors.InvalidInput("transcript", "a READY entry needs a transcript")
		}
		if p.Transcript != nil {
			updates["transcript"] = *p.Transcript
		}
		updates["error_message"] = nil
	default:
		updates["transcript"] = nil
		updates["error_message"] = nil
	}

	if p.FilePath != nil {
		updates["file_path"] = *p.FilePath
	}
	if p.Filename != nil {
		updates["filename"] = *p.Filename
	}
	if p.Title != nil {
		updates["title"] = *p.Title
	}

	res := s.db.WithContext(ctx).Model(&Entry{}).
		Where("id = ? AND status = ? AND lease_owner = ?", id, cur.Status, owner).
		Updates(updates)
	if res.Error != nil {
		return nil, database.FromDatabase(res.Error, "entry", id)
	}
	if res.RowsAffected == 0 {
		return nil, leaseLost(id)
	}
	return s.Get(ctx, id)
}

func (s *GormStore) Renew(ctx context.Context, id, owner string, lease time.Duration) error {
	res := s.db.WithContext(ctx).Model(&Entry{}).
		Where("id = ? AND lease_owner = ?", id, owner).
		Update("lease_expires_at", s.clock().Add(lease))
	if res.Error != nil {
		return database.FromDatabase(res.Error, "entry", id)
	}
	if res.RowsAffected == 0 {
		return leaseLost(id)
	}
	return nil
}

func (s *GormStore) MarkComplete(ctx context.Context, id string) (*Entry, error) {
	res := s.db.WithContext(ctx).Model(&Entry{}).
		Where("id = ? AND status = ?", id, StatusReady).
		Update("status", StatusComplete)
	if res.Error != nil {
		return nil, database.FromDatabase(res.Error, "entry", id)
	}
	if res.RowsAffected == 0 {
		cur, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, invalidTransition(cur.Status, StatusComplete)
	}
	return s.Get(ctx, id)
}

func (s *GormStore) exhausted(ctx context.Context, maxAttempts int) *gorm.DB {
	return s.db.WithContext(ctx).Model(&Entry{}).
		Where("status IN ?", []Status{StatusNew, StatusInProgress}).
		Where("attempts >= ?", maxAttempts).
		Where(leaseFree, s.clock())
}

func (s *GormStore) ListExhausted(ctx context.Context, maxAttempts int) ([]Entry, error) {
	var entries []Entry
	if err := s.exhausted(ctx, maxAttempts).Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, database.FromDatabase(err, "entry", "")
	}
	return entries, nil
}

func (s *GormStore) Abandon(ctx context.Context, id string, maxAttempts int, message string) (bool, error) {
	res := s.exhausted(ctx, maxAttempts).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           StatusError,
			"error_message":    message,
			"transcript":       nil,
			"lease_owner":      nil,
			"lease_expires_at": nil,
			"attempts":         0,
		})
	if res.Error != nil {
		return false, database.FromDatabase(res.Error, "entry", id)
	}
	return res.RowsAffected == 1, nil
}

func notFound(id string) error {
	return apperrors.NotFound("entry", id).WithCause(ErrNotFound)
}

func leaseLost(id string) error {
	return apperrors.Conflict("The entry is no longer held by this worker.").
		WithDetail("id", id).WithCause(ErrLeaseLost)
}

func invalidTransition(from, to Status) error {
	return apperrors.Conflict(fmt.Sprintf("Cannot move an entry from %s to %s.", from, to)).
		WithCause(ErrInvalidTransition)
}
