package entry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nezhar/voicevault/database"
	apperrors "github.com/nezhar/voicevault/errors"
	"github.com/nezhar/voicevault/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*GormStore, *fakeClock) {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{
		Driver:     database.DriverSQLite,
		DSN:        ":memory:",
		MaxRetries: 1,
		LogLevel:   "silent",
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewGormStore(db.GormDB, WithClock(clock.Now))
	require.NoError(t, store.Migrate(context.Background()))
	return store, clock
}

func createAt(t *testing.T, s *GormStore, e *Entry, at time.Time) *Entry {
	t.Helper()
	e.CreatedAt = at
	require.NoError(t, s.Create(context.Background(), e))
	return e
}

func transcribeClaim(owner string) ClaimRequest {
	return ClaimRequest{Eligible: StatusInProgress, Owner: owner, Lease: time.Minute}
}

func TestCreateAndGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	e := NewURL("Talk", "https://youtu.be/abc")
	require.NoError(t, s.Create(ctx, e))

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNew, got.Status)
	assert.Equal(t, "https://youtu.be/abc", Str(got.SourceURL))

	_, err = s.Get(ctx, "00000000-0000-0000-0000-000000000001")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestCreateRejectsInvalid(t *testing.T) {
	s, _ := newTestStore(t)
	e := NewUpload("t", "a.mp3", "files/a.mp3")
	e.Status = StatusReady
	assert.Error(t, s.Create(context.Background(), e))
}

func TestClaimOldestEligible(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	base := clock.Now()

	newer := createAt(t, s, NewUpload("newer", "b.mp3", "files/b.mp3"), base.Add(time.Second))
	older := createAt(t, s, NewUpload("older", "a.mp3", "files/a.mp3"), base)
	createAt(t, s, NewURL("pending download", "https://youtu.be/x"), base.Add(-time.Hour))

	got, err := s.Claim(ctx, transcribeClaim("w1"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, older.ID, got.ID)
	assert.Equal(t, "w1", Str(got.LeaseOwner))
	assert.Equal(t, 1, got.Attempts)

	got, err = s.Claim(ctx, transcribeClaim("w2"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)

	got, err = s.Claim(ctx, transcribeClaim("w3"))
	require.NoError(t, err)
	assert.Nil(t, got, "nothing left to claim")
}

func TestClaimFiltersSourceType(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	upload := NewUpload("u", "a.mp3", "files/a.mp3")
	upload.Status = StatusNew
	upload.FilePath = ptr("files/a.mp3")
	createAt(t, s, upload, clock.Now().Add(-time.Minute))
	url := createAt(t, s, NewURL("v", "https://youtu.be/x"), clock.Now())

	got, err := s.Claim(ctx, ClaimRequest{Eligible: StatusNew, SourceType: SourceURL, Owner: "dl", Lease: time.Minute})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, url.ID, got.ID)
}

func TestClaimValidatesRequest(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Claim(context.Background(), ClaimRequest{Eligible: StatusNew})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestClaimRaceHasOneWinner(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	e := NewUpload("race", "a.mp3", "files/a.mp3")
	require.NoError(t, s.Create(ctx, e))

	// Hold both claimers after they picked the same candidate.
	var arrived sync.WaitGroup
	arrived.Add(2)
	var calls atomic.Int32
	s.beforeClaimUpdate = func() {
		if calls.Add(1) <= 2 {
			arrived.Done()
			arrived.Wait()
		}
	}

	results := make(chan *Entry, 2)
	var wg sync.WaitGroup
	for _, owner := range []string{"w1", "w2"} {
		wg.Add(1)
		go func(owner string) {
			defer wg.Done()
			got, err := s.Claim(ctx, transcribeClaim(owner))
			assert.NoError(t, err)
			results <- got
		}(owner)
	}
	wg.Wait()
	close(results)

	winners := 0
	for got := range results {
		if got != nil {
			winners++
			assert.Equal(t, e.ID, got.ID)
		}
	}
	assert.Equal(t, 1, winners)

	stored, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Attempts)
}

func TestConcurrentClaimsAreExclusive(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	for i := range 12 {
		createAt(t, s, NewUpload("e", "a.mp3", "files/a.mp3"), clock.Now().Add(time.Duration(i)*time.Second))
	}

	var mu sync.Mutex
	seen := map[string]string{}
	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func(owner string) {
			defer wg.Done()
			for {
				got, err := s.Claim(ctx, transcribeClaim(owner))
				if !assert.NoError(t, err) || got == nil {
					return
				}
				mu.Lock()
				prev, dup := seen[got.ID]
				seen[got.ID] = owner
				mu.Unlock()
				assert.False(t, dup, "entry %s claimed by %s and %s", got.ID, prev, owner)
			}
		}(string(rune('a' + w)))
	}
	wg.Wait()
	assert.Len(t, seen, 12)
}

func TestLeaseExpiryAllowsReclaim(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	e := NewUpload("crashy", "a.mp3", "files/a.mp3")
	require.NoError(t, s.Create(ctx, e))

	_, err := s.Claim(ctx, transcribeClaim("dead"))
	require.NoError(t, err)

	got, err := s.Claim(ctx, transcribeClaim("alive"))
	require.NoError(t, err)
	assert.Nil(t, got, "lease still held")

	clock.Advance(2 * time.Minute)
	got, err = s.Claim(ctx, transcribeClaim("alive"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Attempts)

	_, err = s.Update(ctx, e.ID, "dead", Patch{Status: StatusReady, Transcript: ptr("stale")})
	assert.ErrorIs(t, err, ErrLeaseLost)
	assert.ErrorIs(t, s.Renew(ctx, e.ID, "dead", time.Minute), ErrLeaseLost)
}

func TestRenewExtendsLease(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	e := NewUpload("long", "a.mp3", "files/a.mp3")
	require.NoError(t, s.Create(ctx, e))
	_, err := s.Claim(ctx, transcribeClaim("w1"))
	require.NoError(t, err)

	clock.Advance(50 * time.Second)
	require.NoError(t, s.Renew(ctx, e.ID, "w1", time.Minute))
	clock.Advance(50 * time.Second)

	got, err := s.Claim(ctx, transcribeClaim("w2"))
	require.NoError(t, err)
	assert.Nil(t, got, "renewed lease must still block")
}

func TestUpdateReady(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	e := NewUpload("ok", "a.m4a", "files/a.m4a")
	require.NoError(t, s.Create(ctx, e))
	_, err := s.Claim(ctx, transcribeClaim("w1"))
	require.NoError(t, err)

	got, err := s.Update(ctx, e.ID, "w1", Patch{
		Status:     StatusReady,
		Transcript: ptr("hello world"),
		FilePath:   ptr("files/" + e.ID + "/" + e.ID + ".mp3"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusReady, got.Status)
	assert.Equal(t, "hello world", Str(got.Transcript))
	assert.Nil(t, got.ErrorMessage)
	assert.Nil(t, got.LeaseOwner)
	assert.Nil(t, got.LeaseExpiresAt)
	assert.Equal(t, 0, got.Attempts)
	assert.NoError(t, got.Validate())
}

func TestUpdateError(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	e := NewURL("private", "https://youtu.be/p")
	require.NoError(t, s.Create(ctx, e))
	_, err := s.Claim(ctx, ClaimRequest{Eligible: StatusNew, SourceType: SourceURL, Owner: "dl", Lease: time.Minute})
	require.NoError(t, err)

	_, err = s.Update(ctx, e.ID, "dl", Patch{Status: StatusError})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput), "ERROR needs a message")

	got, err := s.Update(ctx, e.ID, "dl", Patch{Status: StatusError, ErrorMessage: ptr("Private video")})
	require.NoError(t, err)
	assert.Equal(t, StatusError, got.Status)
	assert.Nil(t, got.Transcript)
	assert.NoError(t, got.Validate())
}

func TestUpdateRejectsInvalidTransition(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	e := NewURL("skip", "https://youtu.be/s")
	require.NoError(t, s.Create(ctx, e))
	_, err := s.Claim(ctx, ClaimRequest{Eligible: StatusNew, Owner: "dl", Lease: time.Minute})
	require.NoError(t, err)

	_, err = s.Update(ctx, e.ID, "dl", Patch{Status: StatusReady, Transcript: ptr("x")})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.False(t, errors.Is(err, ErrLeaseLost))
}

func TestUpdateRequiresLease(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	e := NewUpload("unclaimed", "a.mp3", "files/a.mp3")
	require.NoError(t, s.Create(ctx, e))

	_, err := s.Update(ctx, e.ID, "w1", Patch{Status: StatusReady, Transcript: ptr("x")})
	assert.ErrorIs(t, err, ErrLeaseLost)
}

func TestMarkComplete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	e := NewUpload("done", "a.mp3", "files/a.mp3")
	require.NoError(t, s.Create(ctx, e))

	_, err := s.MarkComplete(ctx, e.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Claim(ctx, transcribeClaim("w1"))
	require.NoError(t, err)
	_, err = s.Update(ctx, e.ID, "w1", Patch{Status: StatusReady, Transcript: ptr("hi")})
	require.NoError(t, err)

	got, err := s.MarkComplete(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, got.Status)
	assert.Equal(t, "hi", Str(got.Transcript))

	_, err = s.MarkComplete(ctx, "00000000-0000-0000-0000-000000000002")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExhaustedEntries(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	e := NewUpload("poison", "a.mp3", "files/a.mp3")
	require.NoError(t, s.Create(ctx, e))

	req := transcribeClaim("w")
	req.MaxAttempts = 2
	for range 2 {
		got, err := s.Claim(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, got)
		clock.Advance(2 * time.Minute)
	}

	got, err := s.Claim(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, got, "exhausted entries are not claimable")

	list, err := s.ListExhausted(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, e.ID, list[0].ID)

	ok, err := s.Abandon(ctx, e.ID, 2, "Processing was interrupted repeatedly")
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusError, stored.Status)
	assert.NoError(t, stored.Validate())

	ok, err = s.Abandon(ctx, e.ID, 2, "again")
	require.NoError(t, err)
	assert.False(t, ok)
}
