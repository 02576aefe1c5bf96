package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nezhar/voicevault/component"
	"github.com/nezhar/voicevault/entry"
)

func TestEntryStoreLifecycle(t *testing.T) {
	db := NewEntryStore()
	assert.Equal(t, component.StatusUnhealthy, db.Health(context.Background()).Status)

	T(t).Setup(db)
	assert.Equal(t, component.StatusHealthy, db.Health(context.Background()).Status)
	require.NotNil(t, db.Store())
}

func TestEntryStoreSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	db := NewEntryStore()
	h := T(t)
	h.Setup(db)

	first := entry.NewURL("first", "https://youtu.be/a")
	require.NoError(t, db.Store().Create(ctx, first))
	snap := h.Snapshot(db)

	require.NoError(t, db.Store().Create(ctx, entry.NewURL("second", "https://youtu.be/b")))
	h.Restore(db, snap)

	rows := h.Snapshot(db).([]entry.Entry)
	require.Len(t, rows, 1)
	assert.Equal(t, first.ID, rows[0].ID)

	h.Reset(db)
	assert.Empty(t, h.Snapshot(db))
	assert.Error(t, db.Restore(ctx, "not a snapshot"))
}

func TestEntryStoreClock(t *testing.T) {
	clock := NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	db := NewEntryStore(entry.WithClock(clock.Now))
	T(t).Setup(db)
	ctx := context.Background()

	e := entry.NewUpload("x", "a.wav", "files/a/a.wav")
	require.NoError(t, db.Store().Create(ctx, e))
	req := entry.ClaimRequest{Eligible: entry.StatusInProgress, Owner: "w1", Lease: time.Minute}

	got, err := db.Store().Claim(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = db.Store().Claim(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, got, "lease still held")

	clock.Advance(2 * time.Minute)
	got, err = db.Store().Claim(ctx, req)
	require.NoError(t, err)
	assert.NotNil(t, got, "expired lease is claimable")
}

type fakeComponent struct {
	name             string
	startErr         error
	started, stopped int
	resets           int
}

func (f *fakeComponent) Name() string { return f.name }
func (f *fakeComponent) Start(context.Context) error {
	f.started++
	return f.startErr
}
func (f *fakeComponent) Stop(context.Context) error { f.stopped++; return nil }
func (f *fakeComponent) Health(context.Context) component.Health {
	return component.Health{Name: f.name, Status: component.StatusHealthy}
}
func (f *fakeComponent) Reset(context.Context) error                   { f.resets++; return nil }
func (f *fakeComponent) Snapshot(context.Context) (interface{}, error) { return nil, nil }
func (f *fakeComponent) Restore(context.Context, interface{}) error    { return nil }

func TestManager(t *testing.T) {
	m := NewManager(context.Background())
	a, b := &fakeComponent{name: "a"}, &fakeComponent{name: "b"}
	m.Add(a)
	m.Add(b)

	require.NoError(t, m.StartAll())
	require.NoError(t, m.ResetAll())
	require.NoError(t, m.StopAll())
	assert.Equal(t, 1, a.started)
	assert.Equal(t, 1, b.resets)
	assert.Equal(t, 1, b.stopped)
	assert.Same(t, b, m.Get("b"))
	assert.Nil(t, m.Get("c"))
}

func TestManagerStartFailure(t *testing.T) {
	m := NewManager(context.Background())
	boom := errors.New("boom")
	later := &fakeComponent{name: "later"}
	m.Add(&fakeComponent{name: "broken", startErr: boom})
	m.Add(later)

	err := m.StartAll()
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, later.started)
}
