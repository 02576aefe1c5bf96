package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nezhar/voicevault/component"
	"github.com/nezhar/voicevault/database"
	"github.com/nezhar/voicevault/entry"
	"github.com/nezhar/voicevault/logger"
)

// EntryStore is an in-memory SQLite entry store.
type EntryStore struct {
	opts  []entry.StoreOption
	db    *database.DB
	store *entry.GormStore
}

var _ TestComponent = (*EntryStore)(nil)

// NewEntryStore creates the component. opts are passed to the GormStore.
func NewEntryStore(opts ...entry.StoreOption) *EntryStore {
	return &EntryStore{opts: opts}
}

// Store returns the entry store, or nil before Start.
func (s *EntryStore) Store() *entry.GormStore { return s.store }

// DB returns the database, or nil before Start.
func (s *EntryStore) DB() *database.DB { return s.db }

func (s *EntryStore) Name() string { return "entry-store" }

func (s *EntryStore) Start(ctx context.Context) error {
	db, err := database.Open(ctx, database.Config{
		Driver:     database.DriverSQLite,
		DSN:        ":memory:",
		MaxRetries: 1,
		LogLevel:   "silent",
	}, logger.Nop())
	if err != nil {
		return err
	}
	store := entry.NewGormStore(db.GormDB, s.opts...)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return err
	}
	s.db, s.store = db, store
	return nil
}

func (s *EntryStore) Stop(_ context.Context) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db, s.store = nil, nil
	return err
}

func (s *EntryStore) Health(ctx context.Context) component.Health {
	if s.db == nil {
		return component.Unhealthy(s.Name(), "not started")
	}
	if err := s.db.Ping(ctx); err != nil {
		return component.Unhealthy(s.Name(), err.Error())
	}
	return component.Healthy(s.Name())
}

// Reset deletes every entry.
func (s *EntryStore) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&entry.Entry{}).Error
}

// Snapshot copies every row.
func (s *EntryStore) Snapshot(ctx context.Context) (interface{}, error) {
	var rows []entry.Entry
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Restore replaces the table contents with a snapshot.
func (s *EntryStore) Restore(ctx context.Context, snapshot interface{}) error {
	rows, ok := snapshot.([]entry.Entry)
	if !ok {
		return fmt.Errorf("entry-store: unexpected snapshot type %T", snapshot)
	}
	if err := s.Reset(ctx); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

// Clock is a settable time source for entry.WithClock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the clock's time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
