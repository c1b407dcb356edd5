// Package memory keeps calculation results in process memory. It is the
// default store of a single dashboard instance.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/ClusterMST/internal/domain/result"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
)

type entry struct {
	snap      *result.Snapshot
	expiresAt time.Time
}

// ResultStore is a result.Repository backed by a map. Entries expire after
// the TTL; expired entries are dropped on access and by a background sweep.
type ResultStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	logger  logging.Logger

	stop chan struct{}
	once sync.Once
}

var _ result.Repository = (*ResultStore)(nil)

type Option func(*ResultStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ResultStore) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *ResultStore) { s.logger = l }
}

// NewResultStore returns an empty store. A positive sweep interval starts a
// goroutine that removes expired entries until Close is called.
func NewResultStore(ttl, sweep time.Duration, opts ...Option) *ResultStore {
	s := &ResultStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logging.NewNopLogger(),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if sweep > 0 {
		go s.sweepLoop(sweep)
	}
	return s
}

func (s *ResultStore) Save(_ context.Context, snap *result.Snapshot) error {
	s.mu.Lock()
	s.entries[snap.ID] = entry{snap: snap, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *ResultStore) Get(_ context.Context, id string) (*result.Snapshot, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, result.NotFound(id)
	}
	if !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.entries[id]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, id)
		}
		s.mu.Unlock()
		return nil, result.NotFound(id)
	}
	return e.snap, nil
}

func (s *ResultStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

func (s *ResultStore) Ping(context.Context) error { return nil }

// Len returns the number of entries, expired ones included until swept.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were dropped.
func (s *ResultStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Close stops the background sweep.
func (s *ResultStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *ResultStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("Expired results removed", logging.Int("count", n))
			}
		}
	}
}
