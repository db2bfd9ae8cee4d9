// Package repository keeps the live selection sessions, one selector per game room.
package repository

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/eventdraw/internal/domain/selector"
	"github.com/okian/eventdraw/internal/domain/tuning"
	"github.com/okian/eventdraw/pkg/metrics"
)

// Session is one independent selector with its provenance.
type Session struct {
	ID        string
	Selector  *selector.Selector
	Preset    tuning.PresetName
	Scenario  string
	CreatedAt time.Time

	lastUsed atomic.Int64 // unix nanos
}

// LastUsed returns the last time the session was fetched or created.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

func (s *Session) touch(t time.Time) {
	s.lastUsed.Store(t.UnixNano())
}

// Store provides access to live sessions.
type Store interface {
	// Create assigns an ID to sess and registers it.
	// Returns ErrCapacity when the store is full.
	Create(ctx context.Context, sess *Session) error

	// Get returns a session and marks it as used.
	// Returns ErrNotFound if the ID is unknown.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session. Returns ErrNotFound if the ID is unknown.
	Delete(ctx context.Context, id string) error

	// List returns every session ordered by creation time.
	List(ctx context.Context) []*Session

	// Count returns the number of live sessions.
	Count(ctx context.Context) int
}

// MemoryStore implements Store with a map guarded by a RWMutex. A background
// sweeper evicts idle sessions and publishes the active sessions gauge.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	maxSessions   int
	idleTTL       time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
	closed   atomic.Bool
}

// NewMemoryStore constructs a session store and starts its sweeper. The
// sweeper stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions:      make(map[string]*Session),
		sweepInterval: 30 * time.Second,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startSweeper(ctx)

	return s
}

func (s *MemoryStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Sweep evicts sessions idle for longer than the configured TTL and returns
// how many were removed.
func (s *MemoryStore) Sweep() int {
	removed := 0
	s.mu.Lock()
	if s.idleTTL > 0 {
		cutoff := s.now().Add(-s.idleTTL)
		for id, sess := range s.sessions {
			if sess.LastUsed().Before(cutoff) {
				delete(s.sessions, id)
				removed++
				metrics.RecordSessionExpired()
			}
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	metrics.UpdateActiveSessions(count)
	return removed
}

// Close stops the sweeper. Further creates fail with ErrClosed.
func (s *MemoryStore) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Create implements Store.Create.
func (s *MemoryStore) Create(_ context.Context, sess *Session) error {
	if s.closed.Load() {
		return ErrClosed
	}

	now := s.now()
	s.mu.Lock()
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		return ErrCapacity
	}
	sess.ID = uuid.NewString()
	sess.CreatedAt = now
	sess.touch(now)
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	metrics.RecordSessionCreated()
	metrics.UpdateActiveSessions(count)
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()

	metrics.RecordSessionDeleted()
	metrics.UpdateActiveSessions(count)
	return nil
}

// List implements Store.List.
func (s *MemoryStore) List(_ context.Context) []*Session {
	s.mu.RLock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
