package store

import (
	"context"
	"sync"
	"time"

	"battery-revenue/internal/api/models"
)

// entry is a stored calculation result
type entry struct {
	response  *models.RevenueResponse
	expiresAt time.Time
}

// ResultStore keeps finished calculation responses in memory for later retrieval
// by ID. Entries expire after ttl; a zero ttl keeps them until Clear.
type ResultStore struct {
	mu    sync.RWMutex
	store map[string]*entry
	ttl   time.Duration
	now   func() time.Time
}

func NewResultStore(ttl time.Duration) *ResultStore {
	return &ResultStore{
		store: make(map[string]*entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get retrieves a stored response if present and not expired
func (s *ResultStore) Get(id string) (*models.RevenueResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.store[id]
	if !ok || s.expired(e) {
		return nil, false
	}
	return e.response, true
}

// Set stores a response under id
func (s *ResultStore) Set(id string, response *models.RevenueResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{response: response}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.store[id] = e
}

// Len is the number of stored entries, expired or not
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.store)
}

// Clear removes all entries
func (s *ResultStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = make(map[string]*entry)
}

// Sweep deletes expired entries.
func (s *ResultStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.store {
		if s.expired(e) {
			delete(s.store, id)
		}
	}
}

// StartCleanup sweeps every interval until ctx is done.
func (s *ResultStore) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

func (s *ResultStore) expired(e *entry) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}
