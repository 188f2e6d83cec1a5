package cache

import (
	"context"
	"sync"
	"time"

	"driveid/internal/verify/models"
	"driveid/pkg/platform/sentinel"
)

type entry struct {
	result    models.SourceResult
	expiresAt time.Time
}

// InMemoryStore keeps verification results in a map with TTL expiry. Suitable
// for single-instance deployments and tests; use RedisStore in production.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Find returns the stored result, or sentinel.ErrNotFound if absent or past
// its TTL.
func (s *InMemoryStore) Find(_ context.Context, key string) (*models.SourceResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || s.now().After(e.expiresAt) {
		return nil, sentinel.ErrNotFound
	}
	result := e.result
	return &result, nil
}

// Save stores a result under key for the given TTL.
func (s *InMemoryStore) Save(_ context.Context, key string, result *models.SourceResult, ttl time.Duration) error {
	if result == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{result: *result, expiresAt: s.now().Add(ttl)}
	return nil
}
