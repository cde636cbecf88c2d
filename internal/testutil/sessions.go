package testutil

import (
	"context"
	"sync"
	"time"

	"ats-backend/internal/core/cache"
)

// Sessions is an in-memory session store; TTLs are ignored.
type Sessions struct {
	mu sync.Mutex
	m  map[string]string
}

func NewSessions() *Sessions { return &Sessions{m: map[string]string{}} }

func (s *Sessions) Save(_ context.Context, uid, token string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[uid] = token
	return nil
}

func (s *Sessions) Lookup(_ context.Context, uid string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[uid]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (s *Sessions) Remove(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, uid)
	return nil
}
