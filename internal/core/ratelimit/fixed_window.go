// Package ratelimit implements fixed-window admission counters keyed by an
// arbitrary string (usually the client address).
package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store increments the counter for key and makes it expire after ttl.
type Store interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type FixedWindow struct {
	Store  Store
	Limit  int
	Window time.Duration
	Prefix string
	Now    func() time.Time
}

func (f *FixedWindow) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Allow counts one request for key in the current window.
func (f *FixedWindow) Allow(ctx context.Context, key string) (Decision, error) {
	start := f.now().Truncate(f.Window)
	reset := start.Add(f.Window)
	k := f.Prefix + key + ":" + strconv.FormatInt(start.Unix(), 10)

	n, err := f.Store.Incr(ctx, k, f.Window)
	if err != nil {
		return Decision{Allowed: true, Limit: f.Limit, Remaining: f.Limit, ResetAt: reset}, err
	}
	remaining := f.Limit - int(n)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   n <= int64(f.Limit),
		Limit:     f.Limit,
		Remaining: remaining,
		ResetAt:   reset,
	}, nil
}

// RedisStore shares counters across API replicas.
type RedisStore struct{ RDB *redis.Client }

func (s RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := s.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// MemoryStore is a single-process store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	now     func() time.Time
}

type memEntry struct {
	n   int64
	exp time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]*memEntry{}, now: time.Now}
}

func (s *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.exp) {
		s.sweep(now)
		e = &memEntry{exp: now.Add(ttl)}
		s.entries[key] = e
	}
	e.n++
	return e.n, nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.exp) {
			delete(s.entries, k)
		}
	}
}
