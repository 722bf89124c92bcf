// Package memory provides an in-memory kv.Store, suitable for tests and
// single-process deployments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"microblog/internal/kv"
	"microblog/internal/models"
)

type item struct {
	value     []byte
	expiresAt time.Time // zero = no expiry
}

func (it item) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && it.expiresAt.Before(now)
}

// Store is an in-memory kv.Store keyed by full key string.
type Store struct {
	mu   sync.RWMutex
	data map[string]item
}

func New() *Store {
	return &Store{data: make(map[string]item)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	it, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrNotFound
	}
	if it.expired(time.Now()) {
		// Expired; delete lazily
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()
		return nil, models.ErrNotFound
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)
	it := item{value: v}
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.data[key] = it
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) List(_ context.Context, prefix string) ([]kv.Entry, error) {
	now := time.Now()
	s.mu.RLock()
	out := make([]kv.Entry, 0, 16)
	for k, it := range s.data {
		if !strings.HasPrefix(k, prefix) || it.expired(now) {
			continue
		}
		v := make([]byte, len(it.value))
		copy(v, it.value)
		out = append(out, kv.Entry{Key: k, Value: v})
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) Close() error { return nil }

// StartSweeper launches a background goroutine that periodically removes
// expired items. It stops when ctx is done.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := time.Now()
				s.mu.Lock()
				for k, it := range s.data {
					if it.expired(now) {
						delete(s.data, k)
					}
				}
				s.mu.Unlock()
			}
		}
	}()
}
