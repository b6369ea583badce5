// Package sessions keeps respondent sessions between requests.
package sessions

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Store holds encoded sessions with a time to live. Put refreshes the TTL.
type Store interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Put(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore is a process-local Store. Expired entries are invisible to
// Get but only released by Sweep.
type MemoryStore struct {
	sync.Mutex
	m   map[string]memoryEntry
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	s.Lock()
	defer s.Unlock()
	e, ok := s.m[id]
	if !ok || !s.now().Before(e.expires) {
		return nil, ErrSessionNotFound
	}
	return append([]byte(nil), e.data...), nil
}

func (s *MemoryStore) Put(_ context.Context, id string, data []byte, ttl time.Duration) error {
	s.Lock()
	defer s.Unlock()
	s.m[id] = memoryEntry{data: append([]byte(nil), data...), expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.Lock()
	defer s.Unlock()
	delete(s.m, id)
	return nil
}

// Sweep drops the expired entries and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.Lock()
	defer s.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.m {
		if !now.Before(e.expires) {
			delete(s.m, id)
			n++
		}
	}
	return n
}

func (s *MemoryStore) Len() int {
	s.Lock()
	defer s.Unlock()
	return len(s.m)
}
