// Package session keeps each visitor's conversation history between
// requests and serializes requests that share a session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/heartline-ai/heartline/internal/cache"
	"github.com/heartline-ai/heartline/internal/chat"
)

// Store loads and saves conversation history by session id. Get returns an
// empty history for unknown sessions.
type Store interface {
	Get(ctx context.Context, id string) (chat.History, error)
	Put(ctx context.Context, id string, history chat.History) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps histories in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]chat.History
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]chat.History)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (chat.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id], nil
}

// Put stores history. Histories are never modified in place, so the slice
// is kept as is.
func (s *MemoryStore) Put(ctx context.Context, id string, history chat.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = history
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// CacheStore keeps histories as JSON in a cache.Client, Redis in production.
type CacheStore struct {
	client cache.Client
	ttl    time.Duration
}

// NewCacheStore creates a store whose entries expire ttl after the last write.
func NewCacheStore(client cache.Client, ttl time.Duration) *CacheStore {
	return &CacheStore{client: client, ttl: ttl}
}

func key(id string) string {
	return cache.Key("session", id)
}

func (s *CacheStore) Get(ctx context.Context, id string) (chat.History, error) {
	raw, err := s.client.Get(ctx, key(id))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var history chat.History
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return history, nil
}

func (s *CacheStore) Put(ctx context.Context, id string, history chat.History) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	if err := s.client.Set(ctx, key(id), raw, s.ttl); err != nil {
		return fmt.Errorf("put session %s: %w", id, err)
	}
	return nil
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, key(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*CacheStore)(nil)
)
