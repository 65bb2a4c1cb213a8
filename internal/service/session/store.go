package session

import (
	"context"
	"sync"

	"github.com/zhouzirui/parla/backend/internal/model/persona"
)

// Store 保存每个发送者当前选择的助手模式。
type Store interface {
	Get(ctx context.Context, sender string) (persona.Mode, bool, error)
	Set(ctx context.Context, sender string, mode persona.Mode) error
}

// MemoryStore keeps modes in process memory. No eviction; modes are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	modes map[string]persona.Mode
}

// NewMemoryStore bootstraps an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{modes: make(map[string]persona.Mode)}
}

// Get returns the stored mode for sender.
func (s *MemoryStore) Get(_ context.Context, sender string) (persona.Mode, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mode, ok := s.modes[sender]
	return mode, ok, nil
}

// Set records mode for sender; last write wins.
func (s *MemoryStore) Set(_ context.Context, sender string, mode persona.Mode) error {
	s.mu.Lock()
	s.modes[sender] = mode
	s.mu.Unlock()
	return nil
}
