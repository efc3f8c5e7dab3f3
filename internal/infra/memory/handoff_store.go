package memory

import (
	"context"
	"sync"

	"mathstory-attempt-service/internal/domain"
)

// HandoffStore is an in-process implementation of app.HandoffStore: one
// material slot and one result slot per attempt key.
type HandoffStore struct {
	mu        sync.RWMutex
	materials map[string]domain.QuizMaterial
	results   map[string][]byte
}

func NewHandoffStore() *HandoffStore {
	return &HandoffStore{
		materials: make(map[string]domain.QuizMaterial),
		results:   make(map[string][]byte),
	}
}

func (s *HandoffStore) PutMaterial(_ context.Context, key string, material domain.QuizMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials[key] = material
	return nil
}

func (s *HandoffStore) Material(_ context.Context, key string) (domain.QuizMaterial, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	material, ok := s.materials[key]
	return material, ok, nil
}

func (s *HandoffStore) ClearMaterial(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.materials, key)
	return nil
}

func (s *HandoffStore) PutResult(_ context.Context, key string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(raw))
	copy(buf, raw)
	s.results[key] = buf
	return nil
}

// TakeResult returns the stored result and clears the slot; the result view
// reads it exactly once.
func (s *HandoffStore) TakeResult(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.results[key]
	if ok {
		delete(s.results, key)
	}
	return raw, ok, nil
}
