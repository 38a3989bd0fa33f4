package objectstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is a map-backed Store for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(ctx context.Context, objectName string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[objectName] = cp
	return "mem://" + objectName, nil
}

func (s *MemoryStore) Fetch(ctx context.Context, uri string) ([]byte, error) {
	name := strings.TrimPrefix(uri, "mem://")
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("Fetch: object %q not found", name)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

var _ Store = (*MemoryStore)(nil)
