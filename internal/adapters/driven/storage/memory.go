// Package storage provides LightStorage backends. Payloads are kept in
// their canonical light XML form so the cache contents stay compatible
// with other specific-communication implementations reading the same
// cache.
package storage

import (
	"context"
	"sync"

	"github.com/vrk-kpa/eidas-bridge/internal/adapters/driven/lightxml"
	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
)

// MemoryStore is an in-process LightStorage for single-node deployments
// and tests. Pop holds the mutex across lookup and delete, so a payload
// is observed by at most one reader.
type MemoryStore struct {
	mu        sync.Mutex
	requests  map[string][]byte
	responses map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests:  make(map[string][]byte),
		responses: make(map[string][]byte),
	}
}

// PutLightRequest stores a light request under id.
func (s *MemoryStore) PutLightRequest(_ context.Context, id string, request *domain.LightRequest) error {
	data, err := lightxml.MarshalRequest(request)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[id] = data
	return nil
}

// GetLightRequest looks up a light request by id.
func (s *MemoryStore) GetLightRequest(_ context.Context, id string) (*domain.LightRequest, error) {
	s.mu.Lock()
	data, ok := s.requests[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return lightxml.UnmarshalRequest(data)
}

// PutLightResponse stores a light response under id.
func (s *MemoryStore) PutLightResponse(_ context.Context, id string, response *domain.LightResponse) error {
	data, err := lightxml.MarshalResponse(response)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[id] = data
	return nil
}

// PopLightResponse atomically retrieves and deletes a light response.
func (s *MemoryStore) PopLightResponse(_ context.Context, id string) (*domain.LightResponse, error) {
	s.mu.Lock()
	data, ok := s.responses[id]
	if ok {
		delete(s.responses, id)
	}
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return lightxml.UnmarshalResponse(data)
}
