package memory

import (
	"context"
	"sync"

	"prep-progress-service/internal/domain"
)

// DocumentStore is an in-memory implementation of app.DocumentStore, used in
// tests and when no Postgres URL is configured.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[string]map[string][]byte),
	}
}

func (s *DocumentStore) Get(_ context.Context, userID, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.docs[userID]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	data, ok := user[name]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *DocumentStore) Set(_ context.Context, userID, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.docs[userID]
	if !ok {
		user = make(map[string][]byte)
		s.docs[userID] = user
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	user[name] = stored
	return nil
}

func (s *DocumentStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, userID)
	return nil
}
