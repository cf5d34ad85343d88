package sharestore

import "sync"

// InMemoryStore is a map-backed Store used by the session-engine tests;
// the cmd/twoparty-demo binary persists through FileStore instead.
type InMemoryStore struct {
	mu     sync.Mutex
	shares map[string]*SavedShare
}

// NewInMemoryStore returns an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{shares: make(map[string]*SavedShare)}
}

func (s *InMemoryStore) Save(share *SavedShare) error {
	if share == nil || share.ShareID == "" {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *share
	s.shares[share.ShareID] = &cp
	return nil
}

func (s *InMemoryStore) Load(shareID string) (*SavedShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	share, ok := s.shares[shareID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *share
	return &cp, nil
}

func (s *InMemoryStore) Delete(shareID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shares[shareID]; !ok {
		return ErrNotFound
	}
	delete(s.shares, shareID)
	return nil
}
