package memory

import (
	"context"
	"sync"

	"androbot/internal/dialogue"
)

// StateStore is an in-memory implementation of dialogue.StateStore.
type StateStore struct {
	mu            sync.RWMutex
	conversations map[int64]dialogue.Conversation
}

func NewStateStore() *StateStore {
	return &StateStore{
		conversations: make(map[int64]dialogue.Conversation),
	}
}

func (s *StateStore) Load(_ context.Context, userID int64) (dialogue.Conversation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[userID]
	return conv, ok, nil
}

func (s *StateStore) Save(_ context.Context, userID int64, conv dialogue.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[userID] = conv
	return nil
}

func (s *StateStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, userID)
	return nil
}
