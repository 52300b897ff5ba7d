package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"androbot/internal/dialogue"
	"github.com/redis/go-redis/v9"
)

// StateStore keeps dialogue conversations in Redis so every instance sees the same state.
// Entries expire after ttl of inactivity; an expired user starts over at the main menu.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	return &StateStore{client: client, ttl: ttl}
}

func (s *StateStore) Load(ctx context.Context, userID int64) (dialogue.Conversation, bool, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return dialogue.Conversation{}, false, nil
	}
	if err != nil {
		return dialogue.Conversation{}, false, fmt.Errorf("load conversation: %w", err)
	}
	var conv dialogue.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return dialogue.Conversation{}, false, fmt.Errorf("decode conversation: %w", err)
	}
	return conv, true, nil
}

func (s *StateStore) Save(ctx context.Context, userID int64, conv dialogue.Conversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (s *StateStore) Delete(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

func (s *StateStore) key(userID int64) string {
	return "androbot:dialogue:" + strconv.FormatInt(userID, 10)
}
