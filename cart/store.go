package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-order-engine/models"
)

// DefaultSessionTTL is how long an idle cart survives in Redis.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore keeps a session's cart in Redis so it survives restarts.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

type storedCart struct {
	Items   []models.LineItem `json:"items"`
	SavedAt time.Time         `json:"saved_at"`
}

// Save writes the cart's current items under the session key.
func (s *SessionStore) Save(ctx context.Context, sessionID string, c *Cart) error {
	payload, err := json.Marshal(storedCart{
		Items:   c.Snapshot().Items,
		SavedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Load returns the stored cart, or an empty cart when the session has none.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var stored storedCart
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}

	c := New()
	if err := c.restore(stored.Items); err != nil {
		return nil, fmt.Errorf("restore cart %s: %w", sessionID, err)
	}
	return c, nil
}

// Delete removes the session's cart.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
