package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultStateTTL bounds how long a user may sit on Google's consent page.
	DefaultStateTTL = 10 * time.Minute
	// OAuthStateKeyPrefix is the Redis key prefix for pending OAuth states
	OAuthStateKeyPrefix = "oauth_state:"
)

// OAuthStateStore keeps single-use OAuth state tokens in Redis.
type OAuthStateStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewOAuthStateStore(rdb *redis.Client, ttl time.Duration) *OAuthStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &OAuthStateStore{rdb: rdb, ttl: ttl}
}

// Create stores a fresh state token and returns it.
func (s *OAuthStateStore) Create(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.rdb.Set(ctx, OAuthStateKeyPrefix+state, time.Now().UTC().Format(time.RFC3339), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return state, nil
}

// Consume deletes the state and fails with ErrInvalidState when it was
// unknown, expired or already used.
func (s *OAuthStateStore) Consume(ctx context.Context, state string) error {
	if state == "" {
		return ErrInvalidState
	}
	if err := s.rdb.GetDel(ctx, OAuthStateKeyPrefix+state).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrInvalidState
		}
		return fmt.Errorf("consume oauth state: %w", err)
	}
	return nil
}
