package redis

import (
	"context"
	"errors"
	"etape/training-hub/internal/repository"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateRepository keeps OAuth state values in Redis with a TTL.
type StateRepository struct {
	client *redis.Client
}

func NewStateRepository(redisURL string) (*StateRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &StateRepository{client: client}, nil
}

func (r *StateRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func stateKey(state string) string {
	return fmt.Sprintf("oauth_state:%s", state)
}

func (r *StateRepository) Save(ctx context.Context, state, userID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, stateKey(state), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	return nil
}

// Consume uses GETDEL so a state value can be redeemed only once.
func (r *StateRepository) Consume(ctx context.Context, state string) (string, error) {
	userID, err := r.client.GetDel(ctx, stateKey(state)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to read oauth state: %w", err)
	}
	return userID, nil
}

var _ repository.OAuthStateRepository = (*StateRepository)(nil)
