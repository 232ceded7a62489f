package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/campus-api/internal/models"
)

const tokenKeyPrefix = "campus:token:"

// tokenKeyGrace keeps a key around slightly past its expiry so the service
// still observes and reports the expired record.
const tokenKeyGrace = time.Minute

// redisCommands is the subset of redis.Cmdable used for tokens.
type redisCommands interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// TokenRedisRepository stores tokens as JSON values with a TTL.
type TokenRedisRepository struct {
	client redisCommands
}

// NewTokenRedisRepository constructs a Redis-backed token store.
func NewTokenRedisRepository(client redisCommands) *TokenRedisRepository {
	return &TokenRedisRepository{client: client}
}

func tokenKey(token string) string {
	return tokenKeyPrefix + token
}

// Put stores the token record.
func (r *TokenRedisRepository) Put(ctx context.Context, token string, record models.Token) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := r.client.Set(ctx, tokenKey(token), payload, models.TokenTTL+tokenKeyGrace).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

// Get returns the record for token or ErrNotFound.
func (r *TokenRedisRepository) Get(ctx context.Context, token string) (*models.Token, error) {
	raw, err := r.client.Get(ctx, tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get token: %w", err)
	}
	var record models.Token
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	return &record, nil
}

// Delete removes token.
func (r *TokenRedisRepository) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("redis delete token: %w", err)
	}
	return nil
}
