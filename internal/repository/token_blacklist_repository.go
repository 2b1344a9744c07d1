package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const blacklistKey = "tokenBlacklist"

// TokenBlacklist records revoked access tokens.
type TokenBlacklist interface {
	Add(ctx context.Context, token string) error
	Contains(ctx context.Context, token string) (bool, error)
}

// RedisTokenBlacklist keeps revoked tokens in a single Redis list. Lookups
// scan the whole list, so cost grows with the number of logouts.
type RedisTokenBlacklist struct {
	rdb *redis.Client
	key string
}

func NewRedisTokenBlacklist(rdb *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{rdb: rdb, key: blacklistKey}
}

func (b *RedisTokenBlacklist) Add(ctx context.Context, token string) error {
	if err := b.rdb.LPush(ctx, b.key, token).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	tokens, err := b.rdb.LRange(ctx, b.key, 0, -1).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read token blacklist: %w", err)
	}

	for _, t := range tokens {
		if t == token {
			return true, nil
		}
	}
	return false, nil
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}
