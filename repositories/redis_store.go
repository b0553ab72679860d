package repositories

import (
	"context"
	"errors"
	"time"

	"disasterguardian/interfaces"

	"github.com/go-redis/redis/v8"
)

const (
	otpKeyPrefix      = "pwreset:"
	attemptsKeyPrefix = "pwreset_attempts:"
	revokedKeyPrefix  = "revoked:"
)

// RedisOTPStore keeps password-reset secrets in Redis with a TTL.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func (s *RedisOTPStore) Save(ctx context.Context, key, secret string, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, otpKeyPrefix+key, secret, ttl)
	pipe.Del(ctx, attemptsKeyPrefix+key)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisOTPStore) Get(ctx context.Context, key string) (string, error) {
	secret, err := s.client.Get(ctx, otpKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", interfaces.ErrNotFound
	}
	return secret, err
}

func (s *RedisOTPStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, otpKeyPrefix+key, attemptsKeyPrefix+key).Err()
}

func (s *RedisOTPStore) IncrementAttempts(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, attemptsKeyPrefix+key)
	pipe.Expire(ctx, attemptsKeyPrefix+key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RedisRevocationStore remembers revoked token ids until they would expire.
type RedisRevocationStore struct {
	client *redis.Client
}

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
