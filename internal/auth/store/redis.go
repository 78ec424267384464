package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	id "kreditomat/pkg/domain"
	dErrors "kreditomat/pkg/domain-errors"
)

const (
	otpKeyPrefix     = "otp:"
	sessionKeyPrefix = "session:"
)

// RedisOTPStore keeps hashed OTP codes in Redis with a server-side TTL.
// This is the production implementation; expiry needs no sweeper.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func (s *RedisOTPStore) Store(ctx context.Context, phone, codeHash string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKeyPrefix+phone, codeHash, ttl).Err()
}

func (s *RedisOTPStore) Get(ctx context.Context, phone string) (string, error) {
	hash, err := s.client.Get(ctx, otpKeyPrefix+phone).Result()
	if errors.Is(err, redis.Nil) {
		return "", dErrors.New(dErrors.CodeNotFound, "code not found")
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read otp code")
	}
	return hash, nil
}

func (s *RedisOTPStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, otpKeyPrefix+phone).Err()
}

// RedisSessionStore maps access tokens to user IDs in Redis so logout works
// across all server instances.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Store(ctx context.Context, token string, userID id.UserID, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKeyPrefix+token, userID.String(), ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (id.UserID, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return id.UserID{}, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return id.UserID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read session")
	}
	userID, err := id.ParseUserID(raw)
	if err != nil {
		return id.UserID{}, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt session record")
	}
	return userID, nil
}

func (s *RedisSessionStore) Extend(ctx context.Context, token string, ttl time.Duration) error {
	ok, err := s.client.Expire(ctx, sessionKeyPrefix+token, ttl).Result()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to extend session")
	}
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Del(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
	}
	return n > 0, nil
}
