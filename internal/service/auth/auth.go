package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrInvalidToken covers missing, unknown, revoked, and expired tokens alike.
var ErrInvalidToken = errors.New("invalid or expired token")

type (
	// KV is the token storage backend. Get must return redis.Nil for a missing
	// key, which is how expiry surfaces here: expired keys simply vanish.
	KV interface {
		Set(ctx context.Context, key string, value any, ttl time.Duration) error
		Get(ctx context.Context, key string) (string, error)
		Del(ctx context.Context, key string) error
	}

	// TokenStore issues opaque bearer tokens bound to a user identity.
	TokenStore struct {
		kv  KV
		ttl time.Duration
	}
)

func NewTokenStore(kv KV, ttl time.Duration) *TokenStore {
	return &TokenStore{
		kv:  kv,
		ttl: ttl,
	}
}

func (s *TokenStore) Issue(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "generate token")
	}

	token := hex.EncodeToString(buf)
	if err := s.kv.Set(ctx, tokenKey(token), userID, s.ttl); err != nil {
		return "", errors.Wrap(err, "store token")
	}
	return token, nil
}

// Validate resolves a token to the owning user id.
func (s *TokenStore) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	userID, err := s.kv.Get(ctx, tokenKey(token))
	if err == redis.Nil {
		return "", ErrInvalidToken
	}

	if err != nil {
		return "", errors.Wrap(err, "load token")
	}

	return userID, nil
}

func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	return s.kv.Del(ctx, tokenKey(token))
}

func tokenKey(token string) string {
	return fmt.Sprintf("token: %s", token)
}
