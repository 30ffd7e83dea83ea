package auth

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	setErr error
	data   map[string]string
	ttls   map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		data: map[string]string{},
		ttls: map[string]time.Duration{},
	}
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeKV) Del(ctx context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func TestIssueAndValidate(t *testing.T) {
	kv := newFakeKV()
	s := NewTokenStore(kv, time.Hour)
	ctx := context.Background()

	token, err := s.Issue(ctx, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := s.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)

	for _, ttl := range kv.ttls {
		assert.Equal(t, time.Hour, ttl)
	}
}

func TestTokensAreUnique(t *testing.T) {
	s := NewTokenStore(newFakeKV(), time.Hour)
	ctx := context.Background()

	t1, err := s.Issue(ctx, "alice")
	require.NoError(t, err)
	t2, err := s.Issue(ctx, "alice")
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
}

func TestValidateRejectsUnknownToken(t *testing.T) {
	s := NewTokenStore(newFakeKV(), time.Hour)

	_, err := s.Validate(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsEmptyToken(t *testing.T) {
	s := NewTokenStore(newFakeKV(), time.Hour)

	_, err := s.Validate(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokedTokenNoLongerValidates(t *testing.T) {
	s := NewTokenStore(newFakeKV(), time.Hour)
	ctx := context.Background()

	token, err := s.Issue(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, s.Revoke(ctx, token))

	_, err = s.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueFailsWhenStoreFails(t *testing.T) {
	kv := newFakeKV()
	kv.setErr = errors.New("kv down")
	s := NewTokenStore(kv, time.Hour)

	_, err := s.Issue(context.Background(), "alice")
	assert.Error(t, err)
}
