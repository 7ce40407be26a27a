package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/zenlist-realtime/pkg/auth"
	apperrors "github.com/thereayou/zenlist-realtime/pkg/errors"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

type memBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Duration
}

func (b *memBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = ttl
	return nil
}

func (b *memBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tokens[token]
	return ok, nil
}

func newTestAuthenticator() (*Authenticator, *memBlacklist) {
	bl := &memBlacklist{tokens: make(map[string]time.Duration)}
	jwt := auth.NewJWTManager("test-secret", time.Hour, "zenlist")
	return NewAuthenticator(newMemStore(), jwt, bl, logger.NewNop()), bl
}

func TestRegisterLoginIdentify(t *testing.T) {
	a, _ := newTestAuthenticator()
	ctx := context.Background()

	reg, err := a.Register(ctx, "Ann", "Ann@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", reg.User.Email)
	assert.NotEqual(t, "correct-horse", reg.User.PasswordHash)

	_, err = a.Register(ctx, "Ann again", "ann@example.com", "whatever1")
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = a.Login(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = a.Login(ctx, "nobody@example.com", "x")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	res, err := a.Login(ctx, "ann@example.com", "correct-horse")
	require.NoError(t, err)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	id, err := a.Identify(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, id.UserID)
	assert.Equal(t, "Ann", id.Name)
	assert.Equal(t, "ann@example.com", id.Email)
}

func TestLogoutRevokesToken(t *testing.T) {
	a, bl := newTestAuthenticator()
	ctx := context.Background()

	res, err := a.Register(ctx, "Bob", "bob@example.com", "password1")
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx, res.AccessToken))
	assert.Greater(t, bl.tokens[res.AccessToken], 50*time.Minute)

	_, err = a.Identify(ctx, res.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)

	assert.ErrorIs(t, a.Logout(ctx, "garbage"), apperrors.ErrAuthenticationRequired)
}

func TestIdentifyRejectsBadTokens(t *testing.T) {
	a, _ := newTestAuthenticator()
	ctx := context.Background()

	_, err := a.Identify(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)

	_, err = a.Identify(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)

	other := auth.NewJWTManager("other-secret", time.Hour, "zenlist")
	token, err := other.Generate("2b7c1f5e-3a5f-4d1b-9a8e-1f2d3c4b5a69", "x", "x@example.com")
	require.NoError(t, err)
	_, err = a.Identify(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)

	sameKey := auth.NewJWTManager("test-secret", time.Hour, "zenlist")
	token, err = sameKey.Generate("not-a-uuid", "x", "x@example.com")
	require.NoError(t, err)
	_, err = a.Identify(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)
}
