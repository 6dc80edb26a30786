package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/niksmo/e-label/internal/adapter/auth"
	"github.com/niksmo/e-label/internal/adapter/storage"
	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func newProvider(t *testing.T, opts ...auth.ProviderOpt) (*auth.Provider, *clock) {
	t.Helper()
	clk := &clock{now: time.Now()}
	opts = append(
		[]auth.ProviderOpt{
			auth.BcryptCostOpt(bcrypt.MinCost),
			auth.ClockOpt(clk.Now),
		},
		opts...,
	)
	p, err := auth.NewProvider(storage.NewMemoryStorage(), "test-secret", opts...)
	require.NoError(t, err)
	return p, clk
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	p, _ := newProvider(t)

	registered, err := p.Register(ctx, " editor@winery.example ", "secret1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, registered.UserID)
	assert.Equal(t, "editor@winery.example", registered.Email)
	assert.Equal(t, "editor", registered.Name)

	_, err = p.Register(ctx, "EDITOR@winery.example", "secret2", "Other")
	assert.ErrorIs(t, err, domain.ErrUserExists)

	principal, err := p.VerifyCredentials(ctx, "editor@winery.example", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered, principal)

	_, err = p.VerifyCredentials(ctx, "editor@winery.example", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = p.VerifyCredentials(ctx, "nobody@winery.example", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	p, _ := newProvider(t)

	_, err := p.Register(context.Background(), "not-an-email", "123", "")
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.Has("email", domain.ReasonInvalidEmail))
	assert.True(t, vErr.Has("password", domain.ReasonTooShort))
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	p, clk := newProvider(t, auth.TokenTTLOpt(time.Hour))

	principal, err := p.Register(ctx, "editor@winery.example", "secret1", "Editor")
	require.NoError(t, err)

	token, expiresAt, err := p.IssueToken(principal)
	require.NoError(t, err)
	assert.WithinDuration(t, clk.now.Add(time.Hour), expiresAt, time.Second)

	got, err := p.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, principal, got)

	t.Run("Tampered", func(t *testing.T) {
		_, err := p.VerifyToken(ctx, token+"x")
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("OtherSecret", func(t *testing.T) {
		other, err := auth.NewProvider(storage.NewMemoryStorage(), "other-secret")
		require.NoError(t, err)
		_, err = other.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("UnknownSubject", func(t *testing.T) {
		ghost, _, err := p.IssueToken(domain.Principal{UserID: "ghost"})
		require.NoError(t, err)
		_, err = p.VerifyToken(ctx, ghost)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("Expired", func(t *testing.T) {
		clk.now = clk.now.Add(2 * time.Hour)
		_, err := p.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}

func TestNewProviderRequiresSecret(t *testing.T) {
	_, err := auth.NewProvider(storage.NewMemoryStorage(), "")
	assert.Error(t, err)
}
