// Package auth implements the identity provider: bcrypt password hashes
// kept in the users storage and HS256 signed JWT access tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
	"github.com/niksmo/e-label/internal/core/validate"
	"golang.org/x/crypto/bcrypt"
)

var _ port.IdentityProvider = (*Provider)(nil)

const (
	DefaultBcryptCost = 12
	DefaultTokenTTL   = 24 * time.Hour
)

type claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type ProviderOpt func(*Provider)

func IssuerOpt(issuer string) ProviderOpt {
	return func(p *Provider) {
		p.issuer = issuer
	}
}

func TokenTTLOpt(ttl time.Duration) ProviderOpt {
	return func(p *Provider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

func BcryptCostOpt(cost int) ProviderOpt {
	return func(p *Provider) {
		p.cost = cost
	}
}

func ClockOpt(clock func() time.Time) ProviderOpt {
	return func(p *Provider) {
		p.clock = clock
	}
}

type Provider struct {
	users  port.UsersStorage
	secret []byte
	issuer string
	ttl    time.Duration
	cost   int
	clock  func() time.Time
}

func NewProvider(
	users port.UsersStorage, secret string, opts ...ProviderOpt,
) (*Provider, error) {
	const op = "auth.NewProvider"

	if secret == "" {
		return nil, fmt.Errorf("%s: jwt secret is empty", op)
	}

	p := &Provider{
		users:  users,
		secret: []byte(secret),
		issuer: "e-label",
		ttl:    DefaultTokenTTL,
		cost:   DefaultBcryptCost,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Register creates a user account. The name defaults to the local part
// of the email address.
func (p *Provider) Register(
	ctx context.Context, email, password, name string,
) (domain.Principal, error) {
	const op = "Provider.Register"

	email = strings.TrimSpace(email)
	err := validate.Registration(validate.Credentials{
		Email: email, Password: password, Name: name,
	})
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%s: %w", op, err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	u, err := p.users.CreateUser(ctx, domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	})
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%s: %w", op, err)
	}

	slog.Info("user registered", "op", op, "userID", u.ID)
	return principalOf(u), nil
}

// VerifyCredentials reports [domain.ErrInvalidCredentials] both for an
// unknown email and for a wrong password.
func (p *Provider) VerifyCredentials(
	ctx context.Context, email, password string,
) (domain.Principal, error) {
	const op = "Provider.VerifyCredentials"

	err := validate.Login(validate.Credentials{Email: email, Password: password})
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%s: %w", op, err)
	}

	u, ok, err := p.users.ReadUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return domain.Principal{}, fmt.Errorf(
			"%s: %w", op, domain.ErrInvalidCredentials,
		)
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.Principal{}, fmt.Errorf(
				"%s: %w", op, domain.ErrInvalidCredentials,
			)
		}
		return domain.Principal{}, fmt.Errorf("%s: %w", op, err)
	}

	return principalOf(u), nil
}

func (p *Provider) IssueToken(
	principal domain.Principal,
) (string, time.Time, error) {
	const op = "Provider.IssueToken"

	now := p.clock()
	expiresAt := now.Add(p.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: principal.Email,
		Name:  principal.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   principal.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return signed, expiresAt, nil
}

// VerifyToken checks the signature, issuer and expiry of token and that
// its subject still exists.
func (p *Provider) VerifyToken(
	ctx context.Context, token string,
) (domain.Principal, error) {
	const op = "Provider.VerifyToken"

	var c claims
	_, err := jwt.ParseWithClaims(
		token, &c,
		func(*jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.clock),
	)
	if err != nil {
		return domain.Principal{}, fmt.Errorf(
			"%s: %w: %w", op, domain.ErrUnauthenticated, err,
		)
	}

	u, ok, err := p.users.ReadUser(ctx, c.Subject)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return domain.Principal{}, fmt.Errorf(
			"%s: %w: unknown subject", op, domain.ErrUnauthenticated,
		)
	}
	return principalOf(u), nil
}

func principalOf(u domain.User) domain.Principal {
	return domain.Principal{UserID: u.ID, Email: u.Email, Name: u.Name}
}
