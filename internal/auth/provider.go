package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/access-gateway/internal/domain"
)

var (
	// ErrTokenRevoked is returned for a verified token whose id was revoked.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenIDMissing is returned when revocation is enforced and the token
	// carries no jti to check.
	ErrTokenIDMissing = errors.New("token has no id")
)

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SessionFinder resolves an opaque session id to a token.
type SessionFinder interface {
	GetByToken(ctx context.Context, sessionToken string) (*domain.SessionToken, error)
}

// JWTProvider verifies self-contained session JWTs.
type JWTProvider struct {
	tokens  *TokenManager
	revoked RevocationChecker
}

// NewJWTProvider builds a provider. revoked may be nil to skip revocation checks.
func NewJWTProvider(tokens *TokenManager, revoked RevocationChecker) *JWTProvider {
	return &JWTProvider{tokens: tokens, revoked: revoked}
}

// Token returns the verified session token, or nil when no credential was sent.
func (p *JWTProvider) Token(ctx context.Context, creds domain.Credentials) (*domain.SessionToken, error) {
	if creds.Empty() {
		return nil, nil
	}
	raw := creds.BearerToken
	if raw == "" {
		raw = creds.SessionCookie
	}

	claims, err := p.tokens.ParseToken(raw)
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}

	if p.revoked != nil {
		if claims.ID == "" {
			return nil, ErrTokenIDMissing
		}
		revoked, err := p.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims.SessionToken(), nil
}

// DatabaseProvider resolves opaque session cookies stored by the identity provider.
type DatabaseProvider struct {
	sessions SessionFinder
}

// NewDatabaseProvider builds a provider over a session store.
func NewDatabaseProvider(sessions SessionFinder) *DatabaseProvider {
	return &DatabaseProvider{sessions: sessions}
}

// Token returns the stored session, or nil when absent or expired.
func (p *DatabaseProvider) Token(ctx context.Context, creds domain.Credentials) (*domain.SessionToken, error) {
	if creds.SessionCookie == "" {
		return nil, nil
	}

	token, err := p.sessions.GetByToken(ctx, creds.SessionCookie)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	return token, nil
}
