package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/access-gateway/internal/domain"
)

// Querier is the subset of pgxpool.Pool used by repositories.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SessionRepository reads sessions written by the identity provider.
type SessionRepository interface {
	GetByToken(ctx context.Context, sessionToken string) (*domain.SessionToken, error)
}

type sessionRepository struct {
	db Querier
}

// NewSessionRepository returns a Postgres-backed implementation.
func NewSessionRepository(db Querier) SessionRepository {
	return &sessionRepository{db: db}
}

// GetByToken returns pgx.ErrNoRows for unknown or expired sessions.
func (r *sessionRepository) GetByToken(ctx context.Context, sessionToken string) (*domain.SessionToken, error) {
	const query = `
        SELECT s.session_token, u.id, COALESCE(u.name, ''), COALESCE(u.email, ''), u.roles, s.expires
        FROM sessions s
        JOIN users u ON u.id = s.user_id
        WHERE s.session_token=$1 AND s.expires > NOW()`

	var (
		token    domain.SessionToken
		rawRoles []byte
	)
	if err := r.db.QueryRow(ctx, query, sessionToken).Scan(
		&token.ID,
		&token.Subject,
		&token.Name,
		&token.Email,
		&rawRoles,
		&token.ExpiresAt,
	); err != nil {
		return nil, err
	}

	if len(rawRoles) > 0 {
		if err := json.Unmarshal(rawRoles, &token.Roles); err != nil {
			return nil, fmt.Errorf("decode roles for %s: %w", token.Subject, err)
		}
	}
	return &token, nil
}
