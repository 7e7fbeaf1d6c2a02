package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/access-gateway/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm, err := NewTokenManager("secret", time.Minute)
	require.NoError(t, err)

	slug := "superadmin"
	roles := []domain.Role{domain.NewNameRole("editor"), domain.NewRecordRole(domain.RoleRecord{Slug: &slug})}

	raw, exp, err := tm.GenerateToken("user-1", "Amina", "a@example.com", roles)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	claims, err := tm.ParseToken(raw)
	require.NoError(t, err)

	token := claims.SessionToken()
	assert.Equal(t, "user-1", token.Subject)
	assert.Equal(t, "Amina", token.Name)
	assert.Equal(t, "a@example.com", token.Email)
	assert.NotEmpty(t, token.ID)
	require.Len(t, token.Roles, 2)
	assert.Equal(t, "editor", token.Roles[0].Name())
	assert.Equal(t, "superadmin", token.Roles[1].Name())
}

func TestTokenManager_RejectsOtherSecret(t *testing.T) {
	issuer, err := NewTokenManager("secret-a", time.Minute)
	require.NoError(t, err)
	verifier, err := NewTokenManager("secret-b", time.Minute)
	require.NoError(t, err)

	raw, _, err := issuer.GenerateToken("user-1", "", "", nil)
	require.NoError(t, err)

	_, err = verifier.ParseToken(raw)
	assert.Error(t, err)
}

func TestTokenManager_RejectsRawSecretSignature(t *testing.T) {
	tm, err := NewTokenManager("secret", time.Minute)
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = tm.ParseToken(raw)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm, err := NewTokenManager("secret", time.Minute)
	require.NoError(t, err)

	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	require.NoError(t, err)

	_, err = tm.ParseToken(raw)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_RequiresExpiry(t *testing.T) {
	tm, err := NewTokenManager("secret", time.Minute)
	require.NoError(t, err)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{}).SignedString(tm.secret)
	require.NoError(t, err)

	_, err = tm.ParseToken(raw)
	assert.Error(t, err)
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	_, err := NewTokenManager("", time.Minute)
	assert.Error(t, err)
}
