package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/access-gateway/internal/domain"
)

// CredentialsFromRequest collects the session cookie and bearer token of a
// request. A malformed Authorization header is ignored rather than rejected.
func CredentialsFromRequest(c *fiber.Ctx, cookieName string) domain.Credentials {
	creds := domain.Credentials{}
	if cookieName != "" {
		creds.SessionCookie = strings.Clone(c.Cookies(cookieName))
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		creds.BearerToken = strings.Clone(strings.TrimSpace(parts[1]))
	}
	return creds
}
