package domain

import "time"

// SessionToken is the verified credential of a request as reported by the
// identity provider. The gateway only reads it.
type SessionToken struct {
	ID        string
	Subject   string
	Name      string
	Email     string
	Roles     []Role
	ExpiresAt time.Time
}

// Credentials are the raw transport credentials attached to a request.
type Credentials struct {
	SessionCookie string
	BearerToken   string
}

// Empty reports whether the request carried no credential at all.
func (c Credentials) Empty() bool {
	return c.SessionCookie == "" && c.BearerToken == ""
}
