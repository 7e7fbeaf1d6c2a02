// Package guard decides, per request, whether a protected page may be
// served or the caller must be sent to a login surface first.
package guard

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/access-gateway/internal/auth"
	"github.com/spec-kit/access-gateway/internal/config"
	"github.com/spec-kit/access-gateway/internal/domain"
)

// TokenSource is the identity provider as seen by the guard. A nil token
// with a nil error means the request carried no session.
type TokenSource interface {
	Token(ctx context.Context, creds domain.Credentials) (*domain.SessionToken, error)
}

// Request is the part of an inbound request the guard looks at. Path is
// expected in canonical form, see CanonicalPath.
type Request struct {
	Path        string
	RawQuery    string
	Credentials domain.Credentials
}

// Guard classifies paths and produces forward-or-redirect decisions.
type Guard struct {
	storePrefix       string
	personalPaths     []string
	adminPrefix       string
	loginPath         string
	customerLoginPath string
	callbackParam     string
	admins            auth.RoleSet
	tokens            TokenSource
	logger            *zap.Logger
}

// New builds a guard from the route table. The table is copied; later
// changes to cfg do not affect the guard.
func New(cfg config.GuardConfig, tokens TokenSource, logger *zap.Logger) (*Guard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("guard config: %w", err)
	}
	if tokens == nil {
		return nil, fmt.Errorf("guard config: token source is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		storePrefix:       strings.ToLower(cfg.StorePrefix),
		personalPaths:     lowerAll(cfg.PersonalPaths),
		adminPrefix:       strings.ToLower(cfg.AdminPrefix),
		loginPath:         cfg.LoginPath,
		customerLoginPath: cfg.CustomerLoginPath,
		callbackParam:     cfg.CallbackParam,
		admins:            auth.NewRoleSet(cfg.AdminRoles...),
		tokens:            tokens,
		logger:            logger,
	}, nil
}

// Classify maps a path to its rule. First match wins: store prefix,
// personal routes, admin prefix, then public. Paths compare ignoring case.
func (g *Guard) Classify(path string) Rule {
	path = strings.ToLower(path)
	switch {
	case strings.HasPrefix(path, g.storePrefix):
		return Rule{Class: AccessAuthRequired, Login: LoginPrimary}
	case slices.Contains(g.personalPaths, path):
		return Rule{Class: AccessAuthRequired, Login: LoginCustomer}
	case strings.HasPrefix(path, g.adminPrefix):
		return Rule{Class: AccessAdminRequired, Login: LoginPrimary}
	default:
		return Rule{Class: AccessPublic}
	}
}

// Evaluate decides what to do with req. It never fails: a token lookup
// error is treated like a missing session.
func (g *Guard) Evaluate(ctx context.Context, req Request) Decision {
	rule := g.Classify(req.Path)
	if rule.Class == AccessPublic {
		return Decision{Outcome: OutcomeForward, Rule: rule, Reason: ReasonPublic}
	}

	token, err := g.tokens.Token(ctx, req.Credentials)
	if err != nil {
		g.logger.Warn("session lookup failed",
			zap.String("path", req.Path),
			zap.Error(err),
		)
		token = nil
	}

	if token == nil {
		return g.redirect(rule, req, ReasonNoSession)
	}

	if rule.Class == AccessAdminRequired {
		if !g.admins.GrantsToken(token) {
			return g.redirect(rule, req, ReasonInsufficientRole)
		}
		return Decision{Outcome: OutcomeForward, Rule: rule, Reason: ReasonAuthorized}
	}
	return Decision{Outcome: OutcomeForward, Rule: rule, Reason: ReasonAuthenticated}
}

func (g *Guard) redirect(rule Rule, req Request, reason Reason) Decision {
	target := g.loginPath
	if rule.Login == LoginCustomer {
		target = g.customerLoginPath
	}
	return Decision{
		Outcome:  OutcomeRedirect,
		Rule:     rule,
		Reason:   reason,
		Location: withCallback(target, g.callbackParam, callbackTarget(req.Path, req.RawQuery)),
	}
}

func lowerAll(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = strings.ToLower(p)
	}
	return out
}

func callbackTarget(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}

// withCallback sets param on the login path, replacing any value already there.
func withCallback(loginPath, param, callback string) string {
	u, err := url.Parse(loginPath)
	if err != nil {
		u = &url.URL{Path: loginPath}
	}
	q := u.Query()
	q.Set(param, callback)
	u.RawQuery = q.Encode()
	return u.String()
}
