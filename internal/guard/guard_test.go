package guard

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/access-gateway/internal/config"
	"github.com/spec-kit/access-gateway/internal/domain"
)

type fakeTokens struct {
	token *domain.SessionToken
	err   error
	calls int
}

func (f *fakeTokens) Token(context.Context, domain.Credentials) (*domain.SessionToken, error) {
	f.calls++
	return f.token, f.err
}

func testConfig() config.GuardConfig {
	return config.GuardConfig{
		StorePrefix:       "/store",
		PersonalPaths:     []string{"/profile", "/cart"},
		AdminPrefix:       "/admin",
		LoginPath:         "/auth/login",
		CustomerLoginPath: "/auth/customer/login",
		CallbackParam:     "callbackUrl",
		AdminRoles:        []string{"admin", "superadmin"},
		Matcher:           []string{"/store/*", "/profile", "/cart", "/admin/*"},
	}
}

func newGuard(t *testing.T, tokens TokenSource) *Guard {
	t.Helper()
	g, err := New(testConfig(), tokens, nil)
	require.NoError(t, err)
	return g
}

func withRoles(roles ...domain.Role) *domain.SessionToken {
	return &domain.SessionToken{Subject: "user-1", Roles: roles}
}

func strPtr(s string) *string { return &s }

func TestClassify(t *testing.T) {
	g := newGuard(t, &fakeTokens{})

	cases := map[string]Rule{
		"/store":            {Class: AccessAuthRequired, Login: LoginPrimary},
		"/store/items/42":   {Class: AccessAuthRequired, Login: LoginPrimary},
		"/profile":          {Class: AccessAuthRequired, Login: LoginCustomer},
		"/cart":             {Class: AccessAuthRequired, Login: LoginCustomer},
		"/cart/checkout":    {Class: AccessPublic},
		"/admin":            {Class: AccessAdminRequired, Login: LoginPrimary},
		"/admin/users":      {Class: AccessAdminRequired, Login: LoginPrimary},
		"/quran/surah/1":    {Class: AccessPublic},
		"/":                 {Class: AccessPublic},
		"/auth/login":       {Class: AccessPublic},
		"/profile/settings": {Class: AccessPublic},
		"/Admin/users":      {Class: AccessAdminRequired, Login: LoginPrimary},
		"/STORE":            {Class: AccessAuthRequired, Login: LoginPrimary},
		"/Cart":             {Class: AccessAuthRequired, Login: LoginCustomer},
	}

	for path, want := range cases {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, want, g.Classify(path))
		})
	}
}

func TestEvaluate_PublicNeverLooksUpToken(t *testing.T) {
	tokens := &fakeTokens{err: errors.New("provider down")}
	g := newGuard(t, tokens)

	for _, path := range []string{"/", "/hadith", "/doa/morning", "/campaigns/12"} {
		d := g.Evaluate(context.Background(), Request{Path: path})
		assert.Equal(t, OutcomeForward, d.Outcome, path)
		assert.Equal(t, ReasonPublic, d.Reason, path)
	}
	assert.Zero(t, tokens.calls)
}

func TestEvaluate_StoreWithoutToken(t *testing.T) {
	g := newGuard(t, &fakeTokens{})

	d := g.Evaluate(context.Background(), Request{Path: "/store/books", RawQuery: "page=2&sort=new"})

	assert.Equal(t, OutcomeRedirect, d.Outcome)
	assert.Equal(t, ReasonNoSession, d.Reason)

	u, err := url.Parse(d.Location)
	require.NoError(t, err)
	assert.Equal(t, "/auth/login", u.Path)
	assert.Equal(t, "/store/books?page=2&sort=new", u.Query().Get("callbackUrl"))
}

func TestEvaluate_StoreWithToken(t *testing.T) {
	g := newGuard(t, &fakeTokens{token: withRoles()})

	d := g.Evaluate(context.Background(), Request{Path: "/store"})
	assert.Equal(t, OutcomeForward, d.Outcome)
	assert.Equal(t, ReasonAuthenticated, d.Reason)
}

func TestEvaluate_PersonalRoutes(t *testing.T) {
	for _, path := range []string{"/profile", "/cart"} {
		t.Run(path, func(t *testing.T) {
			d := newGuard(t, &fakeTokens{}).Evaluate(context.Background(), Request{Path: path})
			assert.Equal(t, OutcomeRedirect, d.Outcome)
			assert.Equal(t, "/auth/customer/login?callbackUrl="+url.QueryEscape(path), d.Location)

			d = newGuard(t, &fakeTokens{token: withRoles(domain.NewNameRole("user"))}).Evaluate(context.Background(), Request{Path: path})
			assert.Equal(t, OutcomeForward, d.Outcome)
		})
	}
}

func TestEvaluate_Admin(t *testing.T) {
	cases := []struct {
		name    string
		token   *domain.SessionToken
		outcome Outcome
		reason  Reason
	}{
		{name: "no token", token: nil, outcome: OutcomeRedirect, reason: ReasonNoSession},
		{name: "editor", token: withRoles(domain.NewNameRole("editor")), outcome: OutcomeRedirect, reason: ReasonInsufficientRole},
		{name: "no roles", token: withRoles(), outcome: OutcomeRedirect, reason: ReasonInsufficientRole},
		{name: "admin", token: withRoles(domain.NewNameRole("admin")), outcome: OutcomeForward, reason: ReasonAuthorized},
		{name: "slug superadmin", token: withRoles(domain.NewRecordRole(domain.RoleRecord{Slug: strPtr("superadmin")})), outcome: OutcomeForward, reason: ReasonAuthorized},
		{name: "role ADMIN", token: withRoles(domain.NewRecordRole(domain.RoleRecord{Role: strPtr("ADMIN")})), outcome: OutcomeForward, reason: ReasonAuthorized},
		{name: "empty record", token: withRoles(domain.NewRecordRole(domain.RoleRecord{})), outcome: OutcomeRedirect, reason: ReasonInsufficientRole},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newGuard(t, &fakeTokens{token: tc.token})
			d := g.Evaluate(context.Background(), Request{Path: "/admin/users", RawQuery: "tab=2"})

			assert.Equal(t, tc.outcome, d.Outcome)
			assert.Equal(t, tc.reason, d.Reason)
			if tc.outcome == OutcomeRedirect {
				assert.Equal(t, "/auth/login?callbackUrl=%2Fadmin%2Fusers%3Ftab%3D2", d.Location)
			} else {
				assert.Empty(t, d.Location)
			}
		})
	}
}

func TestEvaluate_UnauthorizedLooksLikeUnauthenticated(t *testing.T) {
	req := Request{Path: "/admin", RawQuery: "x=1"}
	anon := newGuard(t, &fakeTokens{}).Evaluate(context.Background(), req)
	editor := newGuard(t, &fakeTokens{token: withRoles(domain.NewNameRole("editor"))}).Evaluate(context.Background(), req)

	assert.Equal(t, anon.Location, editor.Location)
	assert.Equal(t, anon.Outcome, editor.Outcome)
}

func TestEvaluate_LookupErrorFailsClosed(t *testing.T) {
	tokens := &fakeTokens{token: withRoles(domain.NewNameRole("admin")), err: errors.New("timeout")}
	g := newGuard(t, tokens)

	d := g.Evaluate(context.Background(), Request{Path: "/admin"})
	assert.Equal(t, OutcomeRedirect, d.Outcome)
	assert.Equal(t, ReasonNoSession, d.Reason)
	assert.Equal(t, 1, tokens.calls)
}

func TestEvaluate_CallbackOverwritesExisting(t *testing.T) {
	cfg := testConfig()
	cfg.LoginPath = "/auth/login?callbackUrl=%2Fstale&lang=ar"
	g, err := New(cfg, &fakeTokens{}, nil)
	require.NoError(t, err)

	d := g.Evaluate(context.Background(), Request{Path: "/store", RawQuery: "callbackUrl=%2Fevil"})

	u, err := url.Parse(d.Location)
	require.NoError(t, err)
	q := u.Query()
	assert.Len(t, q["callbackUrl"], 1)
	assert.Equal(t, "/store?callbackUrl=%2Fevil", q.Get("callbackUrl"))
	assert.Equal(t, "ar", q.Get("lang"))
}

func TestNew_CopiesRouteTable(t *testing.T) {
	cfg := testConfig()
	g, err := New(cfg, &fakeTokens{}, nil)
	require.NoError(t, err)

	cfg.PersonalPaths[0] = "/changed"

	assert.Equal(t, AccessAuthRequired, g.Classify("/profile").Class)
	assert.Equal(t, AccessPublic, g.Classify("/changed").Class)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(testConfig(), nil, nil)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.CallbackParam = ""
	_, err = New(cfg, &fakeTokens{}, nil)
	assert.Error(t, err)
}
