package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bizadmin/internal/principal"
)

func serve(t *testing.T, mws []echo.MiddlewareFunc, authz string) (*httptest.ResponseRecorder, *principal.Summary, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *principal.Summary
	h := func(c echo.Context) error {
		seen, _ = PrincipalFrom(c)
		return c.NoContent(http.StatusNoContent)
	}
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	err := h(c)
	return rec, seen, err
}

func httpErr(t *testing.T, err error) *echo.HTTPError {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "want *echo.HTTPError, got %v", err)
	return he
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	e := echo.New()
	tests := map[string]string{
		"":                   "",
		"Bearer abc":         "abc",
		"bearer   abc  ":     "abc",
		"BEARER abc":         "abc",
		"Basic dXNlcjpwdw==": "",
		"Bearer":             "",
		"abc":                "",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Equal(t, want, BearerToken(c), header)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	t.Parallel()

	iss := newIssuer(t)
	store := newFakeStore(activeManager, inactiveAdmin)
	a := NewAuthenticator(iss, store, time.Second)
	down := newFakeStore(activeManager)
	down.err = errors.New("db down")
	aDown := NewAuthenticator(iss, down, time.Second)

	tests := []struct {
		name      string
		auth      *Authenticator
		header    string
		code      int
		detail    string
		challenge bool
	}{
		{name: "missing", auth: a, header: "", code: 401, detail: "Not authenticated", challenge: true},
		{name: "invalid", auth: a, header: "Bearer nope", code: 401, detail: "Invalid authentication credentials", challenge: true},
		{name: "expired", auth: a, header: "Bearer " + issue(t, iss, "u1", "", -time.Second), code: 401, detail: "Invalid authentication credentials", challenge: true},
		{name: "not found", auth: a, header: "Bearer " + issue(t, iss, "zz", "", time.Hour), code: 401, detail: "User not found", challenge: true},
		{name: "inactive", auth: a, header: "Bearer " + issue(t, iss, "u2", "", time.Hour), code: 403, detail: "Inactive user"},
		{name: "store down", auth: aDown, header: "Bearer " + issue(t, iss, "u1", "", time.Hour), code: 503, detail: "Authentication service unavailable"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, seen, err := serve(t, []echo.MiddlewareFunc{tt.auth.RequireAuth(principal.KindUser)}, tt.header)
			he := httpErr(t, err)
			assert.Equal(t, tt.code, he.Code)
			assert.Equal(t, tt.detail, he.Message)
			assert.Nil(t, seen)
			if tt.challenge {
				assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
			} else {
				assert.Empty(t, rec.Header().Get(echo.HeaderWWWAuthenticate))
			}
		})
	}
}

func TestRequireAuth_Success(t *testing.T) {
	t.Parallel()

	iss := newIssuer(t)
	a := NewAuthenticator(iss, newFakeStore(activeManager), time.Second)

	rec, seen, err := serve(t, []echo.MiddlewareFunc{a.RequireAuth(principal.KindUser)}, "Bearer "+issue(t, iss, "u1", "", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.ID)
}

func TestRequireTier(t *testing.T) {
	t.Parallel()

	iss := newIssuer(t)
	employee := &principal.Record{ID: "e1", Kind: principal.KindUser, Email: "e@b.com", Role: principal.RoleEmployee, IsActive: true}
	admin := &principal.Record{ID: "a1", Kind: principal.KindUser, Email: "x@b.com", Role: principal.RoleAdmin, IsActive: true}
	a := NewAuthenticator(iss, newFakeStore(activeManager, employee, admin), time.Second)

	tests := []struct {
		name   string
		id     string
		gate   echo.MiddlewareFunc
		code   int
		detail string
	}{
		{name: "employee at manager gate", id: "e1", gate: RequireManager(), code: 403, detail: "Not enough permissions. Admin or Manager role required."},
		{name: "manager at manager gate", id: "u1", gate: RequireManager(), code: 204},
		{name: "admin at manager gate", id: "a1", gate: RequireManager(), code: 204},
		{name: "manager at super gate", id: "u1", gate: RequireSuper(), code: 403, detail: "Not enough permissions. Admin role required."},
		{name: "admin at super gate", id: "a1", gate: RequireSuper(), code: 204},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, _, err := serve(t, []echo.MiddlewareFunc{a.RequireAuth(principal.KindUser), tt.gate}, "Bearer "+issue(t, iss, tt.id, "", time.Hour))
			if tt.code == 204 {
				require.NoError(t, err)
				assert.Equal(t, http.StatusNoContent, rec.Code)
				return
			}
			he := httpErr(t, err)
			assert.Equal(t, tt.code, he.Code)
			assert.Equal(t, tt.detail, he.Message)
		})
	}
}

func TestRequireTier_WithoutPrincipal(t *testing.T) {
	t.Parallel()

	_, _, err := serve(t, []echo.MiddlewareFunc{RequireSuper()}, "")
	assert.Equal(t, http.StatusUnauthorized, httpErr(t, err).Code)
}

func TestOptionalAuth(t *testing.T) {
	t.Parallel()

	iss := newIssuer(t)
	a := NewAuthenticator(iss, newFakeStore(activeManager), time.Second)

	rec, seen, err := serve(t, []echo.MiddlewareFunc{a.OptionalAuth(principal.KindUser)}, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, seen)

	_, seen, err = serve(t, []echo.MiddlewareFunc{a.OptionalAuth(principal.KindUser)}, "Bearer broken")
	require.NoError(t, err)
	assert.Nil(t, seen)

	_, seen, err = serve(t, []echo.MiddlewareFunc{a.OptionalAuth(principal.KindUser)}, "Bearer "+issue(t, iss, "u1", "", time.Hour))
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.ID)
}
