package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bizadmin/internal/principal"
)

const CtxPrincipal = "principal"

func BearerToken(c echo.Context) string {
	h := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func PrincipalFrom(c echo.Context) (*principal.Summary, bool) {
	s, ok := c.Get(CtxPrincipal).(*principal.Summary)
	return s, ok && s != nil
}

func setPrincipal(c echo.Context, s *principal.Summary) {
	c.Set(CtxPrincipal, s)
}

// Challenge marks a 401 response as a bearer challenge.
func Challenge(c echo.Context) {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
}

func notFoundDetail(kind principal.Kind) string {
	if kind == principal.KindStudent {
		return "Student not found"
	}
	return "User not found"
}

func inactiveDetail(kind principal.Kind) string {
	if kind == principal.KindStudent {
		return "Inactive student"
	}
	return "Inactive user"
}

// HTTPError maps a gate error to the response the client sees.
func HTTPError(c echo.Context, kind principal.Kind, err error) *echo.HTTPError {
	var roleErr *RoleError
	switch {
	case errors.Is(err, ErrMissingCredential):
		Challenge(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, ErrInvalidCredential):
		Challenge(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authentication credentials")
	case errors.Is(err, ErrPrincipalNotFound):
		Challenge(c)
		return echo.NewHTTPError(http.StatusUnauthorized, notFoundDetail(kind))
	case errors.Is(err, ErrInactiveAccount):
		return echo.NewHTTPError(http.StatusForbidden, inactiveDetail(kind))
	case errors.As(err, &roleErr):
		return echo.NewHTTPError(http.StatusForbidden, roleErr.Error())
	default:
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Authentication service unavailable").SetInternal(err)
	}
}
