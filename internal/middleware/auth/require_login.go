package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bizadmin/internal/principal"
	"github.com/Skotchmaster/bizadmin/pkg/logging"
)

func (a *Authenticator) RequireAuth(kind principal.Kind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("mw", "require_auth", "kind", string(kind))

			s, err := a.Authenticate(ctx, BearerToken(c), kind)
			if err != nil {
				he := HTTPError(c, kind, err)
				if he.Code >= http.StatusInternalServerError {
					l.Error("auth_failed", "status", he.Code, "reason", reasonOf(err), "error", err)
				} else {
					l.Warn("auth_failed", "status", he.Code, "reason", reasonOf(err))
				}
				return he
			}

			setPrincipal(c, s)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l.With("principal_id", s.ID))))
			return next(c)
		}
	}
}

// OptionalAuth never rejects; handlers check PrincipalFrom.
func (a *Authenticator) OptionalAuth(kind principal.Kind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if s := a.AuthenticateOptional(ctx, BearerToken(c), kind); s != nil {
				setPrincipal(c, s)
			}
			return next(c)
		}
	}
}
