package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bizadmin/internal/principal"
	"github.com/Skotchmaster/bizadmin/pkg/logging"
)

// RequireTier must run after RequireAuth.
func RequireTier(minimum principal.Tier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, _ := PrincipalFrom(c)
			if _, err := RequireRole(s, minimum); err != nil {
				he := HTTPError(c, principal.KindUser, err)
				logging.FromContext(c.Request().Context()).Warn("role_rejected",
					"status", he.Code, "required", minimum.String(), "reason", reasonOf(err))
				return he
			}
			return next(c)
		}
	}
}

func RequireManager() echo.MiddlewareFunc { return RequireTier(principal.TierManager) }

func RequireSuper() echo.MiddlewareFunc { return RequireTier(principal.TierSuper) }
