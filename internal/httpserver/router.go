package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	mwauth "github.com/Skotchmaster/bizadmin/internal/middleware/auth"
	"github.com/Skotchmaster/bizadmin/internal/principal"
)

type Deps struct {
	Auth     *mwauth.Authenticator
	Users    *AuthHTTP
	Students *StudentHTTP
	Limiter  *LoginLimiter
	// Ready reports whether the store can serve requests.
	Ready func(ctx context.Context) error
}

// Register mounts the API on e. Without a configured IPExtractor the peer address
// keys the login throttle, so forwarded headers cannot spread attempts.
func Register(e *echo.Echo, d *Deps) {
	if e.IPExtractor == nil {
		e.IPExtractor = echo.ExtractIPDirect()
	}
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Database unavailable").SetInternal(err)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	throttle := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if d.Limiter != nil {
		throttle = d.Limiter.Middleware()
	}

	staff := d.Auth.RequireAuth(principal.KindUser)

	a := e.Group("/api/auth")
	a.POST("/register", d.Users.Register)
	a.POST("/login", d.Users.Login, throttle)
	a.GET("/me", d.Users.Me, staff)
	a.GET("/directory", d.Users.Directory, d.Auth.OptionalAuth(principal.KindUser))

	users := a.Group("/users", staff)
	users.GET("", d.Users.ListUsers, mwauth.RequireManager())
	users.POST("", d.Users.CreateUser, mwauth.RequireSuper())
	users.GET("/:id", d.Users.GetUser, mwauth.RequireManager())
	users.PUT("/:id", d.Users.UpdateUser, mwauth.RequireSuper())
	users.DELETE("/:id", d.Users.DeleteUser, mwauth.RequireSuper())

	s := e.Group("/api/students")
	s.POST("/register", d.Students.Register)
	s.POST("/login", d.Students.Login, throttle)
	s.GET("/me", d.Students.Me, d.Auth.RequireAuth(principal.KindStudent))

	review := s.Group("", staff, mwauth.RequireManager())
	review.GET("", d.Students.List)
	review.GET("/statistics", d.Students.Statistics)
	review.GET("/:id", d.Students.Get)
	review.PATCH("/:id/status", d.Students.UpdateStatus)
	review.DELETE("/:id", d.Students.Delete)
}
