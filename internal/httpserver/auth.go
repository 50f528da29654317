package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	mwauth "github.com/Skotchmaster/bizadmin/internal/middleware/auth"
	"github.com/Skotchmaster/bizadmin/internal/service"
	"github.com/Skotchmaster/bizadmin/internal/transport"
	"github.com/Skotchmaster/bizadmin/pkg/logging"
)

const userNotFound = "User not found"

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := bindBody(c, &req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body")
		return err
	}

	user, err := h.Svc.Register(ctx, service.RegisterInput{
		Email: req.Email, FullName: req.FullName, Phone: req.Phone, Password: req.Password,
	})
	if err != nil {
		l.Warn("register_failed", "error", err)
		return serviceError(err, userNotFound)
	}
	return c.JSON(http.StatusCreated, transport.User(user))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := bindBody(c, &req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body")
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		l.Warn("login_failed", "status", 401, "email", req.Email)
		mwauth.Challenge(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect email or password")
	case errors.Is(err, service.ErrInactive):
		l.Warn("login_failed", "status", 403, "reason", "inactive", "email", req.Email)
		return echo.NewHTTPError(http.StatusForbidden, "User account is inactive")
	case errors.Is(err, service.ErrUnavailable):
		l.Error("login_error", "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Authentication service unavailable").SetInternal(err)
	case err != nil:
		l.Error("login_error", "status", 500, "error", err)
		return err
	}

	return c.JSON(http.StatusOK, transport.TokenResponse{AccessToken: res.AccessToken, TokenType: res.TokenType})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	s, _ := mwauth.PrincipalFrom(c)
	out := *s
	out.Role = s.Role.Normalize()
	return c.JSON(http.StatusOK, &out)
}

// Directory answers anonymous callers too; include_inactive only takes effect for managers.
func (h *AuthHTTP) Directory(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := bindPage(c)
	if err != nil {
		return err
	}
	var includeInactive bool
	if err := echo.QueryParamsBinder(c).Bool("include_inactive", &includeInactive).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	viewer, ok := mwauth.PrincipalFrom(c)
	users, err := h.Svc.Directory(ctx, viewer, includeInactive, p.Skip, p.Limit)
	if err != nil {
		return serviceError(err, userNotFound)
	}
	if !ok {
		return c.JSON(http.StatusOK, transport.Directory(users))
	}
	return c.JSON(http.StatusOK, transport.Users(users))
}

func (h *AuthHTTP) ListUsers(c echo.Context) error {
	p, err := bindPage(c)
	if err != nil {
		return err
	}
	users, err := h.Svc.ListUsers(c.Request().Context(), service.ListUsersInput{Skip: p.Skip, Limit: p.Limit, Search: p.Search})
	if err != nil {
		return serviceError(err, userNotFound)
	}
	return c.JSON(http.StatusOK, transport.Users(users))
}

func (h *AuthHTTP) CreateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_create")

	var req transport.CreateUserRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	actor, _ := mwauth.PrincipalFrom(c)
	user, err := h.Svc.CreateUser(ctx, actor, service.CreateUserInput{
		RegisterInput: service.RegisterInput{
			Email: req.Email, FullName: req.FullName, Phone: req.Phone, Password: req.Password,
		},
		Role: req.Role,
	})
	if err != nil {
		l.Warn("create_user_failed", "error", err)
		return serviceError(err, userNotFound)
	}
	return c.JSON(http.StatusCreated, transport.User(user))
}

func (h *AuthHTTP) GetUser(c echo.Context) error {
	user, err := h.Svc.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(err, userNotFound)
	}
	return c.JSON(http.StatusOK, transport.User(user))
}

func (h *AuthHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.UpdateUserRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	actor, _ := mwauth.PrincipalFrom(c)
	user, err := h.Svc.UpdateUser(ctx, actor, c.Param("id"), service.UpdateUserInput{
		Email: req.Email, FullName: req.FullName, Phone: req.Phone, Role: req.Role, IsActive: req.IsActive,
	})
	if err != nil {
		return serviceError(err, userNotFound)
	}
	return c.JSON(http.StatusOK, transport.User(user))
}

func (h *AuthHTTP) DeleteUser(c echo.Context) error {
	actor, _ := mwauth.PrincipalFrom(c)
	if err := h.Svc.DeactivateUser(c.Request().Context(), actor, c.Param("id")); err != nil {
		return serviceError(err, userNotFound)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User deactivated successfully"})
}
