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

const studentNotFound = "Student not found"

type StudentHTTP struct {
	Svc *service.StudentService
}

func studentToken(res *service.StudentAuthResult) transport.StudentTokenResponse {
	return transport.StudentTokenResponse{
		TokenResponse: transport.TokenResponse{AccessToken: res.AccessToken, TokenType: res.TokenType},
		Student:       transport.Student(res.Student),
	}
}

func (h *StudentHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "student_register")

	var req transport.RegisterRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	res, err := h.Svc.Register(ctx, service.RegisterInput{
		Email: req.Email, FullName: req.FullName, Phone: req.Phone, Password: req.Password,
	})
	if err != nil {
		l.Warn("register_failed", "error", err)
		return serviceError(err, studentNotFound)
	}
	return c.JSON(http.StatusCreated, studentToken(res))
}

func (h *StudentHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "student_login")

	var req transport.LoginRequest
	if err := bindBody(c, &req); err != nil {
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
		return echo.NewHTTPError(http.StatusForbidden, "Student account is inactive")
	case errors.Is(err, service.ErrUnavailable):
		l.Error("login_error", "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Authentication service unavailable").SetInternal(err)
	case err != nil:
		l.Error("login_error", "status", 500, "error", err)
		return err
	}
	return c.JSON(http.StatusOK, studentToken(res))
}

func (h *StudentHTTP) Me(c echo.Context) error {
	s, _ := mwauth.PrincipalFrom(c)
	st, err := h.Svc.Get(c.Request().Context(), s.ID)
	if err != nil {
		return serviceError(err, studentNotFound)
	}
	return c.JSON(http.StatusOK, transport.Student(st))
}

func (h *StudentHTTP) List(c echo.Context) error {
	p, err := bindPage(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.List(c.Request().Context(), service.ListStudentsInput{
		Skip: p.Skip, Limit: p.Limit, Status: c.QueryParam("status"), Search: p.Search,
	})
	if err != nil {
		return serviceError(err, studentNotFound)
	}
	return c.JSON(http.StatusOK, transport.Students(items))
}

func (h *StudentHTTP) Statistics(c echo.Context) error {
	stats, err := h.Svc.Statistics(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *StudentHTTP) Get(c echo.Context) error {
	st, err := h.Svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(err, studentNotFound)
	}
	return c.JSON(http.StatusOK, transport.Student(st))
}

func (h *StudentHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.StatusUpdateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	actor, _ := mwauth.PrincipalFrom(c)
	st, err := h.Svc.UpdateStatus(ctx, actor, c.Param("id"), service.StatusUpdateInput{
		Status: req.Status, RejectionReason: req.RejectionReason,
	})
	if err != nil {
		return serviceError(err, studentNotFound)
	}
	logging.FromContext(ctx).Info("student_status_changed", "student_id", st.ID, "status", string(st.Status))
	return c.JSON(http.StatusOK, transport.Student(st))
}

func (h *StudentHTTP) Delete(c echo.Context) error {
	actor, _ := mwauth.PrincipalFrom(c)
	if err := h.Svc.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return serviceError(err, studentNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}
