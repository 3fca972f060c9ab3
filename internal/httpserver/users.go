package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/service/auth"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type UsersHTTP struct {
	Svc *auth.AuthService
}

func (h *UsersHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.register")

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body")
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *UsersHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.login")

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body")
	}
	if req.Username == "" || req.Password == "" {
		return badRequest(l, "login_error", "username and password are required")
	}

	user, err := h.Svc.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login_error", err)
	}
	token, exp, err := h.Svc.IssueAccessToken(user)
	if err != nil {
		return fail(l, "login_error", err)
	}

	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, LoginResponse{User: user, AccessToken: token, ExpiresAt: exp})
}

// RequestPasswordReset answers 202 whether or not the email is known.
func (h *UsersHTTP) RequestPasswordReset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.request_password_reset")

	var req PasswordResetRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "password_reset_request_error", "invalid body")
	}

	_, err := h.Svc.RequestPasswordReset(ctx, req.Email)
	switch {
	case err == nil:
		l.Info("password_reset_requested")
	case errors.Is(err, apperr.ErrNotFound):
		l.Info("password_reset_unknown_email")
	default:
		return fail(l, "password_reset_request_error", err)
	}
	return c.JSON(http.StatusAccepted, MessageResponse{Message: "if the email is registered, a reset link has been sent"})
}

func (h *UsersHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.reset_password")

	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "reset_password_error", "invalid body")
	}
	if req.Token == "" || req.NewPassword == "" {
		return badRequest(l, "reset_password_error", "token and newPassword are required")
	}

	ok, err := h.Svc.ResetPassword(ctx, req.Token, req.NewPassword)
	if err != nil {
		return fail(l, "reset_password_error", err)
	}
	if !ok {
		return badRequest(l, "reset_password_error", "invalid or expired token, or password too short")
	}

	l.Info("reset_password_success")
	return c.JSON(http.StatusOK, MessageResponse{Message: "password has been reset"})
}
