// Package authmw authenticates API requests with HTTP Basic credentials or a
// Bearer access token issued at login.
package authmw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	VerifyAccessToken(token string) (*tokens.AccessClaims, error)
}

type Middleware struct {
	auth  Authenticator
	basic echo.MiddlewareFunc
}

func New(a Authenticator, realm string) *Middleware {
	m := &Middleware{auth: a}
	m.basic = middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm: realm,
		// every Basic attempt goes through Authenticate, so failures count toward lockout
		Validator: func(username, password string, c echo.Context) (bool, error) {
			user, err := a.Authenticate(c.Request().Context(), username, password)
			if errors.Is(err, apperr.ErrAuthFailure) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			setUserContext(c, user.ID, user.Username, user.Role)
			return true, nil
		},
	})
	return m
}

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	basic := m.basic(next)
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request())
		if !ok {
			return basic(c)
		}
		claims, err := m.auth.VerifyAccessToken(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, apperr.Message(err))
		}
		id, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
		setUserContext(c, id, claims.Username, claims.Role)
		return next(c)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(echo.HeaderAuthorization)
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}
