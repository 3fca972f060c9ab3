package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/service/search"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

const unexpectedMessage = "an unexpected error occurred"

// ErrorHandler renders every error as {"message": ...}. Causes of 5xx
// responses stay in the logs.
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg := statusAndMessage(err)

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, ErrorResponse{Message: msg})
		}
		if werr != nil {
			logging.FromContext(c.Request().Context()).Warn("error_response_failed", "error", werr)
		}
	}
}

func statusAndMessage(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= 500 {
			return he.Code, unexpectedMessage
		}
		if m, ok := he.Message.(string); ok {
			return he.Code, m
		}
		return he.Code, fmt.Sprint(he.Message)
	}
	if errors.Is(err, search.ErrUnavailable) {
		return http.StatusServiceUnavailable, err.Error()
	}
	status := apperr.StatusOf(err)
	if status >= 500 {
		return status, unexpectedMessage
	}
	return status, apperr.Message(err)
}

// fail logs a handler error at a level matching its status and returns it
// unchanged for ErrorHandler.
func fail(l *slog.Logger, event string, err error) error {
	status, msg := statusAndMessage(err)
	if status >= 500 {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg)
	}
	return err
}

func badRequest(l *slog.Logger, event, reason string) error {
	return fail(l, event, apperr.Validation("%s", reason))
}
