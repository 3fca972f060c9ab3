package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kinds. Every domain error wraps exactly one of them.
var (
	ErrValidation   = errors.New("validation")            // 400
	ErrBusinessRule = errors.New("business rule")         // 400
	ErrNotFound     = errors.New("not found")             // 404
	ErrAuthFailure  = errors.New("authentication failed") // 401
)

var (
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be positive", ErrValidation)
	ErrNegativeQuantity  = fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	ErrDuplicateUsername = fmt.Errorf("%w: username is already taken", ErrBusinessRule)
	ErrDuplicateEmail    = fmt.Errorf("%w: email is already registered", ErrBusinessRule)
	ErrWeakPassword      = fmt.Errorf("%w: password is too short", ErrBusinessRule)
	ErrCartLimitExceeded = fmt.Errorf("%w: cart item limit exceeded", ErrBusinessRule)
	ErrEmptyCart         = fmt.Errorf("%w: cannot create an order from an empty cart", ErrBusinessRule)
	ErrNoCart            = fmt.Errorf("%w: cannot create an order without a cart", ErrBusinessRule)
	ErrCartNotFound      = fmt.Errorf("%w: cart not found", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrProductNotFound   = fmt.Errorf("%w: product not found", ErrNotFound)
	ErrOrderNotFound     = fmt.Errorf("%w: order not found", ErrNotFound)
	ErrItemNotFound      = fmt.Errorf("%w: product not found in cart", ErrNotFound)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrAuthFailure)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired access token", ErrAuthFailure)
)

// Validation builds a validation error carrying a field-level reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBusinessRule):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAuthFailure):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

var kinds = []error{ErrValidation, ErrBusinessRule, ErrNotFound, ErrAuthFailure}

// Message returns the client-facing text: the part after the kind prefix,
// without call-site context. Unexpected errors never expose their cause.
func Message(err error) string {
	for _, kind := range kinds {
		if !errors.Is(err, kind) {
			continue
		}
		msg := err.Error()
		prefix := kind.Error() + ": "
		if i := strings.Index(msg, prefix); i >= 0 {
			return msg[i+len(prefix):]
		}
		return kind.Error()
	}
	return "an unexpected error occurred"
}
