package auth

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type AuthService struct {
	Repo   *repo.GormRepo
	Cfg    config.AuthConfig
	Events events.Publisher
	Now    func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, apperr.Validation("username, email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("email is malformed")
	}

	if taken, err := s.Repo.UsernameExists(ctx, username); err != nil {
		return nil, err
	} else if taken {
		return nil, apperr.ErrDuplicateUsername
	}
	if taken, err := s.Repo.EmailExists(ctx, email); err != nil {
		return nil, err
	} else if taken {
		return nil, apperr.ErrDuplicateEmail
	}
	if len(password) < s.Cfg.MinPasswordLength {
		return nil, apperr.ErrWeakPassword
	}

	pwHash, err := hash.HashPassword(password, s.Cfg.BcryptCost)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// lost a race with a concurrent registration
			if taken, _ := s.Repo.UsernameExists(ctx, username); taken {
				return nil, apperr.ErrDuplicateUsername
			}
			return nil, apperr.ErrDuplicateEmail
		}
		return nil, err
	}

	events.Emit(ctx, s.Events, events.TopicUsers, username, events.UserEvent{
		Type:     events.UserRegistered,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		At:       s.now(),
	})
	return user, nil
}

// Authenticate checks the password and maintains the lockout counters. The
// counter update commits even when the call fails.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.authenticate", "username", username)

	var (
		user   *models.User
		locked bool
	)
	err := s.Repo.Atomic(ctx, func(tx *repo.GormRepo) error {
		u, err := tx.UserByUsername(ctx, username, true)
		if errors.Is(err, apperr.ErrUserNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		now := s.now()
		if u.AccountLocked {
			if u.LockTime != nil && !now.After(u.LockTime.Add(s.Cfg.LockDuration)) {
				return nil
			}
			u.FailedLoginAttempts = 0
			u.AccountLocked = false
			u.LockTime = nil
		}

		if hash.CheckPassword(u.PasswordHash, password) {
			u.FailedLoginAttempts = 0
			u.AccountLocked = false
			u.LockTime = nil
			if err := tx.SaveLoginState(ctx, u); err != nil {
				return err
			}
			user = u
			return nil
		}

		u.FailedLoginAttempts++
		if u.FailedLoginAttempts >= s.Cfg.MaxFailedAttempts {
			u.AccountLocked = true
			u.LockTime = &now
			locked = true
		}
		return tx.SaveLoginState(ctx, u)
	})
	if err != nil {
		l.Error("authenticate_error", "status", 500, "error", err)
		return nil, err
	}

	if locked {
		l.Warn("account_locked", "max_attempts", s.Cfg.MaxFailedAttempts)
		events.Emit(ctx, s.Events, events.TopicUsers, username, events.UserEvent{
			Type:     events.UserLocked,
			Username: username,
			At:       s.now(),
		})
	}
	if user == nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

// RequestPasswordReset replaces any outstanding token for the account and
// returns the new one.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperr.Validation("email is required")
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token := &models.PasswordResetToken{
		Token:      uuid.NewString(),
		UserID:     user.ID,
		ExpiryDate: s.now().Add(s.Cfg.ResetTokenTTL),
	}
	err = s.Repo.Atomic(ctx, func(tx *repo.GormRepo) error {
		if err := tx.DeleteResetTokensForUser(ctx, user.ID); err != nil {
			return err
		}
		return tx.CreateResetToken(ctx, token)
	})
	if err != nil {
		return "", err
	}

	events.Emit(ctx, s.Events, events.TopicUsers, user.Username, events.UserEvent{
		Type:     events.PasswordResetRequested,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    token.Token,
		At:       s.now(),
	})
	return token.Token, nil
}

// ResetPassword reports false for an unknown token, an expired one (which is
// deleted) or a too short password. Errors are reserved for store failures.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (bool, error) {
	l := logging.FromContext(ctx).With("svc", "auth.reset_password")

	var userID uint
	err := s.Repo.Atomic(ctx, func(tx *repo.GormRepo) error {
		t, err := tx.ResetToken(ctx, token, true)
		if errors.Is(err, repo.ErrTokenNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if t.Expired(s.now()) {
			return tx.DeleteResetToken(ctx, t.ID)
		}
		if len(newPassword) < s.Cfg.MinPasswordLength {
			return nil
		}

		pwHash, err := hash.HashPassword(newPassword, s.Cfg.BcryptCost)
		if err != nil {
			return err
		}
		if err := tx.UpdatePasswordHash(ctx, t.UserID, pwHash); err != nil {
			return err
		}
		if err := tx.DeleteResetToken(ctx, t.ID); err != nil {
			return err
		}
		userID = t.UserID
		return nil
	})
	if err != nil {
		l.Error("reset_password_error", "status", 500, "error", err)
		return false, err
	}
	if userID == 0 {
		return false, nil
	}

	events.Emit(ctx, s.Events, events.TopicUsers, strconv.FormatUint(uint64(userID), 10), events.UserEvent{
		Type:   events.PasswordReset,
		UserID: userID,
		At:     s.now(),
	})
	return true, nil
}

func (s *AuthService) IssueAccessToken(user *models.User) (string, time.Time, error) {
	exp := time.Now().Add(s.Cfg.AccessTTL)
	token, err := tokens.NewAccessToken(s.Cfg.JWTSecret, user.ID, user.Username, user.Role, exp)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func (s *AuthService) VerifyAccessToken(token string) (*tokens.AccessClaims, error) {
	claims, err := tokens.AccessClaimsFromToken(token, s.Cfg.JWTSecret)
	if err != nil {
		return nil, apperr.ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, apperr.ErrInvalidToken
	}
	return claims, nil
}
