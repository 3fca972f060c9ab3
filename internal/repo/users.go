package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db(ctx, false).First(&u, id).Error; err != nil {
		return nil, mapErr(err, apperr.ErrUserNotFound)
	}
	return &u, nil
}

// UserByUsername loads a user; forUpdate locks the row until the surrounding transaction ends.
func (r *GormRepo) UserByUsername(ctx context.Context, username string, forUpdate bool) (*models.User, error) {
	var u models.User
	if err := r.db(ctx, forUpdate).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, mapErr(err, apperr.ErrUserNotFound)
	}
	return &u, nil
}

func (r *GormRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db(ctx, false).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, mapErr(err, apperr.ErrUserNotFound)
	}
	return &u, nil
}

func (r *GormRepo) UserExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db(ctx, false).Model(&models.User{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.db(ctx, false).Model(&models.User{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db(ctx, false).Model(&models.User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return mapErr(r.db(ctx, false).Create(u).Error, apperr.ErrUserNotFound)
}

// SaveLoginState persists the lockout fields, including zero values.
func (r *GormRepo) SaveLoginState(ctx context.Context, u *models.User) error {
	return r.db(ctx, false).Model(u).
		Select("failed_login_attempts", "account_locked", "lock_time").
		Updates(map[string]any{
			"failed_login_attempts": u.FailedLoginAttempts,
			"account_locked":        u.AccountLocked,
			"lock_time":             u.LockTime,
		}).Error
}

func (r *GormRepo) UpdatePasswordHash(ctx context.Context, userID uint, hash string) error {
	res := r.db(ctx, false).Model(&models.User{}).Where("id = ?", userID).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}
