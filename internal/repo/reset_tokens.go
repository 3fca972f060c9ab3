package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/storefront/internal/models"
)

var ErrTokenNotFound = errors.New("reset token not found")

func (r *GormRepo) CreateResetToken(ctx context.Context, t *models.PasswordResetToken) error {
	return r.db(ctx, false).Create(t).Error
}

func (r *GormRepo) ResetToken(ctx context.Context, token string, forUpdate bool) (*models.PasswordResetToken, error) {
	var t models.PasswordResetToken
	if err := r.db(ctx, forUpdate).Where("token = ?", token).First(&t).Error; err != nil {
		return nil, mapErr(err, ErrTokenNotFound)
	}
	return &t, nil
}

func (r *GormRepo) DeleteResetToken(ctx context.Context, id uint) error {
	return r.db(ctx, false).Delete(&models.PasswordResetToken{}, id).Error
}

func (r *GormRepo) DeleteResetTokensForUser(ctx context.Context, userID uint) error {
	return r.db(ctx, false).Where("user_id = ?", userID).Delete(&models.PasswordResetToken{}).Error
}
