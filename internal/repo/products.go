package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) ProductByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db(ctx, false).First(&p, id).Error; err != nil {
		return nil, mapErr(err, apperr.ErrProductNotFound)
	}
	return &p, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.db(ctx, false).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.db(ctx, false).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.db(ctx, false).Create(p).Error
}

// UpdateProduct replaces every editable column of an existing product.
func (r *GormRepo) UpdateProduct(ctx context.Context, p *models.Product) error {
	var existing models.Product
	if err := r.db(ctx, true).Select("id").First(&existing, p.ID).Error; err != nil {
		return mapErr(err, apperr.ErrProductNotFound)
	}

	err := r.db(ctx, false).Model(&models.Product{ID: p.ID}).
		Select("name", "description", "price", "type", "image_url").
		Updates(p).Error
	if err != nil {
		return err
	}
	return r.db(ctx, false).First(p, p.ID).Error
}

// DeleteProduct removes the product and any cart lines pointing at it.
// Order items are snapshots and stay untouched.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	if err := r.db(ctx, false).Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	res := r.db(ctx, false).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrProductNotFound
	}
	return nil
}
