package catalog

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type Cache interface {
	Get(ctx context.Context, id uint) (*models.Product, bool, error)
	Set(ctx context.Context, p *models.Product) error
	Invalidate(ctx context.Context, id uint) error
}

type Indexer interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

// CatalogService owns products. Cache and Index are optional.
type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  Cache
	Index  Indexer
	Events events.Publisher
}

type ProductInput struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       *decimal.Decimal   `json:"price"`
	Type        models.ProductType `json:"type"`
	ImageURL    string             `json:"imageUrl"`
}

func (in ProductInput) Validate() error {
	switch n := utf8.RuneCountInString(strings.TrimSpace(in.Name)); {
	case n == 0:
		return apperr.Validation("name is required")
	case n > 255:
		return apperr.Validation("name must be at most 255 characters")
	}
	switch n := utf8.RuneCountInString(strings.TrimSpace(in.Description)); {
	case n == 0:
		return apperr.Validation("description is required")
	case n > 1000:
		return apperr.Validation("description must be at most 1000 characters")
	}
	if in.Price == nil {
		return apperr.Validation("price is required")
	}
	if in.Price.IsNegative() {
		return apperr.Validation("price cannot be negative")
	}
	if !in.Type.Valid() {
		return apperr.Validation("type must be ONE_TIME or SUBSCRIPTION")
	}
	if utf8.RuneCountInString(in.ImageURL) > 500 {
		return apperr.Validation("imageUrl must be at most 500 characters")
	}
	return nil
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = in.Price.Round(2)
	p.Type = in.Type
	p.ImageURL = in.ImageURL
}

type Page struct {
	Items      []models.Product
	Page       int
	Size       int
	Total      int64
	TotalPages int64
}

func (s *CatalogService) List(ctx context.Context, page, size int) (*Page, error) {
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.ListProducts(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &Page{
		Items:      items,
		Page:       offset/limit + 1,
		Size:       limit,
		Total:      total,
		TotalPages: util.TotalPages(total, limit),
	}, nil
}

// Get reads through the cache. Cache failures fall back to the database.
func (s *CatalogService) Get(ctx context.Context, id uint) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.get", "product_id", id)

	if s.Cache != nil {
		p, ok, err := s.Cache.Get(ctx, id)
		if err != nil {
			l.Warn("cache_get_failed", "error", err)
		} else if ok {
			return p, nil
		}
	}

	p, err := s.Repo.ProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, p); err != nil {
			l.Warn("cache_set_failed", "error", err)
		}
	}
	return p, nil
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := &models.Product{}
	in.apply(p)
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.index(ctx, p)
	s.emit(ctx, events.ProductCreated, p)
	return p, nil
}

// Update replaces every editable field of the product.
func (s *CatalogService) Update(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := &models.Product{ID: id}
	in.apply(p)
	err := s.Repo.Atomic(ctx, func(tx *repo.GormRepo) error {
		return tx.UpdateProduct(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.index(ctx, p)
	s.emit(ctx, events.ProductUpdated, p)
	return p, nil
}

// Delete removes the product and the cart lines referencing it. Orders keep
// their snapshots.
func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete", "product_id", id)

	err := s.Repo.Atomic(ctx, func(tx *repo.GormRepo) error {
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			l.Warn("search_delete_failed", "error", err)
		}
	}
	s.emit(ctx, events.ProductDeleted, &models.Product{ID: id})
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, id uint) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_failed", "product_id", id, "error", err)
	}
}

func (s *CatalogService) index(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) emit(ctx context.Context, typ string, p *models.Product) {
	events.Emit(ctx, s.Events, events.TopicProducts, strconv.FormatUint(uint64(p.ID), 10), events.ProductEvent{
		Type:      typ,
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		At:        time.Now().UTC(),
	})
}
