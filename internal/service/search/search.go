package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/util"
)

var ErrUnavailable = errors.New("search is not configured")

type SearchService struct {
	ES    *elasticsearch.Client
	Index string
}

type Result struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Size     int              `json:"size"`
	Products []models.Product `json:"products"`
}

func buildQuery(query string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}
}

func (s *SearchService) Search(ctx context.Context, query string, page, size int) (*Result, error) {
	if s == nil || s.ES == nil {
		return nil, ErrUnavailable
	}
	if query == "" {
		return nil, apperr.Validation("query parameter q is required")
	}
	from, limit := util.Calculate(page, size)

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildQuery(query, from, limit)); err != nil {
		return nil, fmt.Errorf("search: encode: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ID          uint   `json:"id"`
					Name        string `json:"name"`
					Description string `json:"description"`
					Price       string `json:"price"`
					Type        string `json:"type"`
					ImageURL    string `json:"imageUrl"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("search: decode: %w", err)
	}

	out := &Result{Total: r.Hits.Total.Value, Page: from/limit + 1, Size: limit, Products: make([]models.Product, 0, len(r.Hits.Hits))}
	for _, h := range r.Hits.Hits {
		price, _ := decimal.NewFromString(h.Source.Price)
		out.Products = append(out.Products, models.Product{
			ID:          h.Source.ID,
			Name:        h.Source.Name,
			Description: h.Source.Description,
			Price:       price,
			Type:        models.ProductType(h.Source.Type),
			ImageURL:    h.Source.ImageURL,
		})
	}
	return out, nil
}
