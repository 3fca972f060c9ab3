package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/internal/models"
)

// ProductCache is a read-through cache of single products keyed by id.
type ProductCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewProductCache(rdb redis.Cmdable, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProductCache{rdb: rdb, ttl: ttl, prefix: "product:"}
}

func (c *ProductCache) key(id uint) string {
	return c.prefix + strconv.FormatUint(uint64(id), 10)
}

// Get reports ok=false on a miss.
func (c *ProductCache) Get(ctx context.Context, id uint) (*models.Product, bool, error) {
	bs, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var p models.Product
	if err := json.Unmarshal(bs, &p); err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (c *ProductCache) Set(ctx context.Context, p *models.Product) error {
	bs, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(p.ID), bs, c.ttl).Err()
}

func (c *ProductCache) Invalidate(ctx context.Context, id uint) error {
	return c.rdb.Del(ctx, c.key(id)).Err()
}
