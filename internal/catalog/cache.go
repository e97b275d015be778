package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
)

const (
	allProductsKey = "catalog:products:all"
	notFoundMarker = "notfound"
	notFoundTTL    = time.Minute
)

// CachedBackend is a read-through Redis cache in front of the listing and product
// detail calls. Everything else passes straight through.
type CachedBackend struct {
	Backend
	redis *redis.Client
	ttl   time.Duration
	log   *logrus.Entry
}

func NewCachedBackend(next Backend, client *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedBackend {
	return &CachedBackend{
		Backend: next,
		redis:   client,
		ttl:     ttl,
		log:     logger.WithField("component", "catalog_cache"),
	}
}

func detailKey(id int) string {
	return fmt.Sprintf("catalog:product:%d", id)
}

func (c *CachedBackend) ListProducts(ctx context.Context) ([]Product, error) {
	data, err := c.redis.Get(ctx, allProductsKey).Bytes()
	switch {
	case err == nil:
		var products []Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
		c.log.Warn("corrupt cached product list, refetching")
	case !errors.Is(err, redis.Nil):
		c.log.WithError(err).Warn("redis error, continuing with backend")
	}

	products, err := c.Backend.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, allProductsKey, products, c.ttl)
	return products, nil
}

func (c *CachedBackend) ProductDetail(ctx context.Context, id int) (Product, error) {
	key := detailKey(id)
	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return Product{}, apperr.New("catalog.ProductDetail", apperr.KindNotFound, "product not found")
		}
		var p Product
		if err := json.Unmarshal(data, &p); err == nil {
			return p, nil
		}
		c.log.WithField("product_id", id).Warn("corrupt cached product, refetching")
	case !errors.Is(err, redis.Nil):
		c.log.WithError(err).Warn("redis error, continuing with backend")
	}

	p, err := c.Backend.ProductDetail(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, notFoundTTL).Err(); setErr != nil {
				c.log.WithError(setErr).Warn("failed to cache missing product")
			}
		}
		return Product{}, err
	}
	c.store(ctx, key, p, c.ttl)
	return p, nil
}

// Invalidate drops the cached listing and, when id > 0, that product's detail.
func (c *CachedBackend) Invalidate(ctx context.Context, id int) {
	keys := []string{allProductsKey}
	if id > 0 {
		keys = append(keys, detailKey(id))
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).Warn("failed to invalidate catalog cache")
	}
}

func (c *CachedBackend) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).Warn("failed to marshal catalog entry")
		return
	}
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		c.log.WithError(err).Warn("failed to cache catalog entry")
	}
}
