package storage

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"auction-bargains/models"
	"auction-bargains/services"
	"auction-bargains/utils"
)

// CachedCorpus memoizes a MarketSource per normalized city.
type CachedCorpus struct {
	source MarketSource
	cache  *cache.Cache
	logger *utils.Logger
}

// NewCachedCorpus wraps source with a cache whose entries live for ttl; a
// non-positive ttl keeps entries until Invalidate.
func NewCachedCorpus(source MarketSource, ttl time.Duration, logger *utils.Logger) *CachedCorpus {
	expiration, cleanup := ttl, 2*ttl
	if ttl <= 0 {
		expiration, cleanup = cache.NoExpiration, 0
	}
	return &CachedCorpus{
		source: source,
		cache:  cache.New(expiration, cleanup),
		logger: logger,
	}
}

// Market returns the cached listings for city, loading them on a miss.
func (c *CachedCorpus) Market(ctx context.Context, city string) ([]*models.ExtractedProperty, error) {
	key := services.CityKey(city)
	if v, found := c.cache.Get(key); found {
		c.logger.Debug("[corpus] Cache hit for %s", key)
		return v.([]*models.ExtractedProperty), nil
	}

	market, err := c.source.Market(ctx, city)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, market, cache.DefaultExpiration)
	c.logger.Debug("[corpus] Cached %d listings for %s", len(market), key)
	return market, nil
}

// Invalidate drops every cached city, e.g. after new market listings are saved.
func (c *CachedCorpus) Invalidate() {
	c.cache.Flush()
}
