package fooddata

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"alcyxob/fittrack/internal/domain"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	megabyte = 1024 * 1024

	DefaultCacheSizeMB = 16
	DefaultCacheTTL    = 6 * time.Hour
)

// missMarker is stored for lookups that found nothing.
var missMarker = []byte("null")

// CachedLookup memoizes another Lookup in a freecache store. Misses are cached
// too; errors are not.
type CachedLookup struct {
	next  Lookup
	cache *freecache.Cache
	ttl   int // seconds
}

// NewCachedLookup wraps next. Non-positive sizeMB and ttl use the defaults.
func NewCachedLookup(next Lookup, sizeMB int, ttl time.Duration) *CachedLookup {
	if sizeMB <= 0 {
		sizeMB = DefaultCacheSizeMB
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedLookup{
		next:  next,
		cache: freecache.NewCache(sizeMB * megabyte),
		ttl:   int(ttl / time.Second),
	}
}

func (c *CachedLookup) Search(ctx context.Context, query string) (*domain.FoodRecord, error) {
	key := "search::" + strings.ToLower(strings.TrimSpace(query))
	return c.cached(key, func() (*domain.FoodRecord, error) {
		return c.next.Search(ctx, query)
	})
}

func (c *CachedLookup) Barcode(ctx context.Context, code string) (*domain.FoodRecord, error) {
	key := "barcode::" + strings.TrimSpace(code)
	return c.cached(key, func() (*domain.FoodRecord, error) {
		return c.next.Barcode(ctx, code)
	})
}

// Stats returns the hit and miss counters of the underlying cache.
func (c *CachedLookup) Stats() (hits, misses int64) {
	return c.cache.HitCount(), c.cache.MissCount()
}

func (c *CachedLookup) cached(key string, load func() (*domain.FoodRecord, error)) (*domain.FoodRecord, error) {
	if raw, err := c.cache.Get([]byte(key)); err == nil {
		if bytes.Equal(raw, missMarker) {
			return nil, nil
		}
		rec := &domain.FoodRecord{}
		err := json.Unmarshal(raw, rec)
		if err == nil {
			log.Tracef("food lookup cache hit for %s", key)
			return rec, nil
		}
		log.Errorf("failed to unmarshal cached food record %s: %s", key, err)
	}

	rec, err := load()
	if err != nil {
		return nil, err
	}

	payload := missMarker
	if rec != nil {
		if payload, err = json.Marshal(rec); err != nil {
			log.Errorf("failed to marshal food record %s: %s", key, err)
			return rec, nil
		}
	}
	if err := c.cache.Set([]byte(key), payload, c.ttl); err != nil {
		log.Errorf("failed to write food lookup cache for %s: %s", key, err)
	}
	return rec, nil
}
