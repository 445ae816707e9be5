package detect

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	threshold float64
	preds     []Prediction
}

// CachedDetector memoizes predictions per image path. An entry fetched at a
// threshold t also answers any request at a threshold >= t; lowering the
// threshold triggers a new inference.
type CachedDetector struct {
	inner Detector
	cache *lru.Cache[string, cacheEntry]
}

// NewCachedDetector wraps inner with an LRU of the given size.
func NewCachedDetector(inner Detector, size int) (*CachedDetector, error) {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &CachedDetector{inner: inner, cache: c}, nil
}

func (d *CachedDetector) Predict(ctx context.Context, imagePath string, threshold float64) ([]Prediction, error) {
	if e, ok := d.cache.Get(imagePath); ok && e.threshold <= threshold {
		return filter(e.preds, threshold), nil
	}
	preds, err := d.inner.Predict(ctx, imagePath, threshold)
	if err != nil {
		return nil, err
	}
	d.cache.Add(imagePath, cacheEntry{threshold: threshold, preds: preds})
	return preds, nil
}

// Purge drops the cached entry of one image.
func (d *CachedDetector) Purge(imagePath string) { d.cache.Remove(imagePath) }

// PurgeAll empties the cache.
func (d *CachedDetector) PurgeAll() { d.cache.Purge() }

// Len returns the number of cached images.
func (d *CachedDetector) Len() int { return d.cache.Len() }

var (
	_ Detector = (*CachedDetector)(nil)
	_ Purger   = (*CachedDetector)(nil)
)
