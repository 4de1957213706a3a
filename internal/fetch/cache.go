package fetch

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const metricNamespace = "finitefield.org/academic-web/internal/fetch"

type cacheEntry struct {
	body    []byte
	expires time.Time
}

// Cache keeps successful fetches in memory for a fixed TTL. Failures are never cached.
type Cache struct {
	next Fetcher
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry

	latency          metric.Float64Histogram
	latencyEnabled   bool
	cacheHits        metric.Int64Counter
	cacheHitsEnabled bool
}

// CacheOption customises a Cache.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	meter  metric.Meter
	logger *zap.Logger
}

// WithMeter overrides the meter used for cache metrics.
func WithMeter(m metric.Meter) CacheOption {
	return func(o *cacheOptions) {
		o.meter = m
	}
}

// WithLogger sets the logger used to report metric registration problems.
func WithLogger(l *zap.Logger) CacheOption {
	return func(o *cacheOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewCache wraps next with a TTL cache. A non-positive ttl defaults to one minute.
func NewCache(next Fetcher, ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	cfg := cacheOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	meter := cfg.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}

	latency, latencyErr := meter.Float64Histogram(
		"content.fetch.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds for uncached content fetches"),
	)
	if latencyErr != nil {
		cfg.logger.Warn("fetch: unable to register latency metric", zap.Error(latencyErr))
	}
	cacheHits, hitsErr := meter.Int64Counter(
		"content.fetch.cache_hits",
		metric.WithDescription("Count of content documents served from the cache"),
	)
	if hitsErr != nil {
		cfg.logger.Warn("fetch: unable to register cache hit metric", zap.Error(hitsErr))
	}

	return &Cache{
		next:             next,
		ttl:              ttl,
		now:              time.Now,
		items:            map[string]cacheEntry{},
		latency:          latency,
		latencyEnabled:   latencyErr == nil,
		cacheHits:        cacheHits,
		cacheHitsEnabled: hitsErr == nil,
	}
}

func (c *Cache) Fetch(ctx context.Context, path string) ([]byte, error) {
	now := c.now()
	c.mu.RLock()
	entry, ok := c.items[path]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		c.recordCacheHit(ctx, path)
		return cloneBytes(entry.body), nil
	}

	start := time.Now()
	body, err := c.next.Fetch(ctx, path)
	c.recordLatency(ctx, path, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.items[path] = cacheEntry{body: cloneBytes(body), expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return body, nil
}

// Invalidate drops every cached document.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.items = map[string]cacheEntry{}
	c.mu.Unlock()
}

// Len reports the number of cached documents, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) recordLatency(ctx context.Context, path string, d time.Duration, err error) {
	if !c.latencyEnabled {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("path", path),
		attribute.Bool("success", err == nil),
	}
	c.latency.Record(ctx, float64(d)/float64(time.Millisecond), metric.WithAttributes(attrs...))
}

func (c *Cache) recordCacheHit(ctx context.Context, path string) {
	if !c.cacheHitsEnabled {
		return
	}
	c.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
