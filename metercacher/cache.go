// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metercacher provides metered strike cache implementations.
package metercacher

import (
	"time"

	"github.com/luxfi/glyphcache"
	"github.com/luxfi/metric"
)

var _ glyphcache.StrikeCacher = (*Cache)(nil)

// Cache wraps a StrikeCacher with metrics.
type Cache struct {
	glyphcache.StrikeCacher
	metrics *cacheMetrics
}

// New creates a new metered cache wrapper.
func New(
	namespace string,
	registry metric.Registry,
	c glyphcache.StrikeCacher,
) (*Cache, error) {
	metrics, err := newMetrics(namespace, registry)
	return &Cache{
		StrikeCacher: c,
		metrics:      metrics,
	}, err
}

func (c *Cache) FindOrCreateStrike(spec glyphcache.StrikeSpec, factory glyphcache.ScalerFactory) (*glyphcache.StrikeRef, error) {
	start := time.Now()
	ref, err := c.StrikeCacher.FindOrCreateStrike(spec, factory)
	duration := time.Since(start)

	labels := okLabels
	if err != nil {
		labels = errLabels
	}
	c.metrics.createCount.With(labels).Inc()
	c.metrics.createTime.With(labels).Add(float64(duration))
	c.updateSize()
	return ref, err
}

func (c *Cache) FindStrike(spec glyphcache.StrikeSpec) (*glyphcache.StrikeRef, bool) {
	start := time.Now()
	ref, has := c.StrikeCacher.FindStrike(spec)
	duration := time.Since(start)

	if has {
		c.metrics.findCount.With(hitLabels).Inc()
		c.metrics.findTime.With(hitLabels).Add(float64(duration))
	} else {
		c.metrics.findCount.With(missLabels).Inc()
		c.metrics.findTime.With(missLabels).Add(float64(duration))
	}
	return ref, has
}

func (c *Cache) SetCacheLimit(bytes int64) {
	c.StrikeCacher.SetCacheLimit(bytes)
	c.updateSize()
}

func (c *Cache) PurgeAll() {
	c.StrikeCacher.PurgeAll()
	c.metrics.purgeCount.Inc()
	c.updateSize()
}

func (c *Cache) updateSize() {
	used := c.StrikeCacher.CacheUsed()
	c.metrics.len.Set(float64(c.StrikeCacher.Len()))
	c.metrics.used.Set(float64(used))
	if limit := c.StrikeCacher.CacheLimit(); limit > 0 {
		c.metrics.portionFilled.Set(float64(used) / float64(limit))
	} else {
		c.metrics.portionFilled.Set(0)
	}
}
