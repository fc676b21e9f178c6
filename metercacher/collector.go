// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package metercacher

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/glyphcache"
	"github.com/luxfi/glyphcache/discardable"
)

var (
	_ prometheus.Collector = (*StatsCollector)(nil)
	_ prometheus.Collector = (*HandleCollector)(nil)
)

// StatsSource is implemented by caches that keep their own counters.
type StatsSource interface {
	Stats() glyphcache.Stats
}

// StatsCollector exports a cache's internal counters at scrape time.
type StatsCollector struct {
	src StatsSource

	hits, misses, evictions, races *prometheus.Desc
	computed, failures, purges     *prometheus.Desc
	limit                          *prometheus.Desc
}

// NewStatsCollector returns a collector for src. Register it with any
// prometheus.Registerer.
func NewStatsCollector(namespace string, src StatsSource) *StatsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil)
	}
	return &StatsCollector{
		src:       src,
		hits:      desc("strike_hits_total", "strike lookups served from the cache"),
		misses:    desc("strike_misses_total", "strike lookups that created a strike"),
		evictions: desc("strike_evictions_total", "strikes evicted"),
		races:     desc("strike_create_races_total", "strike creations that lost a race"),
		computed:  desc("glyphs_computed_total", "glyphs computed by scalers"),
		failures:  desc("glyph_failures_total", "glyphs the scaler could not produce"),
		purges:    desc("purges_total", "purge requests"),
		limit:     desc("limit_bytes", "byte budget"),
	}
}

func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.races
	ch <- c.computed
	ch <- c.failures
	ch <- c.purges
	ch <- c.limit
}

func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(c.hits, st.Hits)
	counter(c.misses, st.Misses)
	counter(c.evictions, st.Evictions)
	counter(c.races, st.CreateRaces)
	counter(c.computed, st.GlyphsComputed)
	counter(c.failures, st.GlyphFailures)
	counter(c.purges, st.Purges)
	ch <- prometheus.MustNewConstMetric(c.limit, prometheus.GaugeValue, float64(st.Limit))
}

// HandleSource is implemented by handle ledgers that count client misses.
type HandleSource interface {
	MissCounts() [discardable.MissTypeCount]uint64
	ReadFailures() (uint64, discardable.ReadFailureData)
	LockedCount() int
}

// HandleCollector exports remote cache miss and read failure counters.
type HandleCollector struct {
	src HandleSource

	misses       *prometheus.Desc
	readFailures *prometheus.Desc
	locked       *prometheus.Desc
}

// NewHandleCollector returns a collector for src.
func NewHandleCollector(namespace string, src HandleSource) *HandleCollector {
	return &HandleCollector{
		src: src,
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "remote_misses_total"),
			"lookups the received strike data could not serve",
			[]string{"type"}, nil,
		),
		readFailures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "remote_read_failures_total"),
			"strike batches that could not be applied",
			nil, nil,
		),
		locked: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "locked_handles"),
			"handles locked in the current frame",
			nil, nil,
		),
	}
}

func (c *HandleCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.misses
	ch <- c.readFailures
	ch <- c.locked
}

func (c *HandleCollector) Collect(ch chan<- prometheus.Metric) {
	for t, n := range c.src.MissCounts() {
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(n),
			discardable.MissType(t).String())
	}
	failures, _ := c.src.ReadFailures()
	ch <- prometheus.MustNewConstMetric(c.readFailures, prometheus.CounterValue, float64(failures))
	ch <- prometheus.MustNewConstMetric(c.locked, prometheus.GaugeValue, float64(c.src.LockedCount()))
}
