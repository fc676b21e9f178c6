// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metercacher

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/metric"
)

const (
	resultLabel = "result"
	hitResult   = "hit"
	missResult  = "miss"
	okResult    = "ok"
	errResult   = "error"
)

var (
	hitLabels  = prometheus.Labels{resultLabel: hitResult}
	missLabels = prometheus.Labels{resultLabel: missResult}
	okLabels   = prometheus.Labels{resultLabel: okResult}
	errLabels  = prometheus.Labels{resultLabel: errResult}
)

type cacheMetrics struct {
	findCount *prometheus.CounterVec
	findTime  *prometheus.CounterVec

	createCount *prometheus.CounterVec
	createTime  *prometheus.CounterVec

	purgeCount prometheus.Counter

	len           prometheus.Gauge
	used          prometheus.Gauge
	portionFilled prometheus.Gauge
}

func newMetrics(namespace string, reg metric.Registerer) (*cacheMetrics, error) {
	m := &cacheMetrics{
		findCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "find_count",
			Help:      "number of strike lookups",
		}, []string{resultLabel}),
		findTime: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "find_time",
			Help:      "time spent (ns) in strike lookups",
		}, []string{resultLabel}),
		createCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "find_or_create_count",
			Help:      "number of strike find-or-create calls",
		}, []string{resultLabel}),
		createTime: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "find_or_create_time",
			Help:      "time spent (ns) in strike find-or-create calls, scaler creation included",
		}, []string{resultLabel}),
		purgeCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purge_count",
			Help:      "number of purge requests",
		}),
		len: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "len",
			Help:      "number of cached strikes",
		}),
		used: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "used_bytes",
			Help:      "bytes held by cached strikes",
		}),
		portionFilled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portion_filled",
			Help:      "fraction of the byte budget in use",
		}),
	}
	err := errors.Join(
		reg.Register(m.findCount),
		reg.Register(m.findTime),
		reg.Register(m.createCount),
		reg.Register(m.createTime),
		reg.Register(m.purgeCount),
		reg.Register(m.len),
		reg.Register(m.used),
		reg.Register(m.portionFilled),
	)
	return m, err
}
