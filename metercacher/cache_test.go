package metercacher

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/glyphcache"
	"github.com/luxfi/glyphcache/discardable"
	"github.com/luxfi/metric"
)

type fixedScaler struct{}

func (fixedScaler) ComputeGlyph(glyphcache.StrikeSpec, glyphcache.GlyphID) (glyphcache.GlyphData, error) {
	return glyphcache.GlyphData{Image: make([]byte, 44)}, nil
}

func factory(glyphcache.StrikeSpec) (glyphcache.Scaler, error) { return fixedScaler{}, nil }

func TestMeteredCache(t *testing.T) {
	require := require.New(t)

	reg := prometheus.NewRegistry()
	inner := glyphcache.NewStrikeCache(glyphcache.WithCacheLimit(1000))
	c, err := New("glyphs", reg, inner)
	require.NoError(err)

	spec := glyphcache.NewStrikeSpec(1, 12)
	_, ok := c.FindStrike(spec)
	require.False(ok)
	require.Equal(1.0, testutil.ToFloat64(c.metrics.findCount.With(missLabels)))

	ref, err := c.FindOrCreateStrike(spec, factory)
	require.NoError(err)
	ref.GetOrCompute(1)
	ref.Release()
	require.Equal(1.0, testutil.ToFloat64(c.metrics.createCount.With(okLabels)))
	require.Equal(1.0, testutil.ToFloat64(c.metrics.len))

	ref, ok = c.FindStrike(spec)
	require.True(ok)
	ref.Release()
	require.Equal(1.0, testutil.ToFloat64(c.metrics.findCount.With(hitLabels)))

	_, err = c.FindOrCreateStrike(glyphcache.StrikeSpec{}, factory)
	require.ErrorIs(err, glyphcache.ErrInvalidSpec)
	require.Equal(1.0, testutil.ToFloat64(c.metrics.createCount.With(errLabels)))

	c.SetCacheLimit(2000)
	require.Equal(100.0, testutil.ToFloat64(c.metrics.used))
	require.Equal(0.05, testutil.ToFloat64(c.metrics.portionFilled))

	c.PurgeAll()
	require.Equal(1.0, testutil.ToFloat64(c.metrics.purgeCount))
	require.Zero(testutil.ToFloat64(c.metrics.len))
	require.Zero(testutil.ToFloat64(c.metrics.used))
}

func TestMetricRegistryGathers(t *testing.T) {
	require := require.New(t)

	var reg metric.Registry = prometheus.NewRegistry()
	c, err := New("glyphs", reg, glyphcache.NewStrikeCache())
	require.NoError(err)

	ref, err := c.FindOrCreateStrike(glyphcache.NewStrikeSpec(1, 12), factory)
	require.NoError(err)
	ref.Release()

	families, err := reg.Gather()
	require.NoError(err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	require.Contains(names, "glyphs_find_or_create_count")
	require.Contains(names, "glyphs_used_bytes")
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	require := require.New(t)

	reg := prometheus.NewRegistry()
	_, err := New("glyphs", reg, glyphcache.NewStrikeCache())
	require.NoError(err)
	_, err = New("glyphs", reg, glyphcache.NewStrikeCache())
	require.Error(err)
}

func TestStatsCollector(t *testing.T) {
	require := require.New(t)

	c := glyphcache.NewStrikeCache()
	col := NewStatsCollector("glyphs", c)
	reg := prometheus.NewRegistry()
	require.NoError(reg.Register(col))

	ref, err := c.FindOrCreateStrike(glyphcache.NewStrikeSpec(1, 12), factory)
	require.NoError(err)
	ref.GetOrCompute(1)
	ref.GetOrCompute(2)
	ref.Release()

	require.Equal(8, testutil.CollectAndCount(col))
	n, err := testutil.GatherAndCount(reg, "glyphs_glyphs_computed_total")
	require.NoError(err)
	require.Equal(1, n)

	families, err := reg.Gather()
	require.NoError(err)
	values := make(map[string]float64)
	for _, mf := range families {
		m := mf.GetMetric()[0]
		if m.GetCounter() != nil {
			values[mf.GetName()] = m.GetCounter().GetValue()
		} else {
			values[mf.GetName()] = m.GetGauge().GetValue()
		}
	}
	require.Equal(2.0, values["glyphs_glyphs_computed_total"])
	require.Equal(1.0, values["glyphs_strike_misses_total"])
	require.Equal(float64(glyphcache.DefaultCacheLimit), values["glyphs_limit_bytes"])
}

func TestHandleCollector(t *testing.T) {
	require := require.New(t)

	handles := discardable.NewRegistry()
	handles.CreateHandle()
	handles.NotifyCacheMiss(discardable.MissGlyphImage)
	handles.NotifyCacheMiss(discardable.MissGlyphImage)
	handles.NotifyReadFailure(discardable.ReadFailureData{Reason: "truncated"})

	col := NewHandleCollector("glyphs", handles)
	require.Equal(int(discardable.MissTypeCount)+2, testutil.CollectAndCount(col))

	reg := prometheus.NewRegistry()
	require.NoError(reg.Register(col))
	families, err := reg.Gather()
	require.NoError(err)

	var imageMisses, failures, locked float64
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "glyphs_remote_misses_total":
				if m.GetLabel()[0].GetValue() == discardable.MissGlyphImage.String() {
					imageMisses = m.GetCounter().GetValue()
				}
			case "glyphs_remote_read_failures_total":
				failures = m.GetCounter().GetValue()
			case "glyphs_locked_handles":
				locked = m.GetGauge().GetValue()
			}
		}
	}
	require.Equal(2.0, imageMisses)
	require.Equal(1.0, failures)
	require.Equal(1.0, locked)
}
