package metrics

import (
	"testing"

	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/require"
)

func TestEnable(t *testing.T) {
	disabled := NewCounter("test/disabled")
	disabled.Inc(5)
	require.IsType(t, new(metrics.NilCounter), disabled)
	require.Zero(t, disabled.Count())

	Enable()
	require.True(t, Enabled())

	counter := NewCounter("test/counter")
	counter.Inc(3)
	require.Equal(t, int64(3), NewCounter("test/counter").Count())

	gauge := NewGauge("test/gauge")
	gauge.Update(42)
	require.Equal(t, int64(42), metrics.DefaultRegistry.Get("test/gauge").(metrics.Gauge).Value())

	timer := NewTimer("test/timer")
	timer.Update(10)
	require.Equal(t, int64(1), timer.Count())
}
