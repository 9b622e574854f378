// Package metrics provides the counters, gauges and timers of zecpowd, and
// general process level metrics collection.
package metrics

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/rcrowley/go-metrics/exp"
	"github.com/zecpow/zecpowd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("MTRC")

var enabled uint32

// Enable turns metrics collection on and exposes the default registry under
// /debug/metrics of the default HTTP mux. Metrics created before Enable is
// called stay disabled.
func Enable() {
	if !atomic.CompareAndSwapUint32(&enabled, 0, 1) {
		return
	}
	log.Info("Enabling metrics collection")
	exp.Exp(metrics.DefaultRegistry)
}

// Enabled returns whether metrics collection is on.
func Enabled() bool {
	return atomic.LoadUint32(&enabled) == 1
}

// NewCounter create a new metrics Counter, either a real one of a NOP stub depending
// on whether metrics are enabled.
func NewCounter(name string) metrics.Counter {
	if !Enabled() {
		return new(metrics.NilCounter)
	}
	return metrics.GetOrRegisterCounter(name, metrics.DefaultRegistry)
}

// NewGauge create a new metrics Gauge, either a real one of a NOP stub depending
// on whether metrics are enabled.
func NewGauge(name string) metrics.Gauge {
	if !Enabled() {
		return new(metrics.NilGauge)
	}
	return metrics.GetOrRegisterGauge(name, metrics.DefaultRegistry)
}

// NewMeter create a new metrics Meter, either a real one of a NOP stub depending
// on whether metrics are enabled.
func NewMeter(name string) metrics.Meter {
	if !Enabled() {
		return new(metrics.NilMeter)
	}
	return metrics.GetOrRegisterMeter(name, metrics.DefaultRegistry)
}

// NewTimer create a new metrics Timer, either a real one of a NOP stub depending
// on whether metrics are enabled.
func NewTimer(name string) metrics.Timer {
	if !Enabled() {
		return new(metrics.NilTimer)
	}
	return metrics.GetOrRegisterTimer(name, metrics.DefaultRegistry)
}

// CollectProcessMetrics collects memory metrics about the running process
// every refresh until shutdown is closed.
func CollectProcessMetrics(refresh time.Duration, shutdown <-chan struct{}) {
	if !Enabled() {
		return
	}
	memstats := make([]*runtime.MemStats, 2)
	for i := 0; i < len(memstats); i++ {
		memstats[i] = new(runtime.MemStats)
	}
	memAllocs := metrics.GetOrRegisterMeter("system/memory/allocs", metrics.DefaultRegistry)
	memFrees := metrics.GetOrRegisterMeter("system/memory/frees", metrics.DefaultRegistry)
	memInuse := metrics.GetOrRegisterGauge("system/memory/inuse", metrics.DefaultRegistry)
	memPauses := metrics.GetOrRegisterMeter("system/memory/pauses", metrics.DefaultRegistry)
	goroutines := metrics.GetOrRegisterGauge("system/goroutines", metrics.DefaultRegistry)

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()
	runtime.ReadMemStats(memstats[0])
	for i := 1; ; i++ {
		select {
		case <-shutdown:
			return
		case <-ticker.C:
		}
		runtime.ReadMemStats(memstats[i%2])
		memAllocs.Mark(int64(memstats[i%2].Mallocs - memstats[(i-1)%2].Mallocs))
		memFrees.Mark(int64(memstats[i%2].Frees - memstats[(i-1)%2].Frees))
		memInuse.Update(int64(memstats[i%2].Alloc))
		memPauses.Mark(int64(memstats[i%2].PauseTotalNs - memstats[(i-1)%2].PauseTotalNs))
		goroutines.Update(int64(runtime.NumGoroutine()))
	}
}
