package cmd

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/uber-go/tally/v4"
)

const (
	metricsPrefix        = "factory"
	metricsSeparator     = "."
	metricsFlushInterval = time.Second
)

// metricsCollector is a tally reporter that keeps the last reported value of every counter
// and gauge so they can be printed once the run is over.
type metricsCollector struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
}

func newMetricsCollector() *metricsCollector {
	return &metricsCollector{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
	}
}

// rootScope returns a root scope reporting into c. Closing it flushes the final values.
func (c *metricsCollector) rootScope() (tally.Scope, io.Closer) {
	return tally.NewRootScope(tally.ScopeOptions{
		Prefix:    metricsPrefix,
		Separator: metricsSeparator,
		Reporter:  c,
	}, metricsFlushInterval)
}

// ReportCounter accumulates counter deltas.
func (c *metricsCollector) ReportCounter(name string, _ map[string]string, value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += value
}

// ReportGauge keeps the latest gauge value.
func (c *metricsCollector) ReportGauge(name string, _ map[string]string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[name] = value
}

// ReportTimer is a no-op; the factory model reports no timers.
func (c *metricsCollector) ReportTimer(string, map[string]string, time.Duration) {}

// ReportHistogramValueSamples is a no-op; the factory model reports no histograms.
func (c *metricsCollector) ReportHistogramValueSamples(string, map[string]string, tally.Buckets, float64, float64, int64) {
}

// ReportHistogramDurationSamples is a no-op; the factory model reports no histograms.
func (c *metricsCollector) ReportHistogramDurationSamples(string, map[string]string, tally.Buckets, time.Duration, time.Duration, int64) {
}

// Capabilities reports that the collector records values but ignores tags.
func (c *metricsCollector) Capabilities() tally.Capabilities {
	return c
}

func (c *metricsCollector) Reporting() bool { return true }

func (c *metricsCollector) Tagging() bool { return false }

func (c *metricsCollector) Flush() {}

// Counter returns the accumulated value of a counter.
func (c *metricsCollector) Counter(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[name]
}

// Gauge returns the latest value of a gauge and whether it was ever reported.
func (c *metricsCollector) Gauge(name string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.gauges[name]
	return v, ok
}

// Print writes every collected counter and gauge, sorted by name.
func (c *metricsCollector) Print(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(w, "=== Recorder Metrics ===")
	names := make([]string, 0, len(c.counters))
	for name := range c.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-45s %d\n", name, c.counters[name])
	}
	names = names[:0]
	for name := range c.gauges {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-45s %.2f\n", name, c.gauges[name])
	}
}
