// Package testutil provides assertion helpers shared by the sim/ test packages.
package testutil

import (
	"math"
	"testing"

	"github.com/factory-sim/factory-sim/sim/trace"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertNonDecreasingTimestamps fails if events were recorded out of virtual-time order.
func AssertNonDecreasingTimestamps(t *testing.T, events []trace.EventRecord) {
	t.Helper()
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp < events[i-1].Timestamp {
			t.Fatalf("event %d (%s at %v) recorded before event %d (%s at %v)",
				i, events[i].Type, events[i].Timestamp, i-1, events[i-1].Type, events[i-1].Timestamp)
		}
	}
}

// AssertLevelWithin fails if any sample of the named metric lies outside [lo, hi].
func AssertLevelWithin(t *testing.T, st *trace.SimulationTrace, metric string, lo, hi float64) {
	t.Helper()
	for i, s := range st.Metrics[metric] {
		if s.Value < lo || s.Value > hi {
			t.Fatalf("%s sample %d = %v at t=%v, want within [%v, %v]", metric, i, s.Value, s.Timestamp, lo, hi)
		}
	}
}
