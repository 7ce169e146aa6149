package trace

import (
	"github.com/uber-go/tally/v4"
)

// ScopeRecorder mirrors recorded data into a tally scope: one counter per event type under
// "events" and one gauge per metric under "samples". It keeps no history of its own.
type ScopeRecorder struct {
	events  tally.Scope
	samples tally.Scope
}

// NewScopeRecorder returns a ScopeRecorder reporting into scope.
func NewScopeRecorder(scope tally.Scope) *ScopeRecorder {
	return &ScopeRecorder{
		events:  scope.SubScope("events"),
		samples: scope.SubScope("samples"),
	}
}

// RecordEvent increments the counter named after the event type.
func (r *ScopeRecorder) RecordEvent(eventType string, _ Fields) {
	r.events.Counter(eventType).Inc(1)
}

// RecordMetric updates the gauge named after the metric to the latest value.
func (r *ScopeRecorder) RecordMetric(name string, value float64, _ float64) {
	r.samples.Gauge(name).Update(value)
}
