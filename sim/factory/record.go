package factory

import "github.com/factory-sim/factory-sim/sim/trace"

// recordEvent stamps fields with the current virtual time and appends the event.
func recordEvent(rec trace.Recorder, now float64, eventType string, fields trace.Fields) {
	fields[trace.FieldTimestamp] = now
	rec.RecordEvent(eventType, fields)
}
