package trace

import "sort"

// Recorder is the sink the simulation entities write to. Both methods are append-only:
// producers never read back what they recorded.
type Recorder interface {
	// RecordEvent appends an event. fields always include FieldTimestamp.
	RecordEvent(eventType string, fields Fields)
	// RecordMetric appends a sample to the named metric's series.
	RecordMetric(name string, value float64, timestamp float64)
}

// SimulationTrace collects the events and metric samples of one simulation run.
type SimulationTrace struct {
	RunID   string
	Events  []EventRecord
	Metrics map[string][]MetricSample
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(runID string) *SimulationTrace {
	return &SimulationTrace{
		RunID:   runID,
		Events:  make([]EventRecord, 0),
		Metrics: make(map[string][]MetricSample),
	}
}

// RecordEvent appends an event record. The fields map is copied.
func (st *SimulationTrace) RecordEvent(eventType string, fields Fields) {
	copied := make(Fields, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	ts, _ := toFloat(fields[FieldTimestamp])
	st.Events = append(st.Events, EventRecord{
		Seq:       len(st.Events),
		Type:      eventType,
		Timestamp: ts,
		Fields:    copied,
	})
}

// RecordMetric appends a sample to the named series.
func (st *SimulationTrace) RecordMetric(name string, value float64, timestamp float64) {
	st.Metrics[name] = append(st.Metrics[name], MetricSample{Timestamp: timestamp, Value: value})
}

// EventsOfType returns the recorded events of the given type, in recording order.
func (st *SimulationTrace) EventsOfType(eventType string) []EventRecord {
	var out []EventRecord
	for _, e := range st.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// MetricNames returns the names of all recorded metrics, sorted.
func (st *SimulationTrace) MetricNames() []string {
	names := make([]string, 0, len(st.Metrics))
	for name := range st.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// multiRecorder fans every record out to several recorders.
type multiRecorder []Recorder

// Tee returns a Recorder that forwards to each of rs in order. Nil recorders are skipped.
func Tee(rs ...Recorder) Recorder {
	out := make(multiRecorder, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multiRecorder) RecordEvent(eventType string, fields Fields) {
	for _, r := range m {
		r.RecordEvent(eventType, fields)
	}
}

func (m multiRecorder) RecordMetric(name string, value float64, timestamp float64) {
	for _, r := range m {
		r.RecordMetric(name, value, timestamp)
	}
}
