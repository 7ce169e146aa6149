// Package trace provides the recording surface of the factory simulation: producers append
// events and metric samples, analytics read them back after the run.
// This package has no dependencies on sim/ or sim/factory/; it stores pure data types.
package trace

// Event types emitted by the factory model.
const (
	EventOrderArrival           = "order_arrival"
	EventOrderCompleted         = "order_completed"
	EventWarehouseGet           = "warehouse_get"
	EventWarehouseReplenishment = "warehouse_replenishment"
	EventMachineProcessing      = "machine_processing"
	EventMachineFailure         = "machine_failure"
	EventMachineRepair          = "machine_repair"
	EventCarIssue               = "car_issue"
	EventLorryDeparture         = "lorry_departure"
)

// Metric names sampled by the factory model.
const (
	MetricWarehouseLevel       = "warehouse_level"
	MetricBufferABLevel        = "buffer_A_B_level"
	MetricBufferBCLevel        = "buffer_B_C_level"
	MetricFinishedStorageLevel = "finished_storage_level"
)

// FieldTimestamp is the field every recorded event carries: the virtual time of recording.
const FieldTimestamp = "timestamp"

// Fields is the payload of an event, keyed by field name.
type Fields map[string]any

// EventRecord is a single recorded event.
type EventRecord struct {
	Seq       int     `json:"seq"`
	Type      string  `json:"event_type"`
	Timestamp float64 `json:"timestamp"`
	Fields    Fields  `json:"fields"`
}

// Float returns the named field as a float64, converting integer values.
// The second result is false when the field is missing or not numeric.
func (r EventRecord) Float(name string) (float64, bool) {
	return toFloat(r.Fields[name])
}

// Int returns the named field as an int. The second result is false when the field is
// missing or not an integer.
func (r EventRecord) Int(name string) (int, bool) {
	switch v := r.Fields[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// String returns the named field as a string.
func (r EventRecord) String(name string) (string, bool) {
	s, ok := r.Fields[name].(string)
	return s, ok
}

// MetricSample is one value of a named metric at a virtual time.
type MetricSample struct {
	Timestamp float64 `json:"timestamp"`
	Value     float64 `json:"value"`
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
