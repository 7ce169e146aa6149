package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_NilAndEmptyTrace_ZeroValues(t *testing.T) {
	for _, st := range []*SimulationTrace{nil, NewSimulationTrace("empty")} {
		summary := Summarize(st, 10)
		assert.Equal(t, 0, summary.TotalEvents)
		assert.Equal(t, 0, summary.OrdersCompleted)
		assert.Equal(t, 0.0, summary.ThroughputPerHour)
		assert.Equal(t, Distribution{}, summary.LeadTime)
		assert.Empty(t, summary.Machines)
	}
}

func TestSummarize_PopulatedTrace_CorrectKPIs(t *testing.T) {
	// GIVEN two orders, one of which completes, plus machine, warehouse and lorry activity
	st := NewSimulationTrace("run")
	st.RecordEvent(EventOrderArrival, Fields{FieldTimestamp: 0.0, "order_id": 1})
	st.RecordEvent(EventOrderArrival, Fields{FieldTimestamp: 1.0, "order_id": 2})
	st.RecordEvent(EventWarehouseGet, Fields{FieldTimestamp: 0.0, "wait_time": 0.0, "quantity": 1})
	st.RecordEvent(EventWarehouseGet, Fields{FieldTimestamp: 1.5, "wait_time": 0.5, "quantity": 1})
	st.RecordEvent(EventMachineProcessing, Fields{FieldTimestamp: 0.5, "machine": "Machine A", "processing_time": 0.5, "wait_time": 0.0})
	st.RecordEvent(EventMachineProcessing, Fields{FieldTimestamp: 2.0, "machine": "Machine A", "processing_time": 0.5, "wait_time": 1.0})
	st.RecordEvent(EventMachineFailure, Fields{FieldTimestamp: 3.0, "machine": "Machine A"})
	st.RecordEvent(EventMachineRepair, Fields{FieldTimestamp: 4.0, "machine": "Machine A", "downtime": 1.0})
	st.RecordEvent(EventOrderCompleted, Fields{FieldTimestamp: 2.5, "order_id": 1})
	st.RecordEvent(EventLorryDeparture, Fields{FieldTimestamp: 5.0, "products_shipped": 4, "delay_time": 0.0})
	st.RecordEvent(EventLorryDeparture, Fields{FieldTimestamp: 8.0, "products_shipped": 2, "delay_time": 1.5})
	st.RecordMetric(MetricWarehouseLevel, 10, 0)
	st.RecordMetric(MetricWarehouseLevel, 6, 1)
	st.RecordMetric(MetricBufferABLevel, 1, 0.5)

	// WHEN summarized over a 10h horizon
	s := Summarize(st, 10)

	// THEN
	assert.Equal(t, 11, s.TotalEvents)
	assert.Equal(t, 2, s.OrdersArrived)
	assert.Equal(t, 1, s.OrdersCompleted)
	assert.InDelta(t, 0.1, s.ThroughputPerHour, 1e-12)
	assert.Equal(t, 1, s.LeadTime.Count)
	assert.InDelta(t, 2.5, s.LeadTime.Mean, 1e-12)

	require.Contains(t, s.Machines, "Machine A")
	m := s.Machines["Machine A"]
	assert.Equal(t, 2, m.ItemsProcessed)
	assert.InDelta(t, 0.1, m.Utilization, 1e-12)
	assert.InDelta(t, 0.5, m.MeanWait, 1e-12)
	assert.Equal(t, 1, m.Failures)
	assert.InDelta(t, 1.0, m.Downtime, 1e-12)

	assert.Equal(t, 2, s.Shipments)
	assert.Equal(t, 6, s.ProductsShipped)
	assert.InDelta(t, 3.0, s.MeanProductsPerShipment, 1e-12)
	assert.InDelta(t, 0.5, s.DelayRate, 1e-12)
	assert.InDelta(t, 1.5, s.MeanDelay, 1e-12)

	assert.InDelta(t, 0.25, s.MeanWarehouseWait, 1e-12)
	assert.InDelta(t, 8.0, s.MeanWarehouseLevel, 1e-12)
	assert.Equal(t, LevelSummary{Mean: 1, Max: 1}, s.Levels[MetricBufferABLevel])
	assert.Equal(t, 2, s.EventCounts[EventLorryDeparture])
}

func TestNewDistribution(t *testing.T) {
	d := NewDistribution([]float64{4, 1, 3, 2})
	assert.Equal(t, 4, d.Count)
	assert.InDelta(t, 2.5, d.Mean, 1e-12)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 4.0, d.Max)
	// rank 0.95*3 = 2.85 between 3 and 4
	assert.InDelta(t, 3.85, d.P95, 1e-12)
}

func TestCalculatePercentile_Edges(t *testing.T) {
	assert.Equal(t, 0.0, CalculatePercentile([]float64{}, 50))
	assert.Equal(t, 7.0, CalculatePercentile([]int{7}, 99))
	assert.Equal(t, 5.0, CalculatePercentile([]int{1, 5, 9}, 50))
}
