package factory

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factory-sim/factory-sim/sim"
	"github.com/factory-sim/factory-sim/sim/trace"
)

func newComponentSim() (*sim.Simulator, *trace.SimulationTrace) {
	return sim.NewSimulator(sim.NewSimulationKey(3)), trace.NewSimulationTrace("component")
}

func TestPartsWarehouse_ReplenishesUpToCapacity(t *testing.T) {
	// GIVEN a warehouse of 10 holding 2 parts, topped up by 5 every hour
	s, st := newComponentSim()
	w, err := NewPartsWarehouse(s, WarehouseConfig{
		InitialParts:               2,
		Capacity:                   10,
		ReplenishmentIntervalHours: 1,
		ReplenishmentQuantity:      5,
	}, st)
	require.NoError(t, err)

	var gotAt float64 = -1
	s.Spawn("replenish", w.Replenish)
	s.Spawn("consumer", func(p *sim.Process) {
		w.GetParts(p, 5)
		gotAt = p.Now()
	})

	// WHEN the run covers four replenishment rounds
	require.NoError(t, s.Run(4))

	// THEN the consumer waited for the first delivery and later rounds were clipped at capacity
	assert.Equal(t, 1.0, gotAt)
	var added []int
	for _, e := range st.EventsOfType(trace.EventWarehouseReplenishment) {
		n, _ := e.Int("parts_added")
		added = append(added, n)
	}
	assert.Equal(t, []int{5, 5, 3, 0}, added)
	assert.Equal(t, 10, w.Level())

	stats := w.Stats()
	assert.Equal(t, 4, stats.Replenishments)
	assert.Equal(t, 13, stats.PartsAdded)
	assert.Equal(t, 1, stats.FullSkips)
	assert.Equal(t, 1, stats.Retrievals)
	assert.InDelta(t, 1.0, stats.TotalWait, 1e-12)

	gets := st.EventsOfType(trace.EventWarehouseGet)
	require.Len(t, gets, 1)
	wait, _ := gets[0].Float("wait_time")
	assert.InDelta(t, 1.0, wait, 1e-12)
}

func TestPartsWarehouse_RecordsInitialLevel(t *testing.T) {
	s, st := newComponentSim()
	_, err := NewPartsWarehouse(s, WarehouseConfig{InitialParts: 7, Capacity: 9, ReplenishmentIntervalHours: 1}, st)
	require.NoError(t, err)

	require.Len(t, st.Metrics[trace.MetricWarehouseLevel], 1)
	assert.Equal(t, trace.MetricSample{Timestamp: 0, Value: 7}, st.Metrics[trace.MetricWarehouseLevel][0])
}

func TestPartsWarehouse_FullRoundLogsOnlyTheWarning(t *testing.T) {
	// GIVEN a warehouse that is already full when replenishment comes round
	hook := logtest.NewGlobal()
	defer hook.Reset()
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetLevel(level)

	s, st := newComponentSim()
	w, err := NewPartsWarehouse(s, WarehouseConfig{
		InitialParts:               10,
		Capacity:                   10,
		ReplenishmentIntervalHours: 1,
		ReplenishmentQuantity:      5,
	}, st)
	require.NoError(t, err)
	s.Spawn("replenish", w.Replenish)

	require.NoError(t, s.Run(1))

	// THEN the round is recorded but only the warning is logged
	require.Len(t, st.EventsOfType(trace.EventWarehouseReplenishment), 1)
	var warnings int
	for _, e := range hook.AllEntries() {
		assert.NotContains(t, e.Message, "replenished with")
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "Warehouse full") {
			warnings++
		}
	}
	assert.Equal(t, 1, warnings)
	assert.Equal(t, 1, w.Stats().FullSkips)
}

func TestProductionMachine_NewAcquisitionWaitsOutRepair(t *testing.T) {
	// GIVEN a machine that is broken from t=0 until t=3
	s, st := newComponentSim()
	m, err := NewProductionMachine(s, MachineConfig{Name: "M", ProcessingTimeMinutes: 30, MTBFHours: 1, MTTRHours: 1}, st)
	require.NoError(t, err)
	s.Spawn("breakdown", func(p *sim.Process) {
		m.broken = true
		p.Sleep(3)
		m.broken = false
		m.repaired.Broadcast()
	})

	// WHEN an item requests the machine at t=1
	s.Spawn("item", func(p *sim.Process) {
		p.Sleep(1)
		m.Work(p, 42)
	})
	require.NoError(t, s.Run(10))

	// THEN processing starts at the repair and lasts the fixed processing time
	events := st.EventsOfType(trace.EventMachineProcessing)
	require.Len(t, events, 1)
	start, _ := events[0].Float("start_time")
	end, _ := events[0].Float("end_time")
	wait, _ := events[0].Float("wait_time")
	assert.Equal(t, 3.0, start)
	assert.Equal(t, 3.5, end)
	assert.Equal(t, 2.0, wait)
	assert.Equal(t, 1, m.Stats().ItemsProcessed)
}

func TestProductionMachine_FailureDoesNotInterruptItem(t *testing.T) {
	// GIVEN an item that starts at t=0 and a breakdown at t=0.25, mid-processing
	s, st := newComponentSim()
	m, err := NewProductionMachine(s, MachineConfig{Name: "M", ProcessingTimeMinutes: 60, MTBFHours: 1, MTTRHours: 1}, st)
	require.NoError(t, err)
	s.Spawn("item", func(p *sim.Process) { m.Work(p, 1) })
	s.Spawn("breakdown", func(p *sim.Process) {
		p.Sleep(0.25)
		m.broken = true
	})

	require.NoError(t, s.Run(5))

	// THEN the in-progress item still completes on time
	events := st.EventsOfType(trace.EventMachineProcessing)
	require.Len(t, events, 1)
	end, _ := events[0].Float("end_time")
	assert.Equal(t, 1.0, end)
	assert.True(t, m.Broken())
}

func TestProductionMachine_FailureLoopAlternates(t *testing.T) {
	s, st := newComponentSim()
	m, err := NewProductionMachine(s, MachineConfig{Name: "M", ProcessingTimeMinutes: 1, MTBFHours: 2, MTTRHours: 0.5}, st)
	require.NoError(t, err)
	s.Spawn("failures", m.FailureLoop)

	require.NoError(t, s.Run(200))

	// failures and repairs strictly alternate, starting with a failure
	var kinds []string
	for _, e := range st.Events {
		kinds = append(kinds, e.Type)
	}
	require.NotEmpty(t, kinds)
	for i, k := range kinds {
		want := trace.EventMachineFailure
		if i%2 == 1 {
			want = trace.EventMachineRepair
		}
		require.Equal(t, want, k, "event %d", i)
	}
	assert.Equal(t, m.Stats().Failures, len(st.EventsOfType(trace.EventMachineFailure)))
}

func TestLorryDispatcher_ShipsFullLoadsOnly(t *testing.T) {
	// GIVEN five finished products and a lorry of capacity two with a one-hour return trip
	s, st := newComponentSim()
	storage, err := sim.NewQueue[int](s, "finished_storage", 10)
	require.NoError(t, err)
	d := NewLorryDispatcher(s, LogisticsConfig{LorryCapacity: 2, ReturnTripHours: 1}, storage, st)
	s.Spawn("producer", func(p *sim.Process) {
		for i := 1; i <= 5; i++ {
			storage.Put(p, i)
		}
	})
	s.Spawn("lorry", d.Run)

	require.NoError(t, s.Run(10))

	// THEN two full loads leave, one hour apart, and the fifth product waits on the lorry
	departures := st.EventsOfType(trace.EventLorryDeparture)
	require.Len(t, departures, 2)
	assert.Equal(t, 0.0, departures[0].Timestamp)
	assert.Equal(t, 1.0, departures[1].Timestamp)
	assert.Equal(t, []int{1, 2}, departures[0].Fields["product_ids"])
	assert.Equal(t, []int{3, 4}, departures[1].Fields["product_ids"])
	assert.Equal(t, 0, storage.Len())

	stats := d.Stats()
	assert.Equal(t, 2, stats.Shipments)
	assert.Equal(t, 4, stats.ProductsShipped)
	assert.Equal(t, 2.0, stats.MeanProductsPerShipment())
	assert.Equal(t, 0.0, stats.DelayRate())
}
