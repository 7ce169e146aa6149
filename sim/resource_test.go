package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResource_ExclusiveGrantsInArrivalOrder(t *testing.T) {
	// GIVEN three processes contending for a single-slot resource, each holding it 1h
	s := newTestSimulator()
	r := NewExclusiveResource(s, "machine")
	var starts []stamp
	for _, name := range []string{"A", "B", "C"} {
		s.Spawn(name, func(p *Process) {
			r.Use(p, func() {
				starts = append(starts, stamp{p.Name(), p.Now()})
				p.Sleep(1)
			})
		})
	}

	require.NoError(t, s.Run(10))

	// THEN they are served one after the other in spawn order
	assert.Equal(t, []stamp{{"A", 0}, {"B", 1}, {"C", 2}}, starts)
	assert.Equal(t, 0, r.InUse())
	assert.Nil(t, r.Holder())
}

func TestResource_CapacityBoundsConcurrentHolders(t *testing.T) {
	s := newTestSimulator()
	r, err := NewResource(s, "dock", 2)
	require.NoError(t, err)
	var starts []float64
	for i := 0; i < 4; i++ {
		s.Spawn("user", func(p *Process) {
			r.Use(p, func() {
				starts = append(starts, p.Now())
				p.Sleep(1)
			})
		})
	}
	var peakQueue int
	s.Spawn("observer", func(p *Process) {
		p.Sleep(0.5)
		peakQueue = r.QueueLen()
		assert.Equal(t, 2, r.InUse())
	})

	require.NoError(t, s.Run(10))

	assert.Equal(t, []float64{0, 0, 1, 1}, starts)
	assert.Equal(t, 2, peakQueue)
}

func TestResource_FreedSlotGoesToHeadWaiter(t *testing.T) {
	// GIVEN A holds until t=2, B queues at t=1 and C arrives exactly when A releases
	s := newTestSimulator()
	r := NewExclusiveResource(s, "slot")
	var starts []stamp
	hold := func(p *Process, d float64) {
		r.Use(p, func() {
			starts = append(starts, stamp{p.Name(), p.Now()})
			p.Sleep(d)
		})
	}
	s.Spawn("A", func(p *Process) { hold(p, 2) })
	s.Spawn("B", func(p *Process) { p.Sleep(1); hold(p, 1) })
	s.Spawn("C", func(p *Process) { p.Sleep(2); hold(p, 1) })

	require.NoError(t, s.Run(10))

	// THEN the waiting B is served before the late arrival C
	assert.Equal(t, []stamp{{"A", 0}, {"B", 2}, {"C", 3}}, starts)
}

func TestResource_ReleaseWithoutHoldingPanics(t *testing.T) {
	s := newTestSimulator()
	r := NewExclusiveResource(s, "slot")
	s.Spawn("intruder", func(p *Process) { r.Release(p) })
	assert.Panics(t, func() { _ = s.Run(1) })
}

func TestNewResource_RejectsNonPositiveCapacity(t *testing.T) {
	_, err := NewResource(newTestSimulator(), "bad", 0)
	assert.Error(t, err)
}
