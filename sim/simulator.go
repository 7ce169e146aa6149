// sim/simulator.go
package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// ErrAlreadyRun is returned by Run when the simulator has already been driven to its horizon.
// A Simulator is single-use: there is no pause/resume across Run calls.
var ErrAlreadyRun = errors.New("simulator has already run")

// Simulator is the simulation context: it holds virtual time, the pending wake-ups and the
// registry of live processes. Every entity of a run receives the same *Simulator at construction;
// independent runs use independent Simulators and never share state.
//
// Exactly one process body executes at any moment. Processes live on their own goroutines but
// hand control back and forth with the scheduler loop over unbuffered channels, so the run is
// single-threaded in effect and fully reproducible for a given seed.
type Simulator struct {
	clock   float64 // Current virtual time (hours)
	horizon float64
	events  *EventHeap
	nextSeq uint64 // Registration counter used as the same-time tie-breaker
	fired   uint64

	// RNG provides the per-subsystem random streams of this run.
	RNG *PartitionedRNG

	yield   chan struct{} // process → scheduler hand-off
	active  *Process
	procs   []*Process // all processes not yet compacted away, in creation order
	live    int
	nextPID uint64

	ran    bool
	halted bool
}

// NewSimulator creates a Simulator at time zero whose randomness derives from key.
func NewSimulator(key SimulationKey) *Simulator {
	return &Simulator{
		events: NewEventHeap(),
		RNG:    NewPartitionedRNG(key),
		yield:  make(chan struct{}),
	}
}

// Now returns the current virtual time.
func (s *Simulator) Now() float64 {
	return s.clock
}

// Horizon returns the horizon passed to Run (zero before Run).
func (s *Simulator) Horizon() float64 {
	return s.horizon
}

// Pending returns the number of registered wake-ups that have not fired yet.
func (s *Simulator) Pending() int {
	return s.events.Len()
}

// Fired returns the number of events executed so far.
func (s *Simulator) Fired() uint64 {
	return s.fired
}

// Live returns the number of processes that have neither finished nor been abandoned.
func (s *Simulator) Live() int {
	return s.live
}

// Schedule registers fn to be invoked by the scheduler loop after delay hours of virtual time.
// A zero delay still goes through the queue, so other wake-ups registered earlier for the
// same instant run first. Scheduling after the run has ended is a no-op.
func (s *Simulator) Schedule(delay float64, fn func()) {
	if delay < 0 || math.IsNaN(delay) {
		panic(fmt.Sprintf("sim: invalid delay %v", delay))
	}
	if s.halted {
		return
	}
	s.nextSeq++
	s.events.Schedule(&Event{time: s.clock + delay, seq: s.nextSeq, fire: fn})
}

// Run pops events in (time, seq) order and executes them until the queue empties or the next
// event lies strictly after horizon. The clock is then set to horizon and every process still
// suspended is abandoned: it is never resumed again and its goroutine is unwound.
func (s *Simulator) Run(horizon float64) error {
	if s.ran {
		return ErrAlreadyRun
	}
	if math.IsNaN(horizon) || horizon < s.clock {
		return fmt.Errorf("sim: horizon must be >= %v, got %v", s.clock, horizon)
	}
	s.ran = true
	s.horizon = horizon
	logrus.Debugf("[t=%.4f] Simulation starting: horizon=%.4f, processes=%d", s.clock, horizon, s.live)

	for s.events.Len() > 0 {
		if s.events.Peek().time > horizon {
			break
		}
		ev := s.events.PopNext()
		// advance the clock
		s.clock = ev.time
		s.fired++
		ev.fire()
	}
	if !math.IsInf(horizon, 1) {
		s.clock = horizon
	}

	abandoned := s.live
	s.halt()
	logrus.Debugf("[t=%.4f] Simulation ended: %d events fired, %d processes abandoned", s.clock, s.fired, abandoned)
	return nil
}

// resume hands control to p and blocks until p suspends again or finishes.
func (s *Simulator) resume(p *Process) {
	if p.done() {
		return
	}
	s.active = p
	p.wake <- struct{}{}
	<-s.yield
	s.active = nil
	if p.fault != nil {
		fault := p.fault
		s.halt()
		panic(fmt.Sprintf("sim: process %q panicked at t=%.4f: %v", p.name, s.clock, fault))
	}
}

// halt stops accepting wake-ups and unwinds every suspended process, one at a time.
func (s *Simulator) halt() {
	if s.halted {
		return
	}
	s.halted = true
	for _, p := range s.procs {
		if p.done() {
			continue
		}
		p.abandon <- struct{}{}
		<-s.yield
	}
	s.procs = nil
	s.events = NewEventHeap()
}

// track registers p, compacting finished processes out of the registry from time to time.
func (s *Simulator) track(p *Process) {
	s.live++
	if len(s.procs) >= 64 && len(s.procs) > 2*s.live {
		kept := s.procs[:0]
		for _, q := range s.procs {
			if !q.done() {
				kept = append(kept, q)
			}
		}
		for i := len(kept); i < len(s.procs); i++ {
			s.procs[i] = nil
		}
		s.procs = kept
	}
	s.procs = append(s.procs, p)
}
