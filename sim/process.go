package sim

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// ProcessState describes what a process is doing at the current instant.
type ProcessState int

const (
	StateRunning       ProcessState = iota // Executing its body; scheduler blocked
	StateSleeping                          // Suspended on a timer (including not yet started)
	StateWaitResource                      // Suspended on a Resource or Container
	StateWaitQueue                         // Suspended on a Queue get/put
	StateWaitProcess                       // Suspended until a child process finishes
	StateWaitCondition                     // Suspended until a Condition is broadcast
	StateFinished                          // Body returned
	StateAbandoned                         // Still suspended when the run ended
)

var processStateNames = map[ProcessState]string{
	StateRunning:       "running",
	StateSleeping:      "sleeping",
	StateWaitResource:  "wait-resource",
	StateWaitQueue:     "wait-queue",
	StateWaitProcess:   "wait-process",
	StateWaitCondition: "wait-condition",
	StateFinished:      "finished",
	StateAbandoned:     "abandoned",
}

func (st ProcessState) String() string {
	if name, ok := processStateNames[st]; ok {
		return name
	}
	return fmt.Sprintf("ProcessState(%d)", int(st))
}

// Process is a unit of sequential simulated behavior. Its body runs on a dedicated goroutine
// but only while the scheduler has handed it control; every blocking call on a Process
// (Sleep, Wait, Resource.Acquire, Container.Get, Queue.Put, ...) returns control to the
// scheduler until the matching wake-up fires.
//
// A Process handle must only be used from inside its own body.
type Process struct {
	sim   *Simulator
	id    uint64
	name  string
	state ProcessState

	wake    chan struct{}
	abandon chan struct{}
	wakeup  func() // schedules-ready resumption closure, allocated once

	joiners []*Process
	fault   any
}

// Spawn creates a process running body and registers its first activation at the current time.
// Processes spawned at the same instant start in spawn order.
func (s *Simulator) Spawn(name string, body func(p *Process)) *Process {
	if s.halted {
		panic(fmt.Sprintf("sim: spawn of %q after the run ended", name))
	}
	s.nextPID++
	p := &Process{
		sim:     s,
		id:      s.nextPID,
		name:    name,
		state:   StateSleeping,
		wake:    make(chan struct{}),
		abandon: make(chan struct{}),
	}
	p.wakeup = func() { s.resume(p) }
	s.track(p)
	go p.run(body)
	s.Schedule(0, p.wakeup)
	return p
}

func (p *Process) run(body func(p *Process)) {
	defer func() {
		if r := recover(); r != nil {
			p.fault = fmt.Sprintf("%v\n%s", r, debug.Stack())
		}
		if p.state != StateAbandoned {
			p.state = StateFinished
		}
		p.sim.live--
		p.sim.yield <- struct{}{}
	}()
	p.await()
	body(p)
	p.finish()
}

// ID returns the process identifier, unique within its Simulator.
func (p *Process) ID() uint64 { return p.id }

// Name returns the name given at spawn time.
func (p *Process) Name() string { return p.name }

// State returns the current state of the process.
func (p *Process) State() ProcessState { return p.state }

// Sim returns the simulator the process belongs to.
func (p *Process) Sim() *Simulator { return p.sim }

// Now returns the current virtual time.
func (p *Process) Now() float64 { return p.sim.clock }

// Sleep suspends the process for delay hours of virtual time. A zero delay still yields.
func (p *Process) Sleep(delay float64) {
	p.sim.Schedule(delay, p.wakeup)
	p.suspend(StateSleeping)
}

// Wait suspends the process until child has finished. Returns immediately if it already has.
func (p *Process) Wait(child *Process) {
	if child.done() {
		return
	}
	child.joiners = append(child.joiners, p)
	p.suspend(StateWaitProcess)
}

// Call runs body as a nested process and waits for it to finish.
func (p *Process) Call(name string, body func(p *Process)) {
	p.Wait(p.sim.Spawn(name, body))
}

func (p *Process) String() string {
	return fmt.Sprintf("%s#%d(%s)", p.name, p.id, p.state)
}

func (p *Process) done() bool {
	return p.state == StateFinished || p.state == StateAbandoned
}

// finish wakes every process waiting on p.
func (p *Process) finish() {
	for _, j := range p.joiners {
		p.sim.Schedule(0, j.wakeup)
	}
	p.joiners = nil
}

// suspend hands control back to the scheduler and blocks until resumed.
// The caller must already have registered how the process will be woken.
func (p *Process) suspend(state ProcessState) {
	if p.sim.halted {
		p.state = StateAbandoned
		runtime.Goexit()
	}
	if p.sim.active != p {
		panic(fmt.Sprintf("sim: process %q suspended while not running", p.name))
	}
	p.state = state
	p.sim.yield <- struct{}{}
	p.await()
}

func (p *Process) await() {
	select {
	case <-p.wake:
		p.state = StateRunning
	case <-p.abandon:
		p.state = StateAbandoned
		runtime.Goexit()
	}
}
