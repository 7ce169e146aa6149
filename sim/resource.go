package sim

import "fmt"

// Resource is a slot-limited mutual-exclusion primitive. Up to capacity processes hold it at
// once; further acquirers wait and are granted strictly in arrival order, without priority or
// preemption. A freed slot is handed to the head waiter before the releaser continues, so a
// later arrival can never overtake a waiter.
type Resource struct {
	sim      *Simulator
	name     string
	capacity int
	holders  []*Process
	waiters  []*Process
}

// NewResource creates a resource with the given number of slots.
func NewResource(s *Simulator, name string, capacity int) (*Resource, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("resource %q: capacity must be positive, got %d", name, capacity)
	}
	return &Resource{sim: s, name: name, capacity: capacity}, nil
}

// NewExclusiveResource creates a single-slot resource.
func NewExclusiveResource(s *Simulator, name string) *Resource {
	return &Resource{sim: s, name: name, capacity: 1}
}

// Acquire suspends p until it holds a slot.
func (r *Resource) Acquire(p *Process) {
	if len(r.holders) < r.capacity && len(r.waiters) == 0 {
		r.holders = append(r.holders, p)
		return
	}
	r.waiters = append(r.waiters, p)
	p.suspend(StateWaitResource)
}

// Release frees the slot held by p and grants it to the next waiter, if any.
func (r *Resource) Release(p *Process) {
	idx := -1
	for i, h := range r.holders {
		if h == p {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic(fmt.Sprintf("sim: %s released resource %q it does not hold", p, r.name))
	}
	r.holders = append(r.holders[:idx], r.holders[idx+1:]...)

	for len(r.holders) < r.capacity && len(r.waiters) > 0 {
		next := r.waiters[0]
		r.waiters[0] = nil
		r.waiters = r.waiters[1:]
		r.holders = append(r.holders, next)
		r.sim.Schedule(0, next.wakeup)
	}
}

// Use acquires a slot for p, runs fn, and releases the slot on every exit path of fn.
func (r *Resource) Use(p *Process, fn func()) {
	r.Acquire(p)
	defer r.Release(p)
	fn()
}

// Name returns the resource name.
func (r *Resource) Name() string { return r.name }

// Capacity returns the number of slots.
func (r *Resource) Capacity() int { return r.capacity }

// InUse returns the number of slots currently held.
func (r *Resource) InUse() int { return len(r.holders) }

// QueueLen returns the number of suspended acquirers.
func (r *Resource) QueueLen() int { return len(r.waiters) }

// Holder returns the current holder of a single-slot resource, or nil when it is free.
func (r *Resource) Holder() *Process {
	if len(r.holders) == 0 {
		return nil
	}
	return r.holders[0]
}
