package sim

// Condition is a list of processes waiting for a state transition. Broadcast wakes all of them,
// in the order they started waiting, at the current instant.
type Condition struct {
	sim     *Simulator
	waiters []*Process
}

// NewCondition creates a condition with no waiters.
func NewCondition(s *Simulator) *Condition {
	return &Condition{sim: s}
}

// Wait suspends p until the next Broadcast. Callers re-check their predicate after waking.
func (c *Condition) Wait(p *Process) {
	c.waiters = append(c.waiters, p)
	p.suspend(StateWaitCondition)
}

// Broadcast wakes every waiter and returns how many were woken.
func (c *Condition) Broadcast() int {
	n := len(c.waiters)
	for _, p := range c.waiters {
		c.sim.Schedule(0, p.wakeup)
	}
	c.waiters = nil
	return n
}

// Waiting returns the number of suspended waiters.
func (c *Condition) Waiting() int {
	return len(c.waiters)
}
