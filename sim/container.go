package sim

import "fmt"

// amountRequest is a suspended Container get or put.
type amountRequest struct {
	p      *Process
	amount int
}

// Container is a quantity-typed stock with level in [0, capacity]. Get suspends while the
// level is insufficient and Put while there is not enough room. Waiting gets (and waiting puts)
// are served strictly in FIFO order: a later get that needs less never overtakes an earlier one.
//
// Gets and puts always yield. A put resumes before the gets it satisfied, and a get resumes
// after the puts it made room for.
//
// A zero-capacity container is valid and stays empty forever; any positive get on it suspends
// until the run ends.
type Container struct {
	sim      *Simulator
	name     string
	capacity int
	level    int
	getters  []amountRequest
	putters  []amountRequest
}

// NewContainer creates a container holding initial units out of capacity.
func NewContainer(s *Simulator, name string, capacity, initial int) (*Container, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("container %q: capacity must be non-negative, got %d", name, capacity)
	}
	if initial < 0 || initial > capacity {
		return nil, fmt.Errorf("container %q: initial level must be in [0, %d], got %d", name, capacity, initial)
	}
	return &Container{sim: s, name: name, capacity: capacity, level: initial}, nil
}

// Get removes amount units, suspending p until they are available and every earlier get has
// been served.
func (c *Container) Get(p *Process, amount int) {
	if amount < 0 {
		panic(fmt.Sprintf("sim: container %q: negative get %d", c.name, amount))
	}
	if len(c.getters) == 0 && c.level >= amount {
		c.level -= amount
		c.settle()
		c.sim.Schedule(0, p.wakeup)
		p.suspend(StateWaitResource)
		return
	}
	c.getters = append(c.getters, amountRequest{p: p, amount: amount})
	p.suspend(StateWaitResource)
}

// Put adds amount units, suspending p until there is room and every earlier put has been
// served.
func (c *Container) Put(p *Process, amount int) {
	if amount < 0 {
		panic(fmt.Sprintf("sim: container %q: negative put %d", c.name, amount))
	}
	if len(c.putters) == 0 && c.level+amount <= c.capacity {
		c.level += amount
		c.sim.Schedule(0, p.wakeup)
		c.settle()
		p.suspend(StateWaitResource)
		return
	}
	c.putters = append(c.putters, amountRequest{p: p, amount: amount})
	p.suspend(StateWaitResource)
}

// settle serves head-of-line waiters until neither side can make progress.
func (c *Container) settle() {
	for progressed := true; progressed; {
		progressed = false
		for len(c.putters) > 0 && c.level+c.putters[0].amount <= c.capacity {
			req := c.putters[0]
			c.putters = c.putters[1:]
			c.level += req.amount
			c.sim.Schedule(0, req.p.wakeup)
			progressed = true
		}
		for len(c.getters) > 0 && c.level >= c.getters[0].amount {
			req := c.getters[0]
			c.getters = c.getters[1:]
			c.level -= req.amount
			c.sim.Schedule(0, req.p.wakeup)
			progressed = true
		}
	}
}

// Level returns the current number of units.
func (c *Container) Level() int { return c.level }

// Capacity returns the maximum number of units.
func (c *Container) Capacity() int { return c.capacity }

// Name returns the container name.
func (c *Container) Name() string { return c.name }

// WaitingGets returns the number of suspended gets.
func (c *Container) WaitingGets() int { return len(c.getters) }
