// Implements Queue, the capacity-bounded FIFO token channel that links pipeline stages.
// Items are delivered in put order; put suspends while full and get while empty.
// Every put and get yields, even when it completes at once. A putter resumes before the
// getter it fed, and a putter admitted by a get resumes before that getter.

package sim

import (
	"fmt"
	"math"
	"strings"
)

// Unbounded is the capacity of a queue with no practical limit.
const Unbounded = math.MaxInt

type queueGet[T any] struct {
	p    *Process
	item T
}

type queuePut[T any] struct {
	p    *Process
	item T
}

// Queue is a FIFO of tokens with length in [0, capacity].
type Queue[T any] struct {
	sim      *Simulator
	name     string
	capacity int
	items    []T
	getters  []*queueGet[T]
	putters  []*queuePut[T]
}

// NewQueue creates an empty queue. Use Unbounded for a queue without a limit.
func NewQueue[T any](s *Simulator, name string, capacity int) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("queue %q: capacity must be positive, got %d", name, capacity)
	}
	return &Queue[T]{sim: s, name: name, capacity: capacity}, nil
}

// Put appends item, suspending p while the queue is full.
func (q *Queue[T]) Put(p *Process, item T) {
	if len(q.putters) == 0 && len(q.items) < q.capacity {
		q.items = append(q.items, item)
		q.sim.Schedule(0, p.wakeup)
		q.settle()
		p.suspend(StateWaitQueue)
		return
	}
	q.putters = append(q.putters, &queuePut[T]{p: p, item: item})
	p.suspend(StateWaitQueue)
}

// Get removes and returns the head item, suspending p while the queue is empty.
func (q *Queue[T]) Get(p *Process) T {
	if len(q.getters) == 0 && len(q.items) > 0 {
		item := q.pop()
		q.settle()
		q.sim.Schedule(0, p.wakeup)
		p.suspend(StateWaitQueue)
		return item
	}
	req := &queueGet[T]{p: p}
	q.getters = append(q.getters, req)
	p.suspend(StateWaitQueue)
	return req.item
}

// settle admits waiting puts while there is room and hands items to waiting gets.
func (q *Queue[T]) settle() {
	for progressed := true; progressed; {
		progressed = false
		for len(q.putters) > 0 && len(q.items) < q.capacity {
			req := q.putters[0]
			q.putters = q.putters[1:]
			q.items = append(q.items, req.item)
			q.sim.Schedule(0, req.p.wakeup)
			progressed = true
		}
		for len(q.getters) > 0 && len(q.items) > 0 {
			req := q.getters[0]
			q.getters = q.getters[1:]
			req.item = q.pop()
			q.sim.Schedule(0, req.p.wakeup)
			progressed = true
		}
	}
}

func (q *Queue[T]) pop() T {
	var zero T
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Capacity returns the maximum number of queued items.
func (q *Queue[T]) Capacity() int {
	return q.capacity
}

// Name returns the queue name.
func (q *Queue[T]) Name() string {
	return q.name
}

// Peek returns the item at the front of the queue without removing it.
// The second result is false when the queue is empty.
func (q *Queue[T]) Peek() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

func (q *Queue[T]) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range q.items {
		sb.WriteString(fmt.Sprint(val))
		if i < len(q.items)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
