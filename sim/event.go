package sim

// Event is a pending wake-up registered with the Simulator.
// Events fire in (time, seq) order; seq is assigned when the wake-up is
// registered, so same-time events fire in registration order.
type Event struct {
	time float64 // Virtual time at which the event fires (hours)
	seq  uint64  // Registration order, tie-breaker for equal times
	fire func()  // Resumption invoked by the scheduler loop
}

// Timestamp returns the virtual time at which the event fires.
func (e *Event) Timestamp() float64 {
	return e.time
}

// Seq returns the registration sequence number of the event.
func (e *Event) Seq() uint64 {
	return e.seq
}
