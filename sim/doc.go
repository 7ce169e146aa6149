// Package sim provides the discrete-event simulation kernel of the factory simulator.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - simulator.go: virtual clock, the (time, seq) event loop, horizon handling and teardown
//   - process.go: cooperatively scheduled processes and their suspension points
//   - resource.go, container.go, queue.go, condition.go: blocking primitives built on processes
//
// # Execution model
//
// Every simulated activity is a Process. A process body is ordinary sequential Go code that
// blocks on kernel calls (Sleep, Wait, Resource.Acquire, Container.Get/Put, Queue.Get/Put,
// Condition.Wait). Each block registers a wake-up and returns control to the scheduler, which
// pops the next wake-up in (time, registration order) and resumes its process. Only one process
// body executes at a time, so kernel state needs no locking and a run is reproducible from its
// SimulationKey.
//
// A run ends at its horizon. Processes still suspended at that point are abandoned: they are
// never resumed and their goroutines are unwound before Run returns.
//
// # Sub-packages
//
//   - sim/trace/: the recorder surface (append-only event and metric store, KPI summary)
//   - sim/factory/: the manufacturing line model built on this kernel
package sim
