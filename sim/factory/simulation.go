package factory

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"

	"github.com/factory-sim/factory-sim/sim"
	"github.com/factory-sim/factory-sim/sim/trace"
)

// Result is everything a finished run hands to its consumers.
type Result struct {
	RunID     string                 `json:"run_id"`
	Seed      int64                  `json:"seed"`
	Horizon   float64                `json:"horizon"`
	Trace     *trace.SimulationTrace `json:"-"`
	Summary   *trace.Summary         `json:"summary"`
	Machines  []MachineStats         `json:"machines"`
	Warehouse WarehouseStats         `json:"warehouse"`
	Logistics LogisticsStats         `json:"logistics"`
	Backlog   map[string]int         `json:"backlog"` // queue lengths at the horizon
}

// Option customizes a Simulation.
type Option func(*Simulation)

// WithScope mirrors every recorded event and metric sample into scope.
func WithScope(scope tally.Scope) Option {
	return func(f *Simulation) {
		f.scope = scope
	}
}

// WithRecorder adds an extra recorder that receives every event and sample.
func WithRecorder(rec trace.Recorder) Option {
	return func(f *Simulation) {
		f.extra = append(f.extra, rec)
	}
}

// Simulation wires the factory entities onto one simulation context and runs them to the
// configured horizon. A Simulation is single-use.
type Simulation struct {
	cfg   Config
	runID string
	scope tally.Scope
	extra []trace.Recorder

	sim        *sim.Simulator
	trace      *trace.SimulationTrace
	rec        trace.Recorder
	warehouse  *PartsWarehouse
	machines   []*ProductionMachine
	line       *ProductionLine
	orders     *OrderGenerator
	dispatcher *LorryDispatcher
	ran        bool
}

// New validates cfg and builds every entity. No process runs before Run.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid factory configuration")
	}

	f := &Simulation{
		cfg:   cfg,
		runID: uuid.New().String(),
		scope: tally.NoopScope,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.sim = sim.NewSimulator(sim.NewSimulationKey(cfg.Simulation.RandomSeed))
	f.trace = trace.NewSimulationTrace(f.runID)
	f.rec = trace.Tee(append([]trace.Recorder{f.trace, trace.NewScopeRecorder(f.scope)}, f.extra...)...)

	var err error
	if f.warehouse, err = NewPartsWarehouse(f.sim, cfg.Warehouse, f.rec); err != nil {
		return nil, err
	}
	for _, mc := range cfg.ProductionLine.Machines {
		m, err := NewProductionMachine(f.sim, mc, f.rec)
		if err != nil {
			return nil, err
		}
		f.machines = append(f.machines, m)
	}
	if f.line, err = NewProductionLine(f.sim, cfg, f.warehouse, f.machines, f.rec); err != nil {
		return nil, err
	}
	f.orders = NewOrderGenerator(f.sim, cfg.OrderArrival, f.line.Pending, f.rec)
	f.dispatcher = NewLorryDispatcher(f.sim, cfg.Logistics, f.line.Finished, f.rec)
	return f, nil
}

// RunID returns the unique identifier of this run.
func (f *Simulation) RunID() string {
	return f.runID
}

// Run starts every process, drives the scheduler to the configured horizon and returns the
// recorded data. Processes still suspended at the horizon are abandoned. A second call returns
// sim.ErrAlreadyRun.
func (f *Simulation) Run() (*Result, error) {
	if f.ran {
		return nil, errors.WithStack(sim.ErrAlreadyRun)
	}
	f.ran = true
	horizon := f.cfg.Simulation.DurationHours
	logrus.Infof("Starting simulation %s for %.2f hours (seed %d)", f.runID, horizon, f.cfg.Simulation.RandomSeed)

	f.sim.Spawn("order_arrival", f.orders.Run)
	f.sim.Spawn("stage_A", f.line.StageA)
	f.sim.Spawn("stage_B", f.line.StageB)
	f.sim.Spawn("stage_C", f.line.StageC)
	f.sim.Spawn("warehouse_replenishment", f.warehouse.Replenish)
	f.sim.Spawn("lorry_departure", f.dispatcher.Run)
	for _, m := range f.machines {
		f.sim.Spawn(m.Name()+"/failures", m.FailureLoop)
	}

	if err := f.sim.Run(horizon); err != nil {
		return nil, errors.Wrapf(err, "running simulation %s", f.runID)
	}
	logrus.Infof("Simulation %s completed: %d events fired, %d orders generated, %d completed",
		f.runID, f.sim.Fired(), f.orders.Generated(), f.line.Completed())

	result := &Result{
		RunID:     f.runID,
		Seed:      f.cfg.Simulation.RandomSeed,
		Horizon:   horizon,
		Trace:     f.trace,
		Summary:   trace.Summarize(f.trace, horizon),
		Warehouse: f.warehouse.Stats(),
		Logistics: f.dispatcher.Stats(),
		Backlog: map[string]int{
			f.line.Pending.Name():  f.line.Pending.Len(),
			f.line.BufferAB.Name(): f.line.BufferAB.Len(),
			f.line.BufferBC.Name(): f.line.BufferBC.Len(),
			f.line.Finished.Name(): f.line.Finished.Len(),
		},
	}
	for _, m := range f.machines {
		result.Machines = append(result.Machines, m.Stats())
	}
	return result, nil
}

// Run is a convenience that builds and runs a Simulation for cfg.
func Run(cfg Config, opts ...Option) (*Result, error) {
	f, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return f.Run()
}
