package factory

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/factory-sim/factory-sim/sim"
	"github.com/factory-sim/factory-sim/sim/trace"
)

// OrderGenerator produces a Poisson stream of customer orders with sequential ids.
type OrderGenerator struct {
	sim     *sim.Simulator
	mean    float64
	rng     *rand.Rand
	pending *sim.Queue[int]
	rec     trace.Recorder
	lastID  int
}

// NewOrderGenerator creates a generator pushing order ids onto pending.
func NewOrderGenerator(s *sim.Simulator, cfg OrderArrivalConfig, pending *sim.Queue[int], rec trace.Recorder) *OrderGenerator {
	return &OrderGenerator{
		sim:     s,
		mean:    cfg.InterarrivalTimeHours,
		rng:     s.RNG.ForSubsystem(sim.SubsystemOrders),
		pending: pending,
		rec:     rec,
	}
}

// Run is the order arrival process body. It never returns.
func (g *OrderGenerator) Run(p *sim.Process) {
	for {
		p.Sleep(sim.Exponential(g.rng, g.mean))

		g.lastID++
		now := g.sim.Now()
		logrus.Infof("Order %d arrived at time %.2f", g.lastID, now)
		recordEvent(g.rec, now, trace.EventOrderArrival, trace.Fields{
			"order_id": g.lastID,
			"time":     now,
		})

		g.pending.Put(p, g.lastID)
	}
}

// Generated returns the number of orders generated so far.
func (g *OrderGenerator) Generated() int {
	return g.lastID
}

// ProductionLine chains the three machines through capacity-bounded buffers:
// pending orders → A → buffer AB → B → buffer BC → C → finished storage.
// Each stage is served by a single worker process.
type ProductionLine struct {
	sim       *sim.Simulator
	warehouse *PartsWarehouse
	machines  [StageCount]*ProductionMachine
	rec       trace.Recorder

	Pending  *sim.Queue[int]
	BufferAB *sim.Queue[int]
	BufferBC *sim.Queue[int]
	Finished *sim.Queue[int]

	completed int
}

// NewProductionLine creates the buffers and wires them to the machines.
func NewProductionLine(s *sim.Simulator, cfg Config, warehouse *PartsWarehouse, machines []*ProductionMachine, rec trace.Recorder) (*ProductionLine, error) {
	if len(machines) != StageCount {
		return nil, errors.Errorf("production line needs %d machines, got %d", StageCount, len(machines))
	}
	l := &ProductionLine{sim: s, warehouse: warehouse, rec: rec}
	copy(l.machines[:], machines)

	var err error
	if l.Pending, err = sim.NewQueue[int](s, "pending_orders", sim.Unbounded); err != nil {
		return nil, errors.Wrap(err, "creating pending order queue")
	}
	if l.BufferAB, err = sim.NewQueue[int](s, "buffer_A_B", cfg.ProductionLine.BufferABSize); err != nil {
		return nil, errors.Wrap(err, "creating buffer A-B")
	}
	if l.BufferBC, err = sim.NewQueue[int](s, "buffer_B_C", cfg.ProductionLine.BufferBCSize); err != nil {
		return nil, errors.Wrap(err, "creating buffer B-C")
	}
	if l.Finished, err = sim.NewQueue[int](s, "finished_storage", cfg.FinishedStorage.Capacity); err != nil {
		return nil, errors.Wrap(err, "creating finished storage")
	}
	return l, nil
}

// StageA is the Machine A worker body: take an order, draw its parts, machine it, pass it on.
func (l *ProductionLine) StageA(p *sim.Process) {
	machine := l.machines[0]
	for {
		orderID := l.Pending.Get(p)

		p.Call(fmt.Sprintf("warehouse/order-%d", orderID), func(cp *sim.Process) {
			l.warehouse.GetParts(cp, PartsPerOrder)
		})
		l.work(p, machine, orderID)

		l.BufferAB.Put(p, orderID)
		l.sample(trace.MetricBufferABLevel, l.BufferAB)
	}
}

// StageB is the Machine B worker body.
func (l *ProductionLine) StageB(p *sim.Process) {
	machine := l.machines[1]
	for {
		orderID := l.BufferAB.Get(p)
		l.sample(trace.MetricBufferABLevel, l.BufferAB)

		l.work(p, machine, orderID)

		l.BufferBC.Put(p, orderID)
		l.sample(trace.MetricBufferBCLevel, l.BufferBC)
	}
}

// StageC is the Machine C worker body; an order is complete once it reaches finished storage.
func (l *ProductionLine) StageC(p *sim.Process) {
	machine := l.machines[2]
	for {
		orderID := l.BufferBC.Get(p)
		l.sample(trace.MetricBufferBCLevel, l.BufferBC)

		l.work(p, machine, orderID)

		l.Finished.Put(p, orderID)
		l.sample(trace.MetricFinishedStorageLevel, l.Finished)

		l.completed++
		now := l.sim.Now()
		logrus.Infof("Order %d completed at time %.2f", orderID, now)
		recordEvent(l.rec, now, trace.EventOrderCompleted, trace.Fields{
			"order_id": orderID,
			"time":     now,
		})
	}
}

// Completed returns the number of orders that reached finished storage.
func (l *ProductionLine) Completed() int {
	return l.completed
}

// work runs the machine's work cycle for one order as a nested process and waits for it.
func (l *ProductionLine) work(p *sim.Process, m *ProductionMachine, orderID int) {
	p.Call(fmt.Sprintf("%s/order-%d", m.Name(), orderID), func(cp *sim.Process) {
		m.Work(cp, orderID)
	})
}

func (l *ProductionLine) sample(metric string, q *sim.Queue[int]) {
	l.rec.RecordMetric(metric, float64(q.Len()), l.sim.Now())
}
