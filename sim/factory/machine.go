package factory

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/factory-sim/factory-sim/sim"
	"github.com/factory-sim/factory-sim/sim/trace"
)

// MachineStats accumulates one machine's activity over a run.
type MachineStats struct {
	Name           string  `json:"name"`
	ItemsProcessed int     `json:"items_processed"`
	BusyTime       float64 `json:"busy_time"`
	TotalWait      float64 `json:"total_wait"`
	Failures       int     `json:"failures"`
	BrokenTime     float64 `json:"broken_time"` // completed repairs only
}

// ProductionMachine is a single-slot machine with a fixed processing time and an independent
// exponential failure/repair cycle. Its state is only touched by its own work and failure
// processes.
type ProductionMachine struct {
	sim            *sim.Simulator
	name           string
	processingTime float64
	mtbf           float64
	mttr           float64

	slot     *sim.Resource
	repaired *sim.Condition
	rng      *rand.Rand
	rec      trace.Recorder

	broken bool
	stats  MachineStats
}

// NewProductionMachine creates a machine from its configuration.
func NewProductionMachine(s *sim.Simulator, cfg MachineConfig, rec trace.Recorder) (*ProductionMachine, error) {
	if cfg.MTBFHours <= 0 || cfg.MTTRHours <= 0 || cfg.ProcessingTimeMinutes < 0 {
		return nil, errors.Errorf("machine %q: invalid timing (processing=%vmin, mtbf=%vh, mttr=%vh)",
			cfg.Name, cfg.ProcessingTimeMinutes, cfg.MTBFHours, cfg.MTTRHours)
	}
	m := &ProductionMachine{
		sim:            s,
		name:           cfg.Name,
		processingTime: cfg.ProcessingTimeHours(),
		mtbf:           cfg.MTBFHours,
		mttr:           cfg.MTTRHours,
		slot:           sim.NewExclusiveResource(s, cfg.Name),
		repaired:       sim.NewCondition(s),
		rng:            s.RNG.ForSubsystem(sim.SubsystemMachine(cfg.Name)),
		rec:            rec,
		stats:          MachineStats{Name: cfg.Name},
	}
	logrus.Infof("%s initialized (processing: %vmin, MTBF: %vh, MTTR: %vh)",
		cfg.Name, cfg.ProcessingTimeMinutes, cfg.MTBFHours, cfg.MTTRHours)
	return m, nil
}

// Work runs one item through the machine on behalf of p: acquire the machine, wait out any
// breakdown, then hold it for the processing time. A breakdown that starts while an item is
// being processed does not interrupt that item.
func (m *ProductionMachine) Work(p *sim.Process, itemID int) {
	requested := m.sim.Now()

	m.slot.Use(p, func() {
		if m.broken {
			logrus.Debugf("%s is broken, item %d waits for repair", m.name, itemID)
		}
		for m.broken {
			m.repaired.Wait(p)
		}

		start := m.sim.Now()
		wait := start - requested
		p.Sleep(m.processingTime)
		end := m.sim.Now()
		elapsed := end - start

		m.stats.ItemsProcessed++
		m.stats.BusyTime += elapsed
		m.stats.TotalWait += wait

		logrus.Debugf("%s processed item %d in %.2fh (wait: %.2fh) at time %.2f", m.name, itemID, elapsed, wait, end)
		recordEvent(m.rec, end, trace.EventMachineProcessing, trace.Fields{
			"machine":         m.name,
			"item_id":         itemID,
			"start_time":      start,
			"end_time":        end,
			"processing_time": elapsed,
			"wait_time":       wait,
		})
	})
}

// FailureLoop is the failure process body: run for an exponential time to failure, break,
// stay down for an exponential repair time, then wake every acquirer waiting for the repair.
// It never returns.
func (m *ProductionMachine) FailureLoop(p *sim.Process) {
	for {
		p.Sleep(sim.Exponential(m.rng, m.mtbf))

		m.broken = true
		failedAt := m.sim.Now()
		m.stats.Failures++
		logrus.Warnf("%s failed at time %.2f", m.name, failedAt)
		recordEvent(m.rec, failedAt, trace.EventMachineFailure, trace.Fields{
			"machine":      m.name,
			"failure_time": failedAt,
		})

		downtime := sim.Exponential(m.rng, m.mttr)
		p.Sleep(downtime)

		m.broken = false
		repairedAt := m.sim.Now()
		m.stats.BrokenTime += downtime
		woken := m.repaired.Broadcast()
		logrus.Infof("%s repaired at time %.2f (downtime: %.2fh, waiting items: %d)", m.name, repairedAt, downtime, woken)
		recordEvent(m.rec, repairedAt, trace.EventMachineRepair, trace.Fields{
			"machine":     m.name,
			"repair_time": repairedAt,
			"downtime":    downtime,
		})
	}
}

// Name returns the machine name.
func (m *ProductionMachine) Name() string {
	return m.name
}

// ProcessingTime returns the fixed processing duration in hours.
func (m *ProductionMachine) ProcessingTime() float64 {
	return m.processingTime
}

// Broken reports whether the machine is currently down.
func (m *ProductionMachine) Broken() bool {
	return m.broken
}

// Stats returns the accumulated machine statistics.
func (m *ProductionMachine) Stats() MachineStats {
	return m.stats
}
