package factory

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/factory-sim/factory-sim/sim"
	"github.com/factory-sim/factory-sim/sim/trace"
)

// WarehouseStats accumulates warehouse activity over a run.
type WarehouseStats struct {
	Retrievals     int     `json:"retrievals"`
	PartsRetrieved int     `json:"parts_retrieved"`
	TotalWait      float64 `json:"total_wait"`
	Replenishments int     `json:"replenishments"`
	PartsAdded     int     `json:"parts_added"`
	FullSkips      int     `json:"full_skips"` // replenishment rounds that found no room
}

// PartsWarehouse is the quantity-bounded parts stock feeding Machine A.
type PartsWarehouse struct {
	sim      *sim.Simulator
	parts    *sim.Container
	interval float64
	quantity int
	rec      trace.Recorder
	stats    WarehouseStats
}

// NewPartsWarehouse creates the warehouse and records its initial level.
func NewPartsWarehouse(s *sim.Simulator, cfg WarehouseConfig, rec trace.Recorder) (*PartsWarehouse, error) {
	parts, err := sim.NewContainer(s, "parts_warehouse", cfg.Capacity, cfg.InitialParts)
	if err != nil {
		return nil, errors.Wrap(err, "creating parts warehouse")
	}
	w := &PartsWarehouse{
		sim:      s,
		parts:    parts,
		interval: cfg.ReplenishmentIntervalHours,
		quantity: cfg.ReplenishmentQuantity,
		rec:      rec,
	}
	logrus.Infof("Warehouse initialized with %d parts (capacity: %d)", cfg.InitialParts, cfg.Capacity)
	w.recordLevel()
	return w, nil
}

// GetParts suspends p until quantity parts are available and removes them.
func (w *PartsWarehouse) GetParts(p *sim.Process, quantity int) {
	start := w.sim.Now()
	w.parts.Get(p, quantity)

	now := w.sim.Now()
	wait := now - start
	level := w.parts.Level()
	w.stats.Retrievals++
	w.stats.PartsRetrieved += quantity
	w.stats.TotalWait += wait

	logrus.Debugf("Retrieved %d parts at time %.2f (wait: %.2fh, remaining: %d)", quantity, now, wait, level)
	recordEvent(w.rec, now, trace.EventWarehouseGet, trace.Fields{
		"time":            now,
		"quantity":        quantity,
		"wait_time":       wait,
		"remaining_parts": level,
	})
	w.recordLevel()
}

// Replenish is the replenishment process body: every interval it tops the stock up by
// min(quantity, free space), possibly zero, and records the round. It never returns.
func (w *PartsWarehouse) Replenish(p *sim.Process) {
	for {
		p.Sleep(w.interval)

		current := w.parts.Level()
		toAdd := max(0, min(w.quantity, w.parts.Capacity()-current))
		if toAdd > 0 {
			w.parts.Put(p, toAdd)
		} else {
			w.stats.FullSkips++
			logrus.Warnf("Warehouse full at replenishment time %.2f", p.Now())
		}

		now := w.sim.Now()
		level := w.parts.Level()
		w.stats.Replenishments++
		w.stats.PartsAdded += toAdd

		if toAdd > 0 {
			logrus.Infof("Warehouse replenished with %d parts at time %.2f (level: %d -> %d)", toAdd, now, current, level)
		}
		recordEvent(w.rec, now, trace.EventWarehouseReplenishment, trace.Fields{
			"time":        now,
			"parts_added": toAdd,
			"new_level":   level,
		})
		w.recordLevel()
	}
}

// Level returns the current number of parts in stock.
func (w *PartsWarehouse) Level() int {
	return w.parts.Level()
}

// Capacity returns the stock capacity.
func (w *PartsWarehouse) Capacity() int {
	return w.parts.Capacity()
}

// Stats returns the accumulated warehouse statistics.
func (w *PartsWarehouse) Stats() WarehouseStats {
	return w.stats
}

func (w *PartsWarehouse) recordLevel() {
	w.rec.RecordMetric(trace.MetricWarehouseLevel, float64(w.parts.Level()), w.sim.Now())
}
