package factory

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/factory-sim/factory-sim/sim"
	"github.com/factory-sim/factory-sim/sim/trace"
)

// LogisticsStats accumulates lorry activity over a run.
type LogisticsStats struct {
	Shipments       int     `json:"shipments"`
	ProductsShipped int     `json:"products_shipped"`
	Delays          int     `json:"delays"`
	TotalDelayTime  float64 `json:"total_delay_time"`
}

// MeanProductsPerShipment returns the mean batch size, or 0 before the first shipment.
func (s LogisticsStats) MeanProductsPerShipment() float64 {
	if s.Shipments == 0 {
		return 0
	}
	return float64(s.ProductsShipped) / float64(s.Shipments)
}

// DelayRate returns the fraction of shipments that suffered a car issue.
func (s LogisticsStats) DelayRate() float64 {
	if s.Shipments == 0 {
		return 0
	}
	return float64(s.Delays) / float64(s.Shipments)
}

// LorryDispatcher drains finished storage with a single lorry. It loads items one at a time
// until the lorry is full, may suffer an exponentially distributed car-issue delay, departs,
// and is unavailable for the return trip before loading the next batch.
type LorryDispatcher struct {
	sim        *sim.Simulator
	storage    *sim.Queue[int]
	capacity   int
	issueProb  float64
	issueDelay float64
	returnTrip float64
	rng        *rand.Rand
	rec        trace.Recorder
	stats      LogisticsStats
}

// NewLorryDispatcher creates a dispatcher collecting from storage.
func NewLorryDispatcher(s *sim.Simulator, cfg LogisticsConfig, storage *sim.Queue[int], rec trace.Recorder) *LorryDispatcher {
	logrus.Infof("Lorry driver initialized (capacity: %d, issue prob: %.1f%%, issue delay: %vh)",
		cfg.LorryCapacity, cfg.Driver.CarIssueProb*100, cfg.Driver.IssueDelayHours)
	return &LorryDispatcher{
		sim:        s,
		storage:    storage,
		capacity:   cfg.LorryCapacity,
		issueProb:  cfg.Driver.CarIssueProb,
		issueDelay: cfg.Driver.IssueDelayHours,
		returnTrip: cfg.ReturnTripHours,
		rng:        s.RNG.ForSubsystem(sim.SubsystemLogistics),
		rec:        rec,
	}
}

// Run is the departure process body. It never returns.
func (d *LorryDispatcher) Run(p *sim.Process) {
	for {
		batch := d.load(p)
		shipped := len(batch)
		logrus.Infof("Lorry loaded with %d products at time %.2f", shipped, d.sim.Now())

		delay := 0.0
		if d.rng.Float64() < d.issueProb {
			delay = sim.Exponential(d.rng, d.issueDelay)
			d.stats.Delays++
			d.stats.TotalDelayTime += delay

			now := d.sim.Now()
			logrus.Warnf("Car issue occurred! Delay: %.2fh at time %.2f", delay, now)
			recordEvent(d.rec, now, trace.EventCarIssue, trace.Fields{
				"time":              now,
				"delay_time":        delay,
				"products_affected": shipped,
			})
			p.Sleep(delay)
		}

		departed := d.sim.Now()
		d.stats.Shipments++
		d.stats.ProductsShipped += shipped
		logrus.Infof("Lorry departed at time %.2f with %d products (delay: %.2fh)", departed, shipped, delay)
		recordEvent(d.rec, departed, trace.EventLorryDeparture, trace.Fields{
			"departure_time":   departed,
			"products_shipped": shipped,
			"delay_time":       delay,
			"product_ids":      batch,
		})

		p.Sleep(d.returnTrip)
	}
}

// load collects items one at a time until the lorry is full, suspending on each collection
// until an item is available.
func (d *LorryDispatcher) load(p *sim.Process) []int {
	batch := make([]int, 0, d.capacity)
	for len(batch) < d.capacity {
		batch = append(batch, d.storage.Get(p))
		d.rec.RecordMetric(trace.MetricFinishedStorageLevel, float64(d.storage.Len()), d.sim.Now())
	}
	return batch
}

// Stats returns the accumulated logistics statistics.
func (d *LorryDispatcher) Stats() LogisticsStats {
	return d.stats
}
