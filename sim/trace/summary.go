package trace

import "strings"

// MachineSummary aggregates the processing and failure events of one machine.
type MachineSummary struct {
	ItemsProcessed int     `json:"items_processed"`
	ProcessingTime float64 `json:"processing_time"`
	Utilization    float64 `json:"utilization"`
	MeanWait       float64 `json:"mean_wait"`
	Failures       int     `json:"failures"`
	Downtime       float64 `json:"downtime"`
}

// LevelSummary aggregates the samples of a level metric.
type LevelSummary struct {
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
}

// Summary holds the key performance indicators of a run.
type Summary struct {
	Horizon     float64        `json:"horizon"`
	TotalEvents int            `json:"total_events"`
	EventCounts map[string]int `json:"event_counts"`

	OrdersArrived     int          `json:"orders_arrived"`
	OrdersCompleted   int          `json:"orders_completed"`
	ThroughputPerHour float64      `json:"throughput_per_hour"`
	LeadTime          Distribution `json:"lead_time"`

	Machines map[string]MachineSummary `json:"machines"`

	Shipments               int     `json:"shipments"`
	ProductsShipped         int     `json:"products_shipped"`
	MeanProductsPerShipment float64 `json:"mean_products_per_shipment"`
	DelayRate               float64 `json:"delay_rate"`
	MeanDelay               float64 `json:"mean_delay"`

	MeanWarehouseWait  float64                 `json:"mean_warehouse_wait"`
	MeanWarehouseLevel float64                 `json:"mean_warehouse_level"`
	Levels             map[string]LevelSummary `json:"levels"`
}

// Summarize computes aggregate statistics from a SimulationTrace over a run of the given
// horizon. Rates and utilizations are relative to the horizon.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace, horizon float64) *Summary {
	summary := &Summary{
		Horizon:     horizon,
		EventCounts: make(map[string]int),
		Machines:    make(map[string]MachineSummary),
		Levels:      make(map[string]LevelSummary),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	arrivals := make(map[int]float64)
	var leadTimes, warehouseWaits, delays []float64
	machineWaits := make(map[string][]float64)

	for _, e := range st.Events {
		summary.EventCounts[e.Type]++
		switch e.Type {
		case EventOrderArrival:
			summary.OrdersArrived++
			if id, ok := e.Int("order_id"); ok {
				arrivals[id] = e.Timestamp
			}
		case EventOrderCompleted:
			summary.OrdersCompleted++
			if id, ok := e.Int("order_id"); ok {
				if arrived, ok := arrivals[id]; ok {
					leadTimes = append(leadTimes, e.Timestamp-arrived)
				}
			}
		case EventMachineProcessing:
			name, _ := e.String("machine")
			m := summary.Machines[name]
			m.ItemsProcessed++
			pt, _ := e.Float("processing_time")
			m.ProcessingTime += pt
			summary.Machines[name] = m
			wait, _ := e.Float("wait_time")
			machineWaits[name] = append(machineWaits[name], wait)
		case EventMachineFailure:
			name, _ := e.String("machine")
			m := summary.Machines[name]
			m.Failures++
			summary.Machines[name] = m
		case EventMachineRepair:
			name, _ := e.String("machine")
			m := summary.Machines[name]
			downtime, _ := e.Float("downtime")
			m.Downtime += downtime
			summary.Machines[name] = m
		case EventLorryDeparture:
			summary.Shipments++
			shipped, _ := e.Int("products_shipped")
			summary.ProductsShipped += shipped
			if delay, _ := e.Float("delay_time"); delay > 0 {
				delays = append(delays, delay)
			}
		case EventWarehouseGet:
			wait, _ := e.Float("wait_time")
			warehouseWaits = append(warehouseWaits, wait)
		}
	}

	if horizon > 0 {
		summary.ThroughputPerHour = float64(summary.OrdersCompleted) / horizon
	}
	summary.LeadTime = NewDistribution(leadTimes)

	for name, m := range summary.Machines {
		if horizon > 0 {
			m.Utilization = m.ProcessingTime / horizon
		}
		m.MeanWait = CalculateMean(machineWaits[name])
		summary.Machines[name] = m
	}

	if summary.Shipments > 0 {
		summary.MeanProductsPerShipment = float64(summary.ProductsShipped) / float64(summary.Shipments)
		summary.DelayRate = float64(len(delays)) / float64(summary.Shipments)
	}
	summary.MeanDelay = CalculateMean(delays)
	summary.MeanWarehouseWait = CalculateMean(warehouseWaits)

	for name, samples := range st.Metrics {
		values := make([]float64, len(samples))
		level := LevelSummary{}
		for i, s := range samples {
			values[i] = s.Value
			if s.Value > level.Max {
				level.Max = s.Value
			}
		}
		level.Mean = CalculateMean(values)
		if name == MetricWarehouseLevel {
			summary.MeanWarehouseLevel = level.Mean
		}
		if strings.HasSuffix(name, "_level") {
			summary.Levels[name] = level
		}
	}

	return summary
}
