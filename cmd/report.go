package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/factory-sim/factory-sim/sim/factory"
)

var (
	accent  = lipgloss.Color("#3B82F6")
	muted   = lipgloss.Color("#666666")
	warning = lipgloss.Color("#F59E0B")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(muted).Width(32)
	warnStyle    = lipgloss.NewStyle().Foreground(warning)
)

// PrintReport writes the KPI report of a finished run.
func PrintReport(w io.Writer, result *factory.Result, elapsed time.Duration) {
	s := result.Summary
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Factory simulation %s", result.RunID)) + "\n")
	kv(&b, "Seed", fmt.Sprintf("%d", result.Seed))
	kv(&b, "Horizon", fmt.Sprintf("%.2f h", result.Horizon))
	kv(&b, "Events recorded", fmt.Sprintf("%d", s.TotalEvents))
	kv(&b, "Wall time", elapsed.Round(time.Millisecond).String())

	b.WriteString("\n" + headingStyle.Render("Orders") + "\n")
	kv(&b, "Arrived", fmt.Sprintf("%d", s.OrdersArrived))
	kv(&b, "Completed", fmt.Sprintf("%d", s.OrdersCompleted))
	kv(&b, "Throughput", fmt.Sprintf("%.3f orders/h", s.ThroughputPerHour))
	kv(&b, "Lead time (mean / p95 / max)", fmt.Sprintf("%.3f / %.3f / %.3f h", s.LeadTime.Mean, s.LeadTime.P95, s.LeadTime.Max))

	b.WriteString("\n" + headingStyle.Render("Machines") + "\n")
	for _, m := range result.Machines {
		ms := s.Machines[m.Name]
		kv(&b, m.Name, fmt.Sprintf("%d items, %.1f%% utilization, %d failures, %.2f h down",
			m.ItemsProcessed, 100*ms.Utilization, m.Failures, m.BrokenTime))
	}

	b.WriteString("\n" + headingStyle.Render("Warehouse") + "\n")
	kv(&b, "Parts retrieved", fmt.Sprintf("%d", result.Warehouse.PartsRetrieved))
	kv(&b, "Mean retrieval wait", fmt.Sprintf("%.3f h", s.MeanWarehouseWait))
	kv(&b, "Mean level", fmt.Sprintf("%.1f", s.MeanWarehouseLevel))
	kv(&b, "Replenishments", fmt.Sprintf("%d (%d parts)", result.Warehouse.Replenishments, result.Warehouse.PartsAdded))
	if result.Warehouse.FullSkips > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("  %d replenishment rounds found the warehouse full", result.Warehouse.FullSkips)) + "\n")
	}

	b.WriteString("\n" + headingStyle.Render("Logistics") + "\n")
	kv(&b, "Shipments", fmt.Sprintf("%d", result.Logistics.Shipments))
	kv(&b, "Products shipped", fmt.Sprintf("%d (%.1f per lorry)", result.Logistics.ProductsShipped, result.Logistics.MeanProductsPerShipment()))
	kv(&b, "Delay rate", fmt.Sprintf("%.1f%% (mean delay %.2f h)", 100*result.Logistics.DelayRate(), s.MeanDelay))

	b.WriteString("\n" + headingStyle.Render("Backlog at horizon") + "\n")
	names := make([]string, 0, len(result.Backlog))
	for name := range result.Backlog {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		kv(&b, name, fmt.Sprintf("%d", result.Backlog[name]))
	}

	fmt.Fprint(w, b.String())
}

func kv(b *strings.Builder, label, value string) {
	b.WriteString("  " + labelStyle.Render(label) + " " + value + "\n")
}
