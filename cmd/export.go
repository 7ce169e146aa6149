package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/factory-sim/factory-sim/sim/factory"
	"github.com/factory-sim/factory-sim/sim/trace"
)

// Export formats accepted by --export.
const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

// exportDocument is the JSON shape of an exported run.
type exportDocument struct {
	*factory.Result
	Events  []trace.EventRecord             `json:"events"`
	Metrics map[string][]trace.MetricSample `json:"metrics"`
}

// exportResults writes result to dir in every requested format. Unknown formats are
// rejected before anything is written.
func exportResults(dir string, formats []string, result *factory.Result) error {
	if len(formats) == 0 {
		return nil
	}
	for _, f := range formats {
		switch strings.ToLower(f) {
		case formatJSON, formatCSV, formatXLSX:
		default:
			return errors.Errorf("unknown export format %q (want json, csv or xlsx)", f)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating results dir %s", dir)
	}

	for _, f := range formats {
		var err error
		switch strings.ToLower(f) {
		case formatJSON:
			err = writeJSON(filepath.Join(dir, "results.json"), result)
		case formatCSV:
			if err = writeEventsCSV(filepath.Join(dir, "events.csv"), result.Trace); err == nil {
				err = writeMetricsCSV(filepath.Join(dir, "metrics.csv"), result.Trace)
			}
		case formatXLSX:
			err = writeWorkbook(filepath.Join(dir, "results.xlsx"), result)
		}
		if err != nil {
			return err
		}
		logrus.Infof("Exported %s results to %s", f, dir)
	}
	return nil
}

func writeJSON(path string, result *factory.Result) error {
	doc := exportDocument{Result: result}
	if result.Trace != nil {
		doc.Events = result.Trace.Events
		doc.Metrics = result.Trace.Metrics
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding results")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// fieldColumns returns the union of event field names, sorted, timestamp excluded.
func fieldColumns(events []trace.EventRecord) []string {
	seen := make(map[string]bool)
	for _, e := range events {
		for k := range e.Fields {
			if k != trace.FieldTimestamp {
				seen[k] = true
			}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// eventRows flattens events into a header row followed by one row per event.
func eventRows(st *trace.SimulationTrace) [][]string {
	var events []trace.EventRecord
	if st != nil {
		events = st.Events
	}
	cols := fieldColumns(events)
	rows := [][]string{append([]string{"seq", "timestamp", "event_type"}, cols...)}
	for _, e := range events {
		row := []string{strconv.Itoa(e.Seq), formatFloat(e.Timestamp), e.Type}
		for _, c := range cols {
			row = append(row, formatValue(e.Fields[c]))
		}
		rows = append(rows, row)
	}
	return rows
}

// metricRows flattens metric series into (metric, timestamp, value) rows.
func metricRows(st *trace.SimulationTrace) [][]string {
	rows := [][]string{{"metric", "timestamp", "value"}}
	if st == nil {
		return rows
	}
	for _, name := range st.MetricNames() {
		for _, s := range st.Metrics[name] {
			rows = append(rows, []string{name, formatFloat(s.Timestamp), formatFloat(s.Value)})
		}
	}
	return rows
}

func writeEventsCSV(path string, st *trace.SimulationTrace) error {
	return writeCSV(path, eventRows(st))
}

func writeMetricsCSV(path string, st *trace.SimulationTrace) error {
	return writeCSV(path, metricRows(st))
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := encodeCSV(f, rows); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}

// encodeCSV writes rows and flushes, returning the first write error.
func encodeCSV(w io.Writer, rows [][]string) error {
	return csv.NewWriter(w).WriteAll(rows)
}

// writeWorkbook writes a Summary sheet with the run KPIs plus Events and Metrics sheets.
func writeWorkbook(path string, result *factory.Result) error {
	wb := excelize.NewFile()
	defer func() {
		if err := wb.Close(); err != nil {
			logrus.Warnf("closing workbook: %v", err)
		}
	}()

	if err := wb.SetSheetName("Sheet1", "Summary"); err != nil {
		return errors.Wrap(err, "naming summary sheet")
	}
	if err := writeSheet(wb, "Summary", summaryRows(result)); err != nil {
		return err
	}
	sheets := []struct {
		name string
		rows [][]string
	}{
		{"Events", eventRows(result.Trace)},
		{"Metrics", metricRows(result.Trace)},
	}
	for _, sh := range sheets {
		if _, err := wb.NewSheet(sh.name); err != nil {
			return errors.Wrapf(err, "creating sheet %s", sh.name)
		}
		if err := writeSheet(wb, sh.name, sh.rows); err != nil {
			return err
		}
	}
	if err := wb.SaveAs(path); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}
	return nil
}

func writeSheet(wb *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "addressing cell")
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := wb.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, i+1)
		}
	}
	return nil
}

// summaryRows lists the run KPIs as (kpi, value) rows.
func summaryRows(result *factory.Result) [][]string {
	s := result.Summary
	if s == nil {
		s = trace.Summarize(result.Trace, result.Horizon)
	}
	rows := [][]string{
		{"kpi", "value"},
		{"run_id", result.RunID},
		{"seed", strconv.FormatInt(result.Seed, 10)},
		{"horizon_hours", formatFloat(result.Horizon)},
		{"orders_arrived", strconv.Itoa(s.OrdersArrived)},
		{"orders_completed", strconv.Itoa(s.OrdersCompleted)},
		{"throughput_per_hour", formatFloat(s.ThroughputPerHour)},
		{"lead_time_mean", formatFloat(s.LeadTime.Mean)},
		{"lead_time_p95", formatFloat(s.LeadTime.P95)},
		{"shipments", strconv.Itoa(s.Shipments)},
		{"products_shipped", strconv.Itoa(s.ProductsShipped)},
		{"delay_rate", formatFloat(s.DelayRate)},
		{"mean_warehouse_level", formatFloat(s.MeanWarehouseLevel)},
	}
	for _, m := range result.Machines {
		rows = append(rows,
			[]string{m.Name + " items_processed", strconv.Itoa(m.ItemsProcessed)},
			[]string{m.Name + " failures", strconv.Itoa(m.Failures)},
		)
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return formatFloat(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
