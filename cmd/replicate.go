package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/factory-sim/factory-sim/sim/factory"
)

var (
	// CLI flags for replicate
	replications int // Number of independent runs
	parallelism  int // Maximum concurrent runs
)

// replicateCmd runs the same configuration under consecutive seeds and aggregates KPIs
var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Run independent replications and aggregate their KPIs",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig(cmd)
		if replications <= 0 {
			logrus.Fatalf("--replications must be positive, got %d", replications)
		}

		startTime := time.Now()
		results, err := runReplications(cmd.Context(), *cfg, replications, parallelism, os.Stderr)
		if err != nil {
			logrus.Fatalf("Replications failed: %v", err)
		}
		printAggregate(os.Stdout, aggregate(results), time.Since(startTime))
	},
}

func init() {
	replicateCmd.Flags().IntVar(&replications, "replications", 10, "Number of replications; replication i uses seed+i")
	replicateCmd.Flags().IntVar(&parallelism, "parallel", runtime.NumCPU(), "Maximum number of replications run concurrently")
}

// runReplications runs n copies of base, replication i seeded with base seed + i. Each run
// owns its own simulator, so runs share nothing. Results are returned in seed order.
func runReplications(ctx context.Context, base factory.Config, n, parallel int, progress io.Writer) ([]*factory.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if parallel <= 0 {
		parallel = 1
	}

	var bar *progressbar.ProgressBar
	if progress != nil {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("replications"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	results := make([]*factory.Result, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := 0; i < n; i++ {
		cfg := base
		cfg.Simulation.RandomSeed = base.Simulation.RandomSeed + int64(i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := factory.Run(cfg)
			if err != nil {
				return errors.Wrapf(err, "replication %d (seed %d)", i, cfg.Simulation.RandomSeed)
			}
			results[i] = r
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return results, nil
}

// kpiStat is the mean and sample standard deviation of one KPI across replications.
type kpiStat struct {
	Name   string
	Mean   float64
	StdDev float64
}

// replicationAggregate summarizes a set of replications.
type replicationAggregate struct {
	Replications int
	Stats        []kpiStat
}

// aggregate computes mean and sample standard deviation of the headline KPIs.
func aggregate(results []*factory.Result) replicationAggregate {
	kpis := []struct {
		name  string
		value func(*factory.Result) float64
	}{
		{"orders_completed", func(r *factory.Result) float64 { return float64(r.Summary.OrdersCompleted) }},
		{"throughput_per_hour", func(r *factory.Result) float64 { return r.Summary.ThroughputPerHour }},
		{"lead_time_mean", func(r *factory.Result) float64 { return r.Summary.LeadTime.Mean }},
		{"products_shipped", func(r *factory.Result) float64 { return float64(r.Summary.ProductsShipped) }},
		{"delay_rate", func(r *factory.Result) float64 { return r.Summary.DelayRate }},
		{"mean_warehouse_level", func(r *factory.Result) float64 { return r.Summary.MeanWarehouseLevel }},
	}

	agg := replicationAggregate{Replications: len(results)}
	for _, k := range kpis {
		values := make([]float64, len(results))
		for i, r := range results {
			values[i] = k.value(r)
		}
		mean, std := meanStdDev(values)
		agg.Stats = append(agg.Stats, kpiStat{Name: k.name, Mean: mean, StdDev: std})
	}
	return agg
}

// meanStdDev returns the mean and the sample (n-1) standard deviation; the deviation is 0
// for fewer than two values.
func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / float64(len(values)-1))
}

func printAggregate(w io.Writer, agg replicationAggregate, elapsed time.Duration) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d replications", agg.Replications)))
	for _, s := range agg.Stats {
		fmt.Fprintf(w, "  %s %12.4f ± %.4f\n", labelStyle.Render(s.Name), s.Mean, s.StdDev)
	}
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("wall time"), elapsed.Round(time.Millisecond))
}
