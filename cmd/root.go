package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/factory-sim/factory-sim/sim/factory"
)

var (
	// CLI flags shared by every command that builds a configuration
	configPath string  // Path to the YAML factory configuration
	seed       int64   // Overrides simulation.random_seed when set
	horizon    float64 // Overrides simulation.duration_hours when set
	logLevel   string  // Log verbosity level

	// CLI flags for run
	resultsDir    string   // Directory receiving exported results
	exportFormats []string // Export formats: json, csv, xlsx
	showMetrics   bool     // Report recorder metrics through tally
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "factory-sim",
	Short: "Discrete-event simulator for a three-stage manufacturing line",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes one simulation using the configuration file and CLI overrides
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the factory simulation",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig(cmd)

		var opts []factory.Option
		var metrics *metricsCollector
		if showMetrics {
			metrics = newMetricsCollector()
			scope, closer := metrics.rootScope()
			defer func() {
				if err := closer.Close(); err != nil {
					logrus.Warnf("closing metrics scope: %v", err)
				}
				metrics.Print(os.Stdout)
			}()
			opts = append(opts, factory.WithScope(scope))
		}

		logrus.Infof("Starting simulation: horizon=%.2fh, seed=%d", cfg.Simulation.DurationHours, cfg.Simulation.RandomSeed)
		startTime := time.Now()

		result, err := factory.Run(*cfg, opts...)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		PrintReport(os.Stdout, result, time.Since(startTime))

		if err := exportResults(resultsDir, exportFormats, result); err != nil {
			logrus.Fatalf("Export failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	for _, c := range []*cobra.Command{runCmd, replicateCmd, configCmd} {
		c.Flags().StringVar(&configPath, "config", "", "Path to the YAML factory configuration (defaults to the built-in reference line)")
		c.Flags().Int64Var(&seed, "seed", 42, "Random seed (overrides simulation.random_seed)")
		c.Flags().Float64Var(&horizon, "horizon", 168, "Simulated duration in hours (overrides simulation.duration_hours)")
	}

	runCmd.Flags().StringVar(&resultsDir, "results-dir", "results", "Directory for exported results")
	runCmd.Flags().StringSliceVar(&exportFormats, "export", []string{"json"}, "Comma-separated export formats (json, csv, xlsx); empty disables export")
	runCmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print recorder metrics reported through tally")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replicateCmd)
	rootCmd.AddCommand(configCmd)
}
