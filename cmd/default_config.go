package cmd

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/factory-sim/factory-sim/sim/factory"
)

// configCmd prints the effective configuration as YAML
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective factory configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig(cmd)
		if err := writeConfig(cmd.OutOrStdout(), cfg); err != nil {
			logrus.Fatalf("Failed to print config: %v", err)
		}
	},
}

// loadConfig reads the configuration file (or the built-in defaults when path is empty),
// applies the CLI overrides that were explicitly set, and validates the result.
func loadConfig(path string, seedOverride *int64, horizonOverride *float64) (*factory.Config, error) {
	cfg := factory.DefaultConfig()
	if path != "" {
		loaded, err := factory.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	if seedOverride != nil {
		cfg.Simulation.RandomSeed = *seedOverride
	}
	if horizonOverride != nil {
		cfg.Simulation.DurationHours = *horizonOverride
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// mustLoadConfig loads the configuration for cmd, honoring only flags the user changed
// so file values are not overwritten by flag defaults.
func mustLoadConfig(cmd *cobra.Command) *factory.Config {
	var seedOverride *int64
	var horizonOverride *float64
	if cmd.Flags().Changed("seed") {
		seedOverride = &seed
	}
	if cmd.Flags().Changed("horizon") {
		horizonOverride = &horizon
	}
	cfg, err := loadConfig(configPath, seedOverride, horizonOverride)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func writeConfig(w io.Writer, cfg *factory.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	_, err = fmt.Fprint(w, string(data))
	return err
}
