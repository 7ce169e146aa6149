package factory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.ProductionLine.Machines, StageCount)
	assert.Equal(t, 168.0, cfg.Simulation.DurationHours)
}

func TestLoadConfig_ReadsAllSections(t *testing.T) {
	cfg, err := LoadConfig("testdata/config.yaml")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 48.0, cfg.Simulation.DurationHours)
	assert.Equal(t, int64(7), cfg.Simulation.RandomSeed)
	assert.Equal(t, 0.75, cfg.OrderArrival.InterarrivalTimeHours)
	assert.Equal(t, 80, cfg.Warehouse.ReplenishmentQuantity)
	assert.Equal(t, 5, cfg.ProductionLine.BufferABSize)
	assert.Equal(t, "Machine B", cfg.ProductionLine.Machines[1].Name)
	assert.InDelta(t, 7.0/60, cfg.ProductionLine.Machines[1].ProcessingTimeHours(), 1e-12)
	assert.Equal(t, 30, cfg.FinishedStorage.Capacity)
	assert.Equal(t, 1.5, cfg.Logistics.ReturnTripHours)
	assert.Equal(t, 0.1, cfg.Logistics.Driver.CarIssueProb)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}

func TestParseConfig_RejectsUnknownKeys(t *testing.T) {
	_, err := ParseConfig([]byte("simulation:\n  duration_hour: 10\n"))
	assert.Error(t, err)
}

func TestParseConfig_PartialLeavesZeroValues(t *testing.T) {
	cfg, err := ParseConfig([]byte("simulation:\n  duration_hours: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Simulation.DurationHours)
	// the remaining sections are absent, so validation must fail
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero duration", func(c *Config) { c.Simulation.DurationHours = 0 }},
		{"NaN duration", func(c *Config) { c.Simulation.DurationHours = math.NaN() }},
		{"negative interarrival", func(c *Config) { c.OrderArrival.InterarrivalTimeHours = -1 }},
		{"negative warehouse capacity", func(c *Config) { c.Warehouse.Capacity = -1 }},
		{"initial above capacity", func(c *Config) { c.Warehouse.InitialParts = c.Warehouse.Capacity + 1 }},
		{"negative initial parts", func(c *Config) { c.Warehouse.InitialParts = -1 }},
		{"zero replenishment interval", func(c *Config) { c.Warehouse.ReplenishmentIntervalHours = 0 }},
		{"negative replenishment quantity", func(c *Config) { c.Warehouse.ReplenishmentQuantity = -5 }},
		{"zero buffer A-B", func(c *Config) { c.ProductionLine.BufferABSize = 0 }},
		{"zero buffer B-C", func(c *Config) { c.ProductionLine.BufferBCSize = 0 }},
		{"two machines", func(c *Config) { c.ProductionLine.Machines = c.ProductionLine.Machines[:2] }},
		{"duplicate machine names", func(c *Config) { c.ProductionLine.Machines[2].Name = c.ProductionLine.Machines[0].Name }},
		{"empty machine name", func(c *Config) { c.ProductionLine.Machines[1].Name = "" }},
		{"negative processing time", func(c *Config) { c.ProductionLine.Machines[0].ProcessingTimeMinutes = -1 }},
		{"zero MTBF", func(c *Config) { c.ProductionLine.Machines[0].MTBFHours = 0 }},
		{"infinite MTTR", func(c *Config) { c.ProductionLine.Machines[0].MTTRHours = math.Inf(1) }},
		{"zero finished storage", func(c *Config) { c.FinishedStorage.Capacity = 0 }},
		{"zero lorry capacity", func(c *Config) { c.Logistics.LorryCapacity = 0 }},
		{"negative return trip", func(c *Config) { c.Logistics.ReturnTripHours = -2 }},
		{"probability above one", func(c *Config) { c.Logistics.Driver.CarIssueProb = 1.5 }},
		{"zero issue delay with issues", func(c *Config) { c.Logistics.Driver.IssueDelayHours = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ProductionLine.Machines = append([]MachineConfig(nil), cfg.ProductionLine.Machines...)
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Validate_Accepts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero-capacity warehouse", func(c *Config) { c.Warehouse.Capacity, c.Warehouse.InitialParts = 0, 0 }},
		{"zero replenishment quantity", func(c *Config) { c.Warehouse.ReplenishmentQuantity = 0 }},
		{"instant machine", func(c *Config) { c.ProductionLine.Machines[1].ProcessingTimeMinutes = 0 }},
		{"no car issues and no delay", func(c *Config) {
			c.Logistics.Driver.CarIssueProb = 0
			c.Logistics.Driver.IssueDelayHours = 0
		}},
		{"instant return trip", func(c *Config) { c.Logistics.ReturnTripHours = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.NoError(t, cfg.Validate())
		})
	}
}
