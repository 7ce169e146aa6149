package factory

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PartsPerOrder is the number of warehouse parts Machine A consumes per order.
const PartsPerOrder = 1

// StageCount is the number of machines in the production line.
const StageCount = 3

// Config is the full parameter set of a factory run, laid out like config.yaml.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Simulation      SimulationConfig      `yaml:"simulation"`
	OrderArrival    OrderArrivalConfig    `yaml:"order_arrival"`
	Warehouse       WarehouseConfig       `yaml:"parts_warehouse"`
	ProductionLine  ProductionLineConfig  `yaml:"production_line"`
	FinishedStorage FinishedStorageConfig `yaml:"finished_storage"`
	Logistics       LogisticsConfig       `yaml:"logistics"`
}

// SimulationConfig controls the run itself.
type SimulationConfig struct {
	DurationHours float64 `yaml:"duration_hours"`
	RandomSeed    int64   `yaml:"random_seed"`
}

// OrderArrivalConfig parameterizes the Poisson order stream.
type OrderArrivalConfig struct {
	InterarrivalTimeHours float64 `yaml:"interarrival_time_hours"` // mean of the exponential interarrival time
}

// WarehouseConfig parameterizes the parts warehouse and its periodic replenishment.
type WarehouseConfig struct {
	InitialParts               int     `yaml:"initial_parts"`
	Capacity                   int     `yaml:"capacity"`
	ReplenishmentIntervalHours float64 `yaml:"replenishment_interval_hours"`
	ReplenishmentQuantity      int     `yaml:"replenishment_quantity"`
}

// ProductionLineConfig describes the three machines and the buffers between them.
type ProductionLineConfig struct {
	BufferABSize int             `yaml:"buffer_A_B_size"`
	BufferBCSize int             `yaml:"buffer_B_C_size"`
	Machines     []MachineConfig `yaml:"machines"`
}

// MachineConfig describes one production machine.
type MachineConfig struct {
	Name                  string  `yaml:"name"`
	ProcessingTimeMinutes float64 `yaml:"processing_time_minutes"`
	MTBFHours             float64 `yaml:"mtbf_hours"`
	MTTRHours             float64 `yaml:"mttr_hours"`
}

// ProcessingTimeHours returns the fixed processing duration in virtual-time units.
func (m MachineConfig) ProcessingTimeHours() float64 {
	return m.ProcessingTimeMinutes / 60.0
}

// FinishedStorageConfig bounds the finished-goods storage.
type FinishedStorageConfig struct {
	Capacity int `yaml:"capacity"`
}

// LogisticsConfig parameterizes the lorry dispatcher.
type LogisticsConfig struct {
	LorryCapacity   int          `yaml:"lorry_capacity"`
	ReturnTripHours float64      `yaml:"return_trip_hours"`
	Driver          DriverConfig `yaml:"driver"`
}

// DriverConfig parameterizes car incidents on departure.
type DriverConfig struct {
	CarIssueProb    float64 `yaml:"car_issue_prob"`
	IssueDelayHours float64 `yaml:"issue_delay_hours"` // mean of the exponential incident delay
}

// DefaultConfig returns the reference configuration: one week of a three-machine line.
func DefaultConfig() Config {
	return Config{
		Simulation: SimulationConfig{
			DurationHours: 168,
			RandomSeed:    42,
		},
		OrderArrival: OrderArrivalConfig{
			InterarrivalTimeHours: 0.5,
		},
		Warehouse: WarehouseConfig{
			InitialParts:               500,
			Capacity:                   1000,
			ReplenishmentIntervalHours: 24,
			ReplenishmentQuantity:      500,
		},
		ProductionLine: ProductionLineConfig{
			BufferABSize: 10,
			BufferBCSize: 10,
			Machines: []MachineConfig{
				{Name: "Machine A", ProcessingTimeMinutes: 5, MTBFHours: 10, MTTRHours: 2},
				{Name: "Machine B", ProcessingTimeMinutes: 7, MTBFHours: 15, MTTRHours: 3},
				{Name: "Machine C", ProcessingTimeMinutes: 4, MTBFHours: 12, MTTRHours: 2.5},
			},
		},
		FinishedStorage: FinishedStorageConfig{
			Capacity: 50,
		},
		Logistics: LogisticsConfig{
			LorryCapacity:   20,
			ReturnTripHours: 2,
			Driver: DriverConfig{
				CarIssueProb:    0.05,
				IssueDelayHours: 4,
			},
		},
	}
}

// LoadConfig reads and parses a YAML factory configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected. The result is not validated.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading factory config")
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration bytes with strict field checking.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "parsing factory config")
	}
	return &cfg, nil
}

// Validate checks every parameter before a run starts.
func (c *Config) Validate() error {
	if err := validateFinitePositive("simulation.duration_hours", c.Simulation.DurationHours); err != nil {
		return err
	}
	if err := validateFinitePositive("order_arrival.interarrival_time_hours", c.OrderArrival.InterarrivalTimeHours); err != nil {
		return err
	}
	if err := c.Warehouse.validate(); err != nil {
		return err
	}
	if err := c.ProductionLine.validate(); err != nil {
		return err
	}
	if c.FinishedStorage.Capacity <= 0 {
		return errors.Errorf("finished_storage.capacity must be positive, got %d", c.FinishedStorage.Capacity)
	}
	return c.Logistics.validate()
}

func (w *WarehouseConfig) validate() error {
	if w.Capacity < 0 {
		return errors.Errorf("parts_warehouse.capacity must be non-negative, got %d", w.Capacity)
	}
	if w.InitialParts < 0 || w.InitialParts > w.Capacity {
		return errors.Errorf("parts_warehouse.initial_parts must be in [0, %d], got %d", w.Capacity, w.InitialParts)
	}
	// A zero-capacity warehouse is an always-empty stock; only a real stock must fit an order.
	if w.Capacity > 0 && PartsPerOrder > w.Capacity {
		return errors.Errorf("parts_warehouse.capacity %d cannot hold the %d parts an order needs", w.Capacity, PartsPerOrder)
	}
	if err := validateFinitePositive("parts_warehouse.replenishment_interval_hours", w.ReplenishmentIntervalHours); err != nil {
		return err
	}
	if w.ReplenishmentQuantity < 0 {
		return errors.Errorf("parts_warehouse.replenishment_quantity must be non-negative, got %d", w.ReplenishmentQuantity)
	}
	return nil
}

func (p *ProductionLineConfig) validate() error {
	if p.BufferABSize <= 0 {
		return errors.Errorf("production_line.buffer_A_B_size must be positive, got %d", p.BufferABSize)
	}
	if p.BufferBCSize <= 0 {
		return errors.Errorf("production_line.buffer_B_C_size must be positive, got %d", p.BufferBCSize)
	}
	if len(p.Machines) != StageCount {
		return errors.Errorf("production_line.machines must list exactly %d machines, got %d", StageCount, len(p.Machines))
	}
	seen := make(map[string]bool)
	for i, m := range p.Machines {
		if err := m.validate(i); err != nil {
			return err
		}
		if seen[m.Name] {
			return errors.Errorf("production_line.machines[%d]: duplicate name %q", i, m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}

func (m *MachineConfig) validate(idx int) error {
	prefix := fmt.Sprintf("production_line.machines[%d]", idx)
	if m.Name == "" {
		return errors.Errorf("%s.name must not be empty", prefix)
	}
	if err := validateFiniteNonNegative(prefix+".processing_time_minutes", m.ProcessingTimeMinutes); err != nil {
		return err
	}
	if err := validateFinitePositive(prefix+".mtbf_hours", m.MTBFHours); err != nil {
		return err
	}
	return validateFinitePositive(prefix+".mttr_hours", m.MTTRHours)
}

func (l *LogisticsConfig) validate() error {
	if l.LorryCapacity <= 0 {
		return errors.Errorf("logistics.lorry_capacity must be positive, got %d", l.LorryCapacity)
	}
	if err := validateFiniteNonNegative("logistics.return_trip_hours", l.ReturnTripHours); err != nil {
		return err
	}
	p := l.Driver.CarIssueProb
	if math.IsNaN(p) || p < 0 || p > 1 {
		return errors.Errorf("logistics.driver.car_issue_prob must be in [0, 1], got %f", p)
	}
	if p > 0 {
		return validateFinitePositive("logistics.driver.issue_delay_hours", l.Driver.IssueDelayHours)
	}
	return validateFiniteNonNegative("logistics.driver.issue_delay_hours", l.Driver.IssueDelayHours)
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return errors.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return errors.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}

func validateFiniteNonNegative(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return errors.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val < 0 {
		return errors.Errorf("%s must be non-negative, got %f", name, val)
	}
	return nil
}
