package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the master seed of a factory run. The same key and configuration replay
// the same event log.
type SimulationKey int64

// NewSimulationKey wraps a --seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// Stream names. Each entity draws from its own stream so that, say, a longer repair on
// Machine B never changes when the next order arrives.
const (
	// SubsystemOrders drives order interarrival gaps. It is seeded with the key itself.
	SubsystemOrders = "orders"

	// SubsystemLogistics decides car issues on departure and draws their delays.
	SubsystemLogistics = "logistics"
)

// SubsystemMachine names the failure and repair stream of the machine called name.
func SubsystemMachine(name string) string {
	return "machine_" + name
}

// PartitionedRNG hands out one *rand.Rand per named stream, all derived from a single key.
// The orders stream uses the key unchanged; every other stream uses key XOR FNV-1a(name).
// It is not safe for concurrent use, which is fine because only the running process draws.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG returns a PartitionedRNG with no streams opened yet.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, streams: make(map[string]*rand.Rand)}
}

// ForSubsystem returns the stream called name, opening it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	rng, ok := p.streams[name]
	if !ok {
		rng = rand.New(rand.NewSource(p.seedFor(name)))
		p.streams[name] = rng
	}
	return rng
}

func (p *PartitionedRNG) seedFor(name string) int64 {
	if name == SubsystemOrders {
		return int64(p.key)
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(p.key) ^ int64(h.Sum64())
}

// Key returns the master seed.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// Exponential draws an exponentially distributed duration with the given mean.
func Exponential(rng *rand.Rand, mean float64) float64 {
	return rng.ExpFloat64() * mean
}
