package trace

import (
	"math"
	"sort"
)

type IntOrFloat64 interface {
	int | int64 | float64
}

// CalculatePercentile returns the p-th percentile of sorted data using linear interpolation
// between closest ranks. Returns 0 for empty data.
func CalculatePercentile[T IntOrFloat64](data []T, p float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}

	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))

	if upperIdx >= n {
		return float64(data[n-1])
	}
	if lowerIdx == upperIdx {
		return float64(data[lowerIdx])
	}
	lowerVal := float64(data[lowerIdx])
	upperVal := float64(data[upperIdx])
	return lowerVal + (upperVal-lowerVal)*(rank-float64(lowerIdx))
}

// CalculateMean returns the arithmetic mean of numbers, or 0 for an empty list.
func CalculateMean[T IntOrFloat64](numbers []T) float64 {
	if len(numbers) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, number := range numbers {
		sum += float64(number)
	}

	return sum / float64(len(numbers))
}

// Distribution summarizes a sample of durations.
type Distribution struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	P95   float64 `json:"p95"`
}

// NewDistribution computes a Distribution over values. values is sorted in place.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sort.Float64s(values)
	return Distribution{
		Count: len(values),
		Mean:  CalculateMean(values),
		Min:   values[0],
		Max:   values[len(values)-1],
		P95:   CalculatePercentile(values, 95),
	}
}
