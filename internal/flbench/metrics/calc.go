package metrics

import (
	"math"
	"sort"
)

// percentile computes the nearest-rank percentile of input. input need not
// be sorted; an empty input yields NaN so callers can map it to a null
// field.
func percentile(input []float64, p float64) float64 {
	if len(input) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(input))
	copy(sorted, input)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

func mean(input []float64) float64 {
	if len(input) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range input {
		sum += v
	}
	return sum / float64(len(input))
}

func standardDeviation(input []float64) float64 {
	if len(input) < 2 {
		return 0
	}
	avg := mean(input)
	var total float64
	for _, v := range input {
		total += math.Pow(v-avg, 2)
	}
	return math.Sqrt(total / float64(len(input)-1))
}
