package newsletter

import (
	"math"
	"sort"
	"time"

	"hodl-digest/internal/chart"
	"hodl-digest/internal/domain"
)

// SortSnapshots returns a copy of rows ordered by CreatedAt ascending.
func SortSnapshots(rows []domain.AggregateSnapshot) []domain.AggregateSnapshot {
	sorted := make([]domain.AggregateSnapshot, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// TimeLabel renders the time of day of t in loc. Timestamps read from the store
// are naive UTC instants.
func TimeLabel(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("15:04")
}

// Downsample keeps every stride-th point so that len(series)*points stays within
// maxTotalPoints. The last point is always kept, so a series may carry one point
// past maxTotalPoints/len(series). Each series keeps at least two points, which
// means a budget below 2*len(series) is exceeded. Config rejects budgets under 8.
func Downsample(labels []string, series [][]float64, maxTotalPoints int) ([]string, [][]float64) {
	k := len(series)
	n := len(labels)
	if k == 0 || n*k <= maxTotalPoints || n <= 2 {
		return labels, series
	}

	perSeries := max(2, maxTotalPoints/k)
	stride := max(1, (n+perSeries-1)/perSeries)

	idx := make([]int, 0, n/stride+2)
	for i := 0; i < n; i += stride {
		idx = append(idx, i)
	}
	if idx[len(idx)-1] != n-1 {
		idx = append(idx, n-1)
	}

	outLabels := make([]string, len(idx))
	for j, i := range idx {
		outLabels[j] = labels[i]
	}
	outSeries := make([][]float64, k)
	for s, values := range series {
		picked := make([]float64, len(idx))
		for j, i := range idx {
			if i < len(values) {
				picked[j] = values[i]
			}
		}
		outSeries[s] = picked
	}
	return outLabels, outSeries
}

// Normalize min-max scales each series independently into 0..100.
// A constant series becomes a flat 50. Non-finite values are left out of the
// range and stay NaN.
func Normalize(series [][]float64) [][]float64 {
	out := make([][]float64, len(series))
	for s, values := range series {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range values {
			if !chart.Finite(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		scaled := make([]float64, len(values))
		span := hi - lo
		for i, v := range values {
			switch {
			case !chart.Finite(v):
				scaled[i] = math.NaN()
			case span == 0:
				scaled[i] = 50
			default:
				scaled[i] = (v - lo) / span * 100
			}
		}
		out[s] = scaled
	}
	return out
}

// TurningPoints returns the first and last index plus every interior index where
// the slope changes sign or enters/leaves a flat stretch. At most maxPoints
// indices are returned, evenly resampled when there are more.
func TurningPoints(values []float64, maxPoints int) []int {
	n := len(values)
	if n == 0 {
		return []int{}
	}

	idx := []int{0}
	for i := 1; i < n-1; i++ {
		d1 := values[i] - values[i-1]
		d2 := values[i+1] - values[i]
		if d1 == 0 && d2 == 0 {
			continue
		}
		if d1 == 0 || d2 == 0 || (d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0) {
			idx = append(idx, i)
		}
	}
	if n > 1 {
		idx = append(idx, n-1)
	}

	if maxPoints > 0 && len(idx) > maxPoints {
		picked := make([]int, 0, maxPoints)
		if maxPoints == 1 {
			picked = append(picked, idx[0])
		} else {
			step := float64(len(idx)-1) / float64(maxPoints-1)
			for k := 0; k < maxPoints; k++ {
				picked = append(picked, idx[int(math.Round(float64(k)*step))])
			}
		}
		idx = picked
	}
	return uniqueSorted(idx)
}

// Round rounds v to digits fraction digits.
func Round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

func uniqueSorted(idx []int) []int {
	sort.Ints(idx)
	out := make([]int, 0, len(idx))
	for _, v := range idx {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	return out
}
