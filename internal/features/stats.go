package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const nanosPerDay = 24 * 3600 * 1e9

// slope is the OLS slope of y against x. Fewer than two points, a constant y
// or a constant x all yield 0.
func slope(x, y []float64) float64 {
	if len(y) < 2 || len(x) != len(y) {
		return 0
	}
	if sampleStd(y) == 0 || stat.Variance(x, nil) == 0 {
		return 0
	}
	_, beta := stat.LinearRegression(x, y, nil, false)
	return finite(beta)
}

// ema returns the recursive exponential moving average with the given span,
// seeded with the first value.
func ema(x []float64, span int) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1)
	out[0] = x[0]
	for i := 1; i < len(x); i++ {
		out[i] = alpha*x[i] + (1-alpha)*out[i-1]
	}
	return out
}

// rollingMean is a trailing moving average over window points. Positions with
// fewer than minPeriods points are omitted.
func rollingMean(x []float64, window, minPeriods int) []float64 {
	var out []float64
	for i := range x {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		w := x[lo : i+1]
		if len(w) < minPeriods {
			continue
		}
		out = append(out, stat.Mean(w, nil))
	}
	return out
}

// maxDrawdown is the most negative difference between a value and its running
// maximum. It is 0 for an empty or non-decreasing series.
func maxDrawdown(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	peak := x[0]
	worst := 0.0
	for _, v := range x {
		if v > peak {
			peak = v
		}
		if d := v - peak; d < worst {
			worst = d
		}
	}
	return worst
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// sampleStd is the n-1 standard deviation, 0 for fewer than two values.
func sampleStd(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return math.Sqrt(stat.Variance(x, nil))
}

// popStd is the n standard deviation, 0 for fewer than two values.
func popStd(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return math.Sqrt(stat.PopVariance(x, nil))
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func minMax(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	return floats.Min(x), floats.Max(x)
}

func tail(x []float64, n int) []float64 {
	if len(x) <= n {
		return x
	}
	return x[len(x)-n:]
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
