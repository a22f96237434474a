package features

// Feature names. The order of names is the column order of feature tables
// and the default training schema.
const (
	CountPoints         = "count_points"
	SpanDays            = "span_days"
	MeanScore           = "mean_score"
	StdScore            = "std_score"
	MinScore            = "min_score"
	MaxScore            = "max_score"
	LastScore           = "last_score"
	LastMinusEMA7       = "last_minus_ema7"
	LastMinusEMA14      = "last_minus_ema14"
	LastMinusEMA28      = "last_minus_ema28"
	SlopeAll            = "slope_all"
	Slope14d            = "slope_14d"
	Slope28d            = "slope_28d"
	Slope56d            = "slope_56d"
	Rolling3Std         = "rolling3_std"
	RecentMean3         = "recent_mean_3"
	RecentStd3          = "recent_std_3"
	MeanChangePerDay    = "mean_change_per_day"
	MedianChangePerDay  = "median_change_per_day"
	MaxDrawdown         = "max_drawdown"
	CadenceMeanDays     = "cadence_mean_days"
	CadenceCV           = "cadence_cv"
	Last2Diff           = "last2_diff"
	Last3Diff           = "last3_diff"
	UserIDColumn        = "user_id"
	CloseToBurnoutLabel = "close_to_burnout"
)

var names = []string{
	CountPoints, SpanDays, MeanScore, StdScore, MinScore, MaxScore,
	LastScore, LastMinusEMA7, LastMinusEMA14, LastMinusEMA28,
	SlopeAll, Slope14d, Slope28d, Slope56d,
	Rolling3Std, RecentMean3, RecentStd3,
	MeanChangePerDay, MedianChangePerDay,
	MaxDrawdown, CadenceMeanDays, CadenceCV,
	Last2Diff, Last3Diff,
}

// Names returns the ordered feature schema produced by Extract.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Vector maps feature name to value. Vectors returned by Extract always hold
// every name in Names and only finite values.
type Vector map[string]float64

// Values returns the vector's values in Names order.
func (v Vector) Values() []float64 {
	out := make([]float64, len(names))
	for i, n := range names {
		out[i] = v[n]
	}
	return out
}
