package ml

import (
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DriftDetector compares recent prediction inputs with the training
// distribution recorded in the artifact's scaler, and counts schema
// mismatches seen during projection.
type DriftDetector struct {
	mu             sync.Mutex
	version        string
	features       []string
	baseline       Scaler
	window         [][]float64
	next           int
	filled         bool
	minSamples     int
	alertThreshold float64
	missing        map[string]int64
	extra          map[string]int64
}

// DriftAlert flags one feature whose recent mean moved away from training.
type DriftAlert struct {
	FeatureName string  `json:"feature_name"`
	Shift       float64 `json:"shift"` // in training standard deviations
	RecentMean  float64 `json:"recent_mean"`
	TrainMean   float64 `json:"train_mean"`
	Severity    string  `json:"severity"`
}

// DriftReport is a snapshot of the detector state.
type DriftReport struct {
	ModelVersion    string           `json:"model_version"`
	Samples         int              `json:"samples"`
	Alerts          []DriftAlert     `json:"alerts"`
	MissingFeatures map[string]int64 `json:"missing_features,omitempty"`
	ExtraFeatures   map[string]int64 `json:"extra_features,omitempty"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// DriftDetectionConfig configures drift detection.
type DriftDetectionConfig struct {
	WindowSize     int     `yaml:"window_size"`
	MinSamples     int     `yaml:"min_samples"`
	AlertThreshold float64 `yaml:"alert_threshold"`
}

// NewDriftDetector creates a detector. Zero config values take defaults.
func NewDriftDetector(config DriftDetectionConfig) *DriftDetector {
	dd := &DriftDetector{
		minSamples:     config.MinSamples,
		alertThreshold: config.AlertThreshold,
	}
	size := config.WindowSize
	if size <= 0 {
		size = 500
	}
	if dd.minSamples <= 0 {
		dd.minSamples = 30
	}
	if dd.alertThreshold <= 0 {
		dd.alertThreshold = 1.0
	}
	dd.window = make([][]float64, size)
	dd.reset("", nil, Scaler{})
	return dd
}

func (dd *DriftDetector) reset(version string, features []string, baseline Scaler) {
	dd.version = version
	dd.features = features
	dd.baseline = baseline
	for i := range dd.window {
		dd.window[i] = nil
	}
	dd.next = 0
	dd.filled = false
	dd.missing = make(map[string]int64)
	dd.extra = make(map[string]int64)
}

// Observe records a projected row served by artifact a. Switching to a new
// artifact version restarts the window.
func (dd *DriftDetector) Observe(a *Artifact, row []float64, proj Projection) {
	if dd == nil || a == nil {
		return
	}
	dd.mu.Lock()
	defer dd.mu.Unlock()

	if a.Version != dd.version {
		dd.reset(a.Version, a.Features, a.Scaler)
	}

	dd.window[dd.next] = append([]float64(nil), row...)
	dd.next = (dd.next + 1) % len(dd.window)
	if dd.next == 0 {
		dd.filled = true
	}

	for _, m := range proj.Missing {
		dd.missing[m]++
	}
	for _, e := range proj.Extra {
		dd.extra[e]++
	}
}

func (dd *DriftDetector) samples() int {
	if dd.filled {
		return len(dd.window)
	}
	return dd.next
}

// Report returns alerts for features whose recent mean differs from the
// training mean by more than the alert threshold, largest shift first.
func (dd *DriftDetector) Report() DriftReport {
	dd.mu.Lock()
	defer dd.mu.Unlock()

	n := dd.samples()
	report := DriftReport{
		ModelVersion:    dd.version,
		Samples:         n,
		MissingFeatures: copyCounts(dd.missing),
		ExtraFeatures:   copyCounts(dd.extra),
		GeneratedAt:     time.Now(),
	}
	if n < dd.minSamples {
		return report
	}

	col := make([]float64, n)
	for j, name := range dd.features {
		for i := 0; i < n; i++ {
			col[i] = dd.window[i][j]
		}
		recent := stat.Mean(col, nil)
		shift := (recent - dd.baseline.Mean[j]) / dd.baseline.Scale[j]
		if math.Abs(shift) <= dd.alertThreshold {
			continue
		}
		report.Alerts = append(report.Alerts, DriftAlert{
			FeatureName: name,
			Shift:       shift,
			RecentMean:  recent,
			TrainMean:   dd.baseline.Mean[j],
			Severity:    severity(math.Abs(shift), dd.alertThreshold),
		})
	}

	sort.Slice(report.Alerts, func(i, j int) bool {
		return math.Abs(report.Alerts[i].Shift) > math.Abs(report.Alerts[j].Shift)
	})
	return report
}

func severity(shift, threshold float64) string {
	switch {
	case shift > 3*threshold:
		return "high"
	case shift > 2*threshold:
		return "medium"
	default:
		return "low"
	}
}

func copyCounts(m map[string]int64) map[string]int64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
