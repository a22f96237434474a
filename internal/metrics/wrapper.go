package metrics

import (
	"math"
	"time"
)

// MetricsWrapper adapts Metrics to the narrow interfaces the feature, ml and
// training packages depend on, which keeps those packages free of Prometheus
// imports. A nil wrapper or one without Metrics is a no-op.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) enabled() bool {
	return w != nil && w.m != nil
}

func (w *MetricsWrapper) PredictionsInc() {
	if w.enabled() {
		w.m.Predictions.Inc()
	}
}

func (w *MetricsWrapper) PredictionFailuresInc(kind string) {
	if w.enabled() {
		w.m.PredictionFailures.WithLabelValues(kind).Inc()
	}
}

func (w *MetricsWrapper) PredictionLatencyObserve(seconds float64) {
	if w.enabled() {
		w.m.PredictionLatency.Observe(seconds)
	}
}

func (w *MetricsWrapper) PredictionScoreObserve(probability float64) {
	if w.enabled() {
		w.m.PredictionScores.Observe(probability)
	}
}

func (w *MetricsWrapper) SchemaDriftInc(missing, extra int) {
	if !w.enabled() {
		return
	}
	w.m.SchemaDrift.WithLabelValues("missing").Add(float64(missing))
	w.m.SchemaDrift.WithLabelValues("extra").Add(float64(extra))
}

func (w *MetricsWrapper) ModelLoadedSet(loaded bool) {
	if !w.enabled() {
		return
	}
	if loaded {
		w.m.ModelLoaded.Set(1)
	} else {
		w.m.ModelLoaded.Set(0)
	}
}

func (w *MetricsWrapper) ModelAgeSet(seconds float64) {
	if w.enabled() {
		w.m.ModelAge.Set(seconds)
	}
}

func (w *MetricsWrapper) ModelReloadsInc(success bool) {
	if !w.enabled() {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	w.m.ModelReloads.WithLabelValues(result).Inc()
}

func (w *MetricsWrapper) TrainingRunsInc(status string) {
	if w.enabled() {
		w.m.TrainingRuns.WithLabelValues(status).Inc()
	}
}

func (w *MetricsWrapper) TrainingDurationObserve(seconds float64) {
	if w.enabled() {
		w.m.TrainingDuration.Observe(seconds)
	}
}

// CVScoresSet records the last run's cross-validation means. Undefined
// metrics are exported as NaN.
func (w *MetricsWrapper) CVScoresSet(rocAUC, prAUC float64, defined bool) {
	if !w.enabled() {
		return
	}
	if !defined {
		rocAUC, prAUC = math.NaN(), math.NaN()
	}
	w.m.CVROCAUC.Set(rocAUC)
	w.m.CVPRAUC.Set(prAUC)
}

func (w *MetricsWrapper) FeatureErrorsInc() {
	if w.enabled() {
		w.m.FeatureErrors.Inc()
	}
}

func (w *MetricsWrapper) FeatureCalcDuration(d time.Duration) {
	if w.enabled() {
		w.m.FeatureDuration.Observe(d.Seconds())
	}
}

func (w *MetricsWrapper) FeatureSampleCount(count int) {
	if w.enabled() {
		w.m.FeatureSamples.Observe(float64(count))
	}
}
