// Package metrics provides Prometheus metrics collection for the burnout risk
// service. It defines the prediction, model lifecycle, training and feature
// extraction metrics exposed via the Prometheus metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction metrics
	Predictions        prometheus.Counter     // Successful predictions
	PredictionFailures *prometheus.CounterVec // Failed predictions by error kind
	PredictionLatency  prometheus.Histogram   // End-to-end prediction latency in seconds
	PredictionScores   prometheus.Histogram   // Distribution of predicted probabilities
	SchemaDrift        *prometheus.CounterVec // Features zero-filled or dropped during projection

	// Model lifecycle metrics
	ModelLoaded  prometheus.Gauge       // 1 when an artifact is being served
	ModelAge     prometheus.Gauge       // Age of the served artifact in seconds
	ModelReloads *prometheus.CounterVec // Reload attempts by result

	// Training metrics
	TrainingRuns     *prometheus.CounterVec // Training runs by status
	TrainingDuration prometheus.Histogram   // Training wall time in seconds
	CVROCAUC         prometheus.Gauge       // Mean cross-validated ROC-AUC of the last run
	CVPRAUC          prometheus.Gauge       // Mean cross-validated PR-AUC of the last run

	// Feature extraction metrics
	FeatureErrors   prometheus.Counter   // Series that produced no features
	FeatureDuration prometheus.Histogram // Per-series extraction time in seconds
	FeatureSamples  prometheus.Histogram // Rows per extracted series
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "burnout_predictions_total",
			Help: "Total number of successful burnout predictions",
		}),
		PredictionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "burnout_prediction_failures_total",
			Help: "Total number of failed predictions by error kind",
		}, []string{"kind"}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "burnout_prediction_latency_seconds",
			Help:    "Prediction latency in seconds (end-to-end)",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "burnout_prediction_scores",
			Help:    "Distribution of predicted burnout probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		SchemaDrift: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "burnout_schema_drift_features_total",
			Help: "Features missing from (zero-filled) or extra to the model schema",
		}, []string{"direction"}),
		ModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "burnout_model_loaded",
			Help: "1 when a model artifact is loaded",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "burnout_model_age_seconds",
			Help: "Age of the current model artifact in seconds",
		}),
		ModelReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "burnout_model_reloads_total",
			Help: "Model reload attempts by result",
		}, []string{"result"}),
		TrainingRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "burnout_training_runs_total",
			Help: "Training runs by status",
		}, []string{"status"}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "burnout_training_duration_seconds",
			Help:    "Training wall time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		}),
		CVROCAUC: factory.NewGauge(prometheus.GaugeOpts{
			Name: "burnout_cv_roc_auc",
			Help: "Mean cross-validated ROC-AUC of the last training run",
		}),
		CVPRAUC: factory.NewGauge(prometheus.GaugeOpts{
			Name: "burnout_cv_pr_auc",
			Help: "Mean cross-validated PR-AUC of the last training run",
		}),
		FeatureErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "burnout_feature_errors_total",
			Help: "Total number of series that produced no features",
		}),
		FeatureDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "burnout_feature_duration_seconds",
			Help:    "Per-series feature extraction time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		FeatureSamples: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "burnout_feature_series_rows",
			Help:    "Number of score rows per extracted series",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// GetErrorRate returns failed predictions over all prediction attempts, or 0
// if none were recorded.
func (m *Metrics) GetErrorRate(gatherer prometheus.Gatherer) float64 {
	var ok, failed float64

	metricFamilies, err := gatherer.Gather()
	if err != nil {
		return 0
	}

	for _, mf := range metricFamilies {
		switch mf.GetName() {
		case "burnout_predictions_total":
			for _, m := range mf.Metric {
				ok += m.GetCounter().GetValue()
			}
		case "burnout_prediction_failures_total":
			for _, m := range mf.Metric {
				failed += m.GetCounter().GetValue()
			}
		}
	}

	if ok+failed == 0 {
		return 0
	}
	return failed / (ok + failed)
}
