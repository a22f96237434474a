package metrics

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestWrapper() (*Metrics, *MetricsWrapper, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	return metrics, NewWrapper(metrics), registry
}

func TestNewWrapper(t *testing.T) {
	metrics, wrapper, _ := newTestWrapper()

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.m != metrics {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestMetricsWrapper_Predictions(t *testing.T) {
	metrics, wrapper, _ := newTestWrapper()

	wrapper.PredictionsInc()
	wrapper.PredictionsInc()
	wrapper.PredictionScoreObserve(0.7)
	wrapper.PredictionLatencyObserve(0.002)
	wrapper.PredictionFailuresInc("empty_series")
	wrapper.PredictionFailuresInc("model_unavailable")
	wrapper.PredictionFailuresInc("model_unavailable")

	if v := testutil.ToFloat64(metrics.Predictions); v != 2 {
		t.Errorf("Expected 2 predictions, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.PredictionFailures.WithLabelValues("model_unavailable")); v != 2 {
		t.Errorf("Expected 2 model_unavailable failures, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.PredictionFailures.WithLabelValues("empty_series")); v != 1 {
		t.Errorf("Expected 1 empty_series failure, got %f", v)
	}
	if n := testutil.CollectAndCount(metrics.PredictionScores); n != 1 {
		t.Errorf("Expected prediction score histogram to be collected, got %d", n)
	}
}

func TestMetricsWrapper_SchemaDrift(t *testing.T) {
	metrics, wrapper, _ := newTestWrapper()

	wrapper.SchemaDriftInc(2, 0)
	wrapper.SchemaDriftInc(1, 3)

	if v := testutil.ToFloat64(metrics.SchemaDrift.WithLabelValues("missing")); v != 3 {
		t.Errorf("Expected 3 missing features, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.SchemaDrift.WithLabelValues("extra")); v != 3 {
		t.Errorf("Expected 3 extra features, got %f", v)
	}
}

func TestMetricsWrapper_ModelLifecycle(t *testing.T) {
	metrics, wrapper, _ := newTestWrapper()

	wrapper.ModelLoadedSet(true)
	wrapper.ModelAgeSet(3600)
	wrapper.ModelReloadsInc(true)
	wrapper.ModelReloadsInc(false)

	if v := testutil.ToFloat64(metrics.ModelLoaded); v != 1 {
		t.Errorf("Expected model loaded gauge 1, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.ModelAge); v != 3600 {
		t.Errorf("Expected model age 3600, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.ModelReloads.WithLabelValues("failure")); v != 1 {
		t.Errorf("Expected 1 failed reload, got %f", v)
	}

	wrapper.ModelLoadedSet(false)
	if v := testutil.ToFloat64(metrics.ModelLoaded); v != 0 {
		t.Errorf("Expected model loaded gauge 0, got %f", v)
	}
}

func TestMetricsWrapper_Training(t *testing.T) {
	metrics, wrapper, _ := newTestWrapper()

	wrapper.TrainingRunsInc("trained")
	wrapper.TrainingRunsInc("skipped")
	wrapper.TrainingDurationObserve(1.5)
	wrapper.CVScoresSet(0.8, 0.7, true)

	if v := testutil.ToFloat64(metrics.TrainingRuns.WithLabelValues("skipped")); v != 1 {
		t.Errorf("Expected 1 skipped run, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.CVROCAUC); v != 0.8 {
		t.Errorf("Expected ROC-AUC 0.8, got %f", v)
	}

	wrapper.CVScoresSet(0, 0, false)
	if v := testutil.ToFloat64(metrics.CVPRAUC); !math.IsNaN(v) {
		t.Errorf("Expected undefined PR-AUC to export NaN, got %f", v)
	}
}

func TestMetricsWrapper_Features(t *testing.T) {
	metrics, wrapper, _ := newTestWrapper()

	wrapper.FeatureErrorsInc()
	wrapper.FeatureCalcDuration(2 * time.Millisecond)
	wrapper.FeatureSampleCount(30)

	if v := testutil.ToFloat64(metrics.FeatureErrors); v != 1 {
		t.Errorf("Expected 1 feature error, got %f", v)
	}
}

func TestMetrics_GetErrorRate(t *testing.T) {
	metrics, wrapper, registry := newTestWrapper()

	if rate := metrics.GetErrorRate(registry); rate != 0 {
		t.Errorf("Expected error rate 0 with no predictions, got %f", rate)
	}

	for i := 0; i < 3; i++ {
		wrapper.PredictionsInc()
	}
	wrapper.PredictionFailuresInc("internal")

	if rate := metrics.GetErrorRate(registry); rate != 0.25 {
		t.Errorf("Expected error rate 0.25, got %f", rate)
	}
}

func TestMetricsWrapper_ConcurrentAccess(t *testing.T) {
	metrics, wrapper, _ := newTestWrapper()

	const goroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				wrapper.PredictionsInc()
				wrapper.PredictionScoreObserve(0.5)
			}
		}()
	}
	wg.Wait()

	if v := testutil.ToFloat64(metrics.Predictions); v != goroutines*perGoroutine {
		t.Errorf("Expected %d predictions, got %f", goroutines*perGoroutine, v)
	}
}

func TestMetricsWrapper_NilGuard(t *testing.T) {
	var wrapper *MetricsWrapper
	wrapper.PredictionsInc()
	wrapper.ModelLoadedSet(true)
	wrapper.CVScoresSet(1, 1, true)

	empty := NewWrapper(nil)
	empty.FeatureErrorsInc()
	empty.TrainingRunsInc("trained")
}
