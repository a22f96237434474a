package ml

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"burnout-risk/internal/features"
	"burnout-risk/internal/scores"
)

// MockMetrics implements MetricsInterface, StoreMetrics and TrainingMetrics for testing
type MockMetrics struct {
	mu               sync.Mutex
	predictions      int
	failures         map[string]int
	latencySum       float64
	predictionScores []float64
	driftMissing     int
	driftExtra       int
	modelLoaded      bool
	modelAge         float64
	reloads          map[bool]int
	runs             map[string]int
	rocAUC           float64
	prAUC            float64
	cvDefined        bool
}

func (m *MockMetrics) PredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) PredictionFailuresInc(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = make(map[string]int)
	}
	m.failures[kind]++
}

func (m *MockMetrics) PredictionLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) PredictionScoreObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictionScores = append(m.predictionScores, v)
}

func (m *MockMetrics) SchemaDriftInc(missing, extra int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.driftMissing += missing
	m.driftExtra += extra
}

func (m *MockMetrics) ModelLoadedSet(loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelLoaded = loaded
}

func (m *MockMetrics) ModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

func (m *MockMetrics) ModelReloadsInc(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reloads == nil {
		m.reloads = make(map[bool]int)
	}
	m.reloads[success]++
}

func (m *MockMetrics) TrainingRunsInc(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs == nil {
		m.runs = make(map[string]int)
	}
	m.runs[status]++
}

func (m *MockMetrics) TrainingDurationObserve(float64) {}

func (m *MockMetrics) CVScoresSet(roc, pr float64, defined bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rocAUC, m.prAUC, m.cvDefined = roc, pr, defined
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// dailySeries returns one score per day starting at 2024-01-01.
func dailySeries(userID string, values ...float64) []scores.ScoreRecord {
	start := mustDate("2024-01-01")
	out := make([]scores.ScoreRecord, len(values))
	for i, v := range values {
		out[i] = scores.ScoreRecord{UserID: userID, Date: start.AddDate(0, 0, i), Score: v}
	}
	return out
}

// syntheticTable builds n users whose scores decline (burnout) or rise
// (healthy), alternating, and the matching labels.
func syntheticTable(n int) (*features.Table, []scores.Label) {
	table := &features.Table{Columns: features.Names()}
	var labels []scores.Label
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("u%02d", i)
		burnout := i%2 == 0
		values := make([]float64, 10)
		for d := range values {
			step := float64(d) * (1 + float64(i%3)*0.5)
			if burnout {
				values[d] = 80 - step
			} else {
				values[d] = 50 + step
			}
		}
		vec, err := features.Extract(dailySeries(id, values...))
		if err != nil {
			panic(err)
		}
		table.Rows = append(table.Rows, features.Row{UserID: id, Values: vec.Values()})
		labels = append(labels, scores.Label{UserID: id, CloseToBurnout: burnout})
	}
	return table, labels
}

// trainedArtifact trains on a synthetic table of n users.
func trainedArtifact(n int) *Artifact {
	table, labels := syntheticTable(n)
	res, err := Train(context.Background(), table, labels, TrainOptions{Workers: 2})
	if err != nil {
		panic(err)
	}
	return res.Artifact
}

func nan() float64 { return math.NaN() }
