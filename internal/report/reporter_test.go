package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"burnout-risk/internal/common"
	"burnout-risk/internal/features"
	"burnout-risk/internal/ml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArtifact(defined bool) *ml.Artifact {
	return &ml.Artifact{
		Version:    "v-test",
		CreatedAt:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Features:   []string{features.SlopeAll, features.MeanScore},
		Scaler:     ml.Scaler{Mean: []float64{0, 50}, Scale: []float64{1, 10}},
		Classifier: ml.Classifier{Coef: []float64{-1.25, 0.5}},
		Metrics: ml.Metrics{
			ROCAUC:      0.8125,
			PRAUC:       0.75,
			Defined:     defined,
			Folds:       5,
			ScoredFolds: 4,
		},
		TrainingRows: 10,
		Positives:    4,
		Negatives:    6,
	}
}

func TestFormatMetrics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatMetrics(&buf, testArtifact(true)))

	out := buf.String()
	assert.Contains(t, out, "ROC-AUC (GroupKFold mean): 0.8125\n")
	assert.Contains(t, out, "PR-AUC  (GroupKFold mean): 0.7500\n")
	assert.Contains(t, out, "Folds scored: 4 of 5")
	assert.Contains(t, out, "Features used:\n- slope_all\n- mean_score\n")
	assert.Contains(t, out, " 1. slope_all")
}

func TestFormatMetrics_Undefined(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatMetrics(&buf, testArtifact(false)))

	assert.Contains(t, buf.String(), "ROC-AUC (GroupKFold mean): n/a\n")
	assert.Contains(t, buf.String(), "PR-AUC  (GroupKFold mean): n/a\n")
}

func TestReporter_WriteFeatures(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r := NewReporter(dir)

	table := &features.Table{
		Columns: []string{features.MeanScore},
		Rows:    []features.Row{{UserID: "u1", Values: []float64{55}}},
	}
	path, err := r.WriteFeatures(table)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, common.FeaturesFile), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	back, err := features.ReadCSV(f)
	require.NoError(t, err)
	assert.Equal(t, table.Rows, back.Rows)
}

func TestReporter_SkippedRun(t *testing.T) {
	dir := t.TempDir()
	r := NewReporter(dir)

	res := &ml.TrainResult{
		ID:        "run-1",
		Status:    ml.StatusSkipped,
		Reason:    ml.ReasonInsufficientClasses,
		StartedAt: time.Now().UTC(),
		Rows:      3,
		Positives: 3,
	}

	path, err := r.WriteMetrics(res)
	require.NoError(t, err)
	assert.Empty(t, path)
	_, err = os.Stat(filepath.Join(dir, common.MetricsFile))
	assert.True(t, os.IsNotExist(err))

	path, err = r.WriteTrainingRun(NewTrainingRun(res, ""))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var run TrainingRun
	require.NoError(t, json.Unmarshal(data, &run))
	assert.Equal(t, ml.StatusSkipped, run.Status)
	assert.Equal(t, ml.ReasonInsufficientClasses, run.Reason)
	assert.Nil(t, run.Metrics)
	assert.Empty(t, run.ModelVersion)
}

func TestReporter_TrainedRun(t *testing.T) {
	dir := t.TempDir()
	r := NewReporter(dir)

	res := &ml.TrainResult{
		ID:       "run-2",
		Status:   ml.StatusTrained,
		Artifact: testArtifact(true),
		Rows:     10,
		Duration: 1500 * time.Millisecond,
	}

	_, err := r.WriteMetrics(res)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, common.MetricsFile))
	require.NoError(t, err)

	run := NewTrainingRun(res, "out/model.json")
	assert.Equal(t, "v-test", run.ModelVersion)
	assert.Equal(t, int64(1500), run.DurationMS)
	require.Len(t, run.Importance, 2)
	assert.Equal(t, features.SlopeAll, run.Importance[0].Name)
}
