package ml

import (
	"math"
	"testing"

	"burnout-risk/internal/common"
	"burnout-risk/internal/features"
	"burnout-risk/internal/scores"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictor_NoModel(t *testing.T) {
	metrics := &MockMetrics{}
	p := NewPredictor(NewModelStore("missing.json", nil), metrics, nil)

	_, err := p.Predict("u1", dailySeries("u1", 50, 60, 70))
	require.ErrorIs(t, err, common.ErrModelUnavailable)
	assert.True(t, common.IsRetryable(err))
	assert.Equal(t, 1, metrics.failures[string(common.KindModelUnavailable)])
}

func TestPredictor_EmptySeriesBeforeModelCheck(t *testing.T) {
	p := NewPredictor(NewModelStore("missing.json", nil), nil, nil)

	_, err := p.Predict("u1", nil)
	require.ErrorIs(t, err, common.ErrEmptySeries)
	assert.True(t, common.IsClientError(err))
}

func TestPredictor_Predict(t *testing.T) {
	store := NewModelStore("unused.json", nil)
	require.NoError(t, store.Swap(trainedArtifact(12)))

	metrics := &MockMetrics{}
	p := NewPredictor(store, metrics, nil)

	// Same shapes as synthetic users u00 (burnout) and u01 (healthy).
	declining := dailySeries("a", 80, 79, 78, 77, 76, 75, 74, 73, 72, 71)
	rising := dailySeries("b", 50, 51.5, 53, 54.5, 56, 57.5, 59, 60.5, 62, 63.5)

	pa, err := p.Predict("a", declining)
	require.NoError(t, err)
	pb, err := p.Predict("b", rising)
	require.NoError(t, err)

	assert.Equal(t, "a", pa.UserID)
	assert.GreaterOrEqual(t, pa.Probability, 0.0)
	assert.LessOrEqual(t, pa.Probability, 1.0)
	assert.Greater(t, pa.Probability, pb.Probability)
	assert.Len(t, pa.Features, len(features.Names()))
	assert.Equal(t, 2, metrics.predictions)
	assert.Len(t, metrics.predictionScores, 2)
}

func TestPredictor_SchemaSubsetAndSuperset(t *testing.T) {
	base := trainedArtifact(8)
	series := dailySeries("u", 70, 65, 72, 60)

	// Artifact knows a feature the extractor does not produce, and lacks
	// several it does.
	a := base.Clone()
	a.Features = append(a.Features[:4], "future_feature")
	a.Scaler.Mean = append(a.Scaler.Mean[:4], 0)
	a.Scaler.Scale = append(a.Scaler.Scale[:4], 1)
	a.Classifier.Coef = append(a.Classifier.Coef[:4], 0.5)
	require.NoError(t, a.Validate())

	store := NewModelStore("unused.json", nil)
	require.NoError(t, store.Swap(a))

	metrics := &MockMetrics{}
	p := NewPredictor(store, metrics, nil)

	pred, err := p.Predict("u", series)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(pred.Probability))
	assert.GreaterOrEqual(t, pred.Probability, 0.0)
	assert.LessOrEqual(t, pred.Probability, 1.0)
	assert.Equal(t, 1, metrics.driftMissing)
	assert.Equal(t, len(features.Names())-4, metrics.driftExtra)
}

func TestPredictor_SinglePoint(t *testing.T) {
	store := NewModelStore("unused.json", nil)
	require.NoError(t, store.Swap(trainedArtifact(8)))
	p := NewPredictor(store, nil, NewDriftDetector(DriftDetectionConfig{}))

	pred, err := p.Predict("u", []scores.ScoreRecord{{UserID: "u", Date: mustDate("2024-02-01"), Score: 42}})
	require.NoError(t, err)
	assert.Equal(t, 42.0, pred.Features[features.LastScore])
	assert.Equal(t, 1, p.DriftReport().Samples)
}

func TestProject(t *testing.T) {
	vec := features.Vector{"a": 1, "b": 2, "extra": 9}
	row, proj := Project(vec, []string{"b", "a", "missing"})

	assert.Equal(t, []float64{2, 1, 0}, row)
	assert.Equal(t, []string{"missing"}, proj.Missing)
	assert.Equal(t, []string{"extra"}, proj.Extra)
	assert.True(t, proj.Drifted())

	_, proj = Project(features.Vector{"a": 1}, []string{"a"})
	assert.False(t, proj.Drifted())
}
