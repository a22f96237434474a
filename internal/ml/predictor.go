package ml

import (
	"time"

	"burnout-risk/internal/common"
	"burnout-risk/internal/features"
	"burnout-risk/internal/scores"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the predictor
type MetricsInterface interface {
	PredictionsInc()
	PredictionFailuresInc(kind string)
	PredictionLatencyObserve(seconds float64)
	PredictionScoreObserve(probability float64)
	SchemaDriftInc(missing, extra int)
}

// Prediction is the result of scoring one user's series.
type Prediction struct {
	UserID      string          `json:"user_id"`
	Probability float64         `json:"prob_close_to_burnout"`
	Features    features.Vector `json:"features"`
	Version     string          `json:"model_version,omitempty"`
}

// Predictor scores a raw series against the artifact currently held by a
// ModelStore. It holds no mutable state of its own and is safe for
// concurrent use.
type Predictor struct {
	store   *ModelStore
	metrics MetricsInterface
	drift   *DriftDetector
}

// NewPredictor creates a predictor. metrics and drift may be nil.
func NewPredictor(store *ModelStore, metrics MetricsInterface, drift *DriftDetector) *Predictor {
	return &Predictor{store: store, metrics: metrics, drift: drift}
}

// Predict extracts features from series with the same extractor used for
// training, projects them onto the artifact's schema and returns the
// probability of the positive class.
func (p *Predictor) Predict(userID string, series []scores.ScoreRecord) (Prediction, error) {
	start := time.Now()

	pred, err := p.predict(userID, series)
	if p.metrics != nil {
		p.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
		if err != nil {
			p.metrics.PredictionFailuresInc(string(common.KindOf(err)))
		} else {
			p.metrics.PredictionsInc()
			p.metrics.PredictionScoreObserve(pred.Probability)
		}
	}
	return pred, err
}

func (p *Predictor) predict(userID string, series []scores.ScoreRecord) (Prediction, error) {
	vec, err := features.Extract(series)
	if err != nil {
		return Prediction{}, err
	}

	artifact, err := p.store.Current()
	if err != nil {
		return Prediction{}, err
	}

	row, proj := Project(vec, artifact.Features)
	if proj.Drifted() {
		log.Warn().
			Str("user_id", userID).
			Str("model_version", artifact.Version).
			Strs("missing", proj.Missing).
			Strs("extra", proj.Extra).
			Msg("Feature schema mismatch, zero-filling missing features")
		if p.metrics != nil {
			p.metrics.SchemaDriftInc(len(proj.Missing), len(proj.Extra))
		}
	}
	p.drift.Observe(artifact, row, proj)

	prob, err := artifact.PredictRow(row)
	if err != nil {
		return Prediction{}, err
	}

	return Prediction{
		UserID:      userID,
		Probability: prob,
		Features:    vec,
		Version:     artifact.Version,
	}, nil
}

// DriftReport returns the drift detector snapshot, or an empty report when
// drift tracking is disabled.
func (p *Predictor) DriftReport() DriftReport {
	if p.drift == nil {
		return DriftReport{GeneratedAt: time.Now()}
	}
	return p.drift.Report()
}
