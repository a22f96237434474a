package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"burnout-risk/internal/features"
)

// Metrics is the cross-validation summary stored with an artifact. The means
// cover only folds whose validation split holds both classes; Defined is
// false when no fold could be scored.
type Metrics struct {
	ROCAUC      float64     `json:"roc_auc"`
	PRAUC       float64     `json:"pr_auc"`
	Defined     bool        `json:"defined"`
	Folds       int         `json:"folds"`
	ScoredFolds int         `json:"scored_folds"`
	FoldScores  []FoldScore `json:"fold_scores,omitempty"`
}

// FoldScore is the validation result of one fold. NaN scores are stored as
// zero with Scored=false so the artifact stays valid JSON.
type FoldScore struct {
	Fold           int     `json:"fold"`
	TrainRows      int     `json:"train_rows"`
	ValidationRows int     `json:"validation_rows"`
	Scored         bool    `json:"scored"`
	ROCAUC         float64 `json:"roc_auc"`
	PRAUC          float64 `json:"pr_auc"`
}

// Artifact is a trained model bundle: scaler, classifier, the ordered feature
// schema and validation metrics. An Artifact is never modified after it is
// produced; ModelStore hands out shared read-only pointers.
type Artifact struct {
	Version      string     `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	Features     []string   `json:"features"`
	Scaler       Scaler     `json:"scaler"`
	Classifier   Classifier `json:"classifier"`
	Metrics      Metrics    `json:"metrics"`
	TrainingRows int        `json:"training_rows"`
	Positives    int        `json:"positives"`
	Negatives    int        `json:"negatives"`
}

// Validate checks internal consistency of the bundle.
func (a *Artifact) Validate() error {
	p := len(a.Features)
	if p == 0 {
		return fmt.Errorf("artifact has no features")
	}
	if len(a.Scaler.Mean) != p || len(a.Scaler.Scale) != p || len(a.Classifier.Coef) != p {
		return fmt.Errorf("artifact dimensions disagree: %d features, %d means, %d scales, %d coefficients",
			p, len(a.Scaler.Mean), len(a.Scaler.Scale), len(a.Classifier.Coef))
	}
	seen := make(map[string]struct{}, p)
	for _, f := range a.Features {
		if _, dup := seen[f]; dup {
			return fmt.Errorf("artifact lists feature %q twice", f)
		}
		seen[f] = struct{}{}
	}
	for j := 0; j < p; j++ {
		if a.Scaler.Scale[j] == 0 {
			return fmt.Errorf("artifact feature %q has zero scale", a.Features[j])
		}
		for _, v := range []float64{a.Scaler.Mean[j], a.Scaler.Scale[j], a.Classifier.Coef[j]} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("artifact feature %q has non-finite parameters", a.Features[j])
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (a *Artifact) Clone() *Artifact {
	c := *a
	c.Features = append([]string(nil), a.Features...)
	c.Scaler.Mean = append([]float64(nil), a.Scaler.Mean...)
	c.Scaler.Scale = append([]float64(nil), a.Scaler.Scale...)
	c.Classifier.Coef = append([]float64(nil), a.Classifier.Coef...)
	c.Metrics.FoldScores = append([]FoldScore(nil), a.Metrics.FoldScores...)
	return &c
}

// PredictRow returns the probability for a row already in schema order.
func (a *Artifact) PredictRow(row []float64) (float64, error) {
	x, err := a.Scaler.TransformRow(row)
	if err != nil {
		return 0, err
	}
	p := a.Classifier.Prob(x)
	if math.IsNaN(p) {
		return 0, fmt.Errorf("model produced NaN probability")
	}
	return math.Min(1, math.Max(0, p)), nil
}

// Projection reports schema differences found while projecting a vector.
type Projection struct {
	Missing []string `json:"missing,omitempty"`
	Extra   []string `json:"extra,omitempty"`
}

// Drifted reports whether the vector and schema disagreed.
func (p Projection) Drifted() bool {
	return len(p.Missing) > 0 || len(p.Extra) > 0
}

// Project aligns vec to schema. Features the schema names but vec lacks are
// filled with 0; features vec has but the schema does not are dropped. This
// tolerates additive schema changes between extractor and model versions at
// the cost of silently zero-filling.
func Project(vec features.Vector, schema []string) ([]float64, Projection) {
	var proj Projection
	row := make([]float64, len(schema))
	inSchema := make(map[string]struct{}, len(schema))

	for i, name := range schema {
		inSchema[name] = struct{}{}
		v, ok := vec[name]
		if !ok {
			proj.Missing = append(proj.Missing, name)
			continue
		}
		row[i] = v
	}
	for name := range vec {
		if _, ok := inSchema[name]; !ok {
			proj.Extra = append(proj.Extra, name)
		}
	}
	sort.Strings(proj.Extra)
	return row, proj
}

// Save writes the artifact as JSON, replacing path atomically.
func (a *Artifact) Save(path string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// LoadArtifact reads and validates an artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeArtifact(data)
}

// DecodeArtifact parses and validates artifact JSON.
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}
	return &a, nil
}
