// Package report writes the training pipeline's output files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"burnout-risk/internal/common"
	"burnout-risk/internal/features"
	"burnout-risk/internal/ml"

	"github.com/rs/zerolog/log"
)

// Reporter writes run outputs into a directory
type Reporter struct {
	outputPath string
}

// NewReporter creates a new reporter
func NewReporter(outputPath string) *Reporter {
	return &Reporter{outputPath: outputPath}
}

// TrainingRun is the JSON summary written for every training run
type TrainingRun struct {
	ID               string             `json:"id"`
	Status           ml.Status          `json:"status"`
	Reason           string             `json:"reason,omitempty"`
	StartedAt        time.Time          `json:"started_at"`
	DurationMS       int64              `json:"duration_ms"`
	Rows             int                `json:"rows"`
	Positives        int                `json:"positives"`
	Negatives        int                `json:"negatives"`
	UnlabeledUsers   int                `json:"unlabeled_users"`
	FeaturelessUsers int                `json:"featureless_users"`
	ModelVersion     string             `json:"model_version,omitempty"`
	ModelPath        string             `json:"model_path,omitempty"`
	Metrics          *ml.Metrics        `json:"metrics,omitempty"`
	Importance       []ml.FeatureWeight `json:"importance,omitempty"`
}

func (r *Reporter) ensureDir() error {
	if err := os.MkdirAll(r.outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// WriteFeatures writes the feature table as CSV and returns its path
func (r *Reporter) WriteFeatures(table *features.Table) (string, error) {
	if err := r.ensureDir(); err != nil {
		return "", err
	}

	csvPath := filepath.Join(r.outputPath, common.FeaturesFile)
	file, err := os.Create(csvPath)
	if err != nil {
		return "", fmt.Errorf("failed to create feature table: %w", err)
	}
	defer file.Close()

	if err := table.WriteCSV(file); err != nil {
		return "", fmt.Errorf("failed to write feature table: %w", err)
	}

	log.Info().Str("file", csvPath).Int("rows", len(table.Rows)).Msg("Feature table written")
	return csvPath, nil
}

// WriteMetrics writes the human-readable cross-validation summary. Skipped
// runs produce no metrics file.
func (r *Reporter) WriteMetrics(res *ml.TrainResult) (string, error) {
	if res.Artifact == nil {
		return "", nil
	}
	if err := r.ensureDir(); err != nil {
		return "", err
	}

	metricsPath := filepath.Join(r.outputPath, common.MetricsFile)
	file, err := os.Create(metricsPath)
	if err != nil {
		return "", fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer file.Close()

	if err := FormatMetrics(file, res.Artifact); err != nil {
		return "", err
	}

	log.Info().Str("file", metricsPath).Msg("Metrics report generated")
	return metricsPath, nil
}

// FormatMetrics renders the metrics report for a trained artifact
func FormatMetrics(w io.Writer, a *ml.Artifact) error {
	m := a.Metrics

	roc, pr := "n/a", "n/a"
	if m.Defined {
		roc = fmt.Sprintf("%.4f", m.ROCAUC)
		pr = fmt.Sprintf("%.4f", m.PRAUC)
	}

	fmt.Fprintf(w, "ROC-AUC (GroupKFold mean): %s\n", roc)
	fmt.Fprintf(w, "PR-AUC  (GroupKFold mean): %s\n", pr)
	fmt.Fprintf(w, "Folds scored: %d of %d\n", m.ScoredFolds, m.Folds)
	fmt.Fprintf(w, "Training rows: %d (%d positive, %d negative)\n", a.TrainingRows, a.Positives, a.Negatives)
	fmt.Fprintf(w, "Model version: %s\n", a.Version)

	fmt.Fprintf(w, "\nFeatures used:\n")
	for _, f := range a.Features {
		fmt.Fprintf(w, "- %s\n", f)
	}

	fmt.Fprintf(w, "\nStandardized coefficients:\n")
	for _, fw := range ml.Importance(a) {
		if _, err := fmt.Fprintf(w, "%2d. %-22s %+.4f\n", fw.Rank, fw.Name, fw.Coefficient); err != nil {
			return err
		}
	}
	return nil
}

// NewTrainingRun summarises a training result for the JSON report
func NewTrainingRun(res *ml.TrainResult, modelPath string) TrainingRun {
	run := TrainingRun{
		ID:               res.ID,
		Status:           res.Status,
		Reason:           res.Reason,
		StartedAt:        res.StartedAt,
		DurationMS:       res.Duration.Milliseconds(),
		Rows:             res.Rows,
		Positives:        res.Positives,
		Negatives:        res.Negatives,
		UnlabeledUsers:   res.UnlabeledUsers,
		FeaturelessUsers: res.FeaturelessUsers,
	}
	if res.Artifact != nil {
		m := res.Artifact.Metrics
		run.ModelVersion = res.Artifact.Version
		run.ModelPath = modelPath
		run.Metrics = &m
		run.Importance = ml.Importance(res.Artifact)
	}
	return run
}

// WriteTrainingRun writes the JSON summary of a run, skipped runs included
func (r *Reporter) WriteTrainingRun(run TrainingRun) (string, error) {
	if err := r.ensureDir(); err != nil {
		return "", err
	}

	jsonPath := filepath.Join(r.outputPath, common.TrainingRunFile)
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal training run: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write training run: %w", err)
	}

	log.Info().Str("file", jsonPath).Str("status", string(run.Status)).Msg("Training run report generated")
	return jsonPath, nil
}
