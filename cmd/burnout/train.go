package main

import (
	"context"
	"fmt"
	"os"

	"burnout-risk/internal/features"
	"burnout-risk/internal/metrics"
	"burnout-risk/internal/ml"
	"burnout-risk/internal/report"
	"burnout-risk/internal/scores"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	labelsPath   string // Path to labels JSON
	featuresPath string // Train from an existing features.csv instead of scores
	noRegistry   bool   // Skip the bbolt model registry
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Build features, cross-validate and fit the burnout model",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrain(cmd.Context())
	},
}

func loadLabelsFile(path string) ([]scores.Label, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()
	return scores.LoadLabels(f)
}

func runTrain(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	wrapper := metrics.NewWrapper(metrics.New())
	reporter := report.NewReporter(settings.OutDir)

	table, err := trainingTable(ctx, wrapper, reporter)
	if err != nil {
		return err
	}

	labels, err := loadLabelsFile(labelsPath)
	if err != nil {
		return err
	}

	res, err := ml.Train(ctx, table, labels, ml.TrainOptions{
		MaxFolds: settings.MaxFolds,
		MaxIter:  settings.MaxIter,
		C:        settings.L2C,
		Workers:  settings.Workers,
		Metrics:  wrapper,
	})
	if err != nil {
		return err
	}

	if res.Status == ml.StatusTrained {
		if err := res.Artifact.Save(settings.ModelPath); err != nil {
			return err
		}
		fmt.Printf("Saved model to %s\n", settings.ModelPath)

		metricsOut, err := reporter.WriteMetrics(res)
		if err != nil {
			return err
		}
		if err := report.FormatMetrics(os.Stdout, res.Artifact); err != nil {
			return err
		}
		fmt.Printf("Saved metrics to %s\n", metricsOut)
	} else {
		log.Warn().
			Str("reason", res.Reason).
			Int("rows", res.Rows).
			Int("positives", res.Positives).
			Int("negatives", res.Negatives).
			Msg("Training skipped")
	}

	if _, err := reporter.WriteTrainingRun(report.NewTrainingRun(res, settings.ModelPath)); err != nil {
		return err
	}

	if noRegistry {
		return nil
	}
	return registerRun(res)
}

// trainingTable reads a saved feature table or builds one from scores and
// writes it to features.csv.
func trainingTable(ctx context.Context, tracker features.MetricsTracker, reporter *report.Reporter) (*features.Table, error) {
	if featuresPath != "" {
		f, err := os.Open(featuresPath)
		if err != nil {
			return nil, fmt.Errorf("open features: %w", err)
		}
		defer f.Close()
		table, err := features.ReadCSV(f)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", featuresPath).Int("users", len(table.Rows)).Msg("Feature table loaded")
		return table, nil
	}

	table, err := buildFeatureTable(ctx, tracker)
	if err != nil {
		return nil, err
	}
	out, err := reporter.WriteFeatures(table)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Saved features to %s\n", out)
	return table, nil
}

// registerRun records the run and, for trained runs, stores and activates the
// artifact in the registry. An unavailable registry is logged, not returned.
func registerRun(res *ml.TrainResult) error {
	registry, store, err := openRegistry(settings)
	if err != nil {
		// The artifact and training_run.json are already written.
		log.Warn().Err(err).Str("data_path", settings.DataPath).Str("run_id", res.ID).
			Msg("Registry unavailable, run not recorded")
		return nil
	}
	defer store.Close()

	if res.Artifact != nil {
		if err := registry.Register(res.Artifact); err != nil {
			return err
		}
		if err := registry.Activate(res.Artifact.Version); err != nil {
			return err
		}
		log.Info().Str("version", res.Artifact.Version).Msg("Model version registered and activated")
	}
	return registry.RecordRun(res)
}

func init() {
	addScoresFlags(trainCmd, false)
	trainCmd.Flags().StringVar(&featuresPath, "features", "", "Path to a features.csv written by the features command")
	trainCmd.Flags().StringVar(&labelsPath, "labels", "", "Path to labels JSON (rows of user_id, close_to_burnout)")
	trainCmd.MarkFlagsOneRequired("scores", "features")
	trainCmd.MarkFlagsMutuallyExclusive("scores", "features")
	trainCmd.Flags().BoolVar(&noRegistry, "no-registry", false, "Do not record the run in the model registry")
	_ = trainCmd.MarkFlagRequired("labels")
}
