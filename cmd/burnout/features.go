package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"burnout-risk/internal/common"
	"burnout-risk/internal/features"
	"burnout-risk/internal/metrics"
	"burnout-risk/internal/report"
	"burnout-risk/internal/scores"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	scoresPath string // Path to scores JSON
	userID     string // User id for rows without one
	showUser   string // Print this user's feature vector after writing the table
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Extract per-user features from a scores file into features.csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := buildFeatureTable(cmd.Context(), metrics.NewWrapper(nil))
		if err != nil {
			return err
		}
		path, err := report.NewReporter(settings.OutDir).WriteFeatures(table)
		if err != nil {
			return err
		}
		fmt.Printf("Saved features to %s\n", path)

		if showUser != "" {
			return printUserFeatures(os.Stdout, table, showUser)
		}
		return nil
	},
}

func printUserFeatures(w io.Writer, table *features.Table, id string) error {
	vec, ok := table.Lookup(id)
	if !ok {
		return fmt.Errorf("user %q has no features in the table: %w", id, common.ErrInputValidation)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"user_id": id, "features": vec})
}

func defaultUserID() string {
	if userID != "" {
		return userID
	}
	return settings.DefaultUserID
}

func loadScoresFile(path string) ([]scores.ScoreRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scores: %w", err)
	}
	defer f.Close()
	return scores.LoadScores(f, defaultUserID())
}

func buildFeatureTable(ctx context.Context, tracker features.MetricsTracker) (*features.Table, error) {
	records, err := loadScoresFile(scoresPath)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	table, err := features.BuildTable(ctx, records, features.BuildOptions{
		Workers: settings.Workers,
		Metrics: tracker,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int("records", len(records)).Int("users", len(table.Rows)).Msg("Feature table built")
	return table, nil
}

func addScoresFlags(cmd *cobra.Command, required bool) {
	cmd.Flags().StringVar(&scoresPath, "scores", "", "Path to scores JSON (rows of user_id?, date, score)")
	cmd.Flags().StringVar(&userID, "user-id", "", "User id for rows without user_id")
	if required {
		_ = cmd.MarkFlagRequired("scores")
	}
}

func init() {
	addScoresFlags(featuresCmd, true)
	featuresCmd.Flags().StringVar(&showUser, "show-user", "", "Print one user's feature vector as JSON")
}
