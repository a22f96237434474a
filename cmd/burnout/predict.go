package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"burnout-risk/internal/client"
	"burnout-risk/internal/common"
	"burnout-risk/internal/metrics"
	"burnout-risk/internal/ml"
	"burnout-risk/internal/scores"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var remote bool // Send the series to the running server instead of predicting locally

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score every user in a scores file",
	Long: `Score every user in a scores file and print one JSON prediction per line.

With --remote the series are posted to the server at SERVER_URL; otherwise the
artifact at the model path is loaded and scored in process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		records, err := loadScoresFile(scoresPath)
		if err != nil {
			return err
		}
		groups := scores.GroupByUser(records)

		enc := json.NewEncoder(os.Stdout)
		if remote {
			return predictRemote(ctx, groups, enc)
		}
		return predictLocal(groups, enc)
	},
}

func predictLocal(groups []scores.Group, enc *json.Encoder) error {
	store := ml.NewModelStore(settings.ModelPath, nil)
	if err := store.Load(); err != nil {
		return err
	}
	predictor := ml.NewPredictor(store, metrics.NewWrapper(nil), nil)

	for _, g := range groups {
		pred, err := predictor.Predict(g.UserID, g.Records)
		if err != nil {
			return err
		}
		if err := enc.Encode(pred); err != nil {
			return err
		}
	}
	return nil
}

func predictRemote(ctx context.Context, groups []scores.Group, enc *json.Encoder) error {
	c := client.New(settings.ServerURL, settings.RequestTimeout)

	for _, g := range groups {
		req := client.PredictRequest{UserID: g.UserID, Series: toPoints(g.Records)}
		resp, err := c.Predict(ctx, req)
		if err != nil {
			if common.IsRetryable(err) {
				log.Warn().Str("server", settings.ServerURL).Msg("Server has no model loaded; train one and POST /model/reload")
			}
			return err
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return nil
}

// toPoints keeps full timestamp precision so the server extracts the same
// features as a local prediction.
func toPoints(records []scores.ScoreRecord) []client.Point {
	points := make([]client.Point, 0, len(records))
	for _, r := range records {
		points = append(points, client.Point{Date: r.Date.Format(time.RFC3339Nano), Score: r.Score})
	}
	return points
}

func init() {
	addScoresFlags(predictCmd, true)
	predictCmd.Flags().BoolVar(&remote, "remote", false, "Predict through the HTTP server at SERVER_URL")
}
