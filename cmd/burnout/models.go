package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"burnout-risk/internal/ml"

	"github.com/spf13/cobra"
)

var since time.Duration // Window for `models runs`; zero lists every run

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect and manage registered model versions",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered versions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(func(r *ml.Registry) error {
			versions, err := r.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ACTIVE\tVERSION\tCREATED\tROWS\tROC-AUC\tPR-AUC")
			for _, v := range versions {
				active := ""
				if v.IsActive {
					active = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", active, v.Version,
					v.CreatedAt.Format(time.RFC3339), v.Rows,
					formatScore(v.Metrics.ROCAUC, v.Metrics.Defined),
					formatScore(v.Metrics.PRAUC, v.Metrics.Defined))
			}
			return tw.Flush()
		})
	},
}

var modelsActivateCmd = &cobra.Command{
	Use:   "activate VERSION",
	Short: "Activate a version and write it to the model path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(func(r *ml.Registry) error {
			if err := r.Activate(args[0]); err != nil {
				return err
			}
			a, err := r.Get(args[0])
			if err != nil {
				return err
			}
			return publish(a)
		})
	},
}

var modelsRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Activate the version registered before the active one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(func(r *ml.Registry) error {
			a, err := r.Rollback()
			if err != nil {
				return err
			}
			return publish(a)
		})
	},
}

var modelsRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recorded training runs, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(func(r *ml.Registry) error {
			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			runs, err := r.Runs(from)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tSTATUS\tVERSION\tROWS\tPOS\tNEG\tFOLDS\tROC-AUC\tPR-AUC")
			for _, run := range runs {
				scored := run.ScoredFolds > 0
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d/%d\t%s\t%s\n",
					run.Timestamp.Format(time.RFC3339), run.Status, run.Version,
					run.Rows, run.Positives, run.Negatives, run.ScoredFolds, run.Folds,
					formatScore(run.ROCAUC, scored), formatScore(run.PRAUC, scored))
			}
			return tw.Flush()
		})
	},
}

func formatScore(v float64, defined bool) string {
	if !defined {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}

func withRegistry(fn func(*ml.Registry) error) error {
	registry, store, err := openRegistry(settings)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(registry)
}

// publish writes a to the model path so a running server picks it up on
// POST /model/reload.
func publish(a *ml.Artifact) error {
	if err := a.Save(settings.ModelPath); err != nil {
		return err
	}
	fmt.Printf("Activated %s and saved it to %s\n", a.Version, settings.ModelPath)
	return nil
}

func init() {
	modelsRunsCmd.Flags().DurationVar(&since, "since", 0, "Only show runs newer than this duration (e.g. 72h)")
	modelsCmd.AddCommand(modelsListCmd, modelsActivateCmd, modelsRollbackCmd, modelsRunsCmd)
}
