package main

import (
	"fmt"
	"os"
	"path/filepath"

	"burnout-risk/internal/cfg"
	"burnout-risk/internal/common"
	"burnout-risk/internal/ml"
	"burnout-risk/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Flags shared by every subcommand. Empty values keep the configured setting.
	logLevel  string // Log verbosity level
	outDir    string // Directory for features.csv, metrics.txt and training_run.json
	modelPath string // Model artifact path
	dataPath  string // Directory holding the model registry database
	jsonLogs  bool   // Emit JSON logs instead of console output

	settings cfg.Settings
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:           "burnout",
	Short:         "Burnout risk feature extraction, training and prediction",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		settings, err = cfg.Load()
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}
		applyOverrides(&settings)
		// The server logs JSON for collectors; interactive commands log to the console.
		setupLogging(settings, jsonLogs || cmd == serveCmd)
		return nil
	},
}

func applyOverrides(s *cfg.Settings) {
	if logLevel != "" {
		s.LogLevel = logLevel
	}
	if outDir != "" {
		s.OutDir = outDir
		// Paths derived from the output directory follow it unless set explicitly.
		if os.Getenv(common.EnvModelPath) == "" {
			s.ModelPath = filepath.Join(outDir, common.DefaultModelFile)
		}
		if os.Getenv(common.EnvDataPath) == "" {
			s.DataPath = outDir
		}
	}
	if modelPath != "" {
		s.ModelPath = modelPath
	}
	if dataPath != "" {
		s.DataPath = dataPath
	}
}

func setupLogging(s cfg.Settings, asJSON bool) {
	zerolog.SetGlobalLevel(s.Level())
	if !asJSON {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// openRegistry opens the model registry under the data path. Callers close the
// returned store.
func openRegistry(s cfg.Settings) (*ml.Registry, *storage.Store, error) {
	if err := os.MkdirAll(s.DataPath, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}
	store, err := storage.New(s.DataPath)
	if err != nil {
		return nil, nil, err
	}
	return ml.NewRegistry(store), store, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&outDir, "outdir", "", "Output directory (default from OUT_DIR)")
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "Model artifact path (default from MODEL_PATH)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "Registry directory (default from DATA_PATH)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit JSON logs")

	rootCmd.AddCommand(featuresCmd, trainCmd, serveCmd, predictCmd, modelsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Str("kind", string(common.KindOf(err))).Msg("Command failed")
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for errors the caller can fix by correcting the input and 1
// otherwise.
func exitCode(err error) int {
	if common.IsClientError(err) {
		return 2
	}
	return 1
}
