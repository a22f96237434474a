package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"burnout-risk/internal/common"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	ModelPath      string
	DataPath       string
	OutDir         string
	DefaultUserID  string
	ServerPort     int
	ServerURL      string
	LogLevel       string
	Workers        int
	MaxFolds       int
	MaxIter        int
	L2C            float64
	RequestTimeout time.Duration
	Drift          DriftConfig
}

type DriftConfig struct {
	WindowSize     int     `yaml:"windowSize"`
	MinSamples     int     `yaml:"minSamples"`
	AlertThreshold float64 `yaml:"alertThreshold"`
}

type ConfigFile struct {
	Paths struct {
		ModelPath string `yaml:"modelPath"`
		DataPath  string `yaml:"dataPath"`
		OutDir    string `yaml:"outDir"`
	} `yaml:"paths"`

	Input struct {
		DefaultUserID string `yaml:"defaultUserID"`
	} `yaml:"input"`

	Training struct {
		Workers  int     `yaml:"workers"`
		MaxFolds int     `yaml:"maxFolds"`
		MaxIter  int     `yaml:"maxIter"`
		L2C      float64 `yaml:"l2C"`
	} `yaml:"training"`

	Server struct {
		Port           int         `yaml:"port"`
		URL            string      `yaml:"url"`
		RequestTimeout string      `yaml:"requestTimeout"`
		Drift          DriftConfig `yaml:"drift"`
	} `yaml:"server"`

	System struct {
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

// Load reads settings from the YAML file named by CONFIG_FILE, or from the
// environment when it is unset. A .env file in the working directory, if
// present, populates variables that are not already set.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to read .env: %w", err)
	}

	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	requestTimeout, err := time.ParseDuration(config.Server.RequestTimeout)
	if err != nil {
		requestTimeout, _ = time.ParseDuration(common.DefaultRequestTimeout)
	}

	outDir := getEnvOrDefault(common.EnvOutDir, orDefault(config.Paths.OutDir, common.DefaultOutDir))

	// Environment variables override the file
	settings := Settings{
		ModelPath:      getEnvOrDefault(common.EnvModelPath, orDefault(config.Paths.ModelPath, filepath.Join(outDir, common.DefaultModelFile))),
		DataPath:       getEnvOrDefault(common.EnvDataPath, orDefault(config.Paths.DataPath, outDir)),
		OutDir:         outDir,
		DefaultUserID:  getEnvOrDefault(common.EnvDefaultUserID, config.Input.DefaultUserID),
		ServerPort:     getIntFromEnvOrConfig(common.EnvServerPort, config.Server.Port, common.DefaultServerPort),
		ServerURL:      getEnvOrDefault(common.EnvServerURL, orDefault(config.Server.URL, common.DefaultServerURL)),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
		Workers:        getIntFromEnvOrConfig(common.EnvWorkers, config.Training.Workers, 0),
		MaxFolds:       getIntFromEnvOrConfig(common.EnvMaxFolds, config.Training.MaxFolds, common.DefaultMaxFolds),
		MaxIter:        getIntFromEnvOrConfig(common.EnvMaxIter, config.Training.MaxIter, common.DefaultMaxIter),
		L2C:            getFloatFromEnvOrConfig(common.EnvL2C, config.Training.L2C, common.DefaultL2C),
		RequestTimeout: getDurationOrDefault(common.EnvRequestTimeout, requestTimeout),
		Drift:          config.Server.Drift,
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	defaultTimeout, _ := time.ParseDuration(common.DefaultRequestTimeout)
	outDir := getEnvOrDefault(common.EnvOutDir, common.DefaultOutDir)

	settings := Settings{
		ModelPath:      getEnvOrDefault(common.EnvModelPath, filepath.Join(outDir, common.DefaultModelFile)),
		DataPath:       getEnvOrDefault(common.EnvDataPath, outDir),
		OutDir:         outDir,
		DefaultUserID:  os.Getenv(common.EnvDefaultUserID), // optional
		ServerPort:     getIntOrDefault(common.EnvServerPort, common.DefaultServerPort),
		ServerURL:      getEnvOrDefault(common.EnvServerURL, common.DefaultServerURL),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		Workers:        getIntOrDefault(common.EnvWorkers, 0), // 0 = NumCPU
		MaxFolds:       getIntOrDefault(common.EnvMaxFolds, common.DefaultMaxFolds),
		MaxIter:        getIntOrDefault(common.EnvMaxIter, common.DefaultMaxIter),
		L2C:            getFloatOrDefault(common.EnvL2C, common.DefaultL2C),
		RequestTimeout: getDurationOrDefault(common.EnvRequestTimeout, defaultTimeout),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// Level returns the parsed log level, falling back to info.
func (s *Settings) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func orDefault(v, defaultValue string) string {
	if v != "" {
		return v
	}
	return defaultValue
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings performs range validation of configuration values
func validateSettings(settings *Settings) error {
	// Validate paths
	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}
	if settings.OutDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if settings.ServerURL == "" {
		return fmt.Errorf("server URL cannot be empty")
	}

	// Validate time durations
	if settings.RequestTimeout < 100*time.Millisecond || settings.RequestTimeout > time.Minute {
		return fmt.Errorf("request timeout must be between 100ms and 1m, got %v", settings.RequestTimeout)
	}

	// Validate integer values
	if settings.ServerPort < common.MinServerPort || settings.ServerPort > common.MaxServerPort {
		return fmt.Errorf("server port must be between %d and %d, got %d", common.MinServerPort, common.MaxServerPort, settings.ServerPort)
	}
	if settings.Workers < 0 || settings.Workers > common.MaxWorkers {
		return fmt.Errorf("workers must be between 0 and %d, got %d", common.MaxWorkers, settings.Workers)
	}
	if settings.MaxFolds < common.MinMaxFolds || settings.MaxFolds > common.MaxMaxFolds {
		return fmt.Errorf("max folds must be between %d and %d, got %d", common.MinMaxFolds, common.MaxMaxFolds, settings.MaxFolds)
	}
	if settings.MaxIter < common.MinMaxIter || settings.MaxIter > common.MaxMaxIter {
		return fmt.Errorf("max iterations must be between %d and %d, got %d", common.MinMaxIter, common.MaxMaxIter, settings.MaxIter)
	}

	// Validate float values
	if settings.L2C <= 0 || settings.L2C > 1e6 {
		return fmt.Errorf("L2 inverse regularisation C must be in (0, 1e6], got %f", settings.L2C)
	}

	// Validate drift detection
	if settings.Drift.WindowSize < 0 || settings.Drift.MinSamples < 0 || settings.Drift.AlertThreshold < 0 {
		return fmt.Errorf("drift settings cannot be negative")
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(settings.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", settings.LogLevel)
	}

	return nil
}
