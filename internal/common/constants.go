package common

// Environment variable keys
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvModelPath      = "MODEL_PATH"
	EnvDataPath       = "DATA_PATH"
	EnvOutDir         = "OUT_DIR"
	EnvDefaultUserID  = "DEFAULT_USER_ID"
	EnvServerPort     = "SERVER_PORT"
	EnvServerURL      = "SERVER_URL"
	EnvLogLevel       = "LOG_LEVEL"
	EnvWorkers        = "WORKERS"
	EnvMaxFolds       = "MAX_FOLDS"
	EnvMaxIter        = "MAX_ITER"
	EnvL2C            = "L2_C"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
)

// Configuration defaults
const (
	DefaultOutDir         = "out"
	DefaultModelFile      = "model.json"
	DefaultServerPort     = 8000
	DefaultServerURL      = "http://localhost:8000"
	DefaultLogLevel       = "info"
	DefaultMaxFolds       = 5
	DefaultMaxIter        = 1000
	DefaultL2C            = 1.0
	DefaultRequestTimeout = "5s"
)

// Output file names
const (
	FeaturesFile    = "features.csv"
	MetricsFile     = "metrics.txt"
	TrainingRunFile = "training_run.json"
	RegistryDBFile  = "burnout-models.db"
)

// Feature extraction parameters
var (
	EMASpans          = []int{7, 14, 28}
	SlopeWindowsDays  = []int{14, 28, 56}
	RollingWindow     = 3
	RollingMinPeriods = 2
	RecentTail        = 3
)

// Validation constants
const (
	MinServerPort = 1024
	MaxServerPort = 65535
	MinMaxFolds   = 2
	MaxMaxFolds   = 20
	MinMaxIter    = 10
	MaxMaxIter    = 100000
	MaxWorkers    = 256
)
