// Package config provides configuration loading and validation for featstat.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers     = errors.New("workers must not be negative")
	ErrInvalidRepoCount   = errors.New("repo count must not be negative")
	ErrInvalidFormat      = errors.New("invalid format")
	ErrInvalidLevel       = errors.New("invalid log level")
	ErrInvalidMaxFileSize = errors.New("invalid max file size")
	ErrInvalidAlpha       = errors.New("alpha must be in (0, 1)")
	ErrMissingPath        = errors.New("path setting must not be empty")
)

// Default configuration values.
const (
	defaultBasePath       = "./data"
	defaultResultsDir     = "res"
	defaultOutputDir      = "analyzer"
	defaultResultsFile    = "results.json"
	defaultHalsteadFile   = "halstead.json"
	defaultStatisticsFile = "statistic_tests.json"
	defaultCorrectedFile  = "corrected_statistic_tests.json"
	defaultMaxFileSize    = "64MB"
	defaultSeed           = 1
	defaultAlpha          = 0.05
)

// Config holds all configuration for featstat.
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// DataConfig locates the input tree and names the output files.
type DataConfig struct {
	BasePath       string `mapstructure:"base_path"       validate:"required"`
	ResultsDir     string `mapstructure:"results_dir"     validate:"required"`
	OutputDir      string `mapstructure:"output_dir"      validate:"required"`
	ResultsFile    string `mapstructure:"results_file"    validate:"required"`
	HalsteadFile   string `mapstructure:"halstead_file"   validate:"required"`
	StatisticsFile string `mapstructure:"statistics_file" validate:"required"`
	CorrectedFile  string `mapstructure:"corrected_file"  validate:"required"`
	Format         string `mapstructure:"format"          validate:"oneof=json yaml"`
	Compress       bool   `mapstructure:"compress"`
}

// ResultsPath is the directory holding owner/repo/*.json result files.
func (d DataConfig) ResultsPath() string {
	return filepath.Join(d.BasePath, d.ResultsDir)
}

// OutputPath is the directory receiving every aggregate and test output.
func (d DataConfig) OutputPath() string {
	return filepath.Join(d.BasePath, d.OutputDir)
}

// AnalysisConfig tunes aggregation and testing.
type AnalysisConfig struct {
	MaxFileSize    string  `mapstructure:"max_file_size"`
	RepoCount      int     `mapstructure:"repo_count"       validate:"gte=0"`
	Workers        int     `mapstructure:"workers"          validate:"gte=0"`
	Seed           uint64  `mapstructure:"seed"`
	Alpha          float64 `mapstructure:"alpha"            validate:"gt=0,lt=1"`
	SameSampleSize bool    `mapstructure:"same_sample_size"`

	// MaxFileSizeBytes is MaxFileSize parsed during Load.
	MaxFileSizeBytes uint64 `mapstructure:"-"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// SlogLevel maps the configured level to a slog level.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// TelemetryConfig holds optional trace and metric export settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	MetricsFile  string `mapstructure:"metrics_file"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
}

// Load loads configuration from file and FEATSTAT_* environment variables.
// An empty configPath searches featstat.yaml in ., ./config and /etc/featstat;
// a missing search result is not an error.
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("featstat")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/featstat")
	}

	viperCfg.SetEnvPrefix("FEATSTAT")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := Validate(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration Load produces without file or environment.
func Default() *Config {
	viperCfg := viper.New()
	setDefaults(viperCfg)

	var config Config

	// Defaults always decode and validate.
	_ = viperCfg.Unmarshal(&config)
	_ = Validate(&config)

	return &config
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("data.base_path", defaultBasePath)
	viperCfg.SetDefault("data.results_dir", defaultResultsDir)
	viperCfg.SetDefault("data.output_dir", defaultOutputDir)
	viperCfg.SetDefault("data.results_file", defaultResultsFile)
	viperCfg.SetDefault("data.halstead_file", defaultHalsteadFile)
	viperCfg.SetDefault("data.statistics_file", defaultStatisticsFile)
	viperCfg.SetDefault("data.corrected_file", defaultCorrectedFile)
	viperCfg.SetDefault("data.format", "json")
	viperCfg.SetDefault("data.compress", false)

	viperCfg.SetDefault("analysis.repo_count", 0)
	viperCfg.SetDefault("analysis.workers", 0)
	viperCfg.SetDefault("analysis.max_file_size", defaultMaxFileSize)
	viperCfg.SetDefault("analysis.same_sample_size", false)
	viperCfg.SetDefault("analysis.seed", defaultSeed)
	viperCfg.SetDefault("analysis.alpha", defaultAlpha)

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.metrics_file", "")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks config and parses derived fields. Tag violations are
// reported through the package's sentinel errors.
func Validate(config *Config) error {
	err := validate.Struct(config)
	if err != nil {
		return sentinelFor(err)
	}

	size, err := humanize.ParseBytes(config.Analysis.MaxFileSize)
	if err != nil || size == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidMaxFileSize, config.Analysis.MaxFileSize)
	}

	config.Analysis.MaxFileSizeBytes = size

	return nil
}

func sentinelFor(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]

	var sentinel error

	switch fe.StructNamespace() {
	case "Config.Analysis.Workers":
		sentinel = ErrInvalidWorkers
	case "Config.Analysis.RepoCount":
		sentinel = ErrInvalidRepoCount
	case "Config.Analysis.Alpha":
		sentinel = ErrInvalidAlpha
	case "Config.Data.Format", "Config.Logging.Format":
		sentinel = ErrInvalidFormat
	case "Config.Logging.Level":
		sentinel = ErrInvalidLevel
	default:
		sentinel = ErrMissingPath
	}

	return fmt.Errorf("%w: %s=%v", sentinel, fe.Namespace(), fe.Value())
}
