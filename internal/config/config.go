package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "seatekcli/internal/errors"
)

// BaseDirEnv overrides the base data directory when set.
const BaseDirEnv = "HYDROGRAPH_BASE_DIR"

// Config is the complete application configuration. It is an explicit
// value object: the engine and the renderer receive it at construction
// and there is no ambient global state.
type Config struct {
	Paths       PathsConfig       `yaml:"paths" envconfig:"PATHS"`
	Calibration CalibrationConfig `yaml:"calibration" envconfig:"CALIBRATION"`
	Chart       ChartConfig       `yaml:"chart" envconfig:"CHART"`
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
}

// PathsConfig contains the file system layout. All relative paths are
// resolved against BaseDir.
type PathsConfig struct {
	BaseDir      string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR"`
	RawDir       string `yaml:"raw_dir" envconfig:"RAW_DIR"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR"`
	OutputDir    string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	SummaryFile  string `yaml:"summary_file" envconfig:"SUMMARY_FILE"`
}

// CalibrationConfig contains the global constants of the NAVD88
// conversion. The per-location offset lives in the summary metadata.
type CalibrationConfig struct {
	OffsetA     float64 `yaml:"offset_a" envconfig:"OFFSET_A" validate:"gt=0"`
	OffsetB     float64 `yaml:"offset_b" envconfig:"OFFSET_B" validate:"gte=0"`
	ScaleFactor float64 `yaml:"scale_factor" envconfig:"SCALE_FACTOR" validate:"gt=0"`
}

// ChartConfig contains chart rendering settings.
type ChartConfig struct {
	Width  int `yaml:"width" envconfig:"WIDTH" validate:"gte=320"`
	Height int `yaml:"height" envconfig:"HEIGHT" validate:"gte=240"`
	DPI    int `yaml:"dpi" envconfig:"DPI" validate:"gt=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Load builds the configuration by layering sources over the built-in
// defaults: the optional YAML file first, then environment variables on
// top, so an explicit value always survives and env wins over file. A
// failure here is fatal to the run (KindConfig).
func Load() (*Config, error) {
	cfg := defaults()

	if configFile := findConfigFile(); configFile != "" {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, apperrors.Wrap(apperrors.KindConfig, "failed to load config file", err).WithFile(configFile)
		}
	}

	if err := envconfig.Process("SEATEK", &cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfig, "failed to load config from env", err)
	}

	cfg.applyBaseDir()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no environment or file
// overrides are present.
func Default() *Config {
	cfg := defaults()
	cfg.applyBaseDir()
	return &cfg
}

// defaults returns the fully populated built-in configuration. Overlay
// sources replace individual fields on top of this, so a later explicit
// zero is a real value, not an unset marker.
func defaults() Config {
	return Config{
		Paths: PathsConfig{
			DataDir:      "data",
			RawDir:       "data/raw",
			ProcessedDir: "data/processed",
			OutputDir:    "output/charts",
			LogsDir:      "logs",
			SummaryFile:  "Data_Summary.xlsx",
		},
		Calibration: CalibrationConfig{
			OffsetA: 1.9,
			OffsetB: 0.32,
			// Millimeters to feet in the NAVD88 datum. Kept as an exact
			// expression so the conversion stays a pure affine transform.
			ScaleFactor: 400.0 / 30.48,
		},
		Chart: ChartConfig{
			Width:  1200,
			Height: 800,
			DPI:    100,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/seatek.log",
		},
	}
}

// applyBaseDir resolves the base directory from the environment override
// or the working directory when no source set it.
func (c *Config) applyBaseDir() {
	if c.Paths.BaseDir != "" {
		return
	}
	if base := os.Getenv(BaseDirEnv); base != "" {
		c.Paths.BaseDir = base
	} else if wd, err := os.Getwd(); err == nil {
		c.Paths.BaseDir = wd
	} else {
		c.Paths.BaseDir = "."
	}
}

// Validate checks the configuration, returning a KindConfig error on the
// first violation.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.Wrap(apperrors.KindConfig, "invalid configuration", err)
	}
	if c.Calibration.OffsetA <= c.Calibration.OffsetB {
		return apperrors.New(apperrors.KindConfig,
			fmt.Sprintf("calibration offset_a (%v) must exceed offset_b (%v)", c.Calibration.OffsetA, c.Calibration.OffsetB))
	}
	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		return apperrors.New(apperrors.KindConfig, fmt.Sprintf("unknown logging output %q", c.Logging.Output))
	}
	return nil
}

// EnsureDirectories creates the directory layout if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir(), c.RawDataDir(), c.ProcessedDataDir(), c.OutputDir(), c.LogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.Wrap(apperrors.KindConfig, "failed to create directory", err).WithFile(dir)
		}
	}
	return nil
}

// DataDir returns the resolved data directory.
func (c *Config) DataDir() string { return c.resolve(c.Paths.DataDir) }

// RawDataDir returns the resolved raw-input directory containing the
// summary workbook.
func (c *Config) RawDataDir() string { return c.resolve(c.Paths.RawDir) }

// ProcessedDataDir returns the resolved directory receiving the exported
// per-unit CSV artifacts.
func (c *Config) ProcessedDataDir() string { return c.resolve(c.Paths.ProcessedDir) }

// OutputDir returns the resolved chart output root.
func (c *Config) OutputDir() string { return c.resolve(c.Paths.OutputDir) }

// LogsDir returns the resolved log directory.
func (c *Config) LogsDir() string { return c.resolve(c.Paths.LogsDir) }

// SummaryFile returns the resolved path of the metadata summary workbook.
func (c *Config) SummaryFile() string {
	if filepath.IsAbs(c.Paths.SummaryFile) {
		return c.Paths.SummaryFile
	}
	return filepath.Join(c.RawDataDir(), c.Paths.SummaryFile)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Paths.BaseDir, path)
}

// findConfigFile looks for a config file in the usual locations.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// loadFromFile overlays configuration from a YAML file onto cfg. Only
// keys present in the file are touched.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
