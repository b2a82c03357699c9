package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "seatekcli/internal/errors"
)

// chdir switches the working directory for one test so Load picks up a
// config.yaml written into a temp dir.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 1.9, cfg.Calibration.OffsetA)
	assert.Equal(t, 0.32, cfg.Calibration.OffsetB)
	assert.InDelta(t, 400.0/30.48, cfg.Calibration.ScaleFactor, 1e-12)

	assert.Equal(t, 1200, cfg.Chart.Width)
	assert.Equal(t, 800, cfg.Chart.Height)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"paths:\n"+
			"  raw_dir: inputs\n"+
			"chart:\n"+
			"  width: 640\n"+
			"logging:\n"+
			"  level: debug\n"), 0o644))
	chdir(t, dir)
	t.Setenv(BaseDirEnv, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "inputs", cfg.Paths.RawDir)
	assert.Equal(t, filepath.Join(dir, "inputs"), cfg.RawDataDir())
	assert.Equal(t, 640, cfg.Chart.Width)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 800, cfg.Chart.Height)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "data/processed", cfg.Paths.ProcessedDir)
	assert.Equal(t, 1.9, cfg.Calibration.OffsetA)
}

func TestLoadEnvWinsOverConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"chart:\n"+
			"  width: 640\n"+
			"logging:\n"+
			"  level: debug\n"), 0o644))
	chdir(t, dir)
	t.Setenv(BaseDirEnv, dir)
	t.Setenv("SEATEK_CHART_WIDTH", "720")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 720, cfg.Chart.Width)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadExplicitZeroOffsetSurvives(t *testing.T) {
	t.Setenv(BaseDirEnv, t.TempDir())
	t.Setenv("SEATEK_CALIBRATION_OFFSET_B", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Calibration.OffsetB)
	assert.Equal(t, 1.9, cfg.Calibration.OffsetA)
}

func TestLoadBaseDirEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(BaseDirEnv, dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Paths.BaseDir)
	assert.Equal(t, filepath.Join(dir, "data", "raw"), cfg.RawDataDir())
}

func TestPathResolution(t *testing.T) {
	cfg := Default()
	cfg.Paths.BaseDir = filepath.Join("base")

	assert.Equal(t, filepath.Join("base", "data"), cfg.DataDir())
	assert.Equal(t, filepath.Join("base", "data", "raw"), cfg.RawDataDir())
	assert.Equal(t, filepath.Join("base", "data", "processed"), cfg.ProcessedDataDir())
	assert.Equal(t, filepath.Join("base", "output", "charts"), cfg.OutputDir())
	assert.Equal(t, filepath.Join("base", "data", "raw", "Data_Summary.xlsx"), cfg.SummaryFile())

	cfg.Paths.OutputDir = string(filepath.Separator) + filepath.Join("abs", "charts")
	assert.Equal(t, string(filepath.Separator)+filepath.Join("abs", "charts"), cfg.OutputDir())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults pass", mutate: func(*Config) {}},
		{name: "offset_a below offset_b", mutate: func(c *Config) {
			c.Calibration.OffsetA = 0.1
			c.Calibration.OffsetB = 0.5
		}, wantErr: true},
		{name: "negative scale factor", mutate: func(c *Config) {
			c.Calibration.ScaleFactor = -1
		}, wantErr: true},
		{name: "tiny chart", mutate: func(c *Config) {
			c.Chart.Width = 10
		}, wantErr: true},
		{name: "unknown logging output", mutate: func(c *Config) {
			c.Logging.Output = "syslog"
		}, wantErr: true},
		{name: "file logging output", mutate: func(c *Config) {
			c.Logging.Output = "file"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsKind(err, apperrors.KindConfig))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := Default()
	cfg.Paths.BaseDir = t.TempDir()

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.RawDataDir())
	assert.DirExists(t, cfg.ProcessedDataDir())
	assert.DirExists(t, cfg.OutputDir())
	assert.DirExists(t, cfg.LogsDir())
}
