package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idwinterp/internal/models"
	"idwinterp/pkg/interpolation"
)

// TestDefaultConfig verifies the defaults describe a runnable 2D setup
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, interpolation.DefaultPower, cfg.Interpolation.Power)
	assert.Equal(t, runtime.NumCPU(), cfg.Interpolation.Workers)
	assert.Equal(t, 2, cfg.Dims())
	assert.Len(t, cfg.Axes(), 2)
	require.NoError(t, cfg.Validate())
}

// TestLoadConfigMissingFile verifies defaults are returned for a missing file
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Samples, cfg.Samples)
}

// TestLoadConfig verifies YAML values override defaults and samples replace them
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
interpolation:
  power: 3.5
  transform: sine
  powerCandidates: [1, 2, 4]
samples:
  - position: [0, 0, 0]
    value: 1
  - position: [1, 2, 3]
    value: 4
queries:
  - [0.5, 0.5, 0.5]
grid:
  enabled: false
output:
  dir: out
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3.5, cfg.Interpolation.Power)
	assert.Equal(t, "sine", cfg.Interpolation.Transform)
	assert.Equal(t, []float64{1, 2, 4}, cfg.Interpolation.PowerCandidates)
	assert.Equal(t, runtime.NumCPU(), cfg.Interpolation.Workers)
	assert.Equal(t, []models.Sample{
		{Position: []float64{0, 0, 0}, Value: 1},
		{Position: []float64{1, 2, 3}, Value: 4},
	}, cfg.Samples)
	assert.Equal(t, [][]float64{{0.5, 0.5, 0.5}}, cfg.Queries)
	assert.False(t, cfg.Grid.Enabled)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, 3, cfg.Dims())
	require.NoError(t, cfg.Validate())
}

// TestLoadConfigMalformed verifies parse errors are reported
func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("samples: [: oops"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

// TestSaveConfigRoundTrip verifies a saved default config loads back unchanged
func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

// TestApplyEnv verifies IDW_* variables override config values
func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvPower, "0.5")
	t.Setenv(EnvWorkers, "3")
	t.Setenv(EnvOutputDir, "/tmp/idw")
	t.Setenv(EnvVerbose, "false")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, 0.5, cfg.Interpolation.Power)
	assert.Equal(t, 3, cfg.Interpolation.Workers)
	assert.Equal(t, "/tmp/idw", cfg.Output.Dir)
	assert.False(t, cfg.Output.Verbose)

	t.Setenv(EnvWorkers, "many")
	assert.Error(t, cfg.ApplyEnv())
}

// TestLoadEnvFile verifies .env files populate unset variables only
func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("IDW_POWER=7\nIDW_OUTPUT_DIR=from-file\n"), 0644))

	t.Setenv(EnvOutputDir, "from-env")
	t.Setenv(EnvPower, "")
	os.Unsetenv(EnvPower)

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "7", os.Getenv(EnvPower))
	assert.Equal(t, "from-env", os.Getenv(EnvOutputDir))
}

// TestValidate verifies invalid configurations are rejected
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"NoSamples", func(c *Config) { c.Samples = nil }},
		{"FourDimensions", func(c *Config) {
			c.Samples = []models.Sample{{Position: []float64{0, 0, 0, 0}}}
			c.Queries = nil
		}},
		{"MixedDimensions", func(c *Config) {
			c.Samples = append(c.Samples, models.Sample{Position: []float64{1}})
		}},
		{"QueryDimensions", func(c *Config) { c.Queries = [][]float64{{1, 2, 3}} }},
		{"UnknownTransform", func(c *Config) { c.Interpolation.Transform = "cubic" }},
		{"NoWorkers", func(c *Config) { c.Interpolation.Workers = 0 }},
		{"BadAxis", func(c *Config) { c.Grid.Y.Steps = 0 }},
		{"OversizedGrid", func(c *Config) {
			c.Grid.X.Steps = 100000
			c.Grid.Y.Steps = 100000
		}},
		{"PowerSelectionOneSample", func(c *Config) {
			c.Samples = c.Samples[:1]
			c.Interpolation.PowerCandidates = []float64{1, 2}
		}},
		{"BadCompression", func(c *Config) {
			c.Output.SaveVolume = true
			c.Output.CompressionLevel = 9
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	// Unused axes are not checked.
	cfg := DefaultConfig()
	cfg.Grid.Z.Steps = 0
	assert.NoError(t, cfg.Validate())

	// A disabled grid is not sized.
	cfg = DefaultConfig()
	cfg.Grid.Enabled = false
	cfg.Grid.X.Steps, cfg.Grid.Y.Steps = 100000, 100000
	assert.NoError(t, cfg.Validate())
}
