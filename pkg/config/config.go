// Package config provides configuration loading and management for idwinterp.
// It handles loading configuration from YAML files, environment overrides and
// provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"idwinterp/internal/models"
	"idwinterp/pkg/interpolation"
)

// Environment variables that override values from the config file
const (
	EnvPower     = "IDW_POWER"
	EnvWorkers   = "IDW_WORKERS"
	EnvOutputDir = "IDW_OUTPUT_DIR"
	EnvVerbose   = "IDW_VERBOSE"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Interpolation parameters
	Interpolation struct {
		// Power is the exponent applied to distances
		Power float64 `yaml:"power"`

		// Transform names a weight transform (identity, constant, sine)
		Transform string `yaml:"transform"`

		// PowerCandidates, when set, are tried by leave-one-out cross
		// validation and the best one replaces Power
		PowerCandidates []float64 `yaml:"powerCandidates,omitempty"`

		// Workers specifies how many goroutines evaluate queries and grids
		Workers int `yaml:"workers"`
	} `yaml:"interpolation"`

	// Samples are the scattered input points
	Samples []models.Sample `yaml:"samples"`

	// Queries are positions to evaluate and report individually
	Queries [][]float64 `yaml:"queries,omitempty"`

	// Grid parameters
	Grid struct {
		// Enabled turns on evaluation over a regular lattice
		Enabled bool `yaml:"enabled"`

		// X, Y, Z describe the lattice; only the first Dims axes are used
		X interpolation.Axis `yaml:"x"`
		Y interpolation.Axis `yaml:"y"`
		Z interpolation.Axis `yaml:"z"`
	} `yaml:"grid"`

	// Output parameters
	Output struct {
		// Dir is where results, slices and volumes are written
		Dir string `yaml:"dir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// SaveSlices writes grid slices as JPEG images
		SaveSlices bool `yaml:"saveSlices"`

		// SaveVolume writes the grid as a zstd compressed binary volume
		SaveVolume bool `yaml:"saveVolume"`

		// CompressionLevel is the zstd level from 1 (fastest) to 4 (best)
		CompressionLevel int `yaml:"compressionLevel"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Interpolation.Power = interpolation.DefaultPower
	cfg.Interpolation.Workers = runtime.NumCPU()

	cfg.Samples = []models.Sample{
		{Position: []float64{0, 0}, Value: 0},
		{Position: []float64{1, 0}, Value: 1},
		{Position: []float64{0, 1}, Value: 1},
		{Position: []float64{1, 1}, Value: 2},
	}
	cfg.Queries = [][]float64{{0.5, 0.5}}

	cfg.Grid.Enabled = true
	cfg.Grid.X = interpolation.Axis{Min: 0, Max: 1, Steps: 64}
	cfg.Grid.Y = interpolation.Axis{Min: 0, Max: 1, Steps: 64}
	cfg.Grid.Z = interpolation.Axis{Min: 0, Max: 0, Steps: 1}

	cfg.Output.Dir = "idw_output"
	cfg.Output.Verbose = true
	cfg.Output.SaveSlices = true
	cfg.Output.SaveVolume = false
	cfg.Output.CompressionLevel = 2

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Samples and queries replace the defaults instead of merging with them.
	cfg.Samples = nil
	cfg.Queries = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values from the IDW_* environment variables.
// Unset variables are ignored; malformed ones are reported.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvPower); ok {
		p, err := cast.ToFloat64E(v)
		if err != nil {
			return fmt.Errorf("error parsing %s: %w", EnvPower, err)
		}
		c.Interpolation.Power = p
	}
	if v, ok := os.LookupEnv(EnvWorkers); ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("error parsing %s: %w", EnvWorkers, err)
		}
		c.Interpolation.Workers = n
	}
	if v, ok := os.LookupEnv(EnvOutputDir); ok {
		c.Output.Dir = v
	}
	if v, ok := os.LookupEnv(EnvVerbose); ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("error parsing %s: %w", EnvVerbose, err)
		}
		c.Output.Verbose = b
	}
	return nil
}

// Dims returns the dimensionality of the first sample, or 0 without samples
func (c *Config) Dims() int {
	if len(c.Samples) == 0 {
		return 0
	}
	return c.Samples[0].Dims()
}

// Axes returns the grid axes used for the sample dimensionality
func (c *Config) Axes() []interpolation.Axis {
	all := []interpolation.Axis{c.Grid.X, c.Grid.Y, c.Grid.Z}
	dims := c.Dims()
	if dims > len(all) {
		dims = len(all)
	}
	return all[:dims]
}

// Validate checks the configuration for problems that would make a run fail
func (c *Config) Validate() error {
	if len(c.Samples) == 0 {
		return fmt.Errorf("%w: at least one sample is required", ErrInvalidConfig)
	}

	dims := c.Dims()
	if dims < 1 || dims > interpolation.MaxDims {
		return fmt.Errorf("%w: samples must have 1 to %d coordinates, got %d",
			ErrInvalidConfig, interpolation.MaxDims, dims)
	}
	for i, s := range c.Samples {
		if s.Dims() != dims {
			return fmt.Errorf("%w: sample %d has %d coordinates, expected %d",
				ErrInvalidConfig, i, s.Dims(), dims)
		}
	}
	for i, q := range c.Queries {
		if len(q) != dims {
			return fmt.Errorf("%w: query %d has %d coordinates, expected %d",
				ErrInvalidConfig, i, len(q), dims)
		}
	}

	if _, err := interpolation.TransformByName(c.Interpolation.Transform); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if len(c.Interpolation.PowerCandidates) > 0 && len(c.Samples) < 2 {
		return fmt.Errorf("%w: power selection needs at least 2 samples, got %d",
			ErrInvalidConfig, len(c.Samples))
	}
	if c.Interpolation.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d",
			ErrInvalidConfig, c.Interpolation.Workers)
	}

	if c.Grid.Enabled {
		if _, err := interpolation.GridCells(c.Axes()...); err != nil {
			return fmt.Errorf("%w: grid: %w", ErrInvalidConfig, err)
		}
	}

	if c.Output.SaveVolume && (c.Output.CompressionLevel < 1 || c.Output.CompressionLevel > 4) {
		return fmt.Errorf("%w: compression level must be between 1 and 4, got %d",
			ErrInvalidConfig, c.Output.CompressionLevel)
	}

	return nil
}
