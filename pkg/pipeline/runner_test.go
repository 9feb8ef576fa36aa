package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"idwinterp/internal/models"
	"idwinterp/pkg/config"
)

func lineConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Interpolation.Workers = 2
	cfg.Samples = []models.Sample{
		{Position: []float64{0}, Value: 0},
		{Position: []float64{1}, Value: 1},
		{Position: []float64{2}, Value: 2},
	}
	cfg.Queries = [][]float64{{0.5}, {1}}
	cfg.Grid.Enabled = true
	cfg.Grid.X.Min, cfg.Grid.X.Max, cfg.Grid.X.Steps = 0, 2, 5
	cfg.Output.Dir = dir
	cfg.Output.SaveSlices = false
	cfg.Output.SaveVolume = false
	return cfg
}

// TestProcess1D verifies a complete run over a line of samples
func TestProcess1D(t *testing.T) {
	dir := t.TempDir()
	cfg := lineConfig(dir)

	res, err := NewRunner(cfg, nil).Process(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2.0, res.Power)
	assert.InDelta(t, math.Sqrt(0.96), res.RMSE, 1e-12)

	require.Len(t, res.Queries, 2)
	// Weights at 0.5 are 4, 4 and 4/9.
	assert.InDelta(t, (4+2*4.0/9)/(8+4.0/9), res.Queries[0].Value, 1e-12)
	assert.Equal(t, 1.0, res.Queries[1].Value)

	require.NotNil(t, res.Volume)
	assert.Equal(t, 5, res.Volume.Width)
	assert.Equal(t, 1, res.Volume.Height)
	assert.Equal(t, 0.0, res.Volume.At(0, 0, 0))
	assert.Equal(t, 1.0, res.Volume.At(2, 0, 0))
	assert.Equal(t, 2.0, res.Volume.At(4, 0, 0))

	require.NotNil(t, res.Grid)
	assert.Equal(t, 0.0, res.Grid.Min)
	assert.Equal(t, 2.0, res.Grid.Max)
	assert.InDelta(t, 1.0, res.Grid.Mean, 1e-12)
	assert.Zero(t, res.Grid.NaNCount)

	data, err := os.ReadFile(filepath.Join(dir, ResultsFile))
	require.NoError(t, err)
	var saved struct {
		Power   float64       `yaml:"power"`
		Queries []QueryResult `yaml:"queries"`
	}
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, 2.0, saved.Power)
	assert.Equal(t, res.Queries, saved.Queries)

	assert.NoDirExists(t, filepath.Join(dir, SlicesDir))
	assert.NoFileExists(t, filepath.Join(dir, VolumeFile))
}

// TestProcessPowerSelection verifies the configured candidates replace the power
func TestProcessPowerSelection(t *testing.T) {
	cfg := lineConfig("")
	cfg.Interpolation.PowerCandidates = []float64{0, 2, 8}

	res, err := NewRunner(cfg, NoopLogger()).Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8.0, res.Power)
}

// TestProcessWritesOutputs verifies slices and the compressed volume are saved for 3D grids
func TestProcessWritesOutputs(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Interpolation.Workers = 2
	cfg.Interpolation.Transform = "sine"
	cfg.Samples = []models.Sample{
		{Position: []float64{0, 0, 0}, Value: 0},
		{Position: []float64{1, 1, 1}, Value: 1},
		{Position: []float64{1, 0, 0}, Value: 3},
	}
	cfg.Queries = nil
	axis := cfg.Grid.X
	axis.Min, axis.Max, axis.Steps = 0, 1, 4
	cfg.Grid.X, cfg.Grid.Y, cfg.Grid.Z = axis, axis, axis
	cfg.Output.Dir = dir
	cfg.Output.SaveSlices = true
	cfg.Output.SaveVolume = true

	res, err := NewRunner(cfg, nil).Process(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Queries)

	for _, name := range []string{"x", "y", "z"} {
		entries, err := os.ReadDir(filepath.Join(dir, SlicesDir, name))
		require.NoError(t, err)
		assert.Len(t, entries, 4)
	}

	vol, err := LoadVolume(filepath.Join(dir, VolumeFile))
	require.NoError(t, err)
	assert.Equal(t, res.Volume, vol)
}

// TestProcessPowerSelectionNeedsTwoSamples verifies a single sample fails validation up front
func TestProcessPowerSelectionNeedsTwoSamples(t *testing.T) {
	cfg := lineConfig(t.TempDir())
	cfg.Samples = cfg.Samples[:1]
	cfg.Interpolation.PowerCandidates = []float64{1, 2}

	_, err := NewRunner(cfg, nil).Process(context.Background())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, ResultsFile))
}

// TestProcessRejectsInvalidConfig verifies validation runs before any work
func TestProcessRejectsInvalidConfig(t *testing.T) {
	cfg := lineConfig("")
	cfg.Queries = [][]float64{{1, 2}}

	_, err := NewRunner(cfg, nil).Process(context.Background())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

// TestProcessCancelled verifies a cancelled context stops evaluation
func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(lineConfig(""), nil).Process(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestSummarize verifies NaN and infinite cells are counted and excluded
func TestSummarize(t *testing.T) {
	vol := models.NewVolume(4, 1, 1)
	copy(vol.Data, []float64{1, math.NaN(), 3, 5})

	s := summarize(vol)
	assert.Equal(t, 1, s.NaNCount)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.InDelta(t, 3.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.0, s.StdDev, 1e-12)

	inf := models.NewVolume(4, 1, 1)
	copy(inf.Data, []float64{1, math.Inf(1), 3, math.Inf(-1)})

	s = summarize(inf)
	assert.Equal(t, 2, s.InfCount)
	assert.Zero(t, s.NaNCount)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.InDelta(t, 2.0, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt2, s.StdDev, 1e-12)

	all := models.NewVolume(1, 1, 1)
	all.Data[0] = math.NaN()
	assert.True(t, math.IsNaN(summarize(all).Mean))
}
