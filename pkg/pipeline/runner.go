// Package pipeline runs an interpolation job described by a config file:
// building the model, selecting the power, evaluating queries and grids, and
// writing the results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"idwinterp/internal/models"
	"idwinterp/pkg/config"
	"idwinterp/pkg/interpolation"
	"idwinterp/pkg/visualization"
)

// Output file and directory names inside config.Output.Dir
const (
	ResultsFile = "results.yaml"
	VolumeFile  = "volume.bin.zst"
	SlicesDir   = "slices"
)

// QueryResult is the interpolated value at one configured query position
type QueryResult struct {
	Position []float64 `yaml:"position"`
	Value    float64   `yaml:"value"`
}

// Summary describes the finite values of an evaluated grid. NaN and
// infinite cells are only counted.
type Summary struct {
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
	Mean     float64 `yaml:"mean"`
	StdDev   float64 `yaml:"stdDev"`
	NaNCount int     `yaml:"nanCount"`
	InfCount int     `yaml:"infCount"`
}

// Result holds everything a run produced
type Result struct {
	// Power is the power parameter actually used, after optimisation
	Power float64 `yaml:"power"`

	// RMSE is the leave-one-out error; NaN with fewer than two samples
	RMSE float64 `yaml:"rmse"`

	Queries []QueryResult `yaml:"queries,omitempty"`

	// Volume is the evaluated grid, nil when the grid is disabled
	Volume *models.Volume `yaml:"-"`

	// Grid summarises Volume
	Grid *Summary `yaml:"grid,omitempty"`

	Elapsed time.Duration `yaml:"elapsed"`
}

// Runner handles one interpolation job.
//
// The job consists of several steps:
// 1. Building the model from the configured samples
// 2. Selecting the power by cross validation (optional)
// 3. Measuring the leave-one-out error
// 4. Evaluating the query positions
// 5. Evaluating the grid (optional)
// 6. Writing results, slices and the volume
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRunner creates a runner for cfg. A nil logger discards output.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = NoopLogger()
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Process runs the complete pipeline
func (r *Runner) Process(ctx context.Context) (*Result, error) {
	start := time.Now()

	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	r.logger.Info("building model", "samples", len(r.cfg.Samples), "dims", r.cfg.Dims())
	model, err := r.buildModel()
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}

	if len(r.cfg.Interpolation.PowerCandidates) > 0 {
		r.logger.Info("selecting power", "candidates", r.cfg.Interpolation.PowerCandidates)
		best, rmse, err := interpolation.OptimizePower(model, r.cfg.Interpolation.PowerCandidates)
		if err != nil {
			return nil, fmt.Errorf("failed to select power: %w", err)
		}
		r.logger.Info("selected power", "power", best, "rmse", rmse)
		model = model.Power(best)
	}

	result := &Result{Power: model.PowerParameter(), RMSE: math.NaN()}

	if model.Len() >= 2 {
		rmse, err := interpolation.CrossValidate(model)
		if err != nil {
			return nil, fmt.Errorf("failed to cross validate: %w", err)
		}
		result.RMSE = rmse
		r.logger.Info("cross validation", "rmse", rmse)
	}

	opts := interpolation.BatchOptions{
		Workers:  r.cfg.Interpolation.Workers,
		Progress: r.progress,
	}

	if len(r.cfg.Queries) > 0 {
		r.logger.Info("evaluating queries", "count", len(r.cfg.Queries))
		positions := make([]interpolation.PointN, len(r.cfg.Queries))
		for i, q := range r.cfg.Queries {
			positions[i] = interpolation.PointN(q)
		}

		values, err := interpolation.EvaluateAll(ctx, model, positions, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate queries: %w", err)
		}
		for i, v := range values {
			if math.IsNaN(v) {
				r.logger.Warn("query result is undefined", "position", r.cfg.Queries[i])
			}
			result.Queries = append(result.Queries, QueryResult{Position: r.cfg.Queries[i], Value: v})
		}
	}

	if r.cfg.Grid.Enabled {
		axes := r.cfg.Axes()
		r.logger.Info("evaluating grid", "axes", len(axes))
		vol, err := interpolation.EvaluateGrid(ctx, model, axes, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate grid: %w", err)
		}
		result.Volume = vol
		result.Grid = summarize(vol)
	}

	result.Elapsed = time.Since(start)

	if err := r.writeOutputs(result); err != nil {
		return nil, err
	}

	r.logger.Info("done", "elapsed", result.Elapsed)
	return result, nil
}

func (r *Runner) buildModel() (*interpolation.IDW[interpolation.PointN], error) {
	points := make([]interpolation.PointN, len(r.cfg.Samples))
	values := make([]float64, len(r.cfg.Samples))
	for i, s := range r.cfg.Samples {
		points[i] = interpolation.PointN(s.Position)
		values[i] = s.Value
	}

	model, err := interpolation.New(points, values)
	if err != nil {
		return nil, err
	}

	transform, err := interpolation.TransformByName(r.cfg.Interpolation.Transform)
	if err != nil {
		return nil, err
	}

	return model.Power(r.cfg.Interpolation.Power).WeightedFunction(transform), nil
}

func (r *Runner) progress(completed, total int, message string) {
	r.logger.Debug(message, "completed", completed, "total", total)
}

// summarize computes statistics over the finite cells of vol
func summarize(vol *models.Volume) *Summary {
	finite := make([]float64, 0, len(vol.Data))
	s := &Summary{}
	for _, v := range vol.Data {
		if math.IsNaN(v) {
			s.NaNCount++
			continue
		}
		if math.IsInf(v, 0) {
			s.InfCount++
			continue
		}
		finite = append(finite, v)
	}

	s.Min, s.Max = vol.Range()
	switch len(finite) {
	case 0:
		s.Mean, s.StdDev = math.NaN(), math.NaN()
	case 1:
		s.Mean, s.StdDev = finite[0], 0
	default:
		s.Mean, s.StdDev = stat.MeanStdDev(finite, nil)
	}
	return s
}

// writeOutputs saves the results file and, when enabled, slice images and
// the compressed volume
func (r *Runner) writeOutputs(result *Result) error {
	out := r.cfg.Output
	if out.Dir == "" {
		return nil
	}

	if err := os.MkdirAll(out.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	resultsPath := filepath.Join(out.Dir, ResultsFile)
	if err := os.WriteFile(resultsPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	r.logger.Info("saved results", "path", resultsPath)

	if result.Volume == nil {
		return nil
	}

	if out.SaveSlices {
		viewer := visualization.NewViewer(result.Volume)
		axes := []string{"z"}
		if r.cfg.Dims() == 3 {
			axes = []string{"x", "y", "z"}
		}
		for _, axis := range axes {
			dir := filepath.Join(out.Dir, SlicesDir, axis)
			n, err := viewer.SaveSliceSequence(axis, dir)
			if err != nil {
				r.logger.Warn("failed to save slices", "axis", axis, "err", err)
				continue
			}
			r.logger.Info("saved slices", "axis", axis, "count", n, "dir", dir)
		}
	}

	if out.SaveVolume {
		path := filepath.Join(out.Dir, VolumeFile)
		if err := SaveVolume(path, result.Volume, out.CompressionLevel); err != nil {
			return fmt.Errorf("failed to save volume: %w", err)
		}
		r.logger.Info("saved volume", "path", path)
	}

	return nil
}
