package interpolation

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ProgressCallback is a function that reports progress during batch evaluation.
// It may be called concurrently from several workers.
type ProgressCallback func(completed, total int, message string)

// BatchOptions controls how EvaluateAll spreads work over goroutines
type BatchOptions struct {
	// Workers is the maximum number of concurrent workers (default: runtime.NumCPU())
	Workers int

	// ChunkSize is the number of positions handed to a worker at once.
	// Zero picks a size that gives every worker a few chunks.
	ChunkSize int

	// Progress is called after every finished chunk with the range of
	// positions that chunk covered
	Progress ProgressCallback
}

func (o BatchOptions) workers() int {
	if o.Workers < 1 {
		return runtime.NumCPU()
	}
	return o.Workers
}

func (o BatchOptions) chunkSize(n, workers int) int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	size := n / (workers * 4)
	if size < 1 {
		size = 1
	}
	return size
}

// EvaluateAll evaluates m at every position in parallel and returns the
// results in input order.
//
// Work is split into chunks; ctx is checked before each chunk starts, so a
// cancelled context stops the batch early and its error is returned. A
// position with the wrong dimensionality fails the whole batch with an
// *ErrDimensionMismatch.
func EvaluateAll[C Coord[C]](ctx context.Context, m *IDW[C], positions []C, opts BatchOptions) ([]float64, error) {
	results := make([]float64, len(positions))
	if len(positions) == 0 {
		return results, nil
	}

	total := len(positions)
	workers := opts.workers()
	chunk := opts.chunkSize(total, workers)

	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < total; start += chunk {
		if gctx.Err() != nil {
			break
		}
		start := start
		end := min(start+chunk, total)

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				v, err := m.EvaluateChecked(positions[i])
				if err != nil {
					return fmt.Errorf("position %d: %w", i, err)
				}
				results[i] = v
			}
			done := completed.Add(int64(end - start))
			if opts.Progress != nil {
				opts.Progress(int(done), total, fmt.Sprintf("evaluated positions %d-%d", start, end-1))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
