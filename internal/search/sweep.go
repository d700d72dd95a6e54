package search

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"github.com/biosim-lab/bioconv-core/pkg/logger"
	"github.com/biosim-lab/bioconv-core/pkg/utils"
)

// sweepLogPrecision is enough to tell grid rows apart without bloating
// the sweep file at fine grids.
const sweepLogPrecision = 9

// SweepSummary describes a finished full-factorial sweep. Objective
// values are the raw pipeline outputs, unsigned and unscaled.
type SweepSummary struct {
	Points        int
	BestIndex     int
	BestValues    []float64
	BestObjective float64
	MinObjective  float64
	MaxObjective  float64
	MeanObjective float64
}

// GridSweep evaluates the pipeline on a full-factorial grid with points
// levels per control variable, logging one row per combination to
// resultsFile. The first variable varies slowest. The sweep aborts on the
// first failed evaluation: a failure on a uniform grid means a region of
// the space is infeasible and the remaining rows would be misleading.
func (d *Driver) GridSweep(points int, resultsFile string) (*SweepSummary, error) {
	if points < 2 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("sweep needs at least 2 points per axis, got %d", points)}
	}

	dim := d.binder.Len()
	axes := make([][]float64, dim)
	for i, v := range d.binder.Vars() {
		axes[i] = floats.Span(make([]float64, points), v.Lower, v.Upper)
	}
	total := utils.IntPow(points, dim)

	log, err := CreateResultLog(resultsFile, d.binder.DisplayNames(), sweepLogPrecision)
	if err != nil {
		return nil, err
	}
	defer log.Close()

	logger.Info("starting grid sweep",
		"dimensions", dim,
		"points_per_axis", points,
		"combinations", total,
		"results_file", resultsFile)

	names := d.binder.Names()
	values := make([]float64, dim)
	objectives := make([]float64, 0, total)
	summary := &SweepSummary{Points: total, BestIndex: -1}

	for idx := 0; idx < total; idx++ {
		rem := idx
		for j := dim - 1; j >= 0; j-- {
			values[j] = axes[j][rem%points]
			rem /= points
		}

		raw, sawNaN, err := d.runner.ApplyAndRun(names, values, false)
		if err != nil {
			return nil, fmt.Errorf("sweep combination %d/%d failed: %w", idx+1, total, err)
		}
		if sawNaN {
			logger.Warn("sweep combination produced NaN output", "combination", idx+1)
		}
		if err := log.Append(idx+1, values, raw); err != nil {
			return nil, err
		}

		objectives = append(objectives, raw)
		if summary.BestIndex < 0 || raw > summary.BestObjective {
			summary.BestIndex = idx
			summary.BestObjective = raw
			summary.BestValues = append([]float64(nil), values...)
		}
	}

	if summary.MinObjective, err = stats.Min(objectives); err != nil {
		return nil, fmt.Errorf("sweep statistics: %w", err)
	}
	if summary.MaxObjective, err = stats.Max(objectives); err != nil {
		return nil, fmt.Errorf("sweep statistics: %w", err)
	}
	if summary.MeanObjective, err = stats.Mean(objectives); err != nil {
		return nil, fmt.Errorf("sweep statistics: %w", err)
	}

	logger.Info("grid sweep finished",
		"combinations", total,
		"best_objective", summary.BestObjective,
		"mean_objective", summary.MeanObjective)
	return summary, nil
}
