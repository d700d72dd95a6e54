package search

import (
	"fmt"

	"github.com/biosim-lab/bioconv-core/pkg/logger"
)

// Runner evaluates the pipeline for one dimensional control vector,
// returning the objective output value and a NaN soft-failure flag.
type Runner interface {
	ApplyAndRun(names []string, values []float64, verbose bool) (float64, bool, error)
}

// Evaluator turns pipeline runs into minimizer objective values. The
// pipeline output is a quantity to maximize, so the objective is its
// negation; the first evaluation fixes a scaling that maps the starting
// objective to -1, which keeps line searches well conditioned regardless
// of the output's physical magnitude.
type Evaluator struct {
	binder  *Binder
	runner  Runner
	log     *ResultLog
	evals   int
	scaling float64
}

// NewEvaluator wires a binder and a pipeline runner. The result log may
// be nil.
func NewEvaluator(binder *Binder, runner Runner, log *ResultLog) *Evaluator {
	return &Evaluator{
		binder:  binder,
		runner:  runner,
		log:     log,
		scaling: 1.0,
	}
}

// Evaluations returns the number of completed pipeline evaluations.
func (e *Evaluator) Evaluations() int {
	return e.evals
}

// Scaling returns the objective scaling fixed by the first evaluation.
func (e *Evaluator) Scaling() float64 {
	return e.scaling
}

// Evaluate runs the pipeline at a normalized point and returns the scaled
// objective. Every successful run is appended to the result log with its
// dimensional values and unscaled objective.
func (e *Evaluator) Evaluate(x []float64) (float64, error) {
	values := e.binder.Dimensional(x)
	raw, sawNaN, err := e.runner.ApplyAndRun(e.binder.Names(), values, false)
	if err != nil {
		return 0, fmt.Errorf("pipeline evaluation failed: %w", err)
	}
	if sawNaN {
		logger.Warn("pipeline evaluation produced NaN output", "evaluation", e.evals+1)
	}

	obj := -raw
	e.evals++
	if e.evals == 1 {
		if obj == 0 {
			return 0, &FatalComputationError{Reason: "initial objective value is zero, cannot fix scaling"}
		}
		e.scaling = -1.0 / obj
	}

	if e.log != nil {
		if err := e.log.Append(e.evals, values, obj); err != nil {
			return 0, err
		}
	}
	return obj * e.scaling, nil
}
