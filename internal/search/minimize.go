package search

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/biosim-lab/bioconv-core/pkg/logger"
	"github.com/biosim-lab/bioconv-core/pkg/utils"
)

// optimizeLogPrecision keeps the full float64 mantissa in optimization
// records so a run can be restarted from any logged point.
const optimizeLogPrecision = 15

// Callback observes each major iteration of a minimization with the
// current dimensional control values and scaled objective.
type Callback func(iteration int, values []float64, objective float64)

// Driver runs the two search modes over a bound pipeline.
type Driver struct {
	binder   *Binder
	runner   Runner
	callback Callback
}

// NewDriver wires the binder and the pipeline runner.
func NewDriver(binder *Binder, runner Runner) *Driver {
	return &Driver{
		binder: binder,
		runner: runner,
	}
}

// WithCallback registers a major-iteration observer.
func (d *Driver) WithCallback(cb Callback) *Driver {
	d.callback = cb
	return d
}

// MinimizeResult summarizes a finished minimization. X is the final
// normalized point, Values its dimensional control values, and F the
// scaled objective there.
type MinimizeResult struct {
	X               []float64
	Values          []float64
	F               float64
	Status          string
	Converged       bool
	MajorIterations int
	FuncEvaluations int
}

// methodFor maps a configured method name to a gonum optimizer. The
// empty name defaults to Nelder-Mead, which tolerates the flat regions a
// clamped objective produces at the bounds.
func methodFor(name string) (optimize.Method, error) {
	switch name {
	case "", "nelder-mead":
		return &optimize.NelderMead{}, nil
	case "bfgs":
		return &optimize.BFGS{}, nil
	case "cg":
		return &optimize.CG{}, nil
	}
	return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown optimization method %q", name)}
}

// clampUnit projects a point onto the normalized search box.
func clampUnit(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = utils.ClampFloat64(v, 0, 1)
	}
	return out
}

// Minimize runs a bound-constrained minimization of the pipeline
// objective, logging every evaluation to resultsFile. maxIter bounds the
// major iterations when positive.
func (d *Driver) Minimize(method, resultsFile string, maxIter int) (*MinimizeResult, error) {
	m, err := methodFor(method)
	if err != nil {
		return nil, err
	}

	log, err := CreateResultLog(resultsFile, d.binder.DisplayNames(), optimizeLogPrecision)
	if err != nil {
		return nil, err
	}
	defer log.Close()

	ev := NewEvaluator(d.binder, d.runner, log)

	// The gonum methods are unconstrained, so the box is enforced by
	// projection: any point outside [0, 1] evaluates at its clamp.
	var evalErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if evalErr != nil {
				return math.NaN()
			}
			f, err := ev.Evaluate(clampUnit(x))
			if err != nil {
				evalErr = err
				return math.NaN()
			}
			return f
		},
	}

	settings := &optimize.Settings{}
	if maxIter > 0 {
		settings.MajorIterations = maxIter
	}
	if d.callback != nil {
		settings.Recorder = &callbackRecorder{binder: d.binder, callback: d.callback}
	}

	logger.Info("starting optimization",
		"method", method,
		"dimensions", d.binder.Len(),
		"results_file", resultsFile)

	result, optErr := optimize.Minimize(problem, d.binder.InitialVector(), settings, m)
	if evalErr != nil {
		return nil, evalErr
	}
	if optErr != nil {
		return nil, fmt.Errorf("optimization failed: %w", optErr)
	}

	xFinal := clampUnit(result.X)
	res := &MinimizeResult{
		X:               xFinal,
		Values:          d.binder.Dimensional(xFinal),
		F:               result.F,
		Status:          result.Status.String(),
		Converged:       result.Status != optimize.Failure && result.Status != optimize.NotTerminated,
		MajorIterations: result.MajorIterations,
		FuncEvaluations: ev.Evaluations(),
	}
	logger.Info("optimization finished",
		"status", res.Status,
		"iterations", res.MajorIterations,
		"evaluations", res.FuncEvaluations,
		"objective", res.F)
	return res, nil
}

// callbackRecorder adapts the Driver callback to the gonum recorder hooks.
type callbackRecorder struct {
	binder   *Binder
	callback Callback
}

func (r *callbackRecorder) Init() error { return nil }

func (r *callbackRecorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op&optimize.MajorIteration == 0 {
		return nil
	}
	r.callback(stats.MajorIterations, r.binder.Dimensional(clampUnit(loc.X)), loc.F)
	return nil
}
