package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/biosim-lab/bioconv-core/internal/job"
	"github.com/biosim-lab/bioconv-core/internal/pipeline"
	"github.com/biosim-lab/bioconv-core/internal/search"
	"github.com/biosim-lab/bioconv-core/internal/stage"
	"github.com/biosim-lab/bioconv-core/pkg/config"
	"github.com/biosim-lab/bioconv-core/pkg/logger"
	"github.com/biosim-lab/bioconv-core/pkg/params"
)

func main() {
	var casePath string
	var mode string
	var resultsFile string
	var gridPoints int
	var logLevel string

	flag.StringVar(&casePath, "case", "", "path to the case YAML file")
	flag.StringVar(&mode, "mode", "run", "driver mode (run, optimize, sweep)")
	flag.StringVar(&resultsFile, "results", "", "override the configured results file")
	flag.IntVar(&gridPoints, "grid-points", 0, "override the configured sweep points per axis")
	flag.StringVar(&logLevel, "log-level", "", "override the configured log level")
	flag.Parse()

	if casePath == "" {
		fmt.Fprintln(os.Stderr, "usage: bioconv -case <case.yaml> [-mode run|optimize|sweep]")
		os.Exit(2)
	}

	cfg, err := config.LoadCase(casePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading case: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger.SetDefault(logger.NewText(cfg.LogLevel, os.Stdout))

	if err := run(cfg, mode, resultsFile, gridPoints); err != nil {
		logger.Error("driver failed", "mode", mode, "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Case, mode, resultsFile string, gridPoints int) error {
	doc := params.New(cfg.ParamsFile)

	ctrl, err := buildPipeline(cfg, doc)
	if err != nil {
		return err
	}

	switch mode {
	case "run":
		value, sawNaN, err := ctrl.Run(true)
		if err != nil {
			return err
		}
		logger.Info("pipeline finished",
			"objective", fmt.Sprintf("%s/%s", cfg.Objective.Output, cfg.Objective.Name),
			"value", value,
			"nan_outputs", sawNaN)
		return nil
	case "optimize":
		return runOptimize(cfg, ctrl, resultsFile)
	case "sweep":
		return runSweep(cfg, ctrl, resultsFile, gridPoints)
	}
	return fmt.Errorf("unknown mode %q (allowed: run, optimize, sweep)", mode)
}

// buildPipeline constructs the stage models the objective output needs.
// The feedstock is always present; downstream stages are added up to the
// producer of the objective output.
func buildPipeline(cfg *config.Case, doc *params.Document) (*pipeline.Controller, error) {
	count, err := pipeline.StageCount(cfg.Objective.Output)
	if err != nil {
		return nil, err
	}

	fs, err := stage.NewFeedstock(doc, cfg.Feedstock)
	if err != nil {
		return nil, err
	}
	pt, err := stage.NewPretreatment(doc, cfg.Pretreatment, nil)
	if err != nil {
		return nil, err
	}
	stages := []stage.Model{fs, pt}

	scheduler := &job.SlurmScheduler{HistoryFile: "job_history.txt"}
	if count > 1 {
		eh, err := stage.NewEnzymaticHydrolysis(doc, cfg.Enzymatic, cfg.HPCRun)
		if err != nil {
			return nil, err
		}
		if cfg.Enzymatic.ModelKind == string(stage.KindCFDSimulation) {
			eh.WithScheduler(scheduler, cfg.Enzymatic.CaseDir)
		}
		stages = append(stages, eh)
	}
	if count > 2 {
		br, err := stage.NewBioreactor(doc, cfg.Bioreactor, cfg.HPCRun)
		if err != nil {
			return nil, err
		}
		if cfg.Bioreactor.ModelKind == string(stage.KindCFDSimulation) {
			br.WithScheduler(scheduler, cfg.Bioreactor.CaseDir)
		}
		stages = append(stages, br)
	}

	return pipeline.NewController(doc, stages, cfg.Objective.Output, cfg.Objective.Name)
}

// buildDriver binds the free controls of every active stage. A search
// cannot wait on batch jobs, so it refuses the CFD simulation kinds.
func buildDriver(cfg *config.Case, ctrl *pipeline.Controller) (*search.Driver, error) {
	count, err := pipeline.StageCount(cfg.Objective.Output)
	if err != nil {
		return nil, err
	}
	if count > 1 && cfg.Enzymatic.ModelKind == string(stage.KindCFDSimulation) {
		return nil, &search.ConfigurationError{Reason: "searching over the enzymatic hydrolysis CFD simulation is not supported; use a surrogate kind"}
	}
	if count > 2 && cfg.Bioreactor.ModelKind == string(stage.KindCFDSimulation) {
		return nil, &search.ConfigurationError{Reason: "searching over the bioreactor CFD simulation is not supported; use the surrogate kind"}
	}

	groups := [][]config.NamedControl{
		cfg.Feedstock.Controls(),
		cfg.Pretreatment.Controls(),
	}
	if count > 1 {
		groups = append(groups, cfg.Enzymatic.Controls())
	}

	binder, err := search.NewBinder(groups...)
	if err != nil {
		return nil, err
	}
	return search.NewDriver(binder, ctrl), nil
}

func runOptimize(cfg *config.Case, ctrl *pipeline.Controller, resultsFile string) error {
	opt := cfg.Optimization
	if opt == nil {
		opt = &config.Optimization{ResultsFile: "optimization_results.csv"}
	}
	if resultsFile != "" {
		opt.ResultsFile = resultsFile
	}

	d, err := buildDriver(cfg, ctrl)
	if err != nil {
		return err
	}
	d.WithCallback(func(iter int, values []float64, obj float64) {
		logger.Debug("optimization iteration", "iteration", iter, "objective", obj)
	})

	res, err := d.Minimize(opt.Method, opt.ResultsFile, opt.MaxIterations)
	if err != nil {
		return err
	}
	logger.Info("best point found",
		"controls", res.Values,
		"objective", res.F,
		"status", res.Status)
	return nil
}

func runSweep(cfg *config.Case, ctrl *pipeline.Controller, resultsFile string, gridPoints int) error {
	sw := cfg.Sweep
	if sw == nil {
		sw = &config.Sweep{Points: 5, ResultsFile: "sweep_results.csv"}
	}
	if resultsFile != "" {
		sw.ResultsFile = resultsFile
	}
	if gridPoints > 0 {
		sw.Points = gridPoints
	}

	d, err := buildDriver(cfg, ctrl)
	if err != nil {
		return err
	}

	sum, err := d.GridSweep(sw.Points, sw.ResultsFile)
	if err != nil {
		return err
	}
	logger.Info("best grid point",
		"combination", sum.BestIndex+1,
		"controls", sum.BestValues,
		"objective", sum.BestObjective,
		"mean", sum.MeanObjective,
		"min", sum.MinObjective,
		"max", sum.MaxObjective)
	return nil
}
