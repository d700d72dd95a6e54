package stage

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/biosim-lab/bioconv-core/internal/job"
	"github.com/biosim-lab/bioconv-core/pkg/config"
	"github.com/biosim-lab/bioconv-core/pkg/logger"
	"github.com/biosim-lab/bioconv-core/pkg/params"
)

// Surrogate evaluates a fast approximate stage model against the persisted
// upstream state, returning the stage output values.
type Surrogate func(doc *params.Document) (map[string]float64, error)

// EnzymaticHydrolysis converts pretreated solids to soluble sugars. Three
// model variants exist: the full CFD case (HPC only), a pre-trained CFD
// surrogate, and a well-mixed lignocellulose model. Enzyme loading is
// stored in kg/kg; the accessor converts from the user-facing mg/g.
type EnzymaticHydrolysis struct {
	doc       *params.Document
	hpcRun    bool
	showPlots bool
	kind      ModelKind
	lambdaE   float64 // kg/kg
	fis0      float64
	tFinal    float64 // hours
	surrogate Surrogate
	lignocell Surrogate
	scheduler job.Scheduler
	caseDir   string
}

// NewEnzymaticHydrolysis validates the options and persists the input
// block. The CFD simulation kind requires hpcRun.
func NewEnzymaticHydrolysis(doc *params.Document, opts config.EnzymaticOptions, hpcRun bool) (*EnzymaticHydrolysis, error) {
	e := &EnzymaticHydrolysis{
		doc:       doc,
		hpcRun:    hpcRun,
		showPlots: opts.ShowPlots,
		surrogate: EnzymaticSurrogate(),
		lignocell: LignocelluloseModel(),
	}

	logger.Info("initializing enzymatic hydrolysis model", "kind", opts.ModelKind)

	if err := e.SetModelKind(ModelKind(opts.ModelKind)); err != nil {
		return nil, fmt.Errorf("enzymatic hydrolysis: %w", err)
	}

	initial := []struct {
		name  string
		value float64
	}{
		{"lambda_e", opts.LambdaE.Value},
		{"fis_0", opts.FIS0.Value},
		{"t_final", opts.FinalTime.Value},
	}
	for _, p := range initial {
		if _, err := e.set(p.name, p.value); err != nil {
			return nil, fmt.Errorf("enzymatic hydrolysis: %w", err)
		}
	}

	if err := e.writeInputs(); err != nil {
		return nil, err
	}
	return e, nil
}

// WithSurrogate replaces the builtin CFD surrogate model.
func (e *EnzymaticHydrolysis) WithSurrogate(fn Surrogate) *EnzymaticHydrolysis {
	e.surrogate = fn
	return e
}

// WithLignocelluloseModel replaces the builtin lignocellulose model.
func (e *EnzymaticHydrolysis) WithLignocelluloseModel(fn Surrogate) *EnzymaticHydrolysis {
	e.lignocell = fn
	return e
}

// WithScheduler sets the batch scheduler and CFD case directory used by
// the CFD simulation kind.
func (e *EnzymaticHydrolysis) WithScheduler(s job.Scheduler, caseDir string) *EnzymaticHydrolysis {
	e.scheduler = s
	e.caseDir = caseDir
	return e
}

// Name implements Model.
func (e *EnzymaticHydrolysis) Name() string { return "enzymatic_hydrolysis" }

// Kind returns the active model variant.
func (e *EnzymaticHydrolysis) Kind() ModelKind { return e.kind }

// LambdaE returns the enzyme loading in mg/g.
func (e *EnzymaticHydrolysis) LambdaE() float64 { return e.lambdaE * 1000 }

// FIS0 returns the target fraction of insoluble solids.
func (e *EnzymaticHydrolysis) FIS0() float64 { return e.fis0 }

// FinalTime returns the hydrolysis time in hours.
func (e *EnzymaticHydrolysis) FinalTime() float64 { return e.tFinal }

// SetModelKind switches the model variant and re-persists the inputs.
func (e *EnzymaticHydrolysis) SetModelKind(kind ModelKind) error {
	switch kind {
	case KindCFDSimulation:
		if !e.hpcRun {
			return fmt.Errorf("model kind %q requires HPC resources", kind)
		}
	case KindCFDSurrogate, KindLignocellulose:
	default:
		return fmt.Errorf("invalid model kind %q (allowed: %q, %q, %q)",
			kind, KindCFDSimulation, KindCFDSurrogate, KindLignocellulose)
	}
	e.kind = kind
	return e.writeInputs()
}

// TrySet implements Model.
func (e *EnzymaticHydrolysis) TrySet(name string, value float64) (bool, error) {
	owned, err := e.set(name, value)
	if !owned || err != nil {
		return owned, err
	}
	return true, e.writeInputs()
}

func (e *EnzymaticHydrolysis) set(name string, value float64) (bool, error) {
	switch name {
	case "lambda_e":
		// User-facing value is mg/g.
		if err := (interval{lo: 0, hi: 1000}).check(name, value); err != nil {
			return true, err
		}
		e.lambdaE = value / 1000
	case "fis_0":
		if err := (interval{lo: 0, hi: 1}).check(name, value); err != nil {
			return true, err
		}
		e.fis0 = value
	case "t_final":
		if err := (interval{lo: 1, hi: 24}).check(name, value); err != nil {
			return true, err
		}
		e.tFinal = value
	default:
		return false, nil
	}
	return true, nil
}

// Run implements Model, dispatching on the active model kind.
func (e *EnzymaticHydrolysis) Run(verbose bool) (bool, error) {
	if verbose {
		logger.Info("running enzymatic hydrolysis model", "kind", e.kind)
	}

	switch e.kind {
	case KindCFDSimulation:
		return e.runCFDSimulation()
	case KindCFDSurrogate:
		return e.runModel(e.surrogate)
	case KindLignocellulose:
		return e.runModel(e.lignocell)
	}
	return false, fmt.Errorf("enzymatic hydrolysis: unknown model kind %q", e.kind)
}

func (e *EnzymaticHydrolysis) runModel(fn Surrogate) (bool, error) {
	outputs, err := fn(e.doc)
	if err != nil {
		return false, fmt.Errorf("enzymatic hydrolysis model failed: %w", err)
	}

	e.doc.SetFloats(params.SectionEnzymaticOutput, outputs)
	if err := e.doc.Save(); err != nil {
		return false, fmt.Errorf("enzymatic hydrolysis: %w", err)
	}
	return hasNaN(outputs), nil
}

// runCFDSimulation prepares the CFD case files and submits the batch job.
// The job completes out of band, so the output section is filled with NaN
// placeholders until a later session picks up the finished results.
func (e *EnzymaticHydrolysis) runCFDSimulation() (bool, error) {
	vars, err := e.globalVars()
	if err != nil {
		return false, err
	}

	if e.caseDir != "" {
		if err := job.WriteWithReplacements(filepath.Join(e.caseDir, "constant", "globalVars"), vars); err != nil {
			return false, err
		}
		endTime, err := e.cfdEndTime()
		if err != nil {
			return false, err
		}
		if err := job.WriteWithReplacements(filepath.Join(e.caseDir, "system", "controlDict"), map[string]float64{"endTime": endTime}); err != nil {
			return false, err
		}
	}

	if e.scheduler != nil {
		if _, err := e.scheduler.Submit("eh_cfd", filepath.Join(e.caseDir, "ofoamjob")); err != nil {
			return false, fmt.Errorf("enzymatic hydrolysis: %w", err)
		}
	}

	placeholders := map[string]float64{
		"rho_g":  math.NaN(),
		"rho_x":  math.NaN(),
		"rho_sl": math.NaN(),
		"rho_f":  math.NaN(),
	}
	e.doc.SetFloats(params.SectionEnzymaticOutput, placeholders)
	if err := e.doc.Save(); err != nil {
		return false, fmt.Errorf("enzymatic hydrolysis: %w", err)
	}
	return true, nil
}

// globalVars assembles the CFD case inputs from the pretreatment output,
// diluting the dissolved-species densities to the target solid fraction.
func (e *EnzymaticHydrolysis) globalVars() (map[string]float64, error) {
	xG, err := e.doc.Float(params.SectionPretreatmentOutput, "X_G")
	if err != nil {
		return nil, fmt.Errorf("enzymatic hydrolysis: %w", err)
	}
	xX, err := e.doc.Float(params.SectionPretreatmentOutput, "X_X")
	if err != nil {
		return nil, fmt.Errorf("enzymatic hydrolysis: %w", err)
	}
	conv, err := e.doc.Float(params.SectionPretreatmentOutput, "conv")
	if err != nil {
		return nil, fmt.Errorf("enzymatic hydrolysis: %w", err)
	}
	ptFIS, err := e.doc.Float(params.SectionPretreatmentOutput, "fis_0")
	if err != nil {
		return nil, fmt.Errorf("enzymatic hydrolysis: %w", err)
	}
	rhoX, err := e.doc.Float(params.SectionPretreatmentOutput, "rho_x")
	if err != nil {
		return nil, fmt.Errorf("enzymatic hydrolysis: %w", err)
	}

	dilution := e.fis0 / ptFIS
	return map[string]float64{
		"fis0":   e.fis0,
		"xG0":    xG,
		"xX0":    xX,
		"XL0":    1.0 - xG - xX,
		"yF0":    0.2 + 0.6*conv,
		"lmbdE":  e.lambdaE,
		"rhog0":  0.0,
		"rhox0":  rhoX * dilution,
		"rhosl0": 0.0,
	}, nil
}

// cfdEndTime converts the user-specified t_final into the endTime the CFD
// case expects, reading the update intervals from constant/EHProperties
// when the case directory carries them.
func (e *EnzymaticHydrolysis) cfdEndTime() (float64, error) {
	reactionUpdate := 1.0
	fluidUpdate := 250.0
	fluidSteadystate := 400.0

	data, err := os.ReadFile(filepath.Join(e.caseDir, "constant", "EHProperties"))
	if err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.Contains(line, "#") {
				continue
			}
			v, ok := propertyValue(line)
			if !ok {
				continue
			}
			switch {
			case strings.Contains(line, "reaction_update_time"):
				reactionUpdate = v
			case strings.Contains(line, "fluid_update_time"):
				fluidUpdate = v
			case strings.Contains(line, "fluid_steadystate_time"):
				fluidSteadystate = v
			}
		}
	}

	return fluidSteadystate + (e.tFinal/reactionUpdate+1.0)*fluidUpdate, nil
}

// propertyValue parses the numeric payload of a "name [dims] value;" line.
func propertyValue(line string) (float64, bool) {
	s := line
	if i := strings.LastIndex(s, "]"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(strings.Split(s, ";")[0]), ";")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (e *EnzymaticHydrolysis) writeInputs() error {
	e.doc.SetSection(params.SectionEnzymaticInput, map[string]any{
		"model_type": string(e.kind),
		"lambda_e":   e.lambdaE,
		"fis_0":      e.fis0,
		"t_final":    e.tFinal,
	})
	if err := e.doc.Save(); err != nil {
		return fmt.Errorf("enzymatic hydrolysis: %w", err)
	}
	return nil
}
