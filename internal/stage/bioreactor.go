package stage

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/biosim-lab/bioconv-core/internal/job"
	"github.com/biosim-lab/bioconv-core/pkg/config"
	"github.com/biosim-lab/bioconv-core/pkg/logger"
	"github.com/biosim-lab/bioconv-core/pkg/params"
)

// Bioreactor is the aerobic bubble-column bioreaction stage. Two model
// variants exist: the full CFD case (HPC only) and a pre-trained surrogate.
type Bioreactor struct {
	doc            *params.Document
	hpcRun         bool
	kind           ModelKind
	gasVelocity    float64
	columnHeight   float64
	columnDiameter float64
	bubbleDiameter float64
	tFinal         float64
	surrogate      Surrogate
	scheduler      job.Scheduler
	caseDir        string
}

// NewBioreactor validates the options and persists the input block. The
// CFD simulation kind requires hpcRun.
func NewBioreactor(doc *params.Document, opts config.BioreactorOptions, hpcRun bool) (*Bioreactor, error) {
	b := &Bioreactor{
		doc:       doc,
		hpcRun:    hpcRun,
		surrogate: BioreactorSurrogate(),
	}

	logger.Info("initializing bioreactor model", "kind", opts.ModelKind)

	if err := b.SetModelKind(ModelKind(opts.ModelKind)); err != nil {
		return nil, fmt.Errorf("bioreactor: %w", err)
	}

	initial := []struct {
		name  string
		value float64
	}{
		{"gas_velocity", opts.GasVelocity.Value},
		{"column_height", opts.ColumnHeight.Value},
		{"column_diameter", opts.ColumnDiameter.Value},
		{"bubble_diameter", opts.BubbleDiameter.Value},
		{"t_final", opts.FinalTime.Value},
	}
	for _, p := range initial {
		if _, err := b.set(p.name, p.value); err != nil {
			return nil, fmt.Errorf("bioreactor: %w", err)
		}
	}

	if err := b.writeInputs(); err != nil {
		return nil, err
	}
	return b, nil
}

// WithSurrogate replaces the builtin surrogate model.
func (b *Bioreactor) WithSurrogate(fn Surrogate) *Bioreactor {
	b.surrogate = fn
	return b
}

// WithScheduler sets the batch scheduler and CFD case directory used by
// the CFD simulation kind.
func (b *Bioreactor) WithScheduler(s job.Scheduler, caseDir string) *Bioreactor {
	b.scheduler = s
	b.caseDir = caseDir
	return b
}

// Name implements Model.
func (b *Bioreactor) Name() string { return "bioreactor" }

// Kind returns the active model variant.
func (b *Bioreactor) Kind() ModelKind { return b.kind }

// GasVelocity returns the superficial gas velocity in m/s.
func (b *Bioreactor) GasVelocity() float64 { return b.gasVelocity }

// FinalTime returns the reaction end time in seconds.
func (b *Bioreactor) FinalTime() float64 { return b.tFinal }

// SetModelKind switches the model variant and re-persists the inputs.
func (b *Bioreactor) SetModelKind(kind ModelKind) error {
	switch kind {
	case KindCFDSimulation:
		if !b.hpcRun {
			return fmt.Errorf("model kind %q requires HPC resources", kind)
		}
	case KindCFDSurrogate:
	default:
		return fmt.Errorf("invalid model kind %q (allowed: %q, %q)",
			kind, KindCFDSimulation, KindCFDSurrogate)
	}
	b.kind = kind
	return b.writeInputs()
}

// TrySet implements Model.
func (b *Bioreactor) TrySet(name string, value float64) (bool, error) {
	owned, err := b.set(name, value)
	if !owned || err != nil {
		return owned, err
	}
	return true, b.writeInputs()
}

func (b *Bioreactor) set(name string, value float64) (bool, error) {
	switch name {
	case "gas_velocity":
		// The surrogate is only trained on a narrow velocity band.
		iv := interval{lo: 0, hi: math.Inf(1)}
		if b.kind == KindCFDSurrogate {
			iv = interval{lo: 0.01, hi: 0.1}
		}
		if err := iv.check(name, value); err != nil {
			return true, err
		}
		b.gasVelocity = value
	case "column_height":
		if err := (interval{lo: 10, hi: 50}).check(name, value); err != nil {
			return true, err
		}
		b.columnHeight = value
	case "column_diameter":
		if err := (interval{lo: 1, hi: 6}).check(name, value); err != nil {
			return true, err
		}
		b.columnDiameter = value
	case "bubble_diameter":
		if err := (interval{lo: 0.003, hi: 0.008}).check(name, value); err != nil {
			return true, err
		}
		b.bubbleDiameter = value
	case "t_final":
		if err := (interval{lo: 1, hi: 1e16}).check(name, value); err != nil {
			return true, err
		}
		b.tFinal = value
	default:
		return false, nil
	}
	return true, nil
}

// Run implements Model, dispatching on the active model kind.
func (b *Bioreactor) Run(verbose bool) (bool, error) {
	if verbose {
		logger.Info("running bioreactor model", "kind", b.kind)
	}

	switch b.kind {
	case KindCFDSimulation:
		return b.runCFDSimulation(verbose)
	case KindCFDSurrogate:
		return b.runSurrogate()
	}
	return false, fmt.Errorf("bioreactor: unknown model kind %q", b.kind)
}

// runSurrogate evaluates the surrogate, unless the upstream enzymatic
// hydrolysis output is still a NaN placeholder for an unfinished CFD job.
func (b *Bioreactor) runSurrogate() (bool, error) {
	rhoG, err := b.doc.Float(params.SectionEnzymaticOutput, "rho_g")
	if err != nil {
		return false, fmt.Errorf("bioreactor: %w", err)
	}
	if math.IsNaN(rhoG) {
		logger.Warn("bioreactor waiting for enzymatic hydrolysis CFD results")
		return true, nil
	}

	outputs, err := b.surrogate(b.doc)
	if err != nil {
		return false, fmt.Errorf("bioreactor surrogate failed: %w", err)
	}

	b.doc.SetFloats(params.SectionBioreactorOutput, outputs)
	if err := b.doc.Save(); err != nil {
		return false, fmt.Errorf("bioreactor: %w", err)
	}
	return hasNaN(outputs), nil
}

// runCFDSimulation prepares the bubble-column case and submits the batch
// job; the output section holds a NaN placeholder until the job finishes.
func (b *Bioreactor) runCFDSimulation(verbose bool) (bool, error) {
	if b.caseDir != "" {
		// Stale solver output from a previous submission would corrupt
		// the new run, so reset the case when it ships a clean script.
		clean := filepath.Join(b.caseDir, "Allclean")
		if _, err := os.Stat(clean); err == nil {
			if err := job.RunScript(clean, nil, verbose); err != nil {
				return false, fmt.Errorf("bioreactor: %w", err)
			}
		}

		replacements := map[string]float64{}
		for _, key := range []string{"rho_g", "rho_x", "rho_f"} {
			v, err := b.doc.Float(params.SectionEnzymaticOutput, key)
			if err != nil {
				return false, fmt.Errorf("bioreactor: %w", err)
			}
			replacements[key] = v
		}
		if err := job.WriteWithReplacements(filepath.Join(b.caseDir, "constant", "fvOptions"), replacements); err != nil {
			return false, err
		}
		if err := job.WriteWithReplacements(filepath.Join(b.caseDir, "system", "controlDict"), map[string]float64{"endTime": b.tFinal}); err != nil {
			return false, err
		}
	}

	if b.scheduler != nil {
		if _, err := b.scheduler.Submit("bioreactor", filepath.Join(b.caseDir, "ofoamjob")); err != nil {
			return false, fmt.Errorf("bioreactor: %w", err)
		}
	}

	b.doc.SetFloats(params.SectionBioreactorOutput, map[string]float64{
		"our_avg": math.NaN(),
	})
	if err := b.doc.Save(); err != nil {
		return false, fmt.Errorf("bioreactor: %w", err)
	}
	return true, nil
}

func (b *Bioreactor) writeInputs() error {
	b.doc.SetSection(params.SectionBioreactorInput, map[string]any{
		"model_type":      string(b.kind),
		"gas_velocity":    b.gasVelocity,
		"column_height":   b.columnHeight,
		"column_diameter": b.columnDiameter,
		"bubble_diameter": b.bubbleDiameter,
		"t_final":         b.tFinal,
	})
	if err := b.doc.Save(); err != nil {
		return fmt.Errorf("bioreactor: %w", err)
	}
	return nil
}
