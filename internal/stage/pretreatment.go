package stage

import (
	"fmt"

	"github.com/biosim-lab/bioconv-core/pkg/config"
	"github.com/biosim-lab/bioconv-core/pkg/logger"
	"github.com/biosim-lab/bioconv-core/pkg/params"
)

// Reactor evaluates the pretreatment reaction model against the persisted
// feedstock and pretreatment inputs, returning the output values.
type Reactor func(doc *params.Document) (map[string]float64, error)

// Pretreatment is the dilute-acid steam pretreatment stage. Temperature is
// stored in K and final time in seconds; the accessors convert from the
// user-facing °C and minutes.
type Pretreatment struct {
	doc                  *params.Document
	showPlots            bool
	initialAcidConc      float64
	steamTempK           float64
	initialSolidFraction float64
	finalTimeS           float64
	bulkSteamConc        float64
	reactor              Reactor
}

// NewPretreatment validates the pretreatment options, derives the bulk
// steam concentration from the saturated-steam table, and persists the
// input block. A nil reactor falls back to the builtin reduced-order model.
func NewPretreatment(doc *params.Document, opts config.PretreatmentOptions, reactor Reactor) (*Pretreatment, error) {
	if reactor == nil {
		reactor = PretreatmentReactor()
	}
	p := &Pretreatment{
		doc:       doc,
		showPlots: opts.ShowPlots,
		reactor:   reactor,
	}

	logger.Info("initializing pretreatment model")

	initial := []struct {
		name  string
		value float64
	}{
		{"initial_acid_conc", opts.InitialAcidConc.Value},
		{"steam_temperature", opts.SteamTemperature.Value},
		{"initial_solid_fraction", opts.InitialSolidFraction.Value},
		{"final_time", opts.FinalTime.Value},
	}
	for _, pr := range initial {
		if _, err := p.set(pr.name, pr.value); err != nil {
			return nil, fmt.Errorf("pretreatment: %w", err)
		}
	}

	if err := p.writeInputs(); err != nil {
		return nil, err
	}
	return p, nil
}

// Name implements Model.
func (p *Pretreatment) Name() string { return "pretreatment" }

// InitialAcidConc returns the acid loading as a mass fraction.
func (p *Pretreatment) InitialAcidConc() float64 { return p.initialAcidConc }

// SteamTemperature returns the steam temperature in °C.
func (p *Pretreatment) SteamTemperature() float64 { return p.steamTempK - 273.15 }

// InitialSolidFraction returns the initial fraction of insoluble solids.
func (p *Pretreatment) InitialSolidFraction() float64 { return p.initialSolidFraction }

// FinalTime returns the reaction time in minutes.
func (p *Pretreatment) FinalTime() float64 { return p.finalTimeS / 60 }

// BulkSteamConc returns the bulk steam concentration in mol/mL.
func (p *Pretreatment) BulkSteamConc() float64 { return p.bulkSteamConc }

// TrySet implements Model.
func (p *Pretreatment) TrySet(name string, value float64) (bool, error) {
	owned, err := p.set(name, value)
	if !owned || err != nil {
		return owned, err
	}
	return true, p.writeInputs()
}

func (p *Pretreatment) set(name string, value float64) (bool, error) {
	switch name {
	case "initial_acid_conc":
		if err := (interval{lo: 0, hi: 1}).check(name, value); err != nil {
			return true, err
		}
		p.initialAcidConc = value
	case "steam_temperature":
		// User-facing value is °C; the steam concentration tracks it.
		if err := (interval{lo: 3.8, hi: 250.3}).check(name, value); err != nil {
			return true, err
		}
		conc, err := steamConcentration(value + 273.15)
		if err != nil {
			return true, err
		}
		p.steamTempK = value + 273.15
		p.bulkSteamConc = conc
	case "initial_solid_fraction":
		if err := (interval{lo: 0, hi: 1, openLo: true, openHi: true}).check(name, value); err != nil {
			return true, err
		}
		p.initialSolidFraction = value
	case "final_time":
		// User-facing value is minutes.
		if err := (interval{lo: 1, hi: 1440}).check(name, value); err != nil {
			return true, err
		}
		p.finalTimeS = 60 * value
	case "bulk_steam_conc":
		if err := (interval{lo: 0, hi: 1, openLo: true, openHi: true}).check(name, value); err != nil {
			return true, err
		}
		p.bulkSteamConc = value
	default:
		return false, nil
	}
	return true, nil
}

// Run implements Model: evaluates the reaction model and persists the
// pretreatment output section.
func (p *Pretreatment) Run(verbose bool) (bool, error) {
	if verbose {
		logger.Info("running pretreatment")
	}

	outputs, err := p.reactor(p.doc)
	if err != nil {
		return false, fmt.Errorf("pretreatment reactor failed: %w", err)
	}

	p.doc.SetFloats(params.SectionPretreatmentOutput, outputs)
	if err := p.doc.Save(); err != nil {
		return false, fmt.Errorf("pretreatment: %w", err)
	}
	return hasNaN(outputs), nil
}

func (p *Pretreatment) writeInputs() error {
	p.doc.SetFloats(params.SectionPretreatmentInput, map[string]float64{
		"initial_acid_conc":      p.initialAcidConc,
		"steam_temperature":      p.steamTempK,
		"initial_solid_fraction": p.initialSolidFraction,
		"bulk_steam_conc":        p.bulkSteamConc,
		"final_time":             p.finalTimeS,
	})
	if err := p.doc.Save(); err != nil {
		return fmt.Errorf("pretreatment: %w", err)
	}
	return nil
}
