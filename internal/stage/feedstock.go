package stage

import (
	"fmt"

	"github.com/biosim-lab/bioconv-core/pkg/config"
	"github.com/biosim-lab/bioconv-core/pkg/params"
)

// Feedstock holds the biomass composition entering the pipeline. Its
// effect is fully captured at construction, so Run is a no-op.
type Feedstock struct {
	doc                 *params.Document
	xylanSolidFraction  float64
	glucanSolidFraction float64
	initialPorosity     float64
}

// NewFeedstock validates the feedstock options and persists them.
func NewFeedstock(doc *params.Document, opts config.FeedstockOptions) (*Feedstock, error) {
	f := &Feedstock{doc: doc}

	initial := []struct {
		name  string
		value float64
	}{
		{"xylan_solid_fraction", opts.XylanSolidFraction.Value},
		{"glucan_solid_fraction", opts.GlucanSolidFraction.Value},
		{"initial_porosity", opts.InitialPorosity.Value},
	}
	for _, p := range initial {
		if _, err := f.set(p.name, p.value); err != nil {
			return nil, fmt.Errorf("feedstock: %w", err)
		}
	}

	if err := f.writeInputs(); err != nil {
		return nil, err
	}
	return f, nil
}

// Name implements Model.
func (f *Feedstock) Name() string { return "feedstock" }

// XylanSolidFraction returns the initial fraction of solids due to xylan.
func (f *Feedstock) XylanSolidFraction() float64 { return f.xylanSolidFraction }

// GlucanSolidFraction returns the initial fraction of solids due to glucan.
func (f *Feedstock) GlucanSolidFraction() float64 { return f.glucanSolidFraction }

// InitialPorosity returns the initial porous fraction of the biomass particles.
func (f *Feedstock) InitialPorosity() float64 { return f.initialPorosity }

// TrySet implements Model.
func (f *Feedstock) TrySet(name string, value float64) (bool, error) {
	owned, err := f.set(name, value)
	if !owned || err != nil {
		return owned, err
	}
	return true, f.writeInputs()
}

func (f *Feedstock) set(name string, value float64) (bool, error) {
	switch name {
	case "xylan_solid_fraction":
		if err := (interval{lo: 0, hi: 1}).check(name, value); err != nil {
			return true, err
		}
		f.xylanSolidFraction = value
	case "glucan_solid_fraction":
		if err := (interval{lo: 0, hi: 1}).check(name, value); err != nil {
			return true, err
		}
		f.glucanSolidFraction = value
	case "initial_porosity":
		if err := (interval{lo: 0, hi: 1, openLo: true, openHi: true}).check(name, value); err != nil {
			return true, err
		}
		f.initialPorosity = value
	default:
		return false, nil
	}
	return true, nil
}

// Run implements Model. The feedstock has no simulation step.
func (f *Feedstock) Run(verbose bool) (bool, error) {
	return false, nil
}

func (f *Feedstock) writeInputs() error {
	f.doc.SetFloats(params.SectionFeedstock, map[string]float64{
		"xylan_solid_fraction":  f.xylanSolidFraction,
		"glucan_solid_fraction": f.glucanSolidFraction,
		"initial_porosity":      f.initialPorosity,
	})
	if err := f.doc.Save(); err != nil {
		return fmt.Errorf("feedstock: %w", err)
	}
	return nil
}
