package stage

import (
	"fmt"
	"math"

	"github.com/biosim-lab/bioconv-core/pkg/params"
)

// Builtin reduced-order models. These close the pipeline when no external
// reaction model or surrogate is plugged in: smooth, monotone kinetics with
// the right qualitative trends, cheap enough for thousands of evaluations
// inside an optimization loop.

// PretreatmentReactor returns the builtin dilute-acid kinetics model. Xylan
// dissolution follows first-order Arrhenius kinetics in the acid and steam
// concentrations, moderated by the particle porosity.
func PretreatmentReactor() Reactor {
	const (
		preExponential = 1.0e12 // mL/mol/s
		activationTemp = 8000.0 // Ea/R, K
		furfuralYield  = 0.05
	)
	return func(doc *params.Document) (map[string]float64, error) {
		xylan, err := doc.Float(params.SectionFeedstock, "xylan_solid_fraction")
		if err != nil {
			return nil, err
		}
		glucan, err := doc.Float(params.SectionFeedstock, "glucan_solid_fraction")
		if err != nil {
			return nil, err
		}
		porosity, err := doc.Float(params.SectionFeedstock, "initial_porosity")
		if err != nil {
			return nil, err
		}
		acid, err := doc.Float(params.SectionPretreatmentInput, "initial_acid_conc")
		if err != nil {
			return nil, err
		}
		tempK, err := doc.Float(params.SectionPretreatmentInput, "steam_temperature")
		if err != nil {
			return nil, err
		}
		fis, err := doc.Float(params.SectionPretreatmentInput, "initial_solid_fraction")
		if err != nil {
			return nil, err
		}
		steamConc, err := doc.Float(params.SectionPretreatmentInput, "bulk_steam_conc")
		if err != nil {
			return nil, err
		}
		finalTimeS, err := doc.Float(params.SectionPretreatmentInput, "final_time")
		if err != nil {
			return nil, err
		}

		rate := preExponential * porosity * acid * steamConc * math.Exp(-activationTemp/tempK)
		conv := 1.0 - math.Exp(-rate*finalTimeS)

		// Dissolving xylan shrinks the solid phase; the remaining solids
		// are re-normalized so the composition fractions stay consistent.
		dissolved := xylan * conv
		solidsLeft := 1.0 - dissolved
		fisOut := fis * solidsLeft
		liquid := 1.0 - fisOut

		rhoX := 1000.0 * fis * dissolved / liquid
		return map[string]float64{
			"fis_0": fisOut,
			"conv":  conv,
			"X_X":   xylan * (1.0 - conv) / solidsLeft,
			"X_G":   glucan / solidsLeft,
			"rho_x": rhoX,
			"rho_f": furfuralYield * rhoX * conv,
		}, nil
	}
}

// ehInputs is the upstream state shared by both enzymatic hydrolysis
// builtin models.
type ehInputs struct {
	lambdaE  float64
	fis0     float64
	tFinal   float64
	xG       float64
	xX       float64
	conv     float64
	ptFIS    float64
	ptRhoX   float64
	ptRhoF   float64
	dilution float64
}

func readEHInputs(doc *params.Document) (ehInputs, error) {
	var in ehInputs
	reads := []struct {
		section string
		key     string
		dst     *float64
	}{
		{params.SectionEnzymaticInput, "lambda_e", &in.lambdaE},
		{params.SectionEnzymaticInput, "fis_0", &in.fis0},
		{params.SectionEnzymaticInput, "t_final", &in.tFinal},
		{params.SectionPretreatmentOutput, "X_G", &in.xG},
		{params.SectionPretreatmentOutput, "X_X", &in.xX},
		{params.SectionPretreatmentOutput, "conv", &in.conv},
		{params.SectionPretreatmentOutput, "fis_0", &in.ptFIS},
		{params.SectionPretreatmentOutput, "rho_x", &in.ptRhoX},
		{params.SectionPretreatmentOutput, "rho_f", &in.ptRhoF},
	}
	for _, r := range reads {
		v, err := doc.Float(r.section, r.key)
		if err != nil {
			return ehInputs{}, err
		}
		*r.dst = v
	}
	if in.ptFIS <= 0 {
		return ehInputs{}, fmt.Errorf("pretreatment output fis_0 must be positive, got %v", in.ptFIS)
	}
	in.dilution = in.fis0 / in.ptFIS
	return in, nil
}

// ehOutputs converts a glucan conversion extent into the four slurry
// densities the downstream bioreactor consumes. The 180/162 factor is the
// hydration mass gain of glucan hydrolysis.
func (in ehInputs) ehOutputs(eta float64) map[string]float64 {
	const hydrationGain = 180.16 / 162.14
	ligninFrac := math.Max(0, 1.0-in.xG-in.xX)
	return map[string]float64{
		"rho_g":  1000.0 * in.fis0 * in.xG * eta * hydrationGain,
		"rho_x":  in.ptRhoX * in.dilution,
		"rho_sl": 50.0 * in.fis0 * ligninFrac,
		"rho_f":  in.ptRhoF * in.dilution,
	}
}

// EnzymaticSurrogate returns the builtin surrogate of the enzymatic
// hydrolysis CFD case. Conversion saturates in enzyme loading and batch
// time, and pretreatment severity raises the accessible glucan fraction.
func EnzymaticSurrogate() Surrogate {
	const (
		halfSatLoading = 0.01 // kg/kg
		timeScaleH     = 10.0
	)
	return func(doc *params.Document) (map[string]float64, error) {
		in, err := readEHInputs(doc)
		if err != nil {
			return nil, err
		}
		access := 0.2 + 0.8*in.conv
		eta := access *
			(in.lambdaE / (in.lambdaE + halfSatLoading)) *
			(1.0 - math.Exp(-in.tFinal/timeScaleH))
		return in.ehOutputs(eta), nil
	}
}

// LignocelluloseModel returns the builtin well-mixed two-phase model. It
// shares the surrogate's inputs but uses slower adsorption-limited kinetics
// and no severity boost.
func LignocelluloseModel() Surrogate {
	const (
		halfSatLoading = 0.02 // kg/kg
		timeScaleH     = 14.0
	)
	return func(doc *params.Document) (map[string]float64, error) {
		in, err := readEHInputs(doc)
		if err != nil {
			return nil, err
		}
		eta := (in.lambdaE / (in.lambdaE + halfSatLoading)) *
			(in.tFinal / (in.tFinal + timeScaleH))
		return in.ehOutputs(eta), nil
	}
}

// BioreactorSurrogate returns the builtin surrogate of the bubble-column
// case. The average oxygen uptake rate follows Monod kinetics in the
// glucose feed, limited by gas-liquid mass transfer and inhibited by
// furfural carried over from pretreatment.
func BioreactorSurrogate() Surrogate {
	const (
		maxUptake       = 120.0 // mol/m3/h
		halfSatGlucose  = 5.0   // g/L
		furfuralInhibit = 10.0  // g/L
		refHeight       = 30.0  // m
	)
	return func(doc *params.Document) (map[string]float64, error) {
		rhoG, err := doc.Float(params.SectionEnzymaticOutput, "rho_g")
		if err != nil {
			return nil, err
		}
		rhoF, err := doc.Float(params.SectionEnzymaticOutput, "rho_f")
		if err != nil {
			return nil, err
		}
		gasVel, err := doc.Float(params.SectionBioreactorInput, "gas_velocity")
		if err != nil {
			return nil, err
		}
		height, err := doc.Float(params.SectionBioreactorInput, "column_height")
		if err != nil {
			return nil, err
		}
		bubbleD, err := doc.Float(params.SectionBioreactorInput, "bubble_diameter")
		if err != nil {
			return nil, err
		}

		transfer := math.Pow(gasVel, 0.7) / math.Sqrt(bubbleD/0.005)
		residence := height / (height + refHeight)
		our := maxUptake *
			(rhoG / (rhoG + halfSatGlucose)) *
			transfer * residence *
			math.Exp(-rhoF/furfuralInhibit)
		return map[string]float64{"our_avg": our}, nil
	}
}
