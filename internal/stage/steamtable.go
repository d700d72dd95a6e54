package stage

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// molarMassWater is in g/mol.
const molarMassWater = 18.01528

// Saturated-steam vapor density lookup table: temperature in K against
// vapor density in kg/m3, spanning the documented steam temperature range.
var (
	satSteamTempK = []float64{
		277.15, 283.15, 293.15, 303.15, 313.15, 323.15, 333.15, 343.15,
		353.15, 363.15, 373.15, 383.15, 393.15, 403.15, 413.15, 423.15,
		433.15, 443.15, 453.15, 463.15, 473.15, 483.15, 493.15, 503.15,
		513.15, 523.45,
	}
	satSteamVaporDensity = []float64{
		0.00649, 0.00941, 0.01731, 0.03040, 0.05124, 0.08308, 0.13023,
		0.19823, 0.29367, 0.42458, 0.59817, 0.82693, 1.1221, 1.4970,
		1.9665, 2.5481, 3.2596, 4.1222, 5.1597, 6.3989, 7.8610, 9.5881,
		11.615, 13.985, 16.749, 19.987,
	}
)

// steamConcentration interpolates the saturated-steam vapor density at the
// given temperature and converts it to a molar concentration in mol/mL.
func steamConcentration(tempK float64) (float64, error) {
	var pl interp.PiecewiseLinear
	if err := pl.Fit(satSteamTempK, satSteamVaporDensity); err != nil {
		return 0, fmt.Errorf("steam table fit failed: %w", err)
	}
	dens := pl.Predict(tempK) // kg/m3 == g/L
	return dens / molarMassWater / 1000.0, nil
}
