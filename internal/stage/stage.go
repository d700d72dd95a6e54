// Package stage implements the four pipeline unit operations: feedstock
// preparation, dilute-acid pretreatment, enzymatic hydrolysis, and aerobic
// bioreaction. Every stage validates its named parameters against documented
// intervals, persists its full input block to the shared params document on
// every successful set, and exposes a Run operation that consumes upstream
// persisted state and produces its own output section.
package stage

import (
	"fmt"
	"math"
)

// Model is the capability set shared by all pipeline stages.
type Model interface {
	// Name returns the stage identifier used in the params document.
	Name() string

	// TrySet updates a named parameter, reporting whether this stage owns
	// the name. An owned name with an out-of-range value returns
	// (true, *RangeError) and leaves prior state unchanged.
	TrySet(name string, value float64) (bool, error)

	// Run executes the stage. The returned flag reports NaN detected in
	// the stage output (a soft failure); the error reports a hard failure.
	Run(verbose bool) (bool, error)
}

// ModelKind tags the fidelity variant of a stage that has several
// interchangeable model backends.
type ModelKind string

const (
	// KindCFDSimulation runs the full CFD case on HPC resources.
	KindCFDSimulation ModelKind = "cfd-simulation"
	// KindCFDSurrogate evaluates a pre-trained surrogate of the CFD case.
	KindCFDSurrogate ModelKind = "cfd-surrogate"
	// KindLignocellulose runs the well-mixed two-phase lignocellulose model.
	KindLignocellulose ModelKind = "lignocellulose"
)

// RangeError reports a parameter set outside its documented interval.
type RangeError struct {
	Param    string
	Value    float64
	Interval string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("value %v for parameter %s is outside allowed interval %s", e.Value, e.Param, e.Interval)
}

// interval is a documented validity range with optionally open endpoints.
type interval struct {
	lo, hi         float64
	openLo, openHi bool
}

func (iv interval) contains(v float64) bool {
	if iv.openLo {
		if v <= iv.lo {
			return false
		}
	} else if v < iv.lo {
		return false
	}
	if iv.openHi {
		if v >= iv.hi {
			return false
		}
	} else if v > iv.hi {
		return false
	}
	return true
}

func (iv interval) String() string {
	open, close := "[", "]"
	if iv.openLo {
		open = "("
	}
	if iv.openHi {
		close = ")"
	}
	return fmt.Sprintf("%s%v, %v%s", open, iv.lo, iv.hi, close)
}

// check returns a RangeError when v falls outside iv.
func (iv interval) check(param string, v float64) error {
	if !iv.contains(v) {
		return &RangeError{Param: param, Value: v, Interval: iv.String()}
	}
	return nil
}

func hasNaN(values map[string]float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
