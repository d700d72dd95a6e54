// Package search drives the optimization and sweep loops over the
// pipeline: it binds the free control variables to a normalized search
// space, evaluates the pipeline objective, and records every evaluation.
package search

import (
	"fmt"

	"github.com/biosim-lab/bioconv-core/pkg/config"
)

// Normalize maps a dimensional value into [0, 1] relative to its bounds.
func Normalize(v, lower, upper float64) float64 {
	return (v - lower) / (upper - lower)
}

// ScaleBack maps a normalized value in [0, 1] back to dimensional units.
func ScaleBack(v, lower, upper float64) float64 {
	return v*(upper-lower) + lower
}

// ControlVariable is one free search dimension: the stage parameter name
// it binds to, its dimensional bounds, and its starting value.
type ControlVariable struct {
	Name        string
	DisplayName string
	Lower       float64
	Upper       float64
	X0          float64
}

// Binder collects the free control variables of a case in encounter order
// and translates between the normalized search space and dimensional
// stage parameters.
type Binder struct {
	vars []ControlVariable
}

// NewBinder walks the control groups in order and picks out every control
// flagged as free. A case with no free controls, or a control with
// degenerate bounds, is a ConfigurationError.
func NewBinder(groups ...[]config.NamedControl) (*Binder, error) {
	b := &Binder{}
	for _, group := range groups {
		for _, nc := range group {
			if !nc.Control.IsControl {
				continue
			}
			if nc.Control.Min >= nc.Control.Max {
				return nil, &ConfigurationError{Reason: fmt.Sprintf(
					"control %q has degenerate bounds [%v, %v]",
					nc.Name, nc.Control.Min, nc.Control.Max)}
			}
			display := nc.Control.Description
			if display == "" {
				display = nc.Name
			}
			b.vars = append(b.vars, ControlVariable{
				Name:        nc.Name,
				DisplayName: display,
				Lower:       nc.Control.Min,
				Upper:       nc.Control.Max,
				X0:          nc.Control.Value,
			})
		}
	}
	if len(b.vars) == 0 {
		return nil, &ConfigurationError{Reason: "no control variables are marked as free"}
	}
	return b, nil
}

// Len returns the search space dimension.
func (b *Binder) Len() int {
	return len(b.vars)
}

// Vars returns the bound control variables in encounter order.
func (b *Binder) Vars() []ControlVariable {
	return b.vars
}

// Names returns the stage parameter names in encounter order.
func (b *Binder) Names() []string {
	names := make([]string, len(b.vars))
	for i, v := range b.vars {
		names[i] = v.Name
	}
	return names
}

// DisplayNames returns the human-readable column labels in encounter order.
func (b *Binder) DisplayNames() []string {
	names := make([]string, len(b.vars))
	for i, v := range b.vars {
		names[i] = v.DisplayName
	}
	return names
}

// InitialVector returns the normalized starting point.
func (b *Binder) InitialVector() []float64 {
	x := make([]float64, len(b.vars))
	for i, v := range b.vars {
		x[i] = Normalize(v.X0, v.Lower, v.Upper)
	}
	return x
}

// Dimensional maps a normalized point back to dimensional stage values.
func (b *Binder) Dimensional(x []float64) []float64 {
	values := make([]float64, len(b.vars))
	for i, v := range b.vars {
		values[i] = ScaleBack(x[i], v.Lower, v.Upper)
	}
	return values
}
