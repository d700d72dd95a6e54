// Package pipeline assembles the conversion stages into a single ordered
// run and resolves the configured objective against the persisted outputs.
package pipeline

import (
	"fmt"

	"github.com/biosim-lab/bioconv-core/internal/stage"
	"github.com/biosim-lab/bioconv-core/pkg/logger"
	"github.com/biosim-lab/bioconv-core/pkg/params"
)

// OutputCategories lists the persisted output sections in pipeline order.
// The objective output determines how deep the pipeline runs.
var OutputCategories = []string{
	params.SectionPretreatmentOutput,
	params.SectionEnzymaticOutput,
	params.SectionBioreactorOutput,
}

// UnknownOutputError reports an objective output that names no pipeline
// stage output section.
type UnknownOutputError struct {
	Output string
}

func (e *UnknownOutputError) Error() string {
	return fmt.Sprintf("unknown objective output %q (allowed: %v)", e.Output, OutputCategories)
}

// UnmatchedVariableError reports a control variable name no active stage
// recognizes.
type UnmatchedVariableError struct {
	Name string
}

func (e *UnmatchedVariableError) Error() string {
	return fmt.Sprintf("no active stage owns control variable %q", e.Name)
}

// StageCount returns, for an objective output section, the number of
// stages that must run to produce it.
func StageCount(output string) (int, error) {
	for i, cat := range OutputCategories {
		if cat == output {
			return i + 1, nil
		}
	}
	return 0, &UnknownOutputError{Output: output}
}

// Controller runs an ordered set of stage models against a shared params
// document. The first stage is always the feedstock, which has no run
// step of its own.
type Controller struct {
	stages    []stage.Model
	doc       *params.Document
	output    string
	objective string
}

// NewController validates the objective output against the stage list:
// producing a given output section requires exactly the stages up to and
// including its producer, plus the feedstock.
func NewController(doc *params.Document, stages []stage.Model, output, objective string) (*Controller, error) {
	count, err := StageCount(output)
	if err != nil {
		return nil, err
	}
	if len(stages) != count+1 {
		return nil, fmt.Errorf("objective output %q requires %d stage models, got %d",
			output, count+1, len(stages))
	}
	return &Controller{
		stages:    stages,
		doc:       doc,
		output:    output,
		objective: objective,
	}, nil
}

// Stages returns the active stage models in pipeline order.
func (c *Controller) Stages() []stage.Model {
	return c.stages
}

// Apply pushes one control variable to every stage that owns its name.
// A name no stage owns is a configuration error and fails the run.
func (c *Controller) Apply(name string, value float64) error {
	matched := 0
	for _, s := range c.stages {
		owned, err := s.TrySet(name, value)
		if err != nil {
			return fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		if owned {
			matched++
		}
	}
	if matched == 0 {
		return &UnmatchedVariableError{Name: name}
	}
	return nil
}

// Run executes every stage after the feedstock in order and reads the
// objective value from the persisted output. The returned flag reports
// NaN appearing in any stage output.
func (c *Controller) Run(verbose bool) (float64, bool, error) {
	sawNaN := false
	for _, s := range c.stages[1:] {
		nan, err := s.Run(verbose)
		if err != nil {
			return 0, sawNaN, fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		if nan {
			logger.Warn("stage produced NaN output", "stage", s.Name())
			sawNaN = true
		}
	}

	value, err := c.doc.Float(c.output, c.objective)
	if err != nil {
		return 0, sawNaN, fmt.Errorf("reading objective %s/%s: %w", c.output, c.objective, err)
	}
	return value, sawNaN, nil
}

// ApplyAndRun applies a full control vector and runs the pipeline. Names
// and values are matched by index.
func (c *Controller) ApplyAndRun(names []string, values []float64, verbose bool) (float64, bool, error) {
	if len(names) != len(values) {
		return 0, false, fmt.Errorf("got %d control names for %d values", len(names), len(values))
	}
	for i, name := range names {
		if err := c.Apply(name, values[i]); err != nil {
			return 0, false, err
		}
	}
	return c.Run(verbose)
}
