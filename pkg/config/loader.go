package config

import (
	"fmt"
	"os"
)

// LoadCase loads and parses a driver case file.
func LoadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file %s: %w", path, err)
	}
	c, err := ParseCaseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse case file %s: %w", path, err)
	}
	return c, nil
}

// validateCase performs validation on the case configuration.
func validateCase(c *Case) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.ParamsFile == "" {
		return fmt.Errorf("params_file cannot be empty")
	}

	if c.Objective.Output == "" {
		return fmt.Errorf("objective output cannot be empty")
	}
	if c.Objective.Name == "" {
		return fmt.Errorf("objective name cannot be empty")
	}

	for _, group := range [][]NamedControl{
		c.Feedstock.Controls(),
		c.Pretreatment.Controls(),
		c.Enzymatic.Controls(),
	} {
		for _, nc := range group {
			if err := validateControl(nc); err != nil {
				return err
			}
		}
	}

	if c.Optimization != nil {
		if err := validateOptimization(c.Optimization); err != nil {
			return fmt.Errorf("optimization validation failed: %w", err)
		}
	}

	if c.Sweep != nil {
		if err := validateSweep(c.Sweep); err != nil {
			return fmt.Errorf("sweep validation failed: %w", err)
		}
	}

	return nil
}

// validateControl checks the bounds of a single control. Bounds are only
// meaningful for active controls; unflagged controls carry fixed values.
func validateControl(nc NamedControl) error {
	if !nc.Control.IsControl {
		return nil
	}
	if nc.Control.Min >= nc.Control.Max {
		return fmt.Errorf("control %s: bounds [%v, %v] are degenerate (min must be < max)",
			nc.Name, nc.Control.Min, nc.Control.Max)
	}
	if nc.Control.Value < nc.Control.Min || nc.Control.Value > nc.Control.Max {
		return fmt.Errorf("control %s: value %v is outside bounds [%v, %v]",
			nc.Name, nc.Control.Value, nc.Control.Min, nc.Control.Max)
	}
	return nil
}

// validateOptimization validates the optimization settings.
func validateOptimization(o *Optimization) error {
	validMethods := map[string]bool{
		"":            true,
		"nelder-mead": true,
		"bfgs":        true,
		"cg":          true,
	}
	if !validMethods[o.Method] {
		return fmt.Errorf("invalid method: %s (must be nelder-mead, bfgs, or cg)", o.Method)
	}
	if o.MaxIterations < 0 {
		return fmt.Errorf("max_iterations cannot be negative, got %d", o.MaxIterations)
	}
	if o.ResultsFile == "" {
		return fmt.Errorf("results_file cannot be empty")
	}
	return nil
}

// validateSweep validates the grid sweep settings.
func validateSweep(s *Sweep) error {
	if s.Points < 2 {
		return fmt.Errorf("points must be at least 2, got %d", s.Points)
	}
	if s.ResultsFile == "" {
		return fmt.Errorf("results_file cannot be empty")
	}
	return nil
}
