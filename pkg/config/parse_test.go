package config

import (
	"strings"
	"testing"
)

const validCaseYAML = `
log_level: info
params_file: ve_params.yaml
objective:
  output: enzymatic_output
  name: rho_g
feedstock:
  xylan_solid_fraction: {value: 0.263, min: 0.1, max: 0.4, description: "Xylan Fraction", is_control: true}
  glucan_solid_fraction: {value: 0.40, min: 0.2, max: 0.6, description: "Glucan Fraction"}
  initial_porosity: {value: 0.8, min: 0.5, max: 0.95, description: "Porosity"}
pretreatment:
  initial_acid_conc: {value: 0.0001, min: 0.00005, max: 0.0005, description: "Acid Loading", is_control: true}
  steam_temperature: {value: 150.0, min: 120.0, max: 220.0, description: "Steam Temperature"}
  initial_solid_fraction: {value: 0.745, min: 0.5, max: 0.9, description: "Initial FIS"}
  final_time: {value: 8.3, min: 1.0, max: 60.0, description: "Final Time"}
enzymatic_hydrolysis:
  model_kind: cfd-surrogate
  lambda_e: {value: 30.0, min: 5.0, max: 300.0, description: "Enzymatic Load"}
  fis_0: {value: 0.05, min: 0.01, max: 0.3, description: "FIS Target"}
  t_final: {value: 24.0, min: 1.0, max: 24.0, description: "EH Final Time"}
bioreactor:
  model_kind: cfd-surrogate
  gas_velocity: {value: 0.08, min: 0.01, max: 0.1, description: "Gas Velocity"}
  column_height: {value: 40.0, min: 10.0, max: 50.0, description: "Column Height"}
  column_diameter: {value: 5.0, min: 1.0, max: 6.0, description: "Column Diameter"}
  bubble_diameter: {value: 0.006, min: 0.003, max: 0.008, description: "Bubble Diameter"}
  t_final: {value: 100.0, min: 1.0, max: 500.0, description: "BR Final Time"}
optimization:
  method: nelder-mead
  results_file: optimization_results.csv
sweep:
  points: 5
  results_file: sweep_params.csv
`

func TestParseCaseYAMLValid(t *testing.T) {
	c, err := ParseCaseYAMLString(validCaseYAML)
	if err != nil {
		t.Fatalf("ParseCaseYAMLString failed: %v", err)
	}
	if c.Objective.Output != "enzymatic_output" || c.Objective.Name != "rho_g" {
		t.Fatalf("unexpected objective: %+v", c.Objective)
	}
	if !c.Feedstock.XylanSolidFraction.IsControl {
		t.Fatalf("expected xylan_solid_fraction to be a control")
	}
	if c.Feedstock.GlucanSolidFraction.IsControl {
		t.Fatalf("expected glucan_solid_fraction not to be a control")
	}
	if c.Enzymatic.ModelKind != "cfd-surrogate" {
		t.Fatalf("unexpected EH model kind %q", c.Enzymatic.ModelKind)
	}
	if c.Sweep == nil || c.Sweep.Points != 5 {
		t.Fatalf("unexpected sweep settings: %+v", c.Sweep)
	}
}

func TestParseCaseYAMLDefaults(t *testing.T) {
	c, err := ParseCaseYAMLString(`
objective:
  output: pretreatment_output
  name: conv
`)
	if err != nil {
		t.Fatalf("ParseCaseYAMLString failed: %v", err)
	}
	if c.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", c.LogLevel)
	}
	if c.ParamsFile != "ve_params.yaml" {
		t.Fatalf("expected default params file, got %q", c.ParamsFile)
	}
}

func TestParseCaseYAMLInvalid(t *testing.T) {
	tests := []struct {
		name     string
		mangle   func(string) string
		wantText string
	}{
		{
			name:     "missing objective name",
			mangle:   func(s string) string { return strings.Replace(s, "name: rho_g", "name: \"\"", 1) },
			wantText: "objective name",
		},
		{
			name:     "degenerate control bounds",
			mangle:   func(s string) string { return strings.Replace(s, "min: 0.1, max: 0.4", "min: 0.4, max: 0.4", 1) },
			wantText: "degenerate",
		},
		{
			name:     "control value outside bounds",
			mangle:   func(s string) string { return strings.Replace(s, "value: 0.263", "value: 0.9", 1) },
			wantText: "outside bounds",
		},
		{
			name:     "unknown optimization method",
			mangle:   func(s string) string { return strings.Replace(s, "method: nelder-mead", "method: annealing", 1) },
			wantText: "invalid method",
		},
		{
			name:     "sweep with too few points",
			mangle:   func(s string) string { return strings.Replace(s, "points: 5", "points: 1", 1) },
			wantText: "at least 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCaseYAMLString(tt.mangle(validCaseYAML))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Fatalf("expected error to mention %q, got: %v", tt.wantText, err)
			}
		})
	}
}

func TestControlsOrder(t *testing.T) {
	c, err := ParseCaseYAMLString(validCaseYAML)
	if err != nil {
		t.Fatalf("ParseCaseYAMLString failed: %v", err)
	}

	names := []string{}
	for _, nc := range c.Pretreatment.Controls() {
		names = append(names, nc.Name)
	}
	want := []string{"initial_acid_conc", "steam_temperature", "initial_solid_fraction", "final_time"}
	if len(names) != len(want) {
		t.Fatalf("expected %d controls, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("control %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}
