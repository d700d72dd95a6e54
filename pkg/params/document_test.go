package params

import (
	"math"
	"path/filepath"
	"testing"
)

func TestDocumentSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	doc := New(path)
	doc.SetFloats(SectionFeedstock, map[string]float64{
		"xylan_solid_fraction":  0.263,
		"glucan_solid_fraction": 0.40,
		"initial_porosity":      0.8,
	})
	doc.SetSection(SectionEnzymaticInput, map[string]any{
		"model_type": "cfd-surrogate",
		"lambda_e":   0.03,
	})
	if err := doc.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got, err := loaded.Float(SectionFeedstock, "xylan_solid_fraction")
	if err != nil {
		t.Fatalf("Float failed: %v", err)
	}
	if got != 0.263 {
		t.Fatalf("expected 0.263, got %v", got)
	}

	kind, err := loaded.String(SectionEnzymaticInput, "model_type")
	if err != nil {
		t.Fatalf("String failed: %v", err)
	}
	if kind != "cfd-surrogate" {
		t.Fatalf("expected cfd-surrogate, got %q", kind)
	}
}

func TestSetSectionReplacesOnlyThatSection(t *testing.T) {
	doc := New(filepath.Join(t.TempDir(), "params.yaml"))
	doc.SetFloats(SectionFeedstock, map[string]float64{"initial_porosity": 0.8})
	doc.SetFloats(SectionPretreatmentInput, map[string]float64{"initial_acid_conc": 0.0001})

	// Rewrite the pretreatment section; feedstock must survive untouched.
	doc.SetFloats(SectionPretreatmentInput, map[string]float64{"initial_acid_conc": 0.0002})

	if got, err := doc.Float(SectionFeedstock, "initial_porosity"); err != nil || got != 0.8 {
		t.Fatalf("feedstock section was disturbed: %v, %v", got, err)
	}
	if got, err := doc.Float(SectionPretreatmentInput, "initial_acid_conc"); err != nil || got != 0.0002 {
		t.Fatalf("pretreatment section not replaced: %v, %v", got, err)
	}
}

func TestFloatErrors(t *testing.T) {
	doc := New(filepath.Join(t.TempDir(), "params.yaml"))
	doc.SetSection(SectionEnzymaticOutput, map[string]any{"model_type": "cfd-surrogate"})

	if _, err := doc.Float("no_such_section", "rho_g"); err == nil {
		t.Fatalf("expected error for missing section")
	}
	if _, err := doc.Float(SectionEnzymaticOutput, "rho_g"); err == nil {
		t.Fatalf("expected error for missing key")
	}
	if _, err := doc.Float(SectionEnzymaticOutput, "model_type"); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
}

func TestHasNaN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	doc := New(path)
	doc.SetFloats(SectionEnzymaticOutput, map[string]float64{
		"rho_g": math.NaN(),
		"rho_x": 12.5,
	})
	if !doc.HasNaN(SectionEnzymaticOutput) {
		t.Fatalf("expected NaN to be detected")
	}
	if doc.HasNaN(SectionPretreatmentOutput) {
		t.Fatalf("missing section must not report NaN")
	}

	// NaN must survive a round trip through the YAML file.
	if err := doc.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.HasNaN(SectionEnzymaticOutput) {
		t.Fatalf("expected NaN to survive round trip")
	}
}

func TestSectionReturnsCopy(t *testing.T) {
	doc := New(filepath.Join(t.TempDir(), "params.yaml"))
	doc.SetFloats(SectionFeedstock, map[string]float64{"initial_porosity": 0.8})

	section, ok := doc.Section(SectionFeedstock)
	if !ok {
		t.Fatalf("expected section to exist")
	}
	section["initial_porosity"] = 0.1

	if got, _ := doc.Float(SectionFeedstock, "initial_porosity"); got != 0.8 {
		t.Fatalf("mutating the returned map must not affect the document, got %v", got)
	}
}
