package pipeline

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/biosim-lab/bioconv-core/internal/stage"
	"github.com/biosim-lab/bioconv-core/pkg/params"
)

// fakeStage owns a fixed set of parameter names and records calls.
type fakeStage struct {
	name     string
	owns     map[string]bool
	setCalls map[string]float64
	runs     int
	runNaN   bool
	runErr   error
	onRun    func()
}

func newFakeStage(name string, owns ...string) *fakeStage {
	m := make(map[string]bool, len(owns))
	for _, o := range owns {
		m[o] = true
	}
	return &fakeStage{name: name, owns: m, setCalls: map[string]float64{}}
}

func (f *fakeStage) Name() string { return f.name }

func (f *fakeStage) TrySet(name string, value float64) (bool, error) {
	if !f.owns[name] {
		return false, nil
	}
	f.setCalls[name] = value
	return true, nil
}

func (f *fakeStage) Run(verbose bool) (bool, error) {
	f.runs++
	if f.onRun != nil {
		f.onRun()
	}
	return f.runNaN, f.runErr
}

func testDoc(t *testing.T) *params.Document {
	t.Helper()
	return params.New(filepath.Join(t.TempDir(), "ve_params.yaml"))
}

func TestStageCount(t *testing.T) {
	cases := []struct {
		output string
		want   int
	}{
		{params.SectionPretreatmentOutput, 1},
		{params.SectionEnzymaticOutput, 2},
		{params.SectionBioreactorOutput, 3},
	}
	for _, tc := range cases {
		got, err := StageCount(tc.output)
		if err != nil {
			t.Fatalf("StageCount(%q): %v", tc.output, err)
		}
		if got != tc.want {
			t.Errorf("StageCount(%q) = %d, want %d", tc.output, got, tc.want)
		}
	}

	_, err := StageCount("distillation_output")
	var ue *UnknownOutputError
	if !errors.As(err, &ue) {
		t.Errorf("StageCount(distillation_output) err = %v, want UnknownOutputError", err)
	}
}

func TestNewControllerStageListLength(t *testing.T) {
	doc := testDoc(t)
	stages := []stage.Model{newFakeStage("feedstock"), newFakeStage("pretreatment")}

	if _, err := NewController(doc, stages, params.SectionPretreatmentOutput, "conv"); err != nil {
		t.Errorf("two stages for pretreatment_output rejected: %v", err)
	}
	if _, err := NewController(doc, stages, params.SectionEnzymaticOutput, "rho_g"); err == nil {
		t.Error("two stages for enzymatic_output should be rejected")
	}
}

func TestApplyFansOutToAllOwners(t *testing.T) {
	doc := testDoc(t)
	fs := newFakeStage("feedstock")
	pt := newFakeStage("pretreatment", "fis_0")
	eh := newFakeStage("enzymatic_hydrolysis", "fis_0", "lambda_e")
	c, err := NewController(doc, []stage.Model{fs, pt, eh}, params.SectionEnzymaticOutput, "rho_g")
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	if err := c.Apply("fis_0", 0.05); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if pt.setCalls["fis_0"] != 0.05 || eh.setCalls["fis_0"] != 0.05 {
		t.Errorf("fis_0 not fanned out: pt=%v eh=%v", pt.setCalls, eh.setCalls)
	}
}

func TestApplyRejectsUnmatchedName(t *testing.T) {
	doc := testDoc(t)
	c, err := NewController(doc,
		[]stage.Model{newFakeStage("feedstock"), newFakeStage("pretreatment", "final_time")},
		params.SectionPretreatmentOutput, "conv")
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	err = c.Apply("lambda_e", 30.0)
	var ue *UnmatchedVariableError
	if !errors.As(err, &ue) {
		t.Fatalf("Apply(lambda_e) err = %v, want UnmatchedVariableError", err)
	}
}

func TestRunSkipsFeedstockAndReadsObjective(t *testing.T) {
	doc := testDoc(t)
	fs := newFakeStage("feedstock")
	pt := newFakeStage("pretreatment")
	pt.onRun = func() {
		doc.SetFloats(params.SectionPretreatmentOutput, map[string]float64{"conv": 0.61})
	}
	c, err := NewController(doc, []stage.Model{fs, pt}, params.SectionPretreatmentOutput, "conv")
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	value, nan, err := c.Run(false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fs.runs != 0 {
		t.Errorf("feedstock ran %d times, want 0", fs.runs)
	}
	if pt.runs != 1 {
		t.Errorf("pretreatment ran %d times, want 1", pt.runs)
	}
	if nan {
		t.Error("unexpected NaN flag")
	}
	if value != 0.61 {
		t.Errorf("objective = %v, want 0.61", value)
	}
}

func TestRunPropagatesNaNFlag(t *testing.T) {
	doc := testDoc(t)
	fs := newFakeStage("feedstock")
	pt := newFakeStage("pretreatment")
	pt.runNaN = true
	pt.onRun = func() {
		doc.SetFloats(params.SectionPretreatmentOutput, map[string]float64{"conv": math.NaN()})
	}
	c, err := NewController(doc, []stage.Model{fs, pt}, params.SectionPretreatmentOutput, "conv")
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	value, nan, err := c.Run(false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !nan {
		t.Error("NaN flag not propagated")
	}
	if !math.IsNaN(value) {
		t.Errorf("objective = %v, want NaN", value)
	}
}

func TestRunStopsOnStageError(t *testing.T) {
	doc := testDoc(t)
	fs := newFakeStage("feedstock")
	pt := newFakeStage("pretreatment")
	pt.runErr = errors.New("reactor diverged")
	eh := newFakeStage("enzymatic_hydrolysis")
	c, err := NewController(doc, []stage.Model{fs, pt, eh}, params.SectionEnzymaticOutput, "rho_g")
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	_, _, err = c.Run(false)
	if err == nil {
		t.Fatal("Run should fail when a stage fails")
	}
	if eh.runs != 0 {
		t.Errorf("downstream stage ran %d times after failure, want 0", eh.runs)
	}
}

func TestApplyAndRun(t *testing.T) {
	doc := testDoc(t)
	fs := newFakeStage("feedstock")
	pt := newFakeStage("pretreatment", "final_time", "steam_temperature")
	pt.onRun = func() {
		doc.SetFloats(params.SectionPretreatmentOutput, map[string]float64{"conv": 0.4})
	}
	c, err := NewController(doc, []stage.Model{fs, pt}, params.SectionPretreatmentOutput, "conv")
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	value, _, err := c.ApplyAndRun([]string{"final_time", "steam_temperature"}, []float64{10.0, 160.0}, false)
	if err != nil {
		t.Fatalf("ApplyAndRun: %v", err)
	}
	if value != 0.4 {
		t.Errorf("objective = %v, want 0.4", value)
	}
	if pt.setCalls["final_time"] != 10.0 || pt.setCalls["steam_temperature"] != 160.0 {
		t.Errorf("controls not applied: %v", pt.setCalls)
	}

	if _, _, err := c.ApplyAndRun([]string{"final_time"}, []float64{10.0, 20.0}, false); err == nil {
		t.Error("mismatched names/values should fail")
	}
}
