package job

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteWithReplacements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "globalVars")
	original := strings.Join([]string{
		"// global solver settings",
		"fis0    0.01;",
		"    lmbdE    0.002;",
		"xG0    0.5;",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	err := WriteWithReplacements(path, map[string]float64{
		"fis0":  0.05,
		"lmbdE": 0.03,
	})
	if err != nil {
		t.Fatalf("WriteWithReplacements failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read back: %v", err)
	}
	text := string(data)

	if !strings.Contains(text, "fis0    0.05;") {
		t.Fatalf("fis0 not replaced, got:\n%s", text)
	}
	if !strings.Contains(text, "    lmbdE    0.03;") {
		t.Fatalf("lmbdE replacement must keep indentation, got:\n%s", text)
	}
	if !strings.Contains(text, "xG0    0.5;") {
		t.Fatalf("unmatched key must pass through, got:\n%s", text)
	}
	if !strings.Contains(text, "// global solver settings") {
		t.Fatalf("comment line must pass through, got:\n%s", text)
	}
}

func TestWriteWithReplacementsMissingFile(t *testing.T) {
	err := WriteWithReplacements(filepath.Join(t.TempDir(), "missing"), map[string]float64{"a": 1})
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
