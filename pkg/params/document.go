// Package params manages the shared configuration document that couples
// the pipeline stages together. Each stage writes its input section before
// running and its output section after running; downstream stages read the
// upstream outputs from the same document. The document is persisted as a
// single YAML file whose lifecycle spans one full driver session.
package params

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Well-known section names, keyed by stage.
const (
	SectionFeedstock          = "feedstock"
	SectionPretreatmentInput  = "pretreatment_input"
	SectionPretreatmentOutput = "pretreatment_output"
	SectionEnzymaticInput     = "enzymatic_input"
	SectionEnzymaticOutput    = "enzymatic_output"
	SectionBioreactorInput    = "bioreactor_input"
	SectionBioreactorOutput   = "bioreactor_output"
)

// Document is a hierarchical key/value structure keyed by stage section.
// It is not safe for concurrent use; the pipeline is strictly sequential
// and there is never more than one writer.
type Document struct {
	path     string
	sections map[string]map[string]any
}

// New creates an empty document that will persist to the given path.
func New(path string) *Document {
	return &Document{
		path:     path,
		sections: make(map[string]map[string]any),
	}
}

// Load reads a document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read params file %s: %w", path, err)
	}
	sections := make(map[string]map[string]any)
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("failed to parse params file %s: %w", path, err)
	}
	return &Document{path: path, sections: sections}, nil
}

// Path returns the file path the document persists to.
func (d *Document) Path() string {
	return d.path
}

// SetSection replaces a single section, leaving every other section intact.
func (d *Document) SetSection(name string, values map[string]any) {
	section := make(map[string]any, len(values))
	for k, v := range values {
		section[k] = v
	}
	d.sections[name] = section
}

// SetFloats replaces a section with float-valued entries.
func (d *Document) SetFloats(name string, values map[string]float64) {
	section := make(map[string]any, len(values))
	for k, v := range values {
		section[k] = v
	}
	d.sections[name] = section
}

// Section returns a copy of the named section.
func (d *Document) Section(name string) (map[string]any, bool) {
	section, ok := d.sections[name]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(section))
	for k, v := range section {
		out[k] = v
	}
	return out, true
}

// Float reads a numeric value from a section.
func (d *Document) Float(section, key string) (float64, error) {
	s, ok := d.sections[section]
	if !ok {
		return 0, fmt.Errorf("params section %q does not exist", section)
	}
	v, ok := s[key]
	if !ok {
		return 0, fmt.Errorf("params key %q does not exist in section %q", key, section)
	}
	f, ok := asFloat(v)
	if !ok {
		return 0, fmt.Errorf("params key %q in section %q is not numeric (got %T)", key, section, v)
	}
	return f, nil
}

// String reads a string value from a section.
func (d *Document) String(section, key string) (string, error) {
	s, ok := d.sections[section]
	if !ok {
		return "", fmt.Errorf("params section %q does not exist", section)
	}
	v, ok := s[key]
	if !ok {
		return "", fmt.Errorf("params key %q does not exist in section %q", key, section)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("params key %q in section %q is not a string (got %T)", key, section, v)
	}
	return str, nil
}

// HasNaN reports whether any numeric value in the named section is NaN.
// A missing section reports false.
func (d *Document) HasNaN(section string) bool {
	s, ok := d.sections[section]
	if !ok {
		return false
	}
	for _, v := range s {
		if f, ok := asFloat(v); ok && math.IsNaN(f) {
			return true
		}
	}
	return false
}

// Save writes the whole document back to its file.
func (d *Document) Save() error {
	data, err := yaml.Marshal(d.sections)
	if err != nil {
		return fmt.Errorf("failed to marshal params document: %w", err)
	}
	if err := os.WriteFile(d.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write params file %s: %w", d.path, err)
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
