package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseCaseYAML parses a Case from YAML bytes and validates it.
func ParseCaseYAML(data []byte) (*Case, error) {
	c := Case{
		LogLevel:   "info",
		ParamsFile: "ve_params.yaml",
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse case yaml: %w", err)
	}

	if err := validateCase(&c); err != nil {
		return nil, fmt.Errorf("invalid case: %w", err)
	}

	return &c, nil
}

// ParseCaseYAMLString parses a Case from a YAML string and validates it.
func ParseCaseYAMLString(yamlText string) (*Case, error) {
	return ParseCaseYAML([]byte(yamlText))
}
