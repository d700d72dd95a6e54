package search

import "fmt"

// ConfigurationError reports a search setup that can never produce a
// usable run, such as a case with no free control variables.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("search configuration: %s", e.Reason)
}

// FatalComputationError reports a pipeline evaluation whose result makes
// continuing the search meaningless.
type FatalComputationError struct {
	Reason string
}

func (e *FatalComputationError) Error() string {
	return fmt.Sprintf("fatal computation: %s", e.Reason)
}
