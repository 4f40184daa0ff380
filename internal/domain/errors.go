package domain

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an invalid run configuration. It is raised
// before any input file is opened.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UnknownColumnError names a selected column that is not in the catalog.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Name)
}

// SchemaMismatchError reports a file batch whose columns differ from the
// dataset schema.
type SchemaMismatchError struct {
	Source string
	Want   []string
	Got    []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: %s: want [%s], got [%s]",
		e.Source, strings.Join(e.Want, ", "), strings.Join(e.Got, ", "))
}

// WriteError wraps an I/O failure while producing an output artifact.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
