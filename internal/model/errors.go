package model

import (
	"fmt"
	"strings"
)

// SourceReadError means a source file is missing, unreadable or not tabular.
type SourceReadError struct {
	Path string
	Err  error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Path, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// ConfigurationError lists every invalid pipeline parameter found.
type ConfigurationError struct {
	Problems []string
}

// NewConfigurationError builds a ConfigurationError from one formatted problem.
func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Problems: []string{fmt.Sprintf(format, args...)}}
}

func (e *ConfigurationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid configuration: " + e.Problems[0]
	}
	return "invalid configuration:\n- " + strings.Join(e.Problems, "\n- ")
}

// InsufficientDataError means clustering was asked for more clusters than
// there are distinct titles carrying at least one informative token.
type InsufficientDataError struct {
	Requested int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d clusters requested, only %d informative distinct titles",
		e.Requested, e.Available)
}
