// Package errors defines the error taxonomy for the analytics pipeline.
//
// Only two families are fatal: load errors (missing file, exhausted
// encodings, absent required column) and config errors (malformed rules,
// unknown columns). Data-quality findings and computation degeneracies are
// absorbed into reports and fallback values, never raised.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Callers match with errors.Is.
var (
	// ErrFileNotFound indicates a source table could not be located.
	ErrFileNotFound = errors.New("source file not found")

	// ErrEncoding indicates every candidate encoding failed to decode the file.
	ErrEncoding = errors.New("all candidate encodings exhausted")

	// ErrSchemaMismatch indicates a required column is absent after renaming.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrTimeout indicates a load exceeded its configured deadline.
	ErrTimeout = errors.New("load timed out")

	// ErrConfig indicates the configuration itself is malformed. Fatal at
	// startup, never deferred to request time.
	ErrConfig = errors.New("invalid configuration")
)

// LoadError wraps a failure to ingest one source table. The table pipeline
// run that hit it is aborted; other tables are unaffected.
type LoadError struct {
	Table string
	Kind  error
	Err   error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %v: %v", e.Table, e.Kind, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Table, e.Kind)
}

// Unwrap exposes the sentinel kind for errors.Is matching.
func (e *LoadError) Unwrap() error { return e.Kind }

// NewLoadError builds a LoadError for the given table and kind.
func NewLoadError(table string, kind, err error) *LoadError {
	return &LoadError{Table: table, Kind: kind, Err: err}
}

// ConfigError reports a malformed configuration element.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Unwrap ties every ConfigError to the ErrConfig sentinel.
func (e *ConfigError) Unwrap() error { return ErrConfig }

// NewConfigError builds a ConfigError for the given field.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}
