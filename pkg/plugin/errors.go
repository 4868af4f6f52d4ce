package plugin

import (
	"fmt"
)

// LoadErrorKind classifies failures of the load pipeline.
type LoadErrorKind string

const (
	LoadNotFound      LoadErrorKind = "not_found"
	LoadReadError     LoadErrorKind = "read_error"
	LoadInstantiation LoadErrorKind = "instantiation_error"
	LoadInit          LoadErrorKind = "init_error"
	LoadValidation    LoadErrorKind = "validation_error"
	LoadConflict      LoadErrorKind = "conflict"
)

// LoadError is the structured result of a failed load. Field is set for
// validation failures and names the offending piece of metadata.
type LoadError struct {
	Kind   LoadErrorKind
	Path   string
	Plugin string
	Field  string
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s: %s", e.Path, e.Kind)
	if e.Plugin != "" {
		msg += fmt.Sprintf(" (plugin %q)", e.Plugin)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %s)", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// DispatchErrorKind classifies failures of command dispatch.
type DispatchErrorKind string

const (
	DispatchUnknownCommand   DispatchErrorKind = "unknown_command"
	DispatchAmbiguousCommand DispatchErrorKind = "ambiguous_command"
	DispatchPluginFault      DispatchErrorKind = "plugin_fault"
)

// DispatchError is the structured result of a failed dispatch.
// Candidates is populated for ambiguous commands and lists the qualified
// names that would disambiguate the call.
type DispatchError struct {
	Kind       DispatchErrorKind
	Command    string
	Plugin     string
	Candidates []string
	Err        error
}

func (e *DispatchError) Error() string {
	switch e.Kind {
	case DispatchUnknownCommand:
		return fmt.Sprintf("unknown command %q", e.Command)
	case DispatchAmbiguousCommand:
		return fmt.Sprintf("command %q is ambiguous, use one of %v", e.Command, e.Candidates)
	case DispatchPluginFault:
		msg := fmt.Sprintf("plugin %q faulted running %q", e.Plugin, e.Command)
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	default:
		return fmt.Sprintf("dispatch %q: %s", e.Command, e.Kind)
	}
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
