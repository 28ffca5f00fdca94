package modules

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotRegistered is the cause when a module name has no registry entry.
	ErrNotRegistered = errors.New("module not registered")

	// ErrMissingExports is the cause when a fetched module lacks a declared export.
	ErrMissingExports = errors.New("module is missing expected exports")

	// ErrNoSource is the cause when no source could provide the module.
	ErrNoSource = errors.New("no module source configured")
)

// LoaderError reports a failed load together with the module it concerns.
type LoaderError struct {
	Module string
	Cause  error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("failed to load module %q: %v", e.Module, e.Cause)
}

func (e *LoaderError) Unwrap() error {
	return e.Cause
}

// CycleError indicates a dependency cycle in the registry.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}
