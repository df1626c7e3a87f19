package errors

import "fmt"

// UnsupportedProviderError indicates a repository configuration names a Git
// provider the fetch layer does not know. This is a caller bug, not transient
// external state, so it is the one fetch-side error allowed to surface.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported git provider: %q", e.Provider)
}

// NewUnsupportedProviderError creates a new UnsupportedProviderError
func NewUnsupportedProviderError(provider string) *UnsupportedProviderError {
	return &UnsupportedProviderError{Provider: provider}
}

// AnalyzerNotConfiguredError indicates the LLM analyzer cannot be built from
// the current configuration.
type AnalyzerNotConfiguredError struct {
	Provider string
	Reason   string
}

func (e *AnalyzerNotConfiguredError) Error() string {
	return fmt.Sprintf("analyzer %q not configured: %s", e.Provider, e.Reason)
}

// NewAnalyzerNotConfiguredError creates a new AnalyzerNotConfiguredError
func NewAnalyzerNotConfiguredError(provider, reason string) *AnalyzerNotConfiguredError {
	return &AnalyzerNotConfiguredError{Provider: provider, Reason: reason}
}

// StoreError wraps a persistence failure with the operation that caused it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error [%s]: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}
