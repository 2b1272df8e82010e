package llm

import "fmt"

// ProviderError wraps failures of the underlying model backend.
// It is fatal for the run that triggered it; retries, if any, are the
// caller's concern.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
