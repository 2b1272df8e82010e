package retrieval

import "fmt"

// Error wraps the failure of a single retrieval source. Callers degrade
// to the remaining sources; it is only fatal when no source produced
// anything and the caller decides so.
type Error struct {
	Source SourceType
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("retrieval source %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
