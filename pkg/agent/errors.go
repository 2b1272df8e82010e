package agent

import "fmt"

// UnknownToolError is returned when the model requests a tool the
// registry never registered. The loop reports it back to the model as
// a failed call instead of aborting the run.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// InvalidToolArgumentsError is returned when the model's arguments do
// not satisfy the tool's parameter schema.
type InvalidToolArgumentsError struct {
	Name string
	Err  error
}

func (e *InvalidToolArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %v", e.Name, e.Err)
}

func (e *InvalidToolArgumentsError) Unwrap() error {
	return e.Err
}
