package ir

import "context"

// Executor runs a lowered application. Execution engines live outside
// this module; the compiler only guarantees that the tree handed to an
// Executor is fully linked and semantically checked.
type Executor interface {
	// Execute runs the named flow with the given input values and returns
	// the produced output values.
	Execute(ctx context.Context, app *Application, flow string, inputs map[string]any) (map[string]any, error)
}
