package codegen

import (
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/runner"
)

// GenerationError means no code could be produced: the scenario's project
// could not be loaded, or the model run that writes or repairs code failed.
type GenerationError struct {
	Attempt int
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("code generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ExecutionError means generated code could not be made to pass. Result is
// the last run; it is nil when the runner itself could not start.
type ExecutionError struct {
	Attempts int
	Code     string
	Result   *runner.Result
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code execution failed: %v", e.Err)
	}
	msg := "unknown failure"
	if e.Result != nil {
		msg = e.Result.ErrorMessage()
	}
	return fmt.Sprintf("code execution failed: %s (after %d attempts)", msg, e.Attempts)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
