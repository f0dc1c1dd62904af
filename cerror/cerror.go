// Package cerror defines the error types shared by the task and durable
// packages. Where an engine error is wrapped in a CeroError (rollback hook
// failures, unknown durable queries), callers can use errors.As to recover
// the failing task/chain identity; TimeoutError and the plain errors some
// packages return are not wrapped in one.
package cerror

import "fmt"

// CeroError is the base error every engine-raised error embeds. TaskID and
// ChainID are optional — populated wherever the failure is already scoped to
// a task, left empty for chain- or registry-level failures.
type CeroError struct {
	TaskID  string
	ChainID string
	Op      string
	Err     error
}

func (e *CeroError) Error() string {
	switch {
	case e.TaskID != "" && e.Op != "":
		return fmt.Sprintf("cero: %s: task %s: %v", e.Op, e.TaskID, e.Err)
	case e.Op != "":
		return fmt.Sprintf("cero: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("cero: %v", e.Err)
	}
}

func (e *CeroError) Unwrap() error { return e.Err }

// TimeoutError reports that a blocking operation (a task's work step, a
// durable condition, a sleep) exceeded its deadline.
type TimeoutError struct {
	Op      string
	Waiting string
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("cero: %s: timed out waiting for %s: %v", e.Op, e.Waiting, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// New wraps err as a CeroError scoped to op.
func New(op string, err error) *CeroError {
	return &CeroError{Op: op, Err: err}
}

// Task wraps err as a CeroError scoped to op and a specific task.
func Task(op, taskID, chainID string, err error) *CeroError {
	return &CeroError{Op: op, TaskID: taskID, ChainID: chainID, Err: err}
}
