// Package workflow generalizes the engine's sequential and parallel task
// processors into a single Step tree: a workflow is an ordered list of
// Steps, each either a single task or a nested Group that fans its own
// Steps out sequentially or in parallel.
package workflow

import "github.com/lucianlature/cero/task"

// Strategy selects how a Group's Steps are run.
type Strategy int

const (
	Sequential Strategy = iota
	Parallel
)

// Step is one unit of a workflow: either a TaskStep or a Group.
type Step interface {
	isStep()
}

// TaskStep runs a single task.Descriptor with the given raw attributes.
type TaskStep struct {
	Descriptor *task.Descriptor
	Raw        map[string]any
}

func (TaskStep) isStep() {}

// Task is a convenience constructor for TaskStep.
func Task(d *task.Descriptor, raw map[string]any) TaskStep {
	return TaskStep{Descriptor: d, Raw: raw}
}

// Group runs its Steps according to Strategy: Sequential runs them one
// after another, stopping early if a breakpoint fires; Parallel runs them
// concurrently and waits for all to finish regardless of individual
// failures, matching how a fan-out batch job can't "stop early" once
// dispatched.
type Group struct {
	Steps    []Step
	Strategy Strategy
}

func (Group) isStep() {}

// Seq builds a Sequential Group.
func Seq(steps ...Step) Group {
	return Group{Steps: steps, Strategy: Sequential}
}

// Par builds a Parallel Group.
func Par(steps ...Step) Group {
	return Group{Steps: steps, Strategy: Parallel}
}
