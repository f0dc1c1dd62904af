package workflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/lucianlature/cero/chain"
	"github.com/lucianlature/cero/flowcontext"
	"github.com/lucianlature/cero/result"
	"github.com/lucianlature/cero/task"
)

// workflowHandle adapts a Step tree to task.Handle: its Work drives the
// declared steps against the task's own shared context, the same way
// task.Execute drives a single Handle's Work, so a workflow nests inside
// another workflow exactly like any other task.
type workflowHandle struct {
	steps []Step
}

func (h *workflowHandle) Work(ctx context.Context, t *task.Instance) error {
	c := chain.NewWithContext(t.Context())
	runner := &Runner{c: c, handles: make(map[string]handleRecord)}

	if err := runner.runSequential(ctx, h.steps); err != nil {
		return err
	}

	childResults := make([]map[string]any, 0, len(c.Results()))
	for _, res := range c.Results() {
		childResults = append(childResults, map[string]any{
			"task_type": res.TaskType(),
			"status":    string(res.Status()),
			"reason":    res.Reason(),
		})
	}
	t.SetResultMetadata(map[string]any{"results": childResults})

	switch c.AggregateStatus() {
	case result.StatusFailed:
		return t.Fail("child task failed", map[string]any{"results": childResults})
	case result.StatusSkipped:
		return t.Skip("a child task skipped and none failed", nil)
	default:
		return nil
	}
}

// AsTask wraps steps as a task.Descriptor named name, so a workflow can be
// declared as one TaskStep inside a larger workflow. Its Result's context is
// the shared flowcontext.Context that steps ran against; its metadata
// exposes every child Result in declaration order, regardless of whether the
// workflow itself ultimately succeeds, skips, or fails.
func AsTask(name string, steps []Step) *task.Descriptor {
	return task.Define(name).Handler(func() task.Handle {
		return &workflowHandle{steps: steps}
	})
}

// Execute runs steps as a standalone workflow and returns its Result in the
// same shape task.Execute produces for a single task — a workflow is a task
// whose work happens to drive a declared steps list.
func Execute(ctx context.Context, name string, steps []Step, raw map[string]any) (*result.Result, error) {
	d := AsTask(name, steps)
	r, _, _, err := task.Execute(ctx, uuid.NewString(), 0, d, raw, flowcontext.New())
	return r, err
}
