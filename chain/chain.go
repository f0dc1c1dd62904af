// Package chain tracks the ordered sequence of task Results produced while
// running a workflow, plus the shared flowcontext.Context those tasks read
// and write. Rollback needs a second, independent ordering — completion
// order, not declaration order — because a parallel group can finish its
// members in any order and rollback must undo what actually ran first-in,
// last-out.
package chain

import (
	"github.com/google/uuid"

	"github.com/lucianlature/cero/flowcontext"
	"github.com/lucianlature/cero/result"
)

// Chain is a single run of a workflow: an identity, the shared context every
// task in the run reads and writes, and the accumulating list of Results.
type Chain struct {
	id              string
	context         *flowcontext.Context
	results         []*result.Result
	completionOrder []*result.Result
}

// New starts a Chain with a freshly generated id and an empty shared
// context.
func New() *Chain {
	return &Chain{
		id:      uuid.NewString(),
		context: flowcontext.New(),
	}
}

// NewWithContext starts a Chain that shares the given Context instead of
// creating a new one, used when a workflow step nests another workflow and
// wants the nested run to see the parent's accumulated data.
func NewWithContext(ctx *flowcontext.Context) *Chain {
	return &Chain{
		id:      uuid.NewString(),
		context: ctx,
	}
}

func (c *Chain) ID() string                    { return c.id }
func (c *Chain) Context() *flowcontext.Context { return c.context }

// Append records r as the next Result in declaration order and, since
// Append is called exactly when a task finishes, also appends it to the
// completion order.
func (c *Chain) Append(r *result.Result) {
	c.results = append(c.results, r)
	c.completionOrder = append(c.completionOrder, r)
}

// AppendGroup records the Results of a parallel group in one call: declared
// (sorted by original step index) and completed (actual finish order, which
// can differ from declared order since goroutines race) are recorded
// separately, unlike Append which treats its single call as both.
func (c *Chain) AppendGroup(declared []*result.Result, completed []*result.Result) {
	c.results = append(c.results, declared...)
	c.completionOrder = append(c.completionOrder, completed...)
}

// Results returns every Result recorded so far, in declaration order.
func (c *Chain) Results() []*result.Result {
	out := make([]*result.Result, len(c.results))
	copy(out, c.results)
	return out
}

// CompletionOrder returns every Result in the order their tasks finished.
func (c *Chain) CompletionOrder() []*result.Result {
	out := make([]*result.Result, len(c.completionOrder))
	copy(out, c.completionOrder)
	return out
}

// ReverseCompletionOrder returns Results in last-finished-first order, the
// order rollback hooks must run in: undo the most recently completed work
// first.
func (c *Chain) ReverseCompletionOrder() []*result.Result {
	src := c.completionOrder
	out := make([]*result.Result, len(src))
	for i, r := range src {
		out[len(src)-1-i] = r
	}
	return out
}

// Get returns the Result for taskID, if one has been recorded.
func (c *Chain) Get(taskID string) (*result.Result, bool) {
	for _, r := range c.results {
		if r.TaskID() == taskID {
			return r, true
		}
	}
	return nil, false
}

// ReplaceLast swaps the most recently appended Result for taskID with an
// updated copy (e.g. after marking it RolledBack), in both orderings.
func (c *Chain) ReplaceLast(taskID string, updated *result.Result) {
	for i := len(c.results) - 1; i >= 0; i-- {
		if c.results[i].TaskID() == taskID {
			c.results[i] = updated
			break
		}
	}
	for i := len(c.completionOrder) - 1; i >= 0; i-- {
		if c.completionOrder[i].TaskID() == taskID {
			c.completionOrder[i] = updated
			break
		}
	}
}

// AggregateStatus collapses every recorded Result into a single Status
// using "failed dominates": a chain or group that contains any failure is
// failed overall, otherwise any skip makes it skipped, otherwise success.
func (c *Chain) AggregateStatus() result.Status {
	if len(c.results) == 0 {
		return result.StatusPending
	}
	sawSkipped := false
	for _, r := range c.results {
		switch r.Status() {
		case result.StatusFailed:
			return result.StatusFailed
		case result.StatusSkipped:
			sawSkipped = true
		}
	}
	if sawSkipped {
		return result.StatusSkipped
	}
	return result.StatusSuccess
}
