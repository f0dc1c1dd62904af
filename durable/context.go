package durable

import (
	"context"
	"sync"
	"time"

	"github.com/lucianlature/cero/cerror"
	"github.com/lucianlature/cero/flowcontext"
	"github.com/lucianlature/cero/result"
	"github.com/lucianlature/cero/task"
)

// contextHooks lets Context drive its owning Handle's event log and
// checkpoint policy without importing durable's own Handle type back (it
// already lives in the same package, but keeping the dependency as a small
// struct of closures instead of a *Handle field keeps Context constructible
// and testable without a running Handle at all).
type contextHooks struct {
	emitEvent     func(eventType WorkflowEventType, payload map[string]any)
	checkpoint    func()
	stepCommitted func()
}

// Context is what a WorkflowFunc uses to read/write durable state, run
// durable steps, and suspend itself on a condition, a timer, or an incoming
// signal. Signals arrive only through the Handle's single dispatcher
// goroutine; state is written by the workflow function (Set, RunTask). The
// mutex guards both against concurrent access from those goroutines and
// from query callers.
type Context struct {
	Go context.Context

	mu            sync.Mutex
	workflowID    string
	state         map[string]any
	signals       map[string][]any
	queryHandlers map[string]func() any
	wake          chan struct{}

	hooks  contextHooks
	replay map[int]WorkflowEvent
}

func newContext(goCtx context.Context, workflowID string) *Context {
	return &Context{
		Go:            goCtx,
		workflowID:    workflowID,
		state:         make(map[string]any),
		signals:       make(map[string][]any),
		queryHandlers: make(map[string]func() any),
		wake:          make(chan struct{}),
		replay:        make(map[int]WorkflowEvent),
		hooks: contextHooks{
			emitEvent:     func(WorkflowEventType, map[string]any) {},
			checkpoint:    func() {},
			stepCommitted: func() {},
		},
	}
}

// WorkflowID returns the identity of the running workflow.
func (c *Context) WorkflowID() string { return c.workflowID }

// Set stores value in durable state under key, included in the next
// checkpoint.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[key] = value
}

// Get reads key from durable state.
func (c *Context) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.state[key]
	return v, ok
}

// snapshot returns a copy of durable state for checkpointing.
func (c *Context) snapshot() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.state))
	for k, v := range c.state {
		out[k] = v
	}
	return out
}

// restore replaces durable state wholesale, used when resuming from a
// checkpoint.
func (c *Context) restore(state map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// mergeState folds delta into durable state without discarding the rest,
// used after a durable step runs so a step's flowcontext writes land in the
// workflow's checkpointed state alongside whatever Set already put there.
func (c *Context) mergeState(delta map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range delta {
		c.state[k] = v
	}
}

// seedReplay registers a historical step.completed/step.failed event so a
// future RunTask call at the same index resolves from history instead of
// re-executing. Populated by ResumeWorkflow before the workflow function
// runs again.
func (c *Context) seedReplay(index int, e WorkflowEvent) {
	c.replay[index] = e
}

func (c *Context) replayedStep(index int) (WorkflowEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.replay[index]
	return e, ok
}

// reapplyStep reconstructs an approximate Result from a recorded
// step.completed/step.failed event, without re-running the task: the
// engine's replay contract only needs the terminal status, reason, and
// context delta that already landed in durable state via mergeState when
// the step first ran, not a byte-identical Result to the one produced live.
func (c *Context) reapplyStep(e WorkflowEvent) *result.Result {
	taskType, _ := e.Payload["task_type"].(string)
	reason, _ := e.Payload["reason"].(string)
	index, _ := e.Payload["index"].(int)

	status := result.StatusSuccess
	if raw, ok := e.Payload["status"].(string); ok {
		status = result.Status(raw)
	}
	if e.Type == EventStepFailed {
		status = result.StatusFailed
	}

	return result.NewBuilder(c.workflowID, c.workflowID, taskType, index).
		State(result.StateComplete).
		Status(status).
		Reason(reason).
		Started(e.Timestamp).
		Ended(e.Timestamp).
		Freeze()
}

// RunTask executes d as a durable step at position index: its attributes
// merge shared durable state with raw overrides the same way a workflow
// step merges flowcontext, its result's context delta folds back into
// durable state, and step.scheduled/step.completed/step.failed events bound
// it in the workflow's history. If index was already recorded by a prior
// run (seeded via ResumeWorkflow), the recorded outcome is reapplied instead
// of re-executing — steps must be deterministically ordered by the calling
// WorkflowFunc for this to line up correctly on replay.
func (c *Context) RunTask(goCtx context.Context, index int, d *task.Descriptor, raw map[string]any) (*result.Result, error) {
	if e, ok := c.replayedStep(index); ok {
		return c.reapplyStep(e), nil
	}

	merged := make(map[string]any, len(d.Attributes())+len(raw))
	for _, attr := range d.Attributes() {
		if v, ok := c.Get(attr.Name); ok {
			merged[attr.Name] = v
		}
	}
	for k, v := range raw {
		merged[k] = v
	}

	c.hooks.emitEvent(EventStepScheduled, map[string]any{"index": index, "task_type": d.Name})

	flowCtx := flowcontext.FromMap(c.snapshot())
	r, _, _, err := task.Execute(goCtx, c.workflowID, index, d, merged, flowCtx)
	if err != nil {
		return r, err
	}

	c.mergeState(flowCtx.Snapshot())

	payload := map[string]any{"index": index, "task_type": d.Name, "status": string(r.Status()), "reason": r.Reason()}
	if r.Failed() {
		c.hooks.emitEvent(EventStepFailed, payload)
	} else {
		c.hooks.emitEvent(EventStepCompleted, payload)
	}
	c.hooks.stepCommitted()

	return r, nil
}

// deliverSignal is called only by the Handle's dispatcher goroutine: it
// queues the signal and wakes anyone blocked in Condition or WaitSignal.
func (c *Context) deliverSignal(name string, payload any) {
	c.mu.Lock()
	c.signals[name] = append(c.signals[name], payload)
	old := c.wake
	c.wake = make(chan struct{})
	c.mu.Unlock()
	close(old)
}

// DefineQuery registers handler under name. Queries are answered directly
// against live state — read-only, so no coordination with the workflow
// goroutine is needed beyond the mutex Get/Set already take.
func (c *Context) DefineQuery(name string, handler func() any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queryHandlers[name] = handler
}

// answerQuery is called by the Handle on behalf of an external caller.
func (c *Context) answerQuery(name string) (any, bool) {
	c.mu.Lock()
	handler, ok := c.queryHandlers[name]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	return handler(), true
}

// WaitSignal blocks until a signal named name has arrived, then returns and
// consumes its oldest queued payload (FIFO). It returns early with an error
// if Go is cancelled first.
func (c *Context) WaitSignal(name string) (any, error) {
	for {
		c.mu.Lock()
		queue := c.signals[name]
		if len(queue) > 0 {
			c.signals[name] = queue[1:]
			payload := queue[0]
			c.mu.Unlock()
			return payload, nil
		}
		wake := c.wake
		c.mu.Unlock()

		select {
		case <-wake:
			continue
		case <-c.Go.Done():
			return nil, &cerror.TimeoutError{Op: "signal.wait", Waiting: name, Err: c.Go.Err()}
		}
	}
}

// Condition blocks until predicate returns true, re-evaluating it every
// time a signal arrives, up to timeout (zero or negative means wait
// indefinitely). Application workflow code calls it when it needs to wait
// on arbitrary accumulated state rather than one specific signal
// (WaitSignal) or a fixed delay (Sleep). Unlike WaitSignal, a Condition
// timing out is not an
// error: it resolves false so the workflow function can decide what a
// timed-out wait means for it (fail, retry, take a different branch).
func (c *Context) Condition(predicate func() bool, timeout time.Duration) (bool, error) {
	if predicate() {
		return true, nil
	}

	c.hooks.emitEvent(EventConditionScheduled, map[string]any{"timeout_ms": timeout.Milliseconds()})
	c.hooks.checkpoint()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		if predicate() {
			c.hooks.emitEvent(EventConditionSatisfied, nil)
			return true, nil
		}

		c.mu.Lock()
		wake := c.wake
		c.mu.Unlock()

		select {
		case <-wake:
			continue
		case <-deadline:
			c.hooks.emitEvent(EventConditionTimeout, nil)
			return false, nil
		case <-c.Go.Done():
			return false, &cerror.TimeoutError{Op: "condition.wait", Waiting: "predicate", Err: c.Go.Err()}
		}
	}
}

// Sleep suspends the workflow for d, or until Go is cancelled.
func (c *Context) Sleep(d time.Duration) error {
	c.hooks.emitEvent(EventSleepScheduled, map[string]any{"duration_ms": d.Milliseconds()})
	c.hooks.checkpoint()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		c.hooks.emitEvent(EventSleepCompleted, nil)
		return nil
	case <-c.Go.Done():
		return &cerror.TimeoutError{Op: "sleep", Waiting: d.String(), Err: c.Go.Err()}
	}
}
