// Package task implements the task lifecycle engine: attribute binding,
// middleware dispatch, work execution, and result production for a single
// task within a chain. Sequencing many tasks together is the workflow
// package's job; this package only knows how to run one.
package task

import (
	"context"

	"github.com/lucianlature/cero/attribute"
	"github.com/lucianlature/cero/config"
	"github.com/lucianlature/cero/fault"
	"github.com/lucianlature/cero/flowcontext"
	"github.com/lucianlature/cero/result"
)

// Handle is the work a task performs. Work receives the running Instance so
// it can read resolved attributes and the shared flowcontext.Context, and
// write results back into the context for later tasks.
type Handle interface {
	Work(ctx context.Context, t *Instance) error
}

// Rollbackable is implemented by a Handle that can undo its own effects.
// task.Execute never calls Rollback itself — it is invoked by the workflow
// package when a chain-level rollback policy fires.
type Rollbackable interface {
	Rollback(ctx context.Context, t *Instance) error
}

// HandleFunc adapts a plain function to Handle.
type HandleFunc func(ctx context.Context, t *Instance) error

func (f HandleFunc) Work(ctx context.Context, t *Instance) error { return f(ctx, t) }

// Factory constructs a fresh Handle for each task run, so a Handle can hold
// per-run state without tasks of the same type racing on a shared instance.
type Factory func() Handle

// LifecycleCallback runs before a task's middleware chain. It may return a
// *fault.SkipFault or *fault.FailFault to abort the task before Work ever
// runs (e.g. an idempotency check that finds the work already done); any
// other error is treated the same as a failed work step.
type LifecycleCallback func(ctx context.Context, t *Instance) error

// ResultCallback runs after a task reaches a terminal Result. Unlike
// LifecycleCallback it cannot change the outcome — the Result is already
// frozen by the time it's called.
type ResultCallback func(ctx context.Context, t *Instance, r *result.Result)

// Descriptor declares a task type: its name, the attributes it accepts, and
// the Handle it dispatches to, plus the named lifecycle hooks that run
// around it. Built fluently with Define.
type Descriptor struct {
	Name        string
	attributes  []*attribute.Descriptor
	middlewares []config.Middleware
	factory     Factory

	beforeExecution []LifecycleCallback
	onSuccess       []ResultCallback
	onSkipped       []ResultCallback
	onFailed        []ResultCallback
	onComplete      []ResultCallback
	afterExecution  []ResultCallback
}

// Define starts building a Descriptor named name.
func Define(name string) *Descriptor {
	return &Descriptor{Name: name}
}

// Attribute declares one attribute the task accepts.
func (d *Descriptor) Attribute(attr *attribute.Descriptor) *Descriptor {
	d.attributes = append(d.attributes, attr)
	return d
}

// Attributes returns every attribute.Descriptor declared on d, in
// declaration order. Used by the workflow package to merge a shared
// flowcontext.Context into a step's raw attributes by name.
func (d *Descriptor) Attributes() []*attribute.Descriptor {
	return d.attributes
}

// Middleware registers middleware scoped to this task type only, run inside
// any process-wide middleware registered via config.
func (d *Descriptor) Middleware(mw config.Middleware) *Descriptor {
	d.middlewares = append(d.middlewares, mw)
	return d
}

// Handler sets the Factory used to construct this task's Handle.
func (d *Descriptor) Handler(factory Factory) *Descriptor {
	d.factory = factory
	return d
}

// HandlerFunc is a convenience for Handler that wraps a plain function.
func (d *Descriptor) HandlerFunc(fn func(ctx context.Context, t *Instance) error) *Descriptor {
	return d.Handler(func() Handle { return HandleFunc(fn) })
}

// BeforeExecution registers a hook that runs before attribute binding's
// downstream middleware chain, in registration order. The first one to
// return a fault aborts the remaining hooks and the task itself.
func (d *Descriptor) BeforeExecution(cb LifecycleCallback) *Descriptor {
	d.beforeExecution = append(d.beforeExecution, cb)
	return d
}

// OnSuccess registers a hook run only when the task's Result is successful.
func (d *Descriptor) OnSuccess(cb ResultCallback) *Descriptor {
	d.onSuccess = append(d.onSuccess, cb)
	return d
}

// OnSkipped registers a hook run only when the task's Result is skipped.
func (d *Descriptor) OnSkipped(cb ResultCallback) *Descriptor {
	d.onSkipped = append(d.onSkipped, cb)
	return d
}

// OnFailed registers a hook run only when the task's Result is failed.
func (d *Descriptor) OnFailed(cb ResultCallback) *Descriptor {
	d.onFailed = append(d.onFailed, cb)
	return d
}

// OnComplete registers a hook run after any terminal Result, regardless of
// status, after the status-specific hook above has run.
func (d *Descriptor) OnComplete(cb ResultCallback) *Descriptor {
	d.onComplete = append(d.onComplete, cb)
	return d
}

// AfterExecution registers the final hook run for a task, after onComplete
// and after config's process-wide/task-scoped Callback list.
func (d *Descriptor) AfterExecution(cb ResultCallback) *Descriptor {
	d.afterExecution = append(d.afterExecution, cb)
	return d
}

// Instance is a single running (or completed) task: its identity, the
// chain-shared context, and its resolved attributes.
type Instance struct {
	ID         string
	ChainID    string
	TaskType   string
	descriptor *Descriptor
	context    *flowcontext.Context
	attrs      map[string]any
	retries    int

	resultMetadata map[string]any
}

func newInstance(id, chainID string, d *Descriptor, ctx *flowcontext.Context, attrs map[string]any) *Instance {
	return &Instance{
		ID:         id,
		ChainID:    chainID,
		TaskType:   d.Name,
		descriptor: d,
		context:    ctx,
		attrs:      attrs,
	}
}

// Attr returns the resolved value of a declared attribute.
func (t *Instance) Attr(name string) (any, bool) {
	v, ok := t.attrs[name]
	return v, ok
}

// Context returns the chain-shared flowcontext.Context.
func (t *Instance) Context() *flowcontext.Context { return t.context }

// Retries returns how many times this task has previously been retried.
func (t *Instance) Retries() int { return t.retries }

// SetResultMetadata attaches md to the Result this Instance will produce,
// whatever its eventual status. Used by a Handle that wraps other work (for
// example a workflow running as a task) and needs to expose its own
// structured summary regardless of whether it succeeds, skips, or fails.
func (t *Instance) SetResultMetadata(md map[string]any) {
	t.resultMetadata = md
}

// Skip interrupts the current work step with a skipped outcome. A Handle
// calling Skip should return the resulting error immediately.
func (t *Instance) Skip(reason string, metadata map[string]any) error {
	return fault.NewSkip(reason, metadata)
}

// Fail interrupts the current work step with a failed outcome. A Handle
// calling Fail should return the resulting error immediately.
func (t *Instance) Fail(reason string, metadata map[string]any) error {
	return fault.NewFail(reason, metadata)
}
