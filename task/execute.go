package task

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lucianlature/cero/attribute"
	"github.com/lucianlature/cero/cerror"
	"github.com/lucianlature/cero/config"
	"github.com/lucianlature/cero/fault"
	"github.com/lucianlature/cero/flowcontext"
	"github.com/lucianlature/cero/observability"
	"github.com/lucianlature/cero/result"
)

const source = "task.Execute"

func emit(ctx context.Context, cfg *config.EngineConfig, eventType observability.EventType, level observability.Level, data map[string]any) {
	cfg.Observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}

// Execute resolves d's attributes against raw, runs beforeExecution hooks
// and the configured middleware chain, and always produces a terminal
// Result — attribute bind failure included. A failed bind still runs
// onFailed/onComplete and the process-wide Callback list against a
// Result with Reason "Invalid", it just never reaches Work. Execute's own
// error return is reserved for failures that prevent even a Result from
// being produced, which does not happen on any path today; it is kept so
// callers don't need to change if one is added later.
func Execute(ctx context.Context, chainID string, index int, d *Descriptor, raw map[string]any, sharedCtx *flowcontext.Context) (*result.Result, Handle, *Instance, error) {
	cfg := config.Default()
	taskID := uuid.NewString()
	meta := config.TaskMeta{TaskID: taskID, ChainID: chainID, TaskType: d.Name}

	emit(ctx, cfg, "task.bind", observability.LevelVerbose, map[string]any{"task_id": taskID, "task_type": d.Name})

	attrs, errs := attribute.Resolve(d.attributes, raw, cfg.Coercions, cfg.Validators)
	if !errs.IsEmpty() {
		emit(ctx, cfg, "task.bind.failed", observability.LevelError, map[string]any{"task_id": taskID, "error": errs.FullMessage()})

		instance := newInstance(taskID, chainID, d, sharedCtx, map[string]any{})
		r := result.NewBuilder(taskID, chainID, d.Name, index).
			Started(time.Now()).
			State(result.StateInterrupted).
			Status(result.StatusFailed).
			Reason("Invalid").
			Metadata(mergeMetadata(map[string]any{"errors": errs.FullMessage()}, instance.resultMetadata)).
			ContextSnapshot(sharedCtx.Snapshot()).
			Ended(time.Now()).
			Freeze()

		dispatchTerminalCallbacks(ctx, cfg, d, instance, meta, r)
		return r, nil, instance, nil
	}

	instance := newInstance(taskID, chainID, d, sharedCtx, attrs)

	builder := result.NewBuilder(taskID, chainID, d.Name, index).
		State(result.StateInitialized).
		Started(time.Now())

	emit(ctx, cfg, "task.before", observability.LevelVerbose, map[string]any{"task_id": taskID})

	handle := d.factory()

	for _, cb := range d.beforeExecution {
		if err := cb(ctx, instance); err != nil {
			r := finalize(ctx, cfg, builder, instance, err)
			dispatchTerminalCallbacks(ctx, cfg, d, instance, meta, r)
			return r, handle, instance, nil
		}
	}

	work := func(ctx context.Context) (*result.Result, error) {
		builder.State(result.StateExecuting)
		emit(ctx, cfg, "task.work.start", observability.LevelInfo, map[string]any{"task_id": taskID, "task_type": d.Name})

		err := handle.Work(ctx, instance)

		emit(ctx, cfg, "task.work.complete", observability.LevelInfo, map[string]any{"task_id": taskID, "error": errString(err)})
		return finalize(ctx, cfg, builder, instance, err), nil
	}

	chainFn := work
	for _, mw := range reverseMiddlewares(cfg.MiddlewaresFor(d.Name), d.middlewares) {
		next := chainFn
		m := mw
		chainFn = func(ctx context.Context) (*result.Result, error) {
			return m(ctx, meta, next)
		}
	}

	r, _ := chainFn(ctx)

	dispatchTerminalCallbacks(ctx, cfg, d, instance, meta, r)

	return r, handle, instance, nil
}

// ExecuteStrict runs Execute and re-raises a *fault.FailFault carrying the
// Result's reason and metadata whenever the Result is failed, instead of
// returning the failed Result quietly. Use it where a caller wants a
// failed task to propagate like any other raised fault rather than needing
// an explicit Result.Failed() check afterward.
func ExecuteStrict(ctx context.Context, chainID string, index int, d *Descriptor, raw map[string]any, sharedCtx *flowcontext.Context) (*result.Result, Handle, *Instance, error) {
	r, handle, instance, err := Execute(ctx, chainID, index, d, raw, sharedCtx)
	if err != nil {
		return r, handle, instance, err
	}
	if r.Failed() {
		return r, handle, instance, fault.NewFail(r.Reason(), r.Metadata())
	}
	return r, handle, instance, nil
}

// Rollback invokes handle's Rollback hook, if it implements Rollbackable,
// and returns a copy of r marked RolledBack. An error from the hook itself
// is routed to the exception handler rather than returned: a rollback
// hook's own failure must not mask the original failure that triggered
// rollback, and it must not stop a caller walking several tasks' rollback
// hooks from reaching the rest of them.
func Rollback(ctx context.Context, d *Descriptor, handle Handle, instance *Instance, r *result.Result) *result.Result {
	rb, ok := handle.(Rollbackable)
	if !ok {
		return r
	}

	cfg := config.Default()
	emit(ctx, cfg, "task.rollback", observability.LevelInfo, map[string]any{"task_id": r.TaskID(), "task_type": d.Name})

	if err := rb.Rollback(ctx, instance); err != nil {
		cfg.ExceptionHandler(ctx, cerror.Task("rollback", r.TaskID(), r.ChainID(), err))
		return r
	}
	return r.WithRolledBack()
}

// reverseMiddlewares composes process/type-scoped middleware (outermost
// first) with task-local middleware declared on the Descriptor (runs
// innermost, closest to Work), preserving the onion model's
// outermost-runs-first-on-entry contract.
func reverseMiddlewares(scoped []config.Middleware, local []config.Middleware) []config.Middleware {
	all := make([]config.Middleware, 0, len(scoped)+len(local))
	all = append(all, scoped...)
	all = append(all, local...)
	// chainFn wraps from the end backward, so reverse here to make the
	// first element in `all` end up the outermost call.
	out := make([]config.Middleware, len(all))
	for i, mw := range all {
		out[len(all)-1-i] = mw
	}
	return out
}

// dispatchTerminalCallbacks runs a Descriptor's named lifecycle hooks
// against a terminal Result, in order: the status-specific hook
// (onSuccess/onSkipped/onFailed), then onComplete, then the process-wide and
// task-scoped config.Callback list, then afterExecution last.
func dispatchTerminalCallbacks(ctx context.Context, cfg *config.EngineConfig, d *Descriptor, instance *Instance, meta config.TaskMeta, r *result.Result) {
	var specific []ResultCallback
	switch r.Status() {
	case result.StatusSuccess:
		specific = d.onSuccess
	case result.StatusSkipped:
		specific = d.onSkipped
	case result.StatusFailed:
		specific = d.onFailed
	}
	for _, cb := range specific {
		cb(ctx, instance, r)
	}
	for _, cb := range d.onComplete {
		cb(ctx, instance, r)
	}

	for _, cb := range cfg.CallbacksFor(d.Name) {
		emit(ctx, cfg, "task.callback", observability.LevelVerbose, map[string]any{"task_id": meta.TaskID})
		cb(ctx, meta, r)
	}

	for _, cb := range d.afterExecution {
		cb(ctx, instance, r)
	}
}

func mergeMetadata(base map[string]any, extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return base
	}
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func finalize(ctx context.Context, cfg *config.EngineConfig, builder *result.Builder, instance *Instance, err error) *result.Result {
	builder.Ended(time.Now()).Retries(instance.retries).State(result.StateComplete)

	switch f := err.(type) {
	case *fault.SkipFault:
		return builder.State(result.StateInterrupted).Status(result.StatusSkipped).Reason(f.Reason).
			Metadata(mergeMetadata(f.Metadata, instance.resultMetadata)).
			ContextSnapshot(instance.context.Snapshot()).Freeze()
	case *fault.FailFault:
		return builder.State(result.StateInterrupted).Status(result.StatusFailed).Reason(f.Reason).
			Metadata(mergeMetadata(f.Metadata, instance.resultMetadata)).
			ContextSnapshot(instance.context.Snapshot()).Freeze()
	case nil:
		return builder.Status(result.StatusSuccess).
			Metadata(mergeMetadata(map[string]any{}, instance.resultMetadata)).
			ContextSnapshot(instance.context.Snapshot()).Freeze()
	default:
		cfg.ExceptionHandler(ctx, err)
		return builder.State(result.StateInterrupted).Status(result.StatusFailed).Reason(err.Error()).
			Metadata(mergeMetadata(map[string]any{}, instance.resultMetadata)).
			ContextSnapshot(instance.context.Snapshot()).Freeze()
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
