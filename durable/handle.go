package durable

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lucianlature/cero/cerror"
	"github.com/lucianlature/cero/config"
	"github.com/lucianlature/cero/observability"
)

const source = "durable.Handle"

// defaultCheckpointEvery is how many committed step events accumulate
// before a checkpoint is taken automatically, on top of the checkpoints
// already forced by every condition/sleep suspension and by graceful
// termination. The default of 1 checkpoints after every step; a workflow
// with cheap, frequent steps can raise it via WithCheckpointEvery.
const defaultCheckpointEvery = 1

type mailMsg struct {
	name    string
	payload any
}

// Handle is a running (or finished) workflow: its durable Context, the
// store it persists to, and the mailbox that serializes external signal
// delivery onto a single dispatcher goroutine. Queries bypass the mailbox —
// they're answered synchronously against Context's locked state — but
// signals always funnel through it, which is what gives the engine its "no
// new signal applied while an earlier one is still being processed"
// guarantee: the dispatcher goroutine handles exactly one mailMsg at a time.
type Handle struct {
	id           string
	workflowType string
	store        WorkflowStore
	ctx          *Context

	mailbox chan mailMsg
	done    chan struct{}
	err     error

	lastSequence int64

	checkpointEvery      int32
	stepsSinceCheckpoint int32
}

// Option configures a Handle at StartWorkflow/ResumeWorkflow time.
type Option func(*Handle)

// WithCheckpointEvery overrides the default of checkpointing after every
// committed step event. n <= 0 is treated as 1: a workflow always gets at
// least the safety of checkpointing on every step.
func WithCheckpointEvery(n int) Option {
	if n <= 0 {
		n = 1
	}
	return func(h *Handle) { h.checkpointEvery = int32(n) }
}

// ID returns the workflow's identity.
func (h *Handle) ID() string { return h.id }

// Done is closed once the workflow function has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the workflow function's terminal error, valid after Done is
// closed.
func (h *Handle) Err() error { return h.err }

// Signal enqueues a named signal for delivery. The mailbox is buffered (64
// messages), so Signal returns once the message is queued, before the
// dispatcher goroutine has delivered it and before the workflow function
// has acted on it; it blocks only while the mailbox is full.
func (h *Handle) Signal(name string, payload any) {
	h.mailbox <- mailMsg{name: name, payload: payload}
}

// State reads key from the workflow's durable state, for introspection
// outside of a registered query handler (tests, debugging tools).
func (h *Handle) State(key string) (any, bool) {
	return h.ctx.Get(key)
}

// Query answers a query registered by the workflow via
// Context.DefineQuery. Unlike Signal, Query blocks only as long as the
// registered handler takes to run.
func (h *Handle) Query(name string) (any, error) {
	v, ok := h.ctx.answerQuery(name)
	if !ok {
		return nil, cerror.New("query", errUnknownQuery(name))
	}
	return v, nil
}

type unknownQueryErr string

func (e unknownQueryErr) Error() string { return "durable: no query handler registered under \"" + string(e) + "\"" }

func errUnknownQuery(name string) error { return unknownQueryErr(name) }

func (h *Handle) emitEvent(goCtx context.Context, eventType WorkflowEventType, payload map[string]any) {
	event, err := h.store.AppendEvent(goCtx, WorkflowEvent{
		WorkflowID: h.id,
		Type:       eventType,
		Payload:    payload,
		Timestamp:  time.Now(),
	})
	if err == nil {
		atomic.StoreInt64(&h.lastSequence, event.Sequence)
	}

	cfg := config.Default()
	cfg.Observer.OnEvent(goCtx, observability.Event{
		Type:      observability.EventType(eventType),
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    source,
		Data:      payload,
	})
}

// checkpoint saves the workflow's current durable state against the latest
// event sequence applied so far.
func (h *Handle) checkpoint(goCtx context.Context) error {
	atomic.StoreInt32(&h.stepsSinceCheckpoint, 0)
	return h.store.SaveCheckpoint(goCtx, WorkflowCheckpoint{
		WorkflowID: h.id,
		Sequence:   atomic.LoadInt64(&h.lastSequence),
		State:      h.ctx.snapshot(),
		Timestamp:  time.Now(),
	})
}

// maybeCheckpointAfterStep is called once per committed step.completed or
// step.failed event: after checkpointEvery such events have accumulated
// since the last checkpoint, it takes one.
func (h *Handle) maybeCheckpointAfterStep(goCtx context.Context) {
	every := atomic.LoadInt32(&h.checkpointEvery)
	if every <= 0 {
		every = defaultCheckpointEvery
	}
	if atomic.AddInt32(&h.stepsSinceCheckpoint, 1) >= every {
		_ = h.checkpoint(goCtx)
	}
}

func (h *Handle) newContextHooks(goCtx context.Context) contextHooks {
	return contextHooks{
		emitEvent:     func(t WorkflowEventType, payload map[string]any) { h.emitEvent(goCtx, t, payload) },
		checkpoint:    func() { _ = h.checkpoint(goCtx) },
		stepCommitted: func() { h.maybeCheckpointAfterStep(goCtx) },
	}
}

func applyOptions(h *Handle, opts []Option) {
	h.checkpointEvery = defaultCheckpointEvery
	for _, opt := range opts {
		opt(h)
	}
}

// StartWorkflow constructs a Handle for a brand-new run of workflowType,
// appends its started event, and launches both the dispatcher goroutine and
// the workflow function itself.
func StartWorkflow(goCtx context.Context, store WorkflowStore, registry *WorkflowRegistry, workflowType, workflowID string, input map[string]any, opts ...Option) (*Handle, error) {
	fn, err := registry.Get(workflowType)
	if err != nil {
		return nil, err
	}

	dctx := newContext(goCtx, workflowID)
	dctx.Set("input", input)

	h := &Handle{
		id:           workflowID,
		workflowType: workflowType,
		store:        store,
		ctx:          dctx,
		mailbox:      make(chan mailMsg, 64),
		done:         make(chan struct{}),
	}
	applyOptions(h, opts)
	dctx.hooks = h.newContextHooks(goCtx)

	h.emitEvent(goCtx, EventWorkflowStarted, map[string]any{"workflow_type": workflowType, "input": input})

	go h.dispatch(goCtx)
	go h.run(goCtx, fn)

	return h, nil
}

// ResumeWorkflow reconstructs a Handle from whatever the store has
// persisted: the latest checkpoint (if any) seeds durable state, and every
// event recorded after that checkpoint's sequence is replayed against the
// fresh Context before the workflow function runs again. Signal events not
// yet consumed at checkpoint time are redelivered so a workflow blocked in
// WaitSignal/Condition sees them immediately. step.completed/step.failed
// events are seeded into the Context's replay table so RunTask reapplies
// their recorded outcome instead of re-executing.
func ResumeWorkflow(goCtx context.Context, store WorkflowStore, registry *WorkflowRegistry, workflowType, workflowID string, opts ...Option) (*Handle, error) {
	fn, err := registry.Get(workflowType)
	if err != nil {
		return nil, err
	}

	dctx := newContext(goCtx, workflowID)

	var afterSequence int64
	if cp, err := store.GetLatestCheckpoint(goCtx, workflowID); err == nil && cp != nil {
		dctx.restore(cp.State)
		afterSequence = cp.Sequence
	}

	events, err := store.GetEvents(goCtx, workflowID, afterSequence)
	if err != nil {
		return nil, err
	}

	h := &Handle{
		id:           workflowID,
		workflowType: workflowType,
		store:        store,
		ctx:          dctx,
		mailbox:      make(chan mailMsg, 64),
		done:         make(chan struct{}),
		lastSequence: afterSequence,
	}
	applyOptions(h, opts)
	dctx.hooks = h.newContextHooks(goCtx)

	for _, e := range events {
		switch e.Type {
		case EventSignalReceived:
			name, _ := e.Payload["name"].(string)
			dctx.deliverSignal(name, e.Payload["payload"])
		case EventStepCompleted, EventStepFailed:
			if idx, ok := e.Payload["index"].(int); ok {
				dctx.seedReplay(idx, e)
			}
		}
		if e.Sequence > h.lastSequence {
			h.lastSequence = e.Sequence
		}
	}

	go h.dispatch(goCtx)
	go h.run(goCtx, fn)

	return h, nil
}

func (h *Handle) dispatch(goCtx context.Context) {
	for {
		select {
		case msg := <-h.mailbox:
			h.ctx.deliverSignal(msg.name, msg.payload)
			h.emitEvent(goCtx, EventSignalReceived, map[string]any{"name": msg.name, "payload": msg.payload})
			_ = h.checkpoint(goCtx)
		case <-h.done:
			return
		}
	}
}

func (h *Handle) run(goCtx context.Context, fn WorkflowFunc) {
	err := fn(h.ctx)
	h.err = err
	close(h.done)

	if err != nil {
		h.emitEvent(goCtx, EventWorkflowFailed, map[string]any{"error": err.Error()})
		_ = h.checkpoint(goCtx)
		_ = h.store.MarkCompleted(goCtx, h.id)
		return
	}
	h.emitEvent(goCtx, EventWorkflowCompleted, nil)
	_ = h.checkpoint(goCtx)
	_ = h.store.MarkCompleted(goCtx, h.id)
}
