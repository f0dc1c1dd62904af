package durable

import (
	"fmt"
	"sync"
)

// WorkflowFunc is a durable workflow's entry point. It runs on its own
// goroutine, separate from its Handle's signal dispatcher goroutine, and
// suspends via ctx's Sleep/Condition/WaitSignal methods.
type WorkflowFunc func(ctx *Context) error

// WorkflowFactory constructs a fresh WorkflowFunc per run, mirroring
// task.Factory: a workflow type can close over per-run state without runs
// of the same type racing on shared state.
type WorkflowFactory func() WorkflowFunc

// WorkflowRegistry maps workflow type names to factories, constructing a
// fresh WorkflowFunc lazily on each Get rather than eagerly at Register
// time.
type WorkflowRegistry struct {
	mu   sync.RWMutex
	defs map[string]WorkflowFactory
}

// NewWorkflowRegistry returns an empty registry.
func NewWorkflowRegistry() *WorkflowRegistry {
	return &WorkflowRegistry{defs: make(map[string]WorkflowFactory)}
}

// Register binds workflowType to factory.
func (r *WorkflowRegistry) Register(workflowType string, factory WorkflowFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[workflowType] = factory
}

// Get constructs a fresh WorkflowFunc for workflowType.
func (r *WorkflowRegistry) Get(workflowType string) (WorkflowFunc, error) {
	r.mu.RLock()
	factory, ok := r.defs[workflowType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("durable: no workflow registered under %q", workflowType)
	}
	return factory(), nil
}

// List returns every registered workflow type name.
func (r *WorkflowRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	return names
}
