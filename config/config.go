// Package config holds the process-wide, mutable configuration surface
// for the task and workflow engines: registered middleware, lifecycle
// callbacks, the attribute coercion/validation registries, breakpoint and
// rollback policy, and the default exception handler. It follows the
// configure(fn)-mutates-a-singleton shape used throughout this codebase for
// process-wide state.
package config

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lucianlature/cero/attribute"
	"github.com/lucianlature/cero/observability"
	"github.com/lucianlature/cero/result"
)

// TaskMeta identifies the task a middleware or callback is running for,
// without requiring this package to import the task package (which itself
// depends on config).
type TaskMeta struct {
	TaskID   string
	ChainID  string
	TaskType string
}

// Middleware wraps a task's dispatch. Calling next invokes the remainder of
// the chain (the next middleware, or the task's own work). Middleware not
// calling next short-circuits the task.
type Middleware func(ctx context.Context, meta TaskMeta, next func(context.Context) (*result.Result, error)) (*result.Result, error)

// MiddlewareBinding pairs a Middleware with the task type it applies to.
// An empty TaskType applies process-wide, to every task.
type MiddlewareBinding struct {
	TaskType string
	Func     Middleware
}

// Callback runs after a task reaches a terminal Result, for side effects
// like metrics or audit logging that shouldn't participate in the
// middleware chain's control flow.
type Callback func(ctx context.Context, meta TaskMeta, r *result.Result)

// EngineConfig is the full set of process-wide tunables. Obtain the active
// configuration with Default, and mutate it with Configure.
type EngineConfig struct {
	Middlewares      []MiddlewareBinding
	Callbacks        map[string][]Callback
	Coercions        *attribute.CoercionRegistry
	Validators       *attribute.ValidatorRegistry
	TaskBreakpoints  []result.Status
	RollbackOn       []result.Status
	ExceptionHandler func(ctx context.Context, err error)
	Observer         observability.Observer
}

// DefaultEngineConfig returns the built-in configuration: default coercion
// and validation registries, breakpoints and rollback triggered only by
// failure, and an exception handler that logs at error level through
// slog.Default().
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Callbacks:       make(map[string][]Callback),
		Coercions:       attribute.DefaultCoercions(),
		Validators:      attribute.DefaultValidators(),
		TaskBreakpoints: []result.Status{result.StatusFailed},
		RollbackOn:      []result.Status{result.StatusFailed},
		ExceptionHandler: func(ctx context.Context, err error) {
			slog.Default().ErrorContext(ctx, "unhandled engine exception", "error", err)
		},
		Observer: observability.NoOpObserver{},
	}
}

// Merge overlays non-zero fields of other onto a copy of cfg, leaving cfg
// itself untouched.
func (cfg *EngineConfig) Merge(other *EngineConfig) *EngineConfig {
	merged := *cfg
	if other == nil {
		return &merged
	}
	if other.Middlewares != nil {
		merged.Middlewares = append(append([]MiddlewareBinding{}, cfg.Middlewares...), other.Middlewares...)
	}
	if other.Callbacks != nil {
		merged.Callbacks = make(map[string][]Callback, len(cfg.Callbacks)+len(other.Callbacks))
		for k, v := range cfg.Callbacks {
			merged.Callbacks[k] = v
		}
		for k, v := range other.Callbacks {
			merged.Callbacks[k] = append(merged.Callbacks[k], v...)
		}
	}
	if other.Coercions != nil {
		merged.Coercions = other.Coercions
	}
	if other.Validators != nil {
		merged.Validators = other.Validators
	}
	if other.TaskBreakpoints != nil {
		merged.TaskBreakpoints = other.TaskBreakpoints
	}
	if other.RollbackOn != nil {
		merged.RollbackOn = other.RollbackOn
	}
	if other.ExceptionHandler != nil {
		merged.ExceptionHandler = other.ExceptionHandler
	}
	if other.Observer != nil {
		merged.Observer = other.Observer
	}
	return &merged
}

// AddMiddleware registers a middleware, scoped to taskType (empty for
// process-wide).
func (cfg *EngineConfig) AddMiddleware(taskType string, fn Middleware) {
	cfg.Middlewares = append(cfg.Middlewares, MiddlewareBinding{TaskType: taskType, Func: fn})
}

// MiddlewaresFor returns every middleware applicable to taskType: first the
// process-wide ones, then the ones scoped to taskType, in registration
// order, matching the onion model's outermost-registered-runs-first
// contract.
func (cfg *EngineConfig) MiddlewaresFor(taskType string) []Middleware {
	var out []Middleware
	for _, b := range cfg.Middlewares {
		if b.TaskType == "" {
			out = append(out, b.Func)
		}
	}
	for _, b := range cfg.Middlewares {
		if b.TaskType == taskType {
			out = append(out, b.Func)
		}
	}
	return out
}

// AddCallback registers fn to run after every terminal Result for taskType
// (empty for process-wide).
func (cfg *EngineConfig) AddCallback(taskType string, fn Callback) {
	cfg.Callbacks[taskType] = append(cfg.Callbacks[taskType], fn)
}

// CallbacksFor returns every callback applicable to taskType.
func (cfg *EngineConfig) CallbacksFor(taskType string) []Callback {
	out := append([]Callback{}, cfg.Callbacks[""]...)
	out = append(out, cfg.Callbacks[taskType]...)
	return out
}

// IsBreakpoint reports whether s should halt a sequential chain.
func (cfg *EngineConfig) IsBreakpoint(s result.Status) bool {
	for _, bp := range cfg.TaskBreakpoints {
		if bp == s {
			return true
		}
	}
	return false
}

// ShouldRollback reports whether s should trigger rollback of prior tasks.
func (cfg *EngineConfig) ShouldRollback(s result.Status) bool {
	for _, s2 := range cfg.RollbackOn {
		if s2 == s {
			return true
		}
	}
	return false
}

var (
	mu      sync.RWMutex
	current = DefaultEngineConfig()
)

// Default returns the active process-wide configuration.
func Default() *EngineConfig {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Configure mutates the active configuration in place under lock. fn
// receives the live *EngineConfig; it should not retain the pointer beyond
// the call.
func Configure(fn func(*EngineConfig)) {
	mu.Lock()
	defer mu.Unlock()
	fn(current)
}

// Reset discards all configuration, restoring DefaultEngineConfig. Intended
// for use between test cases.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = DefaultEngineConfig()
}
