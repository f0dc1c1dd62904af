package config_test

import (
	"context"
	"testing"

	"github.com/lucianlature/cero/config"
	"github.com/lucianlature/cero/result"
)

func TestDefaultEngineConfig(t *testing.T) {
	cfg := config.DefaultEngineConfig()

	if !cfg.IsBreakpoint(result.StatusFailed) {
		t.Error("failed should be a breakpoint by default")
	}
	if cfg.IsBreakpoint(result.StatusSkipped) {
		t.Error("skipped should not be a breakpoint by default")
	}
	if !cfg.ShouldRollback(result.StatusFailed) {
		t.Error("failed should trigger rollback by default")
	}
}

func TestMiddlewaresFor_ProcessWideBeforeScoped(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	var order []string

	record := func(name string) config.Middleware {
		return func(ctx context.Context, meta config.TaskMeta, next func(context.Context) (*result.Result, error)) (*result.Result, error) {
			order = append(order, name)
			return next(ctx)
		}
	}

	cfg.AddMiddleware("send_email", record("scoped"))
	cfg.AddMiddleware("", record("global"))

	mws := cfg.MiddlewaresFor("send_email")
	if len(mws) != 2 {
		t.Fatalf("expected 2 middlewares, got %d", len(mws))
	}

	next := func(ctx context.Context) (*result.Result, error) { return nil, nil }
	for i := len(mws) - 1; i >= 0; i-- {
		fn := mws[i]
		prevNext := next
		next = func(ctx context.Context) (*result.Result, error) {
			return fn(ctx, config.TaskMeta{TaskType: "send_email"}, prevNext)
		}
	}
	next(context.Background())

	if len(order) != 2 || order[0] != "global" || order[1] != "scoped" {
		t.Errorf("order = %v, want [global scoped]", order)
	}
}

func TestConfigure_MutatesSingleton(t *testing.T) {
	config.Reset()
	defer config.Reset()

	config.Configure(func(cfg *config.EngineConfig) {
		cfg.RollbackOn = append(cfg.RollbackOn, result.StatusSkipped)
	})

	if !config.Default().ShouldRollback(result.StatusSkipped) {
		t.Error("Configure should have mutated the active singleton")
	}
}

func TestMerge_OverlaysNonZeroFields(t *testing.T) {
	base := config.DefaultEngineConfig()
	override := &config.EngineConfig{TaskBreakpoints: []result.Status{result.StatusSkipped}}

	merged := base.Merge(override)
	if !merged.IsBreakpoint(result.StatusSkipped) {
		t.Error("Merge should overlay TaskBreakpoints from other")
	}
	if merged.Coercions == nil {
		t.Error("Merge should keep base's Coercions when other doesn't set one")
	}
}
