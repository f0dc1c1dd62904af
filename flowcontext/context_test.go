package flowcontext_test

import (
	"sync"
	"testing"

	"github.com/lucianlature/cero/flowcontext"
)

func TestContext_SetGet(t *testing.T) {
	ctx := flowcontext.New()
	ctx.Set("order_id", 42)

	v, ok := ctx.Get("order_id")
	if !ok || v != 42 {
		t.Errorf("Get(order_id) = %v, %v; want 42, true", v, ok)
	}

	if _, ok := ctx.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
}

func TestContext_DeleteHas(t *testing.T) {
	ctx := flowcontext.New()
	ctx.Set("k", "v")
	if !ctx.Has("k") {
		t.Fatal("Has(k) should be true after Set")
	}
	ctx.Delete("k")
	if ctx.Has("k") {
		t.Error("Has(k) should be false after Delete")
	}
}

func TestContext_Merge(t *testing.T) {
	ctx := flowcontext.FromMap(map[string]any{"a": 1})
	ctx.Merge(map[string]any{"a": 2, "b": 3})

	snap := ctx.Snapshot()
	if snap["a"] != 2 || snap["b"] != 3 {
		t.Errorf("Snapshot = %v, want a=2 b=3", snap)
	}
}

func TestContext_SnapshotIsIndependent(t *testing.T) {
	ctx := flowcontext.FromMap(map[string]any{"a": 1})
	snap := ctx.Snapshot()
	ctx.Set("a", 2)

	if snap["a"] != 1 {
		t.Errorf("mutating Context after Snapshot changed the snapshot: %v", snap["a"])
	}
}

func TestContext_ConcurrentAccess(t *testing.T) {
	ctx := flowcontext.New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ctx.Set("k", n)
			ctx.Get("k")
		}(i)
	}
	wg.Wait()
}

func TestAs(t *testing.T) {
	ctx := flowcontext.New()
	ctx.Set("count", 5)

	got, err := flowcontext.As[int](ctx, "count")
	if err != nil || got != 5 {
		t.Errorf("As[int](count) = %v, %v; want 5, nil", got, err)
	}

	if _, err := flowcontext.As[string](ctx, "count"); err == nil {
		t.Error("As[string] on an int value should error")
	}

	if _, err := flowcontext.As[int](ctx, "missing"); err == nil {
		t.Error("As on a missing key should error")
	}
}
