package chain_test

import (
	"testing"

	"github.com/lucianlature/cero/chain"
	"github.com/lucianlature/cero/result"
)

func buildResult(taskID string, status result.Status) *result.Result {
	return result.NewBuilder(taskID, "c1", "typ", 0).Status(status).Freeze()
}

func TestChain_NewAssignsID(t *testing.T) {
	c := chain.New()
	if c.ID() == "" {
		t.Error("New() should assign a non-empty id")
	}
	if c.Context() == nil {
		t.Error("New() should assign a non-nil shared context")
	}
}

func TestChain_AppendAndResults(t *testing.T) {
	c := chain.New()
	c.Append(buildResult("a", result.StatusSuccess))
	c.Append(buildResult("b", result.StatusSkipped))

	results := c.Results()
	if len(results) != 2 || results[0].TaskID() != "a" || results[1].TaskID() != "b" {
		t.Errorf("unexpected declaration order: %+v", results)
	}
}

func TestChain_ReverseCompletionOrder(t *testing.T) {
	c := chain.New()
	// completion order differs from a hypothetical declaration order in a
	// parallel group: b finishes before a.
	c.Append(buildResult("b", result.StatusSuccess))
	c.Append(buildResult("a", result.StatusSuccess))

	rev := c.ReverseCompletionOrder()
	if len(rev) != 2 || rev[0].TaskID() != "a" || rev[1].TaskID() != "b" {
		t.Errorf("ReverseCompletionOrder() = %+v, want [a, b]", rev)
	}
}

func TestChain_Get(t *testing.T) {
	c := chain.New()
	c.Append(buildResult("a", result.StatusSuccess))

	r, ok := c.Get("a")
	if !ok || r.TaskID() != "a" {
		t.Errorf("Get(a) = %v, %v", r, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
}

func TestChain_ReplaceLast(t *testing.T) {
	c := chain.New()
	c.Append(buildResult("a", result.StatusSuccess))

	updated := buildResult("a", result.StatusSuccess).WithRolledBack()
	c.ReplaceLast("a", updated)

	r, _ := c.Get("a")
	if !r.RolledBack() {
		t.Error("ReplaceLast should update the stored Result")
	}
}

func TestChain_AggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []result.Status
		want     result.Status
	}{
		{"empty", nil, result.StatusPending},
		{"all success", []result.Status{result.StatusSuccess, result.StatusSuccess}, result.StatusSuccess},
		{"one skipped", []result.Status{result.StatusSuccess, result.StatusSkipped}, result.StatusSkipped},
		{"failed dominates", []result.Status{result.StatusSuccess, result.StatusFailed, result.StatusSkipped}, result.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := chain.New()
			for i, s := range tt.statuses {
				c.Append(buildResult(string(rune('a'+i)), s))
			}
			if got := c.AggregateStatus(); got != tt.want {
				t.Errorf("AggregateStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}
