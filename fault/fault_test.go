package fault_test

import (
	"errors"
	"testing"

	"github.com/lucianlature/cero/fault"
)

func TestSkipFault_Error(t *testing.T) {
	f := fault.NewSkip("already processed", map[string]any{"id": 7})
	if f.Error() != "skip: already processed" {
		t.Errorf("Error() = %q, want %q", f.Error(), "skip: already processed")
	}
	if f.Metadata["id"] != 7 {
		t.Errorf("Metadata[id] = %v, want 7", f.Metadata["id"])
	}
}

func TestFailFault_Error(t *testing.T) {
	f := fault.NewFail("upstream unavailable", nil)
	if f.Error() != "fail: upstream unavailable" {
		t.Errorf("Error() = %q, want %q", f.Error(), "fail: upstream unavailable")
	}
	if f.Metadata == nil {
		t.Error("Metadata should default to an empty map, not nil")
	}
}

func TestIsSkipIsFail(t *testing.T) {
	skip := fault.NewSkip("r", nil)
	fail := fault.NewFail("r", nil)
	plain := errors.New("boom")

	if !fault.IsSkip(skip) || fault.IsSkip(fail) || fault.IsSkip(plain) {
		t.Error("IsSkip misclassified a fault")
	}
	if !fault.IsFail(fail) || fault.IsFail(skip) || fault.IsFail(plain) {
		t.Error("IsFail misclassified a fault")
	}
}

func TestMatch_AnyAll(t *testing.T) {
	isSkip := fault.Matcher(fault.IsSkip)
	isFail := fault.Matcher(fault.IsFail)

	skip := fault.NewSkip("dup", nil)

	if !fault.Any(isSkip, isFail)(skip) {
		t.Error("Any should match when one predicate matches")
	}
	if fault.All(isSkip, isFail)(skip) {
		t.Error("All should not match when one predicate fails")
	}
}

func TestReasonIs(t *testing.T) {
	matcher := fault.ReasonIs("duplicate")
	if !matcher(fault.NewSkip("duplicate", nil)) {
		t.Error("ReasonIs should match a SkipFault with the same reason")
	}
	if matcher(fault.NewFail("other", nil)) {
		t.Error("ReasonIs should not match a different reason")
	}
	if matcher(errors.New("duplicate")) {
		t.Error("ReasonIs should not match a plain error")
	}
}
