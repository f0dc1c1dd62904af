package cerror_test

import (
	"errors"
	"testing"

	"github.com/lucianlature/cero/cerror"
)

func TestCeroError_Unwrap(t *testing.T) {
	base := errors.New("boom")
	err := cerror.Task("validate", "t1", "c1", base)

	if !errors.Is(err, base) {
		t.Error("errors.Is should see through CeroError to the wrapped cause")
	}

	var ce *cerror.CeroError
	if !errors.As(err, &ce) {
		t.Fatal("errors.As should recover the CeroError")
	}
	if ce.TaskID != "t1" || ce.ChainID != "c1" {
		t.Errorf("unexpected identity: %+v", ce)
	}
}

func TestCeroError_Message(t *testing.T) {
	err := cerror.New("load", errors.New("not found"))
	if err.Error() != "cero: load: not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestTimeoutError(t *testing.T) {
	err := &cerror.TimeoutError{Op: "condition.wait", Waiting: "order.approved", Err: errors.New("deadline exceeded")}
	if err.Error() != "cero: condition.wait: timed out waiting for order.approved: deadline exceeded" {
		t.Errorf("Error() = %q", err.Error())
	}
}
