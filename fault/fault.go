// Package fault implements the non-local control-transfer values a task's
// work step raises to end itself cleanly: SkipFault and FailFault. Both are
// interruptions, not errors — the engine converts them into a terminal
// Result and never lets them escape past task.Execute.
package fault

import "fmt"

// SkipFault interrupts a task's work step with a "skipped" outcome.
// Raised via task.Instance.Skip, never constructed by application code
// directly outside of tests.
type SkipFault struct {
	Reason   string
	Metadata map[string]any
}

func (f *SkipFault) Error() string {
	return fmt.Sprintf("skip: %s", f.Reason)
}

// NewSkip constructs a SkipFault, defaulting Metadata to an empty map so callers
// never need a nil check.
func NewSkip(reason string, metadata map[string]any) *SkipFault {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &SkipFault{Reason: reason, Metadata: metadata}
}

// FailFault interrupts a task's work step with a "failed" outcome.
// Raised via task.Instance.Fail.
type FailFault struct {
	Reason   string
	Metadata map[string]any
}

func (f *FailFault) Error() string {
	return fmt.Sprintf("fail: %s", f.Reason)
}

func NewFail(reason string, metadata map[string]any) *FailFault {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &FailFault{Reason: reason, Metadata: metadata}
}

// IsSkip reports whether err is a *SkipFault.
func IsSkip(err error) bool {
	_, ok := err.(*SkipFault)
	return ok
}

// IsFail reports whether err is a *FailFault.
func IsFail(err error) bool {
	_, ok := err.(*FailFault)
	return ok
}

// Matcher tests whether a fault (or any error) satisfies some predicate.
// Middleware and callbacks use matchers to decide whether to treat a
// propagated error specially instead of comparing concrete types directly.
type Matcher func(err error) bool

// Any builds a Matcher that reports true if any of the given matchers match.
func Any(matchers ...Matcher) Matcher {
	return func(err error) bool {
		for _, m := range matchers {
			if m(err) {
				return true
			}
		}
		return false
	}
}

// All builds a Matcher that reports true only if every given matcher matches.
func All(matchers ...Matcher) Matcher {
	return func(err error) bool {
		for _, m := range matchers {
			if !m(err) {
				return false
			}
		}
		return true
	}
}

// ReasonIs builds a Matcher that matches a SkipFault or FailFault whose
// Reason equals want.
func ReasonIs(want string) Matcher {
	return func(err error) bool {
		switch f := err.(type) {
		case *SkipFault:
			return f.Reason == want
		case *FailFault:
			return f.Reason == want
		default:
			return false
		}
	}
}
