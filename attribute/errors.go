package attribute

import (
	"fmt"
	"iter"
	"sort"

	"github.com/lucianlature/cero/cerror"
)

// CoercionError reports that a raw value could not be converted to an
// attribute's declared type.
type CoercionError struct {
	Attribute string
	Kind      string
	Value     any
	Err       error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("attribute %q: cannot coerce %v to %s: %v", e.Attribute, e.Value, e.Kind, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// ValidationError reports that a coerced value failed a named validation
// rule.
type ValidationError struct {
	Attribute string
	Rule      string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("attribute %q: %s", e.Attribute, e.Message)
}

// asCeroError wraps an attribute failure as a cerror.CeroError scoped to op.
// Nothing in the module calls it; task.Execute reports bind failures as a
// failed Result instead.
func asCeroError(op string, err error) *cerror.CeroError {
	return cerror.New(op, err)
}

// ErrorCollection accumulates validation and coercion failures keyed by
// attribute name, mirroring how a form reports every invalid field at once
// instead of failing on the first one.
type ErrorCollection struct {
	errs map[string][]error
}

// NewErrorCollection returns an empty ErrorCollection.
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{errs: make(map[string][]error)}
}

// Add records err against attribute. Safe to call on an ErrorCollection
// obtained via the zero value.
func (c *ErrorCollection) Add(attribute string, err error) {
	if c.errs == nil {
		c.errs = make(map[string][]error)
	}
	c.errs[attribute] = append(c.errs[attribute], err)
}

// Has reports whether attribute has any recorded errors.
func (c *ErrorCollection) Has(attribute string) bool {
	return len(c.errs[attribute]) > 0
}

// Get returns the errors recorded for attribute.
func (c *ErrorCollection) Get(attribute string) []error {
	return c.errs[attribute]
}

// IsEmpty reports whether no errors have been recorded for any attribute.
func (c *ErrorCollection) IsEmpty() bool {
	return len(c.errs) == 0
}

// FullMessage renders every recorded error as "attribute: message", sorted
// by attribute name for stable output. A ValidationError contributes its
// Message; any other error contributes its full Error() text.
func (c *ErrorCollection) FullMessage() string {
	names := make([]string, 0, len(c.errs))
	for name := range c.errs {
		names = append(names, name)
	}
	sort.Strings(names)

	msg := ""
	for _, name := range names {
		for _, err := range c.errs[name] {
			if msg != "" {
				msg += "; "
			}
			text := err.Error()
			if ve, ok := err.(*ValidationError); ok {
				text = ve.Message
			}
			msg += fmt.Sprintf("%s: %s", name, text)
		}
	}
	return msg
}

// All iterates every (attribute, error) pair in deterministic attribute
// order.
func (c *ErrorCollection) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		names := make([]string, 0, len(c.errs))
		for name := range c.errs {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			for _, err := range c.errs[name] {
				if !yield(name, err) {
					return
				}
			}
		}
	}
}

// Error implements the error interface so an ErrorCollection can itself be
// returned/wrapped wherever a single error is expected.
func (c *ErrorCollection) Error() string {
	return c.FullMessage()
}
