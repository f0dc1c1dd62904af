package attribute_test

import (
	"testing"

	"github.com/lucianlature/cero/attribute"
)

func TestResolve_DefaultsAndCoerces(t *testing.T) {
	descriptors := []*attribute.Descriptor{
		attribute.Required("email", attribute.KindString).
			Validate("presence", nil).
			Validate("format", map[string]any{"pattern": `^\S+@\S+$`}),
		attribute.Optional("retries", attribute.KindInteger, 3),
	}

	resolved, errs := attribute.Resolve(descriptors, map[string]any{
		"email": "ada@example.com",
	}, attribute.DefaultCoercions(), attribute.DefaultValidators())

	if !errs.IsEmpty() {
		t.Fatalf("unexpected errors: %s", errs.FullMessage())
	}
	if resolved["email"] != "ada@example.com" {
		t.Errorf("email = %v", resolved["email"])
	}
	if resolved["retries"] != 3 {
		t.Errorf("retries default = %v, want 3", resolved["retries"])
	}
}

func TestResolve_MissingRequiredAccumulates(t *testing.T) {
	descriptors := []*attribute.Descriptor{
		attribute.Required("email", attribute.KindString),
		attribute.Required("age", attribute.KindInteger),
	}

	_, errs := attribute.Resolve(descriptors, map[string]any{}, attribute.DefaultCoercions(), attribute.DefaultValidators())

	if errs.IsEmpty() {
		t.Fatal("expected errors for two missing required attributes")
	}
	if !errs.Has("email") || !errs.Has("age") {
		t.Errorf("expected errors on both email and age, got: %s", errs.FullMessage())
	}
}

func TestResolve_ValidationFailureExcludesFromResolved(t *testing.T) {
	descriptors := []*attribute.Descriptor{
		attribute.Required("name", attribute.KindString).
			Validate("length", map[string]any{"minimum": 3}),
	}

	resolved, errs := attribute.Resolve(descriptors, map[string]any{"name": "ab"}, attribute.DefaultCoercions(), attribute.DefaultValidators())

	if errs.IsEmpty() {
		t.Fatal("expected a length validation error")
	}
	if _, ok := resolved["name"]; ok {
		t.Error("an invalid attribute should not appear in the resolved map")
	}
}

func TestResolve_CoercionFailure(t *testing.T) {
	descriptors := []*attribute.Descriptor{
		attribute.Required("count", attribute.KindInteger),
	}
	_, errs := attribute.Resolve(descriptors, map[string]any{"count": "not-a-number"}, attribute.DefaultCoercions(), attribute.DefaultValidators())

	if !errs.Has("count") {
		t.Errorf("expected a coercion error on count, got: %s", errs.FullMessage())
	}
}

func TestCoercionRegistry_RegisterOverride(t *testing.T) {
	registry := attribute.NewCoercionRegistry()
	registry.Register(attribute.KindString, func(value any) (any, error) {
		return "overridden", nil
	})

	fn, ok := registry.Get(attribute.KindString)
	if !ok {
		t.Fatal("expected registered coercion")
	}
	v, err := fn("anything")
	if err != nil || v != "overridden" {
		t.Errorf("fn(...) = %v, %v", v, err)
	}
}

func TestErrorCollection_FullMessage(t *testing.T) {
	errs := attribute.NewErrorCollection()
	errs.Add("b", &attribute.ValidationError{Attribute: "b", Message: "is invalid"})
	errs.Add("a", &attribute.ValidationError{Attribute: "a", Message: "can't be blank"})

	want := "a: can't be blank; b: is invalid"
	if got := errs.FullMessage(); got != want {
		t.Errorf("FullMessage() = %q, want %q", got, want)
	}
}

func TestValidators_NumericBounds(t *testing.T) {
	descriptors := []*attribute.Descriptor{
		attribute.Required("amount", attribute.KindFloat).
			Validate("numeric", map[string]any{"min": 0, "max": 100, "only_integer": true}),
	}

	_, errs := attribute.Resolve(descriptors, map[string]any{"amount": 150.5}, attribute.DefaultCoercions(), attribute.DefaultValidators())
	if !errs.Has("amount") {
		t.Fatal("expected a numeric validation error for a value above max")
	}

	resolved, errs := attribute.Resolve(descriptors, map[string]any{"amount": 42.0}, attribute.DefaultCoercions(), attribute.DefaultValidators())
	if !errs.IsEmpty() {
		t.Fatalf("unexpected errors: %s", errs.FullMessage())
	}
	if resolved["amount"] != 42.0 {
		t.Errorf("amount = %v", resolved["amount"])
	}
}

func TestResolve_CallableDefaultIsInvoked(t *testing.T) {
	calls := 0
	descriptors := []*attribute.Descriptor{
		attribute.Optional("token", attribute.KindString, func() any {
			calls++
			return "generated-token"
		}),
	}

	resolved, errs := attribute.Resolve(descriptors, map[string]any{}, attribute.DefaultCoercions(), attribute.DefaultValidators())
	if !errs.IsEmpty() {
		t.Fatalf("unexpected errors: %s", errs.FullMessage())
	}
	if resolved["token"] != "generated-token" {
		t.Errorf("token = %v, want generated-token", resolved["token"])
	}
	if calls != 1 {
		t.Errorf("callable default invoked %d times, want 1", calls)
	}
}

func TestValidators_Inclusion(t *testing.T) {
	descriptors := []*attribute.Descriptor{
		attribute.Required("tier", attribute.KindString).
			Validate("inclusion", map[string]any{"in": []any{"gold", "silver", "bronze"}}),
	}

	_, errs := attribute.Resolve(descriptors, map[string]any{"tier": "platinum"}, attribute.DefaultCoercions(), attribute.DefaultValidators())
	if !errs.Has("tier") {
		t.Error("expected inclusion validation to reject an unlisted value")
	}
}
