package attribute

// Resolve runs the attribute pipeline for a set of descriptors against raw
// input: default substitution, then type coercion, then named validation.
// It never stops at the first failure — every descriptor is resolved
// independently so the caller sees every problem at once via the returned
// ErrorCollection.
func Resolve(descriptors []*Descriptor, raw map[string]any, coercions *CoercionRegistry, validators *ValidatorRegistry) (map[string]any, *ErrorCollection) {
	resolved := make(map[string]any, len(descriptors))
	errs := NewErrorCollection()

	for _, d := range descriptors {
		value, present := raw[d.Name]
		if !present {
			if d.Required {
				errs.Add(d.Name, &ValidationError{Attribute: d.Name, Rule: "presence", Message: "can't be blank"})
				continue
			}
			value = evaluateDefault(d.Default)
		}

		coerce, ok := coercions.Get(d.Kind)
		if !ok {
			errs.Add(d.Name, &CoercionError{Attribute: d.Name, Kind: string(d.Kind), Value: value, Err: errUnknownKind(d.Kind)})
			continue
		}

		coerced, err := coerce(value)
		if err != nil {
			errs.Add(d.Name, &CoercionError{Attribute: d.Name, Kind: string(d.Kind), Value: value, Err: err})
			continue
		}

		valid := true
		for _, rule := range d.Rules {
			validate, ok := validators.Get(rule.Name)
			if !ok {
				errs.Add(d.Name, &ValidationError{Attribute: d.Name, Rule: rule.Name, Message: "unknown validation rule " + rule.Name})
				valid = false
				continue
			}
			if err := validate(coerced, rule.Args); err != nil {
				errs.Add(d.Name, &ValidationError{Attribute: d.Name, Rule: rule.Name, Message: err.Error()})
				valid = false
			}
		}
		if valid {
			resolved[d.Name] = coerced
		}
	}

	return resolved, errs
}

// evaluateDefault resolves a Descriptor's Default for substitution: a plain
// value is returned as-is, a zero-arg callable is invoked and its return
// value used instead.
func evaluateDefault(def any) any {
	if fn, ok := def.(func() any); ok {
		return fn()
	}
	return def
}

type unknownKindError struct{ kind Kind }

func (e unknownKindError) Error() string { return "no coercion registered for kind " + string(e.kind) }

func errUnknownKind(kind Kind) error { return unknownKindError{kind: kind} }
