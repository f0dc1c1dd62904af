package attribute

// Kind names the built-in coercion types a Descriptor's raw value can be
// converted to.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindFloat   Kind = "float"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindDate    Kind = "date"
)

// Rule binds a named validator to the arguments it should run with, e.g.
// Rule{Name: "length", Args: map[string]any{"minimum": 1}}.
type Rule struct {
	Name string
	Args map[string]any
}

// Descriptor declares one attribute a task accepts: its kind, whether it is
// required, a default value used when absent, and the validation rules run
// against the coerced value. Default may be a plain value or a zero-arg
// func() any, evaluated lazily only when an absent attribute actually needs
// substituting — so a default like "current timestamp" or "fresh UUID" isn't
// computed for every descriptor on every resolve, only the ones that use it.
type Descriptor struct {
	Name     string
	Kind     Kind
	Required bool
	Default  any
	Rules    []Rule
}

// Required declares a required attribute of the given kind.
func Required(name string, kind Kind) *Descriptor {
	return &Descriptor{Name: name, Kind: kind, Required: true}
}

// Optional declares an optional attribute of the given kind, substituted
// with def when absent.
func Optional(name string, kind Kind, def any) *Descriptor {
	return &Descriptor{Name: name, Kind: kind, Required: false, Default: def}
}

// Validate attaches a validation rule, returning the receiver for chaining.
func (d *Descriptor) Validate(rule string, args map[string]any) *Descriptor {
	d.Rules = append(d.Rules, Rule{Name: rule, Args: args})
	return d
}
