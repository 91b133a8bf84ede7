package defs

import "designate/pkg/keys"

// ToolDef declares one designator tool.
type ToolDef struct {
	Name     string   `yaml:"name"`
	Label    string   `yaml:"label"`
	Kind     string   `yaml:"kind"`
	Category string   `yaml:"category"`
	Binding  string   `yaml:"hotkey"`
	Requires []string `yaml:"requires"`

	// Hotkey is Binding after normalisation; None when unbound or malformed.
	Hotkey keys.Key `yaml:"-"`
}

// DisplayLabel returns the label, falling back to the name.
func (d ToolDef) DisplayLabel() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// ReverseDef declares a reverse designator: a tool surfaced on selected
// things rather than in the architect menu.
type ReverseDef struct {
	Name string `yaml:"name"`
	Tool string `yaml:"tool"`
}

// Provider is an ordered source of tool declarations. Order is dispatch
// priority.
type Provider interface {
	Tools() []ToolDef
}

// ReverseProvider is implemented by providers that also declare reverse
// designators.
type ReverseProvider interface {
	Reverse() []ReverseDef
}
