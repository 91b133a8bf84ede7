package defs

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"designate/pkg/keys"
)

// DefaultCategory is assigned to tools that declare none.
const DefaultCategory = "orders"

type file struct {
	Tools   []ToolDef    `yaml:"tools"`
	Reverse []ReverseDef `yaml:"reverse"`
}

// Database is an ordered, read-only collection of definitions.
type Database struct {
	tools   []ToolDef
	reverse []ReverseDef
	byName  map[string]int
	issues  []ValidationError
}

// NewDatabase builds a database from already-parsed definitions.
func NewDatabase(tools []ToolDef, reverse []ReverseDef) (*Database, error) {
	db := &Database{
		tools:   make([]ToolDef, 0, len(tools)),
		reverse: make([]ReverseDef, 0, len(reverse)),
		byName:  make(map[string]int, len(tools)),
	}

	for i, t := range tools {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return nil, fmt.Errorf("tool #%d: empty name", i+1)
		}
		if t.Category == "" {
			t.Category = DefaultCategory
		}
		if t.Hotkey.IsNone() && t.Binding != "" {
			k, err := keys.Parse(t.Binding)
			if err != nil {
				db.issues = append(db.issues, ValidationError{
					Type:    TypeInvalid,
					Def:     t.Name,
					Key:     t.Binding,
					Message: err.Error(),
				})
			}
			t.Hotkey = k
		}
		if _, dup := db.byName[t.Name]; !dup {
			db.byName[t.Name] = len(db.tools)
		}
		db.tools = append(db.tools, t)
	}

	for i, r := range reverse {
		if r.Name == "" {
			return nil, fmt.Errorf("reverse #%d: empty name", i+1)
		}
		if _, ok := db.byName[r.Tool]; !ok {
			return nil, fmt.Errorf("reverse %q: unknown tool %q", r.Name, r.Tool)
		}
		db.reverse = append(db.reverse, r)
	}

	return db, nil
}

// Parse reads a YAML definition document.
func Parse(data []byte) (*Database, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse defs: %w", err)
	}
	return NewDatabase(f.Tools, f.Reverse)
}

// Load reads a YAML definition file.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read defs file: %w", err)
	}
	db, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

// Tools returns the tool definitions in declaration order.
func (db *Database) Tools() []ToolDef {
	out := make([]ToolDef, len(db.tools))
	copy(out, db.tools)
	return out
}

// Reverse returns the reverse definitions in declaration order.
func (db *Database) Reverse() []ReverseDef {
	out := make([]ReverseDef, len(db.reverse))
	copy(out, db.reverse)
	return out
}

// Tool looks up a tool definition by name. With duplicates, the first
// declaration is returned.
func (db *Database) Tool(name string) (ToolDef, bool) {
	i, ok := db.byName[name]
	if !ok {
		return ToolDef{}, false
	}
	return db.tools[i], true
}

// Categories returns the distinct categories in first-seen order.
func (db *Database) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range db.tools {
		if seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		out = append(out, t.Category)
	}
	return out
}

// Len returns the number of tool definitions.
func (db *Database) Len() int {
	return len(db.tools)
}
