package keys

import (
	"fmt"
	"strings"
)

// Key is a normalised key binding such as "h", "ctrl+h" or "shift+f1".
type Key string

// None is the unbound key.
const None Key = ""

// modifierOrder fixes the canonical order of modifiers in a binding.
var modifierOrder = []string{"ctrl", "alt", "shift"}

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"shift":   "shift",
}

// Parse normalises a binding string.
// Modifiers are lower-cased and ordered ctrl, alt, shift. An empty string parses to None.
func Parse(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return None, nil
	}

	// "+" on its own is a valid key, so split on the last separator only when it
	// is followed by something.
	parts := splitBinding(s)
	key := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	if key == "" {
		return None, fmt.Errorf("invalid binding %q: missing key", s)
	}
	if _, isMod := modifierAliases[key]; isMod {
		return None, fmt.Errorf("invalid binding %q: modifier without key", s)
	}

	seen := make(map[string]bool)
	for _, p := range parts[:len(parts)-1] {
		m, ok := modifierAliases[strings.ToLower(strings.TrimSpace(p))]
		if !ok {
			return None, fmt.Errorf("invalid binding %q: unknown modifier %q", s, p)
		}
		seen[m] = true
	}

	var sb strings.Builder
	for _, m := range modifierOrder {
		if seen[m] {
			sb.WriteString(m)
			sb.WriteByte('+')
		}
	}
	sb.WriteString(key)
	return Key(sb.String()), nil
}

// MustParse is Parse for static bindings. It panics on malformed input.
func MustParse(s string) Key {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

func splitBinding(s string) []string {
	if s == "+" {
		return []string{"+"}
	}
	if strings.HasSuffix(s, "++") {
		head := strings.Split(strings.TrimSuffix(s, "++"), "+")
		return append(head, "+")
	}
	return strings.Split(s, "+")
}

// IsNone reports whether k is unbound.
func (k Key) IsNone() bool { return k == None }

// Base returns the key without modifiers.
func (k Key) Base() string {
	s := string(k)
	if s == "+" || strings.HasSuffix(s, "++") {
		return "+"
	}
	if i := strings.LastIndex(s, "+"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func (k Key) String() string {
	if k == None {
		return "unbound"
	}
	return string(k)
}

// UnmarshalText implements encoding.TextUnmarshaler so keys can be read straight
// from YAML and JSON.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k), nil
}
