package defs

import (
	"fmt"
	"strings"

	"designate/pkg/keys"
)

// Validation finding types.
const (
	TypeConflict  = "conflict"
	TypeInvalid   = "invalid"
	TypeDuplicate = "duplicate"
	TypeWarning   = "warning"
)

// ValidationError describes one problem in a definition set.
type ValidationError struct {
	Type    string
	Def     string
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s (key '%s'): %s", e.Type, e.Def, e.Key, e.Message)
}

// ValidationResult contains all validation errors and warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any errors
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any warnings
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of validation results
func (r *ValidationResult) String() string {
	var sb strings.Builder

	if len(r.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("Errors (%d):\n", len(r.Errors)))
		for _, err := range r.Errors {
			sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
		}
	}

	if len(r.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf("Warnings (%d):\n", len(r.Warnings)))
		for _, warn := range r.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn.Error()))
		}
	}

	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}

	return sb.String()
}

// Validate checks a database for duplicate identities, malformed bindings,
// shared hotkeys and bindings that collide with the reserved context key.
func Validate(db *Database, contextKey keys.Key) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	result.Errors = append(result.Errors, db.issues...)

	checkDuplicates(db, result)
	checkSharedHotkeys(db, result)
	checkReservedKey(db, contextKey, result)

	return result
}

func checkDuplicates(db *Database, result *ValidationResult) {
	count := make(map[string]int)
	for _, t := range db.tools {
		count[t.Name]++
		if count[t.Name] == 2 {
			result.Errors = append(result.Errors, ValidationError{
				Type:    TypeDuplicate,
				Def:     t.Name,
				Key:     string(t.Hotkey),
				Message: "identity declared more than once; later declarations are ignored",
			})
		}
	}
}

// Two tools may share a key; dispatch picks the first visible one. Within a
// category that usually means the later tool is unreachable, so warn.
func checkSharedHotkeys(db *Database, result *ValidationResult) {
	type slot struct{ category, key string }
	owner := make(map[slot]string)
	for _, t := range db.tools {
		if t.Hotkey.IsNone() {
			continue
		}
		s := slot{t.Category, string(t.Hotkey)}
		if first, taken := owner[s]; taken && first != t.Name {
			result.Warnings = append(result.Warnings, ValidationError{
				Type:    TypeConflict,
				Def:     t.Name,
				Key:     string(t.Hotkey),
				Message: fmt.Sprintf("shares hotkey with %s in category %s; only reachable while %s is hidden", first, t.Category, first),
			})
			continue
		}
		owner[s] = t.Name
	}
}

func checkReservedKey(db *Database, contextKey keys.Key, result *ValidationResult) {
	if contextKey.IsNone() {
		return
	}
	for _, t := range db.tools {
		if t.Hotkey == contextKey {
			result.Warnings = append(result.Warnings, ValidationError{
				Type:    TypeWarning,
				Def:     t.Name,
				Key:     string(t.Hotkey),
				Message: "bound to the reserved context-action key and can never be selected by hotkey",
			})
		}
	}
}
