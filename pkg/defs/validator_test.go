package defs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designate/pkg/keys"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{Type: TypeConflict, Def: "haul", Key: "h", Message: "shares hotkey"}
	assert.Equal(t, "[conflict] haul (key 'h'): shares hotkey", err.Error())
}

func TestValidationResult_String(t *testing.T) {
	empty := &ValidationResult{}
	assert.Equal(t, "No issues found", empty.String())

	r := &ValidationResult{
		Errors:   []ValidationError{{Type: TypeDuplicate, Def: "a", Message: "dup"}},
		Warnings: []ValidationError{{Type: TypeWarning, Def: "b", Message: "warn"}},
	}
	s := r.String()
	assert.True(t, strings.Contains(s, "Errors (1):"))
	assert.True(t, strings.Contains(s, "Warnings (1):"))
}

func TestValidate(t *testing.T) {
	z := keys.MustParse("z")

	tests := []struct {
		name         string
		doc          string
		wantErrors   int
		wantWarnings int
	}{
		{
			name:         "Clean",
			doc:          "tools:\n  - {name: a, hotkey: a}\n  - {name: b, hotkey: b}\n",
			wantErrors:   0,
			wantWarnings: 0,
		},
		{
			name:         "SharedHotkeySameCategory",
			doc:          "tools:\n  - {name: hunt, hotkey: h}\n  - {name: haul, hotkey: h}\n",
			wantWarnings: 1,
		},
		{
			name:         "SharedHotkeyOtherCategory",
			doc:          "tools:\n  - {name: hunt, hotkey: h}\n  - {name: haul, hotkey: h, category: zone}\n",
			wantWarnings: 0,
		},
		{
			name:         "ReservedKey",
			doc:          "tools:\n  - {name: a, hotkey: Z}\n",
			wantWarnings: 1,
		},
		{
			name:       "Duplicate",
			doc:        "tools:\n  - {name: a}\n  - {name: a}\n  - {name: a}\n",
			wantErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Parse([]byte(tt.doc))
			require.NoError(t, err)

			res := Validate(db, z)
			assert.Len(t, res.Errors, tt.wantErrors, res.String())
			assert.Len(t, res.Warnings, tt.wantWarnings, res.String())
		})
	}
}
