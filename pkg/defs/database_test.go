package defs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designate/pkg/keys"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantErr  bool
		validate func(*testing.T, *Database)
	}{
		{
			name: "OrderPreserved",
			doc: `
tools:
  - {name: hunt, hotkey: H}
  - {name: haul, hotkey: h, category: zone}
  - {name: mine}
`,
			validate: func(t *testing.T, db *Database) {
				tools := db.Tools()
				require.Len(t, tools, 3)
				assert.Equal(t, []string{"hunt", "haul", "mine"}, []string{tools[0].Name, tools[1].Name, tools[2].Name})
				assert.Equal(t, keys.Key("h"), tools[0].Hotkey)
				assert.Equal(t, keys.None, tools[2].Hotkey)
				assert.Equal(t, DefaultCategory, tools[0].Category)
				assert.Equal(t, []string{DefaultCategory, "zone"}, db.Categories())
			},
		},
		{
			name:    "EmptyName",
			doc:     "tools:\n  - {name: ''}\n",
			wantErr: true,
		},
		{
			name:    "ReverseUnknownTool",
			doc:     "tools:\n  - {name: a}\nreverse:\n  - {name: r, tool: b}\n",
			wantErr: true,
		},
		{
			name:    "BadYAML",
			doc:     "tools: [",
			wantErr: true,
		},
		{
			name: "MalformedHotkeyKept",
			doc:  "tools:\n  - {name: a, hotkey: 'ctrl+'}\n",
			validate: func(t *testing.T, db *Database) {
				def, ok := db.Tool("a")
				require.True(t, ok)
				assert.True(t, def.Hotkey.IsNone())
				assert.True(t, Validate(db, keys.None).HasErrors())
			},
		},
		{
			name: "DuplicateFirstWins",
			doc:  "tools:\n  - {name: a, hotkey: x}\n  - {name: a, hotkey: y}\n",
			validate: func(t *testing.T, db *Database) {
				assert.Equal(t, 2, db.Len())
				def, _ := db.Tool("a")
				assert.Equal(t, keys.Key("x"), def.Hotkey)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Parse([]byte(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, db)
			}
		})
	}
}

func TestDatabase_ReturnsCopies(t *testing.T) {
	db, err := Parse([]byte("tools:\n  - {name: a}\nreverse:\n  - {name: r, tool: a}\n"))
	require.NoError(t, err)

	tools := db.Tools()
	tools[0].Name = "changed"
	rev := db.Reverse()
	rev[0].Name = "changed"

	_, ok := db.Tool("a")
	assert.True(t, ok)
	assert.Equal(t, "r", db.Reverse()[0].Name)
}

func TestDefault(t *testing.T) {
	db := Default()
	assert.Greater(t, db.Len(), 0)

	res := Validate(db, keys.MustParse("z"))
	assert.False(t, res.HasErrors(), res.String())
}

func TestGenerateDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "defs.yaml")
	require.NoError(t, GenerateDefault(path))

	db, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Len(), db.Len())

	// Existing files are left alone.
	require.NoError(t, os.WriteFile(path, []byte("tools: []\n"), 0o644))
	require.NoError(t, GenerateDefault(path))
	db, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, db.Len())
}

func TestSource_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tools:\n  - {name: a}\n"), 0o644))

	src, err := Open(path)
	require.NoError(t, err)
	assert.Len(t, src.Tools(), 1)
	assert.Equal(t, path, src.Path())

	require.NoError(t, os.WriteFile(path, []byte("tools:\n  - {name: a}\n  - {name: b}\n"), 0o644))
	require.NoError(t, src.Reload())
	assert.Len(t, src.Tools(), 2)

	// A broken file keeps the last good database.
	require.NoError(t, os.WriteFile(path, []byte("tools: ["), 0o644))
	assert.Error(t, src.Reload())
	assert.Len(t, src.Tools(), 2)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
