package defs

import (
	"log/slog"
	"sync/atomic"
)

// Source is a definition file whose contents can be reloaded at runtime.
// It implements Provider over the most recently loaded database.
type Source struct {
	path    string
	current atomic.Pointer[Database]
}

// Open loads path and returns a reloadable source.
func Open(path string) (*Source, error) {
	db, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := &Source{path: path}
	s.current.Store(db)
	return s, nil
}

// Path returns the backing file path.
func (s *Source) Path() string {
	return s.path
}

// Database returns the current database.
func (s *Source) Database() *Database {
	return s.current.Load()
}

// Tools implements Provider.
func (s *Source) Tools() []ToolDef {
	return s.current.Load().Tools()
}

// Reload re-reads the file. On failure the previous database stays active.
func (s *Source) Reload() error {
	db, err := Load(s.path)
	if err != nil {
		slog.Error("Defs: reload failed, keeping previous definitions", "path", s.path, "error", err)
		return err
	}
	s.current.Store(db)
	slog.Info("Defs: reloaded", "path", s.path, "tools", db.Len())
	return nil
}

// Reverse returns the current reverse definitions.
func (s *Source) Reverse() []ReverseDef {
	return s.current.Load().Reverse()
}
