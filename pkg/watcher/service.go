package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultQuiet is how long the file must stay untouched before onChange runs.
const DefaultQuiet = 100 * time.Millisecond

// DefaultPoll is the polling interval used when fsnotify is unavailable.
const DefaultPoll = 2 * time.Second

// Service watches a single file and reports changes after a quiet period.
// Editors often write a file in several steps; the burst collapses into one
// onChange call.
type Service struct {
	path     string
	onChange func()

	Quiet time.Duration
	Poll  time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	lastMod  time.Time
	lastSize int64
	watcher  *fsnotify.Watcher
	done     chan struct{}
	closed   bool
}

// NewService creates a watcher for path. onChange runs on a timer goroutine.
func NewService(path string, onChange func()) (*Service, error) {
	if onChange == nil {
		return nil, fmt.Errorf("watcher: onChange is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		slog.Warn("Watcher: file does not exist yet", "path", abs)
	}

	s := &Service{
		path:     abs,
		onChange: onChange,
		Quiet:    DefaultQuiet,
		Poll:     DefaultPoll,
		done:     make(chan struct{}),
	}
	s.lastMod, s.lastSize = s.stat()
	return s, nil
}

// Path returns the watched file.
func (s *Service) Path() string {
	return s.path
}

// Start begins watching in the background. It watches the parent directory
// so that atomic-rename saves are seen. If fsnotify cannot be set up, it
// falls back to polling the file's modification time.
func (s *Service) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err == nil {
		err = w.Add(filepath.Dir(s.path))
		if err != nil {
			_ = w.Close()
		}
	}
	if err != nil {
		slog.Warn("Watcher: fsnotify unavailable, polling instead", "path", s.path, "error", err)
		go s.pollLoop(ctx)
		return nil
	}

	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()

	go s.eventLoop(ctx, w)
	slog.Info("Watcher: watching", "path", s.path)
	return nil
}

// Close stops watching and cancels a pending notification.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// CheckChanged compares the file's modification time and size with the last
// observation and reports whether it changed.
func (s *Service) CheckChanged() bool {
	mod, size := s.stat()

	s.mu.Lock()
	defer s.mu.Unlock()
	if mod.Equal(s.lastMod) && size == s.lastSize {
		return false
	}
	s.lastMod, s.lastSize = mod, size
	return true
}

func (s *Service) eventLoop(ctx context.Context, w *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-s.done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				s.schedule()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher: fsnotify error", "path", s.path, "error", err)
		}
	}
}

func (s *Service) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-s.done:
			return
		case <-ticker.C:
			if s.CheckChanged() {
				s.schedule()
			}
		}
	}
}

// schedule (re)starts the quiet-period timer.
func (s *Service) schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.Quiet, s.fire)
}

func (s *Service) fire() {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	s.CheckChanged()
	slog.Info("Watcher: file changed", "path", s.path)
	s.onChange()
}

func (s *Service) stat() (time.Time, int64) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, -1
	}
	return info.ModTime(), info.Size()
}
