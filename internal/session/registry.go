package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xrview/xrv/internal/diag"
)

// Recorder is notified when a dataset is opened. Wired to the history
// store; nil disables recording.
type Recorder interface {
	Record(ctx context.Context, path string) error
}

// RegistryOptions configure session creation policy.
type RegistryOptions struct {
	// Fetcher runs the helper verbs for every session.
	Fetcher Fetcher
	// MultiTab allows several live sessions for the same path.
	MultiTab bool
	// MaxFileBytes refuses larger regular files at open; zero disables.
	MaxFileBytes int64
	// WorkRoot holds per-session scratch dirs. Defaults to os.TempDir.
	WorkRoot string
	// Recorder receives opened paths.
	Recorder Recorder
}

// Registry owns every live session and the one-per-path policy.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session // by ID
	byPath   map[string]*Session // live session per path
	order    []string            // IDs, insertion order

	fetcher  Fetcher
	multiTab bool
	maxBytes int64
	workRoot string
	recorder Recorder
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	workRoot := opts.WorkRoot
	if workRoot == "" {
		workRoot = os.TempDir()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		byPath:   make(map[string]*Session),
		fetcher:  opts.Fetcher,
		multiTab: opts.MultiTab,
		maxBytes: opts.MaxFileBytes,
		workRoot: workRoot,
		recorder: opts.Recorder,
	}
}

// OpenOptions adjust a single open.
type OpenOptions struct {
	// Force skips the file size guard.
	Force bool
}

// OpenOrFocus returns the live session for path, creating one when none
// exists. created is false when an existing session was returned; the
// caller focuses it. Multi-tab mode always creates.
func (r *Registry) OpenOrFocus(path string, opts OpenOptions) (s *Session, created bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve path: %w", err)
	}

	if !r.multiTab {
		r.mu.Lock()
		existing := r.byPath[abs]
		r.mu.Unlock()
		if existing != nil {
			return existing, false, nil
		}
	}

	s, err = r.Open(abs, opts)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// Open always creates a new session for path.
func (r *Registry) Open(path string, opts OpenOptions) (*Session, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("dataset not found: %s", abs)
	}
	if !opts.Force {
		if err := CheckFileSize(abs, r.maxBytes); err != nil {
			return nil, err
		}
	}

	workDir, err := os.MkdirTemp(r.workRoot, "xrv-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create session workdir: %w", err)
	}

	s := newSession(abs, r.fetcher, workDir)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.byPath[abs] = s
	r.order = append(r.order, s.ID)
	r.mu.Unlock()

	if r.recorder != nil {
		if err := r.recorder.Record(context.Background(), abs); err != nil {
			diag.L().Warn("failed to record history", "path", abs, "err", err)
		}
	}

	diag.L().Debug("session opened", "id", s.ID, "path", abs)
	return s, nil
}

// Get returns a session by ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Sessions lists live sessions in open order.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		if s, ok := r.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Dispose removes the session from the registry, cancels its in-flight
// work, and deletes its workdir. Idempotent; safe from UI close paths.
func (r *Registry) Dispose(s *Session) {
	if s == nil {
		return
	}

	r.mu.Lock()
	if _, ok := r.sessions[s.ID]; ok {
		delete(r.sessions, s.ID)
		if r.byPath[s.Path] == s {
			delete(r.byPath, s.Path)
		}
		for i, id := range r.order {
			if id == s.ID {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	s.dispose()
}

// Close disposes every session.
func (r *Registry) Close() {
	for _, s := range r.Sessions() {
		r.Dispose(s)
	}
}
