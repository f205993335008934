// Package python resolves a usable interpreter and drives the embedded
// helper script through it. Everything xrv knows about a dataset comes
// through here: one verb in, one classified JSON document out.
package python

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/singleflight"

	"github.com/xrview/xrv/internal/diag"
	"github.com/xrview/xrv/pkg/shell"
)

// ErrNotReady means no usable interpreter could be resolved. Dependent
// operations fail fast with this error instead of spawning the helper.
var ErrNotReady = errors.New("python environment not ready")

// DefaultMinVersion is the interpreter constraint applied when the
// config does not set one.
const DefaultMinVersion = ">= 3.9"

const defaultProbeTimeout = 5 * time.Second

// probeScript runs inside the candidate interpreter and reports what it
// actually is, independent of how the binary is named or symlinked.
const probeScript = `import json, platform, sys; print(json.dumps({"version": platform.python_version(), "executable": sys.executable, "prefix": sys.prefix}))`

// Handle describes a probed, accepted interpreter.
type Handle struct {
	// Path is the real executable (sys.executable), not the symlink the
	// candidate was discovered under.
	Path       string
	Version    string
	Prefix     string
	Source     string // config, env, venv, path
	ResolvedAt time.Time
}

// Candidate is a potential interpreter location, not yet probed.
type Candidate struct {
	Path   string
	Source string
}

// Options configure interpreter discovery.
type Options struct {
	// ConfigPath pins the interpreter (config file or --python flag).
	ConfigPath string
	// WorkDir is where project-local virtualenvs are searched. Empty
	// means the current directory.
	WorkDir string
	// MinVersion is a semver constraint, e.g. ">= 3.9".
	MinVersion string
	// ProbeTimeout bounds each candidate probe.
	ProbeTimeout time.Duration
	// Runner defaults to real process execution.
	Runner shell.Runner
}

// Resolver finds and caches a usable interpreter. Discovery is lazy:
// nothing is probed until the first Resolve, and the cached handle is
// reused until Invalidate.
type Resolver struct {
	opts       Options
	constraint *semver.Constraints
	runner     shell.Runner

	mu     sync.RWMutex
	handle *Handle

	sf singleflight.Group
}

// NewResolver validates the version constraint and returns a resolver.
func NewResolver(opts Options) (*Resolver, error) {
	if opts.MinVersion == "" {
		opts.MinVersion = DefaultMinVersion
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}

	constraint, err := semver.NewConstraint(opts.MinVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid python version constraint %q: %w", opts.MinVersion, err)
	}

	runner := opts.Runner
	if runner == nil {
		runner = shell.NewRunner()
	}

	return &Resolver{opts: opts, constraint: constraint, runner: runner}, nil
}

// Resolve returns the cached interpreter, discovering one on first use.
// Concurrent callers share a single discovery pass.
func (r *Resolver) Resolve(ctx context.Context) (*Handle, error) {
	r.mu.RLock()
	h := r.handle
	r.mu.RUnlock()
	if h != nil {
		return h, nil
	}

	v, err, _ := r.sf.Do("resolve", func() (interface{}, error) {
		// A racing caller may have finished discovery while this one
		// waited on the flight.
		r.mu.RLock()
		cached := r.handle
		r.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		handle, err := r.discover(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.handle = handle
		r.mu.Unlock()
		return handle, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// Current returns the cached interpreter without triggering discovery,
// or nil when none is resolved.
func (r *Resolver) Current() *Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handle
}

// Invalidate drops the cached interpreter. The next Resolve runs a full
// discovery pass. Called when the environment may have changed under us
// (config edit, venv created or deleted).
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.handle = nil
	r.mu.Unlock()
	diag.L().Debug("interpreter cache invalidated")
}

// ForceRefresh rediscovers immediately, ignoring the cache.
func (r *Resolver) ForceRefresh(ctx context.Context) (*Handle, error) {
	r.Invalidate()
	return r.Resolve(ctx)
}

// Ready reports whether an interpreter is resolved or resolvable.
func (r *Resolver) Ready(ctx context.Context) bool {
	_, err := r.Resolve(ctx)
	return err == nil
}

// Candidates lists interpreter locations in priority order: the pinned
// config path, $XRV_PYTHON, project-local virtualenvs, then PATH.
// Deduplicated, not probed.
func (r *Resolver) Candidates() []Candidate {
	var out []Candidate
	seen := map[string]bool{}
	add := func(path, source string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		out = append(out, Candidate{Path: path, Source: source})
	}

	if r.opts.ConfigPath != "" {
		add(r.opts.ConfigPath, "config")
	}

	if env := os.Getenv("XRV_PYTHON"); env != "" {
		add(env, "env")
	}

	dir := r.opts.WorkDir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	for _, venv := range []string{".venv", "venv"} {
		p := filepath.Join(dir, venv, "bin", "python")
		if _, err := os.Stat(p); err == nil {
			add(p, "venv")
		}
	}

	for _, name := range []string{"python3", "python"} {
		if p := shell.Which(name); p != "" {
			add(p, "path")
		}
	}

	return out
}

// discover probes candidates in order and returns the first acceptable
// interpreter.
func (r *Resolver) discover(ctx context.Context) (*Handle, error) {
	var failures []string
	for _, cand := range r.Candidates() {
		handle, err := r.Probe(ctx, cand.Path)
		if err != nil {
			diag.L().Debug("probe rejected candidate", "python", cand.Path, "err", err)
			failures = append(failures, fmt.Sprintf("%s: %v", cand.Path, err))
			continue
		}
		handle.Source = cand.Source
		handle.ResolvedAt = time.Now()
		diag.L().Info("resolved interpreter",
			"path", handle.Path, "version", handle.Version, "source", handle.Source)
		return handle, nil
	}

	if len(failures) == 0 {
		return nil, fmt.Errorf("%w: no python interpreter found", ErrNotReady)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotReady, strings.Join(failures, "; "))
}

// Probe runs the candidate once and checks it against the version
// constraint.
func (r *Resolver) Probe(ctx context.Context, path string) (*Handle, error) {
	opts := shell.Options{Timeout: r.opts.ProbeTimeout}
	res, err := r.runner.RunWith(ctx, opts, path, "-c", probeScript)
	if err != nil {
		return nil, err
	}
	if res.TimedOut {
		return nil, fmt.Errorf("probe timed out after %s", r.opts.ProbeTimeout)
	}
	if res.Canceled {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("probe canceled")
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("probe exited with status %d: %s", res.ExitCode, res.Stderr)
	}

	var info struct {
		Version    string `json:"version"`
		Executable string `json:"executable"`
		Prefix     string `json:"prefix"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &info); err != nil {
		return nil, fmt.Errorf("unparseable probe output: %w", err)
	}

	v, err := semver.NewVersion(info.Version)
	if err != nil {
		return nil, fmt.Errorf("unparseable python version %q: %w", info.Version, err)
	}
	if !r.constraint.Check(v) {
		return nil, fmt.Errorf("python %s does not satisfy %s", info.Version, r.opts.MinVersion)
	}

	exe := info.Executable
	if exe == "" {
		exe = path
	}
	return &Handle{Path: exe, Version: info.Version, Prefix: info.Prefix}, nil
}
