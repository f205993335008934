// Package session tracks one live view per opened dataset: its fetch
// lifecycle, its scratch directory, and the registry that enforces the
// one-session-per-path policy.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xrview/xrv/internal/diag"
	"github.com/xrview/xrv/internal/protocol"
	"github.com/xrview/xrv/internal/python"
)

var (
	// ErrBusy rejects a second invocation while one is in flight.
	// Callers retry when the current one settles; nothing queues.
	ErrBusy = errors.New("session is busy")

	// ErrDisposed rejects work on a closed session.
	ErrDisposed = errors.New("session is disposed")

	// ErrTooLarge refuses datasets over the configured size limit.
	ErrTooLarge = errors.New("file exceeds size limit")
)

// State is a session's lifecycle position.
type State string

const (
	StateOpening    State = "opening"
	StateReady      State = "ready"
	StateRefreshing State = "refreshing"
	StateErrored    State = "errored"
	StateDisposed   State = "disposed"
)

// Fetcher runs helper verbs for a session. *python.Client satisfies it.
type Fetcher interface {
	Info(ctx context.Context, path string) (protocol.Outcome, error)
	Plot(ctx context.Context, path, variable string, opts python.PlotOptions) (protocol.Outcome, error)
}

// FetchError carries the helper's structured failure detail so the UI
// can render suggestions and missing packages, not just a message.
type FetchError struct {
	Detail protocol.ErrorDetail
}

func (e *FetchError) Error() string {
	return e.Detail.Message
}

// PlotOutput names the rendered PNG and any style warning.
type PlotOutput struct {
	Path    string
	Warning string
}

// Session is one opened dataset. All fetches for the same session are
// serialized; sessions for different paths run independently.
type Session struct {
	ID        string
	Path      string
	CreatedAt time.Time

	fetcher Fetcher
	workDir string
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	state   State
	busy    bool
	epoch   uint64
	info    *protocol.FileInfo
	warning string
	lastErr error
}

func newSession(path string, fetcher Fetcher, workDir string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:        uuid.NewString(),
		Path:      path,
		CreatedAt: time.Now(),
		fetcher:   fetcher,
		workDir:   workDir,
		ctx:       ctx,
		cancel:    cancel,
		state:     StateOpening,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// WorkDir is the session's scratch directory, removed on Dispose.
func (s *Session) WorkDir() string {
	return s.workDir
}

// Snapshot is the session's renderable state at one instant.
type Snapshot struct {
	ID      string
	Path    string
	State   State
	Info    *protocol.FileInfo
	Warning string
	Err     error
}

// Snapshot copies the fields the viewer renders from.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:      s.ID,
		Path:    s.Path,
		State:   s.state,
		Info:    s.info,
		Warning: s.warning,
		Err:     s.lastErr,
	}
}

// Load runs the first metadata fetch.
func (s *Session) Load(ctx context.Context) error {
	return s.fetchInfo(ctx, StateOpening)
}

// Refresh re-runs the metadata fetch. Valid from Ready and from
// Errored, which is how a failed session retries.
func (s *Session) Refresh(ctx context.Context) error {
	return s.fetchInfo(ctx, StateRefreshing)
}

func (s *Session) fetchInfo(ctx context.Context, during State) error {
	epoch, err := s.begin(during)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	info, warning, err := s.runInfo(runCtx)
	return s.settle(epoch, info, warning, err)
}

func (s *Session) runInfo(ctx context.Context) (*protocol.FileInfo, string, error) {
	out, err := s.fetcher.Info(ctx, s.Path)
	if err != nil {
		return nil, "", err
	}

	switch o := out.(type) {
	case protocol.Success:
		var info protocol.FileInfo
		if err := o.Decode(&info); err != nil {
			return nil, "", fmt.Errorf("failed to decode dataset info: %w", err)
		}
		return &info, o.Warning, nil

	case protocol.ScriptError:
		return nil, "", &FetchError{Detail: o.Detail()}

	case protocol.TransportError:
		return nil, "", fmt.Errorf("failed to read dataset: %s", o.Summary())

	default:
		return nil, "", fmt.Errorf("failed to read dataset: unrecognized outcome")
	}
}

// Plot renders one variable into the session's workdir and returns the
// PNG path. Serialized with Load/Refresh under the same busy guard.
func (s *Session) Plot(ctx context.Context, variable string, opts python.PlotOptions) (*PlotOutput, error) {
	epoch, err := s.begin("")
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	out, err := s.fetcher.Plot(runCtx, s.Path, variable, opts)
	if err != nil {
		return nil, s.settle(epoch, nil, "", err)
	}

	var result protocol.PlotResult
	var warning string
	switch o := out.(type) {
	case protocol.Success:
		if err := o.Decode(&result); err != nil {
			return nil, s.settle(epoch, nil, "", fmt.Errorf("failed to decode plot: %w", err))
		}
		warning = o.Warning
	case protocol.ScriptError:
		return nil, s.settle(epoch, nil, "", &FetchError{Detail: o.Detail()})
	case protocol.TransportError:
		return nil, s.settle(epoch, nil, "", fmt.Errorf("failed to render plot: %s", o.Summary()))
	default:
		return nil, s.settle(epoch, nil, "", fmt.Errorf("failed to render plot: unrecognized outcome"))
	}

	png, err := result.PNG()
	if err != nil {
		return nil, s.settle(epoch, nil, "", fmt.Errorf("failed to decode plot image: %w", err))
	}

	// Stale epoch means the session was disposed while rendering. The
	// workdir may already be gone; never write into it.
	if err := s.settle(epoch, nil, "", nil); err != nil {
		return nil, err
	}

	target := filepath.Join(s.workDir, plotFilename(s.Path, variable))
	if err := os.WriteFile(target, png, 0644); err != nil {
		return nil, fmt.Errorf("failed to write plot: %w", err)
	}
	return &PlotOutput{Path: target, Warning: warning}, nil
}

// begin claims the session for one invocation. Empty next keeps the
// current state (plots do not move the lifecycle).
func (s *Session) begin(next State) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return 0, ErrDisposed
	}
	if s.busy {
		return 0, ErrBusy
	}
	s.busy = true
	if next != "" {
		s.state = next
	}
	return s.epoch, nil
}

// settle applies an invocation's result unless the session was disposed
// underneath it, in which case the result is discarded.
func (s *Session) settle(epoch uint64, info *protocol.FileInfo, warning string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return ErrDisposed
	}
	s.busy = false

	if err != nil {
		if s.state == StateOpening || s.state == StateRefreshing {
			s.state = StateErrored
		}
		s.lastErr = err
		return err
	}

	if info != nil {
		s.info = info
		s.warning = warning
		s.lastErr = nil
	}
	if s.state == StateOpening || s.state == StateRefreshing {
		s.state = StateReady
	}
	return nil
}

// dispose cancels in-flight work and removes the scratch directory.
// Safe to call more than once.
func (s *Session) dispose() {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return
	}
	s.state = StateDisposed
	s.busy = false
	s.epoch++
	s.mu.Unlock()

	s.cancel()
	if s.workDir != "" {
		if err := os.RemoveAll(s.workDir); err != nil {
			diag.L().Warn("failed to remove session workdir", "dir", s.workDir, "err", err)
		}
	}
	diag.L().Debug("session disposed", "id", s.ID, "path", s.Path)
}

func plotFilename(datasetPath, variable string) string {
	stem := strings.TrimSuffix(filepath.Base(datasetPath), filepath.Ext(datasetPath))
	clean := strings.NewReplacer("/", "_", " ", "_").Replace(strings.Trim(variable, "/"))
	return fmt.Sprintf("%s_%s.png", stem, clean)
}

// CheckFileSize refuses oversized regular files. Directory datasets
// (Zarr stores) are exempt; maxBytes <= 0 disables the check.
func CheckFileSize(path string, maxBytes int64) error {
	if maxBytes <= 0 {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil
	}
	if info.Size() > maxBytes {
		return fmt.Errorf("%w: %s is %.1f MB (limit %.0f MB)",
			ErrTooLarge, filepath.Base(path),
			float64(info.Size())/(1<<20), float64(maxBytes)/(1<<20))
	}
	return nil
}
