package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/xrview/xrv/internal/protocol"
	"github.com/xrview/xrv/internal/python"
)

// fakeFetcher scripts helper outcomes. A non-nil gate blocks Info until
// the gate closes or the context ends, for in-flight tests.
type fakeFetcher struct {
	mu        sync.Mutex
	infoCalls int
	plotCalls int
	gate      chan struct{}
	infoOut   protocol.Outcome
	plotOut   protocol.Outcome
	err       error
}

func (f *fakeFetcher) Info(ctx context.Context, path string) (protocol.Outcome, error) {
	f.mu.Lock()
	f.infoCalls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return protocol.TransportError{ExitCode: -1, Canceled: true}, nil
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.infoOut, nil
}

func (f *fakeFetcher) Plot(ctx context.Context, path, variable string, opts python.PlotOptions) (protocol.Outcome, error) {
	f.mu.Lock()
	f.plotCalls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.plotOut, nil
}

func infoSuccess(warning string) protocol.Outcome {
	doc := `{"used_engine": "netcdf4", "file_size": 2048, "format_info": {"extension": ".nc", "display_name": "NetCDF", "available_engines": ["netcdf4"]}}`
	return protocol.Success{Result: json.RawMessage(doc), Warning: warning}
}

func newReadySession(t *testing.T, f Fetcher) *Session {
	t.Helper()
	s := newSession("/data/file.nc", f, t.TempDir())
	t.Cleanup(s.dispose)
	return s
}

func TestSession_LoadReachesReady(t *testing.T) {
	f := &fakeFetcher{infoOut: infoSuccess("")}
	s := newReadySession(t, f)

	if s.State() != StateOpening {
		t.Errorf("State() before Load = %v, want %v", s.State(), StateOpening)
	}

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	snap := s.Snapshot()
	if snap.State != StateReady {
		t.Errorf("State after Load = %v, want %v", snap.State, StateReady)
	}
	if snap.Info == nil || snap.Info.UsedEngine != "netcdf4" {
		t.Errorf("Snapshot().Info = %+v, want decoded payload", snap.Info)
	}
	if snap.Err != nil {
		t.Errorf("Snapshot().Err = %v, want nil", snap.Err)
	}
}

func TestSession_PartialSuccessKeepsWarning(t *testing.T) {
	f := &fakeFetcher{infoOut: infoSuccess("style not found, used default")}
	s := newReadySession(t, f)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	snap := s.Snapshot()
	if snap.State != StateReady {
		t.Errorf("partial success state = %v, want %v", snap.State, StateReady)
	}
	if snap.Warning != "style not found, used default" {
		t.Errorf("Snapshot().Warning = %q", snap.Warning)
	}
}

func TestSession_ScriptErrorMovesToErrored(t *testing.T) {
	f := &fakeFetcher{infoOut: protocol.ScriptError{
		Message: "Unsupported file format: .xyz",
		Fields: map[string]json.RawMessage{
			"suggestion": json.RawMessage(`"try a NetCDF file"`),
		},
	}}
	s := newReadySession(t, f)

	err := s.Load(context.Background())
	if err == nil {
		t.Fatal("Load() expected error")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Load() error = %T, want *FetchError", err)
	}
	if fe.Detail.Suggestion != "try a NetCDF file" {
		t.Errorf("FetchError suggestion = %q", fe.Detail.Suggestion)
	}
	if s.State() != StateErrored {
		t.Errorf("State after script error = %v, want %v", s.State(), StateErrored)
	}
}

func TestSession_RefreshRetriesFromErrored(t *testing.T) {
	f := &fakeFetcher{infoOut: protocol.ScriptError{Message: "boom"}}
	s := newReadySession(t, f)

	if err := s.Load(context.Background()); err == nil {
		t.Fatal("Load() expected error")
	}

	f.mu.Lock()
	f.infoOut = infoSuccess("")
	f.mu.Unlock()

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() after error = %v", err)
	}
	snap := s.Snapshot()
	if snap.State != StateReady {
		t.Errorf("State after retry = %v, want %v", snap.State, StateReady)
	}
	if snap.Err != nil {
		t.Errorf("Snapshot().Err after retry = %v, want nil", snap.Err)
	}
}

func TestSession_BusyRejectsSecondFetch(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeFetcher{gate: gate, infoOut: infoSuccess("")}
	s := newReadySession(t, f)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()

	// Wait until the first fetch is in flight.
	deadline := time.Now().Add(2 * time.Second)
	for {
		f.mu.Lock()
		n := f.infoCalls
		f.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first Load never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.Refresh(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("Refresh() during Load = %v, want ErrBusy", err)
	}
	if _, err := s.Plot(context.Background(), "temp", python.PlotOptions{}); !errors.Is(err, ErrBusy) {
		t.Errorf("Plot() during Load = %v, want ErrBusy", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Settled sessions accept the next fetch.
	if err := s.Refresh(context.Background()); err != nil {
		t.Errorf("Refresh() after settle = %v", err)
	}
}

func TestSession_DisposeDiscardsLateResult(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeFetcher{gate: gate, infoOut: infoSuccess("")}
	s := newSession("/data/file.nc", f, t.TempDir())

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		f.mu.Lock()
		n := f.infoCalls
		f.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Load never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.dispose()
	close(gate) // the fetch now returns a success nobody should apply

	if err := <-done; !errors.Is(err, ErrDisposed) {
		t.Errorf("Load() after dispose = %v, want ErrDisposed", err)
	}

	snap := s.Snapshot()
	if snap.State != StateDisposed {
		t.Errorf("State = %v, want %v", snap.State, StateDisposed)
	}
	if snap.Info != nil {
		t.Error("late result was applied to a disposed session")
	}
}

func TestSession_DisposedRejectsFetch(t *testing.T) {
	f := &fakeFetcher{infoOut: infoSuccess("")}
	s := newSession("/data/file.nc", f, t.TempDir())
	s.dispose()

	if err := s.Load(context.Background()); !errors.Is(err, ErrDisposed) {
		t.Errorf("Load() on disposed session = %v, want ErrDisposed", err)
	}
	s.dispose() // idempotent
}

func TestSession_PlotWritesWorkdirPNG(t *testing.T) {
	png := []byte("\x89PNG fake image bytes")
	doc := fmt.Sprintf(`{"plot_data": %q}`, base64.StdEncoding.EncodeToString(png))
	f := &fakeFetcher{
		infoOut: infoSuccess(""),
		plotOut: protocol.Success{Result: json.RawMessage(doc), Warning: "style dark not found"},
	}
	s := newReadySession(t, f)

	out, err := s.Plot(context.Background(), "air/temperature", python.PlotOptions{Type: "line"})
	if err != nil {
		t.Fatalf("Plot() error = %v", err)
	}

	if filepath.Dir(out.Path) != s.WorkDir() {
		t.Errorf("Plot() wrote to %q, want session workdir %q", out.Path, s.WorkDir())
	}
	if filepath.Base(out.Path) != "file_air_temperature.png" {
		t.Errorf("Plot() filename = %q, want file_air_temperature.png", filepath.Base(out.Path))
	}
	if out.Warning != "style dark not found" {
		t.Errorf("Plot() warning = %q", out.Warning)
	}

	got, err := os.ReadFile(out.Path)
	if err != nil {
		t.Fatalf("Failed to read plot file: %v", err)
	}
	if string(got) != string(png) {
		t.Error("Plot() wrote different bytes than the decoded payload")
	}
}

func TestSession_PlotKeepsLifecycleState(t *testing.T) {
	doc := fmt.Sprintf(`{"plot_data": %q}`, base64.StdEncoding.EncodeToString([]byte("png")))
	f := &fakeFetcher{infoOut: infoSuccess(""), plotOut: protocol.Success{Result: json.RawMessage(doc)}}
	s := newReadySession(t, f)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := s.Plot(context.Background(), "temp", python.PlotOptions{}); err != nil {
		t.Fatalf("Plot() error = %v", err)
	}
	if s.State() != StateReady {
		t.Errorf("State after Plot = %v, want %v", s.State(), StateReady)
	}
}

func TestCheckFileSize(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.nc")
	if err := os.WriteFile(big, make([]byte, 4096), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	if err := CheckFileSize(big, 1024); !errors.Is(err, ErrTooLarge) {
		t.Errorf("CheckFileSize(oversized) = %v, want ErrTooLarge", err)
	}
	if err := CheckFileSize(big, 1<<20); err != nil {
		t.Errorf("CheckFileSize(within limit) = %v, want nil", err)
	}
	if err := CheckFileSize(big, 0); err != nil {
		t.Errorf("CheckFileSize(disabled) = %v, want nil", err)
	}

	// Zarr stores are directories; size is not a single read.
	if err := CheckFileSize(dir, 1); err != nil {
		t.Errorf("CheckFileSize(directory) = %v, want nil", err)
	}

	if err := CheckFileSize(filepath.Join(dir, "missing.nc"), 1024); err == nil {
		t.Error("CheckFileSize(missing) expected error")
	}
}
