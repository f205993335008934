package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xrview/xrv/internal/config"
	"github.com/xrview/xrv/internal/diag"
	"github.com/xrview/xrv/internal/history"
	"github.com/xrview/xrv/internal/protocol"
	"github.com/xrview/xrv/internal/python"
	"github.com/xrview/xrv/internal/scripts"
	"github.com/xrview/xrv/internal/session"
	"github.com/xrview/xrv/internal/ui"
)

// loadConfig loads .xrv.yaml with local overrides, or falls back to
// defaults. Every command works without a config file.
func loadConfig() *config.Config {
	if cfgFile != "" {
		cfg, err := config.LoadWithLocalFromPath(cfgFile)
		if err != nil {
			ui.Warningf("Failed to load %s: %v (using defaults)", cfgFile, err)
			return config.DefaultConfig()
		}
		return cfg
	}
	return config.LoadOrDefault()
}

// newResolver builds the interpreter resolver from config plus flags. The
// --python flag outranks the configured pin.
func newResolver(cfg *config.Config) (*python.Resolver, error) {
	pin := cfg.Python.Path
	if pythonFlag != "" {
		pin = pythonFlag
	}
	return python.NewResolver(python.Options{
		ConfigPath:   pin,
		WorkDir:      cfg.ProjectRoot(),
		MinVersion:   cfg.Python.MinVersion,
		ProbeTimeout: cfg.ProbeTimeout(),
	})
}

// newClient builds the helper client: a resolver bound to the
// materialized helper script.
func newClient(cfg *config.Config) (*python.Client, error) {
	resolver, err := newResolver(cfg)
	if err != nil {
		return nil, err
	}
	scriptPath, err := scripts.Materialize()
	if err != nil {
		return nil, err
	}
	return python.NewClient(resolver, python.ClientOptions{
		ScriptPath: scriptPath,
		Timeout:    invokeTimeout(cfg),
		Env:        cfg.Python.Env,
	}), nil
}

// invokeTimeout returns the helper deadline, --timeout winning over config.
func invokeTimeout(cfg *config.Config) time.Duration {
	if timeoutFlag > 0 {
		return time.Duration(timeoutFlag) * time.Second
	}
	return cfg.InvokeTimeout()
}

// guardFileSize refuses oversized datasets unless forced.
func guardFileSize(cfg *config.Config, path string, force bool) error {
	if force {
		return nil
	}
	if err := session.CheckFileSize(path, cfg.MaxFileBytes()); err != nil {
		if errors.Is(err, session.ErrTooLarge) {
			return fmt.Errorf("%w (use --force to open anyway)", err)
		}
		return err
	}
	return nil
}

// openHistory returns the recently-opened store, or nil when history is
// disabled or unavailable. History is never load-bearing; failures land
// in the debug log only.
func openHistory(cfg *config.Config) *history.Store {
	if cfg.History.Disabled {
		return nil
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		diag.L().Warn("history store unavailable", "err", err)
		return nil
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		diag.L().Warn("history schema failed", "err", err)
		store.Close()
		return nil
	}
	return store
}

// recordOpen notes a dataset open in history, best effort.
func recordOpen(store *history.Store, path string) {
	if store == nil {
		return
	}
	if err := store.Record(context.Background(), path); err != nil {
		diag.L().Warn("history record failed", "path", path, "err", err)
	}
}

// reportFailure renders a non-success outcome and returns an error
// carrying its short form, so the command exits nonzero. Interpreter
// readiness errors (ErrNotReady) arrive as Go errors, not outcomes, and
// are handled by reportResolveError instead.
func reportFailure(o protocol.Outcome) error {
	switch v := o.(type) {
	case protocol.ScriptError:
		d := v.Detail()
		ui.Error(d.Message)
		if d.Suggestion != "" {
			ui.Info(d.Suggestion)
		}
		if len(d.MissingPackages) > 0 {
			ui.Infof("Missing packages: %s", strings.Join(d.MissingPackages, ", "))
			ui.Infof("Install with: pip install %s", strings.Join(d.MissingPackages, " "))
		}
		return errors.New(d.Message)

	case protocol.TransportError:
		diag.L().Error("helper transport failure",
			"exit", v.ExitCode, "timeout", v.TimedOut, "stderr", v.Stderr)
		ui.Error(v.Summary())
		if diag.Path() != "" {
			ui.Infof("Details in the debug log: xrv logs")
		}
		return errors.New(v.Summary())

	default:
		return nil
	}
}

// reportResolveError explains an unready interpreter and points at the
// fix. Returns the error unchanged for the exit code.
func reportResolveError(err error) error {
	if errors.Is(err, python.ErrNotReady) {
		ui.Error(err.Error())
		ui.Info("Pin one with 'xrv python select' or the --python flag")
		return err
	}
	return err
}
