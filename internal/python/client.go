package python

import (
	"context"
	"strconv"
	"time"

	"github.com/xrview/xrv/internal/diag"
	"github.com/xrview/xrv/internal/protocol"
	"github.com/xrview/xrv/pkg/shell"
)

const defaultInvokeTimeout = 60 * time.Second

// ClientOptions configure helper invocations.
type ClientOptions struct {
	// ScriptPath is the materialized helper script.
	ScriptPath string
	// Timeout is the default per-invocation deadline.
	Timeout time.Duration
	// Env entries are added to every invocation.
	Env map[string]string
	// Runner defaults to real process execution.
	Runner shell.Runner
}

// Client invokes helper verbs through the resolved interpreter.
//
// Expected failure modes (script errors, crashes, timeouts) come back as
// outcomes; the returned error is reserved for an unready environment,
// so callers can refuse cheaply before any subprocess exists.
type Client struct {
	resolver   *Resolver
	runner     shell.Runner
	scriptPath string
	timeout    time.Duration
	env        map[string]string
}

// NewClient binds a resolver to the materialized helper script.
func NewClient(resolver *Resolver, opts ClientOptions) *Client {
	runner := opts.Runner
	if runner == nil {
		runner = shell.NewRunner()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultInvokeTimeout
	}
	return &Client{
		resolver:   resolver,
		runner:     runner,
		scriptPath: opts.ScriptPath,
		timeout:    timeout,
		env:        opts.Env,
	}
}

// Resolver returns the client's interpreter resolver.
func (c *Client) Resolver() *Resolver {
	return c.resolver
}

// Invoke runs one helper verb with the default deadline.
func (c *Client) Invoke(ctx context.Context, verb string, args ...string) (protocol.Outcome, error) {
	return c.InvokeTimeout(ctx, c.timeout, verb, args...)
}

// InvokeTimeout runs one helper verb with an explicit deadline. It fails
// with ErrNotReady before spawning the helper when no interpreter
// resolves.
func (c *Client) InvokeTimeout(ctx context.Context, timeout time.Duration, verb string, args ...string) (protocol.Outcome, error) {
	handle, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	argv := append([]string{c.scriptPath, verb}, args...)
	opts := shell.Options{Timeout: timeout, Env: c.env}

	start := time.Now()
	res, err := c.runner.RunWith(ctx, opts, handle.Path, argv...)
	if err != nil {
		// Spawn failure: the interpreter vanished between resolve and
		// exec, or is not executable. Transport-level by definition.
		diag.L().Error("helper spawn failed", "verb", verb, "python", handle.Path, "err", err)
		return protocol.TransportError{ExitCode: -1, Stderr: err.Error()}, nil
	}

	if res.Stderr != "" {
		diag.L().Debug("helper stderr", "verb", verb, "stderr", res.Stderr)
	}

	out := protocol.Classify(res)
	if te, ok := out.(protocol.TransportError); ok {
		diag.L().Error("helper transport failure",
			"verb", verb, "summary", te.Summary(), "duration", time.Since(start))
	} else {
		diag.L().Debug("helper finished",
			"verb", verb, "duration", time.Since(start))
	}
	return out, nil
}

// Info fetches dataset structure and metadata.
func (c *Client) Info(ctx context.Context, path string) (protocol.Outcome, error) {
	return c.Invoke(ctx, "info", path)
}

// Text fetches the dataset's plain-text representation.
func (c *Client) Text(ctx context.Context, path string) (protocol.Outcome, error) {
	return c.Invoke(ctx, "text", path)
}

// HTML fetches the dataset's standalone HTML representation.
func (c *Client) HTML(ctx context.Context, path string) (protocol.Outcome, error) {
	return c.Invoke(ctx, "html", path)
}

// Versions fetches the xarray environment dump.
func (c *Client) Versions(ctx context.Context) (protocol.Outcome, error) {
	return c.Invoke(ctx, "versions")
}

// PlotOptions adjust a plot invocation.
type PlotOptions struct {
	Type  string // auto, line, pcolormesh, hist
	Style string // matplotlib style name
}

// Plot renders one variable to a PNG, returned base64-encoded in the
// payload.
func (c *Client) Plot(ctx context.Context, path, variable string, opts PlotOptions) (protocol.Outcome, error) {
	args := []string{path, variable}
	if opts.Type != "" {
		args = append(args, "--plot-type", opts.Type)
	}
	if opts.Style != "" {
		args = append(args, "--style", opts.Style)
	}
	return c.Invoke(ctx, "plot", args...)
}

// SliceOptions select a range along one dimension. Nil bounds keep the
// Python slice default for that side.
type SliceOptions struct {
	Dim   string
	Start *int
	Stop  *int
}

// Slice fetches raw values of one variable.
func (c *Client) Slice(ctx context.Context, path, variable string, opts SliceOptions) (protocol.Outcome, error) {
	args := []string{path, variable}
	if opts.Dim != "" {
		args = append(args, "--dim", opts.Dim)
	}
	if opts.Start != nil {
		args = append(args, "--start", strconv.Itoa(*opts.Start))
	}
	if opts.Stop != nil {
		args = append(args, "--stop", strconv.Itoa(*opts.Stop))
	}
	return c.Invoke(ctx, "slice", args...)
}
