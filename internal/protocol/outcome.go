// Package protocol classifies and decodes the JSON documents the Python
// helper script emits on stdout.
//
// Every invocation produces exactly one of three outcomes: the script
// answered (Success), the script answered with a structured failure
// (ScriptError), or the process itself failed before a usable answer
// existed (TransportError). Callers branch with a type switch; there is
// no fourth case.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/xrview/xrv/pkg/shell"
)

// Outcome is the classified result of one helper invocation. The three
// implementations are Success, ScriptError and TransportError.
type Outcome interface {
	isOutcome()
}

// Success carries the payload under the document's "result" key. When the
// document carried an "error" alongside the result, the operation
// partially succeeded and Warning holds the message; the payload is still
// valid and must be rendered together with the warning.
type Success struct {
	// Result is the raw payload, decoded further by the caller.
	Result json.RawMessage
	// Warning is non-empty for partial successes.
	Warning string
	// Fields holds any sibling keys beside result/error.
	Fields map[string]json.RawMessage
}

// ScriptError is a structured failure reported by the script itself:
// unsupported format, missing engine package, unknown variable, and so
// on. These are expected conditions, not crashes.
type ScriptError struct {
	// Message is the human-readable error string.
	Message string
	// Fields holds the diagnostic keys emitted beside the error
	// (error_type, suggestion, format_info, missing_packages, ...).
	Fields map[string]json.RawMessage
}

// TransportError means the process failed before producing a usable
// document: crash, nonzero exit without an envelope, timeout,
// cancellation, or garbage on stdout.
type TransportError struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Canceled bool
}

func (Success) isOutcome()        {}
func (ScriptError) isOutcome()    {}
func (TransportError) isOutcome() {}

// Decode unmarshals the success payload into v.
func (s Success) Decode(v any) error {
	if len(s.Result) == 0 {
		return fmt.Errorf("empty result payload")
	}
	if err := json.Unmarshal(s.Result, v); err != nil {
		return fmt.Errorf("failed to decode result payload: %w", err)
	}
	return nil
}

// Field unmarshals one sibling field into v. It returns false when the
// field is absent.
func (s Success) Field(name string, v any) (bool, error) {
	raw, ok := s.Fields[name]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// Detail decodes the structured diagnostic fields carried beside the
// error message. Missing fields stay at their zero values.
func (e ScriptError) Detail() ErrorDetail {
	d := ErrorDetail{Message: e.Message}
	if raw, ok := e.Fields["error_type"]; ok {
		_ = json.Unmarshal(raw, &d.Type)
	}
	if raw, ok := e.Fields["suggestion"]; ok {
		_ = json.Unmarshal(raw, &d.Suggestion)
	}
	if raw, ok := e.Fields["missing_packages"]; ok {
		_ = json.Unmarshal(raw, &d.MissingPackages)
	}
	if raw, ok := e.Fields["format_info"]; ok {
		var fi FormatInfo
		if json.Unmarshal(raw, &fi) == nil {
			d.FormatInfo = &fi
		}
	}
	return d
}

// Summary renders a short, user-facing description of the failure. Raw
// stdout/stderr stay on the struct for the debug log.
func (t TransportError) Summary() string {
	switch {
	case t.TimedOut:
		return "python helper timed out"
	case t.Canceled:
		return "python helper was canceled"
	case t.ExitCode != 0:
		return fmt.Sprintf("python helper exited with status %d", t.ExitCode)
	default:
		return "python helper produced no usable output"
	}
}

// Classify maps one finished invocation to its outcome.
//
// Classification is parse-first: a well-formed envelope decides the
// outcome even when the exit code disagrees (argparse failure paths print
// a JSON error and then exit 1). The exit code only matters when stdout
// carries no envelope. Timeouts and cancellations always classify as
// transport failures; partial output from a killed process is not
// trustworthy.
func Classify(res *shell.Result) Outcome {
	if res.TimedOut || res.Canceled {
		return TransportError{
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			TimedOut: res.TimedOut,
			Canceled: res.Canceled,
		}
	}

	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(res.Stdout), &doc); err != nil {
		return TransportError{
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
	}

	result, hasResult := doc["result"]
	errRaw, hasError := doc["error"]

	switch {
	case hasResult:
		// An error beside a result is a partial success: the payload
		// is rendered and the message surfaces as a warning.
		s := Success{Result: result, Fields: siblings(doc, "result", "error")}
		if hasError {
			s.Warning = decodeMessage(errRaw)
		}
		return s

	case hasError:
		return classifyError(errRaw, siblings(doc, "error"))

	case res.ExitCode == 0:
		// Bare payload: a valid document with neither contract key
		// (the package-availability map, older script revisions).
		return Success{Result: json.RawMessage(res.Stdout)}

	default:
		// Valid JSON but no envelope and a nonzero exit: the process
		// failed and whatever it printed is not an answer.
		return TransportError{
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
	}
}

// classifyError builds a ScriptError from the error value, which is a
// plain string in current scripts but an object carrying the message
// plus diagnostics in older revisions. The object form is flattened so
// callers see one shape.
func classifyError(errRaw json.RawMessage, fields map[string]json.RawMessage) ScriptError {
	var msg string
	if json.Unmarshal(errRaw, &msg) == nil {
		return ScriptError{Message: msg, Fields: fields}
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(errRaw, &obj) == nil {
		merged := map[string]json.RawMessage{}
		for k, v := range fields {
			merged[k] = v
		}
		for k, v := range obj {
			if k == "error" {
				continue
			}
			merged[k] = v
		}
		return ScriptError{Message: decodeMessage(obj["error"]), Fields: merged}
	}

	return ScriptError{Message: string(errRaw), Fields: fields}
}

// decodeMessage extracts a human-readable string from an error value of
// unknown shape.
func decodeMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "unknown error"
	}

	var msg string
	if json.Unmarshal(raw, &msg) == nil {
		return msg
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) == nil {
		if inner, ok := obj["error"]; ok {
			var s string
			if json.Unmarshal(inner, &s) == nil {
				return s
			}
		}
	}

	return string(raw)
}

// siblings copies doc minus the named keys. Returns nil when nothing
// remains, so empty outcomes compare cleanly.
func siblings(doc map[string]json.RawMessage, drop ...string) map[string]json.RawMessage {
	out := map[string]json.RawMessage{}
	for k, v := range doc {
		out[k] = v
	}
	for _, k := range drop {
		delete(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
