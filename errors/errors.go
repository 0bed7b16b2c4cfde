package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates which pipeline step the error occurred in
type Phase string

const (
	PhasePreflight Phase = "preflight" // tool discovery and version checks
	PhaseClean     Phase = "clean"     // stale artifact removal
	PhaseCompile   Phase = "compile"   // cargo build
	PhaseLocate    Phase = "locate"    // compiler output lookup
	PhaseBindgen   Phase = "bindgen"   // wasm-bindgen generation
	PhaseVerify    Phase = "verify"    // artifact validation
	PhaseWatch     Phase = "watch"     // filesystem watching
	PhaseServe     Phase = "serve"     // static file serving
)

// Kind categorizes the error
type Kind string

const (
	KindToolNotFound    Kind = "tool_not_found"
	KindToolFailed      Kind = "tool_failed"
	KindVersionTooOld   Kind = "version_too_old"
	KindTargetMissing   Kind = "target_missing"
	KindInvalidConfig   Kind = "invalid_config"
	KindInvalidArtifact Kind = "invalid_artifact"
	KindIO              Kind = "io"
)

// Error is the structured error type used throughout the tool
type Error struct {
	Cause    error
	Phase    Phase
	Kind     Kind
	Tool     string // external tool name, when one is involved
	Detail   string
	ExitCode int // failing subprocess status, 0 when not applicable
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Tool != "" {
		b.WriteString(": ")
		b.WriteString(e.Tool)
	}

	if e.Detail != "" {
		if e.Tool != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit status %d)", e.ExitCode)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Tool sets the external tool name
func (b *Builder) Tool(name string) *Builder {
	b.err.Tool = name
	return b
}

// ExitCode sets the failing subprocess status
func (b *Builder) ExitCode(code int) *Builder {
	b.err.ExitCode = code
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// ToolNotFound creates an error for a tool missing from the search path
func ToolNotFound(tool string, cause error) *Error {
	return &Error{
		Phase:  PhasePreflight,
		Kind:   KindToolNotFound,
		Tool:   tool,
		Detail: "not found on PATH",
		Cause:  cause,
	}
}

// ToolFailed creates an error for a tool that exited non-zero
func ToolFailed(phase Phase, tool string, exitCode int, cause error) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindToolFailed,
		Tool:     tool,
		ExitCode: exitCode,
		Cause:    cause,
	}
}

// VersionTooOld creates an error for a tool below the supported minimum
func VersionTooOld(tool, have, want string) *Error {
	return &Error{
		Phase:  PhasePreflight,
		Kind:   KindVersionTooOld,
		Tool:   tool,
		Detail: fmt.Sprintf("version %s is below minimum %s", have, want),
	}
}

// TargetMissing creates an error for an uninstalled compilation target
func TargetMissing(target string) *Error {
	return &Error{
		Phase:  PhasePreflight,
		Kind:   KindTargetMissing,
		Detail: fmt.Sprintf("compilation target %s is not installed (try: rustup target add %s)", target, target),
	}
}

// InvalidConfig creates an error for unusable build configuration
func InvalidConfig(detail string, cause error) *Error {
	return &Error{
		Phase:  PhasePreflight,
		Kind:   KindInvalidConfig,
		Detail: detail,
		Cause:  cause,
	}
}

// InvalidArtifact creates an error for a malformed build output
func InvalidArtifact(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseVerify,
		Kind:   KindInvalidArtifact,
		Detail: detail,
		Cause:  cause,
	}
}

// IO wraps a filesystem error with pipeline context
func IO(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIO,
		Detail: detail,
		Cause:  cause,
	}
}

// ExitStatus returns the process exit code that should be reported for err.
// A structured error carrying a subprocess status propagates that status;
// anything else maps to 1. A nil error maps to 0.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if stderrors.As(err, &e) && e.ExitCode > 0 {
		return e.ExitCode
	}
	return 1
}
