package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the pipeline the error occurred
type Phase string

const (
	PhaseConfig   Phase = "config"   // configuration validation
	PhaseGenerate Phase = "generate" // body generation
	PhaseCheck    Phase = "check"    // symbolic re-execution
	PhaseEncode   Phase = "encode"   // IR to binary
	PhaseValidate Phase = "validate" // engine compilation
	PhaseRun      Phase = "run"      // engine execution
	PhaseStore    Phase = "store"    // corpus persistence
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidSetting Kind = "invalid_setting"
	KindOutOfRange     Kind = "out_of_range"
	KindUnsupported    Kind = "unsupported"
	KindInternal       Kind = "internal"
	KindUnderflow      Kind = "underflow"
	KindArityMismatch  Kind = "arity_mismatch"
	KindTypeMismatch   Kind = "type_mismatch"
	KindCompile        Kind = "compile"
	KindTrap           Kind = "trap"
	KindTimeout        Kind = "timeout"
	KindNotFound       Kind = "not_found"
	KindIO             Kind = "io"
)

// Error is the structured error type used throughout the generator
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
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

// Path sets the location path (setting name, or function and scope)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
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

// InvalidSetting reports a configuration value that cannot be used
func InvalidSetting(setting string, value any, detail string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidSetting,
		Path:   []string{setting},
		Value:  value,
		Detail: detail,
	}
}

// OutOfRange reports a configuration value outside its closed range
func OutOfRange(setting string, value any, lo, hi any) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindOutOfRange,
		Path:   []string{setting},
		Value:  value,
		Detail: fmt.Sprintf("value %v must be between %v and %v", value, lo, hi),
	}
}

// Unsupported creates an unsupported feature error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Internal reports a broken generator invariant
func Internal(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInternal,
		Path:   path,
		Detail: detail,
	}
}

// Underflow reports a pop from an operand stack that is too shallow
func Underflow(phase Phase, path []string, need, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnderflow,
		Path:   path,
		Value:  need,
		Detail: fmt.Sprintf("need %d operand(s), stack has %d", need, have),
	}
}

// ArityMismatch reports a block that closes with the wrong stack shape
func ArityMismatch(phase Phase, path []string, got, want any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindArityMismatch,
		Path:   path,
		Value:  got,
		Detail: fmt.Sprintf("stack %v, want %v", got, want),
	}
}

// TypeMismatch reports an operand of the wrong value type
func TypeMismatch(phase Phase, path []string, got, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Value:  got,
		Detail: fmt.Sprintf("operand %s, want %s", got, want),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
