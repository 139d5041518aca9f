package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse  Phase = "parse"  // specification document parsing
	PhaseInit   Phase = "init"   // engine table construction
	PhaseDecode Phase = "decode" // instruction decoding
	PhaseLoad   Phase = "load"   // byte supplier reads
	PhaseEmit   Phase = "emit"   // sink delivery
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidData      Kind = "invalid_data"
	KindNotFound         Kind = "not_found"
	KindMalformedPattern Kind = "malformed_pattern"
	KindNoMatch          Kind = "no_match"
	KindFillFailed       Kind = "fill_failed"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindInvalidEnum      Kind = "invalid_enum"
	KindUnaligned        Kind = "unaligned"
	KindPanic            Kind = "panic"
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Detail  string
	Path    []string
	Addr    uint64
	HasAddr bool
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

	if e.HasAddr {
		fmt.Fprintf(&b, " @0x%x", e.Addr)
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

// Path sets the document or table path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Addr records the address the operation was working on
func (b *Builder) Addr(addr uint64) *Builder {
	b.err.Addr = addr
	b.err.HasAddr = true
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

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
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

// MalformedPattern creates a constructor pattern error
func MalformedPattern(mnemonic, detail string) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindMalformedPattern,
		Path:   []string{"constructor", mnemonic},
		Detail: detail,
	}
}

// NoMatch creates an undecodable-instruction error
func NoMatch(addr uint64) *Error {
	return &Error{
		Phase:   PhaseDecode,
		Kind:    KindNoMatch,
		Addr:    addr,
		HasAddr: true,
		Detail:  "no constructor matches instruction bytes",
	}
}

// FillFailed wraps a byte supplier failure
func FillFailed(addr uint64, size int, cause error) *Error {
	return &Error{
		Phase:   PhaseLoad,
		Kind:    KindFillFailed,
		Addr:    addr,
		HasAddr: true,
		Detail:  fmt.Sprintf("supplier could not fill %d bytes", size),
		Cause:   cause,
	}
}

// Unaligned creates an alignment violation error
func Unaligned(addr uint64, align int) *Error {
	return &Error{
		Phase:   PhaseDecode,
		Kind:    KindUnaligned,
		Addr:    addr,
		HasAddr: true,
		Detail:  fmt.Sprintf("address not %d-byte aligned", align),
	}
}

// InvalidEnum creates an invalid enum tag error
func InvalidEnum(phase Phase, value any, enumType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidEnum,
		Detail: fmt.Sprintf("invalid %s value %v", enumType, value),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
	}
}

// Recovered converts a recovered panic value into a decode-phase error
func Recovered(addr uint64, v any) *Error {
	cause, _ := v.(error)
	return &Error{
		Phase:   PhaseDecode,
		Kind:    KindPanic,
		Addr:    addr,
		HasAddr: true,
		Detail:  fmt.Sprintf("panic during decode: %v", v),
		Cause:   cause,
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
