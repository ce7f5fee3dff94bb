package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which operation produced the error
type Phase string

const (
	PhaseGrow        Phase = "grow"        // buffer growth
	PhasePush        Phase = "push"        // element insertion
	PhasePop         Phase = "pop"         // element removal
	PhaseCompact     Phase = "compact"     // queue compaction
	PhaseDecompose   Phase = "decompose"   // handle to descriptor
	PhaseReconstruct Phase = "reconstruct" // descriptor to handle
	PhaseBatch       Phase = "batch"       // guarded bulk insertion
	PhaseLayout      Phase = "layout"      // type layout validation
	PhaseMap         Phase = "map"         // off-heap mapping
	PhaseLinear      Phase = "linear"      // wasm linear memory
)

// Kind categorizes the error
type Kind string

const (
	KindCapacityExceeded Kind = "capacity_exceeded"
	KindPrecondition     Kind = "precondition"
	KindTypeMismatch     Kind = "type_mismatch"
	KindUnsupported      Kind = "unsupported"
	KindAllocation       Kind = "allocation"
	KindInvalidInput     Kind = "invalid_input"
	KindOutOfBounds      Kind = "out_of_bounds"
)

// Sentinels for errors.Is. They match any phase.
var (
	ErrCapacity     = &Error{Kind: KindCapacityExceeded}
	ErrPrecondition = &Error{Kind: KindPrecondition}
	ErrUnsupported  = &Error{Kind: KindUnsupported}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	GoType  string
	WitType string
	Detail  string
}

// Error renders "[phase] kind: types - detail (caused by: cause)", omitting
// empty parts.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Phase, e.Kind)

	var types []string
	if e.GoType != "" {
		types = append(types, "Go type "+e.GoType)
	}
	if e.WitType != "" {
		types = append(types, "WIT type "+e.WitType)
	}
	sep := ": "
	if len(types) > 0 {
		b.WriteString(sep)
		b.WriteString(strings.Join(types, ", "))
		sep = " - "
	}
	if e.Detail != "" {
		b.WriteString(sep)
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
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

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// WitType sets the WIT type name
func (b *Builder) WitType(t string) *Builder {
	b.err.WitType = t
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

// Constructors for the errors containers and buffers produce.

// CapacityExceeded reports a growth request beyond what the buffer can hold.
func CapacityExceeded(phase Phase, needWords, haveWords int) *Error {
	return New(phase, KindCapacityExceeded).
		Detail("need %d words, capacity %d", needWords, haveWords).
		Build()
}

// Rejected reports an insertion that did not fit. The value is handed
// back to the caller in Value.
func Rejected(phase Phase, value any, needWords, freeWords int) *Error {
	return New(phase, KindCapacityExceeded).
		Value(value).
		Detail("need %d words, %d available", needWords, freeWords).
		Build()
}

// Precondition describes a violated invariant. Callers panic with it.
func Precondition(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindPrecondition).Detail(detail, args...).Build()
}

func AllocationFailed(phase Phase, bytes int, cause error) *Error {
	return New(phase, KindAllocation).
		Cause(cause).
		Detail("failed to allocate %d bytes", bytes).
		Build()
}

func Unsupported(phase Phase, what string) *Error {
	return New(phase, KindUnsupported).Detail(what).Build()
}

func OutOfBounds(phase Phase, index, length int) *Error {
	return New(phase, KindOutOfBounds).
		Value(index).
		Detail("index %d out of bounds (length %d)", index, length).
		Build()
}

func InvalidInput(phase Phase, detail string) *Error {
	return New(phase, KindInvalidInput).Detail(detail).Build()
}

// Wrap attaches a phase and kind to an error from a dependency.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return New(phase, kind).Cause(cause).Detail(detail).Build()
}

// IsPrecondition reports whether a recovered panic value is a precondition
// violation raised by this module.
func IsPrecondition(r any) bool {
	e, ok := r.(*Error)
	return ok && e.Kind == KindPrecondition
}
