// Package errors provides structured error types for the dst containers.
//
// Errors are categorized by Phase (which operation failed) and Kind (error category).
// The Error type carries the rejected value, Go/WIT type names and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhasePush, errors.KindCapacityExceeded).
//		GoType("string").
//		Value("hello").
//		Detail("need %d words, have %d", 3, 1).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.CapacityExceeded(errors.PhaseGrow, 32, 16)
//	panic(errors.Precondition(errors.PhaseReconstruct, "descriptor too long"))
//
// Capacity errors are returned and recoverable. Precondition errors are raised
// with panic and signal a broken invariant of the container.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
