// Package errors provides structured error types for the pcode-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes a document/table path, the address being
// decoded, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindNoMatch).
//		Addr(0x1000).
//		Detail("no constructor matched").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NoMatch(0x1000)
//	err := errors.FillFailed(0x1000, 16, cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
