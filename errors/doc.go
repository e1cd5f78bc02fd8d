// Package errors provides structured error types for the typerefl library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, type name, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseReflect, errors.KindWrongCategory).
//		Path("Point").
//		TypeName("struct").
//		Detail("array length of a non-array type").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.WrongCategory("ArrayLength", "fixed array", "struct", "Point")
//	err := errors.OutOfBounds(errors.PhaseMarshal, path, 10, 5)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
