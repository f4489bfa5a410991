// Package errors provides structured error types for the generator.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a location path (a configuration setting, or a function
// and scope such as "func 3.then.loop"), the offending value, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConfig, errors.KindOutOfRange).
//		Path("probability_of_if").
//		Value(1.5).
//		Detail("value %v must be between 0 and 1", 1.5).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidSetting("functions", 0, "must be at least 1")
//	err := errors.Underflow(errors.PhaseCheck, path, 2, 1)
//
// All errors implement the standard error interface and support errors.Is/As.
// Two errors match under errors.Is when their Phase and Kind are equal.
package errors
