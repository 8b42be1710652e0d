// Package errors provides structured error types for the ccvm linker.
//
// Errors are categorized by Phase (which pipeline stage failed) and Kind (error category).
// The Error type carries the section name, symbol name and byte offset that caused it,
// so a failure can be diagnosed without re-running the pipeline.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindRelocation).
//		Section(".text.main").
//		Symbol("main").
//		Offset(0x18).
//		Detail("two relocations in the same instruction").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Corrupted(errors.PhaseRead, offset, "truncated section header")
//	err := errors.UnknownOpcode("main", 0x24, 0x7f)
//
// Every Kind except KindWarning is fatal. All errors implement the standard error
// interface and support errors.Is/As; KindOf and IsKind inspect wrapped chains.
package errors
