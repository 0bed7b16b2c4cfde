// Package errors provides structured error types for the build pipeline.
//
// Errors are categorized by Phase (which pipeline step failed) and Kind
// (error category). The Error type carries the external tool name, its exit
// status, a detail message, and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCompile, errors.KindToolFailed).
//		Tool("cargo").
//		ExitCode(101).
//		Detail("build failed").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ToolNotFound("wasm-bindgen", lookErr)
//	err := errors.ToolFailed(errors.PhaseCompile, "cargo", 101, runErr)
//
// All errors implement the standard error interface and support errors.Is/As.
// ExitStatus maps any error to the process exit code the CLI should report,
// propagating the failing subprocess status when one is recorded.
package errors
