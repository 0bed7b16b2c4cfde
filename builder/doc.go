// Package builder runs the artifact pipeline.
//
// A build is a strictly linear sequence over two external tools: remove the
// previous output binary (absence tolerated), compile the crate's library
// target for wasm with cargo, locate the compiled binary at its
// deterministic path, run wasm-bindgen over it into the output directory,
// and validate the result. The first failing step aborts the build; the
// failing tool's output and exit status propagate unmodified.
//
// All subprocess invocations go through the Runner interface so tests can
// observe ordering and arguments without real tools installed.
package builder
