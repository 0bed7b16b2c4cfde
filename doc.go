// Package wasmforge builds Rust crates into WebAssembly artifacts ready for
// static web hosting.
//
// The tool wraps two external collaborators: the Rust compiler (via cargo)
// targeting wasm32-unknown-unknown, and wasm-bindgen, which post-processes
// the compiled binary into JavaScript-loadable glue. Everything between the
// two invocations is deterministic bookkeeping: derive the crate identifier,
// scope the unstable web-API opt-in to the compile subprocess, remove the
// stale artifact, and leave fresh output in the designated directory.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	wasmforge/        Root package with the Runner subprocess abstraction
//	├── builder/      The sequential clean→compile→bindgen→verify pipeline
//	├── crate/        Crate identity: Cargo.toml parsing and artifact paths
//	├── toolchain/    Tool discovery and version preflight
//	├── inspect/      Artifact validation via header checks and wazero
//	├── watch/        Rebuild-on-change loop over crate sources
//	├── serve/        Static file server for the output directory
//	└── errors/       Structured error types with subprocess exit codes
//
// # Quick Start
//
// Build a crate from its project root:
//
//	cr, err := crate.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tools, err := toolchain.Preflight(ctx, wasmforge.ExecRunner{}, builder.DefaultTarget)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	b := builder.New(wasmforge.ExecRunner{}, tools, builder.Options{Crate: cr})
//	result, err := b.Run(ctx)
//	fmt.Println(result.ArtifactPath)
//
// # Failure Policy
//
// The pipeline is fail-fast: the first failing step aborts the build, the
// failing tool's diagnostic output is preserved verbatim, and its exit
// status propagates to the process exit code. No step is retried; a partial
// artifact is never reported as success.
package wasmforge
