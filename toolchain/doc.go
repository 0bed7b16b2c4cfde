// Package toolchain discovers and preflights the external build tools.
//
// The pipeline depends on cargo and wasm-bindgen being installed and usable.
// Preflight resolves both against PATH, probes their versions, enforces
// known-good minimums, and (when rustup is present) verifies the wasm
// compilation target is installed, so a misconfigured machine fails before
// any build work starts instead of midway through it.
package toolchain
