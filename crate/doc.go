// Package crate resolves the identity of the buildable unit.
//
// The build needs to know which crate to compile and where cargo will place
// the compiled binary. Identity is resolved in priority order: an explicit
// name given by the caller, the package name from Cargo.toml, and finally
// the project directory's basename. The directory-name fallback keeps the
// original zero-configuration behavior while making the coupling between
// filesystem location and build identity opt-in rather than implicit.
package crate
