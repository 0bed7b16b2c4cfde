// Package inspect validates built WebAssembly artifacts.
//
// The wrapped tools are trusted to produce correct output, but a truncated
// write or an incompatible bindgen version yields a file that only fails
// when a browser tries to instantiate it. Validating here turns that into a
// build-time failure: a header check gives a precise diagnostic for the
// cheap cases, and compiling the module with wazero catches everything else.
package inspect
