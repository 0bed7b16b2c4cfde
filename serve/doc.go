// Package serve hosts the artifact output directory for local preview.
//
// The output directory exists for static hosting; this server reproduces
// that environment locally. Responses are never cached so watch-mode
// rebuilds show up on reload, and .wasm responses carry the application/wasm
// MIME type that WebAssembly.instantiateStreaming requires.
package serve
