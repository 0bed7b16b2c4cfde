// Package watch rebuilds artifacts when crate sources change.
//
// A filesystem watcher covers the crate manifest and the source tree.
// Change bursts are debounced into a single rebuild, and a failed rebuild
// keeps the loop alive so the next save gets a fresh attempt.
package watch
