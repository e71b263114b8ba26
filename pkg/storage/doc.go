// Package storage implements the on-disk storage for tool binaries and
// the alias entry points that dispatch to them.
//
// Tool binaries live under <home>/tool-storage/<author>/<name>/<version>/,
// one executable per version. Aliases live under <home>/bin: one entry per
// known tool plus the toolbelt binary itself. Every alias runs the manager
// binary under a different invocation name, so on platforms with symlink
// support aliases are symlinks to the manager entry point; elsewhere they
// are full copies of it.
//
// All operations are idempotent and safe to re-run after a partial
// failure; reconciliation makes no attempt to roll back completed writes.
package storage
