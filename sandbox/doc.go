// Package sandbox provides isolated execution regions for loaded modules.
//
// A Region is a memory arena backed by its own wazero runtime with a hard
// memory-page ceiling and the harness host bindings installed. Each
// pipeline instantiation gets its own region; regions are never shared
// across instances, and closing a region releases every resource of the
// instances created inside it.
package sandbox
