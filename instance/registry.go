package instance

import (
	"context"

	"github.com/wasmforge/spectest/errors"
)

type entry struct {
	inst *Instance
	name string // empty until assigned via Register
}

// Registry is the ordered collection of optionally named instances a
// script run accumulates. It is an insertion-ordered sequence with linear
// lookup by name, not a map: names are not unique and the empty name must
// resolve positionally to the last entry.
//
// The registry is exclusively owned by the script environment and is not
// safe for concurrent use.
type Registry struct {
	entries []entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Append records a new instance under an optional name. An empty name
// leaves the entry unnamed until a later Register call.
func (r *Registry) Append(name string, inst *Instance) {
	r.entries = append(r.entries, entry{name: name, inst: inst})
}

// Resolve returns the instance for a name. The empty name resolves to the
// most recently appended entry; otherwise the first entry whose stored
// name matches wins. An unresolvable name is a script authoring error.
func (r *Registry) Resolve(name string) (*Instance, error) {
	i, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return r.entries[i].inst, nil
}

// Register resolves an entry by name and overwrites its stored name with
// the alias. Later registrations overwrite, not append, so one instance
// is reachable under several names over time but stores only the latest.
func (r *Registry) Register(name, alias string) error {
	i, err := r.lookup(name)
	if err != nil {
		return err
	}
	r.entries[i].name = alias
	return nil
}

func (r *Registry) lookup(name string) (int, error) {
	if name == "" {
		if len(r.entries) == 0 {
			return 0, errors.MalformedScript("no defined instances")
		}
		return len(r.entries) - 1, nil
	}
	for i := range r.entries {
		if r.entries[i].name == name {
			return i, nil
		}
	}
	return 0, errors.MalformedScript("no instance named %s", name)
}

// DeleteLast removes and returns the most recently appended entry. The
// registry must be non-empty; calling DeleteLast on an empty registry is
// a programming error and panics. Callers own the returned instance and
// are responsible for closing it.
func (r *Registry) DeleteLast() *Instance {
	if len(r.entries) == 0 {
		panic("registry: DeleteLast on empty registry")
	}
	last := r.entries[len(r.entries)-1]
	r.entries = r.entries[:len(r.entries)-1]
	return last.inst
}

// Close tears down every remaining instance, newest first, and empties
// the registry. The first teardown error is returned.
func (r *Registry) Close(ctx context.Context) error {
	var firstErr error
	for i := len(r.entries) - 1; i >= 0; i-- {
		if err := r.entries[i].inst.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.entries = nil
	return firstErr
}
