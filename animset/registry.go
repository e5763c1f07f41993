package animset

import (
	"fmt"
	"sort"
	"sync"
)

// BuildFunc creates the set registered under name.
type BuildFunc func(name string) (*Set, error)

// Registry caches built sets by name so instances of the same set share one
// master table.
type Registry struct {
	mu    sync.Mutex
	build BuildFunc
	sets  map[string]*Set
}

// NewRegistry creates a registry building missing sets with build.
func NewRegistry(build BuildFunc) *Registry {
	return &Registry{build: build, sets: make(map[string]*Set)}
}

// Get returns the cached set, building it on first use.
func (r *Registry) Get(name string) (*Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.sets[name]; ok {
		return set, nil
	}
	if r.build == nil {
		return nil, fmt.Errorf("%w: %q", ErrSetNotFound, name)
	}
	set, err := r.build(name)
	if err != nil {
		return nil, fmt.Errorf("animset: build %q: %w", name, err)
	}
	r.sets[name] = set
	return set, nil
}

// Put registers an already built set, replacing an unreferenced one.
func (r *Registry) Put(set *Set) error {
	if set == nil {
		return fmt.Errorf("%w: nil set", ErrSetNotFound)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.sets[set.Name]; ok && old != set && old.Locked() {
		return fmt.Errorf("%w: %q", ErrSetInUse, set.Name)
	}
	r.sets[set.Name] = set
	return nil
}

// Delete drops a cached set. Referenced sets stay.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSetNotFound, name)
	}
	if set.Locked() {
		return fmt.Errorf("%w: %q has %d refs", ErrSetInUse, name, set.Refs())
	}
	if err := set.RemoveAllClips(); err != nil {
		return err
	}
	delete(r.sets, name)
	return nil
}

// Reload rebuilds every unreferenced cached set. Sets still played by an
// instance are kept and logged.
func (r *Registry) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.build == nil {
		return nil
	}
	for _, name := range r.namesLocked() {
		old := r.sets[name]
		if old.Locked() {
			Logger.Printf("animset: reload %s skipped, %d refs", name, old.Refs())
			continue
		}
		// release the old clips first so the rebuild may claim them again
		if err := old.RemoveAllClips(); err != nil {
			return err
		}
		set, err := r.build(name)
		if err != nil {
			delete(r.sets, name)
			return fmt.Errorf("animset: reload %q: %w", name, err)
		}
		r.sets[name] = set
	}
	return nil
}

// Names lists the cached sets in order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
