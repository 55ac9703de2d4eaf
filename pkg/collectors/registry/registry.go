// Package registry maps collector names to factories so built-in collectors
// can register themselves at init time without import cycles.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/AutoProfilingRUC/autoprofiler/pkg/collectors"
)

// Factory builds one collector instance from shared options.
type Factory func(opts collectors.Options) collectors.Collector

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds a factory under the given name. Registering the same name
// twice panics: collector names must be unique because artifact and finding
// identity derive from them.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("collector %q registered twice", name))
	}
	factories[name] = factory
}

// Names returns the registered collector names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build instantiates collectors for the requested names, preserving request
// order and collapsing duplicates. Unknown names fail the whole build so
// configuration typos surface before anything launches.
func Build(names []string, opts collectors.Options) ([]collectors.Collector, error) {
	mu.RLock()
	defer mu.RUnlock()

	opts = opts.Normalize()

	var built []collectors.Collector
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		factory, ok := factories[name]
		if !ok {
			return nil, fmt.Errorf("unknown collector: %s", name)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		built = append(built, factory(opts))
	}
	return built, nil
}
