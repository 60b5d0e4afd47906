package kernels

import (
	"fmt"
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	registry = map[string]Def{}
)

// Register adds a kernel definition to the global registry. It panics
// on a duplicate name or a nil forward; kernels register from init
// functions, so both are programming errors.
func Register(def Def) {
	if def.Name == "" {
		panic("kernels: Register with empty name")
	}
	if def.Forward == nil {
		panic(fmt.Sprintf("kernels: Register(%q) with nil forward", def.Name))
	}
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[def.Name]; dup {
		panic(fmt.Sprintf("kernels: Register(%q) called twice", def.Name))
	}
	registry[def.Name] = def
}

// Lookup returns the kernel registered under name.
func Lookup(name string) (Def, bool) {
	mu.RLock()
	defer mu.RUnlock()
	def, ok := registry[name]
	return def, ok
}

// Registered returns the sorted names of all registered kernels.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
