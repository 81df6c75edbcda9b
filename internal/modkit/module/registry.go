package module

import (
	"slices"
	"sync"
)

// process-wide record of the modules mounted at startup, keyed by name
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register records a mounted module and its port set
func Register(name string, ports any) {
	mu.Lock()
	reg[name] = ports
	mu.Unlock()
}

// Names lists the registered modules in name order
func Names() []string {
	mu.RLock()
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	mu.RUnlock()
	slices.Sort(out)
	return out
}

// Reset clears the registry for tests
func Reset() {
	mu.Lock()
	reg = map[string]any{}
	mu.Unlock()
}
