package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/cells"
)

// Factory opens a device and an offscreen surface.
type Factory func() (*Target, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first that opens wins).
	backendPriority = []string{NameNative, NameSoft}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens the named backend.
func Open(name string) (*Target, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrNotAvailable, name, Available())
	}
	t, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend %q: %w", name, err)
	}
	if t.Name == "" {
		t.Name = name
	}
	return t, nil
}

// OpenDefault opens the first backend in priority order that succeeds,
// then any other registered backend. Native > Soft.
func OpenDefault() (*Target, error) {
	var errs []error
	tried := make(map[string]bool)
	order := append(slices.Clone(backendPriority), Available()...)
	for _, name := range order {
		if tried[name] || !IsRegistered(name) {
			continue
		}
		tried[name] = true
		t, err := Open(name)
		if err == nil {
			return t, nil
		}
		cells.Logger().Debug("backend: unavailable, trying next", "backend", name, "err", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrNotAvailable
	}
	return nil, fmt.Errorf("%w: %w", ErrNotAvailable, errors.Join(errs...))
}
