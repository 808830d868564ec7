// Package container provides a named-object registry for sharing singleton
// dependencies, such as the authentication manager, with request handlers.
// It replaces ambient process-global state with an explicit value that the
// application owns and injects into every request.
package container

import (
	"fmt"
	"sort"
	"sync"
)

// Container is a concurrency-safe name to object registry.
// Stored objects are returned by reference, never copied.
type Container struct {
	mu      sync.RWMutex
	objects map[string]any
}

// New returns an empty Container
func New() *Container {
	return &Container{objects: make(map[string]any)}
}

// Set stores an object under a name, overwriting any previous entry
func (c *Container) Set(name string, obj any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[name] = obj
}

// Get returns the object stored under name
func (c *Container) Get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.objects[name]
	return obj, ok
}

// MustGet returns the object stored under name and panics when it is absent.
// Intended for bootstrap-time lookups where absence is a programming error.
func (c *Container) MustGet(name string) any {
	obj, ok := c.Get(name)
	if !ok {
		panic(fmt.Sprintf("container: no object named %q", name))
	}
	return obj
}

// Has reports whether an object is stored under name
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.objects[name]
	return ok
}

// Names returns the sorted names of all stored objects
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.objects))
	for name := range c.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
