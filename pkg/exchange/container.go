package exchange

import (
	"fmt"
	"slices"
	"sync"

	"venuelink/pkg/core"
	"venuelink/pkg/rest"
)

// Container is a thread-safe registry of venue descriptors.
type Container struct {
	mu     sync.RWMutex
	venues map[string]*Descriptor
}

// NewContainer creates and returns a new empty container.
func NewContainer() *Container {
	return &Container{
		venues: make(map[string]*Descriptor),
	}
}

// Register adds d under d.Name, replacing any previous descriptor.
func (c *Container) Register(d *Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.venues[d.Name] = d
}

// Get retrieves a descriptor by name.
func (c *Container) Get(name string) (*Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, exists := c.venues[name]
	if !exists {
		return nil, fmt.Errorf("venue %q not registered", name)
	}
	return d, nil
}

// Client builds a REST client for the venue named by cfg.Venue.
func (c *Container) Client(cfg *core.Config, opts ...rest.Option) (*rest.Client, error) {
	d, err := c.Get(cfg.Venue)
	if err != nil {
		return nil, err
	}
	return d.NewClient(cfg, opts...)
}

// Names returns the registered venue names in sorted order.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.venues))
	for name := range c.venues {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c *Container) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.venues, name)
}

// Exists checks whether a venue with the given name is registered.
func (c *Container) Exists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.venues[name]
	return exists
}
