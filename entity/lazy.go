package entity

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State is the load state of an auxiliary record of an entity.
type State uint8

// Load states.
const (
	Unloaded State = iota
	Loading
	Loaded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	}
	return "invalid"
}

// cell caches one auxiliary record. Concurrent first accesses share a
// single load.
type cell[T any] struct {
	mu    sync.Mutex
	state State
	value T
	group singleflight.Group
}

func (c *cell[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// get returns the cached value, loading it on first access. A failed load
// leaves the cell unloaded.
func (c *cell[T]) get(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	if c.state == Loaded {
		v := c.value
		c.mu.Unlock()
		return v, nil
	}
	c.state = Loading
	c.mu.Unlock()

	v, err, _ := c.group.Do("load", func() (any, error) {
		return load(ctx)
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if c.state == Loading {
			c.state = Unloaded
		}
		var zero T
		return zero, err
	}
	// A value set while loading wins over the loaded one.
	if c.state != Loaded {
		c.state, c.value = Loaded, v.(T)
	}
	return c.value, nil
}

// set replaces the cached value.
func (c *cell[T]) set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state, c.value = Loaded, v
}

// reset drops the cached value.
func (c *cell[T]) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.state, c.value = Unloaded, zero
}

// peek returns the cached value without loading it.
func (c *cell[T]) peek() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.state == Loaded
}
