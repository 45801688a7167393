// Package pool provides a typed wrapper around sync.Pool, used by
// internal/httpproto to reuse Request and Response values across
// connections instead of allocating a fresh pair for every accept.
package pool

import "sync"

// Pool is a generic sync.Pool wrapper: no type assertions at call
// sites, and Get always returns a usable T even on the very first call
// since factory backs sync.Pool's New.
type Pool[T any] struct {
	pool sync.Pool
}

// New creates a Pool whose factory is called whenever Get finds the
// pool empty.
func New[T any](factory func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() interface{} { return factory() },
		},
	}
}

// Get retrieves an item from the pool, creating one via the factory if
// the pool is empty.
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put returns an item to the pool for reuse. Callers must not touch the
// item again afterward.
func (p *Pool[T]) Put(x T) {
	p.pool.Put(x)
}
