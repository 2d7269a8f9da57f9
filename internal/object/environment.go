package object

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

var nextID atomic.Uint64

// Environment is one lexical scope. A child never copies its parent's
// bindings; lookups walk the Outer chain instead. Environments are shared by
// pointer, so every closure that captured a scope observes later writes to it.
type Environment struct {
	ID    uint64
	store map[string]Value
	Outer *Environment

	mu sync.RWMutex
}

func nextEnvID() uint64 {
	return nextID.Add(1)
}

func NewEnvironment() *Environment {
	return &Environment{
		ID:    nextEnvID(),
		store: make(map[string]Value),
	}
}

// NewEnclosedEnvironment creates an empty scope layered on top of outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.Outer = outer
	slog.Debug("new enclosed env",
		slog.Uint64("env", env.ID),
		slog.Uint64("outer", outer.ID))
	return env
}

// Get resolves name from the innermost scope outward.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.Outer {
		env.mu.RLock()
		val, ok := env.store[name]
		env.mu.RUnlock()
		if ok {
			return val, true
		}
	}
	return nil, false
}

// GetLocal resolves name in this scope only.
func (e *Environment) GetLocal(name string) (Value, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	val, ok := e.store[name]
	return val, ok
}

// Set binds name in this scope. It never touches an outer scope, so a binding
// with the same name further out is shadowed rather than rebound.
func (e *Environment) Set(name string, val Value) Value {
	e.mu.Lock()
	e.store[name] = val
	e.mu.Unlock()

	slog.Debug("binding value",
		slog.Uint64("env", e.ID),
		slog.String("name", name),
		slog.Any("type", val.Type()))
	return val
}

// Names lists the bindings of this scope, sorted.
func (e *Environment) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.store))
	for name := range e.store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Depth counts the scopes from e to the root, e included.
func (e *Environment) Depth() int {
	depth := 0
	for env := e; env != nil; env = env.Outer {
		depth++
	}
	return depth
}
