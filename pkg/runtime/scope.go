// Package runtime provides the variable scopes tscript programs run against.
package runtime

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lemonberrylabs/tscript/pkg/types"
)

// VariableScope manages variable storage with parent scope chaining.
// Variables are looked up starting from the current scope and walking up
// the parent chain. New variables are always created in the current scope.
// A frozen scope is never written through; assignments to its names from a
// child shadow them instead.
type VariableScope struct {
	parent *VariableScope
	vars   map[string]types.Value
	mu     sync.RWMutex
	frozen bool
}

// NewScope creates a new root scope.
func NewScope() *VariableScope {
	return &VariableScope{
		vars: make(map[string]types.Value),
	}
}

// NewChildScope creates a child scope that inherits from this scope.
func (s *VariableScope) NewChildScope() *VariableScope {
	return &VariableScope{
		parent: s,
		vars:   make(map[string]types.Value),
	}
}

// Freeze makes the scope read-only for children. It can still be written
// directly with SetLocal.
func (s *VariableScope) Freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}

// Get retrieves a variable value, searching up the scope chain.
func (s *VariableScope) Get(name string) (types.Value, error) {
	if v, ok := s.Resolve(name); ok {
		return v, nil
	}
	return types.Null, types.NewKeyError(fmt.Sprintf("variable '%s' not found", name))
}

// Resolve looks name up through the scope chain.
func (s *VariableScope) Resolve(name string) (types.Value, bool) {
	s.mu.RLock()
	v, ok := s.vars[name]
	s.mu.RUnlock()
	if ok {
		return v, true
	}
	if s.parent != nil {
		return s.parent.Resolve(name)
	}
	return types.Null, false
}

// Bind is Set under the name the dispatch engine expects.
func (s *VariableScope) Bind(name string, v types.Value) { s.Set(name, v) }

// Set sets a variable in the scope where it exists, or creates it in this scope.
func (s *VariableScope) Set(name string, value types.Value) {
	if s.setInParent(name, value) {
		return
	}
	s.SetLocal(name, value)
}

// SetLocal sets a variable in this scope only (no parent search).
func (s *VariableScope) SetLocal(name string, value types.Value) {
	s.mu.Lock()
	s.vars[name] = value
	s.mu.Unlock()
}

// setInParent sets a variable in the nearest writable parent defining it.
func (s *VariableScope) setInParent(name string, value types.Value) bool {
	for p := s.parent; p != nil; p = p.parent {
		p.mu.Lock()
		_, ok := p.vars[name]
		if ok && !p.frozen {
			p.vars[name] = value
		}
		p.mu.Unlock()
		if ok {
			return !p.frozen
		}
	}
	return false
}

// Owns reports whether the nearest binding of name lives in a scope that
// may be written from here. Bindings of frozen ancestors are not owned.
func (s *VariableScope) Owns(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		sc.mu.RLock()
		_, ok := sc.vars[name]
		frozen := sc.frozen
		sc.mu.RUnlock()
		if ok {
			return sc == s || !frozen
		}
	}
	return false
}

// Exists checks if a variable exists in this scope or any parent.
func (s *VariableScope) Exists(name string) bool {
	_, ok := s.Resolve(name)
	return ok
}

// Delete removes a variable from this scope. Parent bindings become visible
// again.
func (s *VariableScope) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.vars[name]
	delete(s.vars, name)
	return ok
}

// Names returns the sorted names visible from this scope.
func (s *VariableScope) Names() []string {
	snap := s.Snapshot()
	names := make([]string, 0, len(snap))
	for n := range snap {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns every visible binding, inner scopes shadowing outer ones.
func (s *VariableScope) Snapshot() map[string]types.Value {
	out := make(map[string]types.Value)
	for sc := s; sc != nil; sc = sc.parent {
		sc.mu.RLock()
		for k, v := range sc.vars {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
		sc.mu.RUnlock()
	}
	return out
}

// ScopeAdapter adapts a VariableScope to implement the expr.Scope interface.
type ScopeAdapter struct {
	*VariableScope
	funcMap FunctionRegistry
}

// FunctionRegistry provides function lookup for expression evaluation.
type FunctionRegistry interface {
	// CallFunction calls a named function with the given arguments.
	CallFunction(name string, args []types.Value) (types.Value, error)
}

// NewScopeAdapter creates a scope adapter for expression evaluation.
func NewScopeAdapter(scope *VariableScope, funcs FunctionRegistry) *ScopeAdapter {
	return &ScopeAdapter{VariableScope: scope, funcMap: funcs}
}

// Scope returns the adapted scope.
func (a *ScopeAdapter) Scope() *VariableScope { return a.VariableScope }

// CallFunction implements expr.Scope.
func (a *ScopeAdapter) CallFunction(name string, args []types.Value) (types.Value, error) {
	if a.funcMap != nil {
		return a.funcMap.CallFunction(name, args)
	}
	return types.Null, fmt.Errorf("function '%s' not found", name)
}
