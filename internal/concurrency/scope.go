package concurrency

import (
	"sort"
	"sync"
)

// Scope is the key/value context shared by every task of a process. Reads
// fall through to the parent scope.
type Scope struct {
	mu     sync.RWMutex
	values map[string]any
	parent *Scope
}

// NewScope returns an empty root scope.
func NewScope() *Scope {
	return &Scope{values: make(map[string]any)}
}

// Child returns a scope whose lookups fall back to s.
func (s *Scope) Child() *Scope {
	return &Scope{values: make(map[string]any), parent: s}
}

// Get returns the value for key from s or its ancestors.
func (s *Scope) Get(key string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		v, ok := cur.values[key]
		cur.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Set stores value under key in s.
func (s *Scope) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// ComputeIfAbsent returns the value for key, storing compute() in s first
// if no scope in the chain has one.
func (s *Scope) ComputeIfAbsent(key string, compute func() any) any {
	if v, ok := s.Get(key); ok {
		return v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	v := compute()
	s.values[key] = v
	return v
}

// Keys returns the keys stored directly in s, sorted.
func (s *Scope) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
