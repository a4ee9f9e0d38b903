// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scope provides hierarchical name to value bindings.
package scope

import (
	"fmt"
	"slices"

	"github.com/gx-org/texpr/base/ordered"
	"github.com/gx-org/texpr/base/stringseq"
)

type (
	// Scope provides a set of values that can be found given their name.
	Scope[V any] interface {
		Find(string) (V, bool)
		Items() *ordered.Map[string, V]
	}

	// RWScope stores key,value pairs and implements the Scope interface.
	// A value is retrieved from its key by querying the scope and,
	// if not found, its parents recursively.
	RWScope[V any] struct {
		parent Scope[V]
		local  *ordered.Map[string, V]
	}
)

var _ Scope[any] = (*RWScope[any])(nil)

// NewScope returns a new scope given a parent, which can be nil.
func NewScope[V any](parent Scope[V]) *RWScope[V] {
	return &RWScope[V]{
		parent: parent,
		local:  ordered.NewMap[string, V](),
	}
}

// NewScopeWithValues returns a parentless scope with predefined values.
func NewScopeWithValues[V any](vals map[string]V) *RWScope[V] {
	s := NewScope[V](nil)
	for k, v := range vals {
		s.Define(k, v)
	}
	return s
}

// Define maps `key` to `value`, overwriting if necessary.
func (s *RWScope[V]) Define(k string, v V) {
	s.local.Store(k, v)
}

// IsLocal returns true if the key is defined in the local scope.
func (s *RWScope[V]) IsLocal(key string) bool {
	_, ok := s.local.Load(key)
	return ok
}

// Find a key in the scope and its parents.
//
// The second return value indicates whether any value was found.
func (s *RWScope[V]) Find(key string) (value V, ok bool) {
	value, ok = s.local.Load(key)
	if ok || s.parent == nil {
		return
	}
	return s.parent.Find(key)
}

// Items returns all the items visible from the scope.
// Values shadowed in a parent are overwritten by the local value.
func (s *RWScope[V]) Items() *ordered.Map[string, V] {
	all := ordered.NewMap[string, V]()
	if s.parent != nil {
		for k, v := range s.parent.Items().Iter() {
			all.Store(k, v)
		}
	}
	for k, v := range s.local.Iter() {
		all.Store(k, v)
	}
	return all
}

// String representation of the scope.
func (s *RWScope[V]) String() string {
	var kvs []string
	for k, v := range s.Items().Iter() {
		kvs = append(kvs, fmt.Sprintf("%s: %v", k, v))
	}
	if len(kvs) == 0 {
		return "empty"
	}
	return stringseq.Join(slices.Values(kvs), "\n")
}
