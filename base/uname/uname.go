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

// Package uname provides unique names.
package uname

import "fmt"

// Unique hands out names, never the same one twice.
type Unique struct {
	taken map[string]bool
}

// New name generator.
func New() *Unique {
	return &Unique{taken: make(map[string]bool)}
}

// Fresh returns the root itself if it has not been handed out yet, and the
// root with the smallest integer suffix making a new name otherwise.
// The returned name is reserved.
func (u *Unique) Fresh(root string) string {
	if !u.taken[root] {
		u.taken[root] = true
		return root
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", root, i)
		if !u.taken[name] {
			u.taken[name] = true
			return name
		}
	}
}
