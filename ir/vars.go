// Copyright 2024 Google LLC
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

package ir

import (
	"sort"

	"golang.org/x/exp/maps"
)

// FreeVars returns the variables referenced by a tree, sorted by name.
// Loop variables are bound by their loop and only reported when
// referenced outside of it.
func FreeVars(n Node) []*Var {
	seen := map[string]*Var{}
	freeVars(n, map[string]bool{}, seen)
	names := maps.Keys(seen)
	sort.Strings(names)
	vars := make([]*Var, len(names))
	for i, name := range names {
		vars[i] = seen[name]
	}
	return vars
}

func freeVars(n Node, bound map[string]bool, seen map[string]*Var) {
	switch x := n.(type) {
	case nil:
	case *Var:
		if !bound[x.Name] {
			seen[x.Name] = x
		}
	case *BinaryExpr:
		freeVars(x.X, bound, seen)
		freeVars(x.Y, bound, seen)
	case *CastExpr:
		freeVars(x.X, bound, seen)
	case *Intrinsic:
		for _, arg := range x.Args {
			freeVars(arg, bound, seen)
		}
	case *Broadcast:
		freeVars(x.X, bound, seen)
	case *Ramp:
		freeVars(x.Base, bound, seen)
		freeVars(x.Stride, bound, seen)
	case *Load:
		for _, dim := range x.B.Dims {
			freeVars(dim, bound, seen)
		}
		freeVars(x.Index, bound, seen)
	case *Term:
		freeVars(x.Scalar, bound, seen)
		for _, v := range x.Vars {
			freeVars(v, bound, seen)
		}
	case *Polynomial:
		freeVars(x.Scalar, bound, seen)
		for _, t := range x.Terms {
			freeVars(t, bound, seen)
		}
	case *RoundOff:
		freeVars(x.X, bound, seen)
		freeVars(x.Y, bound, seen)
	case *Block:
		for _, s := range x.Stmts {
			freeVars(s, bound, seen)
		}
	case *Store:
		for _, dim := range x.B.Dims {
			freeVars(dim, bound, seen)
		}
		freeVars(x.Index, bound, seen)
		freeVars(x.Value, bound, seen)
	case *For:
		freeVars(x.Start, bound, seen)
		freeVars(x.Stop, bound, seen)
		if x.Var != nil && !bound[x.Var.Name] {
			bound[x.Var.Name] = true
			freeVars(x.Body, bound, seen)
			delete(bound, x.Var.Name)
		} else {
			freeVars(x.Body, bound, seen)
		}
	case *Cond:
		freeVars(x.Condition, bound, seen)
		freeVars(x.Then, bound, seen)
		if x.Else != nil {
			freeVars(x.Else, bound, seen)
		}
	}
}
