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
	"math"

	"github.com/gx-org/backend/dtype"
)

// ImmT is an immediate: a scalar value of Go type T known at rewrite time.
type ImmT[T dtype.GoDataType] struct {
	Val T
}

var (
	_ Expr = (*ImmT[bool])(nil)
	_ Expr = (*ImmT[int32])(nil)
	_ Expr = (*ImmT[int64])(nil)
	_ Expr = (*ImmT[uint32])(nil)
	_ Expr = (*ImmT[uint64])(nil)
	_ Expr = (*ImmT[float32])(nil)
	_ Expr = (*ImmT[float64])(nil)
	_ Expr = (*ImmT[dtype.Bfloat16T])(nil)
)

// NewImm returns an immediate holding a value.
func NewImm[T dtype.GoDataType](val T) *ImmT[T] {
	return &ImmT[T]{Val: val}
}

func (n *ImmT[T]) node() {}
func (n *ImmT[T]) expr() {}

// Dtype returns the scalar type of the immediate value.
func (n *ImmT[T]) Dtype() Dtype {
	return Atomic(dtype.Generic[T]())
}

// IsConstant returns true.
func (n *ImmT[T]) IsConstant() bool { return true }

// ImmOfInt returns an immediate of the kind of a type holding an integer
// value, converted with Go conversion semantics. The result always has a
// single lane: immediates are lane-agnostic.
func ImmOfInt(d Dtype, v int64) (Expr, error) {
	return castImm(NewImm(v), d.DType)
}

// ZeroOf returns the zero immediate of the kind of a type.
func ZeroOf(d Dtype) (Expr, error) {
	return ImmOfInt(d, 0)
}

// OneOf returns the one immediate of the kind of a type.
func OneOf(d Dtype) (Expr, error) {
	return ImmOfInt(d, 1)
}

// ImmInt64 returns the value of an integer immediate as an int64.
// The second return value is false if the expression is not an integer
// immediate or does not fit in an int64.
func ImmInt64(e Expr) (int64, bool) {
	switch v := e.(type) {
	case *ImmT[int32]:
		return int64(v.Val), true
	case *ImmT[int64]:
		return v.Val, true
	case *ImmT[uint32]:
		return int64(v.Val), true
	case *ImmT[uint64]:
		if v.Val > math.MaxInt64 {
			return 0, false
		}
		return int64(v.Val), true
	}
	return 0, false
}

// ImmFloat64 returns the value of a numeric immediate as a float64.
// The second return value is false if the expression is not a numeric
// immediate.
func ImmFloat64(e Expr) (float64, bool) {
	switch v := e.(type) {
	case *ImmT[int32]:
		return float64(v.Val), true
	case *ImmT[int64]:
		return float64(v.Val), true
	case *ImmT[uint32]:
		return float64(v.Val), true
	case *ImmT[uint64]:
		return float64(v.Val), true
	case *ImmT[float32]:
		return float64(v.Val), true
	case *ImmT[float64]:
		return v.Val, true
	case *ImmT[dtype.Bfloat16T]:
		return float64(v.Val.Float32()), true
	}
	return 0, false
}

// ImmEquals returns true if the expression is a numeric immediate equal
// to an integer value. The comparison is exact for integer kinds.
func ImmEquals(e Expr, want int64) bool {
	switch v := e.(type) {
	case *ImmT[int32]:
		return int64(v.Val) == want
	case *ImmT[int64]:
		return v.Val == want
	case *ImmT[uint32]:
		return want >= 0 && uint64(v.Val) == uint64(want)
	case *ImmT[uint64]:
		return want >= 0 && v.Val == uint64(want)
	case *ImmT[float32]:
		return v.Val == float32(want)
	case *ImmT[float64]:
		return v.Val == float64(want)
	case *ImmT[dtype.Bfloat16T]:
		return v.Val.Float32() == float32(want)
	}
	return false
}

// ImmIsNegative returns true if the expression is a numeric immediate
// strictly below zero.
func ImmIsNegative(e Expr) bool {
	switch v := e.(type) {
	case *ImmT[int32]:
		return v.Val < 0
	case *ImmT[int64]:
		return v.Val < 0
	case *ImmT[float32]:
		return v.Val < 0
	case *ImmT[float64]:
		return v.Val < 0
	case *ImmT[dtype.Bfloat16T]:
		return v.Val.Float32() < 0
	}
	return false
}
