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

package ir_test

import (
	"errors"
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/texpr/ir"
)

func TestPromote(t *testing.T) {
	tests := []struct {
		a, b ir.Dtype
		want ir.Dtype
		err  bool
	}{
		{a: ir.Atomic(dtype.Int32), b: ir.Atomic(dtype.Int32), want: ir.Atomic(dtype.Int32)},
		{a: ir.Atomic(dtype.Int32), b: ir.Atomic(dtype.Int64), want: ir.Atomic(dtype.Int64)},
		{a: ir.Atomic(dtype.Uint32), b: ir.Atomic(dtype.Uint32), want: ir.Atomic(dtype.Uint32)},
		{a: ir.Atomic(dtype.Uint64), b: ir.Atomic(dtype.Uint64), want: ir.Atomic(dtype.Uint64)},
		{a: ir.Atomic(dtype.Uint32), b: ir.Atomic(dtype.Uint64), want: ir.Atomic(dtype.Uint64)},
		// Mixing signs falls back to a wider signed integer.
		{a: ir.Atomic(dtype.Int32), b: ir.Atomic(dtype.Uint32), want: ir.Atomic(dtype.Int64)},
		{a: ir.Atomic(dtype.Int64), b: ir.Atomic(dtype.Uint32), want: ir.Atomic(dtype.Int64)},
		// No integer holds both uint64 and a signed value.
		{a: ir.Atomic(dtype.Uint64), b: ir.Atomic(dtype.Int32), err: true},
		{a: ir.Atomic(dtype.Uint64), b: ir.Atomic(dtype.Int64), err: true},
		// Floating point beats integer.
		{a: ir.Atomic(dtype.Int64), b: ir.Atomic(dtype.Float32), want: ir.Atomic(dtype.Float32)},
		{a: ir.Atomic(dtype.Uint64), b: ir.Atomic(dtype.Float64), want: ir.Atomic(dtype.Float64)},
		{a: ir.Atomic(dtype.Int32), b: ir.Atomic(dtype.Bfloat16), want: ir.Atomic(dtype.Bfloat16)},
		// The widest floating point wins.
		{a: ir.Atomic(dtype.Float32), b: ir.Atomic(dtype.Float64), want: ir.Atomic(dtype.Float64)},
		{a: ir.Atomic(dtype.Bfloat16), b: ir.Atomic(dtype.Float32), want: ir.Atomic(dtype.Float32)},
		{a: ir.Atomic(dtype.Bfloat16), b: ir.Atomic(dtype.Bfloat16), want: ir.Atomic(dtype.Bfloat16)},
		// Booleans promote to anything numeric.
		{a: ir.Atomic(dtype.Bool), b: ir.Atomic(dtype.Int32), want: ir.Atomic(dtype.Int32)},
		{a: ir.Atomic(dtype.Bool), b: ir.Atomic(dtype.Float32), want: ir.Atomic(dtype.Float32)},
		{a: ir.Atomic(dtype.Bool), b: ir.Atomic(dtype.Bool), want: ir.Atomic(dtype.Bool)},
		// Lanes must match.
		{a: ir.Vector(dtype.Float32, 4), b: ir.Vector(dtype.Float32, 4), want: ir.Vector(dtype.Float32, 4)},
		{a: ir.Vector(dtype.Int32, 4), b: ir.Vector(dtype.Float32, 4), want: ir.Vector(dtype.Float32, 4)},
		{a: ir.Vector(dtype.Float32, 4), b: ir.Vector(dtype.Float32, 8), err: true},
		{a: ir.Atomic(dtype.Float32), b: ir.Vector(dtype.Float32, 4), err: true},
		// Invalid types are rejected.
		{a: ir.Dtype{}, b: ir.Atomic(dtype.Int32), err: true},
		{a: ir.Atomic(dtype.Int32), b: ir.Vector(dtype.Int32, 0), err: true},
	}
	for i, test := range tests {
		for _, pair := range [][2]ir.Dtype{{test.a, test.b}, {test.b, test.a}} {
			got, err := ir.Promote(pair[0], pair[1])
			if test.err {
				if err == nil {
					t.Errorf("test %d: Promote(%s, %s): expected an error, got %s", i, pair[0], pair[1], got)
				} else if !errors.Is(err, ir.ErrMalformed) {
					t.Errorf("test %d: Promote(%s, %s): error %v is not %v", i, pair[0], pair[1], err, ir.ErrMalformed)
				}
				continue
			}
			if err != nil {
				t.Errorf("test %d: Promote(%s, %s): %v", i, pair[0], pair[1], err)
				continue
			}
			if got != test.want {
				t.Errorf("test %d: Promote(%s, %s) = %s, want %s", i, pair[0], pair[1], got, test.want)
			}
		}
	}
}

func TestDtypePredicates(t *testing.T) {
	tests := []struct {
		typ                    ir.Dtype
		valid, scalar          bool
		integer, float, number bool
	}{
		{typ: ir.Atomic(dtype.Int32), valid: true, scalar: true, integer: true, number: true},
		{typ: ir.Atomic(dtype.Uint64), valid: true, scalar: true, integer: true, number: true},
		{typ: ir.Atomic(dtype.Float64), valid: true, scalar: true, float: true, number: true},
		{typ: ir.Atomic(dtype.Bfloat16), valid: true, scalar: true, float: true, number: true},
		{typ: ir.Atomic(dtype.Bool), valid: true, scalar: true},
		{typ: ir.Vector(dtype.Int64, 8), valid: true, integer: true, number: true},
		{typ: ir.Vector(dtype.Float32, 2), valid: true, float: true, number: true},
		{typ: ir.Dtype{}},
		{typ: ir.Vector(dtype.Float32, 0)},
	}
	for i, test := range tests {
		if got := test.typ.Valid(); got != test.valid {
			t.Errorf("test %d: %s.Valid() = %v, want %v", i, test.typ, got, test.valid)
		}
		if got := test.typ.IsScalar(); got != test.scalar {
			t.Errorf("test %d: %s.IsScalar() = %v, want %v", i, test.typ, got, test.scalar)
		}
		if got := test.typ.IsInteger(); got != test.integer {
			t.Errorf("test %d: %s.IsInteger() = %v, want %v", i, test.typ, got, test.integer)
		}
		if got := test.typ.IsFloat(); got != test.float {
			t.Errorf("test %d: %s.IsFloat() = %v, want %v", i, test.typ, got, test.float)
		}
		if got := test.typ.IsNumeric(); got != test.number {
			t.Errorf("test %d: %s.IsNumeric() = %v, want %v", i, test.typ, got, test.number)
		}
	}
}

func TestDtypeString(t *testing.T) {
	tests := []struct {
		typ  ir.Dtype
		want string
	}{
		{typ: ir.Atomic(dtype.Int32), want: "int32"},
		{typ: ir.Atomic(dtype.Bfloat16), want: "bfloat16"},
		{typ: ir.Vector(dtype.Float32, 8), want: "float32x8"},
		{typ: ir.Vector(dtype.Uint32, 2), want: "uint32x2"},
	}
	for i, test := range tests {
		if got := test.typ.String(); got != test.want {
			t.Errorf("test %d: String() = %q, want %q", i, got, test.want)
		}
	}
}

func TestWithLanes(t *testing.T) {
	typ := ir.Atomic(dtype.Float32)
	wide := typ.WithLanes(4)
	if want := ir.Vector(dtype.Float32, 4); wide != want {
		t.Errorf("WithLanes(4) = %s, want %s", wide, want)
	}
	if got := wide.WithLanes(1); got != typ {
		t.Errorf("WithLanes(1) = %s, want %s", got, typ)
	}
}
