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
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/texpr/ir"
)

func TestHashStructural(t *testing.T) {
	h := ir.NewHasher()
	x := ir.NewVar("x", i32)
	y := ir.NewVar("y", i32)
	tests := []struct {
		a, b ir.Expr
		same bool
	}{
		// Two builds of the same tree hash alike.
		{a: must(ir.NewAdd(x, y)), b: must(ir.NewAdd(ir.NewVar("x", i32), ir.NewVar("y", i32))), same: true},
		{a: ir.NewImm(int32(3)), b: ir.NewImm(int32(3)), same: true},
		{a: must(ir.NewIntrinsic(ir.IntrinsicSin, ir.NewVar("fx", f32))), b: must(ir.NewIntrinsic(ir.IntrinsicSin, ir.NewVar("fx", f32))), same: true},
		// Operators, operands, kinds and values all feed the hash.
		{a: must(ir.NewAdd(x, y)), b: must(ir.NewMul(x, y)), same: false},
		{a: must(ir.NewAdd(x, y)), b: must(ir.NewAdd(y, x)), same: false},
		{a: x, b: y, same: false},
		{a: ir.NewImm(int32(3)), b: ir.NewImm(int64(3)), same: false},
		{a: ir.NewImm(int32(3)), b: ir.NewImm(int32(4)), same: false},
		{a: ir.NewImm(float32(1)), b: ir.NewImm(float64(1)), same: false},
		{a: x, b: ir.NewVar("x", ir.Atomic(dtype.Int64)), same: false},
		{a: must(ir.NewBroadcast(x, 4)), b: must(ir.NewBroadcast(x, 8)), same: false},
	}
	for i, test := range tests {
		ha, hb := h.Hash(test.a), h.Hash(test.b)
		if (ha == hb) != test.same {
			t.Errorf("test %d: Hash(%s) = %d, Hash(%s) = %d, same = %v, want %v", i, test.a, ha, test.b, hb, ha == hb, test.same)
		}
	}
}

func TestHashLoad(t *testing.T) {
	h := ir.NewHasher()
	i := ir.NewVar("i", i32)
	a := must(ir.NewLoad(ir.NewBuf("A", dtype.Float32), i))
	a2 := must(ir.NewLoad(ir.NewBuf("A", dtype.Float32), i))
	b := must(ir.NewLoad(ir.NewBuf("B", dtype.Float32), i))
	if h.Hash(a) != h.Hash(a2) {
		t.Errorf("loads of the same buffer at the same index hash differently")
	}
	if h.Hash(a) == h.Hash(b) {
		t.Errorf("loads of different buffers hash alike")
	}
}

func TestTermHashVars(t *testing.T) {
	h := ir.NewHasher()
	x := ir.NewVar("x", i32)
	y := ir.NewVar("y", i32)
	two := ir.NewImm(int32(2))
	three := ir.NewImm(int32(3))
	xy := must(ir.NewTerm(h, two, x, y))
	yx := must(ir.NewTerm(h, three, y, x))
	// The grouping key ignores both the scalar and the component order.
	if xy.HashVars() != yx.HashVars() {
		t.Errorf("HashVars(2*x*y) = %d, HashVars(3*y*x) = %d, want equal", xy.HashVars(), yx.HashVars())
	}
	xx := must(ir.NewTerm(h, two, x, x))
	if xy.HashVars() == xx.HashVars() {
		t.Errorf("HashVars(x*y) and HashVars(x*x) hash alike")
	}
	// The full term hash still sees the scalar.
	if h.Hash(xy) == h.Hash(yx) {
		t.Errorf("Hash(2*x*y) and Hash(3*x*y) hash alike")
	}
}

func TestHashMemoized(t *testing.T) {
	h := ir.NewHasher()
	x := ir.NewVar("x", i32)
	e := must(ir.NewAdd(x, ir.NewImm(int32(1))))
	first := h.Hash(e)
	if again := h.Hash(e); again != first {
		t.Errorf("Hash(%s) = %d on the second call, want %d", e, again, first)
	}
}
