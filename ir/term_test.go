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

func TestNewTerm(t *testing.T) {
	h := ir.NewHasher()
	x := ir.NewVar("x", i32)
	fx := ir.NewVar("fx", f32)
	vec := ir.NewVar("v", ir.Vector(dtype.Float32, 4))
	two := ir.NewImm(int32(2))
	tests := []struct {
		scalar ir.Expr
		vars   []ir.Expr
		want   ir.Dtype
		err    bool
	}{
		{scalar: two, vars: []ir.Expr{x}, want: i32},
		// The type is the promotion of the scalar with all components.
		{scalar: two, vars: []ir.Expr{x, fx}, want: f32},
		{scalar: two, vars: []ir.Expr{vec}, want: ir.Vector(dtype.Float32, 4)},
		// The scalar must be an immediate and components must exist.
		{scalar: x, vars: []ir.Expr{x}, err: true},
		{scalar: two, vars: nil, err: true},
		{scalar: nil, vars: []ir.Expr{x}, err: true},
		// Components with no common type are rejected.
		{scalar: two, vars: []ir.Expr{ir.NewVar("u", ir.Atomic(dtype.Uint64)), x}, err: true},
	}
	for i, test := range tests {
		got, err := ir.NewTerm(h, test.scalar, test.vars...)
		if test.err {
			if err == nil {
				t.Errorf("test %d: NewTerm: expected an error, got %s", i, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("test %d: NewTerm: %v", i, err)
			continue
		}
		if got.Dtype() != test.want {
			t.Errorf("test %d: NewTerm has type %s, want %s", i, got.Dtype(), test.want)
		}
	}
}

func TestTermCanonicalOrder(t *testing.T) {
	h := ir.NewHasher()
	x := ir.NewVar("x", i32)
	y := ir.NewVar("y", i32)
	z := ir.NewVar("z", i32)
	two := ir.NewImm(int32(2))
	a := must(ir.NewTerm(h, two, x, y, z))
	b := must(ir.NewTerm(h, two, z, y, x))
	// Components are sorted by hash: the construction order does not matter.
	if a.String() != b.String() {
		t.Errorf("NewTerm(x, y, z) = %s, NewTerm(z, y, x) = %s, want the same order", a, b)
	}
	if h.Hash(a) != h.Hash(b) {
		t.Errorf("Hash(%s) = %d, Hash(%s) = %d, want equal", a, h.Hash(a), b, h.Hash(b))
	}
}

func TestNewPolynomial(t *testing.T) {
	h := ir.NewHasher()
	x := ir.NewVar("x", i32)
	y := ir.NewVar("y", i32)
	tx := must(ir.NewTerm(h, ir.NewImm(int32(2)), x))
	ty := must(ir.NewTerm(h, ir.NewImm(int32(3)), y))
	p := must(ir.NewPolynomial(h, ir.NewImm(int32(5)), tx, ty))
	if p.Dtype() != i32 {
		t.Errorf("polynomial has type %s, want %s", p.Dtype(), i32)
	}
	q := must(ir.NewPolynomial(h, ir.NewImm(int32(5)), ty, tx))
	// Terms are sorted by hash: the construction order does not matter.
	if p.String() != q.String() {
		t.Errorf("NewPolynomial(tx, ty) = %s, NewPolynomial(ty, tx) = %s, want the same order", p, q)
	}
	if h.Hash(p) != h.Hash(q) {
		t.Errorf("Hash(%s) = %d, Hash(%s) = %d, want equal", p, h.Hash(p), q, h.Hash(q))
	}
	if _, err := ir.NewPolynomial(h, ir.NewImm(int32(5))); err == nil {
		t.Errorf("NewPolynomial with no term: expected an error")
	}
	if _, err := ir.NewPolynomial(h, x, tx); err == nil {
		t.Errorf("NewPolynomial with a variable scalar: expected an error")
	}
}

func TestNewPolynomialFromTerms(t *testing.T) {
	h := ir.NewHasher()
	x := ir.NewVar("x", i32)
	fy := ir.NewVar("fy", f32)
	tx := must(ir.NewTerm(h, ir.NewImm(int32(2)), x))
	ty := must(ir.NewTerm(h, ir.NewImm(float32(3)), fy))
	p := must(ir.NewPolynomialFromTerms(h, tx, ty))
	// The implicit scalar is the zero of the promoted term type.
	if want := f32; p.Dtype() != want {
		t.Errorf("polynomial has type %s, want %s", p.Dtype(), want)
	}
	if !ir.ImmEquals(p.Scalar, 0) {
		t.Errorf("polynomial scalar = %s, want 0", p.Scalar)
	}
	if !p.Scalar.IsConstant() {
		t.Errorf("polynomial scalar %s is not an immediate", p.Scalar)
	}
}

func TestNewRoundOff(t *testing.T) {
	x := ir.NewVar("x", i32)
	y := ir.NewVar("y", i32)
	ro := must(ir.NewRoundOff(x, y))
	if ro.Dtype() != i32 {
		t.Errorf("round off has type %s, want %s", ro.Dtype(), i32)
	}
	if _, err := ir.NewRoundOff(nil, y); err == nil {
		t.Errorf("round off of nil: expected an error")
	}
	if _, err := ir.NewRoundOff(ir.NewVar("u", ir.Atomic(dtype.Uint64)), x); err == nil {
		t.Errorf("round off with no common type: expected an error")
	}
}
