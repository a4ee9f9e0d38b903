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
	"github.com/gx-org/backend/dtype"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Verify checks a tree against the structural rules of the representation
// and returns all the defects found aggregated into a single error.
//
// Trees built through the New* constructors are well formed by construction.
// Verify exists for trees assembled directly from node structures, for
// example by tests or by IR producers.
func Verify(n Node) error {
	v := &verifier{}
	switch node := n.(type) {
	case Expr:
		v.expr(node)
	case Stmt:
		v.stmt(node)
	default:
		return errors.Wrap(ErrMalformed, "nil node")
	}
	return v.errs
}

type verifier struct {
	errs error
}

func (v *verifier) errorf(format string, args ...any) {
	v.errs = multierr.Append(v.errs, errors.Wrapf(ErrMalformed, format, args...))
}

func (v *verifier) append(err error) {
	v.errs = multierr.Append(v.errs, err)
}

func (v *verifier) expr(e Expr) {
	if e == nil {
		v.errorf("nil expression")
		return
	}
	switch n := e.(type) {
	case *Var:
		if n.Name == "" {
			v.errorf("variable with an empty name")
		}
		if !n.Typ.Valid() {
			v.errorf("variable %s has invalid type %s", n.Name, n.Typ)
		}
	case *BinaryExpr:
		v.binary(n)
	case *CastExpr:
		v.expr(n.X)
		if !n.Typ.Valid() {
			v.errorf("cast to invalid type %s", n.Typ)
		}
		if n.X != nil && n.Typ.Lanes != n.X.Dtype().Lanes {
			v.errorf("cast of %s changes lane count from %d to %d", n.X, n.X.Dtype().Lanes, n.Typ.Lanes)
		}
	case *Intrinsic:
		v.intrinsic(n)
	case *Broadcast:
		v.expr(n.X)
		if n.X != nil && !n.X.Dtype().IsScalar() {
			v.errorf("broadcast of non-scalar %s", n.X)
		}
		if n.Lanes < 2 {
			v.errorf("broadcast to %d lane(s)", n.Lanes)
		}
	case *Ramp:
		v.expr(n.Base)
		v.expr(n.Stride)
		if n.Base != nil && n.Stride != nil {
			if !n.Base.Dtype().IsScalar() || !n.Stride.Dtype().IsScalar() {
				v.errorf("ramp operands %s and %s must be scalar", n.Base, n.Stride)
			}
			if n.Base.Dtype().DType != n.Stride.Dtype().DType {
				v.errorf("ramp base %s and stride %s have different kinds", n.Base.Dtype(), n.Stride.Dtype())
			}
		}
		if n.Lanes < 2 {
			v.errorf("ramp of %d lane(s)", n.Lanes)
		}
	case *Load:
		v.buffer(n.B)
		v.expr(n.Index)
		if n.Index != nil && !n.Index.Dtype().IsInteger() {
			v.errorf("load with non-integer index %s", n.Index)
		}
	case *Term:
		v.term(n)
	case *Polynomial:
		v.polynomial(n)
	case *RoundOff:
		v.expr(n.X)
		v.expr(n.Y)
		if n.X != nil && n.Y != nil {
			typ, err := promoteBinary(n.X, n.Y)
			if err != nil {
				v.append(err)
			} else if typ != n.Typ {
				v.errorf("round off type %s does not match operand promotion %s", n.Typ, typ)
			}
		}
	default:
		if !e.IsConstant() {
			v.errorf("unknown expression %T", e)
		}
	}
}

func (v *verifier) binary(n *BinaryExpr) {
	if !n.Op.Valid() {
		v.errorf("invalid binary operator %d", int(n.Op))
	}
	v.expr(n.X)
	v.expr(n.Y)
	if n.X != nil && n.Y != nil {
		typ, err := promoteBinary(n.X, n.Y)
		if err != nil {
			v.append(err)
		} else if typ != n.Typ {
			v.errorf("%s: type %s does not match operand promotion %s", n, n.Typ, typ)
		}
	}
	if n.PropagateNaNs && !n.Op.IsMinMax() {
		v.errorf("operator %s cannot propagate NaNs", n.Op)
	}
	if n.Op.Valid() && n.Op.IntegerOnly() && !n.Typ.IsInteger() {
		v.errorf("operator %s requires integer operands, got %s", n.Op, n.Typ)
	}
	if !n.Typ.IsNumeric() {
		v.errorf("operator %s requires numeric operands, got %s", n.Op, n.Typ)
	}
}

func (v *verifier) intrinsic(n *Intrinsic) {
	if !n.Op.Valid() {
		v.errorf("invalid intrinsic %d", int(n.Op))
		return
	}
	if len(n.Args) != n.Op.NumArgs() {
		v.errorf("intrinsic %s takes %d argument(s), got %d", n.Op, n.Op.NumArgs(), len(n.Args))
	}
	all := true
	for _, arg := range n.Args {
		v.expr(arg)
		all = all && arg != nil
	}
	if !n.Typ.IsFloat() && !(n.Op == IntrinsicAbs && n.Typ.IsInteger()) {
		v.errorf("intrinsic %s requires floating point arguments, got %s", n.Op, n.Typ)
	}
	if !all || len(n.Args) == 0 {
		return
	}
	typ := n.Args[0].Dtype()
	for _, arg := range n.Args[1:] {
		var err error
		typ, err = promoteBinary(n.Args[0], arg)
		if err != nil {
			v.append(err)
			return
		}
	}
	if typ != n.Typ {
		v.errorf("intrinsic %s: type %s does not match argument promotion %s", n.Op, n.Typ, typ)
	}
}

func (v *verifier) buffer(b *Buf) {
	if b == nil {
		v.errorf("nil buffer")
		return
	}
	if b.Name == "" {
		v.errorf("buffer with an empty name")
	}
	if !Atomic(b.DType).Valid() {
		v.errorf("buffer %s has invalid kind %s", b.Name, Atomic(b.DType))
	}
	for _, dim := range b.Dims {
		v.expr(dim)
		if dim != nil && !dim.Dtype().IsInteger() {
			v.errorf("buffer %s has non-integer dimension %s", b.Name, dim)
		}
	}
}

func (v *verifier) term(n *Term) {
	v.expr(n.Scalar)
	if n.Scalar != nil && !n.Scalar.IsConstant() {
		v.errorf("term scalar %s is not an immediate", n.Scalar)
	}
	if len(n.Vars) == 0 {
		v.errorf("term with no component")
	}
	all := n.Scalar != nil && n.Scalar.IsConstant()
	for _, x := range n.Vars {
		v.expr(x)
		all = all && x != nil
	}
	if !all || len(n.Vars) == 0 {
		return
	}
	typ, err := groupDtype(n.Scalar, n.Vars)
	if err != nil {
		v.append(err)
	} else if typ != n.Typ {
		v.errorf("term type %s does not match component promotion %s", n.Typ, typ)
	}
}

func (v *verifier) polynomial(n *Polynomial) {
	v.expr(n.Scalar)
	if n.Scalar != nil && !n.Scalar.IsConstant() {
		v.errorf("polynomial scalar %s is not an immediate", n.Scalar)
	}
	if len(n.Terms) == 0 {
		v.errorf("polynomial with no term")
	}
	all := n.Scalar != nil && n.Scalar.IsConstant()
	elems := make([]Expr, 0, len(n.Terms))
	for _, t := range n.Terms {
		if t == nil {
			v.errorf("nil expression")
			all = false
			continue
		}
		v.expr(t)
		elems = append(elems, t)
	}
	if !all || len(elems) == 0 {
		return
	}
	typ, err := groupDtype(n.Scalar, elems)
	if err != nil {
		v.append(err)
	} else if typ != n.Typ {
		v.errorf("polynomial type %s does not match term promotion %s", n.Typ, typ)
	}
}

func (v *verifier) stmt(s Stmt) {
	if s == nil {
		v.errorf("nil statement")
		return
	}
	switch n := s.(type) {
	case *Block:
		for _, sub := range n.Stmts {
			v.stmt(sub)
		}
	case *Store:
		v.buffer(n.B)
		v.expr(n.Index)
		if n.Index != nil && !n.Index.Dtype().IsInteger() {
			v.errorf("store with non-integer index %s", n.Index)
		}
		v.expr(n.Value)
		if n.B != nil && n.Value != nil && n.Value.Dtype().DType != n.B.DType {
			v.errorf("store of %s value into %s buffer %s", n.Value.Dtype(), Atomic(n.B.DType), n.B.Name)
		}
		if n.Index != nil && n.Value != nil && n.Value.Dtype().Lanes != n.Index.Dtype().Lanes {
			v.errorf("store of %d lane(s) at a %d lane(s) index", n.Value.Dtype().Lanes, n.Index.Dtype().Lanes)
		}
	case *For:
		if n.Var == nil {
			v.errorf("loop with a nil variable")
		} else {
			v.expr(n.Var)
			if !n.Var.Typ.IsInteger() || !n.Var.Typ.IsScalar() {
				v.errorf("loop variable %s must be an integer scalar, got %s", n.Var.Name, n.Var.Typ)
			}
		}
		v.expr(n.Start)
		v.expr(n.Stop)
		for _, bound := range []Expr{n.Start, n.Stop} {
			if bound != nil && (!bound.Dtype().IsInteger() || !bound.Dtype().IsScalar()) {
				v.errorf("loop bound %s must be an integer scalar, got %s", bound, bound.Dtype())
			}
		}
		v.stmt(n.Body)
	case *Cond:
		v.expr(n.Condition)
		if n.Condition != nil && n.Condition.Dtype().DType != dtype.Bool {
			v.errorf("condition %s must be boolean, got %s", n.Condition, n.Condition.Dtype())
		}
		v.stmt(n.Then)
		if n.Else != nil {
			v.stmt(n.Else)
		}
	default:
		v.errorf("unknown statement %T", s)
	}
}
