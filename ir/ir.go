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

// Package ir is the tensor expression Intermediate Representation (IR) tree.
//
// The tree represents scalar and short-vector arithmetic over typed
// variables, immediates, and buffer accesses. Nodes are immutable after
// construction: rewriting passes build new nodes instead of modifying
// existing ones, so subtrees can be shared freely.
package ir

import (
	"github.com/gx-org/backend/dtype"
	"github.com/pkg/errors"
)

// ErrMalformed reports an expression tree that breaks a structural rule of
// the representation. It marks a programming error of the caller rather
// than a condition to recover from.
var ErrMalformed = errors.New("malformed expression")

// ----------------------------------------------------------------------------
// Types of node in the tree.
type (
	// Node in the tree.
	Node interface {
		// node marks a structure as a node structure.
		// It prevents external implementations of the interface.
		node()

		// String representation of the node.
		String() string
	}

	// Expr is an expression node computing a value.
	Expr interface {
		Node

		// Dtype returns the type of the value computed by the expression.
		Dtype() Dtype

		// IsConstant returns true if the expression is an immediate.
		IsConstant() bool

		expr()
	}

	// Stmt is a statement node.
	Stmt interface {
		Node

		stmt()
	}
)

// ----------------------------------------------------------------------------
// Expressions.
type (
	// Var is a reference to a named value.
	Var struct {
		Name string
		Typ  Dtype
	}

	// BinaryExpr is an operator with two arguments.
	BinaryExpr struct {
		Op   BinaryOp
		X, Y Expr
		Typ  Dtype

		// PropagateNaNs selects the NaN mode of Max and Min:
		// true propagates a NaN operand, false returns the other operand.
		PropagateNaNs bool
	}

	// CastExpr converts a value to another type.
	CastExpr struct {
		X   Expr
		Typ Dtype
	}

	// Intrinsic is a call to a pure math function.
	Intrinsic struct {
		Op   IntrinsicOp
		Args []Expr
		Typ  Dtype
	}

	// Broadcast replicates a scalar value across lanes.
	Broadcast struct {
		X     Expr
		Lanes int
	}

	// Ramp is the vector base, base+stride, ..., base+(lanes-1)*stride.
	Ramp struct {
		Base, Stride Expr
		Lanes        int
	}

	// Buf is a named buffer of elements of a scalar kind.
	// A buffer is not an expression: it is read through Load
	// and written through Store.
	Buf struct {
		Name  string
		DType dtype.DataType
		Dims  []Expr
	}

	// Load reads elements of a buffer at an index.
	// The value has the kind of the buffer at the width of the index.
	Load struct {
		B     *Buf
		Index Expr
	}
)

// ----------------------------------------------------------------------------
// Statements.
type (
	// Block is a sequence of statements.
	Block struct {
		Stmts []Stmt
	}

	// Store writes a value into a buffer at an index.
	Store struct {
		B     *Buf
		Index Expr
		Value Expr
	}

	// For runs a body with a variable ranging over [Start, Stop).
	For struct {
		Var         *Var
		Start, Stop Expr
		Body        Stmt
	}

	// Cond runs one of two branches depending on a boolean condition.
	// Else may be nil.
	Cond struct {
		Condition Expr
		Then      Stmt
		Else      Stmt
	}
)

var (
	_ Expr = (*Var)(nil)
	_ Expr = (*BinaryExpr)(nil)
	_ Expr = (*CastExpr)(nil)
	_ Expr = (*Intrinsic)(nil)
	_ Expr = (*Broadcast)(nil)
	_ Expr = (*Ramp)(nil)
	_ Expr = (*Load)(nil)
	_ Stmt = (*Block)(nil)
	_ Stmt = (*Store)(nil)
	_ Stmt = (*For)(nil)
	_ Stmt = (*Cond)(nil)
)

// ----------------------------------------------------------------------------
// Variables.

// NewVar returns a reference to a named value of a given type.
func NewVar(name string, typ Dtype) *Var {
	return &Var{Name: name, Typ: typ}
}

func (n *Var) node() {}
func (n *Var) expr() {}

// Dtype returns the type of the variable.
func (n *Var) Dtype() Dtype { return n.Typ }

// IsConstant returns false: a variable is never an immediate.
func (n *Var) IsConstant() bool { return false }

// ----------------------------------------------------------------------------
// Binary expressions.

// NewBinary returns the binary expression applying op to x and y.
// The type of the expression is the promotion of both operand types;
// pairs with no common type are rejected, as are integer-only operators
// applied to non-integer operands.
func NewBinary(op BinaryOp, x, y Expr) (*BinaryExpr, error) {
	return NewBinaryNaNs(op, x, y, false)
}

// NewBinaryNaNs is NewBinary with an explicit NaN propagation mode.
// The mode can only be set on Max and Min.
func NewBinaryNaNs(op BinaryOp, x, y Expr, propagateNaNs bool) (*BinaryExpr, error) {
	if !op.Valid() {
		return nil, errors.Wrapf(ErrMalformed, "invalid binary operator %d", int(op))
	}
	if x == nil || y == nil {
		return nil, errors.Wrapf(ErrMalformed, "operator %s with a nil operand", op)
	}
	if propagateNaNs && !op.IsMinMax() {
		return nil, errors.Wrapf(ErrMalformed, "operator %s cannot propagate NaNs", op)
	}
	typ, err := promoteBinary(x, y)
	if err != nil {
		return nil, err
	}
	if op.IntegerOnly() && !typ.IsInteger() {
		return nil, errors.Wrapf(ErrMalformed, "operator %s requires integer operands, got %s", op, typ)
	}
	if !typ.IsNumeric() {
		return nil, errors.Wrapf(ErrMalformed, "operator %s requires numeric operands, got %s", op, typ)
	}
	return &BinaryExpr{Op: op, X: x, Y: y, Typ: typ, PropagateNaNs: propagateNaNs}, nil
}

// NewAdd returns the sum of x and y.
func NewAdd(x, y Expr) (*BinaryExpr, error) { return NewBinary(OpAdd, x, y) }

// NewSub returns the difference of x and y.
func NewSub(x, y Expr) (*BinaryExpr, error) { return NewBinary(OpSub, x, y) }

// NewMul returns the product of x and y.
func NewMul(x, y Expr) (*BinaryExpr, error) { return NewBinary(OpMul, x, y) }

// NewDiv returns the quotient of x and y.
func NewDiv(x, y Expr) (*BinaryExpr, error) { return NewBinary(OpDiv, x, y) }

func (n *BinaryExpr) node() {}
func (n *BinaryExpr) expr() {}

// Dtype returns the type of the expression.
func (n *BinaryExpr) Dtype() Dtype { return n.Typ }

// IsConstant returns false: operators are folded by rewriting,
// never implicitly.
func (n *BinaryExpr) IsConstant() bool { return false }

// ----------------------------------------------------------------------------
// Casts.

// NewCast returns x converted to a type. The target keeps the lane count
// of the operand: widening a scalar requires an explicit Broadcast.
func NewCast(x Expr, typ Dtype) (*CastExpr, error) {
	if x == nil {
		return nil, errors.Wrapf(ErrMalformed, "cast of a nil expression")
	}
	if !typ.Valid() {
		return nil, errors.Wrapf(ErrMalformed, "cast of %s to invalid type %s", x, typ)
	}
	if typ.Lanes != x.Dtype().Lanes {
		return nil, errors.Wrapf(ErrMalformed, "cast of %s changes lane count from %d to %d", x, x.Dtype().Lanes, typ.Lanes)
	}
	return &CastExpr{X: x, Typ: typ}, nil
}

func (n *CastExpr) node() {}
func (n *CastExpr) expr() {}

// Dtype returns the type the operand is converted to.
func (n *CastExpr) Dtype() Dtype { return n.Typ }

// IsConstant returns false: casts of immediates are folded by rewriting.
func (n *CastExpr) IsConstant() bool { return false }

// ----------------------------------------------------------------------------
// Intrinsics.

// NewIntrinsic returns a call to a pure math function.
// All intrinsics take floating point arguments, except abs which also
// accepts integers.
func NewIntrinsic(op IntrinsicOp, args ...Expr) (*Intrinsic, error) {
	if !op.Valid() {
		return nil, errors.Wrapf(ErrMalformed, "invalid intrinsic %d", int(op))
	}
	if len(args) != op.NumArgs() {
		return nil, errors.Wrapf(ErrMalformed, "intrinsic %s takes %d argument(s), got %d", op, op.NumArgs(), len(args))
	}
	typ := args[0].Dtype()
	for _, arg := range args[1:] {
		var err error
		typ, err = promoteBinary(args[0], arg)
		if err != nil {
			return nil, err
		}
	}
	if !typ.IsFloat() && !(op == IntrinsicAbs && typ.IsInteger()) {
		return nil, errors.Wrapf(ErrMalformed, "intrinsic %s requires floating point arguments, got %s", op, typ)
	}
	return &Intrinsic{Op: op, Args: args, Typ: typ}, nil
}

func (n *Intrinsic) node() {}
func (n *Intrinsic) expr() {}

// Dtype returns the type of the call result.
func (n *Intrinsic) Dtype() Dtype { return n.Typ }

// IsConstant returns false: calls on immediates are folded by rewriting.
func (n *Intrinsic) IsConstant() bool { return false }

// ----------------------------------------------------------------------------
// Multilane primitives.

// NewBroadcast returns x replicated across lanes.
func NewBroadcast(x Expr, lanes int) (*Broadcast, error) {
	if x == nil {
		return nil, errors.Wrapf(ErrMalformed, "broadcast of a nil expression")
	}
	if !x.Dtype().IsScalar() {
		return nil, errors.Wrapf(ErrMalformed, "broadcast of non-scalar %s", x)
	}
	if lanes < 2 {
		return nil, errors.Wrapf(ErrMalformed, "broadcast to %d lane(s)", lanes)
	}
	return &Broadcast{X: x, Lanes: lanes}, nil
}

func (n *Broadcast) node() {}
func (n *Broadcast) expr() {}

// Dtype returns the type of the operand widened to the broadcast lanes.
func (n *Broadcast) Dtype() Dtype { return Vector(n.X.Dtype().DType, n.Lanes) }

// IsConstant returns false: a multilane primitive is never folded,
// even when its operand is an immediate.
func (n *Broadcast) IsConstant() bool { return false }

// NewRamp returns the vector base, base+stride, ..., base+(lanes-1)*stride.
// Base and stride are scalars of the same kind.
func NewRamp(base, stride Expr, lanes int) (*Ramp, error) {
	if base == nil || stride == nil {
		return nil, errors.Wrapf(ErrMalformed, "ramp with a nil operand")
	}
	if !base.Dtype().IsScalar() || !stride.Dtype().IsScalar() {
		return nil, errors.Wrapf(ErrMalformed, "ramp operands %s and %s must be scalar", base, stride)
	}
	if base.Dtype().DType != stride.Dtype().DType {
		return nil, errors.Wrapf(ErrMalformed, "ramp base %s and stride %s have different kinds", base.Dtype(), stride.Dtype())
	}
	if lanes < 2 {
		return nil, errors.Wrapf(ErrMalformed, "ramp of %d lane(s)", lanes)
	}
	return &Ramp{Base: base, Stride: stride, Lanes: lanes}, nil
}

func (n *Ramp) node() {}
func (n *Ramp) expr() {}

// Dtype returns the type of the base widened to the ramp lanes.
func (n *Ramp) Dtype() Dtype { return Vector(n.Base.Dtype().DType, n.Lanes) }

// IsConstant returns false: a multilane primitive is never folded.
func (n *Ramp) IsConstant() bool { return false }

// ----------------------------------------------------------------------------
// Buffers.

// NewBuf returns a named buffer of elements of kind dt.
func NewBuf(name string, dt dtype.DataType, dims ...Expr) *Buf {
	return &Buf{Name: name, DType: dt, Dims: dims}
}

// NewLoad returns the elements of a buffer read at an integer index.
func NewLoad(b *Buf, index Expr) (*Load, error) {
	if b == nil || index == nil {
		return nil, errors.Wrapf(ErrMalformed, "load with a nil buffer or index")
	}
	if !index.Dtype().IsInteger() {
		return nil, errors.Wrapf(ErrMalformed, "load from %s with non-integer index %s", b.Name, index)
	}
	return &Load{B: b, Index: index}, nil
}

func (n *Load) node() {}
func (n *Load) expr() {}

// Dtype returns the kind of the buffer at the width of the index.
func (n *Load) Dtype() Dtype { return Vector(n.B.DType, n.Index.Dtype().Lanes) }

// IsConstant returns false: a memory read is never an immediate.
func (n *Load) IsConstant() bool { return false }

// ----------------------------------------------------------------------------
// Statements.

func (n *Block) node() {}
func (n *Block) stmt() {}

func (n *Store) node() {}
func (n *Store) stmt() {}

func (n *For) node() {}
func (n *For) stmt() {}

func (n *Cond) node() {}
func (n *Cond) stmt() {}
