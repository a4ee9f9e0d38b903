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
	"github.com/gx-org/texpr/base/scope"
	"github.com/pkg/errors"
)

// EvalOp folds an expression into an immediate. All the leaves of the
// expression must be immediates: a variable aborts the evaluation.
// Rewriting passes call it on nodes whose operands are already constant.
func EvalOp(e Expr) (Expr, error) {
	return Eval(e, nil)
}

// Eval computes the value of a scalar expression as an immediate.
// Variables are resolved through env, which binds names to expressions
// evaluated in the same environment. Multilane expressions and memory
// reads cannot be evaluated.
func Eval(e Expr, env *scope.RWScope[Expr]) (Expr, error) {
	if e == nil {
		return nil, errors.Wrapf(ErrMalformed, "cannot evaluate a nil expression")
	}
	if e.IsConstant() {
		return e, nil
	}
	if !e.Dtype().IsScalar() {
		return nil, errors.Errorf("cannot evaluate multilane expression %s", e)
	}
	switch n := e.(type) {
	case *Var:
		if env == nil {
			return nil, errors.Errorf("no binding for variable %s", n.Name)
		}
		bound, ok := env.Find(n.Name)
		if !ok {
			return nil, errors.Errorf("no binding for variable %s", n.Name)
		}
		return Eval(bound, env)
	case *BinaryExpr:
		x, err := Eval(n.X, env)
		if err != nil {
			return nil, err
		}
		y, err := Eval(n.Y, env)
		if err != nil {
			return nil, err
		}
		return evalBinary(n.Op, n.PropagateNaNs, n.Typ.DType, x, y)
	case *CastExpr:
		x, err := Eval(n.X, env)
		if err != nil {
			return nil, err
		}
		return castImm(x, n.Typ.DType)
	case *Intrinsic:
		args := make([]Expr, len(n.Args))
		for i, arg := range n.Args {
			var err error
			args[i], err = Eval(arg, env)
			if err != nil {
				return nil, err
			}
		}
		return evalIntrinsic(n.Op, n.Typ.DType, args)
	case *Term:
		acc, err := Eval(n.Scalar, env)
		if err != nil {
			return nil, err
		}
		for _, v := range n.Vars {
			vv, err := Eval(v, env)
			if err != nil {
				return nil, err
			}
			acc, err = evalBinary(OpMul, false, n.Typ.DType, acc, vv)
			if err != nil {
				return nil, err
			}
		}
		return acc, nil
	case *Polynomial:
		acc, err := Eval(n.Scalar, env)
		if err != nil {
			return nil, err
		}
		for _, t := range n.Terms {
			tv, err := Eval(t, env)
			if err != nil {
				return nil, err
			}
			acc, err = evalBinary(OpAdd, false, n.Typ.DType, acc, tv)
			if err != nil {
				return nil, err
			}
		}
		return acc, nil
	case *RoundOff:
		x, err := Eval(n.X, env)
		if err != nil {
			return nil, err
		}
		y, err := Eval(n.Y, env)
		if err != nil {
			return nil, err
		}
		q, err := evalBinary(OpDiv, false, n.Typ.DType, x, y)
		if err != nil {
			return nil, err
		}
		return evalBinary(OpMul, false, n.Typ.DType, q, y)
	}
	return nil, errors.Errorf("cannot evaluate expression %s", e)
}

// AddImm folds the sum of two immediates.
func AddImm(x, y Expr) (Expr, error) {
	b, err := NewAdd(x, y)
	if err != nil {
		return nil, err
	}
	return EvalOp(b)
}

// MulImm folds the product of two immediates.
func MulImm(x, y Expr) (Expr, error) {
	b, err := NewMul(x, y)
	if err != nil {
		return nil, err
	}
	return EvalOp(b)
}

// NegImm folds the negation of an immediate. Unsigned kinds negate by
// wrapping, so a value and its negation always cancel under addition.
func NegImm(x Expr) (Expr, error) {
	m1, err := ImmOfInt(x.Dtype(), -1)
	if err != nil {
		return nil, err
	}
	return MulImm(x, m1)
}

func evalBinary(op BinaryOp, propagateNaNs bool, dt dtype.DataType, x, y Expr) (Expr, error) {
	switch dt {
	case dtype.Int32:
		return evalIntOp[int32](op, x, y)
	case dtype.Int64:
		return evalIntOp[int64](op, x, y)
	case dtype.Uint32:
		return evalIntOp[uint32](op, x, y)
	case dtype.Uint64:
		return evalIntOp[uint64](op, x, y)
	case dtype.Float32:
		return evalFloatOp[float32](op, propagateNaNs, x, y)
	case dtype.Float64:
		return evalFloatOp[float64](op, propagateNaNs, x, y)
	case dtype.Bfloat16:
		r, err := evalFloatOp[float32](op, propagateNaNs, x, y)
		if err != nil {
			return nil, err
		}
		return castImm(r, dtype.Bfloat16)
	}
	return nil, errors.Wrapf(ErrMalformed, "operator %s not supported for %s", op, kindName(dt))
}

func evalIntOp[T dtype.IntegerType](op BinaryOp, x, y Expr) (Expr, error) {
	xv, err := castTo[T](x)
	if err != nil {
		return nil, err
	}
	yv, err := castTo[T](y)
	if err != nil {
		return nil, err
	}
	switch op {
	case OpAdd:
		return NewImm(xv + yv), nil
	case OpSub:
		return NewImm(xv - yv), nil
	case OpMul:
		return NewImm(xv * yv), nil
	case OpDiv:
		if yv == 0 {
			return nil, errors.Errorf("integer division by zero in %s / %s", x, y)
		}
		return NewImm(xv / yv), nil
	case OpMod:
		if yv == 0 {
			return nil, errors.Errorf("integer modulo by zero in %s %% %s", x, y)
		}
		return NewImm(xv % yv), nil
	case OpAnd:
		return NewImm(xv & yv), nil
	case OpXor:
		return NewImm(xv ^ yv), nil
	case OpLshift:
		if yv < 0 {
			return nil, errors.Errorf("negative shift count %s", y)
		}
		return NewImm(xv << yv), nil
	case OpRshift:
		if yv < 0 {
			return nil, errors.Errorf("negative shift count %s", y)
		}
		return NewImm(xv >> yv), nil
	case OpMax:
		if xv > yv {
			return NewImm(xv), nil
		}
		return NewImm(yv), nil
	case OpMin:
		if xv < yv {
			return NewImm(xv), nil
		}
		return NewImm(yv), nil
	}
	return nil, errors.Wrapf(ErrMalformed, "operator %s not supported for integers", op)
}

func evalFloatOp[T dtype.Float](op BinaryOp, propagateNaNs bool, x, y Expr) (Expr, error) {
	xv, err := castTo[T](x)
	if err != nil {
		return nil, err
	}
	yv, err := castTo[T](y)
	if err != nil {
		return nil, err
	}
	switch op {
	case OpAdd:
		return NewImm(xv + yv), nil
	case OpSub:
		return NewImm(xv - yv), nil
	case OpMul:
		return NewImm(xv * yv), nil
	case OpDiv:
		return NewImm(xv / yv), nil
	case OpMax, OpMin:
		return NewImm(foldMinMax(op, xv, yv, propagateNaNs)), nil
	}
	return nil, errors.Wrapf(ErrMalformed, "operator %s not supported for floating points", op)
}

func foldMinMax[T dtype.Float](op BinaryOp, x, y T, propagateNaNs bool) T {
	xNaN, yNaN := math.IsNaN(float64(x)), math.IsNaN(float64(y))
	if xNaN || yNaN {
		if propagateNaNs || (xNaN && yNaN) {
			return T(math.NaN())
		}
		if xNaN {
			return y
		}
		return x
	}
	if op == OpMax {
		if x > y {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

func evalIntrinsic(op IntrinsicOp, dt dtype.DataType, args []Expr) (Expr, error) {
	if op == IntrinsicAbs && Atomic(dt).IsInteger() {
		if dt == dtype.Uint32 || dt == dtype.Uint64 {
			return castImm(args[0], dt)
		}
		v, err := castTo[int64](args[0])
		if err != nil {
			return nil, err
		}
		if v < 0 {
			v = -v
		}
		return castImm(NewImm(v), dt)
	}
	fs := make([]float64, len(args))
	for i, arg := range args {
		var err error
		fs[i], err = castTo[float64](arg)
		if err != nil {
			return nil, err
		}
	}
	var r float64
	switch op {
	case IntrinsicSin:
		r = math.Sin(fs[0])
	case IntrinsicCos:
		r = math.Cos(fs[0])
	case IntrinsicTan:
		r = math.Tan(fs[0])
	case IntrinsicExp:
		r = math.Exp(fs[0])
	case IntrinsicLog:
		r = math.Log(fs[0])
	case IntrinsicSqrt:
		r = math.Sqrt(fs[0])
	case IntrinsicRsqrt:
		r = 1 / math.Sqrt(fs[0])
	case IntrinsicAbs:
		r = math.Abs(fs[0])
	case IntrinsicFloor:
		r = math.Floor(fs[0])
	case IntrinsicCeil:
		r = math.Ceil(fs[0])
	case IntrinsicRound:
		r = math.Round(fs[0])
	case IntrinsicPow:
		r = math.Pow(fs[0], fs[1])
	default:
		return nil, errors.Wrapf(ErrMalformed, "cannot evaluate intrinsic %s", op)
	}
	return castImm(NewImm(r), dt)
}

// castImm converts an immediate to a kind, following Go conversion
// semantics: integer conversions wrap and float to integer conversions
// truncate towards zero.
func castImm(e Expr, dt dtype.DataType) (Expr, error) {
	switch dt {
	case dtype.Bool:
		f, err := castTo[float64](e)
		if err != nil {
			return nil, err
		}
		return NewImm(f != 0), nil
	case dtype.Int32:
		return castImmTo[int32](e)
	case dtype.Int64:
		return castImmTo[int64](e)
	case dtype.Uint32:
		return castImmTo[uint32](e)
	case dtype.Uint64:
		return castImmTo[uint64](e)
	case dtype.Float32:
		return castImmTo[float32](e)
	case dtype.Float64:
		return castImmTo[float64](e)
	case dtype.Bfloat16:
		f, err := castTo[float64](e)
		if err != nil {
			return nil, err
		}
		return NewImm(dtype.BFloat16FromFloat64(f)), nil
	}
	return nil, errors.Wrapf(ErrMalformed, "cannot cast %s to kind %s", e, kindName(dt))
}

func castImmTo[T dtype.AlgebraType](e Expr) (Expr, error) {
	v, err := castTo[T](e)
	if err != nil {
		return nil, err
	}
	return NewImm(v), nil
}

// castTo returns the value of an immediate converted to a Go type.
func castTo[T dtype.AlgebraType](e Expr) (T, error) {
	switch v := e.(type) {
	case *ImmT[bool]:
		if v.Val {
			return T(1), nil
		}
		return T(0), nil
	case *ImmT[int32]:
		return T(v.Val), nil
	case *ImmT[int64]:
		return T(v.Val), nil
	case *ImmT[uint32]:
		return T(v.Val), nil
	case *ImmT[uint64]:
		return T(v.Val), nil
	case *ImmT[float32]:
		return T(v.Val), nil
	case *ImmT[float64]:
		return T(v.Val), nil
	case *ImmT[dtype.Bfloat16T]:
		return T(v.Val.Float32()), nil
	}
	var zero T
	if e == nil {
		return zero, errors.Wrapf(ErrMalformed, "cannot convert a nil expression")
	}
	return zero, errors.Errorf("cannot convert %s: not an immediate", e)
}
