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

// Package simplify rewrites arithmetic expressions into a shorter canonical
// form while preserving their value.
//
// Simplification runs in two passes sharing one hasher. The first pass
// (Transformer) walks the tree bottom-up, folds constant subexpressions,
// and regroups additions and multiplications into Term and Polynomial
// nodes whose components are sorted by structural hash, so that terms
// over the same components combine and cancel regardless of the order
// they were written in. The second pass (Expander) lowers the groupings
// back to primitive operations, factorizing integer polynomials by the
// greatest common divisor of their scalars. The result contains no
// grouping node.
package simplify

import (
	"github.com/gx-org/texpr/ir"
	"github.com/pkg/errors"
)

// mutator rewrites expressions and statements bottom-up.
// A mutator returns its argument unchanged (not a copy) when
// nothing below it was rewritten.
type mutator interface {
	MutateExpr(ir.Expr) (ir.Expr, error)
	MutateStmt(ir.Stmt) (ir.Stmt, error)
}

// Simplify returns a canonical, usually shorter expression with the same
// value as e. The result contains no grouping node. The first malformed
// subexpression encountered aborts the rewrite.
func Simplify(e ir.Expr) (ir.Expr, error) {
	tr := NewTransformer()
	grouped, err := tr.MutateExpr(e)
	if err != nil {
		return nil, err
	}
	return NewExpander(tr).MutateExpr(grouped)
}

// SimplifyStmt simplifies every expression of a statement, recursing
// through nested blocks, loops and conditionals.
func SimplifyStmt(s ir.Stmt) (ir.Stmt, error) {
	tr := NewTransformer()
	grouped, err := tr.MutateStmt(s)
	if err != nil {
		return nil, err
	}
	return NewExpander(tr).MutateStmt(grouped)
}

// ----------------------------------------------------------------------------
// Walkers shared by both passes.

// mutateStmt rewrites the expressions of a statement with m, rebuilding
// the statement only when a child changed. Buffers referenced by loads and
// stores are kept as is so that their identity is preserved.
func mutateStmt(m mutator, s ir.Stmt) (ir.Stmt, error) {
	switch n := s.(type) {
	case *ir.Block:
		stmts := make([]ir.Stmt, len(n.Stmts))
		changed := false
		for i, st := range n.Stmts {
			ns, err := m.MutateStmt(st)
			if err != nil {
				return nil, err
			}
			stmts[i] = ns
			changed = changed || ns != st
		}
		if !changed {
			return n, nil
		}
		return &ir.Block{Stmts: stmts}, nil
	case *ir.Store:
		index, err := m.MutateExpr(n.Index)
		if err != nil {
			return nil, err
		}
		value, err := m.MutateExpr(n.Value)
		if err != nil {
			return nil, err
		}
		if index == n.Index && value == n.Value {
			return n, nil
		}
		return &ir.Store{B: n.B, Index: index, Value: value}, nil
	case *ir.For:
		start, err := m.MutateExpr(n.Start)
		if err != nil {
			return nil, err
		}
		stop, err := m.MutateExpr(n.Stop)
		if err != nil {
			return nil, err
		}
		body, err := m.MutateStmt(n.Body)
		if err != nil {
			return nil, err
		}
		if start == n.Start && stop == n.Stop && body == n.Body {
			return n, nil
		}
		return &ir.For{Var: n.Var, Start: start, Stop: stop, Body: body}, nil
	case *ir.Cond:
		cond, err := m.MutateExpr(n.Condition)
		if err != nil {
			return nil, err
		}
		then, err := m.MutateStmt(n.Then)
		if err != nil {
			return nil, err
		}
		var els ir.Stmt
		if n.Else != nil {
			els, err = m.MutateStmt(n.Else)
			if err != nil {
				return nil, err
			}
		}
		if cond == n.Condition && then == n.Then && els == n.Else {
			return n, nil
		}
		return &ir.Cond{Condition: cond, Then: then, Else: els}, nil
	case nil:
		return nil, errors.Wrapf(ir.ErrMalformed, "cannot rewrite a nil statement")
	default:
		return nil, errors.Wrapf(ir.ErrMalformed, "cannot rewrite statement %T", s)
	}
}

// mutateExprDefault rewrites the children of expressions neither pass
// treats specially. Variables and immediates come back unchanged.
func mutateExprDefault(m mutator, e ir.Expr) (ir.Expr, error) {
	switch n := e.(type) {
	case *ir.Broadcast:
		x, err := m.MutateExpr(n.X)
		if err != nil {
			return nil, err
		}
		if x == n.X {
			return n, nil
		}
		return ir.NewBroadcast(x, n.Lanes)
	case *ir.Ramp:
		base, err := m.MutateExpr(n.Base)
		if err != nil {
			return nil, err
		}
		stride, err := m.MutateExpr(n.Stride)
		if err != nil {
			return nil, err
		}
		if base == n.Base && stride == n.Stride {
			return n, nil
		}
		return ir.NewRamp(base, stride, n.Lanes)
	case *ir.Load:
		index, err := m.MutateExpr(n.Index)
		if err != nil {
			return nil, err
		}
		if index == n.Index {
			return n, nil
		}
		return ir.NewLoad(n.B, index)
	case nil:
		return nil, errors.Wrapf(ir.ErrMalformed, "cannot rewrite a nil expression")
	default:
		return e, nil
	}
}

// castConst folds a constant into the kind of d. Lane counts are left
// alone: immediates are lane-agnostic and adopt the lanes of their
// context.
func castConst(e ir.Expr, d ir.Dtype) (ir.Expr, error) {
	if e.Dtype().DType == d.DType {
		return e, nil
	}
	c, err := ir.NewCast(e, ir.Atomic(d.DType))
	if err != nil {
		return nil, err
	}
	return ir.EvalOp(c)
}
