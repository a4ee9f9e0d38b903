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

package simplify

import (
	"math"
	"slices"

	"github.com/gx-org/texpr/base/iter"
	"github.com/gx-org/texpr/ir"
)

// Expander is the lowering pass of the simplifier. It expands the
// grouping nodes a Transformer produced back into primitive additions
// and multiplications, factorizing integer polynomials by the greatest
// common divisor of their scalars on the way. Expanded trees contain no
// grouping node.
type Expander struct {
	tr *Transformer
}

// NewExpander returns an expander lowering the groupings of tr. Both
// passes share the transformer's hasher so that component hashes remain
// comparable.
func NewExpander(tr *Transformer) *Expander {
	return &Expander{tr: tr}
}

func (e *Expander) hasher() *ir.Hasher { return e.tr.Hasher() }

// MutateExpr lowers every grouping node of an expression.
func (e *Expander) MutateExpr(x ir.Expr) (ir.Expr, error) {
	switch n := x.(type) {
	case *ir.Term:
		return e.mutateTerm(n)
	case *ir.Polynomial:
		return e.mutatePolynomial(n)
	case *ir.RoundOff:
		return e.mutateRoundOff(n)
	case *ir.BinaryExpr:
		xx, err := e.MutateExpr(n.X)
		if err != nil {
			return nil, err
		}
		yy, err := e.MutateExpr(n.Y)
		if err != nil {
			return nil, err
		}
		return rebuildBinary(n, xx, yy)
	case *ir.CastExpr:
		xx, err := e.MutateExpr(n.X)
		if err != nil {
			return nil, err
		}
		if xx == n.X {
			return n, nil
		}
		return ir.NewCast(xx, n.Typ)
	case *ir.Intrinsic:
		args := make([]ir.Expr, len(n.Args))
		changed := false
		for i, a := range n.Args {
			na, err := e.MutateExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = na
			changed = changed || na != a
		}
		if !changed {
			return n, nil
		}
		return ir.NewIntrinsic(n.Op, args...)
	default:
		return mutateExprDefault(e, x)
	}
}

// MutateStmt lowers every grouping node of a statement.
func (e *Expander) MutateStmt(s ir.Stmt) (ir.Stmt, error) {
	return mutateStmt(e, s)
}

// mutateTerm expands a term into a chain of multiplications with the
// scalar as the leftmost factor. A scalar of one is elided, and a scalar
// of zero collapses the term.
func (e *Expander) mutateTerm(n *ir.Term) (ir.Expr, error) {
	scalar, err := e.MutateExpr(n.Scalar)
	if err != nil {
		return nil, err
	}
	if ir.ImmEquals(scalar, 0) {
		return castConst(scalar, n.Typ)
	}
	var acc ir.Expr
	for _, v := range n.Vars {
		nv, err := e.MutateExpr(v)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = nv
			continue
		}
		acc, err = ir.NewMul(acc, nv)
		if err != nil {
			return nil, err
		}
	}
	if acc == nil {
		return castConst(scalar, n.Typ)
	}
	if ir.ImmEquals(scalar, 1) {
		return acc, nil
	}
	return ir.NewMul(scalar, acc)
}

// termPositive reports whether a term expands on the additive side of a
// polynomial. Zero-scalar terms expand on neither side.
func termPositive(t *ir.Term) bool {
	return !ir.ImmIsNegative(t.Scalar) && !ir.ImmEquals(t.Scalar, 0)
}

func termNegative(t *ir.Term) bool { return ir.ImmIsNegative(t.Scalar) }

// mutatePolynomial expands a polynomial into a chain of additions.
// Terms with a negative scalar are subtracted rather than added, and the
// scalar comes last, or first when there is no positive term, as in
// 1 - x. A zero scalar is elided. Integer polynomials factorize by their
// common divisor before expanding.
func (e *Expander) mutatePolynomial(p *ir.Polynomial) (ir.Expr, error) {
	if factored, err := e.factorizePolynomial(p); err != nil || factored != nil {
		return factored, err
	}
	adds := slices.Collect(iter.Filter(termPositive, p.Terms))
	subs := slices.Collect(iter.Filter(termNegative, p.Terms))
	var acc ir.Expr
	for _, t := range adds {
		x, err := e.mutateTerm(t)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = x
			continue
		}
		acc, err = ir.NewAdd(acc, x)
		if err != nil {
			return nil, err
		}
	}
	scalarWritten := false
	if acc == nil && !ir.ImmEquals(p.Scalar, 0) {
		acc = p.Scalar
		scalarWritten = true
	}
	for _, t := range subs {
		if acc == nil {
			// Nothing to subtract from: the term leads with its
			// negative scalar.
			x, err := e.mutateTerm(t)
			if err != nil {
				return nil, err
			}
			acc = x
			continue
		}
		neg, err := e.tr.negateTerm(t)
		if err != nil {
			return nil, err
		}
		x, err := e.mutateTerm(neg)
		if err != nil {
			return nil, err
		}
		acc, err = ir.NewSub(acc, x)
		if err != nil {
			return nil, err
		}
	}
	if acc == nil {
		return castConst(p.Scalar, p.Typ)
	}
	if scalarWritten || ir.ImmEquals(p.Scalar, 0) {
		return acc, nil
	}
	if ir.ImmIsNegative(p.Scalar) {
		mag, err := ir.NegImm(p.Scalar)
		if err != nil {
			return nil, err
		}
		return ir.NewSub(acc, mag)
	}
	return ir.NewAdd(acc, p.Scalar)
}

// mutateRoundOff lowers the rounding pattern back to (x/y)*y.
func (e *Expander) mutateRoundOff(n *ir.RoundOff) (ir.Expr, error) {
	x, err := e.MutateExpr(n.X)
	if err != nil {
		return nil, err
	}
	y, err := e.MutateExpr(n.Y)
	if err != nil {
		return nil, err
	}
	div, err := ir.NewDiv(x, y)
	if err != nil {
		return nil, err
	}
	return ir.NewMul(div, y)
}

// factorizePolynomial divides an integer polynomial by the greatest
// common divisor of its scalars and expands the result as a product,
// turning 6x + 9 into 3 * (2x + 3). Returns nil when there is no common
// factor above one, when a scalar does not fit a signed 64 bit value, or
// when the divisor does not round-trip through the polynomial's kind.
// Floating point polynomials never factorize.
func (e *Expander) factorizePolynomial(p *ir.Polynomial) (ir.Expr, error) {
	if !p.Typ.IsInteger() {
		return nil, nil
	}
	s, ok := ir.ImmInt64(p.Scalar)
	if !ok || s == math.MinInt64 {
		return nil, nil
	}
	div := abs64(s)
	for _, t := range p.Terms {
		ts, ok := ir.ImmInt64(t.Scalar)
		if !ok || ts == math.MinInt64 {
			return nil, nil
		}
		div = gcd64(div, abs64(ts))
	}
	if div <= 1 {
		return nil, nil
	}
	common, err := ir.ImmOfInt(p.Typ, div)
	if err != nil {
		return nil, err
	}
	if got, ok := ir.ImmInt64(common); !ok || got != div {
		return nil, nil
	}
	terms := make([]*ir.Term, len(p.Terms))
	for i, t := range p.Terms {
		ts, _ := ir.ImmInt64(t.Scalar)
		scalar, err := ir.ImmOfInt(t.Scalar.Dtype(), ts/div)
		if err != nil {
			return nil, err
		}
		terms[i], err = ir.NewTerm(e.hasher(), scalar, t.Vars...)
		if err != nil {
			return nil, err
		}
	}
	scalar, err := ir.ImmOfInt(p.Scalar.Dtype(), s/div)
	if err != nil {
		return nil, err
	}
	factored, err := ir.NewPolynomial(e.hasher(), scalar, terms...)
	if err != nil {
		return nil, err
	}
	term, err := ir.NewTerm(e.hasher(), common, factored)
	if err != nil {
		return nil, err
	}
	return e.mutateTerm(term)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func gcd64(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
