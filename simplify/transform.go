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
	"slices"

	"github.com/gx-org/texpr/base/iter"
	"github.com/gx-org/texpr/base/ordered"
	"github.com/gx-org/texpr/ir"
)

// Transformer is the grouping pass of the simplifier. It rewrites
// additions into Polynomial nodes and multiplications into Term nodes,
// both keyed by the structural hash of their components, so that terms
// over the same components combine, cancel, or factor out no matter how
// the source expression associates them. Constant subexpressions fold
// as the walk goes up.
type Transformer struct {
	hasher *ir.Hasher
}

// NewTransformer returns a transformer with a fresh hasher.
func NewTransformer() *Transformer {
	return &Transformer{hasher: ir.NewHasher()}
}

// Hasher returns the hasher shared by the pass. The expander of the same
// simplification run uses it so that hashes stay comparable across passes.
func (t *Transformer) Hasher() *ir.Hasher { return t.hasher }

// MutateExpr rewrites an expression bottom-up. The result may be a
// grouping node; feed it to an Expander to lower it back to primitive
// operations.
func (t *Transformer) MutateExpr(e ir.Expr) (ir.Expr, error) {
	switch n := e.(type) {
	case *ir.BinaryExpr:
		switch n.Op {
		case ir.OpAdd:
			return t.mutateAdd(n)
		case ir.OpSub:
			return t.mutateSub(n)
		case ir.OpMul:
			return t.mutateMul(n)
		case ir.OpDiv:
			return t.mutateDiv(n)
		default:
			return t.mutateBinary(n)
		}
	case *ir.CastExpr:
		return t.mutateCast(n)
	case *ir.Intrinsic:
		return t.mutateIntrinsic(n)
	case *ir.Term:
		return t.mutateTerm(n)
	case *ir.Polynomial:
		return t.mutatePolynomial(n)
	case *ir.RoundOff:
		x, err := t.MutateExpr(n.X)
		if err != nil {
			return nil, err
		}
		y, err := t.MutateExpr(n.Y)
		if err != nil {
			return nil, err
		}
		if x == n.X && y == n.Y {
			return n, nil
		}
		return ir.NewRoundOff(x, y)
	default:
		return mutateExprDefault(t, e)
	}
}

// MutateStmt rewrites every expression of a statement.
func (t *Transformer) MutateStmt(s ir.Stmt) (ir.Stmt, error) {
	return mutateStmt(t, s)
}

// ----------------------------------------------------------------------------
// Additions.

// mutateAdd groups an addition. Both sides are first rewritten, then
// combined according to their shape: polynomials merge term by term,
// terms over the same components fold their scalars, and anything else
// becomes a term with scalar one inside a fresh polynomial.
func (t *Transformer) mutateAdd(n *ir.BinaryExpr) (ir.Expr, error) {
	x, err := t.MutateExpr(n.X)
	if err != nil {
		return nil, err
	}
	y, err := t.MutateExpr(n.Y)
	if err != nil {
		return nil, err
	}
	if x.IsConstant() && y.IsConstant() {
		return foldBinary(n, x, y)
	}
	lp, _ := x.(*ir.Polynomial)
	rp, _ := y.(*ir.Polynomial)
	lt, _ := x.(*ir.Term)
	rt, _ := y.(*ir.Term)
	switch {
	case lp != nil && rp != nil:
		return t.addPolynomials(n.Typ, lp, rp)
	case lp != nil && rt != nil:
		return t.insertTerm(n.Typ, lp, rt)
	case rp != nil && lt != nil:
		return t.insertTerm(n.Typ, rp, lt)
	case lt != nil && rt != nil:
		return t.addTerms(n.Typ, lt, rt)
	}
	// Addition commutes: one side grouped, the other scalar or plain.
	if poly, other := pickGroup(lp, rp, x, y); poly != nil {
		if other.IsConstant() {
			scalar, err := ir.AddImm(poly.Scalar, other)
			if err != nil {
				return nil, err
			}
			return ir.NewPolynomial(t.hasher, scalar, poly.Terms...)
		}
		term, err := t.termOf(other)
		if err != nil {
			return nil, err
		}
		return t.insertTerm(n.Typ, poly, term)
	}
	if term, other := pickGroup(lt, rt, x, y); term != nil {
		if other.IsConstant() {
			return ir.NewPolynomial(t.hasher, other, term)
		}
		o, err := t.termOf(other)
		if err != nil {
			return nil, err
		}
		return t.addTerms(n.Typ, term, o)
	}
	// Neither side grouped.
	if x.IsConstant() || y.IsConstant() {
		scalar, plain := x, y
		if y.IsConstant() {
			scalar, plain = y, x
		}
		term, err := t.termOf(plain)
		if err != nil {
			return nil, err
		}
		return ir.NewPolynomial(t.hasher, scalar, term)
	}
	if t.hasher.Hash(x) == t.hasher.Hash(y) {
		two, err := ir.ImmOfInt(n.Typ, 2)
		if err != nil {
			return nil, err
		}
		return ir.NewTerm(t.hasher, two, x)
	}
	tx, err := t.termOf(x)
	if err != nil {
		return nil, err
	}
	ty, err := t.termOf(y)
	if err != nil {
		return nil, err
	}
	return t.addTerms(n.Typ, tx, ty)
}

// addTerms adds two terms. Terms over the same components fold their
// scalars, collapsing to a zero of d when they cancel; otherwise the two
// terms seed a polynomial with no scalar.
func (t *Transformer) addTerms(d ir.Dtype, a, b *ir.Term) (ir.Expr, error) {
	if a.HashVars() == b.HashVars() {
		scalar, err := ir.AddImm(a.Scalar, b.Scalar)
		if err != nil {
			return nil, err
		}
		if ir.ImmEquals(scalar, 0) {
			return ir.ZeroOf(d)
		}
		return ir.NewTerm(t.hasher, scalar, a.Vars...)
	}
	return ir.NewPolynomialFromTerms(t.hasher, a, b)
}

// addOrUpdateTerm inserts a term into a map keyed by component hash.
// A term already present for the same components folds its scalar with
// the incoming one; the entry is dropped when the fold reaches zero.
func (t *Transformer) addOrUpdateTerm(m *ordered.Map[ir.Hash, *ir.Term], term *ir.Term) error {
	key := term.HashVars()
	prev, ok := m.Load(key)
	if !ok {
		m.Store(key, term)
		return nil
	}
	scalar, err := ir.AddImm(prev.Scalar, term.Scalar)
	if err != nil {
		return err
	}
	if ir.ImmEquals(scalar, 0) {
		m.Delete(key)
		return nil
	}
	merged, err := ir.NewTerm(t.hasher, scalar, prev.Vars...)
	if err != nil {
		return err
	}
	m.Store(key, merged)
	return nil
}

// addPolynomials merges the terms of two polynomials and folds their
// scalars. A merge where every term cancelled degenerates to the bare
// scalar constant.
func (t *Transformer) addPolynomials(d ir.Dtype, a, b *ir.Polynomial) (ir.Expr, error) {
	m := ordered.NewMap[ir.Hash, *ir.Term]()
	for _, term := range a.Terms {
		if err := t.addOrUpdateTerm(m, term); err != nil {
			return nil, err
		}
	}
	for _, term := range b.Terms {
		if err := t.addOrUpdateTerm(m, term); err != nil {
			return nil, err
		}
	}
	scalar, err := ir.AddImm(a.Scalar, b.Scalar)
	if err != nil {
		return nil, err
	}
	if m.Empty() {
		return castConst(scalar, d)
	}
	return ir.NewPolynomial(t.hasher, scalar, slices.Collect(m.Values())...)
}

// insertTerm adds a single term into a polynomial.
func (t *Transformer) insertTerm(d ir.Dtype, p *ir.Polynomial, term *ir.Term) (ir.Expr, error) {
	m := ordered.NewMap[ir.Hash, *ir.Term]()
	for _, pt := range p.Terms {
		if err := t.addOrUpdateTerm(m, pt); err != nil {
			return nil, err
		}
	}
	if err := t.addOrUpdateTerm(m, term); err != nil {
		return nil, err
	}
	if m.Empty() {
		return castConst(p.Scalar, d)
	}
	return ir.NewPolynomial(t.hasher, p.Scalar, slices.Collect(m.Values())...)
}

// ----------------------------------------------------------------------------
// Subtractions.

// mutateSub groups a subtraction by negating the scalars of the right
// hand side and reusing the addition paths. Subtracting zero reduces to
// a cast of the left hand side.
func (t *Transformer) mutateSub(n *ir.BinaryExpr) (ir.Expr, error) {
	x, err := t.MutateExpr(n.X)
	if err != nil {
		return nil, err
	}
	y, err := t.MutateExpr(n.Y)
	if err != nil {
		return nil, err
	}
	if x.IsConstant() && y.IsConstant() {
		return foldBinary(n, x, y)
	}
	if y.IsConstant() && ir.ImmEquals(y, 0) {
		c, err := ir.NewCast(x, n.Typ)
		if err != nil {
			return nil, err
		}
		return t.MutateExpr(c)
	}
	lp, _ := x.(*ir.Polynomial)
	rp, _ := y.(*ir.Polynomial)
	lt, _ := x.(*ir.Term)
	rt, _ := y.(*ir.Term)
	switch {
	case lp != nil && rp != nil:
		return t.subPolynomials(n.Typ, lp, rp)
	case lp != nil && rt != nil:
		neg, err := t.negateTerm(rt)
		if err != nil {
			return nil, err
		}
		return t.insertTerm(n.Typ, lp, neg)
	case lt != nil && rp != nil:
		np, err := t.negatePolynomial(rp)
		if err != nil {
			return nil, err
		}
		return t.insertTerm(n.Typ, np, lt)
	case lt != nil && rt != nil:
		return t.subTerms(n.Typ, lt, rt)
	}
	if lp != nil {
		if y.IsConstant() {
			neg, err := ir.NegImm(y)
			if err != nil {
				return nil, err
			}
			scalar, err := ir.AddImm(lp.Scalar, neg)
			if err != nil {
				return nil, err
			}
			return ir.NewPolynomial(t.hasher, scalar, lp.Terms...)
		}
		neg, err := t.negTermOf(y)
		if err != nil {
			return nil, err
		}
		return t.insertTerm(n.Typ, lp, neg)
	}
	if rp != nil {
		np, err := t.negatePolynomial(rp)
		if err != nil {
			return nil, err
		}
		if x.IsConstant() {
			scalar, err := ir.AddImm(np.Scalar, x)
			if err != nil {
				return nil, err
			}
			return ir.NewPolynomial(t.hasher, scalar, np.Terms...)
		}
		term, err := t.termOf(x)
		if err != nil {
			return nil, err
		}
		return t.insertTerm(n.Typ, np, term)
	}
	if lt != nil {
		if y.IsConstant() {
			neg, err := ir.NegImm(y)
			if err != nil {
				return nil, err
			}
			return ir.NewPolynomial(t.hasher, neg, lt)
		}
		term, err := t.termOf(y)
		if err != nil {
			return nil, err
		}
		return t.subTerms(n.Typ, lt, term)
	}
	if rt != nil {
		if x.IsConstant() {
			neg, err := t.negateTerm(rt)
			if err != nil {
				return nil, err
			}
			return ir.NewPolynomial(t.hasher, x, neg)
		}
		term, err := t.termOf(x)
		if err != nil {
			return nil, err
		}
		return t.subTerms(n.Typ, term, rt)
	}
	// Neither side grouped.
	if !x.IsConstant() && !y.IsConstant() && t.hasher.Hash(x) == t.hasher.Hash(y) {
		return ir.ZeroOf(n.Typ)
	}
	if x.IsConstant() {
		neg, err := t.negTermOf(y)
		if err != nil {
			return nil, err
		}
		return ir.NewPolynomial(t.hasher, x, neg)
	}
	if y.IsConstant() {
		neg, err := ir.NegImm(y)
		if err != nil {
			return nil, err
		}
		term, err := t.termOf(x)
		if err != nil {
			return nil, err
		}
		return ir.NewPolynomial(t.hasher, neg, term)
	}
	tx, err := t.termOf(x)
	if err != nil {
		return nil, err
	}
	ty, err := t.termOf(y)
	if err != nil {
		return nil, err
	}
	return t.subTerms(n.Typ, tx, ty)
}

// subTerms subtracts b from a by negating the scalar of b and adding.
func (t *Transformer) subTerms(d ir.Dtype, a, b *ir.Term) (ir.Expr, error) {
	neg, err := t.negateTerm(b)
	if err != nil {
		return nil, err
	}
	return t.addTerms(d, a, neg)
}

// subPolynomials subtracts b from a by negating every scalar of b and
// merging as an addition.
func (t *Transformer) subPolynomials(d ir.Dtype, a, b *ir.Polynomial) (ir.Expr, error) {
	nb, err := t.negatePolynomial(b)
	if err != nil {
		return nil, err
	}
	return t.addPolynomials(d, a, nb)
}

// ----------------------------------------------------------------------------
// Multiplications.

// mutateMul groups a multiplication. A product by one reduces to a cast,
// a product matching the rounding pattern (x/y)*y is preserved as a
// RoundOff node, and a product by zero folds for integer operands only,
// since a floating point zero product must keep NaN and infinity intact.
// Grouped operands distribute term by term.
func (t *Transformer) mutateMul(n *ir.BinaryExpr) (ir.Expr, error) {
	x, err := t.MutateExpr(n.X)
	if err != nil {
		return nil, err
	}
	y, err := t.MutateExpr(n.Y)
	if err != nil {
		return nil, err
	}
	if x.IsConstant() && y.IsConstant() {
		return foldBinary(n, x, y)
	}
	var scalar, variable ir.Expr
	if x.IsConstant() {
		scalar, variable = x, y
	} else if y.IsConstant() {
		scalar, variable = y, x
	}
	// Multiplying by one is exact even for NaN and infinity.
	if scalar != nil && ir.ImmEquals(scalar, 1) {
		c, err := ir.NewCast(variable, n.Typ)
		if err != nil {
			return nil, err
		}
		return t.MutateExpr(c)
	}
	if ro, err := t.isRoundOff(x, y); err != nil || ro != nil {
		return ro, err
	}
	if scalar != nil && ir.ImmEquals(scalar, 0) {
		if n.Typ.IsInteger() {
			return ir.ZeroOf(n.Typ)
		}
		return rebuildBinary(n, x, y)
	}
	lp, _ := x.(*ir.Polynomial)
	rp, _ := y.(*ir.Polynomial)
	lt, _ := x.(*ir.Term)
	rt, _ := y.(*ir.Term)
	switch {
	case lp != nil && rp != nil:
		return t.mulPolynomials(n.Typ, lp, rp)
	case lp != nil && rt != nil:
		return t.polyByTerm(n.Typ, lp, rt)
	case rp != nil && lt != nil:
		return t.polyByTerm(n.Typ, rp, lt)
	case lt != nil && rt != nil:
		return t.mulTermPair(n.Typ, lt, rt)
	}
	// Multiplication commutes: one side grouped, the other scalar or
	// plain.
	if poly, other := pickGroup(lp, rp, x, y); poly != nil {
		if other.IsConstant() {
			return t.scalePolynomial(n.Typ, poly, other)
		}
		term, err := t.termOf(other)
		if err != nil {
			return nil, err
		}
		return t.polyByTerm(n.Typ, poly, term)
	}
	if term, other := pickGroup(lt, rt, x, y); term != nil {
		if other.IsConstant() {
			scaled, err := ir.MulImm(term.Scalar, other)
			if err != nil {
				return nil, err
			}
			return ir.NewTerm(t.hasher, scaled, term.Vars...)
		}
		o, err := t.termOf(other)
		if err != nil {
			return nil, err
		}
		return t.mulTermPair(n.Typ, term, o)
	}
	// Neither side grouped.
	if scalar != nil {
		return ir.NewTerm(t.hasher, scalar, variable)
	}
	one, err := ir.ImmOfInt(n.Typ, 1)
	if err != nil {
		return nil, err
	}
	return ir.NewTerm(t.hasher, one, x, y)
}

// isRoundOff recognizes the product of a division by its own divisor,
// which rounds x down to a multiple of y for integers and must not be
// distributed like an ordinary multiplication. A divisor held in a term
// with scalar one unwraps to its single component first. When the
// divisor and the other factor are both constant with a common factor,
// the quotient of the two scales the rounding pattern instead. Returns
// nil when the product is not a rounding pattern.
func (t *Transformer) isRoundOff(x, y ir.Expr) (ir.Expr, error) {
	var div *ir.BinaryExpr
	var other ir.Expr
	if b, ok := x.(*ir.BinaryExpr); ok && b.Op == ir.OpDiv {
		div, other = b, y
	} else if b, ok := y.(*ir.BinaryExpr); ok && b.Op == ir.OpDiv {
		div, other = b, x
	} else {
		return nil, nil
	}
	denom := div.Y
	if term, ok := denom.(*ir.Term); ok && ir.ImmEquals(term.Scalar, 1) && len(term.Vars) == 1 {
		denom = term.Vars[0]
	}
	if t.hasher.Hash(denom) == t.hasher.Hash(other) {
		return ir.NewRoundOff(div.X, div.Y)
	}
	if !denom.IsConstant() || !other.IsConstant() {
		return nil, nil
	}
	if !denom.Dtype().IsInteger() || !other.Dtype().IsInteger() {
		return nil, nil
	}
	if ir.ImmEquals(denom, 0) {
		return nil, nil
	}
	mod, err := ir.NewBinary(ir.OpMod, other, denom)
	if err != nil {
		return nil, nil
	}
	rem, err := ir.EvalOp(mod)
	if err != nil {
		return nil, err
	}
	if !ir.ImmEquals(rem, 0) {
		return nil, nil
	}
	quot, err := ir.NewDiv(other, denom)
	if err != nil {
		return nil, err
	}
	q, err := ir.EvalOp(quot)
	if err != nil {
		return nil, err
	}
	ro, err := ir.NewRoundOff(div.X, div.Y)
	if err != nil {
		return nil, err
	}
	return ir.NewTerm(t.hasher, q, ro)
}

// mulTerms multiplies two terms: scalars fold, components concatenate
// and resort. Returns nil when the product scalar folds to zero.
func (t *Transformer) mulTerms(a, b *ir.Term) (*ir.Term, error) {
	scalar, err := ir.MulImm(a.Scalar, b.Scalar)
	if err != nil {
		return nil, err
	}
	if ir.ImmEquals(scalar, 0) {
		return nil, nil
	}
	vars := slices.Collect(iter.All(a.Vars, b.Vars))
	return ir.NewTerm(t.hasher, scalar, vars...)
}

// mulTermPair multiplies two terms, collapsing to a zero of d when the
// scalar product vanishes.
func (t *Transformer) mulTermPair(d ir.Dtype, a, b *ir.Term) (ir.Expr, error) {
	prod, err := t.mulTerms(a, b)
	if err != nil {
		return nil, err
	}
	if prod == nil {
		return ir.ZeroOf(d)
	}
	return prod, nil
}

// polyByTerm distributes a term over a polynomial: every polynomial term
// multiplies by it, and a non-zero polynomial scalar becomes one more
// term over the multiplier's components.
func (t *Transformer) polyByTerm(d ir.Dtype, p *ir.Polynomial, term *ir.Term) (ir.Expr, error) {
	m := ordered.NewMap[ir.Hash, *ir.Term]()
	for _, pt := range p.Terms {
		nt, err := t.mulTerms(pt, term)
		if err != nil {
			return nil, err
		}
		if nt == nil {
			continue
		}
		if err := t.addOrUpdateTerm(m, nt); err != nil {
			return nil, err
		}
	}
	if !ir.ImmEquals(p.Scalar, 0) {
		scalar, err := ir.MulImm(p.Scalar, term.Scalar)
		if err != nil {
			return nil, err
		}
		st, err := ir.NewTerm(t.hasher, scalar, term.Vars...)
		if err != nil {
			return nil, err
		}
		if err := t.addOrUpdateTerm(m, st); err != nil {
			return nil, err
		}
	}
	if m.Empty() {
		return ir.ZeroOf(d)
	}
	return ir.NewPolynomialFromTerms(t.hasher, slices.Collect(m.Values())...)
}

// mulPolynomials distributes two polynomials: every pair of terms
// multiplies, each scalar distributes over the other side's terms, and
// the two scalars fold into the scalar of the product.
func (t *Transformer) mulPolynomials(d ir.Dtype, a, b *ir.Polynomial) (ir.Expr, error) {
	m := ordered.NewMap[ir.Hash, *ir.Term]()
	for _, at := range a.Terms {
		for _, bt := range b.Terms {
			nt, err := t.mulTerms(at, bt)
			if err != nil {
				return nil, err
			}
			if nt == nil {
				continue
			}
			if err := t.addOrUpdateTerm(m, nt); err != nil {
				return nil, err
			}
		}
	}
	if err := t.scaleTermsInto(m, b.Terms, a.Scalar); err != nil {
		return nil, err
	}
	if err := t.scaleTermsInto(m, a.Terms, b.Scalar); err != nil {
		return nil, err
	}
	scalar, err := ir.MulImm(a.Scalar, b.Scalar)
	if err != nil {
		return nil, err
	}
	if m.Empty() {
		return castConst(scalar, d)
	}
	return ir.NewPolynomial(t.hasher, scalar, slices.Collect(m.Values())...)
}

// scaleTermsInto multiplies every term by a constant and merges the
// results into m. A zero constant contributes nothing.
func (t *Transformer) scaleTermsInto(m *ordered.Map[ir.Hash, *ir.Term], terms []*ir.Term, c ir.Expr) error {
	if ir.ImmEquals(c, 0) {
		return nil
	}
	for _, term := range terms {
		scalar, err := ir.MulImm(term.Scalar, c)
		if err != nil {
			return err
		}
		if ir.ImmEquals(scalar, 0) {
			continue
		}
		nt, err := ir.NewTerm(t.hasher, scalar, term.Vars...)
		if err != nil {
			return err
		}
		if err := t.addOrUpdateTerm(m, nt); err != nil {
			return err
		}
	}
	return nil
}

// scalePolynomial multiplies a polynomial by a constant.
func (t *Transformer) scalePolynomial(d ir.Dtype, p *ir.Polynomial, c ir.Expr) (ir.Expr, error) {
	m := ordered.NewMap[ir.Hash, *ir.Term]()
	if err := t.scaleTermsInto(m, p.Terms, c); err != nil {
		return nil, err
	}
	scalar, err := ir.MulImm(p.Scalar, c)
	if err != nil {
		return nil, err
	}
	if m.Empty() {
		return castConst(scalar, d)
	}
	return ir.NewPolynomial(t.hasher, scalar, slices.Collect(m.Values())...)
}

// ----------------------------------------------------------------------------
// Divisions.

// mutateDiv folds constant divisions, letting a division by zero
// surface as an error. A division by one reduces to a cast, and an
// integer term whose scalar divides exactly by a constant divisor
// rescales in place. Anything else rebuilds untouched: integer division
// does not distribute.
func (t *Transformer) mutateDiv(n *ir.BinaryExpr) (ir.Expr, error) {
	x, err := t.MutateExpr(n.X)
	if err != nil {
		return nil, err
	}
	y, err := t.MutateExpr(n.Y)
	if err != nil {
		return nil, err
	}
	if x.IsConstant() && y.IsConstant() {
		return foldBinary(n, x, y)
	}
	if y.IsConstant() && ir.ImmEquals(y, 1) {
		c, err := ir.NewCast(x, n.Typ)
		if err != nil {
			return nil, err
		}
		return t.MutateExpr(c)
	}
	if term, ok := x.(*ir.Term); ok && y.IsConstant() && n.Typ.IsInteger() {
		s, sok := ir.ImmInt64(term.Scalar)
		c, cok := ir.ImmInt64(y)
		if sok && cok && c != 0 && s%c == 0 {
			q, err := ir.ImmOfInt(n.Typ, s/c)
			if err != nil {
				return nil, err
			}
			return ir.NewTerm(t.hasher, q, term.Vars...)
		}
	}
	return rebuildBinary(n, x, y)
}

// ----------------------------------------------------------------------------
// Remaining expressions.

// mutateBinary rewrites the operands of an operation the pass does not
// regroup, folding the node when both collapse to constants.
func (t *Transformer) mutateBinary(n *ir.BinaryExpr) (ir.Expr, error) {
	x, err := t.MutateExpr(n.X)
	if err != nil {
		return nil, err
	}
	y, err := t.MutateExpr(n.Y)
	if err != nil {
		return nil, err
	}
	if x.IsConstant() && y.IsConstant() {
		return foldBinary(n, x, y)
	}
	return rebuildBinary(n, x, y)
}

// mutateCast folds casts of constants and drops casts to the type the
// operand already has.
func (t *Transformer) mutateCast(n *ir.CastExpr) (ir.Expr, error) {
	x, err := t.MutateExpr(n.X)
	if err != nil {
		return nil, err
	}
	if x.IsConstant() {
		node := n
		if x != n.X {
			node, err = ir.NewCast(x, n.Typ)
			if err != nil {
				return nil, err
			}
		}
		return ir.EvalOp(node)
	}
	if x.Dtype() == n.Typ {
		return x, nil
	}
	if x == n.X {
		return n, nil
	}
	return ir.NewCast(x, n.Typ)
}

// mutateIntrinsic rewrites the arguments of an intrinsic call and folds
// the call when they all collapse to constants.
func (t *Transformer) mutateIntrinsic(n *ir.Intrinsic) (ir.Expr, error) {
	args := make([]ir.Expr, len(n.Args))
	changed := false
	allConst := true
	for i, a := range n.Args {
		na, err := t.MutateExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = na
		changed = changed || na != a
		allConst = allConst && na.IsConstant()
	}
	node := n
	if changed {
		var err error
		node, err = ir.NewIntrinsic(n.Op, args...)
		if err != nil {
			return nil, err
		}
	}
	if !allConst {
		return node, nil
	}
	return ir.EvalOp(node)
}

// mutateTerm rewrites the components of a term already present in the
// input, so that a partially grouped tree can be fed back in.
func (t *Transformer) mutateTerm(n *ir.Term) (*ir.Term, error) {
	scalar, err := t.MutateExpr(n.Scalar)
	if err != nil {
		return nil, err
	}
	vars := make([]ir.Expr, len(n.Vars))
	changed := scalar != n.Scalar
	for i, v := range n.Vars {
		nv, err := t.MutateExpr(v)
		if err != nil {
			return nil, err
		}
		vars[i] = nv
		changed = changed || nv != v
	}
	if !changed {
		return n, nil
	}
	return ir.NewTerm(t.hasher, scalar, vars...)
}

// mutatePolynomial rewrites the terms of a polynomial already present in
// the input.
func (t *Transformer) mutatePolynomial(n *ir.Polynomial) (ir.Expr, error) {
	scalar, err := t.MutateExpr(n.Scalar)
	if err != nil {
		return nil, err
	}
	changed := scalar != n.Scalar
	terms := make([]*ir.Term, len(n.Terms))
	for i, term := range n.Terms {
		nt, err := t.mutateTerm(term)
		if err != nil {
			return nil, err
		}
		terms[i] = nt
		changed = changed || nt != term
	}
	if !changed {
		return n, nil
	}
	return ir.NewPolynomial(t.hasher, scalar, terms...)
}

// ----------------------------------------------------------------------------
// Helpers.

// termOf returns e as a term, wrapping a plain expression as a term with
// scalar one.
func (t *Transformer) termOf(e ir.Expr) (*ir.Term, error) {
	if term, ok := e.(*ir.Term); ok {
		return term, nil
	}
	one, err := ir.ImmOfInt(e.Dtype(), 1)
	if err != nil {
		return nil, err
	}
	return ir.NewTerm(t.hasher, one, e)
}

// negTermOf returns e as a term with scalar minus one.
func (t *Transformer) negTermOf(e ir.Expr) (*ir.Term, error) {
	term, err := t.termOf(e)
	if err != nil {
		return nil, err
	}
	return t.negateTerm(term)
}

// negateTerm negates the scalar of a term. Unsigned scalars wrap.
func (t *Transformer) negateTerm(a *ir.Term) (*ir.Term, error) {
	scalar, err := ir.NegImm(a.Scalar)
	if err != nil {
		return nil, err
	}
	return ir.NewTerm(t.hasher, scalar, a.Vars...)
}

// negatePolynomial negates the scalar of a polynomial and of each of its
// terms.
func (t *Transformer) negatePolynomial(p *ir.Polynomial) (*ir.Polynomial, error) {
	scalar, err := ir.NegImm(p.Scalar)
	if err != nil {
		return nil, err
	}
	terms := make([]*ir.Term, len(p.Terms))
	for i, term := range p.Terms {
		terms[i], err = t.negateTerm(term)
		if err != nil {
			return nil, err
		}
	}
	return ir.NewPolynomial(t.hasher, scalar, terms...)
}

// pickGroup returns whichever of a, b is non-nil along with the opposite
// operand, for binary operations where grouping commutes.
func pickGroup[T any](a, b *T, x, y ir.Expr) (*T, ir.Expr) {
	if a != nil {
		return a, y
	}
	if b != nil {
		return b, x
	}
	return nil, nil
}

// foldBinary evaluates an operation whose operands are both constant,
// rebuilding the node first when an operand was rewritten.
func foldBinary(n *ir.BinaryExpr, x, y ir.Expr) (ir.Expr, error) {
	node := n
	if x != n.X || y != n.Y {
		var err error
		node, err = ir.NewBinaryNaNs(n.Op, x, y, n.PropagateNaNs)
		if err != nil {
			return nil, err
		}
	}
	return ir.EvalOp(node)
}

// rebuildBinary returns n unchanged when neither operand was rewritten,
// and a fresh node over the rewritten operands otherwise.
func rebuildBinary(n *ir.BinaryExpr, x, y ir.Expr) (ir.Expr, error) {
	if x == n.X && y == n.Y {
		return n, nil
	}
	return ir.NewBinaryNaNs(n.Op, x, y, n.PropagateNaNs)
}
