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
	"sort"

	"github.com/pkg/errors"
)

// ----------------------------------------------------------------------------
// Grouping nodes built by the simplifier.
type (
	// Term groups expressions through multiplication:
	// the product of a constant scalar with non-constant components.
	// Components are sorted by structural hash to normalize their order.
	Term struct {
		Scalar Expr
		Vars   []Expr
		Typ    Dtype

		hashVars Hash
	}

	// Polynomial groups Terms through addition:
	// the sum of a constant scalar with Terms.
	// Terms are sorted by structural hash to normalize their order.
	Polynomial struct {
		Scalar Expr
		Terms  []*Term
		Typ    Dtype
	}

	// RoundOff marks a detected (x/y)*y rounding pattern so that the
	// product is not distributed like an ordinary multiplication.
	RoundOff struct {
		X, Y Expr
		Typ  Dtype
	}
)

var (
	_ Expr = (*Term)(nil)
	_ Expr = (*Polynomial)(nil)
	_ Expr = (*RoundOff)(nil)
)

// groupDtype returns the type of a grouping of a constant scalar with
// components. The scalar is lane-agnostic: its kind adopts the lane count
// of the first component before promotion across all components.
func groupDtype(scalar Expr, elems []Expr) (Dtype, error) {
	if scalar == nil {
		return Dtype{}, errors.Wrapf(ErrMalformed, "group scalar is nil")
	}
	if !scalar.IsConstant() {
		return Dtype{}, errors.Wrapf(ErrMalformed, "group scalar %s is not an immediate", scalar)
	}
	if len(elems) == 0 {
		return Dtype{}, errors.Wrapf(ErrMalformed, "cannot promote the type of an empty component list")
	}
	for _, e := range elems {
		if e == nil {
			return Dtype{}, errors.Wrapf(ErrMalformed, "group component is nil")
		}
	}
	typ := scalar.Dtype().WithLanes(elems[0].Dtype().Lanes)
	for _, e := range elems {
		var err error
		typ, err = Promote(typ, e.Dtype())
		if err != nil {
			return Dtype{}, err
		}
	}
	return typ, nil
}

// ----------------------------------------------------------------------------
// Terms.

// NewTerm returns the product of a constant scalar with components.
// The component list cannot be empty.
func NewTerm(h *Hasher, scalar Expr, vars ...Expr) (*Term, error) {
	typ, err := groupDtype(scalar, vars)
	if err != nil {
		return nil, err
	}
	sorted := make([]Expr, len(vars))
	copy(sorted, vars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return h.Hash(sorted[i]) < h.Hash(sorted[j])
	})
	return &Term{
		Scalar:   scalar,
		Vars:     sorted,
		Typ:      typ,
		hashVars: h.hashExprs(tagTermVars, sorted),
	}, nil
}

func (n *Term) node() {}
func (n *Term) expr() {}

// Dtype returns the type of the product.
func (n *Term) Dtype() Dtype { return n.Typ }

// IsConstant returns false: a term always has non-constant components.
func (n *Term) IsConstant() bool { return false }

// HashVars returns the hash of the component list of the term without its
// scalar. Two terms with the same component hash group under addition by
// combining their scalars.
func (n *Term) HashVars() Hash { return n.hashVars }

// ----------------------------------------------------------------------------
// Polynomials.

// NewPolynomial returns the sum of a constant scalar with terms.
// The term list cannot be empty.
func NewPolynomial(h *Hasher, scalar Expr, terms ...*Term) (*Polynomial, error) {
	elems := make([]Expr, len(terms))
	for i, t := range terms {
		if t == nil {
			return nil, errors.Wrapf(ErrMalformed, "polynomial term is nil")
		}
		elems[i] = t
	}
	typ, err := groupDtype(scalar, elems)
	if err != nil {
		return nil, err
	}
	return &Polynomial{Scalar: scalar, Terms: sortTerms(h, terms), Typ: typ}, nil
}

// NewPolynomialFromTerms returns the sum of terms with a zero scalar of the
// promoted type of the terms.
func NewPolynomialFromTerms(h *Hasher, terms ...*Term) (*Polynomial, error) {
	if len(terms) == 0 {
		return nil, errors.Wrapf(ErrMalformed, "cannot promote the type of an empty component list")
	}
	typ := terms[0].Dtype()
	for _, t := range terms[1:] {
		if t == nil {
			return nil, errors.Wrapf(ErrMalformed, "polynomial term is nil")
		}
		var err error
		typ, err = Promote(typ, t.Dtype())
		if err != nil {
			return nil, err
		}
	}
	scalar, err := ZeroOf(typ)
	if err != nil {
		return nil, err
	}
	return &Polynomial{Scalar: scalar, Terms: sortTerms(h, terms), Typ: typ}, nil
}

func sortTerms(h *Hasher, terms []*Term) []*Term {
	sorted := make([]*Term, len(terms))
	copy(sorted, terms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return h.Hash(sorted[i]) < h.Hash(sorted[j])
	})
	return sorted
}

func (n *Polynomial) node() {}
func (n *Polynomial) expr() {}

// Dtype returns the type of the sum.
func (n *Polynomial) Dtype() Dtype { return n.Typ }

// IsConstant returns false: a polynomial always has at least one term.
func (n *Polynomial) IsConstant() bool { return false }

// ----------------------------------------------------------------------------
// Rounding patterns.

// NewRoundOff marks x and y as forming the rounding pattern (x/y)*y.
func NewRoundOff(x, y Expr) (*RoundOff, error) {
	if x == nil || y == nil {
		return nil, errors.Wrapf(ErrMalformed, "rounding pattern with a nil operand")
	}
	typ, err := promoteBinary(x, y)
	if err != nil {
		return nil, err
	}
	return &RoundOff{X: x, Y: y, Typ: typ}, nil
}

func (n *RoundOff) node() {}
func (n *RoundOff) expr() {}

// Dtype returns the type of the product the pattern stands for.
func (n *RoundOff) Dtype() Dtype { return n.Typ }

// IsConstant returns false.
func (n *RoundOff) IsConstant() bool { return false }
