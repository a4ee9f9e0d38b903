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
	"fmt"

	"github.com/gx-org/backend/dtype"
	"github.com/pkg/errors"
)

// Dtype is the type of an expression value:
// a scalar kind replicated across a number of lanes.
type Dtype struct {
	DType dtype.DataType
	Lanes int
}

// Atomic returns the type of a single value of kind dt.
func Atomic(dt dtype.DataType) Dtype {
	return Dtype{DType: dt, Lanes: 1}
}

// Vector returns the type of lanes values of kind dt.
func Vector(dt dtype.DataType, lanes int) Dtype {
	return Dtype{DType: dt, Lanes: lanes}
}

// Valid returns true if the type has a known kind and at least one lane.
func (d Dtype) Valid() bool {
	return d.DType > dtype.Invalid && d.DType < dtype.MaxDataType && d.Lanes >= 1
}

// IsScalar returns true if the type has a single lane.
func (d Dtype) IsScalar() bool {
	return d.Lanes == 1
}

// IsInteger returns true if the kind of the type is an integer kind.
func (d Dtype) IsInteger() bool {
	switch d.DType {
	case dtype.Int32, dtype.Int64, dtype.Uint32, dtype.Uint64:
		return true
	}
	return false
}

// IsFloat returns true if the kind of the type is a floating point kind.
func (d Dtype) IsFloat() bool {
	return floatRank(d.DType) > 0
}

// IsNumeric returns true if the type supports arithmetic.
func (d Dtype) IsNumeric() bool {
	return d.IsInteger() || d.IsFloat()
}

// WithLanes returns the same kind of type but with a given number of lanes.
func (d Dtype) WithLanes(lanes int) Dtype {
	return Dtype{DType: d.DType, Lanes: lanes}
}

// String representation of the type.
func (d Dtype) String() string {
	if d.Lanes == 1 {
		return kindName(d.DType)
	}
	return fmt.Sprintf("%sx%d", kindName(d.DType), d.Lanes)
}

func kindName(dt dtype.DataType) string {
	switch dt {
	case dtype.Bool:
		return "bool"
	case dtype.Int32:
		return "int32"
	case dtype.Int64:
		return "int64"
	case dtype.Uint32:
		return "uint32"
	case dtype.Uint64:
		return "uint64"
	case dtype.Bfloat16:
		return "bfloat16"
	case dtype.Float32:
		return "float32"
	case dtype.Float64:
		return "float64"
	}
	return "invalid"
}

func floatRank(dt dtype.DataType) int {
	switch dt {
	case dtype.Bfloat16:
		return 1
	case dtype.Float32:
		return 2
	case dtype.Float64:
		return 3
	}
	return 0
}

func isSignedInt(dt dtype.DataType) bool {
	return dt == dtype.Int32 || dt == dtype.Int64
}

func intBits(dt dtype.DataType) int {
	switch dt {
	case dtype.Int32, dtype.Uint32:
		return 32
	case dtype.Int64, dtype.Uint64:
		return 64
	}
	return 0
}

// Promote returns the type able to represent values of both its arguments.
// Both arguments need the same number of lanes: callers combining a constant
// with a wider operand adopt the operand lane count first (see WithLanes).
func Promote(a, b Dtype) (Dtype, error) {
	if !a.Valid() || !b.Valid() {
		return Dtype{}, errors.Wrapf(ErrMalformed, "cannot promote invalid type: %s with %s", a, b)
	}
	if a.Lanes != b.Lanes {
		return Dtype{}, errors.Wrapf(ErrMalformed, "cannot promote %s with %s: lane counts differ", a, b)
	}
	k, err := promoteDataType(a.DType, b.DType)
	if err != nil {
		return Dtype{}, err
	}
	return Dtype{DType: k, Lanes: a.Lanes}, nil
}

func promoteDataType(a, b dtype.DataType) (dtype.DataType, error) {
	if a == b {
		return a, nil
	}
	if a == dtype.Bool {
		return b, nil
	}
	if b == dtype.Bool {
		return a, nil
	}
	af, bf := floatRank(a), floatRank(b)
	switch {
	case af > 0 && bf > 0:
		if af >= bf {
			return a, nil
		}
		return b, nil
	case af > 0:
		return a, nil
	case bf > 0:
		return b, nil
	}
	// Both kinds are integers.
	if isSignedInt(a) == isSignedInt(b) {
		if intBits(a) >= intBits(b) {
			return a, nil
		}
		return b, nil
	}
	if a == dtype.Uint64 || b == dtype.Uint64 {
		return dtype.Invalid, errors.Wrapf(ErrMalformed, "cannot promote %s with %s: no signed kind holds both", kindName(a), kindName(b))
	}
	// A signed kind mixed with uint32: int64 holds both.
	return dtype.Int64, nil
}

// promoteBinary returns the type of a binary expression combining x and y.
// A constant operand is lane-agnostic and adopts the width of the other side.
func promoteBinary(x, y Expr) (Dtype, error) {
	xt, yt := x.Dtype(), y.Dtype()
	if x.IsConstant() && !y.IsConstant() {
		xt = xt.WithLanes(yt.Lanes)
	} else if y.IsConstant() && !x.IsConstant() {
		yt = yt.WithLanes(xt.Lanes)
	}
	return Promote(xt, yt)
}
