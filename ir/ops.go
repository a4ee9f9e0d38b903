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

import "fmt"

// BinaryOp identifies the operator of a binary expression.
type BinaryOp int

// Operators of binary expressions.
const (
	BinaryInvalid BinaryOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpXor
	OpLshift
	OpRshift
	OpMax
	OpMin
)

var binaryOpNames = [...]string{
	BinaryInvalid: "invalid",
	OpAdd:         "+",
	OpSub:         "-",
	OpMul:         "*",
	OpDiv:         "/",
	OpMod:         "%",
	OpAnd:         "&",
	OpXor:         "^",
	OpLshift:      "<<",
	OpRshift:      ">>",
	OpMax:         "Max",
	OpMin:         "Min",
}

// String representation of the operator.
func (op BinaryOp) String() string {
	if !op.Valid() {
		return fmt.Sprintf("BinaryOp(%d)", int(op))
	}
	return binaryOpNames[op]
}

// Valid returns true if the operator is one of the defined operators.
func (op BinaryOp) Valid() bool {
	return op > BinaryInvalid && int(op) < len(binaryOpNames)
}

// IntegerOnly returns true if the operator is only defined on integer operands.
func (op BinaryOp) IntegerOnly() bool {
	switch op {
	case OpMod, OpAnd, OpXor, OpLshift, OpRshift:
		return true
	}
	return false
}

// IsMinMax returns true for the Max and Min operators,
// the only operators carrying a NaN propagation mode.
func (op BinaryOp) IsMinMax() bool {
	return op == OpMax || op == OpMin
}

// IntrinsicOp identifies an intrinsic function.
type IntrinsicOp int

// Intrinsic functions.
const (
	IntrinsicInvalid IntrinsicOp = iota
	IntrinsicSin
	IntrinsicCos
	IntrinsicTan
	IntrinsicExp
	IntrinsicLog
	IntrinsicSqrt
	IntrinsicRsqrt
	IntrinsicAbs
	IntrinsicFloor
	IntrinsicCeil
	IntrinsicRound
	IntrinsicPow
)

var intrinsicOpNames = [...]string{
	IntrinsicInvalid: "invalid",
	IntrinsicSin:     "sin",
	IntrinsicCos:     "cos",
	IntrinsicTan:     "tan",
	IntrinsicExp:     "exp",
	IntrinsicLog:     "log",
	IntrinsicSqrt:    "sqrt",
	IntrinsicRsqrt:   "rsqrt",
	IntrinsicAbs:     "abs",
	IntrinsicFloor:   "floor",
	IntrinsicCeil:    "ceil",
	IntrinsicRound:   "round",
	IntrinsicPow:     "pow",
}

// String representation of the intrinsic.
func (op IntrinsicOp) String() string {
	if !op.Valid() {
		return fmt.Sprintf("IntrinsicOp(%d)", int(op))
	}
	return intrinsicOpNames[op]
}

// Valid returns true if the intrinsic is one of the defined intrinsics.
func (op IntrinsicOp) Valid() bool {
	return op > IntrinsicInvalid && int(op) < len(intrinsicOpNames)
}

// NumArgs returns the number of arguments taken by the intrinsic.
func (op IntrinsicOp) NumArgs() int {
	if op == IntrinsicPow {
		return 2
	}
	return 1
}
