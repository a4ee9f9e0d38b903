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
	"slices"
	"strconv"
	"strings"

	"github.com/gx-org/backend/dtype"
	gxfmt "github.com/gx-org/texpr/base/fmt"
	"github.com/gx-org/texpr/base/stringseq"
)

// String returns the name of the variable.
func (n *Var) String() string { return n.Name }

// String representation of the immediate value.
func (n *ImmT[T]) String() string {
	switch v := any(n.Val).(type) {
	case bool:
		return strconv.FormatBool(v)
	case dtype.Bfloat16T:
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// String representation of the expression.
func (n *BinaryExpr) String() string {
	if n.Op.IsMinMax() {
		return fmt.Sprintf("%s(%s, %s)", n.Op, n.X, n.Y)
	}
	return fmt.Sprintf("(%s %s %s)", n.X, n.Op, n.Y)
}

// String representation of the conversion.
func (n *CastExpr) String() string {
	return fmt.Sprintf("%s(%s)", n.Typ, n.X)
}

// String representation of the call.
func (n *Intrinsic) String() string {
	return fmt.Sprintf("%s(%s)", n.Op, stringseq.JoinStringer(slices.Values(n.Args), ", "))
}

// String representation of the broadcast.
func (n *Broadcast) String() string {
	return fmt.Sprintf("broadcast<%d>(%s)", n.Lanes, n.X)
}

// String representation of the ramp.
func (n *Ramp) String() string {
	return fmt.Sprintf("ramp<%d>(%s, %s)", n.Lanes, n.Base, n.Stride)
}

// String returns the name of the buffer with its dimensions.
func (n *Buf) String() string {
	if len(n.Dims) == 0 {
		return n.Name
	}
	return fmt.Sprintf("%s[%s]", n.Name, stringseq.JoinStringer(slices.Values(n.Dims), ", "))
}

// String representation of the read.
func (n *Load) String() string {
	return fmt.Sprintf("%s[%s]", n.B.Name, n.Index)
}

// String representation of the term.
func (n *Term) String() string {
	return fmt.Sprintf("Term(%s; %s)", n.Scalar, stringseq.JoinStringer(slices.Values(n.Vars), ", "))
}

// String representation of the polynomial.
func (n *Polynomial) String() string {
	return fmt.Sprintf("Poly(%s; %s)", n.Scalar, stringseq.JoinStringer(slices.Values(n.Terms), ", "))
}

// String representation of the rounding pattern.
func (n *RoundOff) String() string {
	return fmt.Sprintf("RoundOff(%s, %s)", n.X, n.Y)
}

// String representation of the block, one statement per line.
func (n *Block) String() string {
	var s strings.Builder
	s.WriteString("{\n")
	for _, st := range n.Stmts {
		s.WriteString(gxfmt.Indent(st.String()))
		s.WriteString("\n")
	}
	s.WriteString("}")
	return s.String()
}

// String representation of the write.
func (n *Store) String() string {
	return fmt.Sprintf("%s[%s] = %s", n.B.Name, n.Index, n.Value)
}

// String representation of the loop.
func (n *For) String() string {
	return fmt.Sprintf("for %s in [%s, %s) %s", n.Var, n.Start, n.Stop, n.Body)
}

// String representation of the branch.
func (n *Cond) String() string {
	if n.Else == nil {
		return fmt.Sprintf("if %s %s", n.Condition, n.Then)
	}
	return fmt.Sprintf("if %s %s else %s", n.Condition, n.Then, n.Else)
}
