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

package simplify_test

import (
	"fmt"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/texpr/ir"
	"github.com/gx-org/texpr/simplify"
)

func ExampleSimplify() {
	x := ir.NewVar("x", ir.Atomic(dtype.Int32))
	two := ir.NewImm(int32(2))
	e := must(ir.NewAdd(must(ir.NewMul(two, x)), x))
	s, err := simplify.Simplify(e)
	if err != nil {
		panic(err)
	}
	fmt.Println(s)
	// Output: (3 * x)
}

func ExampleSimplifyStmt() {
	i := ir.NewVar("i", ir.Atomic(dtype.Int32))
	buf := ir.NewBuf("A", dtype.Int32, ir.NewVar("n", ir.Atomic(dtype.Int32)))
	loop := &ir.For{
		Var:   i,
		Start: ir.NewImm(int32(0)),
		Stop:  must(ir.NewAdd(ir.NewImm(int32(4)), ir.NewImm(int32(4)))),
		Body: &ir.Block{Stmts: []ir.Stmt{
			&ir.Store{B: buf, Index: i, Value: must(ir.NewSub(i, i))},
		}},
	}
	s, err := simplify.SimplifyStmt(loop)
	if err != nil {
		panic(err)
	}
	fmt.Println(s)
	// Output:
	// for i in [0, 8) {
	// 	A[i] = 0
	// }
}
