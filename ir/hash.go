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
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/gx-org/backend/dtype"
)

// Hash is the structural hash of an expression.
type Hash uint64

// Node kind tags feeding the hash digests.
const (
	tagVar byte = iota + 1
	tagImm
	tagBinary
	tagCast
	tagIntrinsic
	tagBroadcast
	tagRamp
	tagLoad
	tagTerm
	tagPolynomial
	tagRoundOff
	tagTermVars
)

// Hasher computes structural hashes of expressions.
//
// Two structurally identical expressions receive the same hash. Distinct
// expressions may collide: a collision can hide a grouping opportunity but
// never produces an incorrect rewrite. Hashes are memoized per node, which
// is safe because nodes are immutable.
type Hasher struct {
	memo map[Expr]Hash
}

// NewHasher returns a hasher with an empty memo.
func NewHasher() *Hasher {
	return &Hasher{memo: make(map[Expr]Hash)}
}

// Hash returns the structural hash of an expression.
func (h *Hasher) Hash(e Expr) Hash {
	if hv, ok := h.memo[e]; ok {
		return hv
	}
	hv := h.compute(e)
	h.memo[e] = hv
	return hv
}

// hashExprs returns the hash of a list of expressions under a tag,
// in list order.
func (h *Hasher) hashExprs(tag byte, es []Expr) Hash {
	d := xxhash.New()
	writeByte(d, tag)
	for _, e := range es {
		writeHash(d, h.Hash(e))
	}
	return Hash(d.Sum64())
}

func (h *Hasher) compute(e Expr) Hash {
	d := xxhash.New()
	switch n := e.(type) {
	case *Var:
		writeByte(d, tagVar)
		d.WriteString(n.Name)
		writeDtype(d, n.Typ)
	case *BinaryExpr:
		writeByte(d, tagBinary)
		writeUint64(d, uint64(n.Op))
		writeBool(d, n.PropagateNaNs)
		writeHash(d, h.Hash(n.X))
		writeHash(d, h.Hash(n.Y))
		writeDtype(d, n.Typ)
	case *CastExpr:
		writeByte(d, tagCast)
		writeDtype(d, n.Typ)
		writeHash(d, h.Hash(n.X))
	case *Intrinsic:
		writeByte(d, tagIntrinsic)
		writeUint64(d, uint64(n.Op))
		for _, arg := range n.Args {
			writeHash(d, h.Hash(arg))
		}
	case *Broadcast:
		writeByte(d, tagBroadcast)
		writeUint64(d, uint64(n.Lanes))
		writeHash(d, h.Hash(n.X))
	case *Ramp:
		writeByte(d, tagRamp)
		writeUint64(d, uint64(n.Lanes))
		writeHash(d, h.Hash(n.Base))
		writeHash(d, h.Hash(n.Stride))
	case *Load:
		writeByte(d, tagLoad)
		d.WriteString(n.B.Name)
		writeByte(d, byte(n.B.DType))
		writeHash(d, h.Hash(n.Index))
	case *Term:
		writeByte(d, tagTerm)
		writeHash(d, h.Hash(n.Scalar))
		writeHash(d, n.HashVars())
		writeDtype(d, n.Typ)
	case *Polynomial:
		writeByte(d, tagPolynomial)
		writeHash(d, h.Hash(n.Scalar))
		for _, t := range n.Terms {
			writeHash(d, h.Hash(t))
		}
		writeDtype(d, n.Typ)
	case *RoundOff:
		writeByte(d, tagRoundOff)
		writeHash(d, h.Hash(n.X))
		writeHash(d, h.Hash(n.Y))
	default:
		kind, bits, ok := immBits(e)
		if !ok {
			panic(fmt.Sprintf("ir: cannot hash expression of type %T", e))
		}
		writeByte(d, tagImm)
		writeByte(d, byte(kind))
		writeUint64(d, bits)
	}
	return Hash(d.Sum64())
}

// immBits returns the kind and the value bit pattern of an immediate.
func immBits(e Expr) (dtype.DataType, uint64, bool) {
	switch v := e.(type) {
	case *ImmT[bool]:
		bits := uint64(0)
		if v.Val {
			bits = 1
		}
		return dtype.Bool, bits, true
	case *ImmT[int32]:
		return dtype.Int32, uint64(uint32(v.Val)), true
	case *ImmT[int64]:
		return dtype.Int64, uint64(v.Val), true
	case *ImmT[uint32]:
		return dtype.Uint32, uint64(v.Val), true
	case *ImmT[uint64]:
		return dtype.Uint64, v.Val, true
	case *ImmT[float32]:
		return dtype.Float32, uint64(math.Float32bits(v.Val)), true
	case *ImmT[float64]:
		return dtype.Float64, math.Float64bits(v.Val), true
	case *ImmT[dtype.Bfloat16T]:
		return dtype.Bfloat16, uint64(math.Float32bits(v.Val.Float32())), true
	}
	return dtype.Invalid, 0, false
}

func writeByte(d *xxhash.Digest, b byte) {
	d.Write([]byte{b})
}

func writeBool(d *xxhash.Digest, b bool) {
	if b {
		writeByte(d, 1)
		return
	}
	writeByte(d, 0)
}

func writeUint64(d *xxhash.Digest, v uint64) {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, v)
	d.Write(raw)
}

func writeHash(d *xxhash.Digest, h Hash) {
	writeUint64(d, uint64(h))
}

func writeDtype(d *xxhash.Digest, typ Dtype) {
	writeByte(d, byte(typ.DType))
	writeUint64(d, uint64(typ.Lanes))
}
