// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package mir

import "github.com/chic-lang/chic-core/pkg/types"

// BorrowKind distinguishes a shared read borrow, an exclusive write
// borrow, and an address-stable pinned borrow, feeding the region-
// constraint checks of spec.md §4.3.8.
type BorrowKind uint8

// The three borrow kinds the builder emits (spec.md §3 "Operand").
const (
	BorrowShared BorrowKind = iota
	BorrowUnique
	BorrowPinned
)

// ConstKind discriminates the literal shapes a Const operand may hold.
type ConstKind uint8

// Constant literal shapes. ConstPending marks a constant the builder could
// not yet fold (e.g. awaiting symbol resolution); no verified body may
// contain one (spec.md §8).
const (
	ConstBool ConstKind = iota
	ConstInt
	ConstFloat
	ConstString
	ConstNull
	ConstUnit
	ConstSymbol
	ConstPending
)

// OperandKind discriminates the shape of an Operand.
type OperandKind uint8

// The operand shapes spec.md §3 "Operands" lists. OperandPending marks a
// placeholder the builder has not finished lowering; no verified body may
// contain one (spec.md §8).
const (
	OperandCopy OperandKind = iota
	OperandMove
	OperandBorrowOp
	OperandMmio
	OperandConst
	OperandPending
)

// Operand is a value read from a Place, a borrow of one, an MMIO read, or a
// constant (spec.md §3 "Operands").
type Operand struct {
	Kind OperandKind

	// OperandCopy / OperandMove / OperandMmio
	Place Place

	// OperandBorrowOp
	BorrowKind BorrowKind
	Region     RegionVar
	BorrowID   BorrowID

	// OperandConst
	ConstKind   ConstKind
	BoolVal     bool
	IntVal      int64
	FloatVal    float64
	StringVal   string
	SymbolName  string
	ConstTy     types.Ty
}

// Copy reads a place's value without consuming it.
func Copy(p Place) Operand { return Operand{Kind: OperandCopy, Place: p} }

// Move reads a place's value and ends its owner's lifetime.
func Move(p Place) Operand { return Operand{Kind: OperandMove, Place: p} }

// BorrowOperand produces a pointer-like value borrowing p under region r.
func BorrowOperand(p Place, kind BorrowKind, r RegionVar, id BorrowID) Operand {
	return Operand{Kind: OperandBorrowOp, Place: p, BorrowKind: kind, Region: r, BorrowID: id}
}

// MmioRead reads directly from a memory-mapped place, bypassing normal
// copy/move semantics.
func MmioRead(p Place) Operand { return Operand{Kind: OperandMmio, Place: p} }

// IntConst builds a typed integer constant.
func IntConst(v int64, ty types.Ty) Operand {
	return Operand{Kind: OperandConst, ConstKind: ConstInt, IntVal: v, ConstTy: ty}
}

// BoolConst builds a boolean constant.
func BoolConst(v bool) Operand {
	return Operand{Kind: OperandConst, ConstKind: ConstBool, BoolVal: v, ConstTy: types.Named("Std::Bool")}
}

// FloatConst builds a typed floating-point constant.
func FloatConst(v float64, ty types.Ty) Operand {
	return Operand{Kind: OperandConst, ConstKind: ConstFloat, FloatVal: v, ConstTy: ty}
}

// StringConst builds a string literal constant.
func StringConst(v string) Operand {
	return Operand{Kind: OperandConst, ConstKind: ConstString, StringVal: v, ConstTy: types.Named("Std::String")}
}

// NullConst builds the null value of a nullable type.
func NullConst(ty types.Ty) Operand {
	return Operand{Kind: OperandConst, ConstKind: ConstNull, ConstTy: ty}
}

// UnitConst builds the sole value of the unit type.
func UnitConst() Operand { return Operand{Kind: OperandConst, ConstKind: ConstUnit, ConstTy: types.Unit()} }

// SymbolConst builds a reference to a named top-level symbol (function,
// static, vtable) resolved at link/codegen time.
func SymbolConst(name string, ty types.Ty) Operand {
	return Operand{Kind: OperandConst, ConstKind: ConstSymbol, SymbolName: name, ConstTy: ty}
}

// PendingOperand marks an operand the builder has not finished lowering.
func PendingOperand() Operand { return Operand{Kind: OperandPending} }
