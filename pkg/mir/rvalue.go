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

// BinOp enumerates the arithmetic, bitwise, comparison, and short-circuit
// operators a Binary rvalue may carry.
type BinOp uint8

// Binary operators the builder lowers from ast.BinaryOp.
const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinAnd
	BinOr
	BinXor
	BinShl
	BinShr
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
)

// UnOp enumerates unary operators.
type UnOp uint8

// Unary operators the builder lowers.
const (
	UnNeg UnOp = iota
	UnNot
	UnBitNot
)

// RoundingMode names an IEEE/decimal rounding direction.
type RoundingMode uint8

// The rounding modes the decimal intrinsics accept.
const (
	RoundTiesToEven RoundingMode = iota
	RoundTowardZero
	RoundTowardPositive
	RoundTowardNegative
)

// VectorizeMode records whether a decimal intrinsic was lowered to a
// vectorized kernel.
type VectorizeMode uint8

// Vectorization choices for decimal intrinsics.
const (
	VectorizeNone VectorizeMode = iota
	VectorizeAuto
)

// AggregateKind discriminates what shape an Aggregate rvalue builds.
type AggregateKind uint8

// Aggregate shapes the builder constructs in one rvalue.
const (
	AggStruct AggregateKind = iota
	AggTuple
	AggArray
	AggEnumVariant
)

// CastKind discriminates what conversion a Cast rvalue performs.
type CastKind uint8

// Cast kinds the builder distinguishes so backends choose the correct
// instruction.
const (
	CastNumeric CastKind = iota // int<->int, int<->float widen/narrow
	CastPointer                 // pointer reinterpretation
	CastNullableWrap            // T -> T?
	CastNullableUnwrap          // T? -> T (unchecked)
	CastTraitObject             // concrete -> dyn Trait
	CastUpcast                  // derived class -> base class
	CastDowncast                // base class -> derived class (checked)
)

// DecimalIntrinsicKind enumerates Std::Numeric::Decimal::Intrinsics
// operations (spec.md §4.3.6).
type DecimalIntrinsicKind uint8

// Decimal intrinsic kinds.
const (
	DecimalAdd DecimalIntrinsicKind = iota
	DecimalSub
	DecimalMul
	DecimalDiv
	DecimalFma
)

// NumericIntrinsicKind enumerates checked/saturating/wrapping scalar
// arithmetic intrinsics distinct from plain Binary rvalues.
type NumericIntrinsicKind uint8

// Numeric intrinsic kinds.
const (
	NumericCheckedAdd NumericIntrinsicKind = iota
	NumericCheckedSub
	NumericCheckedMul
	NumericSaturatingAdd
	NumericSaturatingSub
	NumericWrappingAdd
	NumericWrappingSub
	NumericOverflowingAdd
)

// AtomicOrdering names a memory ordering for atomic rvalues/statements.
type AtomicOrdering uint8

// Atomic orderings the builder may attach.
const (
	OrderRelaxed AtomicOrdering = iota
	OrderAcquire
	OrderRelease
	OrderAcqRel
	OrderSeqCst
)

// AtomicRmwOp names the read-modify-write operation of an AtomicRmw rvalue.
type AtomicRmwOp uint8

// Atomic read-modify-write operations.
const (
	RmwAdd AtomicRmwOp = iota
	RmwSub
	RmwAnd
	RmwOr
	RmwXor
	RmwExchange
)

// RvalueKind discriminates the shape of an Rvalue.
type RvalueKind uint8

// The right-hand-side shapes spec.md §3 "Rvalue" lists. RvaluePending
// marks a placeholder the builder has not finished lowering; no verified
// body may contain one (spec.md §8).
const (
	RvUse RvalueKind = iota
	RvBinary
	RvUnary
	RvAggregate
	RvAddressOf
	RvLen
	RvCast
	RvStringInterpolate
	RvNumericIntrinsic
	RvAtomicLoad
	RvAtomicRmw
	RvAtomicCompareExchange
	RvStaticLoad
	RvStaticRef
	RvDecimalIntrinsic
	RvSpanStackAlloc
	RvPending
)

// AggregateField is one field value supplied to an Aggregate rvalue.
type AggregateField struct {
	Name    string // empty for positional/tuple/array fields
	Operand Operand
}

// Rvalue is the tagged union of right-hand-side computations assignable
// to a Place (spec.md §3 "Rvalue").
type Rvalue struct {
	Kind RvalueKind

	// RvUse
	Operand Operand

	// RvBinary
	BinOp      BinOp
	LHS        Operand
	RHS        Operand
	HasRounding bool
	Rounding   RoundingMode

	// RvUnary
	UnOp        UnOp
	UnaryOperand Operand

	// RvAggregate
	AggKind    AggregateKind
	AggTypeName string
	AggVariant string // AggEnumVariant only
	Fields     []AggregateField

	// RvAddressOf / RvLen
	Place Place

	// RvCast
	CastKind  CastKind
	CastOperand Operand
	SourceTy  types.Ty
	TargetTy  types.Ty

	// RvStringInterpolate
	Parts []Operand

	// RvNumericIntrinsic
	NumericKind NumericIntrinsicKind
	NumericArgs []Operand

	// RvAtomicLoad / RvAtomicRmw / RvAtomicCompareExchange
	AtomicPlace    Place
	Ordering       AtomicOrdering
	RmwOp          AtomicRmwOp
	RmwValue       Operand
	CasExpected    Operand
	CasDesired     Operand
	CasSuccessOrder AtomicOrdering
	CasFailureOrder AtomicOrdering

	// RvStaticLoad / RvStaticRef
	StaticName string
	StaticTy   types.Ty

	// RvDecimalIntrinsic
	DecimalKind   DecimalIntrinsicKind
	DecimalLHS    Operand
	DecimalRHS    Operand
	DecimalAddend Operand
	HasAddend     bool
	DecimalRounding RoundingMode
	DecimalVectorize VectorizeMode
	// Set when the `WithOptions` form supplied the rounding/vectorize
	// arguments dynamically (spec.md §4.3.6) instead of defaulting them;
	// RoundingOperand/VectorizeOperand then hold the actual trailing
	// operands and DecimalRounding/DecimalVectorize are ignored.
	HasDynamicRounding bool
	RoundingOperand    Operand
	HasDynamicVectorize bool
	VectorizeOperand   Operand

	// RvSpanStackAlloc
	ElemTy   types.Ty
	Count    Operand

	// RvPending
	PendingDetail string
}

// Use wraps a bare operand as an rvalue.
func Use(op Operand) Rvalue { return Rvalue{Kind: RvUse, Operand: op} }

// Binary builds an arithmetic/comparison rvalue.
func Binary(op BinOp, lhs, rhs Operand) Rvalue {
	return Rvalue{Kind: RvBinary, BinOp: op, LHS: lhs, RHS: rhs}
}

// Unary builds a unary rvalue.
func Unary(op UnOp, operand Operand) Rvalue {
	return Rvalue{Kind: RvUnary, UnOp: op, UnaryOperand: operand}
}

// Aggregate builds a struct/tuple/array/enum-variant constructor rvalue.
func Aggregate(kind AggregateKind, typeName string, fields []AggregateField) Rvalue {
	return Rvalue{Kind: RvAggregate, AggKind: kind, AggTypeName: typeName, Fields: fields}
}

// StringInterpolate builds an interpolated-string computation from its
// already-lowered part operands, in source order.
func StringInterpolate(parts []Operand) Rvalue {
	return Rvalue{Kind: RvStringInterpolate, Parts: parts}
}

// NumericIntrinsic builds a checked/saturating/wrapping scalar arithmetic
// computation.
func NumericIntrinsic(kind NumericIntrinsicKind, args []Operand) Rvalue {
	return Rvalue{Kind: RvNumericIntrinsic, NumericKind: kind, NumericArgs: args}
}

// AddressOf takes the address of a place without going through a Borrow
// statement (used for `fixed` guards and raw-pointer arithmetic).
func AddressOf(p Place) Rvalue { return Rvalue{Kind: RvAddressOf, Place: p} }

// Len reads a span/array place's length.
func Len(p Place) Rvalue { return Rvalue{Kind: RvLen, Place: p} }

// Cast builds a type conversion rvalue.
func Cast(kind CastKind, operand Operand, from, to types.Ty) Rvalue {
	return Rvalue{Kind: RvCast, CastKind: kind, CastOperand: operand, SourceTy: from, TargetTy: to}
}

// DecimalIntrinsic builds a Std::Numeric::Decimal::Intrinsics call rvalue
// (spec.md §4.3.6).
func DecimalIntrinsic(kind DecimalIntrinsicKind, lhs, rhs Operand, rounding RoundingMode, vectorize VectorizeMode) Rvalue {
	return Rvalue{Kind: RvDecimalIntrinsic, DecimalKind: kind, DecimalLHS: lhs, DecimalRHS: rhs, DecimalRounding: rounding, DecimalVectorize: vectorize}
}

// NewDecimalFma builds the three-operand fused multiply-add decimal intrinsic.
func NewDecimalFma(lhs, rhs, addend Operand, rounding RoundingMode, vectorize VectorizeMode) Rvalue {
	return Rvalue{Kind: RvDecimalIntrinsic, DecimalKind: DecimalFma, DecimalLHS: lhs, DecimalRHS: rhs, DecimalAddend: addend, HasAddend: true, DecimalRounding: rounding, DecimalVectorize: vectorize}
}

// DecimalIntrinsicDynamic builds a decimal intrinsic whose rounding and
// vectorize arguments were supplied at the call site (the `WithOptions`
// form, spec.md §4.3.6) rather than defaulted.
func DecimalIntrinsicDynamic(kind DecimalIntrinsicKind, lhs, rhs, roundingOp, vectorizeOp Operand) Rvalue {
	return Rvalue{
		Kind: RvDecimalIntrinsic, DecimalKind: kind, DecimalLHS: lhs, DecimalRHS: rhs,
		HasDynamicRounding: true, RoundingOperand: roundingOp,
		HasDynamicVectorize: true, VectorizeOperand: vectorizeOp,
	}
}

// DecimalFmaDynamic builds the fused multiply-add decimal intrinsic with
// dynamic rounding/vectorize operands (the `WithOptions` form).
func DecimalFmaDynamic(lhs, rhs, addend, roundingOp, vectorizeOp Operand) Rvalue {
	return Rvalue{
		Kind: RvDecimalIntrinsic, DecimalKind: DecimalFma, DecimalLHS: lhs, DecimalRHS: rhs,
		DecimalAddend: addend, HasAddend: true,
		HasDynamicRounding: true, RoundingOperand: roundingOp,
		HasDynamicVectorize: true, VectorizeOperand: vectorizeOp,
	}
}

// SpanStackAlloc builds a stack-allocated span of count elements of elemTy.
func SpanStackAlloc(elemTy types.Ty, count Operand) Rvalue {
	return Rvalue{Kind: RvSpanStackAlloc, ElemTy: elemTy, Count: count}
}

// PendingRvalue marks an rvalue the builder has not finished lowering.
func PendingRvalue(detail string) Rvalue { return Rvalue{Kind: RvPending, PendingDetail: detail} }
