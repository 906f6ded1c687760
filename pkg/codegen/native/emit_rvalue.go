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
package native

import (
	"fmt"

	"github.com/chic-lang/chic-core/pkg/mir"
)

// emitRvalue lowers an Rvalue to a single typed value, returning a textual
// operand (e.g. "i64 %v3") ready to be stored or passed as a call argument.
func (e *emitter) emitRvalue(rv mir.Rvalue) string {
	switch rv.Kind {
	case mir.RvUse:
		return e.operandValue(rv.Operand)
	case mir.RvBinary:
		lhs := e.operandValue(rv.LHS)
		rhs := e.operandValue(rv.RHS)
		v := e.newReg()
		e.emit("%s = %s %s, %s", v, binOpName(rv.BinOp), lhs, rhs)
		return v
	case mir.RvUnary:
		operand := e.operandValue(rv.UnaryOperand)
		v := e.newReg()
		e.emit("%s = %s %s", v, unOpName(rv.UnOp), operand)
		return v
	case mir.RvAggregate:
		v := e.newReg()
		e.emit("%s = alloca %s.%s", v, aggKindName(rv.AggKind), rv.AggTypeName)
		for i, f := range rv.Fields {
			fv := e.operandValue(f.Operand)
			if f.Name != "" {
				e.emit("store %s, ptr %s, field %q", fv, v, f.Name)
			} else {
				e.emit("store %s, ptr %s, field %d", fv, v, i)
			}
		}
		if rv.AggKind == mir.AggEnumVariant {
			e.emit("store i32 tag.%s, ptr %s", rv.AggVariant, v)
		}
		return v
	case mir.RvAddressOf:
		return e.placeAddress(rv.Place)
	case mir.RvLen:
		addr := e.placeAddress(rv.Place)
		v := e.newReg()
		e.emit("%s = getelementptr inbounds, ptr %s, i32 0, i32 1 ; .len", v, addr)
		lv := e.newReg()
		e.emit("%s = load i64, ptr %s", lv, v)
		return lv
	case mir.RvCast:
		operand := e.operandValue(rv.CastOperand)
		v := e.newReg()
		e.emit("%s = %s %s to %s", v, castOpName(rv.CastKind), operand, llvmTypeName(rv.TargetTy))
		return v
	case mir.RvStringInterpolate:
		v := e.newReg()
		args := ""
		for _, p := range rv.Parts {
			args += ", " + e.operandValue(p)
		}
		e.emit("%s = call ptr @chic_rt_string_interpolate(i64 %d%s)", v, len(rv.Parts), args)
		return v
	case mir.RvNumericIntrinsic:
		v := e.newReg()
		args := ""
		for _, a := range rv.NumericArgs {
			args += ", " + e.operandValue(a)
		}
		e.emit("%s = call @chic_rt_numeric_%s(%s)", v, numericKindName(rv.NumericKind), trimLeadingComma(args))
		return v
	case mir.RvAtomicLoad:
		addr := e.placeAddress(rv.AtomicPlace)
		v := e.newReg()
		e.emit("%s = load atomic, ptr %s %s", v, addr, orderingName(rv.Ordering))
		return v
	case mir.RvAtomicRmw:
		addr := e.placeAddress(rv.AtomicPlace)
		val := e.operandValue(rv.RmwValue)
		v := e.newReg()
		e.emit("%s = atomicrmw %s ptr %s, %s %s", v, rmwOpName(rv.RmwOp), addr, val, orderingName(rv.Ordering))
		return v
	case mir.RvAtomicCompareExchange:
		addr := e.placeAddress(rv.AtomicPlace)
		expected := e.operandValue(rv.CasExpected)
		desired := e.operandValue(rv.CasDesired)
		v := e.newReg()
		e.emit("%s = cmpxchg ptr %s, %s, %s %s %s", v, addr, expected, desired,
			orderingName(rv.CasSuccessOrder), orderingName(rv.CasFailureOrder))
		return v
	case mir.RvStaticLoad:
		v := e.newReg()
		e.emit("%s = load %s, ptr @%s", v, llvmTypeName(rv.StaticTy), rv.StaticName)
		return v
	case mir.RvStaticRef:
		return fmt.Sprintf("ptr @%s", rv.StaticName)
	case mir.RvDecimalIntrinsic:
		return e.emitDecimalIntrinsic(rv)
	case mir.RvSpanStackAlloc:
		count := e.operandValue(rv.Count)
		v := e.newReg()
		e.emit("%s = alloca %s, %s ; span stackalloc", v, llvmTypeName(rv.ElemTy), count)
		return v
	case mir.RvPending:
		e.fail("rvalue is Pending at codegen time (%s)", rv.PendingDetail)
		return "undef"
	default:
		e.fail("unhandled rvalue kind %d", rv.Kind)
		return "undef"
	}
}

// emitDecimalIntrinsic lowers a Std::Numeric::Decimal::Intrinsics call to
// the scalar 128-bit decimal runtime ABI (spec.md §6 "Decimal runtime").
func (e *emitter) emitDecimalIntrinsic(rv mir.Rvalue) string {
	lhs := e.operandValue(rv.DecimalLHS)
	rhs := e.operandValue(rv.DecimalRHS)
	rounding := e.decimalOptionValue(rv.HasDynamicRounding, rv.RoundingOperand, uint8(rv.DecimalRounding))
	vectorize := e.decimalOptionValue(rv.HasDynamicVectorize, rv.VectorizeOperand, uint8(rv.DecimalVectorize))
	v := e.newReg()
	if rv.DecimalKind == mir.DecimalFma {
		addend := "void undef"
		if rv.HasAddend {
			addend = e.operandValue(rv.DecimalAddend)
		}
		e.emit("%s = call {i32,i32,i32,i32} @chic_rt_decimal_fma(%s, %s, %s, i8 %s, i8 %s)",
			v, lhs, rhs, addend, rounding, vectorize)
		return v
	}
	e.emit("%s = call {i32,i32,i32,i32} @chic_rt_decimal_%s(%s, %s, i8 %s, i8 %s)",
		v, decimalKindName(rv.DecimalKind), lhs, rhs, rounding, vectorize)
	return v
}

// decimalOptionValue formats a decimal intrinsic's trailing rounding or
// vectorize argument: a dynamic operand's value when the `WithOptions`
// call supplied one, otherwise the statically defaulted enum constant
// (spec.md §4.3.6).
func (e *emitter) decimalOptionValue(dynamic bool, op mir.Operand, def uint8) string {
	if dynamic {
		return e.operandValue(op)
	}
	return fmt.Sprintf("%d", def)
}

func trimLeadingComma(s string) string {
	if len(s) >= 2 && s[:2] == ", " {
		return s[2:]
	}
	return s
}

func binOpName(op mir.BinOp) string {
	switch op {
	case mir.BinAdd:
		return "add"
	case mir.BinSub:
		return "sub"
	case mir.BinMul:
		return "mul"
	case mir.BinDiv:
		return "sdiv"
	case mir.BinRem:
		return "srem"
	case mir.BinAnd:
		return "and"
	case mir.BinOr:
		return "or"
	case mir.BinXor:
		return "xor"
	case mir.BinShl:
		return "shl"
	case mir.BinShr:
		return "ashr"
	case mir.BinEq:
		return "icmp eq"
	case mir.BinNe:
		return "icmp ne"
	case mir.BinLt:
		return "icmp slt"
	case mir.BinLe:
		return "icmp sle"
	case mir.BinGt:
		return "icmp sgt"
	case mir.BinGe:
		return "icmp sge"
	default:
		return "unknown.binop"
	}
}

func unOpName(op mir.UnOp) string {
	switch op {
	case mir.UnNeg:
		return "neg"
	case mir.UnNot:
		return "not"
	case mir.UnBitNot:
		return "xor -1,"
	default:
		return "unknown.unop"
	}
}

func aggKindName(k mir.AggregateKind) string {
	switch k {
	case mir.AggStruct:
		return "struct"
	case mir.AggTuple:
		return "tuple"
	case mir.AggArray:
		return "array"
	case mir.AggEnumVariant:
		return "enum"
	default:
		return "agg"
	}
}

func castOpName(k mir.CastKind) string {
	switch k {
	case mir.CastNumeric:
		return "numcast"
	case mir.CastPointer:
		return "bitcast"
	case mir.CastNullableWrap:
		return "wrap"
	case mir.CastNullableUnwrap:
		return "unwrap"
	case mir.CastTraitObject:
		return "mktraitobj"
	case mir.CastUpcast:
		return "upcast"
	case mir.CastDowncast:
		return "downcast"
	default:
		return "cast"
	}
}

func numericKindName(k mir.NumericIntrinsicKind) string {
	switch k {
	case mir.NumericCheckedAdd:
		return "checked_add"
	case mir.NumericCheckedSub:
		return "checked_sub"
	case mir.NumericCheckedMul:
		return "checked_mul"
	case mir.NumericSaturatingAdd:
		return "saturating_add"
	case mir.NumericSaturatingSub:
		return "saturating_sub"
	case mir.NumericWrappingAdd:
		return "wrapping_add"
	case mir.NumericWrappingSub:
		return "wrapping_sub"
	case mir.NumericOverflowingAdd:
		return "overflowing_add"
	default:
		return "unknown"
	}
}

func rmwOpName(op mir.AtomicRmwOp) string {
	switch op {
	case mir.RmwAdd:
		return "add"
	case mir.RmwSub:
		return "sub"
	case mir.RmwAnd:
		return "and"
	case mir.RmwOr:
		return "or"
	case mir.RmwXor:
		return "xor"
	case mir.RmwExchange:
		return "xchg"
	default:
		return "unknown"
	}
}

func decimalKindName(k mir.DecimalIntrinsicKind) string {
	switch k {
	case mir.DecimalAdd:
		return "add"
	case mir.DecimalSub:
		return "sub"
	case mir.DecimalMul:
		return "mul"
	case mir.DecimalDiv:
		return "div"
	case mir.DecimalFma:
		return "fma"
	default:
		return "unknown"
	}
}
