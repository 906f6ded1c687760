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
package wasm

import (
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/types"
)

// resolvePlaceTy walks p's projection chain purely to recover the type at
// the end of it, without emitting any address arithmetic; used to pick
// the right WASM value type/opcode family for loads, stores, and binary
// ops. Best-effort: an unresolved projection just returns the base's
// declared type.
func (e *emitter) resolvePlaceTy(p mir.Place) types.Ty {
	ty := e.localTy(p.Base)
	for _, proj := range p.Projections {
		switch proj.Kind {
		case mir.ProjField, mir.ProjNamedField:
			_, fieldTy, ok := e.fieldOffsetQuiet(ty, proj)
			if !ok {
				return ty
			}
			ty = fieldTy
		case mir.ProjDeref:
			ty = ty.Elem()
		case mir.ProjConstIndex, mir.ProjDynIndex:
			ty = ty.Elem()
		default:
			return ty
		}
	}
	return ty
}

func (e *emitter) fieldOffsetQuiet(owner types.Ty, proj mir.ProjectionElem) (uint64, types.Ty, bool) {
	return e.fieldOffset(owner, proj)
}

func (e *emitter) operandWasmType(op mir.Operand) ValueType {
	switch op.Kind {
	case mir.OperandConst:
		return scalarWasmType(op.ConstTy)
	case mir.OperandCopy, mir.OperandMove, mir.OperandMmio:
		return scalarWasmType(e.resolvePlaceTy(op.Place))
	default:
		return ValueTypeI32
	}
}

func (e *emitter) storeOpFor(t ValueType) byte {
	switch t {
	case ValueTypeI64:
		return opI64Store
	case ValueTypeF32:
		return opF32Store
	case ValueTypeF64:
		return opF64Store
	default:
		return opI32Store
	}
}

func (e *emitter) loadOpFor(t ValueType) byte {
	switch t {
	case ValueTypeI64:
		return opI64Load
	case ValueTypeF32:
		return opF32Load
	case ValueTypeF64:
		return opF64Load
	default:
		return opI32Load
	}
}

// emitRvalueScalar pushes the single WASM value rv produces. RvAggregate
// is handled separately by emitAggregateAssign since it has no single
// scalar value.
func (e *emitter) emitRvalueScalar(rv mir.Rvalue) {
	switch rv.Kind {
	case mir.RvUse:
		e.emitOperand(rv.Operand)
	case mir.RvBinary:
		e.emitBinary(rv)
	case mir.RvUnary:
		e.emitUnary(rv)
	case mir.RvAddressOf:
		e.emitPlaceAddress(rv.Place)
	case mir.RvCast:
		e.emitCast(rv)
	case mir.RvStaticLoad:
		e.emitOp(opI32Const)
		e.writeSLEB(0) // static data address fixed up at link time
		e.emitOp(e.loadOpFor(scalarWasmType(rv.StaticTy)))
		e.writeAlignOffset(2, 0)
	case mir.RvStaticRef:
		e.emitOp(opI32Const)
		e.writeSLEB(0)
	case mir.RvAtomicLoad:
		e.emitPlaceAddress(rv.AtomicPlace)
		e.emitOp(e.loadOpFor(scalarWasmType(e.resolvePlaceTy(rv.AtomicPlace))))
		e.writeAlignOffset(2, 0)
	case mir.RvNumericIntrinsic:
		for _, a := range rv.NumericArgs {
			e.emitOperand(a)
		}
		e.emitOp(opI32Const)
		e.writeSLEB(int64(rv.NumericKind))
		e.emitOp(opCall)
		e.writeULEB(uint64(e.rt.funcIndex("chic_rt_numeric_op")))
	case mir.RvDecimalIntrinsic:
		e.emitOperand(rv.DecimalLHS)
		e.emitOperand(rv.DecimalRHS)
		e.emitOp(opI32Const)
		e.writeSLEB(int64(rv.DecimalKind))
		e.emitOp(opCall)
		e.writeULEB(uint64(e.rt.funcIndex("chic_rt_decimal_op")))
	case mir.RvLen:
		e.fail("span/array length is not yet lowered by this backend")
		e.emitOp(opI32Const)
		e.writeSLEB(0)
	case mir.RvAggregate:
		e.fail("RvAggregate has no single scalar value; use emitAggregateAssign")
		e.emitOp(opI32Const)
		e.writeSLEB(0)
	case mir.RvPending:
		e.fail("rvalue is Pending at codegen time (%s)", rv.PendingDetail)
		e.emitOp(opI32Const)
		e.writeSLEB(0)
	default:
		e.fail("unhandled rvalue kind %d", rv.Kind)
		e.emitOp(opI32Const)
		e.writeSLEB(0)
	}
}

func (e *emitter) emitBinary(rv mir.Rvalue) {
	if e.operandIsInt128(rv.LHS) {
		e.emitInt128Binary(rv)
		return
	}
	wt := e.operandWasmType(rv.LHS)
	e.emitOperand(rv.LHS)
	e.emitOperand(rv.RHS)
	op, ok := binOpcode(rv.BinOp, wt)
	if !ok {
		e.fail("unhandled binary op %d for wasm type %d", rv.BinOp, wt)
		e.emitOp(opDrop)
		e.emitOp(opDrop)
		e.emitOp(opI32Const)
		e.writeSLEB(0)
		return
	}
	e.emitOp(op)
}

// operandIsInt128 reports whether op's static type is the 128-bit integer
// shape, which has no scalar WASM representation: values are addresses of
// 16-byte linear-memory slots (spec.md §4.6).
func (e *emitter) operandIsInt128(op mir.Operand) bool {
	var ty types.Ty
	switch op.Kind {
	case mir.OperandConst:
		ty = op.ConstTy
	case mir.OperandCopy, mir.OperandMove, mir.OperandMmio:
		ty = e.resolvePlaceTy(op.Place)
	default:
		return false
	}
	return tyIsInt128(ty)
}

// emitInt128Binary dispatches 128-bit arithmetic to the runtime hooks:
// arithmetic and bitwise ops take both slot addresses plus an op code and
// return the result slot's address; comparisons go through the three-way
// chic_rt_i128_cmp and compare its result against zero (spec.md §4.6).
func (e *emitter) emitInt128Binary(rv mir.Rvalue) {
	e.emitOperand(rv.LHS)
	e.emitOperand(rv.RHS)
	if code, ok := i128OpCode(rv.BinOp); ok {
		e.emitOp(opI32Const)
		e.writeSLEB(code)
		e.emitOp(opCall)
		e.writeULEB(uint64(e.rt.funcIndex("chic_rt_i128_op")))
		return
	}
	if cmpOp, ok := binOpcode(rv.BinOp, ValueTypeI32); ok {
		e.emitOp(opCall)
		e.writeULEB(uint64(e.rt.funcIndex("chic_rt_i128_cmp")))
		e.emitOp(opI32Const)
		e.writeSLEB(0)
		e.emitOp(cmpOp)
		return
	}
	e.fail("unhandled int128 binary op %d", rv.BinOp)
	e.emitOp(opDrop)
	e.emitOp(opDrop)
	e.emitOp(opI32Const)
	e.writeSLEB(0)
}

// i128OpCode maps an arithmetic/bitwise BinOp onto the op discriminant
// chic_rt_i128_op dispatches on; pkg/wasmexec's host implementation must
// use the same numbering. Comparison ops return false: they route through
// chic_rt_i128_cmp instead.
func i128OpCode(op mir.BinOp) (int64, bool) {
	switch op {
	case mir.BinAdd:
		return 0, true
	case mir.BinSub:
		return 1, true
	case mir.BinMul:
		return 2, true
	case mir.BinDiv:
		return 3, true
	case mir.BinRem:
		return 4, true
	case mir.BinAnd:
		return 5, true
	case mir.BinOr:
		return 6, true
	case mir.BinXor:
		return 7, true
	case mir.BinShl:
		return 8, true
	case mir.BinShr:
		return 9, true
	default:
		return 0, false
	}
}

func binOpcode(op mir.BinOp, wt ValueType) (byte, bool) {
	if wt == ValueTypeI64 {
		switch op {
		case mir.BinAdd:
			return opI64Add, true
		case mir.BinSub:
			return opI64Sub, true
		case mir.BinMul:
			return opI64Mul, true
		case mir.BinDiv:
			return opI64DivS, true
		case mir.BinRem:
			return opI64RemS, true
		case mir.BinAnd:
			return opI64And, true
		case mir.BinOr:
			return opI64Or, true
		case mir.BinXor:
			return opI64Xor, true
		case mir.BinShl:
			return opI64Shl, true
		case mir.BinShr:
			return opI64ShrS, true
		case mir.BinEq:
			return opI64Eq, true
		case mir.BinNe:
			return opI64Ne, true
		case mir.BinLt:
			return opI64LtS, true
		case mir.BinLe:
			return opI64LeS, true
		case mir.BinGt:
			return opI64GtS, true
		case mir.BinGe:
			return opI64GeS, true
		}
		return 0, false
	}
	if wt == ValueTypeF32 || wt == ValueTypeF64 {
		base := map[mir.BinOp]struct{ f32, f64 byte }{
			mir.BinAdd: {opF32Add, opF64Add},
			mir.BinSub: {opF32Sub, opF64Sub},
			mir.BinMul: {opF32Mul, opF64Mul},
			mir.BinDiv: {opF32Div, opF64Div},
		}
		b, ok := base[op]
		if !ok {
			return 0, false
		}
		if wt == ValueTypeF64 {
			return b.f64, true
		}
		return b.f32, true
	}
	switch op {
	case mir.BinAdd:
		return opI32Add, true
	case mir.BinSub:
		return opI32Sub, true
	case mir.BinMul:
		return opI32Mul, true
	case mir.BinDiv:
		return opI32DivS, true
	case mir.BinRem:
		return opI32RemS, true
	case mir.BinAnd:
		return opI32And, true
	case mir.BinOr:
		return opI32Or, true
	case mir.BinXor:
		return opI32Xor, true
	case mir.BinShl:
		return opI32Shl, true
	case mir.BinShr:
		return opI32ShrS, true
	case mir.BinEq:
		return opI32Eq, true
	case mir.BinNe:
		return opI32Ne, true
	case mir.BinLt:
		return opI32LtS, true
	case mir.BinLe:
		return opI32LeS, true
	case mir.BinGt:
		return opI32GtS, true
	case mir.BinGe:
		return opI32GeS, true
	}
	return 0, false
}

func (e *emitter) emitUnary(rv mir.Rvalue) {
	if e.operandIsInt128(rv.UnaryOperand) {
		e.emitOperand(rv.UnaryOperand)
		e.emitOp(opI32Const)
		if rv.UnOp == mir.UnBitNot {
			e.writeSLEB(1)
		} else {
			e.writeSLEB(0) // negate
		}
		e.emitOp(opCall)
		e.writeULEB(uint64(e.rt.funcIndex("chic_rt_i128_unop")))
		return
	}
	wt := e.operandWasmType(rv.UnaryOperand)
	switch rv.UnOp {
	case mir.UnNeg:
		if wt == ValueTypeI64 {
			e.emitOp(opI64Const)
			e.writeSLEB(0)
			e.emitOperand(rv.UnaryOperand)
			e.emitOp(opI64Sub)
		} else {
			e.emitOp(opI32Const)
			e.writeSLEB(0)
			e.emitOperand(rv.UnaryOperand)
			e.emitOp(opI32Sub)
		}
	case mir.UnNot:
		e.emitOperand(rv.UnaryOperand)
		e.emitOp(opI32Eqz)
	case mir.UnBitNot:
		e.emitOperand(rv.UnaryOperand)
		e.emitOp(opI32Const)
		e.writeSLEB(-1)
		e.emitOp(opI32Xor)
	default:
		e.fail("unhandled unary op %d", rv.UnOp)
		e.emitOperand(rv.UnaryOperand)
	}
}

// emitCast lowers the numeric/pointer casts this backend implements;
// string/trait-object/nullable casts are left to a richer pass than this
// exercise's scope covers.
func (e *emitter) emitCast(rv mir.Rvalue) {
	if tyIsInt128(rv.TargetTy) && !e.operandIsInt128(rv.CastOperand) {
		// Widening into int128: extend the scalar to i64, then box it into
		// a 16-byte slot via the runtime, which sign- or zero-extends the
		// high half (spec.md §4.6).
		e.emitOperand(rv.CastOperand)
		if e.operandWasmType(rv.CastOperand) != ValueTypeI64 {
			if isUnsignedNamed(rv.CastOperand) {
				e.emitOp(opI64ExtendI32U)
			} else {
				e.emitOp(opI64ExtendI32S)
			}
		}
		e.emitOp(opI32Const)
		if rv.TargetTy.Name() == "Std::UInt128" {
			e.writeSLEB(0)
		} else {
			e.writeSLEB(1)
		}
		e.emitOp(opCall)
		e.writeULEB(uint64(e.rt.funcIndex("chic_rt_i128_from_i64")))
		return
	}
	if e.operandIsInt128(rv.CastOperand) && !tyIsInt128(rv.TargetTy) {
		// Narrowing out of int128: the runtime hands back the low i64,
		// wrapped further down if the target is 32-bit.
		e.emitOperand(rv.CastOperand)
		e.emitOp(opCall)
		e.writeULEB(uint64(e.rt.funcIndex("chic_rt_i128_to_i64")))
		if scalarWasmType(rv.TargetTy) != ValueTypeI64 {
			e.emitOp(opI32WrapI64)
		}
		return
	}
	fromWt := e.operandWasmType(rv.CastOperand)
	toWt := scalarWasmType(rv.TargetTy)
	e.emitOperand(rv.CastOperand)
	switch {
	case rv.CastKind == mir.CastPointer:
		// Pointers are already i32; nothing to do.
	case fromWt == ValueTypeI64 && toWt == ValueTypeI32:
		e.emitOp(opI32WrapI64)
	case fromWt == ValueTypeI32 && toWt == ValueTypeI64:
		if isUnsignedNamed(rv.CastOperand) {
			e.emitOp(opI64ExtendI32U)
		} else {
			e.emitOp(opI64ExtendI32S)
		}
	default:
		// Same-width reinterpretation (e.g. bool<->i32, i8/i16 widened
		// to i32 already): no conversion instruction needed.
	}
}

func tyIsInt128(ty types.Ty) bool {
	if ty.Kind() != types.KindNamed {
		return false
	}
	name := ty.Name()
	return name == "Std::Int128" || name == "Std::UInt128"
}

func isUnsignedNamed(op mir.Operand) bool {
	name := ""
	if op.Kind == mir.OperandConst {
		name = op.ConstTy.Name()
	}
	switch name {
	case "Std::UInt8", "Std::UInt16", "Std::UInt32", "Std::UInt64":
		return true
	default:
		return false
	}
}
