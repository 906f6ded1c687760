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

import "github.com/chic-lang/chic-core/pkg/mir"

// emitOperand pushes op's value: a scalar local.get, a load from an
// address local/place, or an immediate const.
func (e *emitter) emitOperand(op mir.Operand) {
	switch op.Kind {
	case mir.OperandCopy, mir.OperandMove:
		e.emitPlaceLoad(op.Place)
	case mir.OperandMmio:
		e.emitPlaceLoad(op.Place)
	case mir.OperandBorrowOp:
		e.emitPlaceAddress(op.Place)
	case mir.OperandConst:
		e.emitConst(op)
	case mir.OperandPending:
		e.fail("operand is Pending at codegen time")
		e.emitOp(opI32Const)
		e.writeSLEB(0)
	default:
		e.fail("unhandled operand kind %d", op.Kind)
		e.emitOp(opI32Const)
		e.writeSLEB(0)
	}
}

// emitPlaceLoad pushes the value a place names: for a bare local, the
// scalar local itself or the address local's pointer value (aggregates
// are passed/read by reference); for a projected place into an address
// local, the address followed by a typed load.
func (e *emitter) emitPlaceLoad(p mir.Place) {
	slot, ok := e.slots[p.Base]
	if !ok {
		e.fail("local %d has no slot", p.Base)
		e.emitOp(opI32Const)
		e.writeSLEB(0)
		return
	}
	if slot.Kind == valScalar && p.IsLocal() {
		e.emitLocalGet(slot.Index)
		return
	}
	if slot.Kind == valAddress && p.IsLocal() {
		// Aggregates are represented by reference: reading the bare
		// place yields its address, same as RvAddressOf would.
		e.emitLocalGet(slot.Index)
		return
	}
	e.emitPlaceAddress(p)
	e.emitOp(e.loadOpFor(scalarWasmType(e.resolvePlaceTy(p))))
	e.writeAlignOffset(2, 0)
}

func (e *emitter) emitConst(op mir.Operand) {
	switch op.ConstKind {
	case mir.ConstBool:
		e.emitOp(opI32Const)
		if op.BoolVal {
			e.writeSLEB(1)
		} else {
			e.writeSLEB(0)
		}
	case mir.ConstInt:
		if tyIsInt128(op.ConstTy) {
			// Declared width > 64 forces the int128 path: the literal's
			// 64 low bits are boxed into a 16-byte slot and the high half
			// sign- or zero-extended by the runtime (spec.md §4.6.1).
			e.emitOp(opI64Const)
			e.writeSLEB(op.IntVal)
			e.emitOp(opI32Const)
			if op.ConstTy.Name() == "Std::UInt128" {
				e.writeSLEB(0)
			} else {
				e.writeSLEB(1)
			}
			e.emitOp(opCall)
			e.writeULEB(uint64(e.rt.funcIndex("chic_rt_i128_from_i64")))
		} else if scalarWasmType(op.ConstTy) == ValueTypeI64 {
			e.emitOp(opI64Const)
			e.writeSLEB(op.IntVal)
		} else {
			e.emitOp(opI32Const)
			e.writeSLEB(op.IntVal)
		}
	case mir.ConstFloat:
		if scalarWasmType(op.ConstTy) == ValueTypeF64 {
			e.emitOp(opF64Const)
			writeFloat64(&e.body, op.FloatVal)
		} else {
			e.emitOp(opF32Const)
			writeFloat32(&e.body, float32(op.FloatVal))
		}
	case mir.ConstNull, mir.ConstUnit:
		e.emitOp(opI32Const)
		e.writeSLEB(0)
	case mir.ConstSymbol:
		// A module-defined function lowers to its table slot, which equals
		// its function index; any other symbol lowers to 0.
		e.emitOp(opI32Const)
		e.writeSLEB(int64(e.funcTable[op.SymbolName]))
	case mir.ConstString:
		// Resolves to a data-segment offset fixed up by the linker; this
		// backend emits a placeholder immediate (spec.md §6 "Symbol
		// resolution" happens downstream of codegen).
		e.emitOp(opI32Const)
		e.writeSLEB(0)
	case mir.ConstPending:
		e.fail("constant is Pending at codegen time")
		e.emitOp(opI32Const)
		e.writeSLEB(0)
	default:
		e.fail("unhandled const kind %d", op.ConstKind)
		e.emitOp(opI32Const)
		e.writeSLEB(0)
	}
}
