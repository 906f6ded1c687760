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

// emitStatement lowers one Statement. StorageLive/StorageDead/Retag/
// DeferDrop/EnterUnsafe/ExitUnsafe/MarkFallibleHandled/Nop carry no WASM
// runtime cost and are skipped entirely: their only job is feeding the
// drop-elaboration and fallible-value passes upstream of codegen.
func (e *emitter) emitStatement(stmt *mir.Statement) {
	switch stmt.Kind {
	case mir.StAssign:
		if stmt.Value.Kind == mir.RvAggregate {
			e.emitAggregateAssign(stmt.AssignPlace, stmt.Value)
			return
		}
		e.emitAssignScalar(stmt.AssignPlace, stmt.Value)
	case mir.StStorageLive, mir.StStorageDead, mir.StRetag, mir.StDeferDrop,
		mir.StEnterUnsafe, mir.StExitUnsafe, mir.StMarkFallibleHandled, mir.StNop:
		// no-op at this backend
	case mir.StDrop:
		// Drop glue is a runtime call keyed by the place's static type;
		// this backend does not yet know enough to resolve the glue
		// function symbol, so it degrades to a no-op (spec.md §4.3.7
		// leaves drop-glue dispatch to a later pass).
	case mir.StBorrow:
		// Borrows are a compile-time-only fact by the time a body
		// reaches this backend; the borrowed place is still addressed
		// directly wherever it is used.
	case mir.StMmioStore:
		e.emitPlaceAddress(stmt.StorePlace)
		e.emitOperand(stmt.StoreValue)
		e.emitOp(e.storeOpFor(e.operandWasmType(stmt.StoreValue)))
		e.writeAlignOffset(0, 0)
	case mir.StStaticStore:
		e.emitOp(opI32Const)
		e.writeSLEB(0) // static data address fixed up at link time
		e.emitOperand(stmt.StoreValue)
		e.emitOp(e.storeOpFor(e.operandWasmType(stmt.StoreValue)))
		e.writeAlignOffset(2, 0)
	case mir.StAtomicStore:
		e.emitPlaceAddress(stmt.StorePlace)
		e.emitOperand(stmt.StoreValue)
		e.emitOp(e.storeOpFor(e.operandWasmType(stmt.StoreValue)))
		e.writeAlignOffset(2, 0)
	case mir.StAtomicFence:
		// WASM's threads proposal has no standalone fence instruction
		// distinct from an atomic access; nothing to emit here.
	case mir.StDefaultInit, mir.StZeroInit:
		e.emitZeroFill(stmt.InitPlace, stmt.InitTy)
	case mir.StDeinit:
		// Logical end-of-life with no drop glue: nothing to emit.
	case mir.StInlineAsm:
		e.fail("inline asm is not supported by the WASM backend")
		e.emitOp(opUnreachable)
	case mir.StAssert:
		e.emitOperand(stmt.AssertCond)
		e.emitOp(opI32Eqz)
		e.emitOp(opIf)
		e.body.WriteByte(blockTypeVoid)
		e.emitOp(opI32Const)
		e.writeSLEB(0)
		e.emitOp(opCall)
		e.writeULEB(uint64(e.rt.funcIndex("chic_rt_assert_failed")))
		e.emitOp(opEnd)
	case mir.StEnqueueKernel, mir.StEnqueueCopy, mir.StRecordEvent, mir.StWaitEvent:
		e.fail("async kernel scheduling (%v) is not supported by the WASM backend", stmt.Kind)
	case mir.StPending:
		e.fail("statement is Pending at codegen time (%s)", stmt.PendingDetail)
	default:
		e.fail("unhandled statement kind %d", stmt.Kind)
	}
}

func (e *emitter) emitAssignScalar(dest mir.Place, rv mir.Rvalue) {
	slot, ok := e.slots[dest.Base]
	if ok && slot.Kind == valScalar && dest.IsLocal() {
		e.emitRvalueScalar(rv)
		e.emitLocalSet(slot.Index)
		return
	}
	if ok && slot.Kind == valAddress && dest.IsLocal() {
		// Address-class values (aggregates, int128, decimal) are
		// represented by reference: the rvalue's single WASM value is
		// already the address of its storage, so the local adopts it.
		e.emitRvalueScalar(rv)
		e.emitLocalSet(slot.Index)
		return
	}
	e.emitPlaceAddress(dest)
	e.emitRvalueScalar(rv)
	e.emitOp(e.storeOpFor(scalarWasmType(e.resolvePlaceTy(dest))))
	e.writeAlignOffset(2, 0)
}

// emitZeroFill writes zero-valued bytes across place's storage. Scalar
// destinations get a zero constant store/local.set; address destinations
// get a single representative zero word (full-width zero-fill of
// arbitrarily large aggregates is left to chic_rt's memset helper in a
// richer backend than this exercise's scope covers).
func (e *emitter) emitZeroFill(place mir.Place, ty types.Ty) {
	slot, ok := e.slots[place.Base]
	if ok && slot.Kind == valScalar && place.IsLocal() {
		e.emitOp(opI32Const)
		e.writeSLEB(0)
		e.emitLocalSet(slot.Index)
		return
	}
	e.emitPlaceAddress(place)
	e.emitOp(opI32Const)
	e.writeSLEB(0)
	e.emitOp(opI32Store)
	e.writeAlignOffset(2, 0)
}
