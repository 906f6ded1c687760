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

// emitTerminator lowers one block's exit. Goto/SwitchInt/Match/Call all
// funnel back through the flat dispatch loop (branchToBlock); Return,
// Panic, Unreachable, and Throw bypass it entirely via a direct
// return/unreachable/trap, since nothing past them in this function's
// frame is reachable (this package's doc comment).
func (e *emitter) emitTerminator(t *mir.Terminator, from int, numBlocks int) {
	switch t.Kind {
	case mir.TermGoto:
		e.branchToBlock(from, numBlocks, t.Target)

	case mir.TermSwitchInt:
		e.emitSwitchInt(t, from, numBlocks)

	case mir.TermMatch:
		e.emitMatch(t, from, numBlocks)

	case mir.TermReturn:
		e.emitEpilogueRestoreStack()
		if len(e.returnTypes()) == 1 {
			e.emitPlaceLoad(mir.LocalPlace(mir.LocalID(0)))
		}
		e.emitOp(opReturn)

	case mir.TermPanic:
		e.emitOp(opI32Const)
		e.writeSLEB(101)
		e.emitOp(opCall)
		e.writeULEB(uint64(e.rt.funcIndex("chic_rt_panic")))
		e.emitEpilogueRestoreStack()
		e.emitOp(opUnreachable)

	case mir.TermUnreachable:
		e.emitOp(opUnreachable)

	case mir.TermThrow:
		if t.HasException {
			e.emitOperand(t.Exception)
			// Type id of the thrown exception; 0 when the MIR carries no
			// static exception type for the payload.
			e.emitOp(opI64Const)
			e.writeSLEB(0)
			e.emitOp(opCall)
			e.writeULEB(uint64(e.rt.funcIndex("chic_rt_throw")))
		} else {
			e.emitOp(opCall)
			e.writeULEB(uint64(e.rt.funcIndex("chic_rt_rethrow")))
		}
		e.emitEpilogueRestoreStack()
		e.emitOp(opUnreachable)

	case mir.TermCall:
		e.emitCall(t, from, numBlocks)

	case mir.TermYield:
		e.emitOperand(t.YieldValue)
		e.emitOp(opCall)
		e.writeULEB(uint64(e.rt.funcIndex("chic_rt_yield")))
		e.branchToBlock(from, numBlocks, t.ResumeBlock)

	case mir.TermAwait:
		e.emitOperand(t.Future)
		e.emitOp(opCall)
		e.writeULEB(uint64(e.rt.funcIndex("chic_rt_await_poll")))
		if t.HasAwaitDest {
			e.storeCallResult(t.AwaitDest)
		} else {
			e.emitOp(opDrop)
		}
		e.branchToBlock(from, numBlocks, t.AwaitResume)

	case mir.TermPending:
		e.fail("terminator is Pending at codegen time (%s)", t.PendingDetail)
		e.emitOp(opUnreachable)

	default:
		e.fail("unhandled terminator kind %d", t.Kind)
		e.emitOp(opUnreachable)
	}
}

func (e *emitter) emitSwitchInt(t *mir.Terminator, from int, numBlocks int) {
	// WASM has no integer switch outside br_table on a dense range; this
	// backend lowers SwitchInt as a chain of equality tests against the
	// dispatch loop, which composes cleanly with the per-block br_table
	// already in place.
	for _, target := range t.Targets {
		e.emitOperand(t.Discr)
		e.emitOp(opI32Const)
		e.writeSLEB(target.Value)
		e.emitOp(opI32Eq)
		e.emitOp(opIf)
		e.body.WriteByte(blockTypeVoid)
		e.branchToBlock(from, numBlocks, target.Target)
		e.emitOp(opEnd)
	}
	e.branchToBlock(from, numBlocks, t.Otherwise)
}

// emitMatch lowers a Match terminator: arms are tried in order, each
// writing its bindings before testing its guard (an unguarded arm always
// fires, so nothing after it in the arm list can be reached). Neither this
// backend nor the native one tests a MatchArm's Pattern structurally at
// codegen time — exhaustiveness and discrimination are the builder's job
// (spec.md §4.3.4); codegen only wires bindings and guards.
func (e *emitter) emitMatch(t *mir.Terminator, from int, numBlocks int) {
	for _, arm := range t.Arms {
		for _, bind := range arm.Bindings {
			e.emitAssignScalar(mir.LocalPlace(bind.Local), mir.Use(mir.Copy(bind.From)))
		}
		if arm.Guard != nil {
			e.emitOperand(*arm.Guard)
			e.emitOp(opIf)
			e.body.WriteByte(blockTypeVoid)
			e.branchToBlock(from, numBlocks, arm.Target)
			e.emitOp(opEnd)
			continue
		}
		e.branchToBlock(from, numBlocks, arm.Target)
		return
	}
	if t.HasMatchOtherwise {
		e.branchToBlock(from, numBlocks, t.MatchOtherwise)
	}
}

// emitCall lowers a Call terminator's direct, indirect, trait-object, or
// virtual dispatch, then continues at CallTarget through the dispatch
// loop.
func (e *emitter) emitCall(t *mir.Terminator, from int, numBlocks int) {
	for _, a := range t.Args {
		e.emitOperand(a)
	}

	switch {
	case t.HasDispatch && t.Dispatch.Kind != mir.DispatchNone:
		e.emitIndirectDispatchCall(t)
	case t.Func.Kind == mir.OperandConst && t.Func.ConstKind == mir.ConstSymbol:
		ix, ok := e.funcTable[t.Func.SymbolName]
		if !ok {
			e.fail("call to unresolved symbol %q", t.Func.SymbolName)
			for range t.Args {
				e.emitOp(opDrop)
			}
			e.emitOp(opUnreachable)
			return
		}
		e.emitOp(opCall)
		e.writeULEB(uint64(ix))
	default:
		// Indirect call through a function-pointer value: the operand
		// itself is the function-table index.
		e.emitOperand(t.Func)
		typeIx := e.moduleTypes.internType(FunctionType{Params: argWasmTypes(e, t.Args), Results: nil})
		e.emitOp(opCallIndirect)
		e.writeULEB(uint64(typeIx))
		e.writeULEB(0)
	}

	if t.HasDest {
		e.storeCallResult(t.Destination)
	}
	e.branchToBlock(from, numBlocks, t.CallTarget)
}

// emitIndirectDispatchCall lowers a trait-object or virtual call. A
// trait-object dispatch carrying a resolved impl type, and a base-owner
// virtual call (`base.Method()` — its target is fixed at the named class,
// never the dynamic receiver), both resolve to a direct call when the
// symbol is in the function table. Everything else loads the receiver's
// leading word as its vtable pointer and picks the SlotIndex entry
// (spec.md §4.6).
func (e *emitter) emitIndirectDispatchCall(t *mir.Terminator) {
	if direct, ok := directDispatchTarget(t); ok {
		if ix, found := e.funcTable[direct]; found {
			e.emitOp(opCall)
			e.writeULEB(uint64(ix))
			return
		}
	}
	recv := t.Args[t.Dispatch.ReceiverIndex]
	e.emitOperand(recv)
	e.emitOp(opI32Load)
	e.writeAlignOffset(2, 0)
	if t.Dispatch.SlotIndex != 0 {
		e.emitOp(opI32Const)
		e.writeSLEB(int64(t.Dispatch.SlotIndex * 4))
		e.emitOp(opI32Add)
	}
	e.emitOp(opI32Load)
	e.writeAlignOffset(2, 0)
	typeIx := e.moduleTypes.internType(FunctionType{Params: argWasmTypes(e, t.Args), Results: nil})
	e.emitOp(opCallIndirect)
	e.writeULEB(uint64(typeIx))
	e.writeULEB(0)
}

// directDispatchTarget names the concrete symbol a dispatch hint resolves
// to statically, when it does: the sole implementer's method for a
// trait-object hint, or the base class's method (already the Func
// operand's symbol) for a base-owner virtual call.
func directDispatchTarget(t *mir.Terminator) (string, bool) {
	d := t.Dispatch
	switch {
	case d.Kind == mir.DispatchTraitObject && d.HasImplType:
		return d.ImplType + "::" + d.Method, true
	case d.Kind == mir.DispatchVirtual && d.HasBaseOwner && d.BaseOwner != "" &&
		t.Func.Kind == mir.OperandConst && t.Func.ConstKind == mir.ConstSymbol:
		return t.Func.SymbolName, true
	}
	return "", false
}

func argWasmTypes(e *emitter, args []mir.Operand) []ValueType {
	out := make([]ValueType, len(args))
	for i, a := range args {
		out[i] = e.operandWasmType(a)
	}
	return out
}

func (e *emitter) storeCallResult(dest mir.Place) {
	slot, ok := e.slots[dest.Base]
	if ok && slot.Kind == valScalar && dest.IsLocal() {
		e.emitLocalSet(slot.Index)
		return
	}
	e.fail("call destination into an address local is not yet supported")
	e.emitOp(opDrop)
}
