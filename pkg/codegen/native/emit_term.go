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
	"github.com/chic-lang/chic-core/pkg/types"
)

func (e *emitter) emitTerminator(t *mir.Terminator, sret bool) {
	switch t.Kind {
	case mir.TermGoto:
		e.emit("br label %%%s", blockLabel(t.Target))
	case mir.TermSwitchInt:
		e.emitSwitchInt(t)
	case mir.TermMatch:
		e.emitMatch(t)
	case mir.TermReturn:
		e.emitReturn(sret)
	case mir.TermPanic:
		e.emit("call void @chic_rt_panic()")
		e.emit("unreachable")
	case mir.TermUnreachable:
		e.emit("unreachable")
	case mir.TermThrow:
		if t.HasException {
			v := e.operandValue(t.Exception)
			e.emit("call void @chic_rt_throw(%s)", v)
		} else {
			e.emit("call void @chic_rt_rethrow()")
		}
		e.emit("unreachable")
	case mir.TermCall:
		e.emitCall(t)
	case mir.TermYield:
		v := e.operandValue(t.YieldValue)
		for _, p := range t.YieldDrop {
			addr := e.placeAddress(p)
			e.emit("call void @chic_rt_drop_glue(ptr %s)", addr)
		}
		e.emit("ret %s ; yield, resume=%s", v, blockLabel(t.ResumeBlock))
	case mir.TermAwait:
		fut := e.operandValue(t.Future)
		v := e.newReg()
		e.emit("%s = call i8 @chic_rt_await(%s)", v, fut)
		e.emit("br i1 %s, label %%%s, label %%pending.suspend", v, blockLabel(t.AwaitResume))
	case mir.TermPending:
		e.fail("terminator is Pending at codegen time (%s)", t.PendingDetail)
	default:
		e.fail("unhandled terminator kind %d", t.Kind)
	}
}

func (e *emitter) emitSwitchInt(t *mir.Terminator) {
	discr := e.operandValue(t.Discr)
	targets := ""
	for _, tgt := range t.Targets {
		targets += fmt.Sprintf(" i64 %d, label %%%s", tgt.Value, blockLabel(tgt.Target))
	}
	e.emit("switch %s, label %%%s [%s ]", discr, blockLabel(t.Otherwise), targets)
}

func (e *emitter) emitMatch(t *mir.Terminator) {
	val := e.operandValue(t.MatchValue)
	tagReg := e.newReg()
	e.emit("%s = load i32, ptr %s ; match discriminant", tagReg, val)
	for _, arm := range t.Arms {
		for _, b := range arm.Bindings {
			from := e.placeAddress(b.From)
			dst := e.localName(b.Local)
			e.emit("store ptr %s, ptr %s ; match binding", from, dst)
		}
		if arm.Guard != nil {
			g := e.operandValue(*arm.Guard)
			e.emit("br i1 %s, label %%%s, label %%match.next ; guard", g, blockLabel(arm.Target))
			e.emit("match.next:")
			continue
		}
		e.emit("br label %%%s ; arm %s", blockLabel(arm.Target), patternName(arm.Pattern))
	}
	if t.HasMatchOtherwise {
		e.emit("br label %%%s ; otherwise", blockLabel(t.MatchOtherwise))
	}
}

func patternName(p mir.Pattern) string {
	switch p.Kind {
	case mir.PatWildcard:
		return "_"
	case mir.PatIntLiteral:
		return fmt.Sprintf("%d", p.IntValue)
	case mir.PatBoolLiteral:
		return fmt.Sprintf("%t", p.BoolValue)
	case mir.PatEnumVariant:
		return p.Variant
	default:
		return "pattern"
	}
}

func (e *emitter) emitReturn(sret bool) {
	if sret {
		e.emit("ret void ; sret")
		return
	}
	retTy := llvmTypeName(e.fn.Signature.Return)
	if e.fn.Signature.Return.Kind() == types.KindUnit {
		e.emit("ret void")
		return
	}
	v := e.newReg()
	e.emit("%s = load %s, ptr %%ret.slot", v, retTy)
	e.emit("ret %s %s", retTy, v)
}

// emitCall implements spec.md §4.5's call-lowering contracts: direct-call
// arity checking, indirect calls through a function pointer, void/non-void
// destination mismatch rejection, trait-object/virtual dispatch, and sret
// rewriting.
func (e *emitter) emitCall(t *mir.Terminator) {
	retTy := "void"
	if t.HasDest {
		retTy = "i64" // destination type is not threaded through Terminator; treat as opaque scalar/ptr
	}

	dispatch := t.Dispatch
	if !t.HasDispatch {
		dispatch = mir.CallDispatch{Kind: mir.DispatchNone}
	}

	switch dispatch.Kind {
	case mir.DispatchNone:
		e.emitDirectOrIndirectCall(t, retTy)
	case mir.DispatchTraitObject:
		e.emitTraitObjectCall(t, dispatch, retTy)
	case mir.DispatchVirtual:
		e.emitVirtualCall(t, dispatch, retTy)
	}

	e.emit("br label %%%s", blockLabel(t.CallTarget))
}

// emitDirectOrIndirectCall handles the DispatchNone case: a direct symbol
// call when Func is a Const(Symbol), or an indirect call through a
// function-pointer bitcast otherwise (spec.md §4.5).
func (e *emitter) emitDirectOrIndirectCall(t *mir.Terminator, retTy string) {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = e.operandValue(a)
	}

	if t.Func.Kind == mir.OperandConst && t.Func.ConstKind == mir.ConstSymbol {
		if fn, ok := e.module.FunctionByName(t.Func.SymbolName); ok {
			want := len(fn.Signature.Params)
			if want != len(t.Args) {
				e.fail("direct call expects %d arguments but %d were provided", want, len(t.Args))
				return
			}
			if !e.checkVoidMismatch(t, fn.Signature.Return) {
				return
			}
		}
		e.emitDestAssignedTo(t, retTy, "call %s @%s(%s)", retTy, t.Func.SymbolName, joinArgs(args))
		return
	}

	// Indirect call: bitcast the callee operand to the signature's
	// function-pointer type, then call through it (spec.md §4.5).
	callee := e.operandValue(t.Func)
	fnptr := e.newReg()
	e.emit("%s = bitcast %s to ptr", fnptr, callee)
	e.emitDestAssignedTo(t, retTy, "call %s %s(%s)", retTy, fnptr, joinArgs(args))
}

// emitTraitObjectCall loads the vtable pointer from the receiver's fat
// pointer and dispatches through the resolved slot, unless an impl_type is
// known, in which case it lowers as a direct call (spec.md §4.3.5, §4.5).
func (e *emitter) emitTraitObjectCall(t *mir.Terminator, d mir.CallDispatch, retTy string) {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = e.operandValue(a)
	}
	if d.HasImplType {
		sym := fmt.Sprintf("%s.%s", d.ImplType, d.Method)
		e.emitDestAssignedTo(t, retTy, "call %s @%s(%s) ; trait object, resolved to %s", retTy, sym, joinArgs(args), d.TraitName)
		return
	}
	if d.ReceiverIndex < 0 || d.ReceiverIndex >= len(t.Args) {
		e.fail("trait object call receiver index %d out of range", d.ReceiverIndex)
		return
	}
	receiver := args[d.ReceiverIndex]
	vtable := e.newReg()
	e.emit("%s = extractvalue %s, 1 ; vtable ptr", vtable, receiver)
	slot := e.newReg()
	e.emit("%s = getelementptr inbounds, ptr %s, i64 %d", slot, vtable, d.SlotIndex)
	fnptr := e.newReg()
	e.emit("%s = load ptr, ptr %s", fnptr, slot)
	bc := e.newReg()
	e.emit("%s = bitcast ptr %s to ptr ; %s.%s", bc, fnptr, d.TraitName, d.Method)
	e.emitDestAssignedTo(t, retTy, "call %s %s(%s)", retTy, bc, joinArgs(args))
}

// emitVirtualCall loads a vtable pointer from the receiver (projecting the
// object header, or resolving a direct symbol when impl_type is known) and
// dispatches through the slot; base_owner redirects to a named class's
// vtable instead of the dynamic receiver's (spec.md §4.5, §9).
func (e *emitter) emitVirtualCall(t *mir.Terminator, d mir.CallDispatch, retTy string) {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = e.operandValue(a)
	}
	if d.HasImplType {
		sym := fmt.Sprintf("%s.%s", d.ImplType, d.Method)
		e.emitDestAssignedTo(t, retTy, "call %s @%s(%s) ; virtual, resolved to %s", retTy, sym, joinArgs(args), d.ImplType)
		return
	}
	if d.ReceiverIndex < 0 || d.ReceiverIndex >= len(t.Args) {
		e.fail("virtual call receiver index %d out of range", d.ReceiverIndex)
		return
	}
	receiver := args[d.ReceiverIndex]
	vtable := e.newReg()
	if d.HasBaseOwner {
		e.emit("%s = load ptr, ptr @vtable.%s ; base-qualified call", vtable, d.BaseOwner)
	} else {
		header := e.newReg()
		e.emit("%s = getelementptr inbounds, ptr %s, i32 0, i32 0 ; object header", header, receiver)
		e.emit("%s = load ptr, ptr %s ; vtable ptr", vtable, header)
	}
	slot := e.newReg()
	e.emit("%s = getelementptr inbounds, ptr %s, i64 %d", slot, vtable, d.SlotIndex)
	fnptr := e.newReg()
	e.emit("%s = load ptr, ptr %s", fnptr, slot)
	e.emitDestAssignedTo(t, retTy, "call %s %s(%s)", retTy, fnptr, joinArgs(args))
}

// checkVoidMismatch enforces spec.md §4.5's "Void destinations on non-void
// calls and non-void destinations on void calls are both rejected" rule. It
// reports false (and records a CodegenError) when the call must not be
// emitted.
func (e *emitter) checkVoidMismatch(t *mir.Terminator, calleeReturn types.Ty) bool {
	calleeVoid := calleeReturn.Kind() == types.KindUnit
	switch {
	case t.HasDest && calleeVoid:
		e.fail("non-void destination supplied for a void call")
		return false
	case !t.HasDest && !calleeVoid:
		e.fail("void destination supplied for a call returning %s", calleeReturn.CanonicalName())
		return false
	}
	return true
}

// emitDestAssignedTo emits one call instruction, wiring its result into the
// call terminator's destination place when present.
func (e *emitter) emitDestAssignedTo(t *mir.Terminator, retTy, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if retTy == "void" || !t.HasDest {
		e.emit("%s", line)
		return
	}
	v := e.newReg()
	e.emit("%s = %s", v, line)
	addr := e.placeAddress(t.Destination)
	e.emit("store %s %s, ptr %s", retTy, v, addr)
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}
