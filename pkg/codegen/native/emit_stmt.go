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

import "github.com/chic-lang/chic-core/pkg/mir"

func (e *emitter) emitStatement(s *mir.Statement) {
	switch s.Kind {
	case mir.StNop:
		return
	case mir.StAssign:
		v := e.emitRvalue(s.Value)
		addr := e.placeAddress(s.AssignPlace)
		e.emit("store %s, ptr %s", v, addr)
	case mir.StStorageLive:
		e.emit("; storage.live %s", e.localName(s.Local))
	case mir.StStorageDead:
		e.emit("; storage.dead %s", e.localName(s.Local))
	case mir.StDrop:
		addr := e.placeAddress(s.DropPlace)
		e.emit("call void @chic_rt_drop_glue(ptr %s)", addr)
		e.emit("br label %%%s", blockLabel(s.TargetBlock))
	case mir.StBorrow:
		src := e.placeAddress(s.BorrowSource)
		dst := e.placeAddress(s.BorrowDest)
		e.emit("store ptr %s, ptr %s ; borrow region=%d id=%d", src, dst, s.Region, s.BorrowID)
	case mir.StMmioStore:
		v := e.operandValue(s.StoreValue)
		addr := e.placeAddress(s.StorePlace)
		e.emit("store volatile %s, ptr %s", v, addr)
	case mir.StStaticStore:
		v := e.operandValue(s.StoreValue)
		e.emit("store %s, ptr @%s", v, s.StaticName)
	case mir.StAtomicStore:
		v := e.operandValue(s.StoreValue)
		addr := e.placeAddress(s.StorePlace)
		e.emit("store atomic %s, ptr %s %s", v, addr, orderingName(s.Ordering))
	case mir.StAtomicFence:
		e.emit("fence %s", orderingName(s.FenceOrdering))
	case mir.StDefaultInit:
		addr := e.placeAddress(s.InitPlace)
		e.emit("call void @chic_rt_default_init(ptr %s, ptr @typeinfo.%s)", addr, s.InitTy.CanonicalName())
	case mir.StZeroInit:
		addr := e.placeAddress(s.InitPlace)
		size, _, _ := e.layouts.SizeAndAlignForTy(s.InitTy)
		e.emit("call void @llvm.memset.p0.i64(ptr %s, i8 0, i64 %d, i1 false)", addr, size)
	case mir.StMarkFallibleHandled:
		e.emit("; fallible.handled %s", e.localName(s.Local))
	case mir.StRetag:
		addr := e.placeAddress(s.RetagPlace)
		e.emit("call void @chic_rt_retag(ptr %s)", addr)
	case mir.StDeferDrop:
		addr := e.placeAddress(s.DeferPlace)
		e.emit("; defer.drop %s", addr)
	case mir.StDeinit:
		addr := e.placeAddress(s.InitPlace)
		e.emit("; deinit %s", addr)
	case mir.StEnterUnsafe:
		e.emit("; unsafe.enter")
	case mir.StExitUnsafe:
		e.emit("; unsafe.exit")
	case mir.StInlineAsm:
		e.emit("call void asm %q", s.AsmText)
	case mir.StAssert:
		cond := e.operandValue(s.AssertCond)
		e.emit("call void @chic_rt_assert(%s, ptr @.str.%q)", cond, s.AssertMessage)
	case mir.StEnqueueKernel:
		e.emit("call void @chic_rt_enqueue_kernel(ptr @%s)", s.KernelName)
	case mir.StEnqueueCopy:
		v := e.operandValue(s.CopySrc)
		dst := e.placeAddress(s.CopyDst)
		e.emit("call void @chic_rt_enqueue_copy(%s, ptr %s)", v, dst)
	case mir.StRecordEvent:
		e.emit("call void @chic_rt_record_event(ptr @.str.%q)", s.EventName)
	case mir.StWaitEvent:
		e.emit("call void @chic_rt_wait_event(ptr @.str.%q)", s.EventName)
	case mir.StPending:
		e.fail("statement is Pending at codegen time (%s: %s)", s.PendingKind, s.PendingDetail)
	default:
		e.fail("unhandled statement kind %d", s.Kind)
	}
}

func orderingName(o mir.AtomicOrdering) string {
	switch o {
	case mir.OrderRelaxed:
		return "monotonic"
	case mir.OrderAcquire:
		return "acquire"
	case mir.OrderRelease:
		return "release"
	case mir.OrderAcqRel:
		return "acq_rel"
	default:
		return "seq_cst"
	}
}
