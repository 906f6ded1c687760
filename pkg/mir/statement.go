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

import (
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/types"
)

// StatementKind discriminates the shape of a Statement.
type StatementKind uint8

// The statement shapes spec.md §3 "Statement" lists. StPending marks a
// placeholder the builder has not finished lowering; no verified body may
// contain one (spec.md §8).
const (
	StAssign StatementKind = iota
	StStorageLive
	StStorageDead
	StDrop
	StBorrow
	StMmioStore
	StStaticStore
	StAtomicStore
	StAtomicFence
	StDefaultInit
	StZeroInit
	StMarkFallibleHandled
	StRetag
	StDeferDrop
	StDeinit
	StEnterUnsafe
	StExitUnsafe
	StInlineAsm
	StAssert
	StEnqueueKernel
	StEnqueueCopy
	StRecordEvent
	StWaitEvent
	StNop
	StPending
)

// Statement is one effectful step within a BasicBlock (spec.md §3
// "Statement"). Every statement carries an optional span; a missing span
// on anything but StNop is a verification error (spec.md §3).
type Statement struct {
	Kind    StatementKind
	Span    diag.Span
	HasSpan bool

	// StAssign
	AssignPlace Place
	Value       Rvalue

	// StStorageLive / StStorageDead / StMarkFallibleHandled
	Local LocalID

	// StDrop
	DropPlace   Place
	TargetBlock BlockID
	UnwindBlock BlockID
	HasUnwind   bool

	// StBorrow
	BorrowDest   Place
	BorrowSource Place
	BorrowKind   BorrowKind
	Region       RegionVar
	BorrowID     BorrowID

	// StMmioStore / StStaticStore / StAtomicStore
	StorePlace Place
	StoreValue Operand
	StaticName string
	Ordering   AtomicOrdering

	// StAtomicFence
	FenceOrdering AtomicOrdering

	// StDefaultInit / StZeroInit / StDeinit
	InitPlace Place
	InitTy    types.Ty

	// StRetag
	RetagPlace Place

	// StDeferDrop
	DeferPlace Place

	// StInlineAsm
	AsmText    string
	AsmInputs  []Operand
	AsmOutputs []Place

	// StAssert
	AssertCond    Operand
	AssertMessage string

	// StEnqueueKernel / StEnqueueCopy / StRecordEvent / StWaitEvent
	KernelName string
	KernelArgs []Operand
	CopySrc    Operand
	CopyDst    Place
	EventName  string

	// StPending
	PendingDetail string
	PendingKind   string
}

// Assign builds `place = value`.
func Assign(span diag.Span, place Place, value Rvalue) Statement {
	return Statement{Kind: StAssign, Span: span, HasSpan: true, AssignPlace: place, Value: value}
}

// StorageLive marks a local's storage as beginning to live.
func StorageLive(span diag.Span, local LocalID) Statement {
	return Statement{Kind: StStorageLive, Span: span, HasSpan: true, Local: local}
}

// StorageDead marks a local's storage as ending.
func StorageDead(span diag.Span, local LocalID) Statement {
	return Statement{Kind: StStorageDead, Span: span, HasSpan: true, Local: local}
}

// DropStmt runs drop glue over a place, branching to target (and unwind, if
// a cleanup path exists).
func DropStmt(span diag.Span, place Place, target BlockID, unwind BlockID, hasUnwind bool) Statement {
	return Statement{Kind: StDrop, Span: span, HasSpan: true, DropPlace: place, TargetBlock: target, UnwindBlock: unwind, HasUnwind: hasUnwind}
}

// BorrowStmt records a borrow of source into dest under a fresh region and
// borrow id (spec.md §4.3.8).
func BorrowStmt(span diag.Span, dest, source Place, kind BorrowKind, region RegionVar, id BorrowID) Statement {
	return Statement{Kind: StBorrow, Span: span, HasSpan: true, BorrowDest: dest, BorrowSource: source, BorrowKind: kind, Region: region, BorrowID: id}
}

// MmioStore writes value directly to a memory-mapped place.
func MmioStore(span diag.Span, place Place, value Operand) Statement {
	return Statement{Kind: StMmioStore, Span: span, HasSpan: true, StorePlace: place, StoreValue: value}
}

// StaticStore writes value to a named top-level static.
func StaticStore(span diag.Span, name string, value Operand) Statement {
	return Statement{Kind: StStaticStore, Span: span, HasSpan: true, StaticName: name, StoreValue: value}
}

// AtomicStore writes value to place under the given memory ordering.
func AtomicStore(span diag.Span, place Place, value Operand, order AtomicOrdering) Statement {
	return Statement{Kind: StAtomicStore, Span: span, HasSpan: true, StorePlace: place, StoreValue: value, Ordering: order}
}

// AtomicFence emits a standalone memory fence.
func AtomicFence(span diag.Span, order AtomicOrdering) Statement {
	return Statement{Kind: StAtomicFence, Span: span, HasSpan: true, FenceOrdering: order}
}

// DefaultInit initializes place to its type's default value.
func DefaultInit(span diag.Span, place Place, ty types.Ty) Statement {
	return Statement{Kind: StDefaultInit, Span: span, HasSpan: true, InitPlace: place, InitTy: ty}
}

// ZeroInit initializes place to all-zero bytes.
func ZeroInit(span diag.Span, place Place, ty types.Ty) Statement {
	return Statement{Kind: StZeroInit, Span: span, HasSpan: true, InitPlace: place, InitTy: ty}
}

// MarkFallibleHandled clears the fallible-value tracking slot for local
// (spec.md §4.4.2).
func MarkFallibleHandled(span diag.Span, local LocalID) Statement {
	return Statement{Kind: StMarkFallibleHandled, Span: span, HasSpan: true, Local: local}
}

// Retag re-validates a pointer's provenance after it crosses an unsafe
// boundary.
func Retag(span diag.Span, place Place) Statement {
	return Statement{Kind: StRetag, Span: span, HasSpan: true, RetagPlace: place}
}

// DeferDrop schedules place's drop glue to run at scope exit rather than
// immediately (used by `using`/`lock`).
func DeferDrop(span diag.Span, place Place) Statement {
	return Statement{Kind: StDeferDrop, Span: span, HasSpan: true, DeferPlace: place}
}

// Deinit marks place's value as logically ended without running drop glue.
func Deinit(span diag.Span, place Place) Statement {
	return Statement{Kind: StDeinit, Span: span, HasSpan: true, InitPlace: place}
}

// EnterUnsafe opens an unsafe region.
func EnterUnsafe(span diag.Span) Statement { return Statement{Kind: StEnterUnsafe, Span: span, HasSpan: true} }

// ExitUnsafe closes an unsafe region.
func ExitUnsafe(span diag.Span) Statement { return Statement{Kind: StExitUnsafe, Span: span, HasSpan: true} }

// InlineAsm embeds raw assembly text with typed inputs/outputs.
func InlineAsm(span diag.Span, text string, inputs []Operand, outputs []Place) Statement {
	return Statement{Kind: StInlineAsm, Span: span, HasSpan: true, AsmText: text, AsmInputs: inputs, AsmOutputs: outputs}
}

// Assert checks cond at runtime, panicking with message on failure.
func Assert(span diag.Span, cond Operand, message string) Statement {
	return Statement{Kind: StAssert, Span: span, HasSpan: true, AssertCond: cond, AssertMessage: message}
}

// EnqueueKernel schedules an async compute kernel with the given name and
// arguments.
func EnqueueKernel(span diag.Span, name string, args []Operand) Statement {
	return Statement{Kind: StEnqueueKernel, Span: span, HasSpan: true, KernelName: name, KernelArgs: args}
}

// EnqueueCopy schedules an async memory copy from src to dst.
func EnqueueCopy(span diag.Span, src Operand, dst Place) Statement {
	return Statement{Kind: StEnqueueCopy, Span: span, HasSpan: true, CopySrc: src, CopyDst: dst}
}

// RecordEvent records completion of prior enqueued work under a named
// event.
func RecordEvent(span diag.Span, name string) Statement {
	return Statement{Kind: StRecordEvent, Span: span, HasSpan: true, EventName: name}
}

// WaitEvent blocks the async state machine until a named event fires.
func WaitEvent(span diag.Span, name string) Statement {
	return Statement{Kind: StWaitEvent, Span: span, HasSpan: true, EventName: name}
}

// Nop is a no-op placeholder statement; it is the only statement kind
// exempt from the mandatory-span rule.
func Nop() Statement { return Statement{Kind: StNop} }

// PendingStatement marks a statement the builder has not finished
// lowering.
func PendingStatement(span diag.Span, kind, detail string) Statement {
	return Statement{Kind: StPending, Span: span, HasSpan: true, PendingKind: kind, PendingDetail: detail}
}
