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

import "github.com/chic-lang/chic-core/pkg/diag"

// TerminatorKind discriminates the shape of a block's exit.
type TerminatorKind uint8

// The block-exit shapes spec.md §3 "Terminator" lists. TermPending marks a
// placeholder the builder has not finished lowering; no verified body may
// contain one (spec.md §8).
const (
	TermGoto TerminatorKind = iota
	TermSwitchInt
	TermMatch
	TermReturn
	TermPanic
	TermUnreachable
	TermThrow
	TermCall
	TermYield
	TermAwait
	TermPending
)

// DispatchKind discriminates how a Call terminator resolves its callee.
type DispatchKind uint8

// Call dispatch strategies (spec.md §3 "Terminator").
const (
	DispatchNone DispatchKind = iota // static/direct call
	DispatchTraitObject
	DispatchVirtual
)

// CallDispatch records how a Call terminator should resolve at codegen
// time.
type CallDispatch struct {
	Kind DispatchKind

	// DispatchTraitObject
	TraitName     string
	Method        string
	HasImplType   bool
	ImplType      string

	// DispatchTraitObject / DispatchVirtual
	SlotIndex     int
	ReceiverIndex int

	// DispatchVirtual
	HasBaseOwner bool
	BaseOwner    string
}

// SwitchTarget pairs one matched discriminant value with its target block.
type SwitchTarget struct {
	Value  int64
	Target BlockID
}

// MatchArm pairs one MIR-level pattern with its guard, bindings, and
// target block for a Match terminator.
type MatchArm struct {
	Pattern  Pattern
	Guard    *Operand
	Bindings []MatchBinding
	Target   BlockID
}

// MatchBinding binds one local to a sub-place of the matched value when an
// arm's pattern fires.
type MatchBinding struct {
	Local LocalID
	From  Place
}

// ArgMode records how one call argument was lowered, so backends can
// choose load/borrow/return-slot ABI per spec.md §4.3.5.
type ArgMode uint8

// Argument passing modes a Call terminator may record per argument.
const (
	ArgByValue ArgMode = iota
	ArgIn
	ArgRef
	ArgOut
)

// Terminator is the exit point of a BasicBlock (spec.md §3 "Terminator").
type Terminator struct {
	Kind    TerminatorKind
	Span    diag.Span
	HasSpan bool

	// TermGoto
	Target BlockID

	// TermSwitchInt
	Discr     Operand
	Targets   []SwitchTarget
	Otherwise BlockID

	// TermMatch
	MatchValue Operand
	Arms       []MatchArm
	MatchOtherwise BlockID
	HasMatchOtherwise bool

	// TermThrow
	Exception    Operand
	HasException bool

	// TermCall
	Func         Operand
	Args         []Operand
	ArgModes     []ArgMode
	Destination  Place
	HasDest      bool
	CallTarget   BlockID
	Unwind       BlockID
	HasUnwind    bool
	Dispatch     CallDispatch
	HasDispatch  bool

	// TermYield
	YieldValue  Operand
	ResumeBlock BlockID
	YieldDrop   []Place

	// TermAwait
	Future       Operand
	AwaitDest    Place
	HasAwaitDest bool
	AwaitResume  BlockID
	AwaitDrop    []Place

	// TermPending
	PendingDetail string
}

// GotoTerm builds an unconditional jump.
func GotoTerm(span diag.Span, target BlockID) Terminator {
	return Terminator{Kind: TermGoto, Span: span, HasSpan: true, Target: target}
}

// SwitchIntTerm builds a multi-way branch on an integer discriminant.
func SwitchIntTerm(span diag.Span, discr Operand, targets []SwitchTarget, otherwise BlockID) Terminator {
	return Terminator{Kind: TermSwitchInt, Span: span, HasSpan: true, Discr: discr, Targets: targets, Otherwise: otherwise}
}

// MatchTerm builds a pattern-match branch.
func MatchTerm(span diag.Span, value Operand, arms []MatchArm, otherwise BlockID, hasOtherwise bool) Terminator {
	return Terminator{Kind: TermMatch, Span: span, HasSpan: true, MatchValue: value, Arms: arms, MatchOtherwise: otherwise, HasMatchOtherwise: hasOtherwise}
}

// ReturnTerm builds a function return.
func ReturnTerm(span diag.Span) Terminator { return Terminator{Kind: TermReturn, Span: span, HasSpan: true} }

// PanicTerm builds an unrecoverable abort.
func PanicTerm(span diag.Span) Terminator { return Terminator{Kind: TermPanic, Span: span, HasSpan: true} }

// UnreachableTerm marks a block finalization proved can never execute.
func UnreachableTerm(span diag.Span) Terminator {
	return Terminator{Kind: TermUnreachable, Span: span, HasSpan: true}
}

// ThrowTerm raises an exception, optionally re-throwing the current one.
func ThrowTerm(span diag.Span, exception Operand, has bool) Terminator {
	return Terminator{Kind: TermThrow, Span: span, HasSpan: true, Exception: exception, HasException: has}
}

// CallTerm builds a call terminator (spec.md §4.3.5).
func CallTerm(span diag.Span, fn Operand, args []Operand, modes []ArgMode, dest Place, hasDest bool, target BlockID, unwind BlockID, hasUnwind bool, dispatch CallDispatch, hasDispatch bool) Terminator {
	return Terminator{
		Kind: TermCall, Span: span, HasSpan: true,
		Func: fn, Args: args, ArgModes: modes,
		Destination: dest, HasDest: hasDest,
		CallTarget: target, Unwind: unwind, HasUnwind: hasUnwind,
		Dispatch: dispatch, HasDispatch: hasDispatch,
	}
}

// YieldTerm suspends a generator, producing value and resuming at resume.
func YieldTerm(span diag.Span, value Operand, resume BlockID, drop []Place) Terminator {
	return Terminator{Kind: TermYield, Span: span, HasSpan: true, YieldValue: value, ResumeBlock: resume, YieldDrop: drop}
}

// AwaitTerm suspends an async state machine on future, resuming at resume.
func AwaitTerm(span diag.Span, future Operand, dest Place, hasDest bool, resume BlockID, drop []Place) Terminator {
	return Terminator{Kind: TermAwait, Span: span, HasSpan: true, Future: future, AwaitDest: dest, HasAwaitDest: hasDest, AwaitResume: resume, AwaitDrop: drop}
}

// PendingTerm marks a terminator the builder has not finished lowering.
func PendingTerm(span diag.Span, detail string) Terminator {
	return Terminator{Kind: TermPending, Span: span, HasSpan: true, PendingDetail: detail}
}
