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

// Package verify implements the structural verifier and fallible-value
// dataflow pass described in spec.md §4.4. VerifyBody is pure: it
// inspects a mir.MirBody and reports VerifyErrors, never mutating the
// body (spec.md §4.4.1).
package verify

import (
	"fmt"

	"github.com/chic-lang/chic-core/pkg/mir"
)

// VerifyError is one structural invariant violation, carrying enough
// context (block, statement index, local, region) for regression tests
// (spec.md §4.4.1).
type VerifyError struct {
	Block     int
	Statement int
	HasStmt   bool
	Local     int
	HasLocal  bool
	Region    uint64
	HasRegion bool
	Message   string
}

func (e VerifyError) Error() string {
	if e.HasStmt {
		return fmt.Sprintf("block %d, statement %d: %s", e.Block, e.Statement, e.Message)
	}
	return fmt.Sprintf("block %d: %s", e.Block, e.Message)
}

func blockErr(block int, msg string, args ...any) VerifyError {
	return VerifyError{Block: block, Message: fmt.Sprintf(msg, args...)}
}

func stmtErr(block, stmt int, msg string, args ...any) VerifyError {
	return VerifyError{Block: block, Statement: stmt, HasStmt: true, Message: fmt.Sprintf(msg, args...)}
}

func localErr(block int, local int, msg string, args ...any) VerifyError {
	return VerifyError{Block: block, Local: local, HasLocal: true, Message: fmt.Sprintf(msg, args...)}
}

func regionErr(block int, region uint64, msg string, args ...any) VerifyError {
	return VerifyError{Block: block, Region: region, HasRegion: true, Message: fmt.Sprintf(msg, args...)}
}

// VerifyBody checks every invariant listed in spec.md §3/§8 against body.
// It never mutates body (spec.md §4.4.1). It is the single authoritative
// acceptance check: a nil return means every backend may safely assume the
// invariants hold.
func VerifyBody(body *mir.MirBody) []VerifyError {
	v := &verifier{body: body, nBlocks: len(body.Blocks), nLocals: len(body.Locals)}
	if len(body.Blocks) == 0 {
		v.fail(VerifyError{Message: "body has no blocks"})
	}
	v.checkLocals()
	for i := range body.Blocks {
		v.checkBlock(i)
	}
	v.checkExceptionRegions()
	return v.errs
}

type verifier struct {
	body    *mir.MirBody
	nBlocks int
	nLocals int
	errs    []VerifyError
}

func (v *verifier) fail(e VerifyError) { v.errs = append(v.errs, e) }

func (v *verifier) validBlock(id mir.BlockID) bool { return int(id) >= 0 && int(id) < v.nBlocks }
func (v *verifier) validLocal(id mir.LocalID) bool { return int(id) >= 0 && int(id) < v.nLocals }

// checkLocals enforces: local 0 is Return; argument-local count equals
// arg_count (spec.md §3, §8).
func (v *verifier) checkLocals() {
	if len(v.body.Locals) == 0 {
		v.fail(VerifyError{Message: "body has no locals: local 0 (Return) is mandatory"})
		return
	}
	if v.body.Locals[0].Kind != mir.LocalReturn {
		v.fail(localErr(-1, 0, "local 0 must be the Return local"))
	}
	argCount := 0
	for i, l := range v.body.Locals {
		if l.Kind == mir.LocalReturn && i != 0 {
			v.fail(localErr(-1, i, "only local 0 may be the Return local"))
		}
		if l.Kind == mir.LocalArg {
			argCount++
		}
	}
	if argCount != v.body.ArgCount {
		v.fail(VerifyError{Message: fmt.Sprintf("arg_count metadata is %d but body has %d Arg locals", v.body.ArgCount, argCount)})
	}
}

// checkBlock enforces: block.id == index(block); block has a terminator;
// every block/local id it references is in range; every statement carries
// a span unless it is Nop.
func (v *verifier) checkBlock(idx int) {
	blk := &v.body.Blocks[idx]
	if int(blk.ID) != idx {
		v.fail(blockErr(idx, "block id %d does not equal its index %d", blk.ID, idx))
	}
	if !blk.HasTerm {
		v.fail(blockErr(idx, "block has no terminator"))
	}

	for si, s := range blk.Statements {
		if s.Kind != mir.StNop && !s.HasSpan {
			v.fail(stmtErr(idx, si, "statement missing required span"))
		}
		v.checkStatement(idx, si, s)
	}

	if blk.HasTerm {
		v.checkTerminator(idx, blk.Terminator)
	}
}

func (v *verifier) checkPlaceLocal(block, stmt int, p mir.Place, role string) {
	if !v.validLocal(p.Base) {
		v.fail(stmtErr(block, stmt, "%s references out-of-range local %d", role, p.Base))
	}
	for _, proj := range p.Projections {
		if proj.Kind == mir.ProjDynIndex && !v.validLocal(proj.IndexLocal) {
			v.fail(stmtErr(block, stmt, "%s dynamic-index local %d out of range", role, proj.IndexLocal))
		}
	}
}

func (v *verifier) checkOperand(block, stmt int, op mir.Operand, role string) {
	switch op.Kind {
	case mir.OperandPending:
		v.fail(stmtErr(block, stmt, "%s is a Pending operand", role))
	case mir.OperandCopy, mir.OperandMove, mir.OperandMmio:
		v.checkPlaceLocal(block, stmt, op.Place, role)
	case mir.OperandBorrowOp:
		v.checkPlaceLocal(block, stmt, op.Place, role)
		if op.Region == mir.InvalidRegion {
			v.fail(regionErr(block, uint64(op.Region), "%s borrow uses the sentinel region", role))
		}
	case mir.OperandConst:
		if op.ConstKind == mir.ConstPending {
			v.fail(stmtErr(block, stmt, "%s is a Pending constant", role))
		}
	}
}

func (v *verifier) checkRvalue(block, stmt int, rv mir.Rvalue) {
	switch rv.Kind {
	case mir.RvPending:
		v.fail(stmtErr(block, stmt, "rvalue is Pending (%s)", rv.PendingDetail))
	case mir.RvUse:
		v.checkOperand(block, stmt, rv.Operand, "use operand")
	case mir.RvBinary:
		v.checkOperand(block, stmt, rv.LHS, "binary lhs")
		v.checkOperand(block, stmt, rv.RHS, "binary rhs")
	case mir.RvUnary:
		v.checkOperand(block, stmt, rv.UnaryOperand, "unary operand")
	case mir.RvAggregate:
		for _, f := range rv.Fields {
			v.checkOperand(block, stmt, f.Operand, "aggregate field")
		}
	case mir.RvAddressOf, mir.RvLen:
		v.checkPlaceLocal(block, stmt, rv.Place, "rvalue place")
	case mir.RvCast:
		v.checkOperand(block, stmt, rv.CastOperand, "cast operand")
	case mir.RvStringInterpolate:
		for _, p := range rv.Parts {
			v.checkOperand(block, stmt, p, "interpolation part")
		}
	case mir.RvNumericIntrinsic:
		for _, a := range rv.NumericArgs {
			v.checkOperand(block, stmt, a, "numeric intrinsic arg")
		}
	case mir.RvAtomicLoad:
		v.checkPlaceLocal(block, stmt, rv.AtomicPlace, "atomic load place")
	case mir.RvAtomicRmw:
		v.checkPlaceLocal(block, stmt, rv.AtomicPlace, "atomic rmw place")
		v.checkOperand(block, stmt, rv.RmwValue, "atomic rmw value")
	case mir.RvAtomicCompareExchange:
		v.checkPlaceLocal(block, stmt, rv.AtomicPlace, "cas place")
		v.checkOperand(block, stmt, rv.CasExpected, "cas expected")
		v.checkOperand(block, stmt, rv.CasDesired, "cas desired")
	case mir.RvDecimalIntrinsic:
		v.checkOperand(block, stmt, rv.DecimalLHS, "decimal lhs")
		v.checkOperand(block, stmt, rv.DecimalRHS, "decimal rhs")
		if rv.HasAddend {
			v.checkOperand(block, stmt, rv.DecimalAddend, "decimal addend")
		}
		if rv.HasDynamicRounding {
			v.checkOperand(block, stmt, rv.RoundingOperand, "decimal rounding")
		}
		if rv.HasDynamicVectorize {
			v.checkOperand(block, stmt, rv.VectorizeOperand, "decimal vectorize")
		}
	case mir.RvSpanStackAlloc:
		v.checkOperand(block, stmt, rv.Count, "span alloc count")
	}
}

func (v *verifier) checkStatement(block, si int, s mir.Statement) {
	switch s.Kind {
	case mir.StPending:
		v.fail(stmtErr(block, si, "statement is Pending (%s: %s)", s.PendingKind, s.PendingDetail))
	case mir.StAssign:
		v.checkPlaceLocal(block, si, s.AssignPlace, "assign destination")
		v.checkRvalue(block, si, s.Value)
	case mir.StStorageLive, mir.StStorageDead, mir.StMarkFallibleHandled:
		if !v.validLocal(s.Local) {
			v.fail(stmtErr(block, si, "references out-of-range local %d", s.Local))
		}
	case mir.StDrop:
		v.checkPlaceLocal(block, si, s.DropPlace, "drop place")
		if !v.validBlock(s.TargetBlock) {
			v.fail(stmtErr(block, si, "drop target block %d out of range", s.TargetBlock))
		}
		if s.HasUnwind && !v.validBlock(s.UnwindBlock) {
			v.fail(stmtErr(block, si, "drop unwind block %d out of range", s.UnwindBlock))
		}
	case mir.StBorrow:
		v.checkPlaceLocal(block, si, s.BorrowDest, "borrow dest")
		v.checkPlaceLocal(block, si, s.BorrowSource, "borrow source")
		if s.Region == mir.InvalidRegion {
			v.fail(regionErr(block, uint64(s.Region), "borrow statement uses the sentinel region"))
		}
	case mir.StMmioStore:
		v.checkPlaceLocal(block, si, s.StorePlace, "mmio store place")
		v.checkOperand(block, si, s.StoreValue, "mmio store value")
	case mir.StStaticStore:
		v.checkOperand(block, si, s.StoreValue, "static store value")
	case mir.StAtomicStore:
		v.checkPlaceLocal(block, si, s.StorePlace, "atomic store place")
		v.checkOperand(block, si, s.StoreValue, "atomic store value")
	case mir.StDefaultInit, mir.StZeroInit, mir.StDeinit:
		v.checkPlaceLocal(block, si, s.InitPlace, "init place")
	case mir.StRetag:
		v.checkPlaceLocal(block, si, s.RetagPlace, "retag place")
	case mir.StDeferDrop:
		v.checkPlaceLocal(block, si, s.DeferPlace, "defer-drop place")
	case mir.StInlineAsm:
		for _, in := range s.AsmInputs {
			v.checkOperand(block, si, in, "inline-asm input")
		}
		for _, out := range s.AsmOutputs {
			v.checkPlaceLocal(block, si, out, "inline-asm output")
		}
	case mir.StAssert:
		v.checkOperand(block, si, s.AssertCond, "assert condition")
	case mir.StEnqueueKernel:
		for _, a := range s.KernelArgs {
			v.checkOperand(block, si, a, "kernel arg")
		}
	case mir.StEnqueueCopy:
		v.checkOperand(block, si, s.CopySrc, "copy src")
		v.checkPlaceLocal(block, si, s.CopyDst, "copy dst")
	}
}

func (v *verifier) checkTerminator(block int, t mir.Terminator) {
	switch t.Kind {
	case mir.TermPending:
		v.fail(blockErr(block, "terminator is Pending (%s)", t.PendingDetail))
	case mir.TermGoto:
		if !v.validBlock(t.Target) {
			v.fail(blockErr(block, "goto target %d out of range", t.Target))
		}
	case mir.TermSwitchInt:
		v.checkOperand(block, -1, t.Discr, "switch discriminant")
		for _, tgt := range t.Targets {
			if !v.validBlock(tgt.Target) {
				v.fail(blockErr(block, "switch target %d out of range", tgt.Target))
			}
		}
		if !v.validBlock(t.Otherwise) {
			v.fail(blockErr(block, "switch otherwise target %d out of range", t.Otherwise))
		}
	case mir.TermMatch:
		v.checkOperand(block, -1, t.MatchValue, "match value")
		for _, arm := range t.Arms {
			if !v.validBlock(arm.Target) {
				v.fail(blockErr(block, "match arm target %d out of range", arm.Target))
			}
			for _, b := range arm.Bindings {
				if !v.validLocal(b.Local) {
					v.fail(blockErr(block, "match binding local %d out of range", b.Local))
				}
			}
			if arm.Guard != nil {
				v.checkOperand(block, -1, *arm.Guard, "match guard")
			}
		}
		if t.HasMatchOtherwise && !v.validBlock(t.MatchOtherwise) {
			v.fail(blockErr(block, "match otherwise target %d out of range", t.MatchOtherwise))
		}
	case mir.TermThrow:
		if t.HasException {
			v.checkOperand(block, -1, t.Exception, "throw exception")
		}
	case mir.TermCall:
		v.checkOperand(block, -1, t.Func, "call callee")
		for _, a := range t.Args {
			v.checkOperand(block, -1, a, "call argument")
		}
		if t.HasDest {
			v.checkPlaceLocal(block, -1, t.Destination, "call destination")
		}
		if !v.validBlock(t.CallTarget) {
			v.fail(blockErr(block, "call target block %d out of range", t.CallTarget))
		}
		if t.HasUnwind && !v.validBlock(t.Unwind) {
			v.fail(blockErr(block, "call unwind block %d out of range", t.Unwind))
		}
	case mir.TermYield:
		v.checkOperand(block, -1, t.YieldValue, "yield value")
		if !v.validBlock(t.ResumeBlock) {
			v.fail(blockErr(block, "yield resume block %d out of range", t.ResumeBlock))
		}
		for _, p := range t.YieldDrop {
			v.checkPlaceLocal(block, -1, p, "yield drop place")
		}
	case mir.TermAwait:
		v.checkOperand(block, -1, t.Future, "await future")
		if t.HasAwaitDest {
			v.checkPlaceLocal(block, -1, t.AwaitDest, "await destination")
		}
		if !v.validBlock(t.AwaitResume) {
			v.fail(blockErr(block, "await resume block %d out of range", t.AwaitResume))
		}
		for _, p := range t.AwaitDrop {
			v.checkPlaceLocal(block, -1, p, "await drop place")
		}
	}
}

// checkExceptionRegions enforces: all block references in range; all catch
// bindings name a valid local (spec.md §3 "ExceptionRegion", §8).
func (v *verifier) checkExceptionRegions() {
	for ri, r := range v.body.ExceptionRegions {
		checkBlk := func(id mir.BlockID, what string) {
			if !v.validBlock(id) {
				v.fail(VerifyError{Message: fmt.Sprintf("exception region %d: %s block %d out of range", ri, what, id)})
			}
		}
		checkBlk(r.TryEntry, "try_entry")
		checkBlk(r.TryExit, "try_exit")
		checkBlk(r.After, "after")
		if r.HasDispatch {
			checkBlk(r.Dispatch, "dispatch")
		}
		for ci, c := range r.Catches {
			checkBlk(c.Entry, fmt.Sprintf("catch[%d].entry", ci))
			checkBlk(c.Body, fmt.Sprintf("catch[%d].body", ci))
			checkBlk(c.Cleanup, fmt.Sprintf("catch[%d].cleanup", ci))
			if c.HasFilter {
				checkBlk(c.FilterBlock, fmt.Sprintf("catch[%d].filter", ci))
			}
			if c.HasBinding && !v.validLocal(c.BindingLocal) {
				v.fail(VerifyError{Message: fmt.Sprintf("exception region %d: catch[%d] binding local %d out of range", ri, ci, c.BindingLocal)})
			}
		}
		if r.HasFinally {
			checkBlk(r.FinallyEntry, "finally_entry")
			checkBlk(r.FinallyExit, "finally_exit")
		}
	}
}
