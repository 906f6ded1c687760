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
package verify

import (
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
)

// fallibleState is the per-local dataflow lattice of the fallible-value
// pass (spec.md §4.4.2): a local is present in the map iff it currently
// holds an un-handled fallible value, keyed to the span where that value
// was produced.
type fallibleState map[mir.LocalID]diag.Span

func (s fallibleState) clone() fallibleState {
	next := make(fallibleState, len(s))
	for k, v := range s {
		next[k] = v
	}
	return next
}

// union joins two states per spec.md §4.4.2: any predecessor having a local
// set is enough to keep it set at the merge point.
func union(a, b fallibleState) fallibleState {
	out := a.clone()
	for k, v := range b {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

func equalState(a, b fallibleState) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// fallibleChecker holds the fixed facts (tracked-local set, local kinds)
// needed while running the dataflow pass over one body.
type fallibleChecker struct {
	body    *mir.MirBody
	tracked map[mir.LocalID]bool
	bag     *diag.Bag
}

// CheckFallibleValues runs the per-block dataflow pass of spec.md §4.4.2
// over fn's body, emitting EH0001 (dropped without handling) and EH0002
// (may exit scope without handling) diagnostics into bag. It does not run
// on extern-ABI functions and skips empty bodies; it never tracks the
// Return local or a method's receiver local.
func CheckFallibleValues(fn *mir.MirFunction, layouts *layout.Table, bag *diag.Bag) {
	if fn.Extern || fn.Body == nil || len(fn.Body.Blocks) == 0 {
		return
	}
	body := fn.Body

	tracked := make(map[mir.LocalID]bool)
	for i, l := range body.Locals {
		id := mir.LocalID(i)
		if id == 0 {
			continue // Return local is never tracked
		}
		if fn.Kind == mir.FnMethod && l.Kind == mir.LocalArg && l.ArgIndex == 0 {
			continue // receiver local of a method
		}
		if layouts.TyIsFallible(l.Ty) {
			tracked[id] = true
		}
	}
	if len(tracked) == 0 {
		return
	}

	c := &fallibleChecker{body: body, tracked: tracked, bag: bag}
	preds := computePreds(body)

	n := len(body.Blocks)
	in := make([]fallibleState, n)
	out := make([]fallibleState, n)
	for i := range in {
		in[i] = fallibleState{}
		out[i] = fallibleState{}
	}
	// Seed entry state: fallible arguments start set (spec.md §4.4.2).
	seed := fallibleState{}
	for i, l := range body.Locals {
		id := mir.LocalID(i)
		if tracked[id] && l.Kind == mir.LocalArg {
			seed[id] = l.Span
		}
	}
	in[0] = seed

	// Iterate to a fixed point, discarding diagnostics from every pass but
	// the last; the CFG is finite and the lattice has finite height
	// (bounded by len(tracked)), so this always terminates.
	for iter := 0; iter < n*n+8; iter++ {
		changed := false
		for b := 0; b < n; b++ {
			merged := seedOrEmpty(b, seed)
			for _, p := range preds[b] {
				merged = union(merged, out[p])
			}
			if !equalState(merged, in[b]) {
				in[b] = merged
				changed = true
			}
			newOut := c.transferBlockQuiet(&body.Blocks[b], in[b])
			if !equalState(newOut, out[b]) {
				out[b] = newOut
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	// Final pass over the converged fixed point: this is the only pass
	// that emits diagnostics, so each is reported exactly once.
	for b := 0; b < n; b++ {
		c.transferBlockEmitting(&body.Blocks[b], in[b])
	}
}

func seedOrEmpty(b int, seed fallibleState) fallibleState {
	if b == 0 {
		return seed.clone()
	}
	return fallibleState{}
}

func computePreds(body *mir.MirBody) [][]int {
	preds := make([][]int, len(body.Blocks))
	addEdge := func(from int, to mir.BlockID) {
		preds[int(to)] = append(preds[int(to)], from)
	}
	for i := range body.Blocks {
		t := body.Blocks[i].Terminator
		switch t.Kind {
		case mir.TermGoto:
			addEdge(i, t.Target)
		case mir.TermSwitchInt:
			for _, tgt := range t.Targets {
				addEdge(i, tgt.Target)
			}
			addEdge(i, t.Otherwise)
		case mir.TermMatch:
			for _, arm := range t.Arms {
				addEdge(i, arm.Target)
			}
			if t.HasMatchOtherwise {
				addEdge(i, t.MatchOtherwise)
			}
		case mir.TermCall:
			addEdge(i, t.CallTarget)
			if t.HasUnwind {
				addEdge(i, t.Unwind)
			}
		case mir.TermYield:
			addEdge(i, t.ResumeBlock)
		case mir.TermAwait:
			addEdge(i, t.AwaitResume)
		}
	}
	return preds
}

// transferBlockQuiet applies the block's transfer function without emitting
// diagnostics, used while converging to a fixed point.
func (c *fallibleChecker) transferBlockQuiet(blk *mir.BasicBlock, state fallibleState) fallibleState {
	s := state.clone()
	for i := range blk.Statements {
		c.transferStatement(&blk.Statements[i], s, nil)
	}
	return c.transferTerminatorSetClear(blk.Terminator, s)
}

// transferBlockEmitting re-runs the same transfer function against the
// converged incoming state, this time emitting EH0001 at qualifying drops
// and EH0002 at qualifying scope exits.
func (c *fallibleChecker) transferBlockEmitting(blk *mir.BasicBlock, state fallibleState) {
	s := state.clone()
	for i := range blk.Statements {
		c.transferStatement(&blk.Statements[i], s, c.bag)
	}
	s = c.transferTerminatorSetClear(blk.Terminator, s)
	c.emitExitDiagnostics(blk, s)
}

func clearIfLocal(s fallibleState, p mir.Place) {
	if p.IsLocal() {
		delete(s, p.Base)
	}
}

// transferStatement applies one statement's effect on s. When bag is
// non-nil it also emits EH0001 for a drop of a still-set compiler
// temporary (spec.md §4.4.2, §8 scenario 5).
func (c *fallibleChecker) transferStatement(stmt *mir.Statement, s fallibleState, bag *diag.Bag) {
	switch stmt.Kind {
	case mir.StAssign:
		// Clear any moved-from local, and the copied-from local when it is
		// a compiler temporary (spec.md §4.4.2).
		c.clearMovesAndTempCopies(stmt.Value, s)
		dest := stmt.AssignPlace
		if dest.IsLocal() {
			if stmt.Value.Kind == mir.RvUse && stmt.Value.Operand.Kind == mir.OperandConst && stmt.Value.Operand.ConstKind == mir.ConstNull {
				delete(s, dest.Base)
				return
			}
			if c.tracked[dest.Base] {
				s[dest.Base] = stmt.Span
			}
		}
	case mir.StStorageDead:
		c.clearAndMaybeWarn(stmt.Local, stmt.Span, s, bag)
	case mir.StDrop:
		if stmt.DropPlace.IsLocal() {
			c.clearAndMaybeWarn(stmt.DropPlace.Base, stmt.Span, s, bag)
		}
	case mir.StMarkFallibleHandled:
		delete(s, stmt.Local)
	}
}

// clearAndMaybeWarn clears local's slot; if it was still set and the local
// is a compiler temporary, it emits EH0001 (spec.md §4.4.2, §8 scenario 5).
func (c *fallibleChecker) clearAndMaybeWarn(local mir.LocalID, at diag.Span, s fallibleState, bag *diag.Bag) {
	origin, ok := s[local]
	delete(s, local)
	if !ok || bag == nil {
		return
	}
	if int(local) < 0 || int(local) >= len(c.body.Locals) {
		return
	}
	if c.body.Locals[local].Kind != mir.LocalTemp {
		return
	}
	d := diag.New(diag.CodeFallibleDropped, "fallible value dropped without handling").WithSeverity(diag.Warning).WithSpan(at)
	d = d.WithNote("value produced here", origin)
	bag.Add(d)
}

// clearMovesAndTempCopies scans an rvalue's operands for Move(place) (which
// always clears its source local) and Copy(place) where the source is a
// compiler temporary (spec.md §4.4.2's "typical pattern of consuming a
// returned result by binding it").
func (c *fallibleChecker) clearMovesAndTempCopies(rv mir.Rvalue, s fallibleState) {
	visit := func(op mir.Operand) {
		switch op.Kind {
		case mir.OperandMove:
			clearIfLocal(s, op.Place)
		case mir.OperandCopy:
			if op.Place.IsLocal() {
				id := op.Place.Base
				if int(id) >= 0 && int(id) < len(c.body.Locals) && c.body.Locals[id].Kind == mir.LocalTemp {
					delete(s, id)
				}
			}
		}
	}
	switch rv.Kind {
	case mir.RvUse:
		visit(rv.Operand)
	case mir.RvBinary:
		visit(rv.LHS)
		visit(rv.RHS)
	case mir.RvUnary:
		visit(rv.UnaryOperand)
	case mir.RvAggregate:
		for _, f := range rv.Fields {
			visit(f.Operand)
		}
	case mir.RvCast:
		visit(rv.CastOperand)
	case mir.RvStringInterpolate:
		for _, p := range rv.Parts {
			visit(p)
		}
	case mir.RvNumericIntrinsic:
		for _, a := range rv.NumericArgs {
			visit(a)
		}
	case mir.RvAtomicRmw:
		visit(rv.RmwValue)
	case mir.RvAtomicCompareExchange:
		visit(rv.CasExpected)
		visit(rv.CasDesired)
	case mir.RvDecimalIntrinsic:
		visit(rv.DecimalLHS)
		visit(rv.DecimalRHS)
		if rv.HasAddend {
			visit(rv.DecimalAddend)
		}
		if rv.HasDynamicRounding {
			visit(rv.RoundingOperand)
		}
		if rv.HasDynamicVectorize {
			visit(rv.VectorizeOperand)
		}
	case mir.RvSpanStackAlloc:
		visit(rv.Count)
	}
}

func (c *fallibleChecker) transferTerminatorSetClear(t mir.Terminator, s fallibleState) fallibleState {
	switch t.Kind {
	case mir.TermCall:
		if t.HasDest && t.Destination.IsLocal() && c.tracked[t.Destination.Base] {
			s[t.Destination.Base] = t.Span
		}
	case mir.TermAwait:
		if t.HasAwaitDest && t.AwaitDest.IsLocal() && c.tracked[t.AwaitDest.Base] {
			s[t.AwaitDest.Base] = t.Span
		}
	case mir.TermMatch:
		if t.MatchValue.Kind == mir.OperandCopy || t.MatchValue.Kind == mir.OperandMove {
			clearIfLocal(s, t.MatchValue.Place)
		}
	}
	return s
}

// emitExitDiagnostics fires EH0002 once per tracked local still set at a
// Return/Panic/Unreachable/Throw terminator (spec.md §4.4.2, §8 scenario 5).
func (c *fallibleChecker) emitExitDiagnostics(blk *mir.BasicBlock, state fallibleState) {
	if !blk.HasTerm {
		return
	}
	switch blk.Terminator.Kind {
	case mir.TermReturn, mir.TermPanic, mir.TermUnreachable, mir.TermThrow:
		for _, span := range state {
			d := diag.Newf(diag.CodeFallibleEscapes, "fallible value may exit this scope without being handled").WithSeverity(diag.Error)
			if blk.HasSpan {
				d = d.WithSpan(blk.Span)
			}
			d = d.WithNote("value produced here", span)
			c.bag.Add(d)
		}
	}
}
