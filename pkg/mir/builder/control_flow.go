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
package builder

import (
	"github.com/chic-lang/chic-core/pkg/ast"
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/types"
)

// LowerBlock lowers a statement list within its own lexical scope.
func (b *Builder) LowerBlock(stmts []ast.Stmt) {
	depth := b.PushScope()
	for i := range stmts {
		b.LowerStmt(&stmts[i])
	}
	span := diag.Span{}
	if len(stmts) > 0 {
		span = toDiagSpan(stmts[len(stmts)-1].Span)
	}
	b.DropToScopeDepth(depth, span)
	b.PopScope()
}

// LowerStmt lowers one surface statement into the active block, per the
// control-flow rules of spec.md §4.3.4.
func (b *Builder) LowerStmt(s *ast.Stmt) {
	span := toDiagSpan(s.Span)
	switch s.Kind {
	case ast.StmtBlock:
		b.LowerBlock(s.Body)
	case ast.StmtExpr:
		b.LowerOperand(s.Expr)
	case ast.StmtVarDecl:
		b.lowerVarDecl(s, span)
	case ast.StmtAssign:
		b.LowerAssign(s, span)
	case ast.StmtIf:
		b.lowerIf(s, span)
	case ast.StmtWhile:
		b.lowerWhile(s, span)
	case ast.StmtFor:
		b.lowerFor(s, span)
	case ast.StmtForeach:
		b.lowerForeach(s, span)
	case ast.StmtSwitch:
		b.lowerSwitch(s, span)
	case ast.StmtTry:
		b.lowerTry(s, span)
	case ast.StmtUsing:
		b.lowerUsingOrLock(s, span, false)
	case ast.StmtLock:
		b.lowerUsingOrLock(s, span, true)
	case ast.StmtFixed:
		b.lowerFixed(s, span)
	case ast.StmtGoto:
		b.lowerGoto(s, span)
	case ast.StmtGotoCase:
		b.lowerGotoCase(s, span)
	case ast.StmtLabel:
		b.lowerLabel(s, span)
	case ast.StmtBreak:
		b.lowerBreak(span)
	case ast.StmtContinue:
		b.lowerContinue(span)
	case ast.StmtReturn:
		b.lowerReturn(s, span)
	case ast.StmtThrow:
		b.lowerThrow(s, span)
	}
}

func (b *Builder) lowerVarDecl(s *ast.Stmt, span diag.Span) {
	ty := s.VarTy
	if !s.HasVarTy {
		ty = types.Named("Std::Object")
	}
	local := b.body.AddLocal(mir.NewUserLocal(s.VarName, ty, span))
	b.BindName(s.VarName, local)
	b.Emit(mir.StorageLive(span, local))
	if s.Init != nil {
		init := b.LowerOperand(s.Init)
		b.Emit(mir.Assign(span, mir.LocalPlace(local), mir.Use(init)))
	} else {
		b.Emit(mir.DefaultInit(span, mir.LocalPlace(local), ty))
	}
}

// lowerIf lowers `if/else` to `SwitchInt{discr, targets=[(0, else)],
// otherwise=then}` followed by a join block (spec.md §4.3.4).
func (b *Builder) lowerIf(s *ast.Stmt, span diag.Span) {
	cond := b.LowerOperand(s.Cond)
	thenBlock := b.NewBlock(span)
	elseBlock := b.NewBlock(span)
	joinBlock := b.NewBlock(span)

	b.SetTerminator(mir.SwitchIntTerm(span, cond, []mir.SwitchTarget{{Value: 0, Target: elseBlock}}, thenBlock))

	b.SwitchToBlock(thenBlock)
	b.LowerBlock(s.Then)
	b.EnsureActiveBlock(span)
	if !b.body.Block(b.current).HasTerm {
		b.SetTerminator(mir.GotoTerm(span, joinBlock))
	}

	b.SwitchToBlock(elseBlock)
	if s.HasElse {
		b.LowerBlock(s.Else)
	}
	b.EnsureActiveBlock(span)
	if !b.body.Block(b.current).HasTerm {
		b.SetTerminator(mir.GotoTerm(span, joinBlock))
	}

	b.SwitchToBlock(joinBlock)
}

// lowerWhile lowers `while(cond) body` to {cond_block -> SwitchInt(body,
// exit); body -> Goto(cond_block)}. break targets exit, continue targets
// cond (spec.md §4.3.4).
func (b *Builder) lowerWhile(s *ast.Stmt, span diag.Span) {
	condBlock := b.NewBlock(span)
	b.SetTerminator(mir.GotoTerm(span, condBlock))

	b.SwitchToBlock(condBlock)
	cond := b.LowerOperand(s.Cond)
	bodyBlock := b.NewBlock(span)
	exitBlock := b.NewBlock(span)
	b.SetTerminator(mir.SwitchIntTerm(span, cond, []mir.SwitchTarget{{Value: 0, Target: exitBlock}}, bodyBlock))

	b.PushLoop(exitBlock, condBlock)
	b.SwitchToBlock(bodyBlock)
	b.LowerBlock(s.Body)
	b.EnsureActiveBlock(span)
	if !b.body.Block(b.current).HasTerm {
		b.SetTerminator(mir.GotoTerm(span, condBlock))
	}
	b.PopLoop()

	b.SwitchToBlock(exitBlock)
}

// lowerFor lowers `for(init; cond; iter) body` as `while` with an iterator
// block between body and cond; continue targets the iterator block, not
// the condition (spec.md §4.3.4).
func (b *Builder) lowerFor(s *ast.Stmt, span diag.Span) {
	depth := b.PushScope()
	b.LowerBlock(s.ForInit)

	condBlock := b.NewBlock(span)
	b.SetTerminator(mir.GotoTerm(span, condBlock))

	b.SwitchToBlock(condBlock)
	cond := b.LowerOperand(s.Cond)
	bodyBlock := b.NewBlock(span)
	iterBlock := b.NewBlock(span)
	exitBlock := b.NewBlock(span)
	b.SetTerminator(mir.SwitchIntTerm(span, cond, []mir.SwitchTarget{{Value: 0, Target: exitBlock}}, bodyBlock))

	b.PushLoop(exitBlock, iterBlock)
	b.SwitchToBlock(bodyBlock)
	b.LowerBlock(s.Body)
	b.EnsureActiveBlock(span)
	if !b.body.Block(b.current).HasTerm {
		b.SetTerminator(mir.GotoTerm(span, iterBlock))
	}
	b.PopLoop()

	b.SwitchToBlock(iterBlock)
	b.LowerBlock(s.ForIter)
	b.EnsureActiveBlock(span)
	if !b.body.Block(b.current).HasTerm {
		b.SetTerminator(mir.GotoTerm(span, condBlock))
	}

	b.SwitchToBlock(exitBlock)
	b.DropToScopeDepth(depth, span)
	b.PopScope()
}

// lowerForeach picks one of the two strategies spec.md §4.3.4 names: the
// index-based cross-inline strategy when the sequence's resolved static
// type is an intrinsic contiguous sequence (Span<T>; cross-inline is
// always enabled for that one intrinsic shape, since the surface AST
// carries no separate per-site opt-out), and the enumerator-based
// GetEnumerator/MoveNext/Current protocol otherwise.
func (b *Builder) lowerForeach(s *ast.Stmt, span diag.Span) {
	depth := b.PushScope()
	seqPlace := b.LowerPlace(s.Seq)

	if foreachCrossInlineEligible(s.Seq) {
		b.lowerForeachCrossInline(s, span, seqPlace)
	} else {
		b.lowerForeachEnumerator(s, span, seqPlace)
	}

	b.DropToScopeDepth(depth, span)
	b.PopScope()
}

// foreachCrossInlineEligible reports whether seq's resolved static type is
// the one intrinsic contiguous sequence shape (spec.md §4.3.4, §8 scenario
// 4: "Foreach over Span<int> with cross-inline enabled").
func foreachCrossInlineEligible(seq *ast.Expr) bool {
	return seq != nil && seq.HasTy && seq.Ty.Kind() == types.KindSpan
}

// lowerForeachCrossInline is the index-based strategy: three fresh locals
// (idx/len/cond), a single Len(seq) rvalue, and an indexed read each
// iteration — no enumerator local is ever created (spec.md §4.3.4, §8
// scenario 4).
func (b *Builder) lowerForeachCrossInline(s *ast.Stmt, span diag.Span, seqPlace mir.Place) {
	idxLocal := b.CreateTemp(types.Named("Std::Int32"))
	lenLocal := b.CreateTemp(types.Named("Std::Int32"))
	condLocal := b.CreateTemp(types.Named("Std::Bool"))

	b.Emit(mir.Assign(span, mir.LocalPlace(idxLocal), mir.Use(mir.IntConst(0, types.Named("Std::Int32")))))
	b.Emit(mir.Assign(span, mir.LocalPlace(lenLocal), mir.Len(seqPlace)))

	condBlock := b.NewBlock(span)
	b.SetTerminator(mir.GotoTerm(span, condBlock))

	b.SwitchToBlock(condBlock)
	b.Emit(mir.Assign(span, mir.LocalPlace(condLocal), mir.Binary(mir.BinLt, mir.Copy(mir.LocalPlace(idxLocal)), mir.Copy(mir.LocalPlace(lenLocal)))))
	bodyBlock := b.NewBlock(span)
	exitBlock := b.NewBlock(span)
	b.SetTerminator(mir.SwitchIntTerm(span, mir.Copy(mir.LocalPlace(condLocal)), []mir.SwitchTarget{{Value: 0, Target: exitBlock}}, bodyBlock))

	b.PushLoop(exitBlock, condBlock)
	b.SwitchToBlock(bodyBlock)
	elemPlace := seqPlace.Project(mir.DynIndex(idxLocal))
	iterLocal := b.body.AddLocal(mir.NewUserLocal(s.IterVar, types.Named("Std::Object"), span))
	b.BindName(s.IterVar, iterLocal)
	if s.IterIsRef {
		region := b.AllocRegion()
		borrowID := b.AllocBorrowID()
		b.Emit(mir.BorrowStmt(span, mir.LocalPlace(iterLocal), elemPlace, mir.BorrowUnique, region, borrowID))
	} else {
		b.Emit(mir.Assign(span, mir.LocalPlace(iterLocal), mir.Use(mir.Copy(elemPlace))))
	}
	b.LowerBlock(s.Body)
	b.EnsureActiveBlock(span)
	incBlock := b.NewBlock(span)
	if !b.body.Block(b.current).HasTerm {
		b.SetTerminator(mir.GotoTerm(span, incBlock))
	}
	b.SwitchToBlock(incBlock)
	b.Emit(mir.Assign(span, mir.LocalPlace(idxLocal), mir.Binary(mir.BinAdd, mir.Copy(mir.LocalPlace(idxLocal)), mir.IntConst(1, types.Named("Std::Int32")))))
	b.SetTerminator(mir.GotoTerm(span, condBlock))
	b.PopLoop()

	b.SwitchToBlock(exitBlock)
}

// lowerForeachEnumerator is the fallback strategy for any sequence type
// that isn't the intrinsic contiguous shape: allocate an enumerator local
// (`__foreach_enum_*`), call GetEnumerator once, then drive a MoveNext/
// Current loop (spec.md §4.3.4). These three calls have no surface-syntax
// call expression of their own, so they go through emitDirectReceiverCall
// rather than LowerCallExpr.
func (b *Builder) lowerForeachEnumerator(s *ast.Stmt, span diag.Span, seqPlace mir.Place) {
	seqTypeName := "Std::Object"
	if s.Seq != nil && s.Seq.HasTy {
		seqTypeName = s.Seq.Ty.CanonicalName()
	}
	enumTy := types.Named(seqTypeName + "::Enumerator")
	elemTy := types.Named("Std::Object")

	enumLocal := b.CreateTemp(enumTy)
	b.emitDirectReceiverCall(span, seqTypeName+"::GetEnumerator", mir.Copy(seqPlace), nil, mir.LocalPlace(enumLocal))

	condBlock := b.NewBlock(span)
	b.SetTerminator(mir.GotoTerm(span, condBlock))
	b.SwitchToBlock(condBlock)

	moveNextLocal := b.CreateTemp(types.Named("Std::Bool"))
	b.emitDirectReceiverCall(span, enumTy.CanonicalName()+"::MoveNext", mir.Copy(mir.LocalPlace(enumLocal)), nil, mir.LocalPlace(moveNextLocal))

	bodyBlock := b.NewBlock(span)
	exitBlock := b.NewBlock(span)
	b.SetTerminator(mir.SwitchIntTerm(span, mir.Copy(mir.LocalPlace(moveNextLocal)), []mir.SwitchTarget{{Value: 0, Target: exitBlock}}, bodyBlock))

	b.PushLoop(exitBlock, condBlock)
	b.SwitchToBlock(bodyBlock)

	iterLocal := b.body.AddLocal(mir.NewUserLocal(s.IterVar, elemTy, span))
	b.BindName(s.IterVar, iterLocal)
	if s.IterIsRef {
		currentLocal := b.CreateTemp(elemTy)
		b.emitDirectReceiverCall(span, enumTy.CanonicalName()+"::Current", mir.Copy(mir.LocalPlace(enumLocal)), nil, mir.LocalPlace(currentLocal))
		region := b.AllocRegion()
		borrowID := b.AllocBorrowID()
		b.Emit(mir.BorrowStmt(span, mir.LocalPlace(iterLocal), mir.LocalPlace(currentLocal), mir.BorrowUnique, region, borrowID))
	} else {
		b.emitDirectReceiverCall(span, enumTy.CanonicalName()+"::Current", mir.Copy(mir.LocalPlace(enumLocal)), nil, mir.LocalPlace(iterLocal))
	}

	b.LowerBlock(s.Body)
	b.EnsureActiveBlock(span)
	if !b.body.Block(b.current).HasTerm {
		b.SetTerminator(mir.GotoTerm(span, condBlock))
	}
	b.PopLoop()

	b.SwitchToBlock(exitBlock)
}

func (b *Builder) lowerBreak(span diag.Span) {
	if target, ok := b.BreakTarget(); ok {
		b.emitResourceDrops(b.loopTargets[len(b.loopTargets)-1].scopeDepth, span)
		b.SetTerminator(mir.GotoTerm(span, target))
	}
}

func (b *Builder) lowerContinue(span diag.Span) {
	if target, ok := b.ContinueTarget(); ok {
		b.emitResourceDrops(b.loopTargets[len(b.loopTargets)-1].scopeDepth, span)
		b.SetTerminator(mir.GotoTerm(span, target))
	}
}

func (b *Builder) lowerReturn(s *ast.Stmt, span diag.Span) {
	if s.Value2 != nil {
		value := b.LowerOperand(s.Value2)
		b.Emit(mir.Assign(span, mir.LocalPlace(0), mir.Use(value)))
	}
	b.emitResourceDrops(-1, span)
	b.SetTerminator(mir.ReturnTerm(span))
}

func (b *Builder) lowerThrow(s *ast.Stmt, span diag.Span) {
	if s.Value2 != nil {
		exc := b.LowerOperand(s.Value2)
		b.emitResourceDrops(-1, span)
		b.SetTerminator(mir.ThrowTerm(span, exc, true))
		return
	}
	b.emitResourceDrops(-1, span)
	b.SetTerminator(mir.ThrowTerm(span, mir.Operand{}, false))
}

// emitResourceDrops emits a Drop for every live using/lock resource bound
// deeper than minDepth, innermost first, before an exit edge leaves those
// scopes (spec.md §4.3.4: the drop runs on every exit path — fall-through,
// return, break, continue, throw, goto; "early return inside the lock
// emits the drop before Return"). Each Drop's target is a fresh block
// evaluation continues in, so the exit terminator lands after the last
// drop. Pass -1 to drop everything (return/throw).
func (b *Builder) emitResourceDrops(minDepth int, span diag.Span) {
	for i := len(b.resources) - 1; i >= 0; i-- {
		r := b.resources[i]
		if r.depth <= minDepth {
			break
		}
		next := b.NewBlock(span)
		b.Emit(mir.DropStmt(span, mir.LocalPlace(r.local), next, 0, false))
		b.SetTerminator(mir.GotoTerm(span, next))
		b.SwitchToBlock(next)
	}
}
