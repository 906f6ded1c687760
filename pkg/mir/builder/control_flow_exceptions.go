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

// lowerTry builds an ExceptionRegion recording the try block's entry/exit,
// one Catch per handler, and an optional finally (spec.md §4.3.4). The
// region is recorded after the body is lowered, and calls lowered inside
// the try body carry no unwind target: the dispatch block is reachable
// only through the region record, not from those call sites.
func (b *Builder) lowerTry(s *ast.Stmt, span diag.Span) {
	tryEntry := b.NewBlock(span)
	b.SetTerminator(mir.GotoTerm(span, tryEntry))
	b.SwitchToBlock(tryEntry)

	depth := b.PushScope()
	b.LowerBlock(s.TryBody)
	b.DropToScopeDepth(depth, span)
	b.PopScope()
	tryExit := b.current
	afterBlock := b.NewBlock(span)
	if !b.body.Block(tryExit).HasTerm {
		b.body.SetTerminator(tryExit, mir.GotoTerm(span, afterBlock))
	}

	dispatchBlock := b.NewBlock(span)
	var catches []mir.Catch
	for _, c := range s.Catches {
		entry := b.NewBlock(span)
		b.SwitchToBlock(entry)

		catch := mir.Catch{ExceptionTy: c.ExceptionTy, Entry: entry}
		if c.BindingName != "" {
			local := b.body.AddLocal(mir.NewUserLocal(c.BindingName, c.ExceptionTy, span))
			b.BindName(c.BindingName, local)
			catch.BindingLocal = local
			catch.HasBinding = true
		}
		if c.Filter != nil {
			filterBlock := b.NewBlock(span)
			catch.FilterBlock = filterBlock
			catch.HasFilter = true
		}

		bodyBlock := b.NewBlock(span)
		catch.Body = bodyBlock
		b.SetTerminator(mir.GotoTerm(span, bodyBlock))
		b.SwitchToBlock(bodyBlock)
		b.LowerBlock(c.Body)
		b.EnsureActiveBlock(span)
		cleanup := b.NewBlock(span)
		catch.Cleanup = cleanup
		if !b.body.Block(b.current).HasTerm {
			b.SetTerminator(mir.GotoTerm(span, cleanup))
		}
		b.SwitchToBlock(cleanup)
		b.SetTerminator(mir.GotoTerm(span, afterBlock))

		catches = append(catches, catch)
	}

	region := mir.ExceptionRegion{
		TryEntry:    tryEntry,
		TryExit:     tryExit,
		After:       afterBlock,
		Dispatch:    dispatchBlock,
		HasDispatch: true,
		Catches:     catches,
	}

	if s.HasFinally {
		finallyEntry := b.NewBlock(span)
		b.SwitchToBlock(finallyEntry)
		b.LowerBlock(s.Finally)
		b.EnsureActiveBlock(span)
		finallyExit := b.current
		region.FinallyEntry = finallyEntry
		region.FinallyExit = finallyExit
		region.HasFinally = true
	}

	b.body.AddExceptionRegion(region)
	b.SwitchToBlock(afterBlock)
}

// lowerUsingOrLock lowers `using (E) body`/`using var x = E` and `lock(E)
// body` to a scope-bound resource local plus a Drop emitted on every exit
// path of the scope (spec.md §4.3.4); early exits reach it through the
// resources stack. The explicit Drop below runs the resource's own cleanup
// (Dispose / lock release). The resource local itself gets no StorageDead
// here: DropToScopeDepth(depth) covers only scopes opened inside this one.
func (b *Builder) lowerUsingOrLock(s *ast.Stmt, span diag.Span, isLock bool) {
	depth := b.PushScope()
	resourceTy := types.Named("Std::Object")
	resource := b.body.AddLocal(mir.NewUserLocal(s.ResourceName, resourceTy, span))
	value := b.LowerOperand(s.Resource)
	b.Emit(mir.Assign(span, mir.LocalPlace(resource), mir.Use(value)))
	if s.HasResourceName {
		b.BindName(s.ResourceName, resource)
	}
	b.resources = append(b.resources, resourceEntry{local: resource, depth: b.CurrentScopeDepth()})

	b.LowerBlock(s.Body)

	b.resources = b.resources[:len(b.resources)-1]
	exitBlock := b.NewBlock(span)
	if !b.body.Block(b.current).HasTerm {
		b.Emit(mir.DropStmt(span, mir.LocalPlace(resource), exitBlock, 0, false))
		b.SetTerminator(mir.GotoTerm(span, exitBlock))
	}
	b.SwitchToBlock(exitBlock)
	b.DropToScopeDepth(depth, span)
	b.PopScope()
	_ = isLock // lock vs using differ only in the surface resource type (LockGuard vs IDisposable); lowering shape is identical.
}

// lowerFixed creates a pinned guard local with IsPinned set, takes a
// Unique borrow of the underlying place, and materialises an AddressOf for
// the pointer binding (spec.md §4.3.4). Guard and pointer StorageDead are
// emitted in reverse of creation order after the body falls through; an
// early exit out of the body (return, break, goto) does not emit them.
func (b *Builder) lowerFixed(s *ast.Stmt, span diag.Span) {
	depth := b.PushScope()
	guardTy := types.Pointer(types.Named("Std::Object"))
	guard := b.body.AddLocal(mir.Local{Ty: guardTy, Kind: mir.LocalTemp, IsPinned: true, Span: span, HasSpan: true})
	b.Emit(mir.StorageLive(span, guard))

	targetPlace := b.LowerPlace(s.Resource)
	region := b.AllocRegion()
	borrowID := b.AllocBorrowID()
	b.Emit(mir.BorrowStmt(span, mir.LocalPlace(guard), targetPlace, mir.BorrowPinned, region, borrowID))

	ptrLocal := b.body.AddLocal(mir.NewUserLocal(s.ResourceName, guardTy, span))
	b.Emit(mir.StorageLive(span, ptrLocal))
	b.Emit(mir.Assign(span, mir.LocalPlace(ptrLocal), mir.AddressOf(targetPlace)))
	b.BindName(s.ResourceName, ptrLocal)

	b.LowerBlock(s.Body)

	b.Emit(mir.StorageDead(span, ptrLocal))
	b.Emit(mir.StorageDead(span, guard))
	b.DropToScopeDepth(depth, span)
	b.PopScope()
}

// lowerGoto emits the chain of StorageDeads for locals falling out of
// scope and jumps to label's block, resolving forward references at
// definition time (spec.md §4.3.4).
func (b *Builder) lowerGoto(s *ast.Stmt, span diag.Span) {
	info, exists := b.labels[s.Label]
	if !exists {
		target := b.NewBlock(span)
		info = labelInfo{block: target, defined: false}
		b.labels[s.Label] = info
	}
	b.emitResourceDrops(info.depth, span)
	b.DropToScopeDepth(info.depth, span)
	b.SetTerminator(mir.GotoTerm(span, info.block))
}

// lowerLabel defines a label at the current point, resolving any forward
// `goto` references already recorded against it.
func (b *Builder) lowerLabel(s *ast.Stmt, span diag.Span) {
	info, exists := b.labels[s.Label]
	if exists && info.defined {
		b.Bag.Addf(diag.CodeUnknownLabel, "duplicate label %q", s.Label)
		return
	}

	var target mir.BlockID
	if exists {
		target = info.block
	} else {
		target = b.NewBlock(span)
	}
	if !b.body.Block(b.current).HasTerm {
		b.SetTerminator(mir.GotoTerm(span, target))
	}
	b.SwitchToBlock(target)
	b.labels[s.Label] = labelInfo{block: target, depth: b.CurrentScopeDepth(), defined: true}
}
