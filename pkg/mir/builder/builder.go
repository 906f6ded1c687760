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

// Package builder lowers ast.FunctionDecl bodies into mir.MirBody control-
// flow graphs (spec.md §4.3). A Builder is single-use: construct one per
// function with New, call Build, and discard it.
package builder

import (
	log "github.com/sirupsen/logrus"

	"github.com/chic-lang/chic-core/pkg/ast"
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/symtab"
	"github.com/chic-lang/chic-core/pkg/types"
)

// Builder holds the mutable state of one function's lowering (spec.md
// §4.3.1-§4.3.2): the block graph under construction, the name→local
// scope stack, and the symbol/layout tables it consults to resolve
// members, dispatch, and default arguments.
type Builder struct {
	Bag     *diag.Bag
	Symbols *symtab.Index
	Layouts *layout.Table

	body    *mir.MirBody
	current mir.BlockID
	hasCurrent bool

	scopes []scopeFrame
	names  map[string]mir.LocalID

	nextRegion   mir.RegionVar
	nextBorrowID mir.BorrowID

	constraints     []mir.BorrowEscapeConstraint
	specializations []mir.Specialization
	lendsToReturn   map[mir.LocalID]int

	containing     ast.ContainingKind
	containingType string
	returnTy       types.Ty

	labels      map[string]labelInfo
	loopTargets []loopTarget
	resources   []resourceEntry
	fallible    map[mir.LocalID]diag.Span

	decimalVectorizeDeclared bool
	sawDecimalIntrinsic      bool

	caseBlocks        map[int64]caseBlock
	caseLiteralValues []int64
}

// scopeFrame records the names bound since one push_scope call, so
// pop_scope/drop_to_scope_depth can unwind them in reverse order (spec.md
// §4.3.2).
type scopeFrame struct {
	bound []mir.LocalID
}

// labelInfo associates a user label with the block it names and the scope
// depth active at its definition (spec.md §4.3.4 "goto LABEL").
type labelInfo struct {
	block       mir.BlockID
	depth       int
	defined     bool
	forwardRefs []mir.BlockID
}

// loopTarget is the break/continue destination pair for one enclosing
// loop.
type loopTarget struct {
	breakBlock    mir.BlockID
	continueBlock mir.BlockID
	scopeDepth    int
}

// resourceEntry is one live using/lock resource local and the scope depth
// it was bound at, so every exit path leaving that depth can emit its
// Drop first (spec.md §4.3.4 "a Drop statement emitted on every exit path
// of the scope").
type resourceEntry struct {
	local mir.LocalID
	depth int
}

// New constructs a Builder for one function.
func New(bag *diag.Bag, symbols *symtab.Index, layouts *layout.Table, decl ast.FunctionDecl) *Builder {
	returnTy := decl.Signature.Return
	b := &Builder{
		Bag:            bag,
		Symbols:        symbols,
		Layouts:        layouts,
		body:           mir.NewBody(mir.NewReturnLocal(returnTy)),
		names:          make(map[string]mir.LocalID),
		nextRegion:     1, // 0 is InvalidRegion
		containing:     decl.Containing,
		containingType: decl.ContainingType,
		returnTy:       returnTy,
		labels:         make(map[string]labelInfo),
		fallible:       make(map[mir.LocalID]diag.Span),
		lendsToReturn:  make(map[mir.LocalID]int),
	}
	b.body.ArgCount = len(decl.Signature.Params)
	for i, p := range decl.Signature.Params {
		local := mir.NewArgLocal(p.Name, p.Ty, i, p.Mode)
		id := b.body.AddLocal(local)
		b.names[p.Name] = id
		if p.LendsToReturn {
			b.lendsToReturn[id] = i
		}
	}
	b.decimalVectorizeDeclared = decl.VectorizeDecimal
	return b
}

// Body returns the body under construction; valid to call mid-build for
// inspection but the result is only complete after Build's finalization.
func (b *Builder) Body() *mir.MirBody { return b.body }

// NewBlock allocates a fresh block and, if none is active yet, makes it
// current.
func (b *Builder) NewBlock(span diag.Span) mir.BlockID {
	id := b.body.NewBlock()
	b.body.Block(id).Span = span
	b.body.Block(id).HasSpan = true
	if !b.hasCurrent {
		b.current = id
		b.hasCurrent = true
	}
	return id
}

// SwitchToBlock makes id the active block for subsequent statement
// emission (spec.md §4.3.1).
func (b *Builder) SwitchToBlock(id mir.BlockID) {
	b.current = id
	b.hasCurrent = true
}

// Current returns the active block id.
func (b *Builder) Current() mir.BlockID { return b.current }

// Emit appends a statement to the active block. Borrows stored where they
// can outlive the call — the Return local, or a lends-to-return parameter
// slot — additionally record a BorrowEscape constraint; borrows into
// temporaries do not (spec.md §4.3.8).
func (b *Builder) Emit(s mir.Statement) {
	switch s.Kind {
	case mir.StBorrow:
		b.recordEscape(s.BorrowDest, s.BorrowSource, s.Region, s.BorrowID, s.Span)
	case mir.StAssign:
		if s.Value.Kind == mir.RvUse && s.Value.Operand.Kind == mir.OperandBorrowOp {
			op := s.Value.Operand
			b.recordEscape(s.AssignPlace, op.Place, op.Region, op.BorrowID, s.Span)
		}
	}
	b.body.PushStatement(b.current, s)
}

// recordEscape appends a BorrowEscapeConstraint when dest is the Return
// local or a lends-to-return parameter, and is a no-op otherwise. It never
// drops a constraint it owes: the downstream region checker relies on
// these being complete (spec.md §9 "Borrow model").
func (b *Builder) recordEscape(dest, source mir.Place, region mir.RegionVar, id mir.BorrowID, span diag.Span) {
	if len(dest.Projections) != 0 {
		return
	}
	if dest.Base == mir.LocalID(0) {
		b.constraints = append(b.constraints, mir.BorrowEscapeConstraint{
			Borrow: id, Region: region, Source: source, Via: mir.EscapeViaReturn, Span: span,
		})
		return
	}
	if argIdx, ok := b.lendsToReturn[dest.Base]; ok {
		b.constraints = append(b.constraints, mir.BorrowEscapeConstraint{
			Borrow: id, Region: region, Source: source,
			Via: mir.EscapeViaLendsToReturnParam, Param: argIdx, Span: span,
		})
	}
}

// Constraints returns the escape constraints collected so far, in emission
// order.
func (b *Builder) Constraints() []mir.BorrowEscapeConstraint { return b.constraints }

// Specializations returns the dispatch specializations collected so far.
func (b *Builder) Specializations() []mir.Specialization { return b.specializations }

// SetTerminator sets the active block's terminator. It is a builder misuse
// (logged, not a verifier diagnostic — the verifier re-checks this
// structurally) to call this on an already-terminated block.
func (b *Builder) SetTerminator(t mir.Terminator) {
	if b.body.Block(b.current).HasTerm {
		log.WithField("block", b.current).Warn("set_terminator called on an already-terminated block")
		return
	}
	b.body.SetTerminator(b.current, t)
}

// EnsureActiveBlock spawns a fresh successor block if the current block is
// already terminated, producing an orphan block the finalizer will
// terminate (spec.md §4.3.1).
func (b *Builder) EnsureActiveBlock(span diag.Span) mir.BlockID {
	if !b.hasCurrent || b.body.Block(b.current).HasTerm {
		id := b.NewBlock(span)
		b.SwitchToBlock(id)
		return id
	}
	return b.current
}

// AllocRegion mints a fresh borrow region variable.
func (b *Builder) AllocRegion() mir.RegionVar {
	r := b.nextRegion
	b.nextRegion++
	return r
}

// AllocBorrowID mints a fresh borrow id.
func (b *Builder) AllocBorrowID() mir.BorrowID {
	id := b.nextBorrowID
	b.nextBorrowID++
	return id
}

// IsConstructorSelf reports whether e is the `self` receiver of a
// constructor body (spec.md §4.3.7), accepting either surface
// representation of the receiver (a dedicated ExprThis node, or an
// ExprName literally named "self").
func (b *Builder) IsConstructorSelf(e *ast.Expr) bool {
	if b.containing != ast.ContainingConstructor || e == nil {
		return false
	}
	return e.Kind == ast.ExprThis || (e.Kind == ast.ExprName && e.Name == "self")
}

// Finalize runs §4.3.9 finalization over the completed body and returns
// it. The return type's kind is consulted to decide Return vs Unreachable
// for orphan blocks.
func (b *Builder) Finalize(returnTy types.Ty) *mir.MirBody {
	b.body.Finalize(returnTy.Kind() == types.KindUnit)
	return b.body
}
