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
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/symtab"
	"github.com/chic-lang/chic-core/pkg/types"
)

// LowerAssign lowers `target op value` by the six rules of spec.md
// §4.3.3, in order: null-conditional targets, `??=`, static member
// targets, property targets, MMIO-qualified places, and plain places.
func (b *Builder) LowerAssign(s *ast.Stmt, span diag.Span) {
	target := s.Target

	if s.IsCoalesceAssign {
		b.lowerCoalesceAssign(target, s.Value, span)
		return
	}

	if containsNullConditional(target) {
		b.lowerNullConditionalAssign(target, s, span)
		return
	}

	if target.Kind == ast.ExprMember {
		ownerType := calleeOwnerType(target.Base)
		if target.Base.Kind == ast.ExprTypeRef {
			b.lowerStaticTarget(ownerType, target.Name, s, span)
			return
		}
		if b.isProperty(ownerType, target.Name) {
			b.lowerPropertyTarget(target, ownerType, s, span)
			return
		}
		if b.fieldIsReadonly(ownerType, target.Name) && !b.readonlyWriteAllowed(target.Base) {
			b.Bag.Addf(diag.CodeReadonlyWrite, "write to readonly field %s::%s outside constructor", ownerType, target.Name)
			return
		}
	}

	if target.Kind == ast.ExprIndex {
		if idx, ok := constIndexValue(target.Index); ok {
			ownerType := calleeOwnerType(target.Base)
			if name, isField := b.readonlyFieldAtIndex(ownerType, idx); isField && !b.readonlyWriteAllowed(target.Base) {
				b.Bag.Addf(diag.CodeReadonlyWrite, "write to readonly field %s::%s outside constructor", ownerType, name)
				return
			}
		}
	}

	place := b.LowerPlace(target)
	if b.isMmioPlace(target) {
		b.lowerMmioAssign(place, s, span)
		return
	}

	b.lowerPlainAssign(place, s, span)
}

// fieldIsReadonly reports whether ownerType::fieldName is readonly, either
// because the field itself is declared readonly or the enclosing struct
// is declared readonly wholesale (spec.md §4.3.7).
func (b *Builder) fieldIsReadonly(ownerType, fieldName string) bool {
	if b.Layouts == nil {
		return false
	}
	l, ok := b.Layouts.LayoutForName(ownerType)
	if !ok || l.Kind() != layout.KindStruct && l.Kind() != layout.KindClass {
		return false
	}
	strct := l.Struct()
	if strct == nil {
		return false
	}
	if strct.Readonly {
		return true
	}
	for _, f := range strct.Fields {
		if f.Name == fieldName {
			return f.Readonly
		}
	}
	return false
}

// readonlyFieldAtIndex reports whether ownerType's positional field at idx
// is readonly (spec.md §4.3.7 "numeric-index projections into readonly
// fields are rejected identically"), returning the field's name for the
// diagnostic.
func (b *Builder) readonlyFieldAtIndex(ownerType string, idx uint64) (string, bool) {
	if b.Layouts == nil {
		return "", false
	}
	l, ok := b.Layouts.LayoutForName(ownerType)
	if !ok || l.Kind() != layout.KindStruct && l.Kind() != layout.KindClass {
		return "", false
	}
	strct := l.Struct()
	if strct == nil || int(idx) >= len(strct.Fields) {
		return "", false
	}
	f := strct.Fields[idx]
	if strct.Readonly || f.Readonly {
		return f.Name, true
	}
	return "", false
}

// readonlyWriteAllowed reports whether a readonly field write through base
// is permitted: only inside a constructor frame, and only when base
// ultimately resolves to the `self` local, however many field projections
// deep the write is nested (spec.md §4.3.7).
func (b *Builder) readonlyWriteAllowed(base *ast.Expr) bool {
	if b.containing != ast.ContainingConstructor {
		return false
	}
	return rootIsSelf(base)
}

// rootIsSelf walks down a chain of member/index projections to the
// ultimate base expression and reports whether it is the `self` receiver.
func rootIsSelf(e *ast.Expr) bool {
	for e != nil {
		switch e.Kind {
		case ast.ExprThis:
			return true
		case ast.ExprName:
			return e.Name == "self"
		case ast.ExprMember:
			e = e.Base
		case ast.ExprIndex:
			e = e.Base
		default:
			return false
		}
	}
	return false
}

// constIndexValue reports whether e is a compile-time integer literal,
// returning its value.
func constIndexValue(e *ast.Expr) (uint64, bool) {
	if e == nil || e.Kind != ast.ExprLiteral || e.LitKind != ast.LitInt {
		return 0, false
	}
	if e.Int < 0 {
		return 0, false
	}
	return uint64(e.Int), true
}

func containsNullConditional(e *ast.Expr) bool {
	if e == nil {
		return false
	}
	return e.Kind == ast.ExprNullCondMember || e.Kind == ast.ExprNullCondIndex
}

// lowerNullConditionalAssign decomposes a `?.`/`?[]` target into a base
// expression and a sequence of null-conditional segments, branching a
// skip path around the remainder when a segment's base is null or absent
// (spec.md §4.3.3 item 1).
func (b *Builder) lowerNullConditionalAssign(target *ast.Expr, s *ast.Stmt, span diag.Span) {
	baseOperand := b.LowerOperand(target.Base)
	hasValueTemp := b.CreateTemp(types.Named("Std::Bool"))
	b.Emit(mir.Assign(span, mir.LocalPlace(hasValueTemp), mir.Binary(mir.BinNe, baseOperand, mir.NullConst(types.Nullable(types.Named("Std::Object"))))))

	continueBlock := b.NewBlock(span)
	skipBlock := b.NewBlock(span)
	b.SetTerminator(mir.SwitchIntTerm(span, mir.Copy(mir.LocalPlace(hasValueTemp)), []mir.SwitchTarget{{Value: 0, Target: skipBlock}}, continueBlock))

	b.SwitchToBlock(continueBlock)
	basePlace := b.LowerPlace(target.Base)
	var tailPlace mir.Place
	if target.Kind == ast.ExprNullCondIndex {
		idx := b.LowerOperand(target.Index)
		tailPlace = basePlace.Project(mir.DynIndex(b.materializeToLocal(idx, span)))
	} else {
		tailPlace = basePlace.Project(mir.NamedField(target.Name))
	}
	b.lowerPlainAssign(tailPlace, s, span)
	b.EnsureActiveBlock(span)
	joinBlock := b.NewBlock(span)
	if !b.body.Block(b.current).HasTerm {
		b.SetTerminator(mir.GotoTerm(span, joinBlock))
	}

	b.SwitchToBlock(skipBlock)
	b.SetTerminator(mir.GotoTerm(span, joinBlock))

	b.SwitchToBlock(joinBlock)
}

func (b *Builder) materializeToLocal(op mir.Operand, span diag.Span) mir.LocalID {
	local := b.CreateTemp(types.Named("Std::Int32"))
	b.Emit(mir.Assign(span, mir.LocalPlace(local), mir.Use(op)))
	return local
}

// lowerCoalesceAssign lowers `target ??= value`: reads the target, and on
// null writes the (coerced) right-hand side back (spec.md §4.3.3 item 2).
// Property targets invoke the getter unconditionally and the setter only
// on the null branch; static properties follow the same shape but are
// addressed by the owning type name.
func (b *Builder) lowerCoalesceAssign(target, value *ast.Expr, span diag.Span) {
	if target != nil && target.Kind == ast.ExprMember {
		ownerType := calleeOwnerType(target.Base)
		if p := b.propertyDecl(ownerType, target.Name); p != nil {
			static := p.Static || target.Base.Kind == ast.ExprTypeRef
			b.lowerPropertyCoalesceAssign(target, ownerType, static, value, span)
			return
		}
	}

	place := b.LowerPlace(target)
	current := mir.Copy(place)

	isNullTemp := b.CreateTemp(types.Named("Std::Bool"))
	b.Emit(mir.Assign(span, mir.LocalPlace(isNullTemp), mir.Binary(mir.BinEq, current, mir.NullConst(types.Nullable(types.Named("Std::Object"))))))

	assignBlock := b.NewBlock(span)
	skipBlock := b.NewBlock(span)
	joinBlock := b.NewBlock(span)
	b.SetTerminator(mir.SwitchIntTerm(span, mir.Copy(mir.LocalPlace(isNullTemp)), []mir.SwitchTarget{{Value: 0, Target: skipBlock}}, assignBlock))

	b.SwitchToBlock(assignBlock)
	rhs := b.LowerOperand(value)
	b.Emit(mir.Assign(span, place, mir.Use(rhs)))
	b.SetTerminator(mir.GotoTerm(span, joinBlock))

	b.SwitchToBlock(skipBlock)
	b.SetTerminator(mir.GotoTerm(span, joinBlock))

	b.SwitchToBlock(joinBlock)
}

// lowerPropertyCoalesceAssign is the property form of `??=`: call the
// getter into a temp, branch on its null discriminant, and call the
// setter with the lowered right-hand side only when the getter produced
// null (spec.md §4.3.3 item 2).
func (b *Builder) lowerPropertyCoalesceAssign(target *ast.Expr, ownerType string, static bool, value *ast.Expr, span diag.Span) {
	getterName := ownerType + "::get_" + target.Name
	setterName := ownerType + "::set_" + target.Name

	var receiver mir.Operand
	if !static {
		receiver = mir.Copy(b.LowerPlace(target.Base))
	}

	current := b.CreateTemp(types.Nullable(types.Named("Std::Object")))
	if static {
		b.emitStaticCall(span, getterName, nil, mir.LocalPlace(current))
	} else {
		b.emitDirectReceiverCall(span, getterName, receiver, nil, mir.LocalPlace(current))
	}

	isNullTemp := b.CreateTemp(types.Named("Std::Bool"))
	b.Emit(mir.Assign(span, mir.LocalPlace(isNullTemp),
		mir.Binary(mir.BinEq, mir.Copy(mir.LocalPlace(current)), mir.NullConst(types.Nullable(types.Named("Std::Object"))))))

	assignBlock := b.NewBlock(span)
	joinBlock := b.NewBlock(span)
	b.SetTerminator(mir.SwitchIntTerm(span, mir.Copy(mir.LocalPlace(isNullTemp)),
		[]mir.SwitchTarget{{Value: 0, Target: joinBlock}}, assignBlock))

	b.SwitchToBlock(assignBlock)
	rhs := b.LowerOperand(value)
	setterDest := b.CreateTemp(types.Unit())
	if static {
		b.emitStaticCall(span, setterName, []mir.Operand{rhs}, mir.LocalPlace(setterDest))
	} else {
		b.emitDirectReceiverCall(span, setterName, receiver, []mir.Operand{rhs}, mir.LocalPlace(setterDest))
	}
	b.EnsureActiveBlock(span)
	if !b.body.Block(b.current).HasTerm {
		b.SetTerminator(mir.GotoTerm(span, joinBlock))
	}

	b.SwitchToBlock(joinBlock)
}

// propertyDecl looks up ownerType's property declaration, or nil.
func (b *Builder) propertyDecl(ownerType, name string) *symtab.PropertyDecl {
	if b.Symbols == nil {
		return nil
	}
	p, ok := b.Symbols.Property(ownerType, name)
	if !ok {
		return nil
	}
	return p
}

// isProperty reports whether ownerType declares name as a property,
// consulting the symbol index when available.
func (b *Builder) isProperty(ownerType, name string) bool {
	if b.Symbols == nil {
		return false
	}
	_, ok := b.Symbols.Property(ownerType, name)
	return ok
}

// isMmioPlace reports whether target resolves to a field declared `mmio`,
// either on the field itself or on the struct as a whole (spec.md §4.3.3
// item 5). Only plain member targets on a struct/class layout are
// considered; anything else (no layout table, non-member target, unknown
// owner type) conservatively returns false.
func (b *Builder) isMmioPlace(target *ast.Expr) bool {
	if b.Layouts == nil || target.Kind != ast.ExprMember {
		return false
	}
	ownerType := calleeOwnerType(target.Base)
	l, ok := b.Layouts.LayoutForName(ownerType)
	if !ok || l.Kind() != layout.KindStruct && l.Kind() != layout.KindClass {
		return false
	}
	strct := l.Struct()
	if strct == nil {
		return false
	}
	if strct.Mmio {
		return true
	}
	for _, f := range strct.Fields {
		if f.Name == target.Name {
			return f.Mmio
		}
	}
	return false
}

// lowerStaticTarget dispatches a static-property assignment to the
// static setter, or materialises a const write for a plain static field
// (spec.md §4.3.3 item 3).
func (b *Builder) lowerStaticTarget(ownerType, name string, s *ast.Stmt, span diag.Span) {
	if s.HasOp {
		b.Bag.Addf(diag.CodeCompoundAssignOnProperty, "compound assignment on property %s::%s", ownerType, name)
		return
	}
	value := b.LowerOperand(s.Value)
	b.Emit(mir.StaticStore(span, ownerType+"::"+name, value))
}

// lowerPropertyTarget lowers an instance property target (spec.md §4.3.3
// item 4): compound ops are forbidden; plain `=` invokes the setter,
// except inside a constructor on `self`, where the init accessor applies.
func (b *Builder) lowerPropertyTarget(target *ast.Expr, ownerType string, s *ast.Stmt, span diag.Span) {
	if s.HasOp {
		b.Bag.Addf(diag.CodeCompoundAssignOnProperty, "compound assignment on property %s::%s", ownerType, target.Name)
		return
	}

	receiverPlace := b.LowerPlace(target.Base)
	value := b.LowerOperand(s.Value)

	if b.IsConstructorSelf(target.Base) {
		place := receiverPlace.Project(mir.NamedField(target.Name))
		b.Emit(mir.Assign(span, place, mir.Use(value)))
		return
	}

	setterName := ownerType + "::set_" + target.Name
	dest := b.CreateTemp(types.Unit())
	targetBlock := b.NewBlock(span)
	b.SetTerminator(mir.CallTerm(span, mir.SymbolConst(setterName, types.Fn(types.FnSignature{})),
		[]mir.Operand{mir.Copy(receiverPlace), value}, []mir.ArgMode{mir.ArgRef, mir.ArgByValue},
		mir.LocalPlace(dest), true, targetBlock, 0, false, mir.CallDispatch{}, false))
	b.SwitchToBlock(targetBlock)
}

// lowerMmioAssign emits an MmioStore (plain assign) or a read-modify-write
// sequence through a temp (compound op) (spec.md §4.3.3 item 5).
func (b *Builder) lowerMmioAssign(place mir.Place, s *ast.Stmt, span diag.Span) {
	if !s.HasOp {
		value := b.LowerOperand(s.Value)
		b.Emit(mir.MmioStore(span, place, value))
		return
	}
	current := mir.MmioRead(place)
	rhs := b.LowerOperand(s.Value)
	combined := b.materialize(mir.Binary(binOpFromAst(s.Op), current, rhs), types.Named("Std::Int32"), span)
	b.Emit(mir.MmioStore(span, place, combined))
}

// lowerPlainAssign lowers a plain place target: compound ops fold to
// `Assign{place, Binary{op, Copy(place), rhs}}` unless an operator overload
// resolves on the left type, in which case a call is emitted instead; a
// bare `=` to a non-trivially-copyable destination moves rather than
// copies when the source names an owning local (spec.md §4.3.3 item 6,
// "Move semantics").
func (b *Builder) lowerPlainAssign(place mir.Place, s *ast.Stmt, span diag.Span) {
	if !s.HasOp {
		value := b.lowerAssignSource(s.Value, place)
		b.Emit(mir.Assign(span, place, mir.Use(value)))
		return
	}
	if sym, ok := b.resolveOperatorOverload(s.Target, s.Op); ok {
		rhs := b.LowerOperand(s.Value)
		b.emitDirectReceiverCall(span, sym, mir.Copy(place), []mir.Operand{rhs}, place)
		return
	}
	current := mir.Copy(place)
	rhs := b.LowerOperand(s.Value)
	b.Emit(mir.Assign(span, place, mir.Binary(binOpFromAst(s.Op), current, rhs)))
}

// resolveOperatorOverload reports whether the target's static type
// declares an operator method for op, returning its symbol. Only declared
// overloads divert the lowering; everything else stays a Binary fold.
func (b *Builder) resolveOperatorOverload(target *ast.Expr, op ast.BinaryOp) (string, bool) {
	if b.Symbols == nil || target == nil || !target.HasTy {
		return "", false
	}
	name, ok := operatorMethodName(op)
	if !ok {
		return "", false
	}
	owner := target.Ty.CanonicalName()
	if _, found := b.Symbols.Method(owner, name); !found {
		return "", false
	}
	return owner + "::" + name, true
}

func operatorMethodName(op ast.BinaryOp) (string, bool) {
	switch op {
	case ast.OpAdd:
		return "op_Addition", true
	case ast.OpSub:
		return "op_Subtraction", true
	case ast.OpMul:
		return "op_Multiply", true
	case ast.OpDiv:
		return "op_Division", true
	case ast.OpRem:
		return "op_Modulus", true
	case ast.OpBitAnd:
		return "op_BitwiseAnd", true
	case ast.OpBitOr:
		return "op_BitwiseOr", true
	case ast.OpBitXor:
		return "op_ExclusiveOr", true
	case ast.OpShl:
		return "op_LeftShift", true
	case ast.OpShr:
		return "op_RightShift", true
	default:
		return "", false
	}
}

// lowerAssignSource lowers the right-hand side of a plain `=`, preferring
// a Move operand when the source directly names an owning local.
func (b *Builder) lowerAssignSource(e *ast.Expr, dest mir.Place) mir.Operand {
	if e != nil && e.Kind == ast.ExprName {
		if local, ok := b.Lookup(e.Name); ok {
			return mir.Move(mir.LocalPlace(local))
		}
	}
	return b.LowerOperand(e)
}
