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
	"strconv"

	"github.com/chic-lang/chic-core/pkg/ast"
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/types"
)

// toDiagSpan converts the builder-input ast.Span into the diag.Span every
// MIR construct carries, keeping pkg/ast free of a pkg/diag dependency
// (spec.md §6).
func toDiagSpan(s ast.Span) diag.Span {
	if s.Start > s.End {
		return diag.Span{}
	}
	return diag.NewSpan(s.Start, s.End)
}

// LowerOperand lowers an expression to an Operand, emitting any statements
// its evaluation requires (calls, borrows, temporaries) into the active
// block.
func (b *Builder) LowerOperand(e *ast.Expr) mir.Operand {
	if e == nil {
		return mir.UnitConst()
	}
	span := toDiagSpan(e.Span)
	switch e.Kind {
	case ast.ExprLiteral:
		return b.lowerLiteral(e)
	case ast.ExprName, ast.ExprThis, ast.ExprBase:
		name := e.Name
		if e.Kind == ast.ExprThis || e.Kind == ast.ExprBase {
			name = "self"
		}
		if local, ok := b.Lookup(name); ok {
			return mir.Copy(mir.LocalPlace(local))
		}
		// Unresolved name: a static/const symbol the caller resolves through
		// the symbol table at a higher layer.
		return mir.SymbolConst(name, types.Named(name))
	case ast.ExprBinary:
		return b.lowerBinaryExpr(e, span)
	case ast.ExprUnary:
		return b.lowerUnaryExpr(e, span)
	case ast.ExprCall:
		return b.LowerCallExpr(e, span)
	case ast.ExprIndex, ast.ExprMember:
		return mir.Copy(b.LowerPlace(e))
	case ast.ExprCast:
		return b.lowerCastExpr(e, span)
	case ast.ExprNew:
		return b.LowerOperand(e.Inner)
	case ast.ExprTry:
		return b.lowerTryExpr(e, span)
	case ast.ExprAwait:
		return b.lowerAwaitExpr(e, span)
	case ast.ExprIsPattern:
		return b.lowerIsPatternExpr(e, span)
	case ast.ExprStringInterpolate:
		return b.lowerStringInterpolateExpr(e, span)
	case ast.ExprTuple:
		return b.lowerTupleExpr(e, span)
	case ast.ExprNullCondMember, ast.ExprNullCondIndex:
		return b.lowerNullConditionalExpr(e, span)
	case ast.ExprAddressOf:
		return b.materialize(mir.AddressOf(b.LowerPlace(e.Inner)), types.Pointer(types.Named("Std::Object")), span)
	default:
		return mir.PendingOperand()
	}
}

// lowerAwaitExpr lowers `await f` to an Await terminator whose resume
// block carries on with the awaited result in a fresh temp. Cancellation
// is a cooperative poll, never an injected exception, so no unwind edge is
// attached here (spec.md §9 "Async control flow").
func (b *Builder) lowerAwaitExpr(e *ast.Expr, span diag.Span) mir.Operand {
	future := b.LowerOperand(e.Inner)
	destTy := types.Named("Std::Object")
	if e.HasTy {
		destTy = e.Ty
	}
	dest := b.CreateTemp(destTy)
	resume := b.NewBlock(span)
	b.SetTerminator(mir.AwaitTerm(span, future, mir.LocalPlace(dest), true, resume, nil))
	b.SwitchToBlock(resume)
	return mir.Copy(mir.LocalPlace(dest))
}

// lowerIsPatternExpr lowers `x is P when G1 when G2` to a boolean-valued
// temporary: a Match terminator with one wildcard arm routes to a guard
// chain, each guard a subordinate SwitchInt; success assigns true, any
// failure false, then both join (spec.md §4.3.4).
func (b *Builder) lowerIsPatternExpr(e *ast.Expr, span diag.Span) mir.Operand {
	subjectPlace := b.LowerPlace(e.Subject)
	subject := patternSubject{place: subjectPlace, operand: b.LowerOperand(e.Subject)}
	result := b.CreateTemp(types.Named("Std::Bool"))

	guardEntry := b.NewBlock(span)
	falseBlock := b.NewBlock(span)
	joinBlock := b.NewBlock(span)

	b.SetTerminator(mir.MatchTerm(span, subject.operand,
		[]mir.MatchArm{{Pattern: mir.Wildcard(), Target: guardEntry}}, falseBlock, true))

	b.SwitchToBlock(guardEntry)
	if e.Pattern != nil {
		cond := b.lowerPatternCondition(span, subject, e.Pattern)
		next := b.NewBlock(span)
		b.SetTerminator(mir.SwitchIntTerm(span, cond, []mir.SwitchTarget{{Value: 0, Target: falseBlock}}, next))
		b.SwitchToBlock(next)
	}
	for i := range e.Guards {
		guard := b.LowerOperand(&e.Guards[i])
		next := b.NewBlock(span)
		b.SetTerminator(mir.SwitchIntTerm(span, guard, []mir.SwitchTarget{{Value: 0, Target: falseBlock}}, next))
		b.SwitchToBlock(next)
	}
	b.Emit(mir.Assign(span, mir.LocalPlace(result), mir.Use(mir.BoolConst(true))))
	b.SetTerminator(mir.GotoTerm(span, joinBlock))

	b.SwitchToBlock(falseBlock)
	b.Emit(mir.Assign(span, mir.LocalPlace(result), mir.Use(mir.BoolConst(false))))
	b.SetTerminator(mir.GotoTerm(span, joinBlock))

	b.SwitchToBlock(joinBlock)
	return mir.Copy(mir.LocalPlace(result))
}

// lowerStringInterpolateExpr lowers an interpolated string to a single
// StringInterpolate rvalue over its parts in source order.
func (b *Builder) lowerStringInterpolateExpr(e *ast.Expr, span diag.Span) mir.Operand {
	parts := make([]mir.Operand, len(e.Elems))
	for i := range e.Elems {
		parts[i] = b.LowerOperand(&e.Elems[i])
	}
	return b.materialize(mir.StringInterpolate(parts), types.Named("Std::String"), span)
}

// lowerTupleExpr lowers a tuple construction to an Aggregate rvalue and
// registers the tuple's positional layout so backends can place it
// (spec.md §4.1 "Tuples").
func (b *Builder) lowerTupleExpr(e *ast.Expr, span diag.Span) mir.Operand {
	fields := make([]mir.AggregateField, len(e.Elems))
	elemTys := make([]types.Ty, len(e.Elems))
	for i := range e.Elems {
		fields[i] = mir.AggregateField{Operand: b.LowerOperand(&e.Elems[i])}
		if e.Elems[i].HasTy {
			elemTys[i] = e.Elems[i].Ty
		} else {
			elemTys[i] = types.Named("Std::Object")
		}
	}
	tupleTy := types.Tuple(elemTys...)
	if b.Layouts != nil {
		decls := make([]layout.FieldDecl, len(elemTys))
		for i, ty := range elemTys {
			decls[i] = layout.FieldDecl{Name: "Item" + strconv.Itoa(i+1), Ty: ty}
		}
		b.Layouts.EnsureTupleLayout(decls)
	}
	return b.materialize(mir.Aggregate(mir.AggTuple, tupleTy.CanonicalName(), fields), tupleTy, span)
}

// lowerNullConditionalExpr lowers a `base?.Member` / `base?[idx]` read:
// branch on the base's non-null discriminant, project on the continue
// path, and produce null on the skip path, joining into one nullable temp
// (the read-position analogue of spec.md §4.3.3 item 1).
func (b *Builder) lowerNullConditionalExpr(e *ast.Expr, span diag.Span) mir.Operand {
	baseOperand := b.LowerOperand(e.Base)
	resultTy := types.Nullable(types.Named("Std::Object"))
	if e.HasTy {
		resultTy = e.Ty
	}
	result := b.CreateTemp(resultTy)

	hasValue := b.CreateTemp(types.Named("Std::Bool"))
	b.Emit(mir.Assign(span, mir.LocalPlace(hasValue),
		mir.Binary(mir.BinNe, baseOperand, mir.NullConst(types.Nullable(types.Named("Std::Object"))))))

	continueBlock := b.NewBlock(span)
	skipBlock := b.NewBlock(span)
	joinBlock := b.NewBlock(span)
	b.SetTerminator(mir.SwitchIntTerm(span, mir.Copy(mir.LocalPlace(hasValue)),
		[]mir.SwitchTarget{{Value: 0, Target: skipBlock}}, continueBlock))

	b.SwitchToBlock(continueBlock)
	basePlace := b.LowerPlace(e.Base)
	var projected mir.Place
	if e.Kind == ast.ExprNullCondIndex {
		idx := b.LowerOperand(e.Index)
		projected = basePlace.Project(mir.DynIndex(b.materializeToLocal(idx, span)))
	} else {
		projected = basePlace.Project(mir.NamedField(e.Name))
	}
	b.Emit(mir.Assign(span, mir.LocalPlace(result), mir.Use(mir.Copy(projected))))
	b.SetTerminator(mir.GotoTerm(span, joinBlock))

	b.SwitchToBlock(skipBlock)
	b.Emit(mir.Assign(span, mir.LocalPlace(result), mir.Use(mir.NullConst(resultTy))))
	b.SetTerminator(mir.GotoTerm(span, joinBlock))

	b.SwitchToBlock(joinBlock)
	return mir.Copy(mir.LocalPlace(result))
}

func (b *Builder) lowerLiteral(e *ast.Expr) mir.Operand {
	switch e.LitKind {
	case ast.LitBool:
		return mir.BoolConst(e.Bool)
	case ast.LitInt:
		return mir.IntConst(e.Int, types.Named("Std::Int32"))
	case ast.LitFloat:
		return mir.FloatConst(e.Float, types.Named("Std::Float64"))
	case ast.LitString:
		return mir.StringConst(e.Str)
	case ast.LitNull:
		return mir.NullConst(types.Nullable(types.Named("Std::Object")))
	default:
		return mir.UnitConst()
	}
}

func (b *Builder) lowerBinaryExpr(e *ast.Expr, span diag.Span) mir.Operand {
	if e.Op == ast.OpNullCoalesce {
		return b.lowerNullCoalesceExpr(e, span)
	}
	lhs := b.LowerOperand(e.LHS)
	rhs := b.LowerOperand(e.RHS)
	rv := mir.Binary(binOpFromAst(e.Op), lhs, rhs)
	return b.materialize(rv, resultTyOfBinOp(e.Op), span)
}

// lowerNullCoalesceExpr lowers `a ?? b`: evaluate a, branch on its
// non-null discriminant, and join into a shared result local written on
// both paths (spec.md §4.3.3 item 2 describes the assignment form; the
// pure-expression form here follows the same branch shape).
func (b *Builder) lowerNullCoalesceExpr(e *ast.Expr, span diag.Span) mir.Operand {
	lhsOperand := b.LowerOperand(e.LHS)
	resultTy := types.Named("Std::Object")
	result := b.CreateTemp(resultTy)

	cond := b.CreateTemp(types.Named("Std::Bool"))
	b.Emit(mir.Assign(span, mir.LocalPlace(cond), mir.Binary(mir.BinNe, lhsOperand, mir.NullConst(types.Nullable(resultTy)))))

	thenBlock := b.NewBlock(span)
	elseBlock := b.NewBlock(span)
	joinBlock := b.NewBlock(span)

	b.SetTerminator(mir.SwitchIntTerm(span, mir.Copy(mir.LocalPlace(cond)),
		[]mir.SwitchTarget{{Value: 0, Target: elseBlock}}, thenBlock))

	b.SwitchToBlock(thenBlock)
	b.Emit(mir.Assign(span, mir.LocalPlace(result), mir.Use(lhsOperand)))
	b.SetTerminator(mir.GotoTerm(span, joinBlock))

	b.SwitchToBlock(elseBlock)
	rhsOperand := b.LowerOperand(e.RHS)
	b.Emit(mir.Assign(span, mir.LocalPlace(result), mir.Use(rhsOperand)))
	b.SetTerminator(mir.GotoTerm(span, joinBlock))

	b.SwitchToBlock(joinBlock)
	return mir.Copy(mir.LocalPlace(result))
}

// lowerTryExpr lowers the `expr?` propagation operator: on an Err/error
// variant, return it immediately; on Ok, unwrap the payload. If the
// operand's static type carries no fallible (Err/Error) variant, `?` has
// nothing to propagate and E0C02 fires once at the operator (spec.md §8
// scenario 2) before the structural branch is still emitted so lowering
// can continue to aggregate diagnostics (spec.md §7).
func (b *Builder) lowerTryExpr(e *ast.Expr, span diag.Span) mir.Operand {
	if e.Inner != nil && e.Inner.HasTy && b.Layouts != nil && !b.Layouts.TyIsFallible(e.Inner.Ty) {
		b.Bag.Addf(diag.CodeTryOperatorNotFallible,
			"type `%s` does not expose an `Err`/`Error` variant required for `?`", e.Inner.Ty.Name())
	}
	inner := b.LowerOperand(e.Inner)
	isErrLocal := b.CreateTemp(types.Named("Std::Bool"))
	b.Emit(mir.Assign(span, mir.LocalPlace(isErrLocal), mir.Use(inner)))

	errBlock := b.NewBlock(span)
	okBlock := b.NewBlock(span)

	b.SetTerminator(mir.SwitchIntTerm(span, mir.Copy(mir.LocalPlace(isErrLocal)),
		[]mir.SwitchTarget{{Value: 1, Target: errBlock}}, okBlock))

	b.SwitchToBlock(errBlock)
	b.Emit(mir.MarkFallibleHandled(span, isErrLocal))
	b.SetTerminator(mir.ReturnTerm(span))

	b.SwitchToBlock(okBlock)
	return mir.Copy(mir.LocalPlace(isErrLocal))
}

func (b *Builder) lowerUnaryExpr(e *ast.Expr, span diag.Span) mir.Operand {
	operand := b.LowerOperand(e.LHS)
	rv := mir.Unary(unOpFromAst(e.Op), operand)
	return b.materialize(rv, types.Named("Std::Int32"), span)
}

func (b *Builder) lowerCastExpr(e *ast.Expr, span diag.Span) mir.Operand {
	operand := b.LowerOperand(e.Operand)
	rv := mir.Cast(mir.CastNumeric, operand, types.Named("Std::Object"), e.TargetTy)
	return b.materialize(rv, e.TargetTy, span)
}

// materialize assigns an rvalue into a fresh temp and returns a Copy of it.
func (b *Builder) materialize(rv mir.Rvalue, ty types.Ty, span diag.Span) mir.Operand {
	temp := b.CreateTemp(ty)
	b.Emit(mir.Assign(span, mir.LocalPlace(temp), rv))
	return mir.Copy(mir.LocalPlace(temp))
}

// LowerPlace lowers an lvalue expression to a Place, applying the field
// and index projection rules.
func (b *Builder) LowerPlace(e *ast.Expr) mir.Place {
	if e == nil {
		return mir.Place{}
	}
	switch e.Kind {
	case ast.ExprName:
		if local, ok := b.Lookup(e.Name); ok {
			return mir.LocalPlace(local)
		}
		return mir.Place{}
	case ast.ExprThis, ast.ExprBase:
		if local, ok := b.Lookup("self"); ok {
			return mir.LocalPlace(local)
		}
		return mir.Place{}
	case ast.ExprMember:
		base := b.LowerPlace(e.Base)
		return base.Project(mir.NamedField(e.Name))
	case ast.ExprIndex:
		base := b.LowerPlace(e.Base)
		idxOperand := b.LowerOperand(e.Index)
		if idxOperand.Kind == mir.OperandConst && idxOperand.ConstKind == mir.ConstInt {
			return base.Project(mir.ConstIndex(uint64(idxOperand.IntVal)))
		}
		span := toDiagSpan(e.Span)
		idxLocal := b.CreateTemp(types.Named("Std::Int32"))
		b.Emit(mir.Assign(span, mir.LocalPlace(idxLocal), mir.Use(idxOperand)))
		return base.Project(mir.DynIndex(idxLocal))
	default:
		return mir.Place{}
	}
}

func binOpFromAst(op ast.BinaryOp) mir.BinOp {
	switch op {
	case ast.OpAdd:
		return mir.BinAdd
	case ast.OpSub:
		return mir.BinSub
	case ast.OpMul:
		return mir.BinMul
	case ast.OpDiv:
		return mir.BinDiv
	case ast.OpRem:
		return mir.BinRem
	case ast.OpBitAnd:
		return mir.BinAnd
	case ast.OpBitOr:
		return mir.BinOr
	case ast.OpBitXor:
		return mir.BinXor
	case ast.OpShl:
		return mir.BinShl
	case ast.OpShr:
		return mir.BinShr
	case ast.OpEq:
		return mir.BinEq
	case ast.OpNe:
		return mir.BinNe
	case ast.OpLt:
		return mir.BinLt
	case ast.OpLe:
		return mir.BinLe
	case ast.OpGt:
		return mir.BinGt
	case ast.OpGe:
		return mir.BinGe
	default:
		return mir.BinAdd
	}
}

func resultTyOfBinOp(op ast.BinaryOp) types.Ty {
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpAnd, ast.OpOr:
		return types.Named("Std::Bool")
	default:
		return types.Named("Std::Int32")
	}
}

// unOpFromAst maps the unary-position use of BinaryOp (the surface
// grammar has no separate unary-operator enum) to mir.UnOp.
func unOpFromAst(op ast.BinaryOp) mir.UnOp {
	switch op {
	case ast.OpSub:
		return mir.UnNeg
	case ast.OpBitXor:
		return mir.UnBitNot
	default:
		return mir.UnNot
	}
}
