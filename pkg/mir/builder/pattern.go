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

// patternSubject bundles the place and operand form of a switch/match
// subject so pattern lowering can both compare values and project into
// them.
type patternSubject struct {
	place   mir.Place
	operand mir.Operand
}

// lowerMatchArmPattern converts a surface pattern into a MIR-level Pattern
// for a Match terminator's arm, plus any bindings it introduces and a
// synthesized guard condition. Wildcard, literal, binding, tuple, struct,
// record, enum-variant and positional patterns translate to a structural
// MIR Pattern; relational, binary (`and`/`or`), not, list and type-check
// patterns have no MIR Pattern shape of their own, so they lower to a
// Wildcard arm whose match condition is folded entirely into the returned
// guard (spec.md §4.3.4's guard-chain fallback). A guard contributed by a
// nested sub-pattern (e.g. a relational pattern inside a tuple element) is
// conjoined into the same returned guard so the caller only ever has to
// combine it once with the arm's `when` clause.
func (b *Builder) lowerMatchArmPattern(span diag.Span, subject patternSubject, pat *ast.Pattern) (mir.Pattern, []mir.MatchBinding, mir.Operand, bool) {
	switch pat.Kind {
	case ast.PatWildcard:
		return mir.Wildcard(), nil, mir.Operand{}, false

	case ast.PatBinding:
		if pat.BindName == "" {
			return mir.Wildcard(), nil, mir.Operand{}, false
		}
		local := b.declareMatchBindingLocal(span, pat.BindName)
		return mir.Wildcard(), []mir.MatchBinding{{Local: local, From: subject.place}}, mir.Operand{}, false

	case ast.PatLiteral:
		switch pat.Literal.LitKind {
		case ast.LitInt:
			return mir.IntLiteralPattern(pat.Literal.Int), nil, mir.Operand{}, false
		case ast.LitBool:
			return mir.BoolLiteralPattern(pat.Literal.Bool), nil, mir.Operand{}, false
		default:
			lit := b.LowerOperand(&pat.Literal)
			guard := b.materialize(mir.Binary(mir.BinEq, subject.operand, lit), types.Named("Std::Bool"), span)
			return mir.Wildcard(), nil, guard, true
		}

	case ast.PatRelational, ast.PatBinary, ast.PatNot, ast.PatList, ast.PatTypeCheck:
		guard := b.lowerPatternCondition(span, subject, pat)
		return mir.Wildcard(), nil, guard, true

	case ast.PatTuple, ast.PatPositional:
		elems := make([]mir.Pattern, len(pat.Elems))
		var bindings []mir.MatchBinding
		var guard mir.Operand
		hasGuard := false
		for i := range pat.Elems {
			place := subject.place.Project(mir.Field(i))
			sub := patternSubject{place: place, operand: mir.Copy(place)}
			sp, sb, sg, sgOk := b.lowerMatchArmPattern(span, sub, &pat.Elems[i])
			elems[i] = sp
			bindings = append(bindings, sb...)
			if sgOk {
				guard, hasGuard = b.conjoinGuard(span, guard, hasGuard, sg)
			}
		}
		return mir.TuplePattern(elems), bindings, guard, hasGuard

	case ast.PatStruct, ast.PatRecord:
		pattern, bindings, guard, hasGuard := b.lowerFieldPatterns(span, subject, pat.Fields)
		return mir.StructPattern(pattern), bindings, guard, hasGuard

	case ast.PatEnumVariant:
		variantPlace := subject.place.Project(mir.Downcast(pat.Variant))
		variantSubject := patternSubject{place: variantPlace, operand: mir.Copy(variantPlace)}
		payload, bindings, guard, hasGuard := b.lowerFieldPatterns(span, variantSubject, pat.Fields)
		return mir.EnumVariantPattern(pat.Variant, payload), bindings, guard, hasGuard

	default:
		return mir.Wildcard(), nil, mir.Operand{}, false
	}
}

// lowerFieldPatterns lowers a PatStruct/PatRecord/PatEnumVariant's named
// sub-patterns, projecting subject by field name. FieldIndex records the
// sub-pattern's position within fields, not a resolved layout offset,
// since neither backend's Match emission dereferences it structurally yet.
func (b *Builder) lowerFieldPatterns(span diag.Span, subject patternSubject, patFields []ast.FieldPattern) ([]mir.PatternField, []mir.MatchBinding, mir.Operand, bool) {
	fields := make([]mir.PatternField, len(patFields))
	var bindings []mir.MatchBinding
	var guard mir.Operand
	hasGuard := false
	for i := range patFields {
		place := subject.place.Project(mir.NamedField(patFields[i].Name))
		sub := patternSubject{place: place, operand: mir.Copy(place)}
		sp, sb, sg, sgOk := b.lowerMatchArmPattern(span, sub, &patFields[i].Pattern)
		fields[i] = mir.PatternField{FieldIndex: i, Sub: sp}
		bindings = append(bindings, sb...)
		if sgOk {
			guard, hasGuard = b.conjoinGuard(span, guard, hasGuard, sg)
		}
	}
	return fields, bindings, guard, hasGuard
}

// conjoinGuard ANDs an additional guard condition into an accumulator,
// simply adopting it when the accumulator is not yet set.
func (b *Builder) conjoinGuard(span diag.Span, guard mir.Operand, hasGuard bool, next mir.Operand) (mir.Operand, bool) {
	if !hasGuard {
		return next, true
	}
	return b.materialize(mir.Binary(mir.BinAnd, guard, next), types.Named("Std::Bool"), span), true
}

// declareMatchBindingLocal introduces the local a PatBinding names, bound
// to the matched sub-place by the arm's MatchBinding metadata rather than
// an explicit copy statement (spec.md §4.3.4).
func (b *Builder) declareMatchBindingLocal(span diag.Span, name string) mir.LocalID {
	local := b.body.AddLocal(mir.NewUserLocal(name, types.Named("Std::Object"), span))
	b.BindName(name, local)
	return local
}

// lowerPatternCondition evaluates whether pat matches subject, emitting
// whatever comparisons and projections are needed and returning a boolean
// operand. It implements the `x is P when G` boolean-valued form of
// spec.md §4.3.4, and is reused by lowerMatchArmPattern to build the guard
// for the pattern kinds that have no structural MIR Pattern shape
// (relational, binary, not, list, type-check).
func (b *Builder) lowerPatternCondition(span diag.Span, subject patternSubject, pat *ast.Pattern) mir.Operand {
	switch pat.Kind {
	case ast.PatWildcard:
		return mir.BoolConst(true)

	case ast.PatBinding:
		b.bindPattern(span, subject, pat.BindName, pat.BindMode)
		return mir.BoolConst(true)

	case ast.PatLiteral:
		lit := b.LowerOperand(&pat.Literal)
		return b.materialize(mir.Binary(mir.BinEq, subject.operand, lit), types.Named("Std::Bool"), span)

	case ast.PatRelational:
		value := b.LowerOperand(&pat.Value)
		return b.materialize(mir.Binary(binOpFromAst(pat.RelOp), subject.operand, value), types.Named("Std::Bool"), span)

	case ast.PatBinary:
		lhs := b.lowerPatternCondition(span, subject, pat.LHS)
		rhs := b.lowerPatternCondition(span, subject, pat.RHS)
		op := mir.BinAnd
		if pat.CombineOp == ast.OpOr {
			op = mir.BinOr
		}
		return b.materialize(mir.Binary(op, lhs, rhs), types.Named("Std::Bool"), span)

	case ast.PatNot:
		inner := b.lowerPatternCondition(span, subject, pat.Negated)
		return b.materialize(mir.Unary(mir.UnNot, inner), types.Named("Std::Bool"), span)

	case ast.PatTypeCheck:
		// Approximated as a checked downcast that is non-null on success;
		// a full runtime type-test intrinsic belongs to the type checker
		// this repository does not implement (spec.md §1).
		cast := mir.Cast(mir.CastDowncast, subject.operand, types.Named("Std::Object"), types.Nullable(pat.CheckTy))
		casted := b.materialize(cast, types.Nullable(pat.CheckTy), span)
		return b.materialize(mir.Binary(mir.BinNe, casted, mir.NullConst(types.Nullable(pat.CheckTy))), types.Named("Std::Bool"), span)

	case ast.PatTuple:
		return b.lowerAllMatch(span, subject, pat.Elems, func(i int) mir.Place {
			return subject.place.Project(mir.Field(i))
		})

	case ast.PatPositional:
		return b.lowerAllMatch(span, subject, pat.Elems, func(i int) mir.Place {
			return subject.place.Project(mir.Field(i))
		})

	case ast.PatStruct, ast.PatRecord:
		return b.lowerFieldMatch(span, subject, pat.Fields)

	case ast.PatEnumVariant:
		variantPlace := subject.place.Project(mir.Downcast(pat.Variant))
		variantSubject := patternSubject{place: variantPlace, operand: mir.Copy(variantPlace)}
		fieldsOk := b.lowerFieldMatch(span, variantSubject, pat.Fields)
		return fieldsOk

	case ast.PatList:
		// Approximated as an element-count check; structural element
		// patterns are not matched individually.
		length := b.materialize(mir.Len(subject.place), types.Named("Std::Int32"), span)
		return b.materialize(mir.Binary(mir.BinEq, length, mir.IntConst(int64(len(pat.Elems)), types.Named("Std::Int32"))), types.Named("Std::Bool"), span)

	default:
		return mir.BoolConst(true)
	}
}

func (b *Builder) lowerAllMatch(span diag.Span, subject patternSubject, elems []ast.Pattern, projectAt func(int) mir.Place) mir.Operand {
	result := mir.BoolConst(true)
	for i := range elems {
		place := projectAt(i)
		sub := patternSubject{place: place, operand: mir.Copy(place)}
		cond := b.lowerPatternCondition(span, sub, &elems[i])
		result = b.materialize(mir.Binary(mir.BinAnd, result, cond), types.Named("Std::Bool"), span)
	}
	return result
}

func (b *Builder) lowerFieldMatch(span diag.Span, subject patternSubject, fields []ast.FieldPattern) mir.Operand {
	result := mir.BoolConst(true)
	for i := range fields {
		place := subject.place.Project(mir.NamedField(fields[i].Name))
		sub := patternSubject{place: place, operand: mir.Copy(place)}
		cond := b.lowerPatternCondition(span, sub, &fields[i].Pattern)
		result = b.materialize(mir.Binary(mir.BinAnd, result, cond), types.Named("Std::Bool"), span)
	}
	return result
}

func (b *Builder) bindPattern(span diag.Span, subject patternSubject, name string, mode ast.BindMode) {
	if name == "" {
		return
	}
	ty := types.Named("Std::Object")
	local := b.body.AddLocal(mir.NewUserLocal(name, ty, span))
	switch mode {
	case ast.BindRef:
		region := b.AllocRegion()
		borrowID := b.AllocBorrowID()
		b.Emit(mir.BorrowStmt(span, mir.LocalPlace(local), subject.place, mir.BorrowShared, region, borrowID))
	case ast.BindMove:
		b.Emit(mir.Assign(span, mir.LocalPlace(local), mir.Use(mir.Move(subject.place))))
	default:
		b.Emit(mir.Assign(span, mir.LocalPlace(local), mir.Use(subject.operand)))
	}
	b.BindName(name, local)
}
