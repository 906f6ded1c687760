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
package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chic-lang/chic-core/pkg/ast"
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/mir/builder"
	"github.com/chic-lang/chic-core/pkg/types"
)

func readonlyPointLayouts(bag *diag.Bag) *layout.Table {
	table := layout.NewTable(bag)
	table.AddStruct(layout.StructDecl{
		Name: "Point",
		Fields: []layout.FieldDecl{
			{Name: "X", Ty: types.Named("Std::Int32"), Readonly: true},
		},
	})
	return table
}

func intLit(v int64) ast.Expr { return ast.Expr{Kind: ast.ExprLiteral, LitKind: ast.LitInt, Int: v} }
func nameExpr(n string) ast.Expr { return ast.Expr{Kind: ast.ExprName, Name: n} }

// TestWhileLoopHasExactlyOneSwitchIntWithBreakContinue checks the
// concrete scenario from spec.md §8 item 3: lowering a while loop whose
// body is a single `break` produces exactly one SwitchInt terminator. It
// does not inspect the SwitchInt's targets or where the break jumps.
func TestWhileLoopHasExactlyOneSwitchIntWithBreakContinue(t *testing.T) {
	bag := diag.NewBag()
	cond := nameExpr("flag")
	body := []ast.Stmt{
		{Kind: ast.StmtBreak},
	}
	decl := ast.FunctionDecl{
		Name: "Loop",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "flag", Ty: types.Named("Std::Bool")}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtWhile, Cond: &cond, Body: body},
		},
	}

	fn := builder.Build(bag, nil, nil, decl).Function
	require.NotNil(t, fn.Body)

	switchCount := 0
	for _, blk := range fn.Body.Blocks {
		if blk.HasTerm && blk.Terminator.Kind == mir.TermSwitchInt {
			switchCount++
		}
	}
	assert.Equal(t, 1, switchCount)
}

// TestIfElseLowersToSwitchIntWithJoinBlock checks the if/else shape of
// spec.md §4.3.4: a SwitchInt whose targets route to then/else, joined by
// a common successor.
func TestIfElseLowersToSwitchIntWithJoinBlock(t *testing.T) {
	bag := diag.NewBag()
	cond := nameExpr("flag")
	one := intLit(1)
	two := intLit(2)
	decl := ast.FunctionDecl{
		Name: "Pick",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "flag", Ty: types.Named("Std::Bool")}},
			Return: types.Named("Std::Int32"),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtIf, Cond: &cond,
				Then: []ast.Stmt{{Kind: ast.StmtReturn, Value2: &one}},
				Else: []ast.Stmt{{Kind: ast.StmtReturn, Value2: &two}},
				HasElse: true,
			},
		},
	}

	fn := builder.Build(bag, nil, nil, decl).Function
	require.NotNil(t, fn.Body)
	assert.True(t, bag.IsEmpty())

	foundSwitch := false
	for _, blk := range fn.Body.Blocks {
		if blk.HasTerm && blk.Terminator.Kind == mir.TermSwitchInt {
			foundSwitch = true
		}
	}
	assert.True(t, foundSwitch)
}

// TestGotoCaseTargetingGuardedArmEmitsDiagnostic checks that `goto case`
// into a `when`-guarded case is rejected (spec.md §4.3.4, diagnostic
// E0C04).
func TestGotoCaseTargetingGuardedArmEmitsDiagnostic(t *testing.T) {
	bag := diag.NewBag()
	subject := nameExpr("x")
	guard := nameExpr("flag")
	caseVal := intLit(1)

	decl := ast.FunctionDecl{
		Name: "Switcher",
		Signature: types.FnSignature{
			Params: []types.Param{
				{Name: "x", Ty: types.Named("Std::Int32")},
				{Name: "flag", Ty: types.Named("Std::Bool")},
			},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtSwitch, Subject: &subject, Arms: []ast.SwitchArm{
				{Pattern: ast.Pattern{Kind: ast.PatLiteral, Literal: intLit(1)}, Guard: &guard, Body: []ast.Stmt{
					{Kind: ast.StmtGotoCase, CaseValue: &caseVal},
				}},
			}},
		},
	}

	builder.Build(bag, nil, nil, decl)
	assert.True(t, bag.HasErrors() || !bag.IsEmpty())
}

// TestForeachOverSpanUsesCrossInlineStrategy checks spec.md §8 scenario 4:
// foreach over a Span<int> with a resolved Span type lowers with no
// enumerator-prefixed local, exactly one Len(_) rvalue, and an indexed
// read via ProjectionElem::Index.
func TestForeachOverSpanUsesCrossInlineStrategy(t *testing.T) {
	bag := diag.NewBag()
	seq := ast.Expr{Kind: ast.ExprName, Name: "items", Ty: types.Span(types.Named("Std::Int32")), HasTy: true}

	decl := ast.FunctionDecl{
		Name: "SumSpan",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "items", Ty: types.Span(types.Named("Std::Int32"))}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtForeach, IterVar: "v", Seq: &seq, Body: nil},
		},
	}

	fn := builder.Build(bag, nil, nil, decl).Function
	require.NotNil(t, fn.Body)
	assert.True(t, bag.IsEmpty())

	lenCount := 0
	indexCount := 0
	for _, blk := range fn.Body.Blocks {
		for _, st := range blk.Statements {
			if st.Kind != mir.StAssign {
				continue
			}
			if st.Value.Kind == mir.RvLen {
				lenCount++
			}
			if st.Value.Kind == mir.RvUse {
				for _, proj := range st.Value.Operand.Place.Projections {
					if proj.Kind == mir.ProjDynIndex {
						indexCount++
					}
				}
			}
		}
	}
	assert.Equal(t, 1, lenCount, "expected exactly one Len(_) rvalue")
	assert.Greater(t, indexCount, 0, "expected at least one dynamic-index projection")

	for _, l := range fn.Body.Locals {
		assert.NotContains(t, l.Name, "__foreach_enum")
	}
}

// TestForeachOverNonContiguousSequenceUsesEnumeratorStrategy checks the
// enumerator-based fallback of spec.md §4.3.4 for a sequence whose static
// type is not the intrinsic contiguous shape: the lowered body calls
// GetEnumerator once and MoveNext/Current per iteration, with no Len(_)
// rvalue anywhere.
func TestForeachOverNonContiguousSequenceUsesEnumeratorStrategy(t *testing.T) {
	bag := diag.NewBag()
	seq := ast.Expr{Kind: ast.ExprName, Name: "items", Ty: types.Named("Std::Collections::List"), HasTy: true}

	decl := ast.FunctionDecl{
		Name: "SumList",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "items", Ty: types.Named("Std::Collections::List")}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtForeach, IterVar: "v", Seq: &seq, Body: nil},
		},
	}

	fn := builder.Build(bag, nil, nil, decl).Function
	require.NotNil(t, fn.Body)
	assert.True(t, bag.IsEmpty())

	var calledSymbols []string
	for _, blk := range fn.Body.Blocks {
		if blk.HasTerm && blk.Terminator.Kind == mir.TermCall {
			if blk.Terminator.Func.Kind == mir.OperandConst && blk.Terminator.Func.ConstKind == mir.ConstSymbol {
				calledSymbols = append(calledSymbols, blk.Terminator.Func.SymbolName)
			}
		}
		for _, st := range blk.Statements {
			require.NotEqual(t, mir.RvLen, st.Value.Kind, "enumerator strategy must not use Len(_)")
		}
	}

	assert.Contains(t, calledSymbols, "Std::Collections::List::GetEnumerator")
	assert.Contains(t, calledSymbols, "Std::Collections::List::Enumerator::MoveNext")
	assert.Contains(t, calledSymbols, "Std::Collections::List::Enumerator::Current")
}

// TestSwitchLowersToSingleMatchTerminatorWithGuardFallback checks spec.md
// §4.3.4: `switch` lowers to one Match terminator with one MatchArm per
// case, tried in order; a literal pattern gets a structural MIR Pattern
// with no guard, while a relational pattern (reserved for the guard-chain
// fallback) gets a Wildcard MIR Pattern whose condition is carried
// entirely in the arm's Guard.
func TestSwitchLowersToSingleMatchTerminatorWithGuardFallback(t *testing.T) {
	bag := diag.NewBag()
	subject := nameExpr("x")
	zero := intLit(0)

	decl := ast.FunctionDecl{
		Name: "Classify",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "x", Ty: types.Named("Std::Int32")}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtSwitch, Subject: &subject, Arms: []ast.SwitchArm{
				{Pattern: ast.Pattern{Kind: ast.PatLiteral, Literal: intLit(1)}, Body: nil},
				{Pattern: ast.Pattern{Kind: ast.PatRelational, RelOp: ast.OpGt, Value: zero}, Body: nil},
				{Pattern: ast.Pattern{Kind: ast.PatWildcard}, Body: nil},
			}},
		},
	}

	fn := builder.Build(bag, nil, nil, decl).Function
	require.NotNil(t, fn.Body)
	assert.True(t, bag.IsEmpty())

	var matches []mir.Terminator
	for _, blk := range fn.Body.Blocks {
		if blk.HasTerm && blk.Terminator.Kind == mir.TermMatch {
			matches = append(matches, blk.Terminator)
		}
	}
	require.Len(t, matches, 1, "switch must lower to exactly one Match terminator")

	arms := matches[0].Arms
	require.Len(t, arms, 3)

	assert.Equal(t, mir.PatIntLiteral, arms[0].Pattern.Kind)
	assert.Equal(t, int64(1), arms[0].Pattern.IntValue)
	assert.Nil(t, arms[0].Guard)

	assert.Equal(t, mir.PatWildcard, arms[1].Pattern.Kind)
	assert.NotNil(t, arms[1].Guard, "relational pattern must fold into a guard, not a structural Pattern")

	assert.Equal(t, mir.PatWildcard, arms[2].Pattern.Kind)
	assert.Nil(t, arms[2].Guard)
}

// TestMmioFieldAssignLowersToMmioStore checks spec.md §4.3.3 item 5: an
// assignment through a field the layout table marks `mmio` lowers to an
// MmioStore statement rather than a plain Assign.
func TestMmioFieldAssignLowersToMmioStore(t *testing.T) {
	bag := diag.NewBag()
	layouts := layout.NewTable(bag)
	layouts.AddStruct(layout.StructDecl{
		Name: "Device",
		Fields: []layout.FieldDecl{
			{Name: "Ctrl", Ty: types.Named("Std::Int32"), Mmio: true},
			{Name: "Label", Ty: types.Named("Std::Int32")},
		},
	})

	dev := ast.Expr{Kind: ast.ExprName, Name: "dev", Ty: types.Named("Device"), HasTy: true}
	ctrlTarget := ast.Expr{Kind: ast.ExprMember, Name: "Ctrl", Base: &dev}
	labelTarget := ast.Expr{Kind: ast.ExprMember, Name: "Label", Base: &dev}
	value := intLit(5)

	decl := ast.FunctionDecl{
		Name: "WriteDevice",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "dev", Ty: types.Named("Device")}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtAssign, Target: &ctrlTarget, Value: &value},
			{Kind: ast.StmtAssign, Target: &labelTarget, Value: &value},
		},
	}

	fn := builder.Build(bag, nil, layouts, decl).Function
	require.NotNil(t, fn.Body)
	assert.True(t, bag.IsEmpty())

	mmioStores := 0
	plainAssigns := 0
	for _, blk := range fn.Body.Blocks {
		for _, st := range blk.Statements {
			switch st.Kind {
			case mir.StMmioStore:
				mmioStores++
			case mir.StAssign:
				plainAssigns++
			}
		}
	}
	assert.Equal(t, 1, mmioStores, "mmio-qualified field must lower through MmioStore")
	assert.Equal(t, 1, plainAssigns, "non-mmio field must still lower through a plain Assign")
}

// TestTryOperatorOnNonFallibleTypeEmitsDiagnostic checks spec.md §8
// scenario 2: `return x?;` where x's static type exposes no Err/Error
// variant produces E0C02.
func TestTryOperatorOnNonFallibleTypeEmitsDiagnostic(t *testing.T) {
	bag := diag.NewBag()
	layouts := layout.NewTable(bag)

	x := ast.Expr{Kind: ast.ExprName, Name: "x", Ty: types.Named("OnlyOk"), HasTy: true}
	tryExpr := ast.Expr{Kind: ast.ExprTry, Inner: &x}

	decl := ast.FunctionDecl{
		Name: "Get",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "x", Ty: types.Named("OnlyOk")}},
			Return: types.Named("Std::Int32"),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtReturn, Value2: &tryExpr},
		},
	}

	builder.Build(bag, nil, layouts, decl)
	require.True(t, bag.HasErrors())

	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.CodeTryOperatorNotFallible {
			assert.Contains(t, d.Message, "does not expose an `Err`/`Error` variant required for `?`")
			found = true
		}
	}
	assert.True(t, found, "expected E0C02 diagnostic")
}

// TestReadonlyFieldWriteOutsideConstructorEmitsDiagnostic checks spec.md
// §4.3.7: assigning to a readonly field from a plain method (not a
// constructor frame on `self`) produces E0C03.
func TestReadonlyFieldWriteOutsideConstructorEmitsDiagnostic(t *testing.T) {
	bag := diag.NewBag()
	layouts := readonlyPointLayouts(bag)

	self := ast.Expr{Kind: ast.ExprThis, Ty: types.Named("Point"), HasTy: true}
	target := ast.Expr{Kind: ast.ExprMember, Base: &self, Name: "X"}
	value := intLit(9)

	decl := ast.FunctionDecl{
		Name:           "Mutate",
		Containing:     ast.ContainingMethod,
		ContainingType: "Point",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "self", Ty: types.Named("Point")}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtAssign, Target: &target, Value: &value},
		},
	}

	builder.Build(bag, nil, layouts, decl)
	require.True(t, bag.HasErrors())

	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.CodeReadonlyWrite {
			found = true
		}
	}
	assert.True(t, found, "expected E0C03 diagnostic")
}

// TestReadonlyFieldWriteInsideConstructorOnSelfIsAllowed checks the
// permitted side of spec.md §4.3.7: the same write from a constructor
// frame on `self` is allowed and emits no diagnostic.
func TestReadonlyFieldWriteInsideConstructorOnSelfIsAllowed(t *testing.T) {
	bag := diag.NewBag()
	layouts := readonlyPointLayouts(bag)

	self := ast.Expr{Kind: ast.ExprThis, Ty: types.Named("Point"), HasTy: true}
	target := ast.Expr{Kind: ast.ExprMember, Base: &self, Name: "X"}
	value := intLit(9)

	decl := ast.FunctionDecl{
		Name:           "Point",
		Containing:     ast.ContainingConstructor,
		ContainingType: "Point",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "self", Ty: types.Named("Point")}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtAssign, Target: &target, Value: &value},
		},
	}

	builder.Build(bag, nil, layouts, decl)

	for _, d := range bag.Items() {
		assert.NotEqual(t, diag.CodeReadonlyWrite, d.Code)
	}
}
