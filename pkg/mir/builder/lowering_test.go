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
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/mir/builder"
	"github.com/chic-lang/chic-core/pkg/symtab"
	"github.com/chic-lang/chic-core/pkg/types"
)

func TestAwaitLowersToAwaitTerminatorWithAsyncDescriptor(t *testing.T) {
	bag := diag.NewBag()
	future := nameExpr("f")
	await := ast.Expr{Kind: ast.ExprAwait, Inner: &future}
	decl := ast.FunctionDecl{
		Name:    "Fetch",
		IsAsync: true,
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "f", Ty: types.Named("Std::Future")}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{{Kind: ast.StmtExpr, Expr: &await}},
	}

	res := builder.Build(bag, nil, nil, decl)
	fn := res.Function
	require.NotNil(t, fn.Body)
	assert.True(t, fn.Async)

	awaits := 0
	for _, blk := range fn.Body.Blocks {
		if blk.HasTerm && blk.Terminator.Kind == mir.TermAwait {
			awaits++
			assert.True(t, blk.Terminator.HasAwaitDest)
		}
	}
	assert.Equal(t, 1, awaits)

	require.NotNil(t, fn.Body.Async)
	assert.Len(t, fn.Body.Async.ResumeBlocks, 1)
}

func TestIsPatternExprLowersToMatchWithGuardChain(t *testing.T) {
	bag := diag.NewBag()
	subject := nameExpr("x")
	three := intLit(3)
	isExpr := ast.Expr{
		Kind:    ast.ExprIsPattern,
		Subject: &subject,
		Pattern: &ast.Pattern{Kind: ast.PatRelational, RelOp: ast.OpGt, Value: three},
		Guards:  []ast.Expr{nameExpr("g")},
	}
	decl := ast.FunctionDecl{
		Name: "Check",
		Signature: types.FnSignature{
			Params: []types.Param{
				{Name: "x", Ty: types.Named("Std::Int32")},
				{Name: "g", Ty: types.Named("Std::Bool")},
			},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{{Kind: ast.StmtExpr, Expr: &isExpr}},
	}

	fn := builder.Build(bag, nil, nil, decl).Function
	require.NotNil(t, fn.Body)

	matches, switches := 0, 0
	for _, blk := range fn.Body.Blocks {
		if !blk.HasTerm {
			continue
		}
		switch blk.Terminator.Kind {
		case mir.TermMatch:
			matches++
			require.Len(t, blk.Terminator.Arms, 1)
			assert.Equal(t, mir.PatWildcard, blk.Terminator.Arms[0].Pattern.Kind)
		case mir.TermSwitchInt:
			switches++
		}
	}
	assert.Equal(t, 1, matches)
	// One subordinate SwitchInt for the relational pattern condition, one
	// per `when` guard.
	assert.Equal(t, 2, switches)
}

func TestBorrowIntoReturnSlotRecordsEscapeConstraint(t *testing.T) {
	bag := diag.NewBag()
	decl := ast.FunctionDecl{
		Name: "Lend",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "src", Ty: types.Named("Point")}},
			Return: types.Ref(types.Named("Point"), false),
		},
	}
	b := builder.New(bag, nil, nil, decl)
	entry := b.NewBlock(diag.NewSpan(0, 4))
	b.SwitchToBlock(entry)

	region := b.AllocRegion()
	id := b.AllocBorrowID()
	b.Emit(mir.BorrowStmt(diag.NewSpan(0, 4), mir.LocalPlace(0), mir.LocalPlace(1), mir.BorrowShared, region, id))

	constraints := b.Constraints()
	require.Len(t, constraints, 1)
	assert.Equal(t, mir.EscapeViaReturn, constraints[0].Via)
	assert.Equal(t, region, constraints[0].Region)
	assert.Equal(t, id, constraints[0].Borrow)
}

func TestBorrowIntoLendsToReturnParamRecordsEscapeConstraint(t *testing.T) {
	bag := diag.NewBag()
	decl := ast.FunctionDecl{
		Name: "Stash",
		Signature: types.FnSignature{
			Params: []types.Param{
				{Name: "out", Ty: types.Named("Point"), LendsToReturn: true},
				{Name: "src", Ty: types.Named("Point")},
			},
			Return: types.Unit(),
		},
	}
	b := builder.New(bag, nil, nil, decl)
	entry := b.NewBlock(diag.NewSpan(0, 4))
	b.SwitchToBlock(entry)

	b.Emit(mir.BorrowStmt(diag.NewSpan(0, 4), mir.LocalPlace(1), mir.LocalPlace(2), mir.BorrowShared, b.AllocRegion(), b.AllocBorrowID()))

	constraints := b.Constraints()
	require.Len(t, constraints, 1)
	assert.Equal(t, mir.EscapeViaLendsToReturnParam, constraints[0].Via)
	assert.Equal(t, 0, constraints[0].Param)
}

func TestBorrowIntoTemporaryRecordsNoConstraint(t *testing.T) {
	bag := diag.NewBag()
	decl := ast.FunctionDecl{
		Name: "NoEscape",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "src", Ty: types.Named("Point")}},
			Return: types.Unit(),
		},
	}
	b := builder.New(bag, nil, nil, decl)
	entry := b.NewBlock(diag.NewSpan(0, 4))
	b.SwitchToBlock(entry)

	temp := b.CreateTemp(types.Named("Point"))
	b.Emit(mir.BorrowStmt(diag.NewSpan(0, 4), mir.LocalPlace(temp), mir.LocalPlace(1), mir.BorrowShared, b.AllocRegion(), b.AllocBorrowID()))

	assert.Empty(t, b.Constraints())
}

func TestTraitObjectReceiverRecordsTraitDispatchAndSpecialization(t *testing.T) {
	bag := diag.NewBag()
	symbols := symtab.NewIndex(bag)
	symbols.AddType(symtab.TypeDecl{Name: "Shapes::Drawable", Kind: symtab.KindInterface})
	symbols.AddType(symtab.TypeDecl{Name: "Shapes::Circle", Kind: symtab.KindClass})
	symbols.AddMethod(symtab.MethodDecl{OwnerType: "Shapes::Drawable", Name: "Draw"})
	symbols.AddImplementation("Shapes::Circle", "Shapes::Drawable")
	symbols.FinalizeVirtualSlots()

	receiver := ast.Expr{Kind: ast.ExprName, Name: "d", Ty: types.TraitObject("Shapes::Drawable"), HasTy: true}
	callee := ast.Expr{Kind: ast.ExprMember, Name: "Draw", Base: &receiver}
	call := ast.Expr{Kind: ast.ExprCall, Callee: &callee}
	decl := ast.FunctionDecl{
		Name: "Render",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "d", Ty: types.TraitObject("Shapes::Drawable")}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{{Kind: ast.StmtExpr, Expr: &call}},
	}

	res := builder.Build(bag, symbols, nil, decl)
	require.NotNil(t, res.Function.Body)

	var found *mir.Terminator
	for i := range res.Function.Body.Blocks {
		blk := &res.Function.Body.Blocks[i]
		if blk.HasTerm && blk.Terminator.Kind == mir.TermCall {
			found = &blk.Terminator
		}
	}
	require.NotNil(t, found)
	require.True(t, found.HasDispatch)
	assert.Equal(t, mir.DispatchTraitObject, found.Dispatch.Kind)
	assert.Equal(t, "Shapes::Drawable", found.Dispatch.TraitName)
	assert.True(t, found.Dispatch.HasImplType)
	assert.Equal(t, "Shapes::Circle", found.Dispatch.ImplType)

	require.Len(t, res.Specializations, 1)
	assert.Equal(t, "Shapes::Circle::Draw", res.Specializations[0].Symbol)
}

func TestDefaultArgumentsMaterializeAsConstOperands(t *testing.T) {
	bag := diag.NewBag()
	symbols := symtab.NewIndex(bag)
	symbols.AddType(symtab.TypeDecl{Name: "Std::Math", Kind: symtab.KindStruct})
	symbols.AddMethod(symtab.MethodDecl{
		OwnerType: "Std::Math",
		Name:      "Clamp",
		Static:    true,
		Signature: types.FnSignature{
			Params: []types.Param{
				{Name: "value", Ty: types.Named("Std::Int32")},
				{Name: "min", Ty: types.Named("Std::Int32")},
				{Name: "max", Ty: types.Named("Std::Int32")},
			},
			Return: types.Named("Std::Int32"),
		},
	})
	symbols.AddDefaultArgument("Std::Math::Clamp", "min", symtab.ConstValue{Kind: symtab.ConstInt, Int: 0})
	symbols.AddDefaultArgument("Std::Math::Clamp", "max", symtab.ConstValue{Kind: symtab.ConstInt, Int: 100})

	base := ast.Expr{Kind: ast.ExprTypeRef, Name: "Std::Math"}
	callee := ast.Expr{Kind: ast.ExprMember, Name: "Clamp", Base: &base}
	call := ast.Expr{Kind: ast.ExprCall, Callee: &callee, Args: []ast.Arg{{Value: nameExpr("x")}}}
	decl := ast.FunctionDecl{
		Name: "UseClamp",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "x", Ty: types.Named("Std::Int32")}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{{Kind: ast.StmtExpr, Expr: &call}},
	}

	fn := builder.Build(bag, symbols, nil, decl).Function
	require.NotNil(t, fn.Body)

	var call1 *mir.Terminator
	for i := range fn.Body.Blocks {
		blk := &fn.Body.Blocks[i]
		if blk.HasTerm && blk.Terminator.Kind == mir.TermCall {
			call1 = &blk.Terminator
		}
	}
	require.NotNil(t, call1)
	require.Len(t, call1.Args, 3)
	assert.Equal(t, mir.OperandConst, call1.Args[1].Kind)
	assert.Equal(t, int64(0), call1.Args[1].IntVal)
	assert.Equal(t, mir.OperandConst, call1.Args[2].Kind)
	assert.Equal(t, int64(100), call1.Args[2].IntVal)
}

func TestNullConditionalReadBranchesAndProducesNullOnSkipPath(t *testing.T) {
	bag := diag.NewBag()
	base := nameExpr("p")
	read := ast.Expr{Kind: ast.ExprNullCondMember, Name: "X", Base: &base}
	decl := ast.FunctionDecl{
		Name: "ReadX",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "p", Ty: types.Nullable(types.Named("Point"))}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtVarDecl, VarName: "x", Init: &read},
		},
	}

	fn := builder.Build(bag, nil, nil, decl).Function
	require.NotNil(t, fn.Body)

	switches, nullWrites := 0, 0
	for _, blk := range fn.Body.Blocks {
		if blk.HasTerm && blk.Terminator.Kind == mir.TermSwitchInt {
			switches++
		}
		for _, st := range blk.Statements {
			if st.Kind == mir.StAssign && st.Value.Kind == mir.RvUse &&
				st.Value.Operand.Kind == mir.OperandConst && st.Value.Operand.ConstKind == mir.ConstNull {
				nullWrites++
			}
		}
	}
	assert.Equal(t, 1, switches)
	assert.Equal(t, 1, nullWrites)
}

func TestTupleExprLowersToTupleAggregate(t *testing.T) {
	bag := diag.NewBag()
	one := intLit(1)
	two := intLit(2)
	tuple := ast.Expr{Kind: ast.ExprTuple, Elems: []ast.Expr{one, two}}
	decl := ast.FunctionDecl{
		Name:      "Pair",
		Signature: types.FnSignature{Return: types.Unit()},
		Body: []ast.Stmt{
			{Kind: ast.StmtVarDecl, VarName: "t", Init: &tuple},
		},
	}

	fn := builder.Build(bag, nil, nil, decl).Function
	require.NotNil(t, fn.Body)

	aggregates := 0
	for _, blk := range fn.Body.Blocks {
		for _, st := range blk.Statements {
			if st.Kind == mir.StAssign && st.Value.Kind == mir.RvAggregate {
				aggregates++
				assert.Equal(t, mir.AggTuple, st.Value.AggKind)
				assert.Len(t, st.Value.Fields, 2)
			}
		}
	}
	assert.Equal(t, 1, aggregates)
}

func TestCompoundAssignOnPropertyEmitsDiagnostic(t *testing.T) {
	bag := diag.NewBag()
	symbols := symtab.NewIndex(bag)
	symbols.AddType(symtab.TypeDecl{Name: "Counter", Kind: symtab.KindClass})
	symbols.AddProperty(symtab.PropertyDecl{
		OwnerType: "Counter", Name: "Value",
		Ty: types.Named("Std::Int32"), HasGetter: true, HasSetter: true,
	})

	receiver := ast.Expr{Kind: ast.ExprName, Name: "c", Ty: types.Named("Counter"), HasTy: true}
	target := ast.Expr{Kind: ast.ExprMember, Name: "Value", Base: &receiver}
	one := intLit(1)
	decl := ast.FunctionDecl{
		Name: "Inc",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "c", Ty: types.Named("Counter")}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtAssign, Target: &target, Op: ast.OpAdd, HasOp: true, Value: &one},
		},
	}

	builder.Build(bag, symbols, nil, decl)

	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.CodeCompoundAssignOnProperty {
			found = true
			assert.Contains(t, d.Message, "compound assignment on property")
		}
	}
	assert.True(t, found)
}

func TestTryCatchBuildsExceptionRegionWithBlocksInRange(t *testing.T) {
	bag := diag.NewBag()
	exc := ast.Expr{Kind: ast.ExprNew, Inner: &ast.Expr{Kind: ast.ExprName, Name: "MyException"}}
	decl := ast.FunctionDecl{
		Name:      "Guarded",
		Signature: types.FnSignature{Return: types.Unit()},
		Body: []ast.Stmt{
			{
				Kind:    ast.StmtTry,
				TryBody: []ast.Stmt{{Kind: ast.StmtThrow, Value2: &exc}},
				Catches: []ast.CatchClause{
					{ExceptionTy: types.Named("MyException"), BindingName: "e"},
				},
			},
		},
	}

	fn := builder.Build(bag, nil, nil, decl).Function
	require.NotNil(t, fn.Body)
	require.Len(t, fn.Body.ExceptionRegions, 1)

	region := fn.Body.ExceptionRegions[0]
	blocks := len(fn.Body.Blocks)
	require.Len(t, region.Catches, 1)
	c := region.Catches[0]
	assert.Less(t, int(c.Entry), blocks)
	assert.Less(t, int(c.Body), blocks)
	assert.Less(t, int(c.Cleanup), blocks)
	assert.Less(t, int(region.TryEntry), blocks)
	assert.Less(t, int(region.TryExit), blocks)
	assert.True(t, c.HasBinding)
	assert.Less(t, int(c.BindingLocal), len(fn.Body.Locals))
}

func TestDecimalIntrinsicWithoutVectorizeAttributeEmitsDM0002(t *testing.T) {
	bag := diag.NewBag()
	callee := ast.Expr{Kind: ast.ExprName, Name: "Std::Numeric::Decimal::Intrinsics::Add"}
	call := ast.Expr{Kind: ast.ExprCall, Callee: &callee, Args: []ast.Arg{
		{Value: nameExpr("a")},
		{Value: nameExpr("b")},
	}}
	decl := ast.FunctionDecl{
		Name: "Sum",
		Signature: types.FnSignature{
			Params: []types.Param{
				{Name: "a", Ty: types.Named("Std::Numeric::Decimal")},
				{Name: "b", Ty: types.Named("Std::Numeric::Decimal")},
			},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{{Kind: ast.StmtExpr, Expr: &call}},
	}

	builder.Build(bag, nil, nil, decl)

	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.CodeDecimalVectorizeMissing {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCompoundAssignWithOperatorOverloadEmitsCall(t *testing.T) {
	bag := diag.NewBag()
	symbols := symtab.NewIndex(bag)
	symbols.AddType(symtab.TypeDecl{Name: "Money", Kind: symtab.KindStruct})
	symbols.AddMethod(symtab.MethodDecl{OwnerType: "Money", Name: "op_Addition", Static: true})

	target := ast.Expr{Kind: ast.ExprName, Name: "m", Ty: types.Named("Money"), HasTy: true}
	amount := nameExpr("delta")
	decl := ast.FunctionDecl{
		Name: "Accrue",
		Signature: types.FnSignature{
			Params: []types.Param{
				{Name: "m", Ty: types.Named("Money")},
				{Name: "delta", Ty: types.Named("Money")},
			},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtAssign, Target: &target, Op: ast.OpAdd, HasOp: true, Value: &amount},
		},
	}

	fn := builder.Build(bag, symbols, nil, decl).Function
	require.NotNil(t, fn.Body)

	foundCall := false
	for _, blk := range fn.Body.Blocks {
		if blk.HasTerm && blk.Terminator.Kind == mir.TermCall {
			foundCall = true
			assert.Equal(t, "Money::op_Addition", blk.Terminator.Func.SymbolName)
		}
		for _, st := range blk.Statements {
			if st.Kind == mir.StAssign && st.Value.Kind == mir.RvBinary {
				t.Fatalf("expected the overload call to replace the Binary fold")
			}
		}
	}
	assert.True(t, foundCall)
}

func TestLockWithEarlyReturnDropsGuardBeforeReturn(t *testing.T) {
	bag := diag.NewBag()
	enter := nameExpr("mutex")
	decl := ast.FunctionDecl{
		Name: "Locked",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "mutex", Ty: types.Named("Std::Mutex")}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{
				Kind:            ast.StmtLock,
				Resource:        &enter,
				ResourceName:    "guard",
				HasResourceName: true,
				Body:            []ast.Stmt{{Kind: ast.StmtReturn}},
			},
		},
	}

	fn := builder.Build(bag, nil, nil, decl).Function
	require.NotNil(t, fn.Body)

	drops, returns := 0, 0
	for _, blk := range fn.Body.Blocks {
		for _, st := range blk.Statements {
			if st.Kind == mir.StDrop {
				drops++
			}
		}
		if blk.HasTerm && blk.Terminator.Kind == mir.TermReturn {
			returns++
		}
	}
	assert.Equal(t, 1, drops, "early return should drop the lock guard exactly once")
	assert.GreaterOrEqual(t, returns, 1)
}

func TestCoalesceAssignOnPropertyCallsGetterThenSetterOnNullBranch(t *testing.T) {
	bag := diag.NewBag()
	symbols := symtab.NewIndex(bag)
	symbols.AddType(symtab.TypeDecl{Name: "Config", Kind: symtab.KindClass})
	symbols.AddProperty(symtab.PropertyDecl{
		OwnerType: "Config", Name: "Path",
		Ty: types.Nullable(types.Named("Std::String")), HasGetter: true, HasSetter: true,
	})

	receiver := ast.Expr{Kind: ast.ExprName, Name: "c", Ty: types.Named("Config"), HasTy: true}
	target := ast.Expr{Kind: ast.ExprMember, Name: "Path", Base: &receiver}
	fallback := ast.Expr{Kind: ast.ExprLiteral, LitKind: ast.LitString, Str: "/etc/default"}
	decl := ast.FunctionDecl{
		Name: "EnsurePath",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "c", Ty: types.Named("Config")}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtAssign, Target: &target, Value: &fallback, IsCoalesceAssign: true},
		},
	}

	fn := builder.Build(bag, symbols, nil, decl).Function
	require.NotNil(t, fn.Body)

	getterCalls, setterCalls := 0, 0
	var setterBlock mir.BlockID
	for i, blk := range fn.Body.Blocks {
		if !blk.HasTerm || blk.Terminator.Kind != mir.TermCall {
			continue
		}
		switch blk.Terminator.Func.SymbolName {
		case "Config::get_Path":
			getterCalls++
		case "Config::set_Path":
			setterCalls++
			setterBlock = mir.BlockID(i)
		}
	}
	assert.Equal(t, 1, getterCalls, "getter is invoked exactly once, unconditionally")
	require.Equal(t, 1, setterCalls, "setter is invoked only on the null branch")

	// The setter's block must be a SwitchInt target, not fall-through code:
	// reaching it is conditional on the getter's null discriminant.
	reachedBySwitch := false
	for _, blk := range fn.Body.Blocks {
		if blk.HasTerm && blk.Terminator.Kind == mir.TermSwitchInt {
			if blk.Terminator.Otherwise == setterBlock {
				reachedBySwitch = true
			}
			for _, tg := range blk.Terminator.Targets {
				if tg.Target == setterBlock {
					reachedBySwitch = true
				}
			}
		}
	}
	assert.True(t, reachedBySwitch)
}

func TestStringInterpolateLowersToSingleRvalue(t *testing.T) {
	bag := diag.NewBag()
	hello := ast.Expr{Kind: ast.ExprLiteral, LitKind: ast.LitString, Str: "hello "}
	interp := ast.Expr{Kind: ast.ExprStringInterpolate, Elems: []ast.Expr{hello, nameExpr("who")}}
	decl := ast.FunctionDecl{
		Name: "Greet",
		Signature: types.FnSignature{
			Params: []types.Param{{Name: "who", Ty: types.Named("Std::String")}},
			Return: types.Unit(),
		},
		Body: []ast.Stmt{
			{Kind: ast.StmtVarDecl, VarName: "msg", Init: &interp},
		},
	}

	fn := builder.Build(bag, nil, nil, decl).Function
	require.NotNil(t, fn.Body)

	interps := 0
	for _, blk := range fn.Body.Blocks {
		for _, st := range blk.Statements {
			if st.Kind == mir.StAssign && st.Value.Kind == mir.RvStringInterpolate {
				interps++
				assert.Len(t, st.Value.Parts, 2)
			}
		}
	}
	assert.Equal(t, 1, interps)
}
