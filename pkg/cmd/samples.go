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
package cmd

import (
	"github.com/chic-lang/chic-core/pkg/ast"
	"github.com/chic-lang/chic-core/pkg/types"
)

// Sample is one hand-built program this harness can compile, verify, and
// run. There is no lexer/parser in this repository (spec.md §1), so these
// stand in for source files: every Ty is built through pkg/types'
// constructor functions rather than unmarshalled, since Ty's fields are
// unexported by design.
type Sample struct {
	Decl ast.FunctionDecl
	// Args to pass when running this sample through the WASM backend's
	// entry-point convention (run-wasm); ignored by compile/verify.
	WasmArgs []uint64
}

func i32() types.Ty { return types.Named("Std::Int32") }

func name(n string) *ast.Expr { return &ast.Expr{Kind: ast.ExprName, Name: n} }

func intLit(v int64) *ast.Expr { return &ast.Expr{Kind: ast.ExprLiteral, LitKind: ast.LitInt, Int: v} }

func binary(op ast.BinaryOp, lhs, rhs *ast.Expr) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprBinary, Op: op, LHS: lhs, RHS: rhs}
}

func ret(e *ast.Expr) ast.Stmt { return ast.Stmt{Kind: ast.StmtReturn, Value2: e} }

// Samples is the fixed set of programs every chicc subcommand iterates
// over by default.
var Samples = []Sample{
	{
		Decl: ast.FunctionDecl{
			Name: "Chic::add",
			Signature: types.FnSignature{
				Params: []types.Param{
					{Name: "a", Ty: i32(), Mode: types.ModeValue},
					{Name: "b", Ty: i32(), Mode: types.ModeValue},
				},
				Return: i32(),
			},
			Body: []ast.Stmt{ret(binary(ast.OpAdd, name("a"), name("b")))},
		},
		WasmArgs: []uint64{17, 25},
	},
	{
		// if (a > b) return a; else return b;
		Decl: ast.FunctionDecl{
			Name: "Chic::max",
			Signature: types.FnSignature{
				Params: []types.Param{
					{Name: "a", Ty: i32(), Mode: types.ModeValue},
					{Name: "b", Ty: i32(), Mode: types.ModeValue},
				},
				Return: i32(),
			},
			Body: []ast.Stmt{
				{
					Kind:    ast.StmtIf,
					Cond:    binary(ast.OpGt, name("a"), name("b")),
					Then:    []ast.Stmt{ret(name("a"))},
					Else:    []ast.Stmt{ret(name("b"))},
					HasElse: true,
				},
			},
		},
		WasmArgs: []uint64{4, 9},
	},
	{
		// 100 / divisor — exercises the interpreter's trap path when run
		// with a zero argument.
		Decl: ast.FunctionDecl{
			Name: "Chic::hundredDividedBy",
			Signature: types.FnSignature{
				Params: []types.Param{{Name: "divisor", Ty: i32(), Mode: types.ModeValue}},
				Return: i32(),
			},
			Body: []ast.Stmt{ret(binary(ast.OpDiv, intLit(100), name("divisor")))},
		},
		WasmArgs: []uint64{4},
	},
}
