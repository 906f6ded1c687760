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

// Package ast defines the shape of the surface-language input the MIR
// builder consumes. Source lexing and parsing are out of scope for this
// repository (spec.md §1, "out of scope: external collaborators") — this
// package assumes only what spec.md §6 says the builder actually needs:
// every expression has a text representation and, where nested, recursive
// children; every declaration has a fully qualified name; every node
// carries a source span.
package ast

import "github.com/chic-lang/chic-core/pkg/types"

// ExprKind discriminates the shape of an Expr.
type ExprKind uint8

// The expression shapes the builder's lowering rules (spec.md §4.3) switch
// on.
const (
	ExprLiteral ExprKind = iota
	ExprName
	ExprThis
	ExprBase
	ExprTypeRef // reference to a type/namespace name, used to detect static targets
	ExprBinary
	ExprUnary
	ExprCall
	ExprMember           // base.Name
	ExprIndex            // base[idx]
	ExprNullCondMember   // base?.Name
	ExprNullCondIndex    // base?[idx]
	ExprCast
	ExprTuple
	ExprNew
	ExprAddressOf
	ExprAwait
	ExprTry // `expr?`
	ExprIsPattern
	ExprStringInterpolate
)

// LiteralKind discriminates the payload of an ExprLiteral.
type LiteralKind uint8

// The literal shapes a surface constant may take.
const (
	LitNull LiteralKind = iota
	LitBool
	LitInt
	LitFloat
	LitString
)

// BinaryOp enumerates the binary operators the builder resolves.
type BinaryOp uint8

// Binary operators. Compound-assignment ops (`+=`, …) reuse these via
// Assign.Op.
const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpNullCoalesce
)

// Expr is the tagged union of surface expression shapes.
type Expr struct {
	Kind ExprKind
	Span Span

	// ExprLiteral
	LitKind LiteralKind
	Bool    bool
	Int     int64
	Float   float64
	Str     string

	// ExprName / ExprTypeRef / ExprMember / ExprNullCondMember
	Name string
	Base *Expr

	// ExprBinary / ExprUnary
	Op   BinaryOp
	LHS  *Expr
	RHS  *Expr

	// ExprCall
	Callee *Expr
	Args   []Arg

	// ExprIndex / ExprNullCondIndex
	Index *Expr

	// ExprCast
	Operand  *Expr
	TargetTy types.Ty

	// ExprTuple
	Elems []Expr

	// ExprAwait / ExprTry / ExprAddressOf / ExprNew
	Inner *Expr

	// ExprIsPattern: `x is P when G1 when G2`
	Subject *Expr
	Pattern *Pattern
	Guards  []Expr

	// Resolved static type, when known; filled in by a type checker phase
	// the builder's callers run before invoking it (spec.md §1: type
	// inference is a non-goal here, so this is always pre-resolved).
	Ty      types.Ty
	HasTy   bool
}

// Arg is one actual argument at a call site.
type Arg struct {
	Name  string // empty unless a named argument
	Value Expr
	Mode  types.ParamMode
}

// Span is a lightweight alias kept local to ast so this package has no
// dependency on pkg/diag; the builder converts it on ingestion.
type Span struct {
	Start int
	End   int
}
