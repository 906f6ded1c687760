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
package ast

import "github.com/chic-lang/chic-core/pkg/types"

// PatternKind discriminates a switch/match pattern (spec.md §4.3.4).
type PatternKind uint8

// Pattern shapes the builder knows how to lower.
const (
	PatWildcard PatternKind = iota
	PatLiteral
	PatBinding
	PatTuple
	PatStruct
	PatRecord
	PatEnumVariant
	PatPositional
	PatTypeCheck
	PatRelational
	PatBinary // and/or
	PatNot
	PatList
)

// BindMode mirrors the surface language's binding forms in a binding
// pattern.
type BindMode uint8

// Binding modes a PatBinding may declare.
const (
	BindVar BindMode = iota
	BindLet
	BindRef
	BindMove
)

// FieldPattern binds one named field within a PatStruct/PatRecord.
type FieldPattern struct {
	Name    string
	Pattern Pattern
}

// Pattern is the tagged union of switch/match pattern shapes.
type Pattern struct {
	Kind PatternKind
	Span Span

	// PatLiteral
	Literal Expr

	// PatBinding
	BindName string
	BindMode BindMode

	// PatTuple / PatPositional / PatList
	Elems []Pattern

	// PatStruct / PatRecord / PatEnumVariant
	TypeName string
	Variant  string
	Fields   []FieldPattern

	// PatTypeCheck
	CheckTy types.Ty

	// PatRelational
	RelOp BinaryOp
	Value Expr

	// PatBinary
	CombineOp BinaryOp // OpAnd or OpOr
	LHS       *Pattern
	RHS       *Pattern

	// PatNot
	Negated *Pattern
}
