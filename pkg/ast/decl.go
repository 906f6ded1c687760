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

// ContainingKind tells the builder what surrounding declaration a function
// body belongs to, since that changes several lowering rules (init
// accessors, `self` semantics) — spec.md §4.3.3 item 4, §4.3.7.
type ContainingKind uint8

// The containing-declaration kinds the builder's rules distinguish.
const (
	ContainingFunction ContainingKind = iota
	ContainingMethod
	ContainingConstructor
)

// FunctionDecl is one function/method/constructor body as the builder
// receives it: a signature, its statement list, and the handful of
// attributes that change lowering (spec.md §4.3.6).
type FunctionDecl struct {
	Name           string
	Signature      types.FnSignature
	Body           []Stmt
	Containing     ContainingKind
	ContainingType string // owner type's FQN; empty for free functions
	VectorizeDecimal bool
	IsAsync        bool
	Extern         bool
	Span           Span
}
