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
package mir

import "github.com/chic-lang/chic-core/pkg/diag"

// EscapeVia says which escape route a BorrowEscapeConstraint records.
type EscapeVia uint8

// The two routes a borrow may escape a function through (spec.md §4.3.8):
// the return slot, or a parameter declared to lend its storage to the
// return value.
const (
	EscapeViaReturn EscapeVia = iota
	EscapeViaLendsToReturnParam
)

// BorrowEscapeConstraint records that a borrow was stored somewhere it can
// outlive the function call: the Return local or a lends-to-return
// parameter slot. The builder emits these faithfully and never drops one;
// a downstream region checker consumes them (spec.md §4.3.8, §9 "Borrow
// model").
type BorrowEscapeConstraint struct {
	Borrow BorrowID
	Region RegionVar
	Source Place
	Via    EscapeVia
	// Param is the argument index the borrow escaped through; meaningful
	// only when Via is EscapeViaLendsToReturnParam.
	Param int
	Span  diag.Span
}

// Specialization records a dispatch-site fact the backends may exploit: a
// trait-object call whose trait has exactly one known implementer resolves
// to that concrete type, so the call may be lowered direct instead of
// through the vtable (spec.md §4.3.5, §4.5, §4.6).
type Specialization struct {
	TraitName string
	Method    string
	ImplType  string
	Symbol    string
}
