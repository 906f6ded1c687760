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

// BasicBlock is a straight-line run of statements ending in exactly one
// terminator (spec.md §3 "BasicBlock"). The invariant `block.id ==
// index(block)` is maintained by MirBody's block-creation methods; callers
// should not construct a BasicBlock directly outside this package.
type BasicBlock struct {
	ID         BlockID
	Statements []Statement
	Terminator Terminator
	HasTerm    bool
	Span       diag.Span
	HasSpan    bool
}

// newBlock allocates an unterminated block with the given id.
func newBlock(id BlockID) BasicBlock {
	return BasicBlock{ID: id}
}

// PushStatement appends one statement to the block.
func (b *BasicBlock) PushStatement(s Statement) { b.Statements = append(b.Statements, s) }

// SetTerminator sets (or replaces) the block's terminator.
func (b *BasicBlock) SetTerminator(t Terminator) {
	b.Terminator = t
	b.HasTerm = true
}
