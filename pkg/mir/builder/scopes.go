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
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/types"
)

// PushScope opens a new lexical scope and returns its depth, to be passed
// back to DropToScopeDepth/PopScope (spec.md §4.3.2).
func (b *Builder) PushScope() int {
	b.scopes = append(b.scopes, scopeFrame{})
	return len(b.scopes) - 1
}

// PopScope closes the innermost scope without emitting drops; callers that
// need StorageDead emission should call DropToScopeDepth first.
func (b *Builder) PopScope() {
	if len(b.scopes) == 0 {
		return
	}
	b.scopes = b.scopes[:len(b.scopes)-1]
}

// CreateTemp appends an anonymous compiler temporary and binds it into the
// innermost scope.
func (b *Builder) CreateTemp(ty types.Ty) mir.LocalID {
	id := b.body.AddLocal(mir.NewTempLocal(ty))
	b.trackScope(id)
	return id
}

// BindName installs name -> local in the current name table and tracks it
// for scope unwinding.
func (b *Builder) BindName(name string, local mir.LocalID) {
	b.names[name] = local
	b.trackScope(local)
}

// Lookup resolves a name to its local, if bound.
func (b *Builder) Lookup(name string) (mir.LocalID, bool) {
	id, ok := b.names[name]
	return id, ok
}

func (b *Builder) trackScope(id mir.LocalID) {
	if len(b.scopes) == 0 {
		b.scopes = append(b.scopes, scopeFrame{})
	}
	top := len(b.scopes) - 1
	b.scopes[top].bound = append(b.scopes[top].bound, id)
}

// DropToScopeDepth emits StorageDead for every local bound after depth d,
// in reverse declaration order — the ownership-inverse of their creation
// (spec.md §4.3.2). It does not pop the scope frames themselves; callers
// unwinding a loop/try body on a non-fallthrough exit path call this then
// continue emitting into the same frame.
func (b *Builder) DropToScopeDepth(d int, span diag.Span) {
	for i := len(b.scopes) - 1; i > d; i-- {
		frame := b.scopes[i]
		for j := len(frame.bound) - 1; j >= 0; j-- {
			b.Emit(mir.StorageDead(span, frame.bound[j]))
		}
	}
}

// CurrentScopeDepth returns the index of the innermost open scope.
func (b *Builder) CurrentScopeDepth() int { return len(b.scopes) - 1 }

// PushLoop registers the break/continue targets for one loop nesting level.
func (b *Builder) PushLoop(breakBlock, continueBlock mir.BlockID) {
	b.loopTargets = append(b.loopTargets, loopTarget{breakBlock, continueBlock, b.CurrentScopeDepth()})
}

// PopLoop unregisters the innermost loop's targets.
func (b *Builder) PopLoop() {
	if len(b.loopTargets) == 0 {
		return
	}
	b.loopTargets = b.loopTargets[:len(b.loopTargets)-1]
}

// BreakTarget returns the innermost loop's break block.
func (b *Builder) BreakTarget() (mir.BlockID, bool) {
	if len(b.loopTargets) == 0 {
		return 0, false
	}
	return b.loopTargets[len(b.loopTargets)-1].breakBlock, true
}

// ContinueTarget returns the innermost loop's continue block.
func (b *Builder) ContinueTarget() (mir.BlockID, bool) {
	if len(b.loopTargets) == 0 {
		return 0, false
	}
	return b.loopTargets[len(b.loopTargets)-1].continueBlock, true
}
