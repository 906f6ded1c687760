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

// GeneratorDescriptor records the extra state a generator/iterator body
// needs beyond a plain function: the resume-point dispatch local and the
// set of locals that must be hoisted into the generator's persistent
// frame rather than the native call stack.
type GeneratorDescriptor struct {
	StateLocal    LocalID
	HoistedLocals []LocalID
}

// AsyncDescriptor records the extra state an async state-machine body
// needs: its state-dispatch local and the set of pending-await resume
// blocks, indexed by state value.
type AsyncDescriptor struct {
	StateLocal   LocalID
	ResumeBlocks []BlockID
}

// EffectSet records the side-effect facts the builder attached to a body
// (e.g. for scheduler/ABI decisions in the backends); it is advisory
// metadata, not verified structurally.
type EffectSet struct {
	Throws    bool
	Allocates bool
	Unsafe    bool
}

// MirBody is the control-flow graph and local-variable table for one
// function (spec.md §3 "MirBody").
type MirBody struct {
	ArgCount int
	Locals   []Local
	Blocks   []BasicBlock
	Span     diag.Span
	HasSpan  bool

	Async     *AsyncDescriptor
	Generator *GeneratorDescriptor

	ExceptionRegions []ExceptionRegion

	Effects          EffectSet
	StreamMeta       string
	DebugNotes       []string
	DecimalVectorize bool
}

// NewBody constructs an empty body seeded with the mandatory Return local.
func NewBody(returnLocal Local) *MirBody {
	return &MirBody{Locals: []Local{returnLocal}}
}

// AddLocal appends a local and returns its id.
func (b *MirBody) AddLocal(l Local) LocalID {
	id := LocalID(len(b.Locals))
	b.Locals = append(b.Locals, l)
	return id
}

// NewBlock allocates a fresh unterminated block and returns its id. The
// block's ID always equals its index, preserving the invariant verified by
// §8.
func (b *MirBody) NewBlock() BlockID {
	id := BlockID(len(b.Blocks))
	b.Blocks = append(b.Blocks, newBlock(id))
	return id
}

// Block returns a pointer to the block with the given id for in-place
// mutation.
func (b *MirBody) Block(id BlockID) *BasicBlock { return &b.Blocks[id] }

// PushStatement appends a statement to the named block.
func (b *MirBody) PushStatement(block BlockID, s Statement) { b.Block(block).PushStatement(s) }

// SetTerminator sets the named block's terminator.
func (b *MirBody) SetTerminator(block BlockID, t Terminator) { b.Block(block).SetTerminator(t) }

// AddExceptionRegion registers a try/catch/finally region.
func (b *MirBody) AddExceptionRegion(r ExceptionRegion) {
	b.ExceptionRegions = append(b.ExceptionRegions, r)
}

// Finalize walks the block list and gives every unterminated block a
// terminator: Return if returnIsUnit, else Unreachable (spec.md §4.3.9).
// Finalize does not touch already-terminated blocks and never removes
// locals; unused locals are left for backends to ignore.
func (b *MirBody) Finalize(returnIsUnit bool) {
	for i := range b.Blocks {
		blk := &b.Blocks[i]
		if blk.HasTerm {
			continue
		}
		if returnIsUnit {
			blk.SetTerminator(ReturnTerm(diag.Span{}))
		} else {
			blk.SetTerminator(UnreachableTerm(diag.Span{}))
		}
	}
}
