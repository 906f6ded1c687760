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
package wasm

import "github.com/chic-lang/chic-core/pkg/mir"

// wasmRegSizeLimit is the largest size, in bytes, this backend returns in
// a scalar WASM value; larger return types are rewritten to the sret
// calling convention (mirrors pkg/codegen/native's regSizeLimit, halved
// since WASM's widest scalar is i64/f64).
const wasmRegSizeLimit = 8

// allocateLocals decides, for every mir.Local in e.fn.Body, whether it is
// represented as a WASM param/local directly (valScalar) or as an i32
// pointer into the function's bump-allocated stack frame (valAddress),
// and assigns the scratch locals spec.md §4.6 names.
func (e *emitter) allocateLocals() {
	e.slots = map[mir.LocalID]localSlot{}
	if e.fn.Body == nil {
		return
	}
	locals := e.fn.Body.Locals

	retSize, _, hasRet := e.layouts.SizeAndAlignForTy(e.fn.Signature.Return)
	e.sret = hasRet && retSize > wasmRegSizeLimit

	nextParam := uint32(0)
	if e.sret {
		e.params = append(e.params, ValueTypeI32)
		e.slots[mir.LocalID(0)] = localSlot{Kind: valAddress, Index: nextParam}
		nextParam++
	}

	// Arguments, in declaration order, become WASM params directly.
	// Address-classified args are already pointers in the caller's frame.
	argParamBase := nextParam
	for id, l := range locals {
		if l.Kind != mir.LocalArg {
			continue
		}
		ix := argParamBase + uint32(l.ArgIndex)
		for uint32(len(e.params)) <= ix {
			e.params = append(e.params, ValueTypeI32)
		}
		switch classify(l.Ty) {
		case valAddress:
			e.params[ix] = ValueTypeI32
			e.slots[mir.LocalID(id)] = localSlot{Kind: valAddress, Index: ix}
		default:
			e.params[ix] = scalarWasmType(l.Ty)
			e.slots[mir.LocalID(id)] = localSlot{Kind: valScalar, Index: ix}
		}
	}

	localBase := uint32(len(e.params))
	nextLocal := localBase

	type pendingAddr struct {
		local  mir.LocalID
		size   uint64
		align  uint64
		idx    uint32
	}
	var pendingAddrs []pendingAddr

	for id, l := range locals {
		if l.Kind == mir.LocalArg {
			continue
		}
		if l.Kind == mir.LocalReturn && e.sret {
			continue // already bound to the sret pointer param
		}
		switch classify(l.Ty) {
		case valAddress:
			size, align, ok := e.layouts.SizeAndAlignForTy(l.Ty)
			if !ok {
				size, align = 16, 8
			}
			e.localTypes = append(e.localTypes, ValueTypeI32)
			slot := localSlot{Kind: valAddress, Index: nextLocal}
			e.slots[mir.LocalID(id)] = slot
			pendingAddrs = append(pendingAddrs, pendingAddr{local: mir.LocalID(id), size: size, align: align, idx: nextLocal})
			nextLocal++
		default:
			e.localTypes = append(e.localTypes, scalarWasmType(l.Ty))
			e.slots[mir.LocalID(id)] = localSlot{Kind: valScalar, Index: nextLocal}
			nextLocal++
		}
	}

	// Scratch locals spec.md §4.6 names.
	e.stackAdjustLocal = nextLocal
	e.localTypes = append(e.localTypes, ValueTypeI32)
	nextLocal++
	e.tempLocal = nextLocal
	e.localTypes = append(e.localTypes, ValueTypeI64)
	nextLocal++
	e.blockLocal = nextLocal
	e.localTypes = append(e.localTypes, ValueTypeI32)
	nextLocal++
	e.stackTempLocal = nextLocal
	e.localTypes = append(e.localTypes, ValueTypeI32)
	nextLocal++
	e.wideTempLocal = nextLocal
	e.localTypes = append(e.localTypes, ValueTypeI64)
	nextLocal++
	e.wideTempLocalHi = nextLocal
	e.localTypes = append(e.localTypes, ValueTypeI64)
	nextLocal++

	e.frameOffsets = map[mir.LocalID]uint64{}
	var offset uint64
	for _, p := range pendingAddrs {
		if p.align > 0 {
			offset = alignUp(offset, p.align)
		}
		e.frameOffsets[p.local] = offset
		offset += p.size
	}
	e.frameSize = alignUp(offset, 8)
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}

// emitFunction assembles the complete instruction stream: the stack-frame
// prologue, then the flat dispatch loop over e.fn.Body.Blocks.
func (e *emitter) emitFunction(rt *runtimeImports) {
	e.body.Reset()
	e.rt = rt

	if e.fn.Body == nil {
		e.fail("function has no body")
		e.emitOp(opUnreachable)
		return
	}

	e.emitPrologue()

	n := len(e.fn.Body.Blocks)
	if n == 0 {
		e.emitOp(opUnreachable)
		return
	}

	e.emitOp(opI32Const)
	e.writeSLEB(0)
	e.emitLocalSet(e.blockLocal)

	e.emitOp(opLoop)
	e.body.WriteByte(blockTypeVoid)
	for i := 0; i < n; i++ {
		e.emitOp(opBlock)
		e.body.WriteByte(blockTypeVoid)
	}

	e.emitLocalGet(e.blockLocal)
	e.emitOp(opBrTable)
	e.writeULEB(uint64(n))
	for i := 0; i < n; i++ {
		e.writeULEB(uint64(i))
	}
	e.writeULEB(uint64(n - 1))

	for i := 0; i < n; i++ {
		e.emitOp(opEnd) // closes block b_i
		e.emitBlockBody(mir.BlockID(i), n)
	}
	e.emitOp(opEnd) // closes the loop
	e.emitOp(opUnreachable)
}

// emitPrologue bumps the global stack pointer down by the frame size and
// materializes every address local's pointer.
func (e *emitter) emitPrologue() {
	if e.frameSize == 0 {
		return
	}
	e.emitOp(opGlobalGet)
	e.writeULEB(0)
	e.emitOp(opI32Const)
	e.writeSLEB(int64(e.frameSize))
	e.emitOp(opI32Sub)
	e.emitLocalSet(e.stackAdjustLocal)
	e.emitLocalGet(e.stackAdjustLocal)
	e.emitOp(opGlobalSet)
	e.writeULEB(0)

	for id, off := range e.frameOffsets {
		slot := e.slots[id]
		e.emitLocalGet(e.stackAdjustLocal)
		e.emitOp(opI32Const)
		e.writeSLEB(int64(off))
		e.emitOp(opI32Add)
		e.emitLocalSet(slot.Index)
	}
}

// emitEpilogueRestoreStack restores the global stack pointer before any
// exit from the function (return, panic, throw past this frame).
func (e *emitter) emitEpilogueRestoreStack() {
	if e.frameSize == 0 {
		return
	}
	e.emitLocalGet(e.stackAdjustLocal)
	e.emitOp(opI32Const)
	e.writeSLEB(int64(e.frameSize))
	e.emitOp(opI32Add)
	e.emitOp(opGlobalSet)
	e.writeULEB(0)
}

func (e *emitter) emitBlockBody(id mir.BlockID, numBlocks int) {
	blk := &e.fn.Body.Blocks[id]
	for i := range blk.Statements {
		e.emitStatement(&blk.Statements[i])
	}
	if !blk.HasTerm {
		e.fail("block %d has no terminator", id)
		e.emitOp(opUnreachable)
		return
	}
	e.emitTerminator(&blk.Terminator, int(id), numBlocks)
}

// branchToBlock sets the dispatch pc and loops back to the top, per the
// flat-dispatch-loop technique this package's doc comment describes.
func (e *emitter) branchToBlock(from int, numBlocks int, target mir.BlockID) {
	e.emitOp(opI32Const)
	e.writeSLEB(int64(target))
	e.emitLocalSet(e.blockLocal)
	e.emitOp(opBr)
	e.writeULEB(uint64(numBlocks - 1 - from))
}

// --- low-level byte emission ---

func (e *emitter) emitOp(op byte) { e.body.WriteByte(op) }

func (e *emitter) writeULEB(v uint64) { writeULEB128(&e.body, v) }
func (e *emitter) writeSLEB(v int64)  { writeSLEB128(&e.body, v) }

func (e *emitter) emitLocalGet(ix uint32) {
	e.emitOp(opLocalGet)
	e.writeULEB(uint64(ix))
}

func (e *emitter) emitLocalSet(ix uint32) {
	e.emitOp(opLocalSet)
	e.writeULEB(uint64(ix))
}

func (e *emitter) emitLocalTee(ix uint32) {
	e.emitOp(opLocalTee)
	e.writeULEB(uint64(ix))
}
