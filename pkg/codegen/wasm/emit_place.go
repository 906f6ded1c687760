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

import (
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/types"
)

// emitPlaceAddress pushes the i32 byte address place resolves to. Only
// base locals represented as address locals (aggregates, Int128/UInt128,
// Decimal, tuples, spans) can be addressed this way; a scalar-represented
// local taking its address is a shape this backend does not lower (it
// would need to be promoted to the stack frame during an earlier pass).
func (e *emitter) emitPlaceAddress(p mir.Place) {
	slot, ok := e.slots[p.Base]
	if !ok || slot.Kind != valAddress {
		e.fail("cannot take the address of local %d: not stack-allocated", p.Base)
		e.emitOp(opI32Const)
		e.writeSLEB(0)
		return
	}
	e.emitLocalGet(slot.Index)

	currentTy := e.localTy(p.Base)
	for _, proj := range p.Projections {
		switch proj.Kind {
		case mir.ProjField, mir.ProjNamedField:
			off, fieldTy, ok := e.fieldOffset(currentTy, proj)
			if !ok {
				e.fail("cannot resolve field projection on %s", currentTy.CanonicalName())
				return
			}
			if off != 0 {
				e.emitOp(opI32Const)
				e.writeSLEB(int64(off))
				e.emitOp(opI32Add)
			}
			currentTy = fieldTy
		case mir.ProjDeref:
			e.emitOp(opI32Load)
			e.writeAlignOffset(2, 0)
			currentTy = currentTy.Elem()
		case mir.ProjConstIndex:
			elemTy := currentTy.Elem()
			size, _, _ := e.layouts.SizeAndAlignForTy(elemTy)
			if size == 0 {
				size = 8
			}
			if proj.ConstIndex != 0 {
				e.emitOp(opI32Const)
				e.writeSLEB(int64(proj.ConstIndex * size))
				e.emitOp(opI32Add)
			}
			currentTy = elemTy
		case mir.ProjDynIndex:
			elemTy := currentTy.Elem()
			size, _, _ := e.layouts.SizeAndAlignForTy(elemTy)
			if size == 0 {
				size = 8
			}
			idxSlot, ok := e.slots[proj.IndexLocal]
			if !ok {
				e.fail("dynamic index local %d has no slot", proj.IndexLocal)
				return
			}
			e.emitLocalGet(idxSlot.Index)
			e.emitOp(opI32Const)
			e.writeSLEB(int64(size))
			e.emitOp(opI32Mul)
			e.emitOp(opI32Add)
			currentTy = elemTy
		default:
			e.fail("unhandled place projection kind %d", proj.Kind)
			return
		}
	}
}

func (e *emitter) localTy(id mir.LocalID) (ty types.Ty) {
	if e.fn.Body == nil || int(id) >= len(e.fn.Body.Locals) {
		return
	}
	return e.fn.Body.Locals[id].Ty
}

// fieldOffset resolves a Field/NamedField projection against owner's
// struct layout (spec.md §4.2 "Layout"), returning the field's byte
// offset and declared type.
func (e *emitter) fieldOffset(owner types.Ty, proj mir.ProjectionElem) (uint64, types.Ty, bool) {
	layout, ok := e.layouts.LayoutForName(owner.CanonicalName())
	if !ok {
		return 0, owner, false
	}
	strct := layout.Struct()
	if strct == nil {
		return 0, owner, false
	}
	for _, f := range strct.Fields {
		matches := false
		if proj.Kind == mir.ProjField {
			matches = f.Index == proj.FieldIndex
		} else {
			matches = f.Name == proj.FieldName
		}
		if matches {
			if f.Offset == nil {
				return 0, owner, false
			}
			return *f.Offset, f.Ty, true
		}
	}
	return 0, owner, false
}

func (e *emitter) writeAlignOffset(align uint32, offset uint32) {
	e.writeULEB(uint64(align))
	e.writeULEB(uint64(offset))
}
