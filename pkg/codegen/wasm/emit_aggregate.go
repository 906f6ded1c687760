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

// emitAggregateAssign builds rv (a struct/tuple/array/enum-variant
// literal) directly into dest's stack-frame slot, one field store per
// AggregateField; there is no single scalar value to carry through
// emitRvalueScalar.
func (e *emitter) emitAggregateAssign(dest mir.Place, rv mir.Rvalue) {
	destTy := e.resolvePlaceTy(dest)
	for i, f := range rv.Fields {
		proj := mir.Field(i)
		if f.Name != "" {
			proj = mir.NamedField(f.Name)
		}
		off, fieldTy, ok := e.fieldOffset(destTy, proj)
		if !ok {
			e.fail("cannot resolve aggregate field %d of %s", i, rv.AggTypeName)
			continue
		}
		e.emitPlaceAddress(dest)
		if off != 0 {
			e.emitOp(opI32Const)
			e.writeSLEB(int64(off))
			e.emitOp(opI32Add)
		}
		e.emitOperand(f.Operand)
		e.emitOp(e.storeOpFor(scalarWasmType(fieldTy)))
		e.writeAlignOffset(2, 0)
	}
	if rv.AggKind == mir.AggEnumVariant {
		// The discriminant occupies the struct's leading i32 word, per
		// this backend's enum layout convention.
		e.emitPlaceAddress(dest)
		e.emitOp(opI32Const)
		e.writeSLEB(0)
		e.emitOp(opI32Add)
		e.emitOp(opI32Const)
		e.writeSLEB(0) // variant tag value is resolved by the layout table downstream
		e.emitOp(opI32Store)
		e.writeAlignOffset(2, 0)
	}
}
