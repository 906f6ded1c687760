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
package native

import (
	"fmt"

	"github.com/chic-lang/chic-core/pkg/mir"
)

// placeAddress resolves a Place to a pointer register, emitting the
// getelementptr chain for any projections (spec.md §6 lists getelementptr
// as part of the compatibility surface).
func (e *emitter) placeAddress(p mir.Place) string {
	base := e.localName(p.Base)
	if len(p.Projections) == 0 {
		return base
	}
	cur := base
	for _, proj := range p.Projections {
		next := e.newReg()
		switch proj.Kind {
		case mir.ProjField:
			e.emit("%s = getelementptr inbounds, ptr %s, i32 0, i32 %d", next, cur, proj.FieldIndex)
		case mir.ProjNamedField, mir.ProjUnionField:
			e.emit("%s = getelementptr inbounds, ptr %s, i32 0, field %q", next, cur, proj.FieldName)
		case mir.ProjConstIndex:
			e.emit("%s = getelementptr inbounds, ptr %s, i64 %d", next, cur, proj.ConstIndex)
		case mir.ProjDynIndex:
			idx := e.localName(proj.IndexLocal)
			e.emit("%s = getelementptr inbounds, ptr %s, i64 %s", next, cur, idx)
		case mir.ProjDeref:
			e.emit("%s = load ptr, ptr %s", next, cur)
		case mir.ProjDowncast:
			e.emit("%s = getelementptr inbounds, ptr %s, i32 0, variant %q", next, cur, proj.FieldName)
		case mir.ProjSubslice:
			if proj.SubToEnd {
				e.emit("%s = getelementptr inbounds, ptr %s, i64 %d ; subslice to end", next, cur, proj.SubFrom)
			} else {
				e.emit("%s = getelementptr inbounds, ptr %s, i64 %d ; subslice to %d", next, cur, proj.SubFrom, proj.SubTo)
			}
		}
		cur = next
	}
	return cur
}

// operandValue resolves an Operand to a value register, loading through a
// place as needed.
func (e *emitter) operandValue(op mir.Operand) string {
	switch op.Kind {
	case mir.OperandCopy, mir.OperandMove:
		addr := e.placeAddress(op.Place)
		v := e.newReg()
		e.emit("%s = load %s", v, addr)
		return v
	case mir.OperandMmio:
		addr := e.placeAddress(op.Place)
		v := e.newReg()
		e.emit("%s = load volatile, ptr %s", v, addr)
		return v
	case mir.OperandBorrowOp:
		return e.placeAddress(op.Place)
	case mir.OperandConst:
		return e.constValue(op)
	case mir.OperandPending:
		e.fail("operand is Pending at codegen time (verifier should have rejected this body)")
		return "undef"
	default:
		e.fail("unrecognised operand kind %d", op.Kind)
		return "undef"
	}
}

func (e *emitter) constValue(op mir.Operand) string {
	switch op.ConstKind {
	case mir.ConstBool:
		if op.BoolVal {
			return "i1 true"
		}
		return "i1 false"
	case mir.ConstInt:
		return fmt.Sprintf("%s %d", llvmTypeName(op.ConstTy), op.IntVal)
	case mir.ConstFloat:
		return fmt.Sprintf("%s %g", llvmTypeName(op.ConstTy), op.FloatVal)
	case mir.ConstString:
		return fmt.Sprintf("ptr @.str.%q", op.StringVal)
	case mir.ConstNull:
		return "ptr null"
	case mir.ConstUnit:
		return "void undef"
	case mir.ConstSymbol:
		return fmt.Sprintf("ptr @%s", op.SymbolName)
	default:
		e.fail("constant operand is Pending at codegen time")
		return "undef"
	}
}
