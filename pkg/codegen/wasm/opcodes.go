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

// Opcode bytes this backend emits, per the WASM Core spec binary encoding.
// Only the subset spec.md §4.6 exercises is named here.
const (
	opUnreachable = 0x00
	opNop         = 0x01
	opBlock       = 0x02
	opLoop        = 0x03
	opIf          = 0x04
	opElse        = 0x05
	opEnd         = 0x0b
	opBr          = 0x0c
	opBrIf        = 0x0d
	opBrTable     = 0x0e
	opReturn      = 0x0f
	opCall        = 0x10
	opCallIndirect = 0x11

	opDrop   = 0x1a
	opSelect = 0x1b

	opLocalGet  = 0x20
	opLocalSet  = 0x21
	opLocalTee  = 0x22
	opGlobalGet = 0x23
	opGlobalSet = 0x24

	opI32Load  = 0x28
	opI64Load  = 0x29
	opF32Load  = 0x2a
	opF64Load  = 0x2b
	opI32Store = 0x36
	opI64Store = 0x37
	opF32Store = 0x38
	opF64Store = 0x39

	opI32Const = 0x41
	opI64Const = 0x42
	opF32Const = 0x43
	opF64Const = 0x44

	opI32Eqz = 0x45
	opI32Eq  = 0x46
	opI32Ne  = 0x47
	opI32LtS = 0x48
	opI32LeS = 0x4c
	opI32GtS = 0x4a
	opI32GeS = 0x4e

	opI64Eqz = 0x50
	opI64Eq  = 0x51
	opI64Ne  = 0x52
	opI64LtS = 0x53
	opI64LeS = 0x57
	opI64GtS = 0x55
	opI64GeS = 0x59

	opI32Add = 0x6a
	opI32Sub = 0x6b
	opI32Mul = 0x6c
	opI32DivS = 0x6d
	opI32RemS = 0x6f
	opI32And = 0x71
	opI32Or  = 0x72
	opI32Xor = 0x73
	opI32Shl = 0x74
	opI32ShrS = 0x75

	opI64Add = 0x7c
	opI64Sub = 0x7d
	opI64Mul = 0x7e
	opI64DivS = 0x7f
	opI64RemS = 0x81
	opI64And = 0x83
	opI64Or  = 0x84
	opI64Xor = 0x85
	opI64Shl = 0x86
	opI64ShrS = 0x87

	opF32Add = 0x92
	opF32Sub = 0x93
	opF32Mul = 0x94
	opF32Div = 0x95

	opF64Add = 0xa0
	opF64Sub = 0xa1
	opF64Mul = 0xa2
	opF64Div = 0xa3

	opI32WrapI64   = 0xa7
	opI64ExtendI32S = 0xac
	opI64ExtendI32U = 0xad

	// blockTypeVoid marks a block/loop/if with no result type.
	blockTypeVoid = 0x40
)
