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

// Package wasmexec implements the reference WebAssembly interpreter of
// spec.md §4.7: a single-threaded, cooperative executor that gives the
// pkg/codegen/wasm backend's output an executable semantics, used to
// validate that output and the chic_rt host protocol during testing. Its
// decoder understands exactly the module shape pkg/codegen/wasm.Module
// encodes (spec.md §4.6): the type, import, function, table, memory,
// global, export, element, and code sections, with only the opcode subset
// that backend emits.
package wasmexec

// ValueType mirrors the one-byte WASM value type encoding used by
// pkg/codegen/wasm.
type ValueType = byte

// Value types this interpreter recognizes, matching
// pkg/codegen/wasm.ValueType* exactly (spec.md §4.6).
const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

// FunctionType is one entry of the decoded type section.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// Import is one decoded function import; this interpreter only resolves
// imports from the `chic_rt` namespace (spec.md §6 "Runtime ABI").
type Import struct {
	Module string
	Name   string
	TypeIx uint32
}

// Export describes one function, memory, or table exported by name.
type Export struct {
	Kind  byte
	Name  string
	Index uint32
}

// Export kinds, matching pkg/codegen/wasm.ExportKind*.
const (
	ExportKindFunc   byte = 0x00
	ExportKindTable  byte = 0x01
	ExportKindMemory byte = 0x02
	ExportKindGlobal byte = 0x03
)

// Function is one module-defined function: its signature (by type index),
// declared locals beyond its parameters, and instruction bytes.
type Function struct {
	TypeIx     uint32
	LocalTypes []ValueType
	Body       []byte
}

// Global is one module-level mutable or immutable i32 value.
type Global struct {
	Type    ValueType
	Mutable bool
	InitI32 int32
}

// ElementSegment populates a region of the function table at module-start
// time (spec.md §4.6 "function pointers are represented as table
// indices").
type ElementSegment struct {
	Offset      int32
	FuncIndices []uint32
}

// Module is a decoded WASM module ready for execution. Function indices
// follow the WASM convention: imports first, then module-defined
// functions, matching the encoder in pkg/codegen/wasm.
type Module struct {
	Types          []FunctionType
	Imports        []Import
	Functions      []Function
	TableMin       uint32
	MemoryMinPages uint32
	Globals        []Global
	Exports        []Export
	Elements       []ElementSegment
}

// FuncIndexSpace is the count of function indices (imports plus
// module-defined functions) this module declares.
func (m *Module) FuncIndexSpace() int { return len(m.Imports) + len(m.Functions) }

// ExportedFunc returns the function index exported under name.
func (m *Module) ExportedFunc(name string) (uint32, bool) {
	for _, e := range m.Exports {
		if e.Kind == ExportKindFunc && e.Name == name {
			return e.Index, true
		}
	}
	return 0, false
}
