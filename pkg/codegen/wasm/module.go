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

// Package wasm implements the WASM backend of spec.md §4.6: it lowers a
// verified mir.MirModule into a binary module conforming to the WebAssembly
// Core spec (§6 "WASM backend output"). The module container shape below
// mirrors the teacher's own binary-format structures one level removed
// (wazero's wasm.Module is the structural reference for section layout;
// this package is encode-only, since nothing here ever needs to decode a
// module back).
package wasm

import (
	"bytes"
	"encoding/binary"
	"math"
)

// ValueType is the one-byte encoding of a WASM value type.
type ValueType = byte

// Value types used by this backend; WASM has no i8/i16/i128, so narrower
// integers and int128 halves both route through these four (spec.md §4.6).
const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

// FunctionType is one entry of the module's type section.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// Import is one imported function; this backend only ever imports
// functions (the `chic_rt` namespace), never tables/memories/globals.
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

// Export kinds (spec.md §6 "Startup descriptor" entry points are exported
// functions). Emit exports only functions; the table, memory and global
// kinds are defined for the encoding but no export of them is produced.
const (
	ExportKindFunc   byte = 0x00
	ExportKindTable  byte = 0x01
	ExportKindMemory byte = 0x02
	ExportKindGlobal byte = 0x03
)

// Code is one defined function's locals and instruction stream.
type Code struct {
	LocalTypes []ValueType
	Body       []byte
}

// Global is one module-level mutable value; this backend defines exactly
// one, the stack pointer (spec.md §4.6 "Allocates a global stack pointer").
type Global struct {
	Type    ValueType
	Mutable bool
	InitI32 int32
}

// ElementSegment populates a region of the function table at module-start
// time, used for the indirect-call function table (spec.md §4.6).
type ElementSegment struct {
	Offset       int32
	FuncIndices  []uint32
}

// Module is the in-memory, encode-only WASM module this backend builds.
// Function indices follow the WASM convention: imports first, then
// module-defined functions in FunctionTypes/Code order.
type Module struct {
	Types         []FunctionType
	Imports       []Import
	FunctionTypes []uint32 // index into Types, one per module-defined function
	FunctionNames []string // parallel to FunctionTypes, for the name section
	TableMin      uint32   // indirect-call function table size
	MemoryMinPages uint32
	Globals       []Global
	Exports       []Export
	Elements      []ElementSegment
	Code          []Code
}

const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secTable    = 4
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secElement  = 9
	secCode     = 10
)

// Encode assembles the module into a binary WASM blob: magic, version, then
// one section per non-empty category in spec order.
func (m *Module) Encode() []byte {
	var out bytes.Buffer
	out.Write([]byte{0x00, 0x61, 0x73, 0x6d})
	out.Write([]byte{0x01, 0x00, 0x00, 0x00})

	writeSection(&out, secType, m.encodeTypeSection())
	writeSection(&out, secImport, m.encodeImportSection())
	writeSection(&out, secFunction, m.encodeFunctionSection())
	if m.TableMin > 0 {
		writeSection(&out, secTable, m.encodeTableSection())
	}
	if m.MemoryMinPages > 0 {
		writeSection(&out, secMemory, m.encodeMemorySection())
	}
	if len(m.Globals) > 0 {
		writeSection(&out, secGlobal, m.encodeGlobalSection())
	}
	if len(m.Exports) > 0 {
		writeSection(&out, secExport, m.encodeExportSection())
	}
	if len(m.Elements) > 0 {
		writeSection(&out, secElement, m.encodeElementSection())
	}
	writeSection(&out, secCode, m.encodeCodeSection())

	return out.Bytes()
}

func writeSection(out *bytes.Buffer, id byte, body []byte) {
	if len(body) == 0 {
		return
	}
	out.WriteByte(id)
	writeULEB128(out, uint64(len(body)))
	out.Write(body)
}

func (m *Module) encodeTypeSection() []byte {
	var b bytes.Buffer
	writeULEB128(&b, uint64(len(m.Types)))
	for _, t := range m.Types {
		b.WriteByte(0x60)
		writeULEB128(&b, uint64(len(t.Params)))
		b.Write(t.Params)
		writeULEB128(&b, uint64(len(t.Results)))
		b.Write(t.Results)
	}
	return b.Bytes()
}

func (m *Module) encodeImportSection() []byte {
	var b bytes.Buffer
	writeULEB128(&b, uint64(len(m.Imports)))
	for _, imp := range m.Imports {
		writeName(&b, imp.Module)
		writeName(&b, imp.Name)
		b.WriteByte(0x00) // func import
		writeULEB128(&b, uint64(imp.TypeIx))
	}
	return b.Bytes()
}

func (m *Module) encodeFunctionSection() []byte {
	var b bytes.Buffer
	writeULEB128(&b, uint64(len(m.FunctionTypes)))
	for _, ix := range m.FunctionTypes {
		writeULEB128(&b, uint64(ix))
	}
	return b.Bytes()
}

func (m *Module) encodeTableSection() []byte {
	var b bytes.Buffer
	writeULEB128(&b, 1)
	b.WriteByte(0x70) // funcref
	b.WriteByte(0x00) // flags: min only
	writeULEB128(&b, uint64(m.TableMin))
	return b.Bytes()
}

func (m *Module) encodeMemorySection() []byte {
	var b bytes.Buffer
	writeULEB128(&b, 1)
	b.WriteByte(0x00)
	writeULEB128(&b, uint64(m.MemoryMinPages))
	return b.Bytes()
}

func (m *Module) encodeGlobalSection() []byte {
	var b bytes.Buffer
	writeULEB128(&b, uint64(len(m.Globals)))
	for _, g := range m.Globals {
		b.WriteByte(g.Type)
		if g.Mutable {
			b.WriteByte(0x01)
		} else {
			b.WriteByte(0x00)
		}
		b.WriteByte(opI32Const)
		writeSLEB128(&b, int64(g.InitI32))
		b.WriteByte(opEnd)
	}
	return b.Bytes()
}

func (m *Module) encodeExportSection() []byte {
	var b bytes.Buffer
	writeULEB128(&b, uint64(len(m.Exports)))
	for _, e := range m.Exports {
		writeName(&b, e.Name)
		b.WriteByte(e.Kind)
		writeULEB128(&b, uint64(e.Index))
	}
	return b.Bytes()
}

func (m *Module) encodeElementSection() []byte {
	var b bytes.Buffer
	writeULEB128(&b, uint64(len(m.Elements)))
	for _, el := range m.Elements {
		writeULEB128(&b, 0) // active segment, table index 0
		b.WriteByte(opI32Const)
		writeSLEB128(&b, int64(el.Offset))
		b.WriteByte(opEnd)
		writeULEB128(&b, uint64(len(el.FuncIndices)))
		for _, fi := range el.FuncIndices {
			writeULEB128(&b, uint64(fi))
		}
	}
	return b.Bytes()
}

func (m *Module) encodeCodeSection() []byte {
	var b bytes.Buffer
	writeULEB128(&b, uint64(len(m.Code)))
	for _, c := range m.Code {
		var body bytes.Buffer
		writeULEB128(&body, uint64(len(c.LocalTypes)))
		for _, lt := range c.LocalTypes {
			writeULEB128(&body, 1)
			body.WriteByte(lt)
		}
		body.Write(c.Body)
		writeULEB128(&b, uint64(body.Len()))
		b.Write(body.Bytes())
	}
	return b.Bytes()
}

func writeName(b *bytes.Buffer, s string) {
	writeULEB128(b, uint64(len(s)))
	b.WriteString(s)
}

func writeULEB128(b *bytes.Buffer, v uint64) {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b.WriteByte(c | 0x80)
		} else {
			b.WriteByte(c)
			return
		}
	}
}

func writeSLEB128(b *bytes.Buffer, v int64) {
	more := true
	for more {
		c := byte(v & 0x7f)
		v >>= 7
		signBitSet := c&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			c |= 0x80
		}
		b.WriteByte(c)
	}
}

func writeFloat32(b *bytes.Buffer, f float32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
	b.Write(buf[:])
}

func writeFloat64(b *bytes.Buffer, f float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	b.Write(buf[:])
}
