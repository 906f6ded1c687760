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
package wasmexec

import (
	"encoding/binary"
	"fmt"
	"math"
)

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

// reader walks a byte slice, decoding the LEB128 and fixed-width encodings
// the WASM binary format uses.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) eof() bool { return r.pos >= len(r.buf) }

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, fmt.Errorf("wasmexec: unexpected end of module at offset %d", r.pos)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) bytesN(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("wasmexec: unexpected end of module at offset %d", r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) uleb32() (uint32, error) {
	v, err := r.uleb64()
	return uint32(v), err
}

func (r *reader) uleb64() (uint64, error) {
	var (
		result uint64
		shift  uint
	)
	for {
		b, err := r.byte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, fmt.Errorf("wasmexec: ULEB128 too long at offset %d", r.pos)
		}
	}
}

func (r *reader) sleb64() (int64, error) {
	var (
		result int64
		shift  uint
		b      byte
		err    error
	)
	for {
		b, err = r.byte()
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, nil
}

func (r *reader) name() (string, error) {
	n, err := r.uleb32()
	if err != nil {
		return "", err
	}
	b, err := r.bytesN(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) f32() (float32, error) {
	b, err := r.bytesN(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func (r *reader) f64() (float64, error) {
	b, err := r.bytesN(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// Decode parses a binary WASM module produced by pkg/codegen/wasm.Emit's
// Encode output. It only understands the section and opcode subset that
// backend emits (spec.md §4.6); anything else is reported as an error
// rather than silently misinterpreted.
func Decode(data []byte) (*Module, error) {
	r := &reader{buf: data}

	magic, err := r.bytesN(8)
	if err != nil {
		return nil, err
	}
	if string(magic[:4]) != "\x00asm" {
		return nil, fmt.Errorf("wasmexec: not a WASM module (bad magic)")
	}

	m := &Module{}
	var funcTypeIxs []uint32

	for !r.eof() {
		id, err := r.byte()
		if err != nil {
			return nil, err
		}
		size, err := r.uleb32()
		if err != nil {
			return nil, err
		}
		body, err := r.bytesN(int(size))
		if err != nil {
			return nil, err
		}
		sr := &reader{buf: body}

		switch id {
		case secType:
			if err := decodeTypeSection(sr, m); err != nil {
				return nil, err
			}
		case secImport:
			if err := decodeImportSection(sr, m); err != nil {
				return nil, err
			}
		case secFunction:
			funcTypeIxs, err = decodeFunctionSection(sr)
			if err != nil {
				return nil, err
			}
		case secTable:
			if err := decodeTableSection(sr, m); err != nil {
				return nil, err
			}
		case secMemory:
			if err := decodeMemorySection(sr, m); err != nil {
				return nil, err
			}
		case secGlobal:
			if err := decodeGlobalSection(sr, m); err != nil {
				return nil, err
			}
		case secExport:
			if err := decodeExportSection(sr, m); err != nil {
				return nil, err
			}
		case secElement:
			if err := decodeElementSection(sr, m); err != nil {
				return nil, err
			}
		case secCode:
			if err := decodeCodeSection(sr, m, funcTypeIxs); err != nil {
				return nil, err
			}
		default:
			// Unknown/custom section (e.g. a name section); skip.
		}
	}

	return m, nil
}

func decodeTypeSection(r *reader, m *Module) error {
	n, err := r.uleb32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		form, err := r.byte()
		if err != nil {
			return err
		}
		if form != 0x60 {
			return fmt.Errorf("wasmexec: unsupported type section form 0x%x", form)
		}
		params, err := decodeValTypes(r)
		if err != nil {
			return err
		}
		results, err := decodeValTypes(r)
		if err != nil {
			return err
		}
		m.Types = append(m.Types, FunctionType{Params: params, Results: results})
	}
	return nil
}

func decodeValTypes(r *reader) ([]ValueType, error) {
	n, err := r.uleb32()
	if err != nil {
		return nil, err
	}
	out := make([]ValueType, n)
	for i := range out {
		b, err := r.byte()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func decodeImportSection(r *reader, m *Module) error {
	n, err := r.uleb32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		mod, err := r.name()
		if err != nil {
			return err
		}
		nm, err := r.name()
		if err != nil {
			return err
		}
		kind, err := r.byte()
		if err != nil {
			return err
		}
		if kind != 0x00 {
			return fmt.Errorf("wasmexec: only function imports are supported")
		}
		typeIx, err := r.uleb32()
		if err != nil {
			return err
		}
		m.Imports = append(m.Imports, Import{Module: mod, Name: nm, TypeIx: typeIx})
	}
	return nil
}

func decodeFunctionSection(r *reader) ([]uint32, error) {
	n, err := r.uleb32()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		ix, err := r.uleb32()
		if err != nil {
			return nil, err
		}
		out[i] = ix
	}
	return out, nil
}

func decodeTableSection(r *reader, m *Module) error {
	n, err := r.uleb32()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if _, err := r.byte(); err != nil { // elemtype (funcref)
		return err
	}
	flags, err := r.byte()
	if err != nil {
		return err
	}
	min, err := r.uleb32()
	if err != nil {
		return err
	}
	m.TableMin = min
	if flags&0x01 != 0 {
		if _, err := r.uleb32(); err != nil { // max, unused
			return err
		}
	}
	return nil
}

func decodeMemorySection(r *reader, m *Module) error {
	n, err := r.uleb32()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	flags, err := r.byte()
	if err != nil {
		return err
	}
	min, err := r.uleb32()
	if err != nil {
		return err
	}
	m.MemoryMinPages = min
	if flags&0x01 != 0 {
		if _, err := r.uleb32(); err != nil {
			return err
		}
	}
	return nil
}

func decodeGlobalSection(r *reader, m *Module) error {
	n, err := r.uleb32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		typ, err := r.byte()
		if err != nil {
			return err
		}
		mutByte, err := r.byte()
		if err != nil {
			return err
		}
		init, err := decodeConstExprI32(r)
		if err != nil {
			return err
		}
		m.Globals = append(m.Globals, Global{Type: typ, Mutable: mutByte == 1, InitI32: init})
	}
	return nil
}

// decodeConstExprI32 decodes a single `i32.const <n> end` init expression,
// the only constant-expression shape pkg/codegen/wasm emits.
func decodeConstExprI32(r *reader) (int32, error) {
	op, err := r.byte()
	if err != nil {
		return 0, err
	}
	if op != opI32Const {
		return 0, fmt.Errorf("wasmexec: unsupported const expr opcode 0x%x", op)
	}
	v, err := r.sleb64()
	if err != nil {
		return 0, err
	}
	end, err := r.byte()
	if err != nil {
		return 0, err
	}
	if end != opEnd {
		return 0, fmt.Errorf("wasmexec: malformed const expr")
	}
	return int32(v), nil
}

func decodeExportSection(r *reader, m *Module) error {
	n, err := r.uleb32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		nm, err := r.name()
		if err != nil {
			return err
		}
		kind, err := r.byte()
		if err != nil {
			return err
		}
		ix, err := r.uleb32()
		if err != nil {
			return err
		}
		m.Exports = append(m.Exports, Export{Kind: kind, Name: nm, Index: ix})
	}
	return nil
}

func decodeElementSection(r *reader, m *Module) error {
	n, err := r.uleb32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		tableIx, err := r.uleb32()
		if err != nil {
			return err
		}
		if tableIx != 0 {
			return fmt.Errorf("wasmexec: only table 0 is supported")
		}
		offset, err := decodeConstExprI32(r)
		if err != nil {
			return err
		}
		count, err := r.uleb32()
		if err != nil {
			return err
		}
		indices := make([]uint32, count)
		for j := range indices {
			ix, err := r.uleb32()
			if err != nil {
				return err
			}
			indices[j] = ix
		}
		m.Elements = append(m.Elements, ElementSegment{Offset: offset, FuncIndices: indices})
	}
	return nil
}

func decodeCodeSection(r *reader, m *Module, typeIxs []uint32) error {
	n, err := r.uleb32()
	if err != nil {
		return err
	}
	if int(n) != len(typeIxs) {
		return fmt.Errorf("wasmexec: code section has %d entries but function section declared %d", n, len(typeIxs))
	}
	for i := uint32(0); i < n; i++ {
		size, err := r.uleb32()
		if err != nil {
			return err
		}
		body, err := r.bytesN(int(size))
		if err != nil {
			return err
		}
		fr := &reader{buf: body}
		localGroups, err := fr.uleb32()
		if err != nil {
			return err
		}
		var locals []ValueType
		for g := uint32(0); g < localGroups; g++ {
			count, err := fr.uleb32()
			if err != nil {
				return err
			}
			typ, err := fr.byte()
			if err != nil {
				return err
			}
			for c := uint32(0); c < count; c++ {
				locals = append(locals, typ)
			}
		}
		code := body[fr.pos:]
		m.Functions = append(m.Functions, Function{TypeIx: typeIxs[i], LocalTypes: locals, Body: code})
	}
	return nil
}
