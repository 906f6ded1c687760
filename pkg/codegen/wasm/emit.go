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
// Core spec. Every basic block becomes one arm of a flat dispatch loop (one
// `loop` wrapping N nested `block`s, branching on a program-counter local
// via `br_table`) since WASM control flow must be structured but a MIR CFG
// is an arbitrary graph (the "relooper" problem). Locals that do not fit a
// scalar WASM value type are addressed out-of-line in a per-function
// bump-allocated stack frame.
package wasm

import (
	"bytes"
	"fmt"

	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/types"
)

// CodegenError is a backend emission failure (spec.md §7 category 3): the
// body passed verification but requires a representation this backend does
// not implement.
type CodegenError struct {
	Function string
	Message  string
}

func (e CodegenError) Error() string {
	return fmt.Sprintf("codegen(wasm:%s): %s", e.Function, e.Message)
}

// pageSize is the WASM linear memory page size.
const pageSize = 65536

// localSlot records how one mir.LocalID is represented: either directly in
// a WASM value-typed local (Kind valScalar, Index its local index) or as
// an i32 pointer local into the function's stack frame (Kind valAddress).
type localSlot struct {
	Kind  valKind
	Index uint32
}

type emitter struct {
	module  *mir.MirModule
	fn      *mir.MirFunction
	layouts *layout.Table

	params     []ValueType
	localTypes []ValueType // beyond params, in local-index order
	slots      map[mir.LocalID]localSlot

	rt *runtimeImports

	frameSize    uint64 // bytes reserved in the bump stack frame for this function
	frameOffsets map[mir.LocalID]uint64

	stackAdjustLocal uint32
	tempLocal        uint32
	blockLocal       uint32 // doubles as the dispatch-loop program counter
	stackTempLocal   uint32
	wideTempLocal    uint32
	wideTempLocalHi  uint32

	sret bool

	funcTable   map[string]uint32
	moduleTypes *Module

	body bytes.Buffer
	errs []CodegenError
}

func (e *emitter) fail(format string, args ...any) {
	e.errs = append(e.errs, CodegenError{Function: e.fn.Name, Message: fmt.Sprintf(format, args...)})
}

// Emit lowers every function in module to a WASM Module. A `chic_rt`
// import is registered for every extern symbol this backend's intrinsic
// lowering calls (panic/abort/throw/await/yield, spec.md §6 "Runtime
// ABI"); emission continues past one function's errors so callers see
// every problem in a single pass.
func Emit(module *mir.MirModule) (*Module, []CodegenError) {
	out := &Module{
		MemoryMinPages: 16,
		Globals:        []Global{{Type: ValueTypeI32, Mutable: true, InitI32: int32(16 * pageSize)}}, // stack pointer
	}
	var errs []CodegenError

	rt := newRuntimeImports(out)
	funcTable := map[string]uint32{}

	// Pass 1: allocate every function's locals (cheap; decides param
	// shapes and the sret calling convention) and assign it a stable
	// function index before any body references another function by
	// name — direct calls need the full name table up front.
	var emitters []*emitter
	for _, fn := range module.Functions {
		if fn.Extern {
			continue
		}
		e := &emitter{module: module, fn: fn, layouts: module.Layouts, funcTable: funcTable, moduleTypes: out}
		e.allocateLocals()
		emitters = append(emitters, e)

		funcIx := uint32(len(rt.imports)) + uint32(len(emitters)) - 1
		funcTable[fn.Name] = funcIx
	}

	// Pass 2: emit every body now that funcTable is complete.
	for _, e := range emitters {
		e.emitFunction(rt)

		typeIx := out.internType(FunctionType{Params: e.params, Results: e.returnTypes()})
		out.FunctionTypes = append(out.FunctionTypes, typeIx)
		out.FunctionNames = append(out.FunctionNames, e.fn.Name)
		out.Code = append(out.Code, Code{LocalTypes: e.localTypes, Body: e.body.Bytes()})
		out.Exports = append(out.Exports, Export{Kind: ExportKindFunc, Name: e.fn.Name, Index: funcTable[e.fn.Name]})

		errs = append(errs, e.errs...)
	}

	// Populate the indirect-call table: one slot per module-defined
	// function, indexed identically to the function index space, so a
	// function constant's "i32.const <slot>" (spec.md §4.6.1) is also a
	// valid call_indirect target and vtable entries written by the host
	// (spec.md §6 "Interface defaults") line up without a translation
	// step.
	if len(emitters) > 0 {
		firstFuncIx := uint32(len(rt.imports))
		indices := make([]uint32, len(emitters))
		for i := range emitters {
			indices[i] = firstFuncIx + uint32(i)
		}
		out.TableMin = firstFuncIx + uint32(len(emitters))
		out.Elements = append(out.Elements, ElementSegment{Offset: int32(firstFuncIx), FuncIndices: indices})
	}

	return out, errs
}

// internType returns the index of an existing equal FunctionType, adding
// one if none matches.
func (m *Module) internType(ft FunctionType) uint32 {
	for i, t := range m.Types {
		if sameSig(t, ft) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}

func sameSig(a, b FunctionType) bool {
	if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	for i := range a.Results {
		if a.Results[i] != b.Results[i] {
			return false
		}
	}
	return true
}

func (e *emitter) returnTypes() []ValueType {
	if e.sret {
		return nil
	}
	ret := e.fn.Signature.Return
	if ret.Kind() == types.KindUnit {
		return nil
	}
	return []ValueType{scalarWasmType(ret)}
}
