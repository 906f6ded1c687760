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

// runtimeImports indexes the `chic_rt` host functions this backend may
// call (spec.md §6 "Runtime ABI"), keyed by name, to their WASM function
// index within the eventual module (imports are always indices
// 0..len(imports)-1).
type runtimeImports struct {
	index   map[string]uint32
	imports []Import
}

// rtFunctions is the fixed subset of the runtime ABI this backend's
// intrinsic/exception/async lowering needs. Every entry is imported
// eagerly; an unused import costs nothing but a type-section entry.
var rtFunctions = []struct {
	name   string
	params []ValueType
	result []ValueType
}{
	{"chic_rt_panic", []ValueType{ValueTypeI32}, nil},
	{"chic_rt_abort", []ValueType{ValueTypeI32}, nil},
	{"chic_rt_throw", []ValueType{ValueTypeI32, ValueTypeI64}, nil},
	{"chic_rt_rethrow", nil, nil},
	{"chic_rt_pending_exception", nil, []ValueType{ValueTypeI32}},
	{"chic_rt_yield", []ValueType{ValueTypeI32}, nil},
	{"chic_rt_await", []ValueType{ValueTypeI32, ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_await_poll", []ValueType{ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_async_spawn", []ValueType{ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_async_cancel", []ValueType{ValueTypeI32}, nil},
	{"chic_rt_async_token_new", nil, []ValueType{ValueTypeI32}},
	{"chic_rt_async_token_state", []ValueType{ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_async_token_cancel", []ValueType{ValueTypeI32}, nil},
	{"chic_rt_async_scope", []ValueType{ValueTypeI32}, nil},
	{"chic_rt_async_block_on", []ValueType{ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_async_spawn_local", []ValueType{ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_async_task_header", []ValueType{ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_async_task_result", []ValueType{ValueTypeI32, ValueTypeI32, ValueTypeI32}, nil},
	{"chic_rt_string_as_slice", []ValueType{ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_assert_failed", []ValueType{ValueTypeI32}, nil},
	{"chic_rt_string_interpolate", []ValueType{ValueTypeI32, ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_numeric_op", []ValueType{ValueTypeI32, ValueTypeI32, ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_decimal_op", []ValueType{ValueTypeI32, ValueTypeI32, ValueTypeI32}, []ValueType{ValueTypeI32}},
	// int128 values live in 16-byte linear-memory slots; arithmetic
	// dispatches to runtime hooks on the slot addresses (spec.md §4.6).
	{"chic_rt_i128_op", []ValueType{ValueTypeI32, ValueTypeI32, ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_i128_unop", []ValueType{ValueTypeI32, ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_i128_cmp", []ValueType{ValueTypeI32, ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_i128_from_i64", []ValueType{ValueTypeI64, ValueTypeI32}, []ValueType{ValueTypeI32}},
	{"chic_rt_i128_to_i64", []ValueType{ValueTypeI32}, []ValueType{ValueTypeI64}},
}

func newRuntimeImports(m *Module) *runtimeImports {
	rt := &runtimeImports{index: map[string]uint32{}}
	for i, f := range rtFunctions {
		ix := m.internType(FunctionType{Params: f.params, Results: f.result})
		m.Imports = append(m.Imports, Import{Module: "chic_rt", Name: f.name, TypeIx: ix})
		rt.index[f.name] = uint32(i)
		rt.imports = append(rt.imports, m.Imports[len(m.Imports)-1])
	}
	return rt
}

func (rt *runtimeImports) funcIndex(name string) uint32 { return rt.index[name] }
