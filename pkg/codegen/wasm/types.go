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

import "github.com/chic-lang/chic-core/pkg/types"

// valKind is this backend's coarse classification of how a Ty is
// represented in a WASM function: either directly in a scalar local, or
// out-of-line in the function's bump-allocated stack frame addressed by an
// i32 pointer local (spec.md §4.6 "Locals").
type valKind uint8

const (
	valScalar valKind = iota
	valAddress
)

// scalarWasmType returns the WASM value type a scalar-represented Ty
// lowers to. Narrower-than-32-bit integers, unit, nullable, and
// pointers/refs/fn values all route through i32; 64-bit integers route
// through i64. Int128/UInt128 are never scalar (see isAddressTy) so they do
// not appear here.
func scalarWasmType(t types.Ty) ValueType {
	switch t.Kind() {
	case types.KindUnit, types.KindNullable, types.KindPointer, types.KindRef, types.KindFn:
		return ValueTypeI32
	}
	switch t.Name() {
	case "Std::Float32":
		return ValueTypeF32
	case "Std::Float64":
		return ValueTypeF64
	case "Std::Int64", "Std::UInt64":
		return ValueTypeI64
	default:
		return ValueTypeI32
	}
}

// classify decides whether ty is represented as a scalar local or an
// address local, per spec.md §4.6: aggregates, Int128/UInt128, Decimal,
// tuples, and spans all live in the per-function stack frame; everything
// else is a scalar.
func classify(t types.Ty) valKind {
	switch t.Kind() {
	case types.KindUnit, types.KindPointer, types.KindRef, types.KindFn, types.KindNullable:
		return valScalar
	case types.KindTuple, types.KindSpan, types.KindTraitObject:
		return valAddress
	}
	switch t.Name() {
	case "Std::Bool",
		"Std::Int8", "Std::UInt8",
		"Std::Int16", "Std::UInt16",
		"Std::Int32", "Std::UInt32",
		"Std::Int64", "Std::UInt64",
		"Std::Float32", "Std::Float64":
		return valScalar
	default:
		return valAddress
	}
}
