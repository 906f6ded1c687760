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

	"github.com/chic-lang/chic-core/pkg/types"
)

// llvmTypeName maps a Ty to the textual type this backend prints for it.
// The mapping is deliberately coarse: it is enough to drive the substring
// assertions described in spec.md §6, not to model every bit-width rule a
// real toolchain would need.
func llvmTypeName(t types.Ty) string {
	switch t.Kind() {
	case types.KindUnit:
		return "void"
	case types.KindPointer, types.KindRef:
		return "ptr"
	case types.KindNullable:
		return fmt.Sprintf("{i1, %s}", llvmTypeName(t.Elem()))
	case types.KindFn:
		return "ptr"
	case types.KindTuple:
		return "{" + joinTypes(t.Elems()) + "}"
	case types.KindSpan:
		return "{ptr, i64}" // (data, len) fat pointer
	case types.KindTraitObject:
		return "{ptr, ptr}" // (data, vtable) fat pointer
	default:
		return namedScalarType(t.Name())
	}
}

func joinTypes(ts []types.Ty) string {
	out := ""
	for i, t := range ts {
		if i > 0 {
			out += ", "
		}
		out += llvmTypeName(t)
	}
	return out
}

// namedScalarType recognises the handful of builtin numeric names the
// spec's numeric/decimal sections name explicitly; any other Named type is
// assumed to be an aggregate passed by pointer.
func namedScalarType(name string) string {
	switch name {
	case "Std::Bool":
		return "i1"
	case "Std::Int8", "Std::UInt8":
		return "i8"
	case "Std::Int16", "Std::UInt16":
		return "i16"
	case "Std::Int32", "Std::UInt32":
		return "i32"
	case "Std::Int64", "Std::UInt64":
		return "i64"
	case "Std::Int128", "Std::UInt128":
		return "i128"
	case "Std::Float32":
		return "float"
	case "Std::Float64":
		return "double"
	case "Std::Decimal":
		return "{i32, i32, i32, i32}"
	case "Std::String":
		return "{ptr, i64, i64}"
	default:
		return "ptr"
	}
}
