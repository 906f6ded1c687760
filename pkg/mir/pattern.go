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
package mir

// PatternKind discriminates the shape of a MIR-level Pattern attached to a
// Match terminator's arm. By the time surface patterns reach the MIR they
// have already been reduced to the handful of shapes a single Match arm
// can test in one step; relational, binary, not, and list patterns are
// compiled away into guard chains before this point (spec.md §4.3.4).
type PatternKind uint8

// MIR pattern shapes.
const (
	PatWildcard PatternKind = iota
	PatIntLiteral
	PatBoolLiteral
	PatEnumVariant
	PatStruct
	PatTuple
)

// PatternField binds one struct field within a PatStruct test.
type PatternField struct {
	FieldIndex int
	Sub        Pattern
}

// Pattern is the tagged union of MIR-level match patterns (spec.md §3
// Design Notes "Sum types").
type Pattern struct {
	Kind PatternKind

	// PatIntLiteral
	IntValue int64

	// PatBoolLiteral
	BoolValue bool

	// PatEnumVariant
	Variant string
	Payload []PatternField

	// PatStruct
	Fields []PatternField

	// PatTuple
	Elems []Pattern
}

// Wildcard matches any value and binds nothing.
func Wildcard() Pattern { return Pattern{Kind: PatWildcard} }

// IntLiteralPattern matches a scalar discriminant exactly.
func IntLiteralPattern(v int64) Pattern { return Pattern{Kind: PatIntLiteral, IntValue: v} }

// BoolLiteralPattern matches a boolean value exactly.
func BoolLiteralPattern(v bool) Pattern { return Pattern{Kind: PatBoolLiteral, BoolValue: v} }

// EnumVariantPattern matches an enum value's discriminant and destructures
// its payload fields.
func EnumVariantPattern(variant string, payload []PatternField) Pattern {
	return Pattern{Kind: PatEnumVariant, Variant: variant, Payload: payload}
}

// StructPattern destructures a struct's fields.
func StructPattern(fields []PatternField) Pattern { return Pattern{Kind: PatStruct, Fields: fields} }

// TuplePattern destructures a tuple's elements positionally.
func TuplePattern(elems []Pattern) Pattern { return Pattern{Kind: PatTuple, Elems: elems} }
