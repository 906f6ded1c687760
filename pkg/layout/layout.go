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
package layout

import "github.com/chic-lang/chic-core/pkg/types"

// Kind discriminates which concrete layout a TypeLayout wraps.
type Kind uint8

// The layout shapes spec.md §3 names.
const (
	KindStruct Kind = iota
	KindClass
	KindEnum
	KindUnion
	KindFn
	KindSpan
)

// Field is one laid-out field: a FieldDecl plus its computed index/offset.
type Field struct {
	FieldDecl
	Index  int
	Offset *uint64 // nil while layout of the owning type is in progress
}

// AutoTraits holds the resolved (post fixed-point) auto-trait values for a
// composite type.
type AutoTraits struct {
	ThreadSafe bool
	Shareable  bool
	Copy       bool
}

// StructLayout is the computed layout of a struct or class.
type StructLayout struct {
	Name       string
	Repr       Repr
	Packing    *uint64
	Fields     []Field
	Positional bool
	Size       *uint64
	Align      *uint64
	Readonly   bool
	Intrinsic  bool
	AutoTraits AutoTraits
	Overrides  AutoTraitOverrides
	Mmio       bool
	Dispose    bool
	Class      bool
	BaseClass  string
}

// EnumVariant is one variant of a computed enum layout.
type EnumVariant struct {
	Name          string
	Discriminant  int64
	HasPayload    bool
	Payload       types.Ty
}

// EnumLayout is the computed layout of an enum.
type EnumLayout struct {
	Name       string
	Variants   []EnumVariant
	Underlying types.Ty
	Size       uint64
	Align      uint64
	IsFlags    bool
}

// UnionView is one computed view of a union layout.
type UnionView struct {
	Name   string
	Mode   ViewMode
	Fields []Field
	Size   uint64
	Align  uint64
}

// UnionLayout is the computed layout of a union: a set of named views sharing
// common storage.
type UnionLayout struct {
	Name  string
	Views []UnionView
	Size  uint64
	Align uint64
}

// FnLayout is the computed layout of a function-pointer type: always a
// single address-sized pointer, but retained so diagnostics can name the
// signature it points to.
type FnLayout struct {
	Name        string
	Signature   types.FnSignature
	PointerSize uint64
}

// SpanLayout is the computed layout of a Span<T>: a fat pointer of
// (data pointer, length).
type SpanLayout struct {
	Name              string
	Elem              types.Ty
	DataPointerSize   uint64
	LengthFieldSize   uint64
	ElemSize          uint64
	ElemAlign         uint64
}

// TypeLayout is the tagged union of every layout shape a Ty can resolve to.
type TypeLayout struct {
	kind   Kind
	strct  *StructLayout
	enum   *EnumLayout
	union  *UnionLayout
	fn     *FnLayout
	span   *SpanLayout
}

// Kind returns this layout's discriminant.
func (l *TypeLayout) Kind() Kind { return l.kind }

// Struct returns the struct/class payload; valid for KindStruct/KindClass.
func (l *TypeLayout) Struct() *StructLayout { return l.strct }

// Enum returns the enum payload; valid for KindEnum.
func (l *TypeLayout) Enum() *EnumLayout { return l.enum }

// Union returns the union payload; valid for KindUnion.
func (l *TypeLayout) Union() *UnionLayout { return l.union }

// Fn returns the function-pointer payload; valid for KindFn.
func (l *TypeLayout) Fn() *FnLayout { return l.fn }

// Span returns the span payload; valid for KindSpan.
func (l *TypeLayout) Span() *SpanLayout { return l.span }

// SizeAlign returns the (size, align) pair for any layout kind.
func (l *TypeLayout) SizeAlign() (uint64, uint64) {
	switch l.kind {
	case KindStruct, KindClass:
		return derefOr(l.strct.Size, 0), derefOr(l.strct.Align, 1)
	case KindEnum:
		return l.enum.Size, l.enum.Align
	case KindUnion:
		return l.union.Size, l.union.Align
	case KindFn:
		return l.fn.PointerSize, l.fn.PointerSize
	case KindSpan:
		return l.span.DataPointerSize + l.span.LengthFieldSize, l.span.DataPointerSize
	default:
		return 0, 1
	}
}

func derefOr(p *uint64, d uint64) uint64 {
	if p == nil {
		return d
	}

	return *p
}
