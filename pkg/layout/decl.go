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

// Package layout computes and memoises the size/alignment/field-offset of
// every named, tuple, union, function-pointer, span and nullable type that
// appears in a module (spec.md §4.1). It is the single source of truth for
// representation consumed by the MIR builder and both backends.
package layout

import "github.com/chic-lang/chic-core/pkg/types"

// Repr selects a struct's field-placement algorithm.
type Repr uint8

// The two representations spec.md §4.1 names.
const (
	ReprDefault Repr = iota
	ReprC
)

// ViewMode selects whether a union view is writable or a read-only alias.
type ViewMode uint8

// The two view modes a union may declare.
const (
	ViewValue ViewMode = iota
	ViewReadonly
)

// FieldDecl is one source-order field of a struct, class or union view, as
// presented to the layout table before layout is computed.
type FieldDecl struct {
	Name     string
	Ty       types.Ty
	Mmio     bool
	Readonly bool
	Required bool
	Nullable bool
	ViewOf   string
}

// AutoTraitOverrides lets a declaration pin an auto-trait's value instead of
// deriving it from its fields (spec.md §4.1 "unless an explicit override
// attribute sets the trait's value"). A nil pointer means "not overridden".
type AutoTraitOverrides struct {
	ThreadSafe *bool
	Shareable  *bool
	Copy       *bool
}

// StructDecl is a struct or class declaration as seen by the layout table.
type StructDecl struct {
	Name      string
	Repr      Repr
	Packing   *uint64
	Align     *uint64
	Fields    []FieldDecl
	Positional bool
	Readonly  bool
	Intrinsic bool
	Mmio      bool
	Dispose   bool
	Class     bool
	// BaseClass names the parent class for inheritance metadata; empty for
	// non-class structs or classes with no base.
	BaseClass string
	Overrides AutoTraitOverrides
	// Fallible marks this type as carrying a required-to-handle semantic
	// (e.g. a Result type), consulted by TyIsFallible.
	Fallible bool
}

// EnumVariantDecl is one variant of an enum declaration.
type EnumVariantDecl struct {
	Name       string
	Explicit   *int64
	HasPayload bool
	Payload    types.Ty
}

// EnumDecl is an enum declaration as seen by the layout table.
type EnumDecl struct {
	Name       string
	Underlying types.Ty
	IsFlags    bool
	Variants   []EnumVariantDecl
}

// UnionViewDecl is one named view of a union declaration.
type UnionViewDecl struct {
	Name   string
	Mode   ViewMode
	Fields []FieldDecl
}

// UnionDecl is a union declaration as seen by the layout table.
type UnionDecl struct {
	Name  string
	Views []UnionViewDecl
}
