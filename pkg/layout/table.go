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

import (
	"fmt"

	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/types"
)

// pointerSize is the address width assumed by this layout table; the native
// and WASM backends both target 32/64-bit linear address spaces, and for
// layout purposes a pointer is always treated as 8 bytes here (64-bit host).
const pointerSize = 8

// primitiveSizes gives (size, align) for built-in scalar names that never
// have a StructDecl of their own.
var primitiveSizes = map[string][2]uint64{
	"Std::Bool":    {1, 1},
	"Std::Int8":    {1, 1},
	"Std::UInt8":   {1, 1},
	"Std::Int16":   {2, 2},
	"Std::UInt16":  {2, 2},
	"Std::Int32":   {4, 4},
	"Std::UInt32":  {4, 4},
	"Std::Int64":   {8, 8},
	"Std::UInt64":  {8, 8},
	"Std::Int128":  {16, 16},
	"Std::UInt128": {16, 16},
	"Std::Float32": {4, 4},
	"Std::Float64": {8, 8},
	"Std::Char":    {4, 4},
	"Std::Decimal": {16, 16},
}

// Table computes and memoises a TypeLayout for every type that appears in a
// module. It is the single source of truth for representation, shared by the
// MIR builder and both backends (spec.md §4.1).
type Table struct {
	bag *diag.Bag

	structs map[string]StructDecl
	enums   map[string]EnumDecl
	unions  map[string]UnionDecl

	layouts    map[string]*TypeLayout
	inProgress map[string]bool

	fallible map[string]bool

	finalized bool
}

// NewTable constructs an empty layout table reporting failures through bag.
func NewTable(bag *diag.Bag) *Table {
	return &Table{
		bag:        bag,
		structs:    map[string]StructDecl{},
		enums:      map[string]EnumDecl{},
		unions:     map[string]UnionDecl{},
		layouts:    map[string]*TypeLayout{},
		inProgress: map[string]bool{},
		fallible:   map[string]bool{},
	}
}

// AddStruct registers a struct or class declaration.
func (t *Table) AddStruct(d StructDecl) {
	t.structs[d.Name] = d
	if d.Fallible {
		t.fallible[d.Name] = true
	}
}

// AddEnum registers an enum declaration.
func (t *Table) AddEnum(d EnumDecl) { t.enums[d.Name] = d }

// AddUnion registers a union declaration.
func (t *Table) AddUnion(d UnionDecl) { t.unions[d.Name] = d }

// RegisterFallible marks an already- or not-yet-declared type name as
// fallible (spec.md §4.4.2 / Glossary), independent of AddStruct.
func (t *Table) RegisterFallible(name string) { t.fallible[name] = true }

// LayoutForName returns the memoised layout for a declared name, computing it
// on first access. It returns (nil, false) and emits a diagnostic if name was
// never declared — per spec.md §4.1 this is not a fatal table failure.
func (t *Table) LayoutForName(name string) (*TypeLayout, bool) {
	if l, ok := t.layouts[name]; ok {
		return l, true
	}

	if t.inProgress[name] {
		t.bag.Addf("E0C0A", "cycle detected while computing layout of %q", name)
		return nil, false
	}

	if d, ok := t.structs[name]; ok {
		return t.computeStruct(d)
	}

	if d, ok := t.enums[name]; ok {
		return t.computeEnum(d)
	}

	if d, ok := t.unions[name]; ok {
		return t.computeUnion(d)
	}

	t.bag.Addf("E0C0B", "reference to undeclared type %q", name)

	return nil, false
}

// SizeAndAlignForTy returns the (size, align) pair for an arbitrary Ty,
// resolving composite/structural types (tuples, pointers, etc.) without
// requiring a prior declaration.
func (t *Table) SizeAndAlignForTy(ty types.Ty) (uint64, uint64, bool) {
	switch ty.Kind() {
	case types.KindUnit:
		return 0, 1, true
	case types.KindPointer, types.KindRef:
		return pointerSize, pointerSize, true
	case types.KindFn:
		return pointerSize, pointerSize, true
	case types.KindTraitObject:
		return 2 * pointerSize, pointerSize, true
	case types.KindNullable:
		innerSize, innerAlign, ok := t.SizeAndAlignForTy(ty.Elem())
		if !ok {
			return 0, 0, false
		}
		// HasValue flag is appended and the whole thing rounded to the
		// inner type's alignment.
		return roundUp(innerSize+1, innerAlign), innerAlign, true
	case types.KindSpan:
		return pointerSize + 8, pointerSize, true
	case types.KindTuple:
		return t.sizeAlignOfTuple(ty.Elems())
	case types.KindNamed:
		if sz, ok := primitiveSizes[ty.Name()]; ok {
			return sz[0], sz[1], true
		}

		l, ok := t.LayoutForName(ty.Name())
		if !ok {
			return 0, 0, false
		}

		sz, al := l.SizeAlign()

		return sz, al, true
	default:
		panic(fmt.Sprintf("unhandled Ty kind %v", ty.Kind()))
	}
}

func (t *Table) sizeAlignOfTuple(elems []types.Ty) (uint64, uint64, bool) {
	var (
		cursor uint64
		align  uint64 = 1
	)

	for _, e := range elems {
		sz, al, ok := t.SizeAndAlignForTy(e)
		if !ok {
			return 0, 0, false
		}

		cursor = roundUp(cursor, al) + sz
		if al > align {
			align = al
		}
	}

	return roundUp(cursor, align), align, true
}

// EnsureFnLayout memoises and returns the layout for a function-pointer type
// with the given signature, keyed by its canonical name.
func (t *Table) EnsureFnLayout(sig types.FnSignature) *TypeLayout {
	name := types.Fn(sig).CanonicalName()
	if l, ok := t.layouts[name]; ok {
		return l
	}

	l := &TypeLayout{kind: KindFn, fn: &FnLayout{Name: name, Signature: sig, PointerSize: pointerSize}}
	t.layouts[name] = l

	return l
}

// TyIsFallible reports whether values of ty carry a required-to-handle
// semantic (spec.md Glossary: "fallible value").
func (t *Table) TyIsFallible(ty types.Ty) bool {
	if ty.Kind() != types.KindNamed {
		return false
	}

	return t.fallible[ty.Name()]
}

func roundUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}

	rem := v % align
	if rem == 0 {
		return v
	}

	return v + (align - rem)
}
