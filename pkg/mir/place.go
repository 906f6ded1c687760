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

// ProjectionKind discriminates one step of a Place's projection chain.
type ProjectionKind uint8

// The projection steps spec.md §3 "Places" lists.
const (
	ProjField ProjectionKind = iota
	ProjNamedField
	ProjUnionField
	ProjConstIndex
	ProjDynIndex
	ProjDeref
	ProjDowncast
	ProjSubslice
)

// ProjectionElem is one tagged step in a Place's projection chain: a field
// access, an index, a deref, a downcast to an enum variant, or a subslice.
type ProjectionElem struct {
	Kind ProjectionKind

	// ProjField
	FieldIndex int

	// ProjNamedField / ProjUnionField / ProjDowncast
	FieldName string

	// ProjConstIndex
	ConstIndex uint64

	// ProjDynIndex
	IndexLocal LocalID

	// ProjSubslice
	SubFrom uint64
	SubTo   uint64
	SubToEnd bool
}

// Field projects a numerically indexed struct/tuple field.
func Field(index int) ProjectionElem { return ProjectionElem{Kind: ProjField, FieldIndex: index} }

// NamedField projects a field by name (used where the builder has not yet
// resolved it to a numeric index).
func NamedField(name string) ProjectionElem {
	return ProjectionElem{Kind: ProjNamedField, FieldName: name}
}

// UnionFieldView projects one named view of a union.
func UnionFieldView(name string) ProjectionElem {
	return ProjectionElem{Kind: ProjUnionField, FieldName: name}
}

// ConstIndex projects a compile-time-known span/array index.
func ConstIndex(i uint64) ProjectionElem { return ProjectionElem{Kind: ProjConstIndex, ConstIndex: i} }

// DynIndex projects a runtime index held in another local.
func DynIndex(local LocalID) ProjectionElem { return ProjectionElem{Kind: ProjDynIndex, IndexLocal: local} }

// Deref follows a pointer or reference place.
func Deref() ProjectionElem { return ProjectionElem{Kind: ProjDeref} }

// Downcast narrows an enum place to one variant's payload.
func Downcast(variant string) ProjectionElem {
	return ProjectionElem{Kind: ProjDowncast, FieldName: variant}
}

// Subslice projects a `[from..to]` or `[from..]` span slice.
func Subslice(from, to uint64, toEnd bool) ProjectionElem {
	return ProjectionElem{Kind: ProjSubslice, SubFrom: from, SubTo: to, SubToEnd: toEnd}
}

// Place names a memory location as a base local plus a chain of
// projections, per spec.md §3 "Places". Places are plain data: copying one
// never aliases storage, only the description of where storage is.
type Place struct {
	Base        LocalID
	Projections []ProjectionElem
}

// LocalPlace returns the trivial place naming a local directly.
func LocalPlace(base LocalID) Place { return Place{Base: base} }

// Project appends one projection step and returns the extended place.
func (p Place) Project(elem ProjectionElem) Place {
	next := make([]ProjectionElem, len(p.Projections)+1)
	copy(next, p.Projections)
	next[len(p.Projections)] = elem
	return Place{Base: p.Base, Projections: next}
}

// IsLocal reports whether the place names a local with no projections.
func (p Place) IsLocal() bool { return len(p.Projections) == 0 }
