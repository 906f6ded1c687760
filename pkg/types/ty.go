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

// Package types implements Ty, the tagged-union type representation shared by
// the layout table, the MIR builder and both backends (spec.md §3). Tys are
// value types: two structurally equal Tys compare equal and share a
// canonical textual name used as a layout key.
package types

import (
	"fmt"
	"strings"
)

// Kind discriminates the variant a Ty holds. Kept as a dense byte so
// verification and codegen switches stay cheap, per the Design Notes in
// spec.md §9.
type Kind uint8

// Following the tagged-union shape laid out in spec.md §3.
const (
	KindNamed Kind = iota
	KindUnit
	KindPointer
	KindRef
	KindNullable
	KindFn
	KindTuple
	KindSpan
	KindTraitObject
)

// ParamMode mirrors spec.md §3's parameter passing modes, used by FnSignature
// parameters.
type ParamMode uint8

// Passing modes a parameter of a Fn type may declare.
const (
	ModeValue ParamMode = iota
	ModeIn
	ModeRef
	ModeOut
)

// Param is one formal parameter of an FnSignature.
type Param struct {
	Name string
	Ty   Ty
	Mode ParamMode
	// LendsToReturn marks a parameter whose storage the return value may
	// borrow from; storing a borrow of it into the return slot is an
	// escape the builder must report.
	LendsToReturn bool
}

// FnSignature describes a function type's shape: parameters, return type,
// calling convention and variadic/effect metadata. It is attached to a Ty via
// KindFn and, separately, to a MirFunction.
type FnSignature struct {
	Params   []Param
	Return   Ty
	Abi      string
	Variadic bool
	Effects  []string
}

// Ty is the tagged-union value type described in spec.md §3. The zero value
// is a KindNamed type with an empty name, not Unit; use Unit() for the unit
// type.
type Ty struct {
	kind     Kind
	name     string       // Named, TraitObject
	elem     *Ty          // Pointer, Ref, Nullable, Span
	readonly bool         // Ref
	sig      *FnSignature // Fn
	elems    []Ty         // Tuple
}

// Kind returns this type's discriminant.
func (t Ty) Kind() Kind { return t.kind }

// Unit is the single-value "no data" type.
func Unit() Ty { return Ty{kind: KindUnit} }

// Named constructs a reference to a user-declared type by fully qualified
// name.
func Named(name string) Ty { return Ty{kind: KindNamed, name: name} }

// Pointer constructs a raw pointer to elem.
func Pointer(elem Ty) Ty { return Ty{kind: KindPointer, elem: &elem} }

// Ref constructs a borrowed reference to elem; readonly marks it immutable.
func Ref(elem Ty, readonly bool) Ty {
	return Ty{kind: KindRef, elem: &elem, readonly: readonly}
}

// Nullable constructs the nullable-wrapper type over inner.
func Nullable(inner Ty) Ty { return Ty{kind: KindNullable, elem: &inner} }

// Fn constructs a function-pointer type over the given signature.
func Fn(sig FnSignature) Ty { return Ty{kind: KindFn, sig: &sig} }

// Tuple constructs a positional product type.
func Tuple(elems ...Ty) Ty { return Ty{kind: KindTuple, elems: elems} }

// Span constructs a contiguous-sequence view over elem.
func Span(elem Ty) Ty { return Ty{kind: KindSpan, elem: &elem} }

// TraitObject constructs a dynamic dispatch type for the named trait.
func TraitObject(traitName string) Ty { return Ty{kind: KindTraitObject, name: traitName} }

// Name returns the declared name for KindNamed/KindTraitObject; it panics for
// any other kind, since callers are expected to switch on Kind first.
func (t Ty) Name() string {
	switch t.kind {
	case KindNamed, KindTraitObject:
		return t.name
	default:
		panic(fmt.Sprintf("Ty.Name() on kind %v", t.kind))
	}
}

// Elem returns the element type for Pointer/Ref/Nullable/Span.
func (t Ty) Elem() Ty {
	switch t.kind {
	case KindPointer, KindRef, KindNullable, KindSpan:
		return *t.elem
	default:
		panic(fmt.Sprintf("Ty.Elem() on kind %v", t.kind))
	}
}

// Readonly holds for a KindRef constructed as readonly.
func (t Ty) Readonly() bool { return t.kind == KindRef && t.readonly }

// Signature returns the function signature for a KindFn type.
func (t Ty) Signature() FnSignature {
	if t.kind != KindFn {
		panic("Ty.Signature() on non-Fn kind")
	}

	return *t.sig
}

// Elems returns the component types of a KindTuple type.
func (t Ty) Elems() []Ty {
	if t.kind != KindTuple {
		panic("Ty.Elems() on non-Tuple kind")
	}

	return t.elems
}

// CanonicalName returns the textual name used as a layout-table key and in
// diagnostics. Structurally equal Tys always produce the same name.
func (t Ty) CanonicalName() string {
	switch t.kind {
	case KindUnit:
		return "()"
	case KindNamed:
		return t.name
	case KindTraitObject:
		return "dyn " + t.name
	case KindPointer:
		return "*" + t.Elem().CanonicalName()
	case KindRef:
		if t.readonly {
			return "&" + t.Elem().CanonicalName()
		}

		return "&mut " + t.Elem().CanonicalName()
	case KindNullable:
		return t.Elem().CanonicalName() + "?"
	case KindSpan:
		return "Span<" + t.Elem().CanonicalName() + ">"
	case KindTuple:
		parts := make([]string, len(t.elems))
		for i, e := range t.elems {
			parts[i] = e.CanonicalName()
		}

		return "(" + strings.Join(parts, ", ") + ")"
	case KindFn:
		parts := make([]string, len(t.sig.Params))
		for i, p := range t.sig.Params {
			parts[i] = p.Ty.CanonicalName()
		}

		return "fn(" + strings.Join(parts, ", ") + ") -> " + t.sig.Return.CanonicalName()
	default:
		panic(fmt.Sprintf("unhandled Ty kind %v", t.kind))
	}
}

// Equal reports whether two Tys are structurally identical.
func Equal(a, b Ty) bool {
	return a.CanonicalName() == b.CanonicalName() && a.kind == b.kind
}

// String implements fmt.Stringer via CanonicalName, matching the teacher's
// convention of making IR types directly printable.
func (t Ty) String() string { return t.CanonicalName() }
