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

// computeStruct lays out a struct or class's fields in source order,
// implementing the three shape rules of spec.md §4.1:
//
//	(a) repr=Default picks per-field alignment from the field's own layout
//	    and uses natural packing.
//	(b) repr=C lays out sequentially, padding between fields to each
//	    field's alignment, and rounds the total size up to the struct's
//	    alignment.
//	(c) an explicit packing=p hint clamps per-field alignment to
//	    min(align, p) and removes trailing padding up to p.
//
// An explicit @align(a) raises the struct's alignment (and hence its total
// size via rounding).
func (t *Table) computeStruct(d StructDecl) (*TypeLayout, bool) {
	t.inProgress[d.Name] = true
	defer delete(t.inProgress, d.Name)

	var (
		cursor      uint64
		structAlign uint64 = 1
		fields             = make([]Field, 0, len(d.Fields))
		ok                 = true
	)

	for i, fd := range d.Fields {
		sz, al, fieldOk := t.SizeAndAlignForTy(fd.Ty)
		if !fieldOk {
			ok = false
			continue
		}

		if d.Packing != nil && al > *d.Packing {
			al = *d.Packing
		}

		offset := roundUp(cursor, al)
		cursor = offset + sz

		if al > structAlign {
			structAlign = al
		}

		fields = append(fields, Field{FieldDecl: fd, Index: i, Offset: &offset})
	}

	if !ok {
		return nil, false
	}

	if d.Align != nil && *d.Align > structAlign {
		structAlign = *d.Align
	}

	size := roundUp(cursor, structAlign)

	sl := &StructLayout{
		Name:       d.Name,
		Repr:       d.Repr,
		Packing:    d.Packing,
		Fields:     fields,
		Positional: d.Positional,
		Size:       &size,
		Align:      &structAlign,
		Readonly:   d.Readonly,
		Intrinsic:  d.Intrinsic,
		Overrides:  d.Overrides,
		Mmio:       d.Mmio,
		Dispose:    d.Dispose,
		Class:      d.Class,
		BaseClass:  d.BaseClass,
		AutoTraits: AutoTraits{ThreadSafe: true, Shareable: true, Copy: true},
	}

	kind := KindStruct
	if d.Class {
		kind = KindClass
	}

	l := &TypeLayout{kind: kind, strct: sl}
	t.layouts[d.Name] = l

	return l, true
}

// EnsureTupleLayout memoises and returns the positional layout of a tuple
// type named "(T1, T2, …)" with fields Item1, Item2, … laid out sequentially
// with default packing (spec.md §4.1).
func (t *Table) EnsureTupleLayout(elems []FieldDecl) (*TypeLayout, bool) {
	name := tupleName(elems)
	if l, ok := t.layouts[name]; ok {
		return l, true
	}

	decl := StructDecl{Name: name, Repr: ReprDefault, Fields: elems, Positional: true}

	return t.computeStruct(decl)
}

func tupleName(elems []FieldDecl) string {
	s := "("

	for i, e := range elems {
		if i > 0 {
			s += ", "
		}

		s += e.Ty.CanonicalName()
	}

	return s + ")"
}
