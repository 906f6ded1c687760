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

// computeUnion lays out each named view over a shared storage region sized
// to the largest view (spec.md §3 Union / §4.1). Every view starts at
// offset 0; a Readonly view is a read-only alias over the same bytes as the
// Value view(s).
func (t *Table) computeUnion(d UnionDecl) (*TypeLayout, bool) {
	var (
		views       = make([]UnionView, 0, len(d.Views))
		unionSize   uint64
		unionAlign  uint64 = 1
		ok                 = true
	)

	for _, v := range d.Views {
		var (
			cursor     uint64
			viewAlign  uint64 = 1
			fields            = make([]Field, 0, len(v.Fields))
		)

		for i, fd := range v.Fields {
			sz, al, fieldOk := t.SizeAndAlignForTy(fd.Ty)
			if !fieldOk {
				ok = false
				continue
			}

			offset := roundUp(cursor, al)
			cursor = offset + sz

			if al > viewAlign {
				viewAlign = al
			}

			fields = append(fields, Field{FieldDecl: fd, Index: i, Offset: &offset})
		}

		viewSize := roundUp(cursor, viewAlign)
		views = append(views, UnionView{Name: v.Name, Mode: v.Mode, Fields: fields, Size: viewSize, Align: viewAlign})

		if viewSize > unionSize {
			unionSize = viewSize
		}

		if viewAlign > unionAlign {
			unionAlign = viewAlign
		}
	}

	if !ok {
		return nil, false
	}

	unionSize = roundUp(unionSize, unionAlign)

	ul := &UnionLayout{Name: d.Name, Views: views, Size: unionSize, Align: unionAlign}
	l := &TypeLayout{kind: KindUnion, union: ul}
	t.layouts[d.Name] = l

	return l, true
}
