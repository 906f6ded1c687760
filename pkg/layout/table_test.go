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
package layout_test

import (
	"testing"

	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStructLayoutPadsToAlignment(t *testing.T) {
	bag := diag.NewBag()
	table := layout.NewTable(bag)
	table.AddStruct(layout.StructDecl{
		Name: "Pair",
		Repr: layout.ReprDefault,
		Fields: []layout.FieldDecl{
			{Name: "a", Ty: types.Named("Std::Int8")},
			{Name: "b", Ty: types.Named("Std::Int32")},
		},
	})

	l, ok := table.LayoutForName("Pair")
	require.True(t, ok)
	require.True(t, bag.IsEmpty())

	size, align := l.SizeAlign()
	assert.Equal(t, uint64(4), align)
	assert.Equal(t, uint64(8), size) // a@0, pad to 4, b@4, size 8

	assert.Equal(t, uint64(0), *l.Struct().Fields[0].Offset)
	assert.Equal(t, uint64(4), *l.Struct().Fields[1].Offset)
}

func TestPackingClampsAlignment(t *testing.T) {
	bag := diag.NewBag()
	table := layout.NewTable(bag)
	packing := uint64(1)
	table.AddStruct(layout.StructDecl{
		Name:    "Packed",
		Repr:    layout.ReprC,
		Packing: &packing,
		Fields: []layout.FieldDecl{
			{Name: "a", Ty: types.Named("Std::Int8")},
			{Name: "b", Ty: types.Named("Std::Int32")},
		},
	})

	l, ok := table.LayoutForName("Packed")
	require.True(t, ok)

	size, align := l.SizeAlign()
	assert.Equal(t, uint64(1), align)
	assert.Equal(t, uint64(5), size) // no padding at all
}

func TestUndeclaredNameReturnsFalseNotPanic(t *testing.T) {
	bag := diag.NewBag()
	table := layout.NewTable(bag)

	_, ok := table.LayoutForName("Nope")
	assert.False(t, ok)
	assert.True(t, bag.HasErrors())
}

func TestEnumDiscriminantDefaultingAndDuplicateDetection(t *testing.T) {
	bag := diag.NewBag()
	table := layout.NewTable(bag)
	table.AddEnum(layout.EnumDecl{
		Name:       "Color",
		Underlying: types.Named("Std::UInt8"),
		Variants: []layout.EnumVariantDecl{
			{Name: "Red"},
			{Name: "Green"},
			{Name: "Blue", Explicit: int64Ptr(1)},
		},
	})

	l, ok := table.LayoutForName("Color")
	require.True(t, ok)
	assert.Equal(t, int64(0), l.Enum().Variants[0].Discriminant)
	assert.Equal(t, int64(1), l.Enum().Variants[1].Discriminant)
	assert.Equal(t, int64(1), l.Enum().Variants[2].Discriminant)

	found := false
	for _, d := range bag.Items() {
		if d.Code == "E0C05" {
			found = true
		}
	}
	assert.True(t, found, "expected duplicate-discriminant diagnostic")
}

func TestFlagsEnumRejectsNonBitVariant(t *testing.T) {
	bag := diag.NewBag()
	table := layout.NewTable(bag)
	table.AddEnum(layout.EnumDecl{
		Name:       "Perm",
		Underlying: types.Named("Std::UInt8"),
		IsFlags:    true,
		Variants: []layout.EnumVariantDecl{
			{Name: "Read", Explicit: int64Ptr(1)},
			{Name: "Write", Explicit: int64Ptr(2)},
			{Name: "ReadWrite", Explicit: int64Ptr(3)},
			{Name: "Bad", Explicit: int64Ptr(5)},
		},
	})

	_, ok := table.LayoutForName("Perm")
	require.True(t, ok)

	found := false
	for _, d := range bag.Items() {
		if d.Code == "E0C07" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAutoTraitPropagationAndIdempotence(t *testing.T) {
	bag := diag.NewBag()
	table := layout.NewTable(bag)
	table.AddStruct(layout.StructDecl{
		Name:   "Inner",
		Fields: []layout.FieldDecl{{Name: "p", Ty: types.Pointer(types.Named("Std::Int32"))}},
	})
	table.AddStruct(layout.StructDecl{
		Name:   "Outer",
		Fields: []layout.FieldDecl{{Name: "inner", Ty: types.Named("Inner")}},
	})

	table.FinalizeAutoTraits()
	outer, ok := table.LayoutForName("Outer")
	require.True(t, ok)
	assert.False(t, outer.Struct().AutoTraits.ThreadSafe)

	before := outer.Struct().AutoTraits
	table.FinalizeAutoTraits()
	assert.Equal(t, before, outer.Struct().AutoTraits)
}

func int64Ptr(v int64) *int64 { return &v }
