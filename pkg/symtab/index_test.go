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
package symtab_test

import (
	"testing"

	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/symtab"
	"github.com/chic-lang/chic-core/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateTypeMergesAfterDiagnostic(t *testing.T) {
	bag := diag.NewBag()
	ix := symtab.NewIndex(bag)
	ix.AddType(symtab.TypeDecl{Name: "Counter", Kind: symtab.KindClass})
	ix.AddType(symtab.TypeDecl{Name: "Counter", Kind: symtab.KindClass, Visibility: symtab.Private})

	assert.True(t, bag.HasErrors())

	d, ok := ix.Type("Counter")
	require.True(t, ok)
	assert.Equal(t, symtab.Public, d.Visibility) // first declaration wins
}

func TestPropertyResolvesThroughInheritance(t *testing.T) {
	bag := diag.NewBag()
	ix := symtab.NewIndex(bag)
	ix.AddType(symtab.TypeDecl{Name: "Base", Kind: symtab.KindClass})
	ix.AddType(symtab.TypeDecl{Name: "Derived", Kind: symtab.KindClass, BaseClass: "Base"})
	ix.AddProperty(symtab.PropertyDecl{OwnerType: "Base", Name: "Value", Ty: types.Named("Std::Int32")})

	p, ok := ix.Property("Derived", "Value")
	require.True(t, ok)
	assert.Equal(t, "Base", p.OwnerType)
}

func TestVirtualSlotsStableAcrossOverride(t *testing.T) {
	bag := diag.NewBag()
	ix := symtab.NewIndex(bag)
	ix.AddType(symtab.TypeDecl{Name: "Shape", Kind: symtab.KindClass})
	ix.AddType(symtab.TypeDecl{Name: "Circle", Kind: symtab.KindClass, BaseClass: "Shape"})
	ix.AddMethod(symtab.MethodDecl{OwnerType: "Shape", Name: "Area", Virtual: true})
	ix.AddMethod(symtab.MethodDecl{OwnerType: "Circle", Name: "Area", Virtual: true})

	ix.FinalizeVirtualSlots()

	base, _ := ix.Method("Shape", "Area")
	override, _ := ix.Method("Circle", "Area")
	assert.Equal(t, base.SlotIndex, override.SlotIndex)
}

func TestDefaultArguments(t *testing.T) {
	bag := diag.NewBag()
	ix := symtab.NewIndex(bag)
	ix.AddDefaultArgument("Foo::Bar", "count", symtab.ConstValue{Kind: symtab.ConstInt, Int: 3})

	defaults := ix.DefaultArguments("Foo::Bar")
	require.Contains(t, defaults, "count")
	assert.Equal(t, int64(3), defaults["count"].Int)
}
