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

// Package symtab implements the symbol index described in spec.md §4.2: an
// O(1) lookup of declarations by fully qualified name, built once per module
// from the AST so lowering never re-walks it. It is pure data — it never
// holds a reference to an AST node that outlives the module, only the
// fields the builder actually needs.
package symtab

import (
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/types"
)

// Visibility mirrors the surface language's accessibility modifiers.
type Visibility uint8

// The visibility levels a declaration may carry.
const (
	Public Visibility = iota
	Internal
	Protected
	Private
)

// TypeDeclKind discriminates what shape of type a TypeDecl names.
type TypeDeclKind uint8

// The kinds of type declaration the index tracks.
const (
	KindStruct TypeDeclKind = iota
	KindClass
	KindEnum
	KindUnion
	KindInterface
)

// TypeDecl is a type declaration indexed by fully qualified name.
type TypeDecl struct {
	Name       string
	Kind       TypeDeclKind
	Visibility Visibility
	BaseClass  string // empty if none
	Namespace  string
}

// PropertyDecl is a property (instance or static) indexed by owner type and
// name.
type PropertyDecl struct {
	OwnerType  string
	Name       string
	Ty         types.Ty
	Visibility Visibility
	HasGetter  bool
	HasSetter  bool
	Static     bool
	Readonly   bool
}

// MethodDecl is a method (instance, static, or virtual) indexed by owner
// type and name. SlotIndex is only meaningful once FinalizeVirtualSlots has
// run and Virtual is true.
type MethodDecl struct {
	OwnerType  string
	Name       string
	Signature  types.FnSignature
	Visibility Visibility
	Static     bool
	Virtual    bool
	SlotIndex  int
}

// ConstKind discriminates the payload of a ConstValue.
type ConstKind uint8

// The constant shapes a default argument may take.
const (
	ConstNull ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstString
)

// ConstValue is a materialised default-argument value (spec.md §4.3.5): the
// builder turns these into synthesized const operands.
type ConstValue struct {
	Kind  ConstKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

// Index is the fully-qualified-name indexed declaration table built once per
// module (spec.md §4.2).
type Index struct {
	bag *diag.Bag

	types      map[string]*TypeDecl
	properties map[string]map[string]*PropertyDecl
	methods    map[string]map[string]*MethodDecl
	defaults   map[string]map[string]ConstValue
	namespaces map[string]string
	impls      map[string][]string

	slotsFinalized bool
}

// NewIndex constructs an empty symbol index reporting failures through bag.
func NewIndex(bag *diag.Bag) *Index {
	return &Index{
		bag:        bag,
		types:      map[string]*TypeDecl{},
		properties: map[string]map[string]*PropertyDecl{},
		methods:    map[string]map[string]*MethodDecl{},
		defaults:   map[string]map[string]ConstValue{},
		namespaces: map[string]string{},
		impls:      map[string][]string{},
	}
}

// AddImplementation registers that implementer provides interface iface.
// Registration order is preserved; duplicates are ignored.
func (ix *Index) AddImplementation(implementer, iface string) {
	for _, have := range ix.impls[iface] {
		if have == implementer {
			return
		}
	}
	ix.impls[iface] = append(ix.impls[iface], implementer)
}

// Implementers returns every registered implementer of iface, in
// registration order.
func (ix *Index) Implementers(iface string) []string {
	return ix.impls[iface]
}

// SoleImplementer returns the unique implementer of iface, when exactly
// one is registered; trait-object call sites over such an interface may be
// devirtualised (spec.md §4.3.5).
func (ix *Index) SoleImplementer(iface string) (string, bool) {
	if impls := ix.impls[iface]; len(impls) == 1 {
		return impls[0], true
	}
	return "", false
}

// AddType registers a type declaration. A duplicate declaration of the same
// name is merged (the first declaration wins) after a diagnostic, per
// spec.md §4.2.
func (ix *Index) AddType(d TypeDecl) {
	if _, exists := ix.types[d.Name]; exists {
		ix.bag.Addf("E0C0C", "duplicate declaration of type %q", d.Name)
		return
	}

	ix.types[d.Name] = &d
	if d.Namespace != "" {
		ix.namespaces[d.Name] = d.Namespace
	}
}

// AddProperty registers a property declaration on an already-known owner
// type.
func (ix *Index) AddProperty(d PropertyDecl) {
	byName, ok := ix.properties[d.OwnerType]
	if !ok {
		byName = map[string]*PropertyDecl{}
		ix.properties[d.OwnerType] = byName
	}

	if _, exists := byName[d.Name]; exists {
		ix.bag.Addf("E0C0C", "duplicate declaration of property %s::%s", d.OwnerType, d.Name)
		return
	}

	byName[d.Name] = &d
}

// AddMethod registers a method declaration on an owner type.
func (ix *Index) AddMethod(d MethodDecl) {
	byName, ok := ix.methods[d.OwnerType]
	if !ok {
		byName = map[string]*MethodDecl{}
		ix.methods[d.OwnerType] = byName
	}

	if _, exists := byName[d.Name]; exists {
		ix.bag.Addf("E0C0C", "duplicate declaration of method %s::%s", d.OwnerType, d.Name)
		return
	}

	byName[d.Name] = &d
}

// AddDefaultArgument registers the default value of one parameter of fn.
func (ix *Index) AddDefaultArgument(fn, param string, v ConstValue) {
	byParam, ok := ix.defaults[fn]
	if !ok {
		byParam = map[string]ConstValue{}
		ix.defaults[fn] = byParam
	}

	byParam[param] = v
}

// Type looks up a type declaration by fully qualified name.
func (ix *Index) Type(name string) (*TypeDecl, bool) {
	d, ok := ix.types[name]
	return d, ok
}

// Visibility returns the visibility of a declared type.
func (ix *Index) Visibility(name string) (Visibility, bool) {
	d, ok := ix.types[name]
	if !ok {
		return Public, false
	}

	return d.Visibility, true
}

// ResolveNamespace returns the namespace a declared name belongs to.
func (ix *Index) ResolveNamespace(name string) (string, bool) {
	ns, ok := ix.namespaces[name]
	return ns, ok
}

// DefaultArguments returns the default-argument map for fn, or nil if fn
// declares none.
func (ix *Index) DefaultArguments(fn string) map[string]ConstValue {
	return ix.defaults[fn]
}

// Property resolves a property by walking typeName's inheritance chain,
// stopping at the first owner that declares it.
func (ix *Index) Property(typeName, name string) (*PropertyDecl, bool) {
	for t, depth := typeName, 0; t != ""; depth++ {
		if depth > maxInheritanceDepth {
			ix.bag.Addf("E0C0D", "inheritance cycle detected resolving property %s on %s", name, typeName)
			return nil, false
		}

		if byName, ok := ix.properties[t]; ok {
			if p, ok := byName[name]; ok {
				return p, true
			}
		}

		decl, ok := ix.types[t]
		if !ok {
			break
		}

		t = decl.BaseClass
	}

	return nil, false
}

// Method resolves a method by walking typeName's inheritance chain, exactly
// as Property does.
func (ix *Index) Method(typeName, name string) (*MethodDecl, bool) {
	for t, depth := typeName, 0; t != ""; depth++ {
		if depth > maxInheritanceDepth {
			ix.bag.Addf("E0C0D", "inheritance cycle detected resolving method %s on %s", name, typeName)
			return nil, false
		}

		if byName, ok := ix.methods[t]; ok {
			if m, ok := byName[name]; ok {
				return m, true
			}
		}

		decl, ok := ix.types[t]
		if !ok {
			break
		}

		t = decl.BaseClass
	}

	return nil, false
}

// maxInheritanceDepth bounds chain walks against misuse cycles (Design
// Notes, spec.md §9): inheritance is only ever a cycle in misuse.
const maxInheritanceDepth = 1 << 16
