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

import "github.com/chic-lang/chic-core/pkg/layout"

// InterfaceDefaultEntry records one trait method that a conforming type did
// not override, so the backend can wire the trait's default-method body
// into that type's vtable slot instead of emitting a new one.
type InterfaceDefaultEntry struct {
	TraitName  string
	Method     string
	SlotIndex  int
	ImplType   string
	DefaultFn  string // name of the MirFunction implementing the default
}

// ModuleAttributes holds the handful of whole-module facts the backends
// need that don't belong to any one function or layout (spec.md §3
// "MirModule").
type ModuleAttributes struct {
	GlobalAllocator    string
	HasGlobalAllocator bool
	InterfaceDefaults  []InterfaceDefaultEntry
}

// MirModule owns every function, type layout, and exception region
// produced for one compilation unit (spec.md §3 "MirModule", "Ownership").
type MirModule struct {
	Functions  []*MirFunction
	Layouts    *layout.Table
	Attributes ModuleAttributes
}

// NewModule constructs an empty module backed by the given layout table.
func NewModule(layouts *layout.Table) *MirModule {
	return &MirModule{Layouts: layouts}
}

// AddFunction appends a function to the module.
func (m *MirModule) AddFunction(f *MirFunction) { m.Functions = append(m.Functions, f) }

// FunctionByName returns the first function with the given name, if any.
func (m *MirModule) FunctionByName(name string) (*MirFunction, bool) {
	for _, f := range m.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
