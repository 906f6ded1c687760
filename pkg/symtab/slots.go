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
package symtab

import "sort"

// FinalizeVirtualSlots assigns a stable vtable slot index to every virtual
// method, in method-name order per type, walking base classes first so an
// override keeps its base's slot. Design Notes (spec.md §9): "slot indices
// are fixed by the symbol index at module construction time; neither the
// MIR builder nor the backends may re-number slots." This must be called
// exactly once, after every AddType/AddMethod call for the module.
func (ix *Index) FinalizeVirtualSlots() {
	if ix.slotsFinalized {
		return
	}

	nextSlot := map[string]int{} // root class name -> next free slot

	// Process classes in an order where every base class is processed
	// before its derived classes.
	for _, name := range ix.classesInBaseFirstOrder() {
		root := ix.inheritanceRoot(name)

		byName, ok := ix.methods[name]
		if !ok {
			continue
		}

		names := make([]string, 0, len(byName))
		for n := range byName {
			names = append(names, n)
		}

		sort.Strings(names)

		for _, n := range names {
			m := byName[n]
			if !m.Virtual {
				continue
			}

			if base, ok := ix.Method(ix.types[name].BaseClass, n); ok && base.Virtual {
				m.SlotIndex = base.SlotIndex
				continue
			}

			m.SlotIndex = nextSlot[root]
			nextSlot[root]++
		}
	}

	// Interface methods get their own per-interface slot numbering, in
	// name order; trait-object dispatch indexes the interface's vtable by
	// these (spec.md §9 "Dynamic dispatch").
	ifaceNames := make([]string, 0)
	for n, d := range ix.types {
		if d.Kind == KindInterface {
			ifaceNames = append(ifaceNames, n)
		}
	}
	sort.Strings(ifaceNames)
	for _, iface := range ifaceNames {
		byName, ok := ix.methods[iface]
		if !ok {
			continue
		}
		names := make([]string, 0, len(byName))
		for n := range byName {
			names = append(names, n)
		}
		sort.Strings(names)
		for slot, n := range names {
			byName[n].SlotIndex = slot
		}
	}

	ix.slotsFinalized = true
}

func (ix *Index) inheritanceRoot(name string) string {
	for depth := 0; depth <= maxInheritanceDepth; depth++ {
		d, ok := ix.types[name]
		if !ok || d.BaseClass == "" {
			return name
		}

		name = d.BaseClass
	}

	return name
}

// classesInBaseFirstOrder returns every class name such that a class always
// appears after its base class.
func (ix *Index) classesInBaseFirstOrder() []string {
	var (
		order   []string
		visited = map[string]bool{}
	)

	names := make([]string, 0, len(ix.types))
	for n, d := range ix.types {
		if d.Kind == KindClass {
			names = append(names, n)
		}
	}

	sort.Strings(names)

	var visit func(string, map[string]bool)
	visit = func(name string, onStack map[string]bool) {
		if visited[name] {
			return
		}

		if onStack[name] {
			ix.bag.Addf("E0C0D", "inheritance cycle detected at class %q", name)
			return
		}

		onStack[name] = true

		if d, ok := ix.types[name]; ok && d.BaseClass != "" {
			visit(d.BaseClass, onStack)
		}

		visited[name] = true
		order = append(order, name)
	}

	for _, n := range names {
		visit(n, map[string]bool{})
	}

	return order
}
