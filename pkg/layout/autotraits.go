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

import "github.com/chic-lang/chic-core/pkg/types"

// FinalizeAutoTraits runs the auto-trait propagation fixed point described
// in spec.md §4.1: a composite is ThreadSafe/Shareable/Copy only if all of
// its fields are, unless an explicit override attribute pins the trait's
// value. It must be invoked exactly once before backend consumption, but is
// idempotent: once the fixed point has converged, re-running it is a no-op
// because it is a pure function of the (now-stable) per-field traits.
func (t *Table) FinalizeAutoTraits() {
	// Ensure every declared struct/class has a layout to attach traits to.
	for name := range t.structs {
		t.LayoutForName(name)
	}

	changed := true
	for iter := 0; changed && iter <= len(t.structs); iter++ {
		changed = false

		for _, l := range t.layouts {
			if l.kind != KindStruct && l.kind != KindClass {
				continue
			}

			derived := t.deriveAutoTraits(l.strct)
			if derived != l.strct.AutoTraits {
				l.strct.AutoTraits = derived
				changed = true
			}
		}
	}

	t.finalized = true
}

func (t *Table) deriveAutoTraits(sl *StructLayout) AutoTraits {
	at := AutoTraits{ThreadSafe: true, Shareable: true, Copy: true}

	for _, f := range sl.Fields {
		fat := t.tyAutoTraits(f.Ty)
		at.ThreadSafe = at.ThreadSafe && fat.ThreadSafe
		at.Shareable = at.Shareable && fat.Shareable
		at.Copy = at.Copy && fat.Copy
	}

	if sl.Overrides.ThreadSafe != nil {
		at.ThreadSafe = *sl.Overrides.ThreadSafe
	}

	if sl.Overrides.Shareable != nil {
		at.Shareable = *sl.Overrides.Shareable
	}

	if sl.Overrides.Copy != nil {
		at.Copy = *sl.Overrides.Copy
	}

	return at
}

// tyAutoTraits resolves the current (possibly not-yet-converged) auto-trait
// triple for an arbitrary Ty, used while deriving a struct's own traits.
func (t *Table) tyAutoTraits(ty types.Ty) AutoTraits {
	switch ty.Kind() {
	case types.KindPointer:
		return AutoTraits{ThreadSafe: false, Shareable: false, Copy: true}
	case types.KindRef:
		if ty.Readonly() {
			return AutoTraits{ThreadSafe: true, Shareable: true, Copy: false}
		}

		return AutoTraits{ThreadSafe: false, Shareable: false, Copy: false}
	case types.KindNullable:
		return t.tyAutoTraits(ty.Elem())
	case types.KindSpan:
		inner := t.tyAutoTraits(ty.Elem())
		return AutoTraits{ThreadSafe: false, Shareable: false, Copy: inner.Copy}
	case types.KindTuple:
		at := AutoTraits{ThreadSafe: true, Shareable: true, Copy: true}
		for _, e := range ty.Elems() {
			eat := t.tyAutoTraits(e)
			at.ThreadSafe = at.ThreadSafe && eat.ThreadSafe
			at.Shareable = at.Shareable && eat.Shareable
			at.Copy = at.Copy && eat.Copy
		}

		return at
	case types.KindFn:
		return AutoTraits{ThreadSafe: true, Shareable: true, Copy: true}
	case types.KindTraitObject:
		return AutoTraits{ThreadSafe: false, Shareable: false, Copy: false}
	case types.KindUnit:
		return AutoTraits{ThreadSafe: true, Shareable: true, Copy: true}
	case types.KindNamed:
		if l, ok := t.layouts[ty.Name()]; ok && (l.kind == KindStruct || l.kind == KindClass) {
			return l.strct.AutoTraits
		}
		// Primitives, enums, unions and forward references not (yet)
		// resolved default to the fully-permissive triple.
		return AutoTraits{ThreadSafe: true, Shareable: true, Copy: true}
	default:
		return AutoTraits{ThreadSafe: true, Shareable: true, Copy: true}
	}
}

// Finalized reports whether FinalizeAutoTraits has run at least once.
func (t *Table) Finalized() bool { return t.finalized }
