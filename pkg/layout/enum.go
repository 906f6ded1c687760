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

// computeEnum assigns discriminants (spec.md §4.1): a variant with no
// explicit value takes the prior discriminant plus one; duplicates and
// out-of-range values against the declared underlying type are diagnosed.
// For @flags enums every variant must be a non-negative single bit or a
// composite fully derivable from already-declared single bits; payloads are
// forbidden and the bit width equals the underlying type's width.
func (t *Table) computeEnum(d EnumDecl) (*TypeLayout, bool) {
	size, align, ok := t.SizeAndAlignForTy(d.Underlying)
	if !ok {
		return nil, false
	}

	var (
		variants = make([]EnumVariant, 0, len(d.Variants))
		seen     = map[int64]bool{}
		next     int64
		maxVal   = maxUnsigned(size)
		bits     = map[int64]bool{}
	)

	for _, v := range d.Variants {
		disc := next
		if v.Explicit != nil {
			disc = *v.Explicit
		}

		if disc < 0 || uint64(disc) > maxVal {
			t.bag.Addf("E0C06", "discriminant %d of %s::%s is out of range for underlying type %s",
				disc, d.Name, v.Name, d.Underlying.CanonicalName())
		}

		if seen[disc] {
			t.bag.Addf("E0C05", "duplicate discriminant %d in enum %s (variant %s)", disc, d.Name, v.Name)
		}

		seen[disc] = true
		next = disc + 1

		if d.IsFlags {
			t.checkFlagVariant(d.Name, v, disc, bits)
		}

		variants = append(variants, EnumVariant{
			Name:         v.Name,
			Discriminant: disc,
			HasPayload:   v.HasPayload,
			Payload:      v.Payload,
		})
	}

	el := &EnumLayout{
		Name:       d.Name,
		Variants:   variants,
		Underlying: d.Underlying,
		Size:       size,
		Align:      align,
		IsFlags:    d.IsFlags,
	}

	l := &TypeLayout{kind: KindEnum, enum: el}
	t.layouts[d.Name] = l

	return l, true
}

func (t *Table) checkFlagVariant(enumName string, v EnumVariantDecl, disc int64, bits map[int64]bool) {
	if v.HasPayload {
		t.bag.Addf("E0C07", "flags enum %s variant %s carries a payload, which is forbidden", enumName, v.Name)
		return
	}

	if disc < 0 {
		t.bag.Addf("E0C07", "flags enum %s variant %s is negative", enumName, v.Name)
		return
	}

	if isSingleBit(disc) {
		bits[disc] = true
		return
	}

	// Composite: every set bit must already be a declared single-bit
	// variant.
	for b := int64(1); b != 0 && b <= disc; b <<= 1 {
		if disc&b != 0 && !bits[b] {
			t.bag.Addf("E0C07",
				"flags enum %s variant %s (0x%x) is not a single bit and is not fully derivable from declared bits",
				enumName, v.Name, disc)
			return
		}
	}
}

func isSingleBit(v int64) bool {
	return v > 0 && v&(v-1) == 0
}

func maxUnsigned(size uint64) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}

	return (uint64(1) << (size * 8)) - 1
}
