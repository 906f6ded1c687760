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
package diag

import log "github.com/sirupsen/logrus"

// Bag collects diagnostics produced during one compilation stage. It mirrors
// the teacher's convention (pkg/util/source, trace construction) of
// accumulating a list rather than failing fast, so a stage can keep going and
// surface every problem it finds in one pass.
type Bag struct {
	items []Diagnostic
}

// NewBag constructs an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{}
}

// Add appends a diagnostic and logs it: warnings at Warn level, every
// other severity at Debug level.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)

	entry := log.WithFields(log.Fields{"code": d.Code})
	if d.Severity == Warning {
		entry.Warn(d.Message)
	} else {
		entry.Debug(d.Message)
	}
}

// Addf constructs and appends an Error-severity diagnostic.
func (b *Bag) Addf(code, format string, args ...any) {
	b.Add(Newf(code, format, args...))
}

// Items returns every diagnostic collected so far, in emission order.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// IsEmpty holds when no diagnostic has been added.
func (b *Bag) IsEmpty() bool {
	return len(b.items) == 0
}

// HasErrors holds when at least one Error-severity diagnostic was added. A
// module is considered successfully compiled only when this is false
// (spec.md §7).
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}

	return false
}

// Merge appends every diagnostic from other into this bag.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}

	b.items = append(b.items, other.items...)
}
