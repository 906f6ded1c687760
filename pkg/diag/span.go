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

// Package diag implements the diagnostic model shared by every stage of the
// compiler core: lowering, verification, the fallible-value pass and both
// backends all report through the same Diagnostic/Bag pair so a driver can
// aggregate and print them uniformly.
package diag

// Span identifies a contiguous byte range in some source buffer. It is a
// value type: every MIR construct that carries provenance embeds one.
type Span struct {
	start int
	end   int
}

// NewSpan constructs a span, panicking if the range is inverted.
func NewSpan(start, end int) Span {
	if start > end {
		panic("invalid span")
	}

	return Span{start, end}
}

// Start returns the first byte offset covered by this span.
func (s Span) Start() int { return s.start }

// End returns one past the last byte offset covered by this span.
func (s Span) End() int { return s.end }

// Length returns the number of bytes covered by this span.
func (s Span) Length() int { return s.end - s.start }

// IsZero holds for the default (unset) span value.
func (s Span) IsZero() bool { return s.start == 0 && s.end == 0 }
