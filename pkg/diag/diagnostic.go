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

import "fmt"

// Severity classifies how serious a Diagnostic is. A module is considered
// successfully compiled only when its aggregated Bag holds no Error-severity
// diagnostics (spec.md §7).
type Severity int

const (
	// Warning diagnostics do not block compilation (e.g. EH0001).
	Warning Severity = iota
	// Error diagnostics are fatal for the enclosing function or module
	// (e.g. EH0002, or any verification failure converted to a diagnostic).
	Error
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}

	return "error"
}

// Stable diagnostic codes. Codes beginning with a capital letter are part of
// the compatibility surface (spec.md §6) and are asserted on by tests.
const (
	// CodeFallibleDropped fires when a fallible value is dropped (via
	// StorageDead or an explicit Drop) without being handled.
	CodeFallibleDropped = "EH0001"
	// CodeFallibleEscapes fires when a fallible value may exit its scope
	// (Return/Panic/Unreachable/Throw) without being handled.
	CodeFallibleEscapes = "EH0002"
	// CodeDecimalVectorizeUnused fires when @vectorize(decimal) is present
	// on a function that contains no decimal intrinsic call.
	CodeDecimalVectorizeUnused = "DM0001"
	// CodeDecimalVectorizeMissing fires when a decimal intrinsic is called
	// inside a function lacking @vectorize(decimal).
	CodeDecimalVectorizeMissing = "DM0002"
	// CodeCompoundAssignOnProperty fires for `x.Prop += v` style compound
	// assignment targeting a property (spec.md §8 scenario 1).
	CodeCompoundAssignOnProperty = "E0C01"
	// CodeTryOperatorNotFallible fires when `?` is applied to an
	// expression whose type exposes no Err/Error variant.
	CodeTryOperatorNotFallible = "E0C02"
	// CodeReadonlyWrite fires on a write to a readonly field outside of a
	// constructor frame on `self`.
	CodeReadonlyWrite = "E0C03"
	// CodeGotoCaseGuarded fires when `goto case P` targets a guarded case.
	CodeGotoCaseGuarded = "E0C04"
	// CodeDuplicateDiscriminant fires on a duplicate explicit enum
	// discriminant value.
	CodeDuplicateDiscriminant = "E0C05"
	// CodeDiscriminantOutOfRange fires when a discriminant does not fit
	// the enum's declared underlying type.
	CodeDiscriminantOutOfRange = "E0C06"
	// CodeFlagsVariantNotBit fires when a @flags enum variant is not a
	// single bit and not derivable as a composite of declared bits.
	CodeFlagsVariantNotBit = "E0C07"
	// CodeUnknownLabel fires for a goto targeting an undeclared label, or
	// for a duplicate label declaration.
	CodeUnknownLabel = "E0C08"
	// CodeCallArityMismatch fires when a direct call's argument count does
	// not match the callee's declared arity (spec.md §8 scenario 8).
	CodeCallArityMismatch = "E0C09"
)

// Diagnostic is a single user-visible message, optionally anchored to a
// source span. Backends, the builder, and the verifier all produce these
// uniformly so a driver can print them against the original source text.
type Diagnostic struct {
	Code     string
	Severity Severity
	Message  string
	Span     Span
	HasSpan  bool
	// Notes carry secondary annotations, such as the "value produced here"
	// note attached to EH0001 (spec.md §8 scenario 5).
	Notes []Note
}

// Note is a secondary annotation attached to a Diagnostic.
type Note struct {
	Message string
	Span    Span
	HasSpan bool
}

// New constructs an Error-severity diagnostic with no span.
func New(code, message string) Diagnostic {
	return Diagnostic{Code: code, Severity: Error, Message: message}
}

// Newf is like New but formats the message.
func Newf(code, format string, args ...any) Diagnostic {
	return New(code, fmt.Sprintf(format, args...))
}

// WithSpan returns a copy of this diagnostic anchored to span.
func (d Diagnostic) WithSpan(span Span) Diagnostic {
	d.Span = span
	d.HasSpan = true
	return d
}

// WithSeverity returns a copy of this diagnostic with the given severity.
func (d Diagnostic) WithSeverity(sev Severity) Diagnostic {
	d.Severity = sev
	return d
}

// WithNote appends a secondary annotation and returns the updated diagnostic.
func (d Diagnostic) WithNote(message string, span Span) Diagnostic {
	d.Notes = append(d.Notes, Note{Message: message, Span: span, HasSpan: true})
	return d
}

// Error implements the error interface so a Diagnostic can be returned or
// wrapped directly by Go-idiomatic call sites.
func (d Diagnostic) Error() string {
	if d.HasSpan {
		return fmt.Sprintf("%s: %d:%d: %s", d.Code, d.Span.Start(), d.Span.End(), d.Message)
	}

	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}
