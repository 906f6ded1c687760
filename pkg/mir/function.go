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

import "github.com/chic-lang/chic-core/pkg/types"

// FunctionKind discriminates what surface declaration a MirFunction was
// lowered from; it changes ABI and dispatch decisions in both backends
// (spec.md §3 "MirFunction").
type FunctionKind uint8

// Function kinds the backends distinguish.
const (
	FnFunction FunctionKind = iota
	FnMethod
	FnConstructor
	FnFinalizer
	FnPropertyGetter
	FnPropertySetter
)

// MirFunction is one lowered, verified function body plus its signature
// and linkage metadata (spec.md §3 "MirFunction").
type MirFunction struct {
	Name      string
	Kind      FunctionKind
	Signature types.FnSignature
	Body      *MirBody

	Async bool
	Weak  bool

	Extern       bool
	ExternSymbol string

	OwnerType string // FQN of the containing struct/class; empty for free functions
	SlotIndex int     // vtable slot, meaningful only for virtual methods
	IsVirtual bool
}
