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

import (
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/types"
)

// LocalKind discriminates what role a Local plays in its body.
type LocalKind uint8

// The local roles spec.md §3 names. Local 0 is always Return; locals
// 1..=arg_count are Arg in declaration order; the remainder are Local/Temp.
const (
	LocalReturn LocalKind = iota
	LocalArg
	LocalUser
	LocalTemp
)

// Local is a slot holding a value during one function execution (spec.md
// §3).
type Local struct {
	Name      string
	HasName   bool
	Ty        types.Ty
	Nullable  bool
	Span      diag.Span
	HasSpan   bool
	Kind      LocalKind
	ArgIndex  int // meaningful only when Kind == LocalArg
	Mode      types.ParamMode
	HasMode   bool
	IsPinned  bool
}

// NewReturnLocal constructs the mandatory Local 0.
func NewReturnLocal(ty types.Ty) Local {
	return Local{Ty: ty, Kind: LocalReturn}
}

// NewArgLocal constructs an argument local in declaration order.
func NewArgLocal(name string, ty types.Ty, index int, mode types.ParamMode) Local {
	return Local{Name: name, HasName: name != "", Ty: ty, Kind: LocalArg, ArgIndex: index, Mode: mode, HasMode: true}
}

// NewUserLocal constructs a user-declared local.
func NewUserLocal(name string, ty types.Ty, span diag.Span) Local {
	return Local{Name: name, HasName: true, Ty: ty, Kind: LocalUser, Span: span, HasSpan: true}
}

// NewTempLocal constructs an anonymous compiler temporary.
func NewTempLocal(ty types.Ty) Local {
	return Local{Ty: ty, Kind: LocalTemp}
}
