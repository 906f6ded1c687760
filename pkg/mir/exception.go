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

// Catch is one `catch (T name) [when filter]` handler within an
// ExceptionRegion.
type Catch struct {
	ExceptionTy  types.Ty
	Entry        BlockID
	Body         BlockID
	Cleanup      BlockID
	FilterBlock  BlockID
	HasFilter    bool
	BindingLocal LocalID
	HasBinding   bool
}

// ExceptionRegion describes one try block's protected range, its catch
// handlers, and its optional finally (spec.md §3 "ExceptionRegion"). All
// block references must be in range; all catch bindings must name a valid
// local (spec.md §8).
type ExceptionRegion struct {
	TryEntry     BlockID
	TryExit      BlockID
	After        BlockID
	Dispatch     BlockID
	HasDispatch  bool
	Catches      []Catch
	FinallyEntry BlockID
	FinallyExit  BlockID
	HasFinally   bool
}
