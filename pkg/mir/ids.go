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

// Package mir implements the Mid-level Intermediate Representation data
// model described in spec.md §3: the per-function CFG of typed
// three-address-code-like statements that is the handoff between the
// builder and both backends. Places and operands hold local/block ids —
// indices, never references — so they remain freely copyable, per spec.md
// §3 "Ownership".
package mir

// LocalID indexes into a MirBody's Locals slice. LocalID(0) always names the
// Return local (spec.md §3).
type LocalID int

// BlockID indexes into a MirBody's Blocks slice; invariant: Blocks[i].ID ==
// BlockID(i).
type BlockID int

// RegionVar names a borrow-region lifetime variable. RegionVar(0) is the
// reserved invalid/sentinel value (spec.md §3 "Ownership").
type RegionVar uint64

// InvalidRegion is the sentinel region used before a real region is
// assigned; no verified body may contain a Borrow with this region
// (spec.md §8).
const InvalidRegion RegionVar = 0

// BorrowID uniquely identifies one borrow statement within a body, used to
// correlate borrow operands with constraints produced by the builder
// (spec.md §3).
type BorrowID uint64
