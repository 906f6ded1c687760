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
package types_test

import (
	"testing"

	"github.com/chic-lang/chic-core/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalNameStability(t *testing.T) {
	a := types.Nullable(types.Named("Std::Int32"))
	b := types.Nullable(types.Named("Std::Int32"))

	assert.Equal(t, a.CanonicalName(), b.CanonicalName())
	assert.True(t, types.Equal(a, b))
}

func TestCanonicalNameDistinguishesKinds(t *testing.T) {
	ref := types.Ref(types.Named("Counter"), true)
	ptr := types.Pointer(types.Named("Counter"))

	assert.NotEqual(t, ref.CanonicalName(), ptr.CanonicalName())
	assert.False(t, types.Equal(ref, ptr))
}

func TestTupleCanonicalName(t *testing.T) {
	tup := types.Tuple(types.Named("A"), types.Named("B"))
	assert.Equal(t, "(A, B)", tup.CanonicalName())
}

func TestFnCanonicalName(t *testing.T) {
	sig := types.FnSignature{
		Params: []types.Param{{Name: "x", Ty: types.Named("Int32"), Mode: types.ModeValue}},
		Return: types.Named("Bool"),
	}
	fn := types.Fn(sig)
	assert.Equal(t, "fn(Int32) -> Bool", fn.CanonicalName())
}

func TestSpanAndSharedEquality(t *testing.T) {
	s1 := types.Span(types.Named("Byte"))
	s2 := types.Span(types.Named("Byte"))
	assert.True(t, types.Equal(s1, s2))
	assert.Equal(t, "Span<Byte>", s1.CanonicalName())
}
