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
package mir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/types"
)

func TestBlockIDMatchesIndexInvariant(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Named("Std::Int32")))
	b0 := body.NewBlock()
	b1 := body.NewBlock()
	b2 := body.NewBlock()

	require.Equal(t, mir.BlockID(0), b0)
	require.Equal(t, mir.BlockID(1), b1)
	require.Equal(t, mir.BlockID(2), b2)
	for i, blk := range body.Blocks {
		assert.Equal(t, mir.BlockID(i), blk.ID)
	}
}

func TestFinalizeTerminatesOrphanBlocksByReturnType(t *testing.T) {
	unitBody := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	unitBlock := unitBody.NewBlock()
	unitBody.Finalize(true)
	assert.True(t, unitBody.Blocks[unitBlock].HasTerm)
	assert.Equal(t, mir.TermReturn, unitBody.Blocks[unitBlock].Terminator.Kind)

	nonUnitBody := mir.NewBody(mir.NewReturnLocal(types.Named("Std::Int32")))
	nonUnitBlock := nonUnitBody.NewBlock()
	nonUnitBody.Finalize(false)
	assert.Equal(t, mir.TermUnreachable, nonUnitBody.Blocks[nonUnitBlock].Terminator.Kind)
}

func TestFinalizeDoesNotOverwriteExistingTerminator(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	blk := body.NewBlock()
	body.SetTerminator(blk, mir.GotoTerm(diag.Span{}, blk))
	body.Finalize(true)
	assert.Equal(t, mir.TermGoto, body.Blocks[blk].Terminator.Kind)
}

func TestPlaceProjectDoesNotMutateOriginal(t *testing.T) {
	base := mir.LocalPlace(mir.LocalID(1))
	projected := base.Project(mir.Field(0))

	assert.True(t, base.IsLocal())
	assert.False(t, projected.IsLocal())
	assert.Len(t, base.Projections, 0)
	assert.Len(t, projected.Projections, 1)
}

func TestAggregateAndDecimalIntrinsicConstructors(t *testing.T) {
	lhs := mir.IntConst(1, types.Named("Std::Int32"))
	rhs := mir.IntConst(2, types.Named("Std::Int32"))
	rv := mir.Binary(mir.BinAdd, lhs, rhs)
	assert.Equal(t, mir.RvBinary, rv.Kind)

	decimalRv := mir.DecimalIntrinsic(mir.DecimalAdd, lhs, rhs, mir.RoundTiesToEven, mir.VectorizeNone)
	assert.Equal(t, mir.RvDecimalIntrinsic, decimalRv.Kind)
	assert.False(t, decimalRv.HasAddend)

	fma := mir.NewDecimalFma(lhs, rhs, mir.IntConst(3, types.Named("Std::Decimal")), mir.RoundTiesToEven, mir.VectorizeAuto)
	assert.True(t, fma.HasAddend)
}
