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
package verify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/mir/verify"
	"github.com/chic-lang/chic-core/pkg/types"
)

func simpleBody() *mir.MirBody {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	b0 := body.NewBlock()
	body.SetTerminator(b0, mir.ReturnTerm(diag.Span{}))
	return body
}

func TestVerifyBodyAcceptsWellFormedBody(t *testing.T) {
	body := simpleBody()
	errs := verify.VerifyBody(body)
	assert.Empty(t, errs)
}

func TestVerifyBodyRejectsEmptyBody(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	errs := verify.VerifyBody(body)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "no blocks")
}

func TestVerifyBodyRejectsMissingTerminator(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	body.NewBlock()
	errs := verify.VerifyBody(body)
	if assert.NotEmpty(t, errs) {
		assert.Contains(t, errs[0].Error(), "no terminator")
	}
}

func TestVerifyBodyRejectsOutOfRangeGotoTarget(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	b0 := body.NewBlock()
	body.SetTerminator(b0, mir.GotoTerm(diag.Span{}, mir.BlockID(5)))
	errs := verify.VerifyBody(body)
	if assert.NotEmpty(t, errs) {
		assert.Contains(t, errs[0].Error(), "out of range")
	}
}

func TestVerifyBodyRejectsSentinelBorrowRegion(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	local := body.AddLocal(mir.NewTempLocal(types.Pointer(types.Named("Std::Int32"))))
	b0 := body.NewBlock()
	body.PushStatement(b0, mir.BorrowStmt(diag.NewSpan(1, 2), mir.LocalPlace(local), mir.LocalPlace(local),
		mir.BorrowShared, mir.InvalidRegion, 1))
	body.SetTerminator(b0, mir.ReturnTerm(diag.Span{}))
	errs := verify.VerifyBody(body)
	found := false
	for _, e := range errs {
		if e.HasRegion {
			found = true
		}
	}
	assert.True(t, found, "expected a sentinel-region verification error, got %v", errs)
}

func TestVerifyBodyRejectsPendingStatement(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	b0 := body.NewBlock()
	body.PushStatement(b0, mir.PendingStatement(diag.Span{}, "expr", "unsupported"))
	body.SetTerminator(b0, mir.ReturnTerm(diag.Span{}))
	errs := verify.VerifyBody(body)
	if assert.NotEmpty(t, errs) {
		assert.Contains(t, errs[0].Error(), "Pending")
	}
}

func TestVerifyBodyRejectsBlockIDIndexMismatch(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	body.NewBlock()
	body.SetTerminator(mir.BlockID(0), mir.ReturnTerm(diag.Span{}))
	body.Blocks[0].ID = 9
	errs := verify.VerifyBody(body)
	if assert.NotEmpty(t, errs) {
		assert.Contains(t, errs[0].Error(), "does not equal its index")
	}
}

func TestVerifyBodyRejectsArgCountMismatch(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	body.AddLocal(mir.NewArgLocal("x", types.Named("Std::Int32"), 0, types.ModeValue))
	body.ArgCount = 2
	b0 := body.NewBlock()
	body.SetTerminator(b0, mir.ReturnTerm(diag.Span{}))
	errs := verify.VerifyBody(body)
	if assert.NotEmpty(t, errs) {
		assert.Contains(t, errs[0].Error(), "arg_count")
	}
}

func TestVerifyBodyRejectsMissingStatementSpan(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	b0 := body.NewBlock()
	local := body.AddLocal(mir.NewTempLocal(types.Named("Std::Int32")))
	stmt := mir.Assign(diag.Span{}, mir.LocalPlace(local), mir.Use(mir.IntConst(1, types.Named("Std::Int32"))))
	stmt.HasSpan = false
	body.PushStatement(b0, stmt)
	body.SetTerminator(b0, mir.ReturnTerm(diag.Span{}))
	errs := verify.VerifyBody(body)
	found := false
	for _, e := range errs {
		if e.HasStmt {
			found = true
		}
	}
	assert.True(t, found, "expected a missing-span error, got %v", errs)
}
