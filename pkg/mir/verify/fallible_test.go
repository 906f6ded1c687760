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
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/mir/verify"
	"github.com/chic-lang/chic-core/pkg/types"
)

const resultTyName = "Std::Result"

func fallibleLayout() *layout.Table {
	t := layout.NewTable(diag.NewBag())
	t.RegisterFallible(resultTyName)
	return t
}

func resultTy() types.Ty { return types.Named(resultTyName) }

// TestCheckFallibleValuesWarnsOnDropWithoutHandling exercises spec.md §8
// scenario 5: a call result is materialized into a compiler temporary and
// immediately let go via StorageDead without ever being handled.
func TestCheckFallibleValuesWarnsOnDropWithoutHandling(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	tmp := body.AddLocal(mir.NewTempLocal(resultTy()))
	b0 := body.NewBlock()
	produced := diag.NewSpan(10, 20)
	body.SetTerminator(b0, mir.CallTerm(produced, mir.SymbolConst("Std::Io::try_read", types.Fn(types.FnSignature{})),
		nil, nil, mir.LocalPlace(tmp), true, mir.BlockID(1), 0, false, mir.CallDispatch{}, false))

	b1 := body.NewBlock()
	body.PushStatement(b1, mir.StorageDead(diag.NewSpan(21, 22), tmp))
	body.SetTerminator(b1, mir.ReturnTerm(diag.Span{}))

	fn := &mir.MirFunction{Kind: mir.FnFunction, Body: body}
	bag := diag.NewBag()
	verify.CheckFallibleValues(fn, fallibleLayout(), bag)

	require.Len(t, bag.Items(), 1)
	d := bag.Items()[0]
	assert.Equal(t, diag.CodeFallibleDropped, d.Code)
	if assert.Len(t, d.Notes, 1) {
		assert.Equal(t, "value produced here", d.Notes[0].Message)
	}
}

// TestCheckFallibleValuesRejectsEscapeAtReturn exercises spec.md §8
// scenario 5's sibling: a fallible temporary still set when control flow
// exits the function via Return produces EH0002, not EH0001 — and unlike
// EH0001 it is an Error, so the compile fails.
func TestCheckFallibleValuesRejectsEscapeAtReturn(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	tmp := body.AddLocal(mir.NewTempLocal(resultTy()))
	b0 := body.NewBlock()
	produced := diag.NewSpan(5, 6)
	body.SetTerminator(b0, mir.CallTerm(produced, mir.SymbolConst("Std::Io::try_read", types.Fn(types.FnSignature{})),
		nil, nil, mir.LocalPlace(tmp), true, mir.BlockID(1), 0, false, mir.CallDispatch{}, false))

	b1 := body.NewBlock()
	body.SetTerminator(b1, mir.ReturnTerm(diag.NewSpan(7, 8)))

	fn := &mir.MirFunction{Kind: mir.FnFunction, Body: body}
	bag := diag.NewBag()
	verify.CheckFallibleValues(fn, fallibleLayout(), bag)

	require.Len(t, bag.Items(), 1)
	assert.Equal(t, diag.CodeFallibleEscapes, bag.Items()[0].Code)
	assert.Equal(t, diag.Error, bag.Items()[0].Severity)
	assert.True(t, bag.HasErrors())
}

// TestCheckFallibleValuesAcceptsHandledValue confirms that marking a
// fallible temporary as handled (the `?` operator / match-on-Result lowering)
// silences both diagnostics.
func TestCheckFallibleValuesAcceptsHandledValue(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	tmp := body.AddLocal(mir.NewTempLocal(resultTy()))
	b0 := body.NewBlock()
	body.SetTerminator(b0, mir.CallTerm(diag.NewSpan(1, 2), mir.SymbolConst("Std::Io::try_read", types.Fn(types.FnSignature{})),
		nil, nil, mir.LocalPlace(tmp), true, mir.BlockID(1), 0, false, mir.CallDispatch{}, false))

	b1 := body.NewBlock()
	body.PushStatement(b1, mir.MarkFallibleHandled(diag.NewSpan(3, 4), tmp))
	body.PushStatement(b1, mir.StorageDead(diag.NewSpan(5, 6), tmp))
	body.SetTerminator(b1, mir.ReturnTerm(diag.Span{}))

	fn := &mir.MirFunction{Kind: mir.FnFunction, Body: body}
	bag := diag.NewBag()
	verify.CheckFallibleValues(fn, fallibleLayout(), bag)

	assert.Empty(t, bag.Items())
}

// TestCheckFallibleValuesSkipsExternFunctions confirms the pass never runs
// against an extern-ABI function (spec.md §4.4.2).
func TestCheckFallibleValuesSkipsExternFunctions(t *testing.T) {
	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	tmp := body.AddLocal(mir.NewTempLocal(resultTy()))
	b0 := body.NewBlock()
	body.SetTerminator(b0, mir.CallTerm(diag.NewSpan(1, 2), mir.SymbolConst("Std::Io::try_read", types.Fn(types.FnSignature{})),
		nil, nil, mir.LocalPlace(tmp), true, mir.BlockID(1), 0, false, mir.CallDispatch{}, false))
	b1 := body.NewBlock()
	body.PushStatement(b1, mir.StorageDead(diag.NewSpan(3, 4), tmp))
	body.SetTerminator(b1, mir.ReturnTerm(diag.Span{}))

	fn := &mir.MirFunction{Kind: mir.FnFunction, Extern: true, Body: body}
	bag := diag.NewBag()
	verify.CheckFallibleValues(fn, fallibleLayout(), bag)

	assert.Empty(t, bag.Items())
}
