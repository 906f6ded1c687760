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
package native_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chic-lang/chic-core/pkg/codegen/native"
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/types"
)

func i32Ty() types.Ty { return types.Named("Std::Int32") }

func callee(name string, params int) *mir.MirFunction {
	sig := types.FnSignature{Return: i32Ty()}
	for i := 0; i < params; i++ {
		sig.Params = append(sig.Params, types.Param{Name: "p", Ty: i32Ty(), Mode: types.ModeValue})
	}
	body := mir.NewBody(mir.NewReturnLocal(i32Ty()))
	b0 := body.NewBlock()
	body.SetTerminator(b0, mir.ReturnTerm(diag.Span{}))
	return &mir.MirFunction{Name: name, Kind: mir.FnFunction, Signature: sig, Body: body}
}

// TestEmitDirectCallArityMismatchMatchesSpecWording asserts the exact
// error string spec.md §8 scenario 8 mandates for a direct call whose
// argument count does not match the callee's declared arity.
func TestEmitDirectCallArityMismatchMatchesSpecWording(t *testing.T) {
	table := layout.NewTable(diag.NewBag())
	module := mir.NewModule(table)

	target := callee("Chic::add_one", 1)
	module.AddFunction(target)

	caller := callee("Chic::main", 0)
	tmp := caller.Body.AddLocal(mir.NewTempLocal(i32Ty()))
	caller.Body.SetTerminator(mir.BlockID(0), mir.CallTerm(diag.Span{}, mir.SymbolConst("Chic::add_one", types.Fn(types.FnSignature{})),
		nil, nil, mir.LocalPlace(tmp), true, mir.BlockID(1), 0, false, mir.CallDispatch{}, false))
	caller.Body.NewBlock()
	caller.Body.SetTerminator(mir.BlockID(1), mir.ReturnTerm(diag.Span{}))
	module.AddFunction(caller)

	_, errs := native.Emit(module)
	require.NotEmpty(t, errs)

	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "direct call expects 1 arguments but 0 were provided") {
			found = true
		}
	}
	assert.True(t, found, "expected the spec-mandated arity error, got %v", errs)
}

// TestEmitRejectsNonVoidDestinationOnVoidCall covers the other half of
// spec.md §4.5's void/non-void mismatch rule.
func TestEmitRejectsNonVoidDestinationOnVoidCall(t *testing.T) {
	table := layout.NewTable(diag.NewBag())
	module := mir.NewModule(table)

	voidFn := callee("Chic::log", 0)
	voidFn.Signature.Return = types.Unit()
	module.AddFunction(voidFn)

	caller := callee("Chic::main", 0)
	tmp := caller.Body.AddLocal(mir.NewTempLocal(i32Ty()))
	caller.Body.NewBlock()
	caller.Body.SetTerminator(mir.BlockID(0), mir.CallTerm(diag.Span{}, mir.SymbolConst("Chic::log", types.Fn(types.FnSignature{})),
		nil, nil, mir.LocalPlace(tmp), true, mir.BlockID(1), 0, false, mir.CallDispatch{}, false))
	caller.Body.SetTerminator(mir.BlockID(1), mir.ReturnTerm(diag.Span{}))
	module.AddFunction(caller)

	_, errs := native.Emit(module)
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "non-void destination supplied for a void call") {
			found = true
		}
	}
	assert.True(t, found, "expected the void-mismatch error, got %v", errs)
}

// TestEmitRewritesLargeReturnToSret confirms a return type larger than the
// register-size limit is lowered to the sret calling convention
// (spec.md §4.5 "Return-slot (sret) calls").
func TestEmitRewritesLargeReturnToSret(t *testing.T) {
	table := layout.NewTable(diag.NewBag())
	table.AddStruct(layout.StructDecl{
		Name: "Chic::BigStruct",
		Fields: []layout.FieldDecl{
			{Name: "a", Ty: types.Named("Std::Int64")},
			{Name: "b", Ty: types.Named("Std::Int64")},
			{Name: "c", Ty: types.Named("Std::Int64")},
		},
	})
	module := mir.NewModule(table)

	fn := callee("Chic::make_big", 0)
	fn.Signature.Return = types.Named("Chic::BigStruct")
	module.AddFunction(fn)

	prog, errs := native.Emit(module)
	assert.Empty(t, errs)
	require.Len(t, prog.Functions, 1)
	text := prog.Functions[0].String()
	assert.Contains(t, text, "ptr sret %ret.slot")
	assert.Contains(t, text, "ret void ; sret")
}

// TestEmitIndirectCallBitcastsCallee confirms a non-symbol callee operand
// lowers through a function-pointer bitcast rather than a direct call.
func TestEmitIndirectCallBitcastsCallee(t *testing.T) {
	table := layout.NewTable(diag.NewBag())
	module := mir.NewModule(table)

	caller := callee("Chic::apply", 0)
	fnLocal := caller.Body.AddLocal(mir.NewTempLocal(types.Fn(types.FnSignature{Return: i32Ty()})))
	tmp := caller.Body.AddLocal(mir.NewTempLocal(i32Ty()))
	caller.Body.NewBlock()
	caller.Body.SetTerminator(mir.BlockID(0), mir.CallTerm(diag.Span{}, mir.Copy(mir.LocalPlace(fnLocal)),
		nil, nil, mir.LocalPlace(tmp), true, mir.BlockID(1), 0, false, mir.CallDispatch{}, false))
	caller.Body.SetTerminator(mir.BlockID(1), mir.ReturnTerm(diag.Span{}))
	module.AddFunction(caller)

	prog, errs := native.Emit(module)
	assert.Empty(t, errs)
	require.Len(t, prog.Functions, 1)
	text := prog.Functions[0].String()
	assert.Contains(t, text, "bitcast")
}
