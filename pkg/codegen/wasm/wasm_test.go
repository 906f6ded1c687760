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
package wasm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chic-lang/chic-core/pkg/codegen/wasm"
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/types"
)

func i32Ty() types.Ty { return types.Named("Std::Int32") }

func constFn(name string, ret int64) *mir.MirFunction {
	body := mir.NewBody(mir.NewReturnLocal(i32Ty()))
	b0 := body.NewBlock()
	tmp := body.AddLocal(mir.NewTempLocal(i32Ty()))
	body.PushStatement(b0, mir.Assign(diag.NewSpan(1, 2), mir.LocalPlace(tmp), mir.Use(mir.IntConst(ret, i32Ty()))))
	body.PushStatement(b0, mir.Assign(diag.NewSpan(2, 3), mir.LocalPlace(mir.LocalID(0)), mir.Use(mir.Copy(mir.LocalPlace(tmp)))))
	body.SetTerminator(b0, mir.ReturnTerm(diag.Span{}))
	return &mir.MirFunction{Name: name, Kind: mir.FnFunction, Signature: types.FnSignature{Return: i32Ty()}, Body: body}
}

// TestEmitProducesWellFormedModuleHeader confirms Encode starts with the
// WASM magic number and version, and that a defined function is exported.
func TestEmitProducesWellFormedModuleHeader(t *testing.T) {
	table := layout.NewTable(diag.NewBag())
	module := mir.NewModule(table)
	module.AddFunction(constFn("Chic::answer", 42))

	prog, errs := wasm.Emit(module)
	assert.Empty(t, errs)
	require.Len(t, prog.Exports, 1)
	assert.Equal(t, "Chic::answer", prog.Exports[0].Name)

	blob := prog.Encode()
	require.True(t, len(blob) >= 8)
	assert.Equal(t, []byte{0x00, 0x61, 0x73, 0x6d}, blob[:4])
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, blob[4:8])
}

// TestEmitGotoUsesFlatDispatchLoop confirms a two-block body with a Goto
// lowers through the flat-dispatch-loop technique: one loop, nested
// blocks, and a br_table on the dispatch local.
func TestEmitGotoUsesFlatDispatchLoop(t *testing.T) {
	table := layout.NewTable(diag.NewBag())
	module := mir.NewModule(table)

	body := mir.NewBody(mir.NewReturnLocal(types.Unit()))
	b0 := body.NewBlock()
	b1 := body.NewBlock()
	body.SetTerminator(b0, mir.GotoTerm(diag.Span{}, b1))
	body.SetTerminator(b1, mir.ReturnTerm(diag.Span{}))
	fn := &mir.MirFunction{Name: "Chic::jump", Kind: mir.FnFunction, Signature: types.FnSignature{Return: types.Unit()}, Body: body}
	module.AddFunction(fn)

	prog, errs := wasm.Emit(module)
	assert.Empty(t, errs)
	require.Len(t, prog.Code, 1)
	code := prog.Code[0].Body

	assert.Contains(t, code, byte(0x03), "expected a loop opcode (0x03) in the instruction stream")
	assert.Contains(t, code, byte(0x0e), "expected a br_table opcode (0x0e) in the instruction stream")
}

// TestEmitDirectCallResolvesCalleeIndex confirms a call to a named
// sibling function lowers to a `call` instruction against that function's
// resolved module index, not a placeholder.
func TestEmitDirectCallResolvesCalleeIndex(t *testing.T) {
	table := layout.NewTable(diag.NewBag())
	module := mir.NewModule(table)
	module.AddFunction(constFn("Chic::callee", 7))

	callerBody := mir.NewBody(mir.NewReturnLocal(i32Ty()))
	tmp := callerBody.AddLocal(mir.NewTempLocal(i32Ty()))
	cb0 := callerBody.NewBlock()
	callerBody.SetTerminator(cb0, mir.CallTerm(diag.Span{}, mir.SymbolConst("Chic::callee", types.Fn(types.FnSignature{})),
		nil, nil, mir.LocalPlace(tmp), true, mir.BlockID(1), 0, false, mir.CallDispatch{}, false))
	callerBody.NewBlock()
	callerBody.SetTerminator(mir.BlockID(1), mir.ReturnTerm(diag.Span{}))
	caller := &mir.MirFunction{Name: "Chic::caller", Kind: mir.FnFunction, Signature: types.FnSignature{Return: i32Ty()}, Body: callerBody}
	module.AddFunction(caller)

	prog, errs := wasm.Emit(module)
	assert.Empty(t, errs)
	require.Len(t, prog.Code, 2)

	// The callee is the first defined function, so its index is the size
	// of the import space.
	calleeIx := byte(len(prog.Imports))
	callerCode := prog.Code[1].Body
	assert.True(t, bytes.Contains(callerCode, []byte{0x10, calleeIx}), "expected `call %d` in %v", calleeIx, callerCode)
}

// TestEmitLargeReturnUsesSretParam confirms a return type larger than the
// register-size limit is rewritten to the sret calling convention: the
// function's sole WASM param is an i32 pointer and it returns nothing.
func TestEmitLargeReturnUsesSretParam(t *testing.T) {
	table := layout.NewTable(diag.NewBag())
	table.AddStruct(layout.StructDecl{
		Name: "Chic::Big",
		Fields: []layout.FieldDecl{
			{Name: "a", Ty: types.Named("Std::Int64")},
			{Name: "b", Ty: types.Named("Std::Int64")},
			{Name: "c", Ty: types.Named("Std::Int64")},
		},
	})
	module := mir.NewModule(table)

	body := mir.NewBody(mir.NewReturnLocal(types.Named("Chic::Big")))
	b0 := body.NewBlock()
	body.SetTerminator(b0, mir.ReturnTerm(diag.Span{}))
	fn := &mir.MirFunction{Name: "Chic::make_big", Kind: mir.FnFunction, Signature: types.FnSignature{Return: types.Named("Chic::Big")}, Body: body}
	module.AddFunction(fn)

	prog, errs := wasm.Emit(module)
	assert.Empty(t, errs)
	require.Len(t, prog.FunctionTypes, 1)
	ft := prog.Types[prog.FunctionTypes[0]]
	assert.Equal(t, []wasm.ValueType{wasm.ValueTypeI32}, ft.Params)
	assert.Empty(t, ft.Results)
}
