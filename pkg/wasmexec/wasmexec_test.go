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
package wasmexec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chic-lang/chic-core/pkg/codegen/wasm"
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/types"
	"github.com/chic-lang/chic-core/pkg/wasmexec"
)

func i32Ty() types.Ty { return types.Named("Std::Int32") }

// constFn builds a function that returns a fixed i32 literal, the same
// shape pkg/codegen/wasm's own tests use.
func constFn(name string, ret int64) *mir.MirFunction {
	body := mir.NewBody(mir.NewReturnLocal(i32Ty()))
	b0 := body.NewBlock()
	tmp := body.AddLocal(mir.NewTempLocal(i32Ty()))
	body.PushStatement(b0, mir.Assign(diag.NewSpan(1, 2), mir.LocalPlace(tmp), mir.Use(mir.IntConst(ret, i32Ty()))))
	body.PushStatement(b0, mir.Assign(diag.NewSpan(2, 3), mir.LocalPlace(mir.LocalID(0)), mir.Use(mir.Copy(mir.LocalPlace(tmp)))))
	body.SetTerminator(b0, mir.ReturnTerm(diag.Span{}))
	return &mir.MirFunction{Name: name, Kind: mir.FnFunction, Signature: types.FnSignature{Return: i32Ty()}, Body: body}
}

// divFn builds a function of one argument (the divisor) that returns
// 100 / arg, so a zero argument exercises the interpreter's
// division-by-zero trap.
func divFn(name string) *mir.MirFunction {
	body := mir.NewBody(mir.NewReturnLocal(i32Ty()))
	arg := body.AddLocal(mir.NewArgLocal("divisor", i32Ty(), 0, types.ModeValue))
	b0 := body.NewBlock()
	tmp := body.AddLocal(mir.NewTempLocal(i32Ty()))
	body.PushStatement(b0, mir.Assign(diag.NewSpan(1, 2), mir.LocalPlace(tmp),
		mir.Binary(mir.BinDiv, mir.IntConst(100, i32Ty()), mir.Copy(mir.LocalPlace(arg)))))
	body.PushStatement(b0, mir.Assign(diag.NewSpan(2, 3), mir.LocalPlace(mir.LocalID(0)), mir.Use(mir.Copy(mir.LocalPlace(tmp)))))
	body.SetTerminator(b0, mir.ReturnTerm(diag.Span{}))
	return &mir.MirFunction{Name: name, Kind: mir.FnFunction, Signature: types.FnSignature{Params: []types.Param{{Name: "divisor", Ty: i32Ty(), Mode: types.ModeValue}}, Return: i32Ty()}, Body: body}
}

func encodeModule(t *testing.T, fns ...*mir.MirFunction) []byte {
	t.Helper()
	table := layout.NewTable(diag.NewBag())
	module := mir.NewModule(table)
	for _, fn := range fns {
		module.AddFunction(fn)
	}
	prog, errs := wasm.Emit(module)
	require.Empty(t, errs)
	return prog.Encode()
}

func TestExecuteWasmReturnsEmittedConstant(t *testing.T) {
	blob := encodeModule(t, constFn("Chic::answer", 42))

	res, err := wasmexec.ExecuteWasm(blob, "Chic::answer", nil)
	require.NoError(t, err)
	require.False(t, res.Trapped, res.Message)
	require.Len(t, res.Results, 1)
	assert.Equal(t, uint64(42), res.Results[0])
}

func TestExecuteWasmTrapsOnDivisionByZero(t *testing.T) {
	blob := encodeModule(t, divFn("Chic::divBy"))

	res, err := wasmexec.ExecuteWasm(blob, "Chic::divBy", []uint64{0})
	require.NoError(t, err)
	require.True(t, res.Trapped)
	assert.Equal(t, wasmexec.ExitCodeAbort, res.ExitCode)
	assert.Contains(t, res.Message, "division by zero")
}

func TestExecuteWasmDividesCleanly(t *testing.T) {
	blob := encodeModule(t, divFn("Chic::divBy"))

	res, err := wasmexec.ExecuteWasm(blob, "Chic::divBy", []uint64{4})
	require.NoError(t, err)
	require.False(t, res.Trapped, res.Message)
	require.Len(t, res.Results, 1)
	assert.Equal(t, uint64(25), res.Results[0])
}

func TestExecuteWasmRejectsUnknownEntry(t *testing.T) {
	blob := encodeModule(t, constFn("Chic::answer", 1))

	_, err := wasmexec.ExecuteWasm(blob, "Chic::missing", nil)
	assert.Error(t, err)
}

func TestExecuteWasmWithOptionsEnforcesStepLimit(t *testing.T) {
	blob := encodeModule(t, constFn("Chic::answer", 7))

	res, err := wasmexec.ExecuteWasmWithOptions(blob, "Chic::answer", nil, wasmexec.ExecOptions{StepLimit: 1})
	require.NoError(t, err)
	require.True(t, res.Trapped)
	assert.Equal(t, wasmexec.ExitCodeAbort, res.ExitCode)
	assert.Contains(t, res.Message, "step limit")
}

func TestExecuteWasmWithOptionsEnforcesWallClock(t *testing.T) {
	blob := encodeModule(t, constFn("Chic::answer", 7))

	res, err := wasmexec.ExecuteWasmWithOptions(blob, "Chic::answer", nil, wasmexec.ExecOptions{WallClockLimit: time.Nanosecond})
	require.NoError(t, err)
	require.True(t, res.Trapped)
	assert.Equal(t, wasmexec.ExitCodeAbort, res.ExitCode)
}

// TestDecodeRoundTripsFunctionTable confirms module.go's Elements/TableMin
// fix: a module with more than one defined function must decode with a
// populated element segment, since any later call_indirect target depends
// on it.
func TestDecodeRoundTripsFunctionTable(t *testing.T) {
	blob := encodeModule(t, constFn("Chic::a", 1), constFn("Chic::b", 2))

	module, err := wasmexec.Decode(blob)
	require.NoError(t, err)
	require.NotEmpty(t, module.Elements)
	assert.Equal(t, uint32(len(module.Imports)+2), module.TableMin)
	assert.Len(t, module.Elements[0].FuncIndices, 2)
}
