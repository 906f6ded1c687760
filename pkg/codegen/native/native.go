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

// Package native implements the textual SSA backend of spec.md §4.5: a
// shape-sensitive translation of a verified mir.MirModule into an
// LLVM-flavoured textual instruction stream (getelementptr, call, br label
// %bbN, typed registers) consumed by an external low-level toolchain. The
// backend decides ABI, representation, and dispatch strategy per call, but
// implements no general optimisation (spec.md §1 non-goals).
package native

import (
	"fmt"

	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
)

// CodegenError is a backend emission failure (spec.md §7 category 3): the
// body passed verification but requires a representation this backend does
// not implement. It carries enough context to reproduce the failure.
type CodegenError struct {
	Function string
	Message  string
}

func (e CodegenError) Error() string {
	return fmt.Sprintf("codegen(%s): %s", e.Function, e.Message)
}

// regSizeLimit is the largest size, in bytes, this backend returns in
// registers; destinations larger than this are rewritten to the sret
// calling convention (spec.md §4.5 "Return-slot (sret) calls").
const regSizeLimit = 16

// Emit lowers every function in module to textual SSA, returning the
// assembled Program and any CodegenErrors encountered. Emission continues
// past a function's errors so the caller sees every problem in one pass,
// mirroring the diagnostic-aggregation convention used elsewhere in the
// pipeline (spec.md §7).
func Emit(module *mir.MirModule) (*Program, []CodegenError) {
	prog := &Program{}
	var errs []CodegenError

	for _, fn := range module.Functions {
		e := &emitter{module: module, fn: fn, layouts: module.Layouts}
		text := e.emitFunction()
		prog.Functions = append(prog.Functions, &Function{Name: fn.Name, Lines: text})
		errs = append(errs, e.errs...)
	}

	return prog, errs
}

type emitter struct {
	module  *mir.MirModule
	fn      *mir.MirFunction
	layouts *layout.Table
	lines   []string
	reg     int
	errs    []CodegenError
}

func (e *emitter) fail(format string, args ...any) {
	e.errs = append(e.errs, CodegenError{Function: e.fn.Name, Message: fmt.Sprintf(format, args...)})
}

func (e *emitter) emit(format string, args ...any) {
	e.lines = append(e.lines, fmt.Sprintf(format, args...))
}

func (e *emitter) newReg() string {
	r := fmt.Sprintf("%%v%d", e.reg)
	e.reg++
	return r
}

func (e *emitter) localName(id mir.LocalID) string {
	if e.fn.Body == nil || int(id) >= len(e.fn.Body.Locals) {
		return fmt.Sprintf("%%l%d", id)
	}
	l := e.fn.Body.Locals[id]
	switch l.Kind {
	case mir.LocalReturn:
		return "%ret.slot"
	case mir.LocalArg:
		return fmt.Sprintf("%%arg%d", l.ArgIndex)
	default:
		return fmt.Sprintf("%%l%d", id)
	}
}

func blockLabel(id mir.BlockID) string { return fmt.Sprintf("bb%d", id) }

func (e *emitter) emitFunction() []string {
	e.lines = nil
	e.reg = 0

	sig := e.fn.Signature
	conv := "ccc"
	if sig.Abi != "" {
		conv = sig.Abi
	}

	retSize, _, hasRetLayout := e.layouts.SizeAndAlignForTy(sig.Return)
	sret := hasRetLayout && retSize > regSizeLimit

	params := make([]string, 0, len(sig.Params))
	if sret {
		params = append(params, "ptr sret %ret.slot")
	}
	for i, p := range sig.Params {
		params = append(params, fmt.Sprintf("%s %%arg%d", llvmTypeName(p.Ty), i))
	}

	retTy := "void"
	if !sret {
		retTy = llvmTypeName(sig.Return)
	}

	if e.fn.Extern {
		e.emit("declare %s %s @%s(%s)", conv, retTy, e.fn.ExternSymbol, joinParams(params))
		return e.lines
	}

	e.emit("define %s %s @%s(%s) {", conv, retTy, e.fn.Name, joinParams(params))
	if e.fn.Body != nil {
		for i := range e.fn.Body.Blocks {
			e.emitBlock(mir.BlockID(i), &e.fn.Body.Blocks[i], sret)
		}
	}
	e.emit("}")
	return e.lines
}

func joinParams(params []string) string {
	out := ""
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func (e *emitter) emitBlock(id mir.BlockID, blk *mir.BasicBlock, sret bool) {
	e.emit("%s:", blockLabel(id))
	for i := range blk.Statements {
		e.emitStatement(&blk.Statements[i])
	}
	if !blk.HasTerm {
		e.fail("block %d has no terminator", id)
		return
	}
	e.emitTerminator(&blk.Terminator, sret)
}
