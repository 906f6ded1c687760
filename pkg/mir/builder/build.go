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
package builder

import (
	"github.com/chic-lang/chic-core/pkg/ast"
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/symtab"
	"github.com/chic-lang/chic-core/pkg/types"
)

// Result is what lowering one function produces besides the diagnostics
// already collected in the shared Bag: the function itself, the borrow
// escape constraints a downstream region checker consumes, and the
// dispatch specializations the backends may exploit (spec.md §4.3 "Public
// contract").
type Result struct {
	Function        *mir.MirFunction
	Constraints     []mir.BorrowEscapeConstraint
	Specializations []mir.Specialization
}

// Build lowers one function declaration end to end: constructs a Builder,
// lowers the body, runs the DM0001 unused-vectorize check, and finalizes
// the block graph (spec.md §4.3). Extern functions skip body lowering
// entirely; their MirFunction carries no body.
func Build(bag *diag.Bag, symbols *symtab.Index, layouts *layout.Table, decl ast.FunctionDecl) Result {
	fn := &mir.MirFunction{
		Name:         decl.Name,
		Kind:         functionKindOf(decl.Containing),
		Signature:    decl.Signature,
		Async:        decl.IsAsync,
		Extern:       decl.Extern,
		ExternSymbol: decl.Name,
		OwnerType:    decl.ContainingType,
	}

	if decl.Extern {
		return Result{Function: fn}
	}

	b := New(bag, symbols, layouts, decl)
	entry := b.NewBlock(toDiagSpan(decl.Span))
	b.SwitchToBlock(entry)
	b.LowerBlock(decl.Body)
	b.CheckDecimalVectorizeUnused(decl.Name)
	fn.Body = b.Finalize(decl.Signature.Return)
	if decl.IsAsync {
		attachAsyncDescriptor(fn.Body)
	}
	return Result{
		Function:        fn,
		Constraints:     b.Constraints(),
		Specializations: b.Specializations(),
	}
}

// attachAsyncDescriptor numbers the body's suspension points and records
// them on an AsyncDescriptor: state 0 is initial entry, state i+1 resumes
// at the i-th Yield/Await's resume block in block order. The state
// dispatch local is appended to the body so the backends' state-machine
// lowering has a slot to load the saved state from (spec.md §4.6.2, §9
// "Async control flow").
func attachAsyncDescriptor(body *mir.MirBody) {
	var resumes []mir.BlockID
	for i := range body.Blocks {
		t := body.Blocks[i].Terminator
		if !body.Blocks[i].HasTerm {
			continue
		}
		switch t.Kind {
		case mir.TermYield:
			resumes = append(resumes, t.ResumeBlock)
		case mir.TermAwait:
			resumes = append(resumes, t.AwaitResume)
		}
	}
	stateLocal := body.AddLocal(mir.NewTempLocal(types.Named("Std::Int32")))
	body.Async = &mir.AsyncDescriptor{StateLocal: stateLocal, ResumeBlocks: resumes}
}

func functionKindOf(containing ast.ContainingKind) mir.FunctionKind {
	switch containing {
	case ast.ContainingMethod:
		return mir.FnMethod
	case ast.ContainingConstructor:
		return mir.FnConstructor
	default:
		return mir.FnFunction
	}
}
