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
	"github.com/chic-lang/chic-core/pkg/mir"
)

// caseBlock records where one switch arm's body starts, so `goto case`
// within the same switch can resolve its target (spec.md §4.3.4).
type caseBlock struct {
	guarded bool
	block   mir.BlockID
}

// lowerSwitch lowers `switch` to a single Match terminator with one
// MatchArm per case, tried in source order (spec.md §4.3.4). Relational,
// binary, not, list and type-check patterns have no structural MIR
// Pattern of their own; lowerMatchArmPattern reduces those to a Wildcard
// arm guarded by a synthesized boolean expression instead, which is the
// guard-chain fallback spec.md reserves for exactly those pattern kinds.
func (b *Builder) lowerSwitch(s *ast.Stmt, span diag.Span) {
	subjectPlace := b.LowerPlace(s.Subject)
	subject := patternSubject{place: subjectPlace, operand: mir.Copy(subjectPlace)}

	matchBlock := b.current
	exitBlock := b.NewBlock(span)
	prevCaseBlocks := b.caseBlocks
	prevCaseValues := b.caseLiteralValues
	b.caseBlocks = map[int64]caseBlock{}
	b.caseLiteralValues = nil

	arms := make([]mir.MatchArm, len(s.Arms))
	bodyBlocks := make([]mir.BlockID, len(s.Arms))

	b.SwitchToBlock(matchBlock)
	for i := range s.Arms {
		arm := &s.Arms[i]
		bodyBlock := b.NewBlock(span)
		bodyBlocks[i] = bodyBlock

		pat, bindings, guard, hasGuard := b.lowerMatchArmPattern(span, subject, &arm.Pattern)
		if arm.Guard != nil {
			whenCond := b.LowerOperand(arm.Guard)
			guard, hasGuard = b.conjoinGuard(span, guard, hasGuard, whenCond)
		}

		armMir := mir.MatchArm{Pattern: pat, Bindings: bindings, Target: bodyBlock}
		if hasGuard {
			armMir.Guard = &guard
		}
		arms[i] = armMir

		if arm.Pattern.Kind == ast.PatLiteral && arm.Pattern.Literal.LitKind == ast.LitInt {
			b.caseBlocks[arm.Pattern.Literal.Int] = caseBlock{guarded: arm.Guard != nil, block: bodyBlock}
			b.caseLiteralValues = append(b.caseLiteralValues, arm.Pattern.Literal.Int)
		}
	}

	b.SwitchToBlock(matchBlock)
	b.SetTerminator(mir.MatchTerm(span, subject.operand, arms, exitBlock, true))

	for i := range s.Arms {
		b.SwitchToBlock(bodyBlocks[i])
		b.LowerBlock(s.Arms[i].Body)
		b.EnsureActiveBlock(span)
		if !b.body.Block(b.current).HasTerm {
			b.SetTerminator(mir.GotoTerm(span, exitBlock))
		}
	}

	b.caseBlocks = prevCaseBlocks
	b.caseLiteralValues = prevCaseValues
	b.SwitchToBlock(exitBlock)
}

// lowerGotoCase resolves `goto case V` to the matching literal arm's body
// block within the innermost enclosing switch. A guarded target, or an
// unresolvable literal, is a diagnostic rather than a silent fallthrough
// (spec.md §4.3.4).
func (b *Builder) lowerGotoCase(s *ast.Stmt, span diag.Span) {
	lit := b.LowerOperand(s.CaseValue)
	if lit.Kind != mir.OperandConst || lit.ConstKind != mir.ConstInt {
		b.Bag.Addf(diag.CodeUnknownLabel, "goto case target must be a literal pattern value")
		return
	}

	target, ok := b.caseBlocks[lit.IntVal]
	if !ok {
		b.Bag.Addf(diag.CodeUnknownLabel, "goto case %d does not match any case in the enclosing switch", lit.IntVal)
		return
	}
	if target.guarded {
		b.Bag.Addf(diag.CodeGotoCaseGuarded, "goto case %d targets a case guarded by a `when` clause", lit.IntVal)
		return
	}

	b.SetTerminator(mir.GotoTerm(span, target.block))
}
