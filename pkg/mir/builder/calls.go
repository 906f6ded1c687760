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
	"strings"

	"github.com/chic-lang/chic-core/pkg/ast"
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/symtab"
	"github.com/chic-lang/chic-core/pkg/types"
)

// decimalIntrinsicPrefix is the symbol namespace lowered to a
// DecimalIntrinsic rvalue instead of a call (spec.md §4.3.6).
const decimalIntrinsicPrefix = "Std::Numeric::Decimal::Intrinsics::"

// LowerCallExpr lowers a call expression to a Call terminator, switches to
// its continuation block, and returns the result (spec.md §4.3.5). Calls
// are terminators, not statements: evaluating one always ends the current
// block.
func (b *Builder) LowerCallExpr(e *ast.Expr, span diag.Span) mir.Operand {
	if name, withOptions, ok := decimalIntrinsicName(e.Callee); ok {
		if rv, ok := b.lowerDecimalIntrinsicCall(name, withOptions, e.Args, span); ok {
			return b.materialize(rv, types.Named("Std::Numeric::Decimal"), span)
		}
	}

	fn, dispatch, hasDispatch, fqn := b.resolveCallee(e.Callee)
	args := make([]mir.Operand, 0, len(e.Args)+1)
	modes := make([]mir.ArgMode, 0, len(e.Args)+1)
	for _, a := range e.Args {
		args = append(args, b.LowerOperand(&a.Value))
		modes = append(modes, argModeFromParam(a.Mode))
	}
	args, modes = b.appendDefaultArguments(fqn, args, modes)
	if recv, ok := b.callReceiver(e.Callee); ok {
		args = append([]mir.Operand{recv}, args...)
		modes = append([]mir.ArgMode{mir.ArgRef}, modes...)
	}

	destTy := types.Named("Std::Object")
	if e.HasTy {
		destTy = e.Ty
	}
	dest := b.CreateTemp(destTy)
	target := b.NewBlock(span)

	b.SetTerminator(mir.CallTerm(span, fn, args, modes, mir.LocalPlace(dest), true, target, 0, false, dispatch, hasDispatch))
	b.SwitchToBlock(target)
	return mir.Copy(mir.LocalPlace(dest))
}

// emitDirectReceiverCall lowers a synthesized instance-method call (used by
// the foreach enumerator-protocol lowering for GetEnumerator/MoveNext/
// Current, spec.md §4.3.4) directly to a Call terminator, without going
// through an ast.Expr, since these calls have no surface syntax of their
// own. The receiver is passed as arg 0 with Ref mode, mirroring the
// setter-call shape in lowerPropertyTarget.
func (b *Builder) emitDirectReceiverCall(span diag.Span, symbolName string, receiver mir.Operand, extraArgs []mir.Operand, dest mir.Place) {
	args := make([]mir.Operand, 0, 1+len(extraArgs))
	modes := make([]mir.ArgMode, 0, 1+len(extraArgs))
	args = append(args, receiver)
	modes = append(modes, mir.ArgRef)
	for _, a := range extraArgs {
		args = append(args, a)
		modes = append(modes, mir.ArgByValue)
	}

	target := b.NewBlock(span)
	b.SetTerminator(mir.CallTerm(span, mir.SymbolConst(symbolName, types.Fn(types.FnSignature{})),
		args, modes, dest, true, target, 0, false, mir.CallDispatch{}, false))
	b.SwitchToBlock(target)
}

// emitStaticCall lowers a synthesized static call (no receiver argument):
// used by the static-property accessor paths, where the callee is
// addressed by the owning type name alone.
func (b *Builder) emitStaticCall(span diag.Span, symbolName string, args []mir.Operand, dest mir.Place) {
	modes := make([]mir.ArgMode, len(args))
	for i := range modes {
		modes[i] = mir.ArgByValue
	}
	target := b.NewBlock(span)
	b.SetTerminator(mir.CallTerm(span, mir.SymbolConst(symbolName, types.Fn(types.FnSignature{})),
		args, modes, dest, true, target, 0, false, mir.CallDispatch{}, false))
	b.SwitchToBlock(target)
}

// resolveCallee determines a call's function operand, dispatch strategy,
// and resolved fully qualified name. Member calls resolve against the
// symbol index: a trait-object receiver records a TraitObject dispatch
// hint (with a direct impl type when the trait has exactly one known
// implementer), a `base.Method()` call records a Virtual dispatch
// redirected to the base class's vtable, a virtual method records a
// Virtual dispatch with its stable slot, and everything else is a direct
// (None) dispatch (spec.md §4.3.5).
func (b *Builder) resolveCallee(callee *ast.Expr) (mir.Operand, mir.CallDispatch, bool, string) {
	if callee == nil {
		return mir.PendingOperand(), mir.CallDispatch{}, false, ""
	}
	if callee.Kind != ast.ExprMember {
		return mir.SymbolConst(callee.Name, types.Fn(types.FnSignature{})), mir.CallDispatch{}, false, callee.Name
	}

	if callee.Base != nil && callee.Base.HasTy && callee.Base.Ty.Kind() == types.KindTraitObject {
		return b.resolveTraitObjectCallee(callee)
	}

	ownerType := calleeOwnerType(callee.Base)
	fqn := ownerType + "::" + callee.Name

	if callee.Base != nil && callee.Base.Kind == ast.ExprBase {
		return b.resolveBaseCallee(callee, fqn)
	}

	method, found := b.lookupMethod(ownerType, callee.Name)
	if !found || !method.Virtual {
		return mir.SymbolConst(fqn, types.Fn(types.FnSignature{})), mir.CallDispatch{}, false, fqn
	}

	dispatch := mir.CallDispatch{
		Kind:          mir.DispatchVirtual,
		SlotIndex:     method.SlotIndex,
		ReceiverIndex: 0,
	}
	return mir.SymbolConst(fqn, types.Fn(types.FnSignature{})), dispatch, true, fqn
}

// resolveTraitObjectCallee builds the TraitObject dispatch hint for a call
// whose receiver's static type is a trait object. When the symbol index
// knows exactly one implementer, the hint carries that impl type and a
// Specialization is recorded so the backends may lower the call direct
// (spec.md §4.3.5, §4.5, §4.6).
func (b *Builder) resolveTraitObjectCallee(callee *ast.Expr) (mir.Operand, mir.CallDispatch, bool, string) {
	traitName := callee.Base.Ty.Name()
	fqn := traitName + "::" + callee.Name

	dispatch := mir.CallDispatch{
		Kind:          mir.DispatchTraitObject,
		TraitName:     traitName,
		Method:        callee.Name,
		ReceiverIndex: 0,
	}
	if m, ok := b.lookupMethod(traitName, callee.Name); ok {
		dispatch.SlotIndex = m.SlotIndex
	}
	if b.Symbols != nil {
		if impl, ok := b.Symbols.SoleImplementer(traitName); ok {
			dispatch.HasImplType = true
			dispatch.ImplType = impl
			b.specializations = append(b.specializations, mir.Specialization{
				TraitName: traitName,
				Method:    callee.Name,
				ImplType:  impl,
				Symbol:    impl + "::" + callee.Name,
			})
		}
	}
	return mir.SymbolConst(fqn, types.Fn(types.FnSignature{})), dispatch, true, fqn
}

// resolveBaseCallee lowers `base.Method()`: always a Virtual dispatch,
// with the vtable lookup redirected to the containing type's base class
// instead of the dynamic receiver (spec.md §4.6 "base_owner").
func (b *Builder) resolveBaseCallee(callee *ast.Expr, fqn string) (mir.Operand, mir.CallDispatch, bool, string) {
	baseOwner := ""
	if b.Symbols != nil {
		if d, ok := b.Symbols.Type(b.containingType); ok {
			baseOwner = d.BaseClass
		}
	}
	dispatch := mir.CallDispatch{
		Kind:          mir.DispatchVirtual,
		ReceiverIndex: 0,
		HasBaseOwner:  true,
		BaseOwner:     baseOwner,
	}
	if baseOwner != "" {
		fqn = baseOwner + "::" + callee.Name
		if m, ok := b.lookupMethod(baseOwner, callee.Name); ok {
			dispatch.SlotIndex = m.SlotIndex
		}
	}
	return mir.SymbolConst(fqn, types.Fn(types.FnSignature{})), dispatch, true, fqn
}

// callReceiver produces the receiver operand for an instance-member call:
// a Copy of the base place, passed as argument 0 with Ref mode, matching
// the slot every dispatch hint's ReceiverIndex names. Static targets
// (type-reference bases, methods declared static) have no receiver.
func (b *Builder) callReceiver(callee *ast.Expr) (mir.Operand, bool) {
	if callee == nil || callee.Kind != ast.ExprMember || callee.Base == nil {
		return mir.Operand{}, false
	}
	if callee.Base.Kind == ast.ExprTypeRef {
		return mir.Operand{}, false
	}
	if b.Symbols != nil {
		if m, ok := b.Symbols.Method(calleeOwnerType(callee.Base), callee.Name); ok && m.Static {
			return mir.Operand{}, false
		}
	}
	return mir.Copy(b.LowerPlace(callee.Base)), true
}

// appendDefaultArguments materialises trailing defaulted parameters of fqn
// from the symbol index's default-argument map into synthesized const
// operands (spec.md §4.3.5). Calls the index knows nothing about are left
// untouched.
func (b *Builder) appendDefaultArguments(fqn string, args []mir.Operand, modes []mir.ArgMode) ([]mir.Operand, []mir.ArgMode) {
	if b.Symbols == nil || fqn == "" {
		return args, modes
	}
	owner, name, ok := splitOwner(fqn)
	if !ok {
		return args, modes
	}
	m, found := b.Symbols.Method(owner, name)
	if !found || len(args) >= len(m.Signature.Params) {
		return args, modes
	}
	defaults := b.Symbols.DefaultArguments(fqn)
	if defaults == nil {
		return args, modes
	}
	for _, p := range m.Signature.Params[len(args):] {
		v, ok := defaults[p.Name]
		if !ok {
			break
		}
		args = append(args, constOperandFromValue(v, p.Ty))
		modes = append(modes, argModeFromParam(p.Mode))
	}
	return args, modes
}

// splitOwner splits "Owner::Type::method" at the final separator.
func splitOwner(fqn string) (owner, name string, ok bool) {
	i := strings.LastIndex(fqn, "::")
	if i < 0 {
		return "", "", false
	}
	return fqn[:i], fqn[i+2:], true
}

// constOperandFromValue turns a symtab default-argument value into the
// const operand shape the call site carries.
func constOperandFromValue(v symtab.ConstValue, ty types.Ty) mir.Operand {
	switch v.Kind {
	case symtab.ConstBool:
		return mir.BoolConst(v.Bool)
	case symtab.ConstInt:
		return mir.IntConst(v.Int, ty)
	case symtab.ConstFloat:
		return mir.FloatConst(v.Float, ty)
	case symtab.ConstString:
		return mir.StringConst(v.Str)
	default:
		return mir.NullConst(types.Nullable(ty))
	}
}

func (b *Builder) lookupMethod(ownerType, name string) (methodLookup, bool) {
	if b.Symbols == nil {
		return methodLookup{}, false
	}
	m, ok := b.Symbols.Method(ownerType, name)
	if !ok {
		return methodLookup{}, false
	}
	return methodLookup{Virtual: m.Virtual, SlotIndex: m.SlotIndex}, true
}

// methodLookup is the subset of symtab.MethodDecl the builder needs,
// decoupled so this file does not need to know symtab.MethodDecl's full
// shape.
type methodLookup struct {
	Virtual   bool
	SlotIndex int
}

func calleeOwnerType(base *ast.Expr) string {
	if base == nil {
		return ""
	}
	if base.HasTy {
		return base.Ty.CanonicalName()
	}
	return base.Name
}

func argModeFromParam(mode types.ParamMode) mir.ArgMode {
	switch mode {
	case types.ModeIn:
		return mir.ArgIn
	case types.ModeRef:
		return mir.ArgRef
	case types.ModeOut:
		return mir.ArgOut
	default:
		return mir.ArgByValue
	}
}

// decimalIntrinsicName reports whether callee names a
// Std::Numeric::Decimal::Intrinsics symbol and, if so, returns the bare
// operation name (with any "WithOptions" suffix stripped) plus whether
// that suffix was present.
func decimalIntrinsicName(callee *ast.Expr) (name string, withOptions, ok bool) {
	if callee == nil || callee.Kind != ast.ExprName {
		return "", false, false
	}
	if !strings.HasPrefix(callee.Name, decimalIntrinsicPrefix) {
		return "", false, false
	}
	op := strings.TrimPrefix(callee.Name, decimalIntrinsicPrefix)
	trimmed := strings.TrimSuffix(op, "WithOptions")
	return trimmed, trimmed != op, true
}

// lowerDecimalIntrinsicCall builds the DecimalIntrinsic rvalue for one
// recognised intrinsic name (spec.md §4.3.6). Without options, rounding
// defaults to TiesToEven and vectorize to None as constant enum operands;
// with options (the `WithOptions` suffix), the trailing two arguments
// become dynamic operands lowered like any other call argument.
func (b *Builder) lowerDecimalIntrinsicCall(op string, withOptions bool, args []ast.Arg, span diag.Span) (mir.Rvalue, bool) {
	if !b.decimalVectorizeDeclared {
		b.Bag.Addf(diag.CodeDecimalVectorizeMissing, "decimal intrinsic %s used without @vectorize(decimal) on the enclosing function", op)
	}
	b.sawDecimalIntrinsic = true

	kind, ok := decimalKindFromName(op)
	if !ok {
		return mir.Rvalue{}, false
	}

	valueArgc := 2
	if kind == mir.DecimalFma {
		valueArgc = 3
	}
	wantArgc := valueArgc
	if withOptions {
		wantArgc += 2
	}
	if len(args) < wantArgc {
		return mir.Rvalue{}, false
	}

	lhs := b.LowerOperand(&args[0].Value)
	rhs := b.LowerOperand(&args[1].Value)
	var addend mir.Operand
	if kind == mir.DecimalFma {
		addend = b.LowerOperand(&args[2].Value)
	}

	if withOptions {
		roundingOp := b.LowerOperand(&args[valueArgc].Value)
		vectorizeOp := b.LowerOperand(&args[valueArgc+1].Value)
		if kind == mir.DecimalFma {
			return mir.DecimalFmaDynamic(lhs, rhs, addend, roundingOp, vectorizeOp), true
		}
		return mir.DecimalIntrinsicDynamic(kind, lhs, rhs, roundingOp, vectorizeOp), true
	}

	if kind == mir.DecimalFma {
		return mir.NewDecimalFma(lhs, rhs, addend, mir.RoundTiesToEven, mir.VectorizeNone), true
	}
	return mir.DecimalIntrinsic(kind, lhs, rhs, mir.RoundTiesToEven, mir.VectorizeNone), true
}

func decimalKindFromName(op string) (mir.DecimalIntrinsicKind, bool) {
	switch op {
	case "Add":
		return mir.DecimalAdd, true
	case "Sub":
		return mir.DecimalSub, true
	case "Mul":
		return mir.DecimalMul, true
	case "Div":
		return mir.DecimalDiv, true
	case "Fma":
		return mir.DecimalFma, true
	default:
		return 0, false
	}
}

// DeclareDecimalVectorize records whether the enclosing function carries
// `@vectorize(decimal)`, feeding the DM0001/DM0002 checks.
func (b *Builder) DeclareDecimalVectorize(declared bool) { b.decimalVectorizeDeclared = declared }

// CheckDecimalVectorizeUnused emits DM0001 if the function declared
// `@vectorize(decimal)` but never used a decimal intrinsic; call once
// after the body is fully lowered.
func (b *Builder) CheckDecimalVectorizeUnused(fnName string) {
	if b.decimalVectorizeDeclared && !b.sawDecimalIntrinsic {
		b.Bag.Addf(diag.CodeDecimalVectorizeUnused, "function %s declares @vectorize(decimal) but never uses a decimal intrinsic", fnName)
	}
}
