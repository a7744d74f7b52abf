package ssa

import "midir/src/ir/ssa/types"

// simplifyUnop folds and simplifies NOT/NEG/FNEG.
func simplifyUnop(insn *Instruction, f *Function) RepeatMask {
	if deadInsn(insn, &insn.Src) {
		return RepeatCSE
	}

	if insn.Op == types.FNEG {
		return 0 // floating-point ops are never folded.
	}

	// not(not x) -> x; neg(neg x) -> x.
	if insn.Src.Kind == Reg && insn.Src.Def != nil && insn.Src.Def.Op == insn.Op && len(insn.Src.users) == 1 {
		inner := insn.Src.Def
		replaceTarget(insn, inner.Src)
		m := killUse(&insn.Src)
		deadInsn(insn)
		return RepeatCSE | m
	}

	if insn.Src.Kind == Val {
		if v, ok := evalUnary(insn, f); ok {
			replaceTarget(insn, v)
			removeUse(&insn.Src)
			deadInsn(insn)
			return RepeatCSE
		}
	}

	return 0
}
