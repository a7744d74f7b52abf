package ssa

import "midir/src/ir/ssa/types"

// simplifySel folds a ternary select (SEL) when its operands allow it.
func simplifySel(insn *Instruction, f *Function) RepeatMask {
	if deadInsn(insn, &insn.Src1, &insn.Src2, &insn.Src3) {
		return RepeatCSE
	}

	cond, a, b := insn.Src1, insn.Src2, insn.Src3

	if cond.Kind == Val {
		chosen, other := a, b
		if cond.Value == 0 {
			chosen, other = b, a
		}
		replaceTarget(insn, chosen)
		m1 := killUse(&insn.Src1)
		m2 := killUse(&insn.Src2)
		m3 := killUse(&insn.Src3)
		_ = other
		deadInsn(insn)
		return RepeatCSE | m1 | m2 | m3
	}

	if a == b {
		replaceTarget(insn, a)
		m1 := killUse(&insn.Src1)
		m2 := killUse(&insn.Src2)
		m3 := killUse(&insn.Src3)
		deadInsn(insn)
		return RepeatCSE | m1 | m2 | m3
	}

	// SEL(cond, 0, cond) -> 0: idempotent projection.
	if b == cond && a.Kind == Val && a.Value == 0 {
		replaceTarget(insn, a)
		m1 := killUse(&insn.Src1)
		m3 := killUse(&insn.Src3)
		deadInsn(insn)
		return RepeatCSE | m1 | m3
	}
	if a.Kind == Val && b.Kind == Val && isZeroOnePair(a.Value, b.Value) {
		newOp := types.SET_NE
		if a.Value == 0 {
			newOp = types.SET_EQ
		}
		cond0 := f.ValuePseudo(0)
		removeUse(&insn.Src2)
		removeUse(&insn.Src3)
		insn.Op = newOp
		insn.Src2 = nil
		use(insn, &insn.Src2, cond0)
		return RepeatCSE
	}

	return 0
}

func isZeroOnePair(a, b int64) bool {
	return (a == 0 && b == 1) || (a == 1 && b == 0)
}
