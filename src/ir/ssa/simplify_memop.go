package ssa

import "midir/src/ir/ssa/types"

// simplifyMemop folds addressing chains and kills an unused non-volatile
// LOAD. A STORE is never killed here.
func simplifyMemop(insn *Instruction, f *Function) RepeatMask {
	mask := foldMemAddress(insn, f)

	if insn.Op == types.LOAD && killableWithoutForce(insn) {
		if deadInsn(insn, &insn.Src) {
			return mask | RepeatCSE
		}
	}
	return mask
}

// foldMemAddress repeatedly absorbs SYMADDR and ADD-by-constant base
// chains into insn.Offset, and detects the self-reference bug where the
// resulting base ends up equal to the instruction's original address
// operand (or to the ADD's own result); the address then becomes VOID.
func foldMemAddress(insn *Instruction, f *Function) RepeatMask {
	var mask RepeatMask
	orig := insn.Src
	selfRef := false

	for {
		base := insn.Src
		if base.Kind != Reg || base.Def == nil {
			break
		}
		def := base.Def

		if def.Op == types.SYMADDR {
			sym := def.Sym
			m := killUse(&insn.Src)
			use(insn, &insn.Src, sym)
			mask |= RepeatCSE | m
			continue
		}

		if def.Op == types.ADD && def.Src2.Kind == Val {
			newBase := def.Src1
			if newBase == orig || newBase == base {
				selfRef = true
				break
			}
			insn.Offset += def.Src2.Value
			m := killUse(&insn.Src)
			use(insn, &insn.Src, newBase)
			mask |= RepeatCSE | m
			continue
		}

		break
	}

	if selfRef {
		if !f.CFGCleanupPending {
			f.M.Diag.Emit(Diagnostic{Severity: SeverityWarning, Pos: insn.Pos,
				Message: "memory operand address chain leads back to itself; treating as unreachable"})
		}
		removeUse(&insn.Src)
		use(insn, &insn.Src, voidPseudo)
	}
	return mask
}
