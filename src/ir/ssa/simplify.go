package ssa

import "midir/src/ir/ssa/types"

// simplifyInstruction dispatches insn to the rule matching its opcode's
// structural category and returns the repeat mask that rule produced.
func simplifyInstruction(insn *Instruction, f *Function) RepeatMask {
	if insn.Dead() {
		return 0
	}

	switch {
	case insn.Op.InTerminatorRange():
		switch insn.Op {
		case types.CBR:
			return simplifyBranch(insn, f)
		case types.SWITCH:
			return simplifySwitch(insn, f)
		default:
			return 0 // RET, BR, COMPUTEDGOTO carry no simplification rule.
		}

	case insn.Op.InBinaryRange() || insn.Op.IsCompare():
		return simplifyBinop(insn, f)

	case insn.Op == types.NOT || insn.Op == types.NEG || insn.Op == types.FNEG:
		return simplifyUnop(insn, f)

	case insn.Op == types.CAST || insn.Op == types.SCAST || insn.Op == types.FPCAST || insn.Op == types.PTRCAST:
		return simplifyCast(insn, f)

	case insn.Op == types.LOAD || insn.Op == types.STORE:
		return simplifyMemop(insn, f)

	case insn.Op == types.SEL:
		return simplifySel(insn, f)

	case insn.Op == types.PHI:
		return simplifyPhi(insn, f)

	case insn.Op == types.RANGE:
		return simplifyRange(insn, f)

	case insn.Op == types.COPY:
		return simplifyCopy(insn, f)

	case insn.Op == types.SETVAL:
		if deadInsn(insn, &insn.Src1) {
			return RepeatCSE
		}
		return 0

	case insn.Op == types.SETFVAL:
		if deadInsn(insn) {
			return RepeatCSE
		}
		return 0

	case insn.Op == types.SYMADDR:
		if deadInsn(insn, &insn.Sym) {
			return RepeatCSE
		}
		return 0

	case insn.Op == types.CALL || insn.Op == types.INLINED_CALL:
		if killableWithoutForce(insn) {
			slots := make([]**Pseudo, 0, len(insn.Args)+1)
			slots = append(slots, &insn.Func)
			for i := range insn.Args {
				slots = append(slots, &insn.Args[i])
			}
			if deadInsn(insn, slots...) {
				return RepeatCSE
			}
		}
		return 0

	default:
		return 0
	}
}
