package ssa

// simplifyRange handles the vestigial RANGE bounds-check hint: fold away a
// statically-known-in-range operand, otherwise leave the instruction
// untouched. It is never treated as an error either way.
func simplifyRange(insn *Instruction, f *Function) RepeatMask {
	if deadInsn(insn, &insn.Src) {
		return RepeatCSE
	}
	if insn.Src.Kind != Val {
		return 0
	}
	if insn.Src.Value < insn.RangeLow || insn.Src.Value > insn.RangeHigh {
		return 0
	}
	src := insn.Src
	replaceTarget(insn, src)
	m := killUse(&insn.Src)
	deadInsn(insn)
	return RepeatCSE | m
}

// simplifyCopy handles COPY as pure target replacement, the same as a
// bypassed identity cast.
func simplifyCopy(insn *Instruction, f *Function) RepeatMask {
	if deadInsn(insn, &insn.Src) {
		return RepeatCSE
	}
	src := insn.Src
	replaceTarget(insn, src)
	m := killUse(&insn.Src)
	deadInsn(insn)
	return RepeatCSE | m
}
