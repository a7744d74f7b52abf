package ssa

import "midir/src/ir/ssa/types"

// simplifyCast folds and narrows CAST/SCAST/FPCAST/PTRCAST chains.
func simplifyCast(insn *Instruction, f *Function) RepeatMask {
	if deadInsn(insn, &insn.Src) {
		return RepeatCSE
	}

	if insn.Op == types.PTRCAST || insn.IsPtrCast || insn.Type == types.Pointer || insn.OrigType == types.Pointer {
		return 0 // pointer casts are left for later passes.
	}
	if insn.Op == types.FPCAST && insn.OrigType == types.Float && insn.Type == types.Int {
		return 0 // float -> int is kept; FP folding is a Non-goal.
	}

	if insn.Src.Kind == Val {
		wSrc := insn.OrigSize
		if wSrc == 0 {
			wSrc = insn.Size
		}
		var raw int64
		if insn.OrigSigned {
			raw = signExtend(insn.Src.Value, wSrc)
		} else {
			raw = zeroExtend(insn.Src.Value, wSrc)
		}
		mask, _ := maskFor(insn.Size)
		v := f.ValuePseudo(raw & mask)
		replaceTarget(insn, v)
		m := killUse(&insn.Src)
		deadInsn(insn)
		return RepeatCSE | m
	}

	// x AND c, where c has no bits set above bit w_dst-1 and the AND is at
	// least w_dst wide: the AND already zero-extends, so the cast can be
	// bypassed entirely.
	if insn.Src.Kind == Reg && insn.Src.Def != nil && insn.Src.Def.Op == types.AND {
		and := insn.Src.Def
		if c := and.Src2; c.Kind == Val && and.Size >= insn.Size {
			dstMask, _ := maskFor(insn.Size)
			if c.Value & ^dstMask == 0 {
				return bypassCast(insn)
			}
		}
	}

	sameWidth := insn.Size == insn.OrigSize
	matchingSign := (insn.Op == types.CAST && !insn.OrigSigned) || (insn.Op == types.SCAST && insn.OrigSigned) || insn.Op == types.FPCAST
	if sameWidth && matchingSign {
		// Same width, matching signedness: the cast changes nothing.
		return bypassCast(insn)
	}

	return 0
}

// bypassCast redirects insn's users straight to its source and kills insn.
func bypassCast(insn *Instruction) RepeatMask {
	src := insn.Src
	replaceTarget(insn, src)
	m := killUse(&insn.Src)
	deadInsn(insn)
	return RepeatCSE | m
}
