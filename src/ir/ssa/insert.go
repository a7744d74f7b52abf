package ssa

import "midir/src/ir/ssa/types"

// insertSelect materializes a SEL immediately before the mark instruction
// inside bb. It is the "insert_select" primitive named in the external
// interfaces: if-conversion uses it to replace a two-source phi with a
// ternary select evaluated at its common branch point.
func insertSelect(bb *Block, before *Instruction, cond, ifTrue, ifFalse *Pseudo) *Instruction {
	insn := &Instruction{Op: types.SEL, Type: types.Int, id: bb.F.nextInsnID()}
	bb.InsertBefore(before, insn)
	use(insn, &insn.Src1, cond)
	use(insn, &insn.Src2, ifTrue)
	use(insn, &insn.Src3, ifFalse)
	insn.Target = bb.F.allocReg(insn)
	return insn
}

// terminatorTargets returns every distinct block insn's terminator can
// jump to.
func terminatorTargets(insn *Instruction) []*Block {
	switch insn.Op {
	case types.BR:
		return []*Block{insn.True}
	case types.CBR:
		return []*Block{insn.True, insn.False}
	case types.SWITCH:
		seen := make(map[*Block]bool, len(insn.Cases))
		out := make([]*Block, 0, len(insn.Cases))
		for _, c := range insn.Cases {
			if !seen[c.Target] {
				seen[c.Target] = true
				out = append(out, c.Target)
			}
		}
		return out
	default:
		return nil
	}
}

// insertBranch replaces the terminator `replaces` of bb with an
// unconditional BR to target, pruning every CFG edge the old terminator
// held that target does not preserve. It is the "insert_branch" primitive
// named in the external interfaces.
func insertBranch(bb *Block, replaces *Instruction, target *Block) *Instruction {
	oldTargets := terminatorTargets(replaces)
	killOperands(replaces)
	for _, t := range oldTargets {
		if t != target {
			bb.removeChild(t)
		}
	}
	replaces.BB = nil
	bb.Remove(replaces)

	br := &Instruction{Op: types.BR, True: target, id: bb.F.nextInsnID()}
	bb.Append(br)
	hasEdge := false
	for _, c := range bb.Children {
		if c == target {
			hasEdge = true
			break
		}
	}
	if !hasEdge {
		bb.addChild(target)
	}
	return br
}
