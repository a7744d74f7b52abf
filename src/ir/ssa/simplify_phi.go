package ssa

import "midir/src/ir/ssa/types"

// simplifyPhi collapses trivial phis and drives if-conversion.
func simplifyPhi(insn *Instruction, f *Function) RepeatMask {
	slots := make([]**Pseudo, len(insn.PhiOperands))
	for i := range insn.PhiOperands {
		slots[i] = &insn.PhiOperands[i]
	}
	if deadInsn(insn, slots...) {
		return RepeatCSE
	}

	if same, distinct := phiSameSource(insn); same != nil && !distinct {
		replaceTarget(insn, same)
		var mask RepeatMask
		for i := range insn.PhiOperands {
			mask |= killUse(&insn.PhiOperands[i])
		}
		deadInsn(insn)
		return RepeatCSE | mask
	}

	if mask, ok := tryIfConvert(insn, f); ok {
		return mask
	}

	return 0
}

// phiSameSource reports the single defining pseudo shared by every live
// (non-VOID) phi operand, and whether the live operands actually disagree.
func phiSameSource(insn *Instruction) (same *Pseudo, distinct bool) {
	for _, p := range insn.PhiOperands {
		if p == nil || p == voidPseudo {
			continue
		}
		if same == nil {
			same = p
		} else if same != p {
			return same, true
		}
	}
	return same, false
}

// tryIfConvert implements if-conversion: a two-source
// phi whose sources both trace back through single-entry/single-exit block
// chains to the same CBR is replaced by a SEL evaluated at that branch.
func tryIfConvert(insn *Instruction, f *Function) (RepeatMask, bool) {
	type liveSrc struct {
		block *Block
		val   *Pseudo
	}
	var live []liveSrc
	for i, p := range insn.PhiOperands {
		if p != nil && p != voidPseudo {
			live = append(live, liveSrc{insn.BB.Parents[i], p})
		}
	}
	if len(live) != 2 {
		return 0, false
	}
	b1, p1 := live[0].block, live[0].val
	b2, p2 := live[1].block, live[1].val
	if b1 == b2 {
		return 0, false
	}

	s1 := phiParent(b1, p1)
	s2 := phiParent(b2, p2)
	if s1 == nil || s1 != s2 {
		return 0, false
	}
	s := s1
	term := s.Terminator()
	if term == nil || term.Op != types.CBR {
		return 0, false
	}

	var pTrue, pFalse *Pseudo
	switch {
	case chainLeadsTo(term.True, b1):
		pTrue, pFalse = p1, p2
	case chainLeadsTo(term.True, b2):
		pTrue, pFalse = p2, p1
	default:
		return 0, false
	}

	sel := insertSelect(s, term, term.Cond, pTrue, pFalse)

	replaceTarget(insn, sel.Target)
	var mask RepeatMask
	for i := range insn.PhiOperands {
		mask |= killUse(&insn.PhiOperands[i])
	}
	deadInsn(insn)
	return RepeatCSE | mask, true
}

// phiParent climbs from b through parents while each link is a
// single-entry/single-exit chain edge, stopping at the first block with
// more than one successor (a genuine branch point). It bails out (nil) if
// the chain merges early or an intermediate block redefines source.
func phiParent(b *Block, source *Pseudo) *Block {
	cur := b
	first := true
	for i := 0; i < 64; i++ {
		if len(cur.Parents) != 1 {
			return nil
		}
		p := cur.Parents[0]
		if !first && definesPseudo(cur, source) {
			return nil
		}
		first = false
		if len(p.Children) != 1 {
			return p
		}
		cur = p
	}
	return nil
}

func definesPseudo(b *Block, p *Pseudo) bool {
	for _, insn := range b.Insns {
		if insn.Target == p {
			return true
		}
	}
	return false
}

// chainLeadsTo reports whether following single-successor edges from start
// eventually reaches target.
func chainLeadsTo(start, target *Block) bool {
	cur := start
	for i := 0; i < 64; i++ {
		if cur == target {
			return true
		}
		if len(cur.Children) != 1 {
			return false
		}
		cur = cur.Children[0]
	}
	return false
}
