package ssa

// rankOf orders a pseudo for canonicalization: REG first, then SYM, then
// VAL last (rightmost), per the "canonical order" glossary entry.
func rankOf(p *Pseudo) int {
	switch p.Kind {
	case Val:
		return 2
	case Sym:
		return 1
	default: // Reg, Arg, Phi, Void
		return 0
	}
}

// outOfOrder reports whether a, b need to be swapped to reach canonical
// order. Two REGs break the tie by allocation id (linearize.h orders
// these by pseudo->nr).
func outOfOrder(a, b *Pseudo) bool {
	ra, rb := rankOf(a), rankOf(b)
	if ra != rb {
		return ra > rb
	}
	if a.Kind == Reg && b.Kind == Reg {
		return a.id > b.id
	}
	return false
}

// canonicalize reorders a commutative binop's operands, or a compare's
// operands plus its opcode mirror, into canonical order.
func canonicalize(insn *Instruction) RepeatMask {
	if !insn.Op.Commutative() && !insn.Op.IsCompare() {
		return 0
	}
	if !outOfOrder(insn.Src1, insn.Src2) {
		return 0
	}
	switchPseudo(insn, &insn.Src1, insn, &insn.Src2)
	if mirror, ok := insn.Op.Mirror(); ok {
		insn.Op = mirror
	}
	return RepeatCSE
}
