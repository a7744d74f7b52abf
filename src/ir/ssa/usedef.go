package ssa

// use writes p into *slot and, if p has a use list, appends
// (insn, slot) to it. Every Create* builder and every simplification rule
// that rewires an operand must go through this rather than assigning the
// slot directly, or the use-list-consistency invariant breaks.
func use(insn *Instruction, slot **Pseudo, p *Pseudo) {
	if p == nil {
		p = voidPseudo
	}
	*slot = p
	if p.HasUseList() {
		p.appendUser(insn, slot)
	}
}

// removeUse sets *slot = VOID and removes the matching (insn, slot)
// entry from the old pseudo's user list. It does not cascade: the old
// pseudo's defining instruction is left alone even if this was its last
// use.
func removeUse(slot **Pseudo) {
	old := *slot
	*slot = voidPseudo
	if old != nil && old.HasUseList() {
		old.removeUser(slot)
	}
}

// killUse behaves like removeUse, but after removing, if the target
// pseudo's use list becomes empty, kills its defining instruction. The
// kill goes one level deep: killInsn detaches that instruction's own
// operands with removeUse, so their definers stay in place even if they
// lose their last use. The returned mask is RepeatCSE if the defining
// instruction was killed, zero otherwise.
func killUse(slot **Pseudo) RepeatMask {
	old := *slot
	removeUse(slot)
	if old != nil && old.HasUseList() && len(old.users) == 0 && old.Def != nil {
		if killInsn(old.Def, false) {
			return RepeatCSE
		}
	}
	return 0
}

// replaceTarget redirects every user of insn.Target to newPseudo,
// updating use lists on both sides. After this, insn.Target has no users.
func replaceTarget(insn *Instruction, newPseudo *Pseudo) {
	old := insn.Target
	if old == nil || !old.HasUseList() {
		return
	}
	users := make([]Use, len(old.users))
	copy(users, old.users)
	for _, u := range users {
		*u.Slot = newPseudo
		if newPseudo != nil && newPseudo.HasUseList() {
			newPseudo.appendUser(u.Insn, u.Slot)
		}
	}
	old.users = old.users[:0]
}

// switchPseudo swaps the pseudos held in slot1 (owned by insn1) and slot2
// (owned by insn2), preserving use-list accuracy on both sides. insn1 and
// insn2 may be the same instruction (commutative canonicalization) or
// different ones (reassociation moving an operand across instructions).
func switchPseudo(insn1 *Instruction, slot1 **Pseudo, insn2 *Instruction, slot2 **Pseudo) {
	p1, p2 := *slot1, *slot2
	*slot1, *slot2 = p2, p1
	if p1 != nil && p1.HasUseList() {
		rebindSlot(p1, slot1, insn2, slot2)
	}
	if p2 != nil && p2.HasUseList() {
		rebindSlot(p2, slot2, insn1, slot1)
	}
}

// rebindSlot updates p's user-list entry that used to point at oldSlot so
// that it points at newInsn/newSlot instead.
func rebindSlot(p *Pseudo, oldSlot **Pseudo, newInsn *Instruction, newSlot **Pseudo) {
	for i := range p.users {
		if p.users[i].Slot == oldSlot {
			p.users[i].Insn = newInsn
			p.users[i].Slot = newSlot
			return
		}
	}
}
