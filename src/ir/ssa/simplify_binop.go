package ssa

import "midir/src/ir/ssa/types"

// simplifyBinop handles binary and compare opcodes. It assumes insn.Op is in the binary or
// compare dispatch range.
func simplifyBinop(insn *Instruction, f *Function) RepeatMask {
	mask := canonicalize(insn)

	if deadInsn(insn, &insn.Src1, &insn.Src2) {
		return mask | RepeatCSE
	}

	if insn.Src1.Kind == Val && insn.Src2.Kind == Val {
		if v, ok := eval(insn, f); ok {
			replaceTarget(insn, v)
			deadInsn(insn, &insn.Src1, &insn.Src2)
			return mask | RepeatCSE
		}
	}

	if insn.Src2.Kind == Val {
		if m := simplifyConstantRightside(insn, f); m.Any() {
			return mask | m
		}
	} else if insn.Src1.Kind == Val && !insn.Op.Commutative() {
		if m := simplifyConstantLeftside(insn, f); m.Any() {
			return mask | m
		}
	}

	if insn.Src1 == insn.Src2 {
		if m := simplifySamePseudo(insn, f); m.Any() {
			return mask | m
		}
	}

	if insn.Op.Associative() {
		if m := simplifyAssociative(insn); m.Any() {
			return mask | m
		}
	}

	return mask
}

// simplifyConstantRightside handles every "only the right operand is VAL"
// rule.
func simplifyConstantRightside(insn *Instruction, f *Function) RepeatMask {
	c := insn.Src2.Value
	w := insn.Size
	if w == 0 {
		w = 64
	}
	mask, _ := maskFor(w)
	cs := signExtend(c, w)

	switch insn.Op {
	case types.ADD, types.OR, types.XOR:
		if c&mask == 0 {
			return foldToOperand(insn, insn.Src1)
		}
	case types.SHL, types.LSR:
		if c == 0 {
			return foldToOperand(insn, insn.Src1)
		}
	case types.ASR:
		if uint8(c) >= w {
			f.M.Diag.Emit(Diagnostic{Severity: SeverityWarning, Pos: insn.Pos,
				Message: "shift amount exceeds operand width, result is 0"})
			return foldToConst(insn, f, 0)
		}
		if c == 0 {
			return foldToOperand(insn, insn.Src1)
		}
	case types.AND_BOOL:
		if cs == 1 {
			return foldToOperand(insn, insn.Src1)
		}
	case types.AND:
		if c&mask == 0 {
			return foldToConst(insn, f, 0)
		}
	case types.MUL:
		if c&mask == 0 {
			return foldToConst(insn, f, 0)
		}
		if cs == 1 {
			return foldToOperand(insn, insn.Src1)
		}
		if cs == -1 {
			return rewriteToNeg(insn, f)
		}
	case types.DIVU:
		if cs == 1 {
			return foldToOperand(insn, insn.Src1)
		}
	case types.DIVS:
		if cs == 1 {
			return foldToOperand(insn, insn.Src1)
		}
		// A VAL dividend reaching here is one eval declined (INT_MIN / -1),
		// which stays unfolded.
		if cs == -1 && insn.Src1.Kind != Val {
			return rewriteToNeg(insn, f)
		}
	case types.MODU, types.MODS:
		if cs == 1 {
			return foldToConst(insn, f, 0)
		}
	case types.SUB:
		neg := f.ValuePseudo((-c) & mask)
		removeUse(&insn.Src2)
		insn.Op = types.ADD
		use(insn, &insn.Src2, neg)
		return RepeatCSE
	case types.SET_EQ, types.SET_NE:
		if m, ok := simplifySetEqNe(insn, f); ok {
			return m
		}
	}
	return 0
}

// simplifyConstantLeftside handles "only the left operand is VAL", which
// after canonicalization can only arise for a non-commutative op (SUB,
// DIVU, DIVS, MODU, MODS, SHL, LSR, ASR).
func simplifyConstantLeftside(insn *Instruction, f *Function) RepeatMask {
	c := insn.Src1.Value
	w := insn.Size
	if w == 0 {
		w = 64
	}
	mask, _ := maskFor(w)

	switch insn.Op {
	case types.SUB:
		if c&mask == 0 {
			// 0 - x -> neg x
			return rewriteToNeg1(insn, f, insn.Src2, &insn.Src1, &insn.Src2)
		}
	case types.SHL, types.LSR, types.ASR:
		if c&mask == 0 {
			return foldToConst(insn, f, 0)
		}
	case types.DIVU, types.DIVS, types.MODU, types.MODS:
		if c&mask == 0 {
			return foldToConst(insn, f, 0)
		}
	}
	return 0
}

// simplifySamePseudo handles "both operands are the same pseudo".
func simplifySamePseudo(insn *Instruction, f *Function) RepeatMask {
	switch insn.Op {
	case types.SET_NE, types.SET_LT, types.SET_GT, types.SET_B, types.SET_A:
		f.M.Diag.Emit(Diagnostic{Severity: SeverityWarning, Pos: insn.Pos, Message: "tautological self-compare is always false"})
		return foldToConst(insn, f, 0)
	case types.SET_EQ, types.SET_LE, types.SET_GE, types.SET_BE, types.SET_AE:
		f.M.Diag.Emit(Diagnostic{Severity: SeverityWarning, Pos: insn.Pos, Message: "tautological self-compare is always true"})
		return foldToConst(insn, f, 1)
	case types.SUB, types.XOR:
		return foldToConst(insn, f, 0)
	case types.AND, types.OR:
		return foldToOperand(insn, insn.Src1)
	case types.AND_BOOL, types.OR_BOOL:
		insn.Op = types.SET_NE
		removeUse(&insn.Src2)
		use(insn, &insn.Src2, f.ValuePseudo(0))
		return RepeatCSE
	}
	return 0
}

// simplifyAssociative implements the reassociation rule: for a
// commutative+associative op, if the left operand is a REG defined by the
// same opcode with a simple (VAL/SYM) right operand, the outer's own right
// operand is simple too, and that definition has exactly one user, swap
// the inner's left operand with the outer's right operand. Given
// (x + c1) + c2 this produces (c2 + c1) + x: the two simple operands land
// on the same instruction, where the VAL+VAL fold picks them up on the
// next visit and leaves the outer instruction as x + (c1+c2).
func simplifyAssociative(insn *Instruction) RepeatMask {
	if insn.Src2.Kind != Val && insn.Src2.Kind != Sym {
		return 0
	}
	inner := insn.Src1
	if inner.Kind != Reg || inner.Def == nil {
		return 0
	}
	def := inner.Def
	if def == insn || def.Op != insn.Op {
		return 0
	}
	if def.Src2.Kind != Val && def.Src2.Kind != Sym {
		return 0
	}
	if len(inner.users) != 1 {
		return 0
	}
	switchPseudo(def, &def.Src1, insn, &insn.Src2)
	return RepeatCSE
}

// --- shared helpers ---

// foldToOperand replaces insn's target with src (already-live operand)
// and kills insn.
func foldToOperand(insn *Instruction, src *Pseudo) RepeatMask {
	replaceTarget(insn, src)
	deadInsn(insn, &insn.Src1, &insn.Src2)
	return RepeatCSE
}

// foldToConst replaces insn's target with the interned value v and kills
// insn.
func foldToConst(insn *Instruction, f *Function, v int64) RepeatMask {
	return foldToOperand(insn, f.ValuePseudo(v))
}

// rewriteToNeg turns insn into NEG of its left operand (used for x*(-1)
// and x/(-1)).
func rewriteToNeg(insn *Instruction, f *Function) RepeatMask {
	src := insn.Src1
	removeUse(&insn.Src1)
	removeUse(&insn.Src2)
	insn.Op = types.NEG
	use(insn, &insn.Src, src)
	return RepeatCSE
}

// rewriteToNeg1 turns insn into NEG of operand, detaching the two named
// binop slots first (used for 0 - x -> neg x).
func rewriteToNeg1(insn *Instruction, f *Function, operand *Pseudo, slot1, slot2 **Pseudo) RepeatMask {
	removeUse(slot1)
	removeUse(slot2)
	insn.Op = types.NEG
	use(insn, &insn.Src, operand)
	return RepeatCSE
}

// simplifySetEqNe implements the redundant-compare fusion rule: folding
// set_eq/set_ne of a compare result against 0 or 1 into the inner compare
// (or its negation).
func simplifySetEqNe(insn *Instruction, f *Function) (RepeatMask, bool) {
	x := insn.Src1
	c := insn.Src2.Value
	if x.Kind != Reg || x.Def == nil || !x.Def.Op.IsCompare() {
		return 0, false
	}
	if c != 0 && c != 1 {
		return 0, false
	}
	inner := x.Def
	negate, hasNegate := inner.Op.Negated()
	if !hasNegate {
		return 0, false
	}
	wantSame := (insn.Op == types.SET_NE && c == 0) || (insn.Op == types.SET_EQ && c == 1)
	if wantSame {
		replaceTarget(insn, x)
		deadInsn(insn, &insn.Src1, &insn.Src2)
		return RepeatCSE, true
	}
	// set_eq(x,0) or set_ne(x,1): fuse to the negated inner compare.
	replaced := cloneCompareWithOp(inner, negate, f)
	replaceTarget(insn, replaced)
	deadInsn(insn, &insn.Src1, &insn.Src2)
	return RepeatCSE, true
}

// cloneCompareWithOp materializes a new compare instruction with the same
// operands as inner but opcode negate, placed immediately before inner's
// position in its block. It is a small helper rather than mutating inner
// in place because inner may have other users relying on its original
// sense.
func cloneCompareWithOp(inner *Instruction, negate types.Opcode, f *Function) *Pseudo {
	if len(inner.Target.users) == 1 {
		// inner has no other user: safe to just flip it in place.
		inner.Op = negate
		return inner.Target
	}
	b := inner.BB
	clone := &Instruction{Op: negate, Size: inner.Size, Type: inner.Type, Pos: inner.Pos, id: f.nextInsnID()}
	b.InsertBefore(inner, clone)
	use(clone, &clone.Src1, inner.Src1)
	use(clone, &clone.Src2, inner.Src2)
	clone.Target = f.allocReg(clone)
	return clone.Target
}
