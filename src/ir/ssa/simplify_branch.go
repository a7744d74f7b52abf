package ssa

import "midir/src/ir/ssa/types"

// simplifyBranch rewrites a conditional branch in place when its condition traces back to a simplifiable pattern.
func simplifyBranch(insn *Instruction, f *Function) RepeatMask {
	if insn.Op != types.CBR {
		return 0
	}
	bb := insn.BB

	if insn.Cond.Kind == Val {
		target := insn.False
		if insn.Cond.Value != 0 {
			target = insn.True
		}
		insertBranch(bb, insn, target)
		return RepeatCFGCleanup
	}

	if insn.True == insn.False {
		// addChild already dedups the edge at construction time, so
		// collapsing to BR leaves the CFG with exactly the one edge it
		// always had.
		insertBranch(bb, insn, insn.True)
		return RepeatCFGCleanup
	}

	if m, ok := rerootOnCompareZero(insn); ok {
		return m
	}
	if m, ok := rerootOnSelect(insn, bb); ok {
		return m
	}
	if m, ok := rerootOnWideningCast(insn); ok {
		return m
	}

	return 0
}

// rerootOnCompareZero implements "CBR on set_eq(x,0) or set_ne(x,0) ->
// rebind directly to x, swapping arms iff the compare was set_eq".
func rerootOnCompareZero(insn *Instruction) (RepeatMask, bool) {
	cond := insn.Cond
	if cond.Kind != Reg || cond.Def == nil {
		return 0, false
	}
	def := cond.Def
	if def.Op != types.SET_EQ && def.Op != types.SET_NE {
		return 0, false
	}
	if def.Src2.Kind != Val || def.Src2.Value != 0 {
		return 0, false
	}

	newCond := def.Src1
	m := killUse(&insn.Cond)
	use(insn, &insn.Cond, newCond)
	if def.Op == types.SET_EQ {
		insn.True, insn.False = insn.False, insn.True
	}
	return RepeatCSE | m, true
}

// rerootOnSelect implements "CBR on SEL(c,a,b) where a,b constant".
func rerootOnSelect(insn *Instruction, bb *Block) (RepeatMask, bool) {
	cond := insn.Cond
	if cond.Kind != Reg || cond.Def == nil || cond.Def.Op != types.SEL {
		return 0, false
	}
	sel := cond.Def
	a, b := sel.Src2, sel.Src3
	if a.Kind != Val || b.Kind != Val {
		return 0, false
	}

	switch {
	case a.Value == 0 && b.Value == 0:
		insertBranch(bb, insn, insn.False)
		return RepeatCFGCleanup, true
	case a.Value != 0 && b.Value != 0:
		insertBranch(bb, insn, insn.True)
		return RepeatCFGCleanup, true
	}

	newCond := sel.Src1
	m := killUse(&insn.Cond)
	use(insn, &insn.Cond, newCond)
	if b.Value != 0 {
		insn.True, insn.False = insn.False, insn.True
	}
	return RepeatCSE | m, true
}

// rerootOnWideningCast implements "CBR on a zero-extending CAST/SCAST
// (widening) -> rebind to the cast's source; the cast is then dead".
func rerootOnWideningCast(insn *Instruction) (RepeatMask, bool) {
	cond := insn.Cond
	if cond.Kind != Reg || cond.Def == nil {
		return 0, false
	}
	def := cond.Def
	if def.Op != types.CAST && def.Op != types.SCAST {
		return 0, false
	}
	if def.Size <= def.OrigSize {
		return 0, false
	}

	newCond := def.Src
	m := killUse(&insn.Cond)
	use(insn, &insn.Cond, newCond)
	return RepeatCSE | m, true
}
