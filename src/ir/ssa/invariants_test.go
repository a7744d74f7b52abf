package ssa

import (
	"testing"

	"midir/src/ir/ssa/types"
)

// TestUseListConsistency checks that every slot recorded in a pseudo's
// user list actually points back at an instruction that still holds that
// pseudo in the named slot, both before and after a simplification pass
// rewires several operands.
func TestUseListConsistency(t *testing.T) {
	_, f := newTestFunction(t)
	a := f.CreateArg(0)
	b := f.Entry

	t1 := b.CreateBinary(types.ADD, 32, a, f.ValuePseudo(0))
	t2 := b.CreateBinary(types.MUL, 32, t1.Target, f.ValuePseudo(1))
	b.CreateReturn(t2.Target)

	checkUseListConsistency(t, f)
	Simplify(f)
	checkUseListConsistency(t, f)
}

func checkUseListConsistency(t *testing.T, f *Function) {
	t.Helper()
	for _, blk := range f.Blocks {
		for _, insn := range blk.Insns {
			for _, slot := range operandSlots(insn) {
				p := *slot
				if p == nil || !p.HasUseList() {
					continue
				}
				found := false
				for _, u := range p.Users() {
					if u.Insn == insn && u.Slot == slot {
						found = true
						break
					}
				}
				if !found {
					t.Fatalf("operand %s of %s has no matching use-list entry", p, insn)
				}
			}
		}
	}
	// The reverse direction: every use-list entry must name a live slot
	// that still holds that exact pseudo.
	for _, blk := range f.Blocks {
		for _, insn := range blk.Insns {
			if insn.Target != nil && insn.Target.HasUseList() {
				for _, u := range insn.Target.Users() {
					if *u.Slot != insn.Target {
						t.Fatalf("%s's use-list entry in %s points at a stale slot", insn.Target, u.Insn)
					}
				}
			}
		}
	}
}

// operandSlots returns every pseudo-holding slot an instruction has,
// dispatching on opcode shape the same way the killer does.
func operandSlots(insn *Instruction) []**Pseudo {
	var slots []**Pseudo
	switch {
	case insn.Op.InTerminatorRange():
		switch insn.Op {
		case types.RET:
			slots = append(slots, &insn.Src1)
		case types.CBR:
			slots = append(slots, &insn.Cond)
		case types.SWITCH:
			slots = append(slots, &insn.Src1)
		}
	case insn.Op.InBinaryRange() || insn.Op.IsCompare():
		slots = append(slots, &insn.Src1, &insn.Src2)
	case insn.Op == types.SEL:
		slots = append(slots, &insn.Src1, &insn.Src2, &insn.Src3)
	case insn.Op == types.NOT || insn.Op == types.NEG || insn.Op == types.FNEG:
		slots = append(slots, &insn.Src)
	case insn.Op == types.CAST || insn.Op == types.SCAST || insn.Op == types.FPCAST || insn.Op == types.PTRCAST:
		slots = append(slots, &insn.Src)
	case insn.Op == types.LOAD:
		slots = append(slots, &insn.Src)
	case insn.Op == types.STORE:
		slots = append(slots, &insn.Src, &insn.Src2)
	case insn.Op == types.SYMADDR:
		slots = append(slots, &insn.Sym)
	case insn.Op == types.SETVAL:
		slots = append(slots, &insn.Src1)
	case insn.Op == types.PHI:
		for i := range insn.PhiOperands {
			slots = append(slots, &insn.PhiOperands[i])
		}
	case insn.Op == types.CALL || insn.Op == types.INLINED_CALL:
		slots = append(slots, &insn.Func)
		for i := range insn.Args {
			slots = append(slots, &insn.Args[i])
		}
	}
	return slots
}

// TestSingleDefinition checks that no REG or PHI pseudo is ever the
// Target of more than one live instruction.
func TestSingleDefinition(t *testing.T) {
	_, f := newTestFunction(t)
	a := f.CreateArg(0)
	b := f.Entry
	t1 := b.CreateBinary(types.ADD, 32, a, f.ValuePseudo(1))
	t2 := b.CreateBinary(types.MUL, 32, t1.Target, f.ValuePseudo(2))
	b.CreateReturn(t2.Target)

	Simplify(f)

	defs := map[*Pseudo]*Instruction{}
	for _, blk := range f.Blocks {
		for _, insn := range blk.Insns {
			if insn.Target == nil {
				continue
			}
			if prev, ok := defs[insn.Target]; ok {
				t.Fatalf("%s is defined by both %s and %s", insn.Target, prev, insn)
			}
			defs[insn.Target] = insn
		}
	}
}

// TestBlockWellFormed checks that every reachable block keeps its
// terminator as the last instruction and holds no terminator earlier.
func TestBlockWellFormed(t *testing.T) {
	_, f := newTestFunction(t)
	cond := f.CreateArg(0)
	entry := f.Entry
	tBlock := f.CreateBlock()
	fBlock := f.CreateBlock()

	entry.CreateConditionalBranch(cond, tBlock, fBlock)
	tBlock.CreateReturn(f.ValuePseudo(1))
	fBlock.CreateReturn(f.ValuePseudo(0))

	Simplify(f)

	for _, blk := range f.Blocks {
		if !blk.WellFormed() {
			t.Fatalf("block%d is not well-formed: %v", blk.Id(), blk.Insns)
		}
	}
}

// TestDeletedInstructionIsDetached checks that once an instruction is
// killed, it both reports itself dead and is absent from its former
// block's live instruction list and from every operand's use list.
func TestDeletedInstructionIsDetached(t *testing.T) {
	_, f := newTestFunction(t)
	a := f.CreateArg(0)
	b := f.Entry
	t1 := b.CreateBinary(types.ADD, 32, a, f.ValuePseudo(0))
	dead := b.CreateBinary(types.MUL, 32, t1.Target, f.ValuePseudo(99))
	b.CreateReturn(t1.Target)

	Simplify(f)

	if !dead.Dead() {
		t.Fatalf("expected the unused multiply to be dead")
	}
	if dead.BB != nil {
		t.Fatalf("expected a dead instruction's BB to be nil")
	}
	for _, insn := range b.Insns {
		if insn == dead {
			t.Fatalf("dead instruction still present in its former block's instruction list")
		}
	}
	for _, u := range a.Users() {
		if u.Insn == dead {
			t.Fatalf("dead instruction still present in an operand's use list")
		}
	}
}
