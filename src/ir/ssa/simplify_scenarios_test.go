package ssa

import (
	"testing"

	"midir/src/ir/ssa/types"
)

func newTestFunction(t *testing.T) (*Module, *Function) {
	t.Helper()
	m := CreateModule("m", DiscardSink{})
	f := m.CreateFunction("f", types.Int)
	return m, f
}

// TestConstantFoldAndCanonicalize covers "t1 = 3 + x; t2 = t1 + 4; return
// t2" (x an argument), which should settle on a single ADD of x and the
// folded constant 7.
func TestConstantFoldAndCanonicalize(t *testing.T) {
	_, f := newTestFunction(t)
	x := f.CreateArg(0)
	b := f.Entry

	t1 := b.CreateBinary(types.ADD, 32, f.ValuePseudo(3), x)
	t2 := b.CreateBinary(types.ADD, 32, t1.Target, f.ValuePseudo(4))
	b.CreateReturn(t2.Target)

	Simplify(f)
	checkUseListConsistency(t, f)

	if len(b.Insns) != 2 {
		t.Fatalf("expected 2 live instructions after folding, got %d", len(b.Insns))
	}
	add := b.Insns[0]
	if add.Op != types.ADD || add.Src1 != x || !add.Src2.IsVal(7) {
		t.Fatalf("expected x + 7, got %s", add)
	}
	ret := b.Insns[1]
	if ret.Op != types.RET || ret.Src1 != add.Target {
		t.Fatalf("expected return of the folded add's target, got %s", ret)
	}
	if len(x.Users()) != 1 || x.Users()[0].Insn != add || x.Users()[0].Slot != &add.Src1 {
		t.Fatalf("expected x's use entry to name the surviving add and its Src1 slot, got %v", x.Users())
	}
}

// TestIfConversion covers the diamond CFG if-conversion rule: a two-arm
// diamond feeding a phi collapses to a SEL evaluated at the branch, which
// itself then folds to a zero/one select's equivalent compare.
func TestIfConversion(t *testing.T) {
	_, f := newTestFunction(t)
	cond := f.CreateArg(0)
	entry := f.Entry
	bb1 := f.CreateBlock()
	bb2 := f.CreateBlock()
	bb3 := f.CreateBlock()

	entry.CreateConditionalBranch(cond, bb1, bb2)
	bb1.CreateBranch(bb3)
	bb2.CreateBranch(bb3)
	phi := bb3.CreatePhi()
	SetPhiOperand(phi, 0, f.ValuePseudo(1))
	SetPhiOperand(phi, 1, f.ValuePseudo(0))
	ret := bb3.CreateReturn(phi.Target)

	Simplify(f)

	if !phi.Dead() {
		t.Fatalf("expected the phi to be killed by if-conversion")
	}
	if ret.Src1 == nil || ret.Src1.Def == nil {
		t.Fatalf("expected return to be rewired to a live definition")
	}
	def := ret.Src1.Def
	if def.Op != types.SET_NE || def.Src1 != cond || !def.Src2.IsVal(0) {
		t.Fatalf("expected the folded select to read back as set_ne cond, 0, got %s", def)
	}
	if def.BB != entry {
		t.Fatalf("expected the folded select to live in the branch block, got block%d", def.BB.Id())
	}
}

// TestDeadCodeUseListCascade covers "t1 = a + b; t2 = t1 * 2; t3 = a - b;
// return t1": t2 and t3 must be killed, and a/b must end up with exactly
// the uses t1 still holds.
func TestDeadCodeUseListCascade(t *testing.T) {
	_, f := newTestFunction(t)
	a := f.CreateArg(0)
	b := f.CreateArg(1)
	blk := f.Entry

	t1 := blk.CreateBinary(types.ADD, 32, a, b)
	t2 := blk.CreateBinary(types.MUL, 32, t1.Target, f.ValuePseudo(2))
	t3 := blk.CreateBinary(types.SUB, 32, a, b)
	blk.CreateReturn(t1.Target)

	Simplify(f)

	if !t2.Dead() {
		t.Fatalf("expected t2 to be killed as dead code")
	}
	if !t3.Dead() {
		t.Fatalf("expected t3 to be killed as dead code")
	}
	if t1.Dead() {
		t.Fatalf("t1 is still used by the return and must survive")
	}
	if len(t1.Target.Users()) != 1 {
		t.Fatalf("expected t1's target to have exactly 1 user (the return), got %d", len(t1.Target.Users()))
	}
	if len(a.Users()) != 1 || a.Users()[0].Insn != t1 {
		t.Fatalf("expected a's only surviving user to be t1")
	}
	if len(b.Users()) != 1 || b.Users()[0].Insn != t1 {
		t.Fatalf("expected b's only surviving user to be t1")
	}
}

// TestMemopOffsetFolding covers "p1 = symaddr G; p2 = p1 + 4; p3 = p2 + 8;
// v = load.i32 [p3+0]", which should fold the whole base chain into a
// single load of G+12.
func TestMemopOffsetFolding(t *testing.T) {
	_, f := newTestFunction(t)
	blk := f.Entry
	sym := &Symbol{Name: "G", Size: 4}

	symaddr := blk.CreateSymaddr(f.SymPseudo(sym))
	p2 := blk.CreateBinary(types.ADD, 64, symaddr.Target, f.ValuePseudo(4))
	p3 := blk.CreateBinary(types.ADD, 64, p2.Target, f.ValuePseudo(8))
	load := blk.CreateLoad(32, p3.Target, 0, false)
	blk.CreateReturn(load.Target)

	Simplify(f)

	if load.Dead() {
		t.Fatalf("the load itself is used by the return and must survive")
	}
	if load.Src == nil || load.Src.Kind != Sym || load.Src.Sym != sym {
		t.Fatalf("expected the load's base to fold down to the symbol, got %s", load.Src)
	}
	if load.Offset != 12 {
		t.Fatalf("expected a folded offset of 12, got %d", load.Offset)
	}
	if !symaddr.Dead() || !p2.Dead() || !p3.Dead() {
		t.Fatalf("expected the whole address chain to be dead once absorbed")
	}
}

// TestBranchOnCompareWithZero covers "c = set_ne x, 0; cbr c, T, F",
// which should reroot directly onto x and kill the compare.
func TestBranchOnCompareWithZero(t *testing.T) {
	_, f := newTestFunction(t)
	x := f.CreateArg(0)
	entry := f.Entry
	tBlock := f.CreateBlock()
	fBlock := f.CreateBlock()

	cmp := entry.CreateCompare(types.SET_NE, 32, x, f.ValuePseudo(0))
	cbr := entry.CreateConditionalBranch(cmp.Target, tBlock, fBlock)
	tBlock.CreateReturn(f.ValuePseudo(1))
	fBlock.CreateReturn(f.ValuePseudo(0))

	Simplify(f)

	if cbr.Cond != x {
		t.Fatalf("expected cbr to be rerooted directly onto x, got %s", cbr.Cond)
	}
	if cbr.True != tBlock || cbr.False != fBlock {
		t.Fatalf("set_ne must not swap the branch arms")
	}
	if !cmp.Dead() {
		t.Fatalf("expected the now-unused compare to be killed")
	}
}

// TestSwitchFold covers "switch 7 -> [1..5 -> A, 6..10 -> B, default ->
// D]", which should collapse to an unconditional branch to B and prune
// the other outgoing edges.
func TestSwitchFold(t *testing.T) {
	_, f := newTestFunction(t)
	entry := f.Entry
	a := f.CreateBlock()
	bBlock := f.CreateBlock()
	d := f.CreateBlock()

	entry.CreateSwitch(f.ValuePseudo(7), []SwitchCase{
		{Low: 1, High: 5, Target: a},
		{Low: 6, High: 10, Target: bBlock},
		{Low: 1, High: 0, Target: d},
	})
	a.CreateReturn(f.ValuePseudo(1))
	bBlock.CreateReturn(f.ValuePseudo(2))
	d.CreateReturn(f.ValuePseudo(3))

	Simplify(f)

	term := entry.Terminator()
	if term == nil || term.Op != types.BR || term.True != bBlock {
		t.Fatalf("expected an unconditional branch to B, got %v", term)
	}
	if len(entry.Children) != 1 || entry.Children[0] != bBlock {
		t.Fatalf("expected every edge but entry->B to be pruned, got %v", entry.Children)
	}
}

// TestSimplifyIsIdempotent re-runs Simplify over an already-fixed-point
// function and checks that nothing changes the second time.
func TestSimplifyIsIdempotent(t *testing.T) {
	_, f := newTestFunction(t)
	x := f.CreateArg(0)
	b := f.Entry
	t1 := b.CreateBinary(types.ADD, 32, f.ValuePseudo(3), x)
	t2 := b.CreateBinary(types.ADD, 32, t1.Target, f.ValuePseudo(4))
	b.CreateReturn(t2.Target)

	Simplify(f)
	before := make([]*Instruction, len(b.Insns))
	copy(before, b.Insns)

	mask := Simplify(f)
	if mask.Any() {
		t.Fatalf("expected a second simplify pass to raise nothing, got mask %v", mask)
	}
	if len(b.Insns) != len(before) {
		t.Fatalf("expected instruction count to stay stable across a repeat pass")
	}
	for i := range before {
		if b.Insns[i] != before[i] {
			t.Fatalf("expected the same instructions in the same order after a repeat pass")
		}
	}
}

// TestAsrOverflowShiftFoldsToZero covers the boundary rule "asr x, w with
// w == operand_size(x) folds to 0 and warns".
func TestAsrOverflowShiftFoldsToZero(t *testing.T) {
	_, f := newTestFunction(t)
	x := f.CreateArg(0)
	b := f.Entry

	asr := b.CreateBinary(types.ASR, 8, x, f.ValuePseudo(8))
	b.CreateReturn(asr.Target)

	rec := &RecordingSink{}
	f.M.Diag = rec

	Simplify(f)

	ret := b.Insns[len(b.Insns)-1]
	if !ret.Src1.IsVal(0) {
		t.Fatalf("expected the overflowing shift to fold to 0, got %s", ret.Src1)
	}
	if len(rec.Diagnostics) == 0 {
		t.Fatalf("expected a warning about the overflowing shift amount")
	}
}

// TestDivsIntMinByNegOneNotFolded covers the boundary rule that INT_MIN /
// -1 is left unfolded, since the mathematical result does not fit back
// into the operand width.
func TestDivsIntMinByNegOneNotFolded(t *testing.T) {
	_, f := newTestFunction(t)
	b := f.Entry

	intMin32 := int64(-1) << 31
	div := b.CreateBinary(types.DIVS, 32, f.ValuePseudo(intMin32), f.ValuePseudo(-1))
	b.CreateReturn(div.Target)

	Simplify(f)

	if div.Dead() {
		t.Fatalf("INT_MIN / -1 must not be folded away")
	}
	if div.Op != types.DIVS {
		t.Fatalf("expected the division to remain a DIVS, got %s", div.Op)
	}
}

// TestVolatileLoadNeverKilled covers the boundary rule that a volatile
// LOAD survives even with no users.
func TestVolatileLoadNeverKilled(t *testing.T) {
	_, f := newTestFunction(t)
	b := f.Entry
	sym := &Symbol{Name: "G", Size: 4, Volatile: true}
	symaddr := b.CreateSymaddr(f.SymPseudo(sym))
	load := b.CreateLoad(32, symaddr.Target, 0, true)
	b.CreateReturn(nil)

	Simplify(f)

	if load.Dead() {
		t.Fatalf("expected the volatile load to survive despite having no users")
	}
}

// TestUnusedPureCallKilled and TestUnusedImpureCallKept cover the
// boundary rule distinguishing pure from impure calls under dead-code
// elimination.
func TestUnusedPureCallKilled(t *testing.T) {
	_, f := newTestFunction(t)
	b := f.Entry
	sym := &Symbol{Name: "pure_fn", Pure: true}
	call := b.CreateCall(types.CALL, f.SymPseudo(sym), nil, nil, types.Int)
	b.CreateReturn(f.ValuePseudo(0))

	Simplify(f)

	if !call.Dead() {
		t.Fatalf("expected an unused call to a pure function to be killed")
	}
}

func TestUnusedImpureCallKept(t *testing.T) {
	_, f := newTestFunction(t)
	b := f.Entry
	sym := &Symbol{Name: "impure_fn", Pure: false}
	call := b.CreateCall(types.CALL, f.SymPseudo(sym), nil, nil, types.Int)
	b.CreateReturn(f.ValuePseudo(0))

	Simplify(f)

	if call.Dead() {
		t.Fatalf("expected an unused call to an impure function to survive")
	}
}
