package frontend

import (
	"testing"

	"midir/src/ir/ssa"
	"midir/src/ir/ssa/types"
)

// TestParseStructure checks that a small multi-block program with a
// conditional branch and a phi comes out of Parse with the shape the
// source spells: four blocks, the right number of predecessors feeding the
// phi, in the order their branches were parsed.
func TestParseStructure(t *testing.T) {
	src := `module m

func f(1) -> int:
block0:
    %r1 = set_eq.32 %arg0, 0
    cbr %r1, block1, block2
block1:
    %r2 = setval 10
    br block3
block2:
    %r3 = setval 20
    br block3
block3:
    %r4 = phi [%r2, %r3]
    ret %r4
`
	mod, err := Parse(src, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := mod.GetFunction("f")
	if f == nil {
		t.Fatalf("function %q not found", "f")
	}
	if len(f.Args) != 1 {
		t.Fatalf("expected 1 argument, got %d", len(f.Args))
	}
	if len(f.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(f.Blocks))
	}

	block3 := f.Blocks[3]
	if len(block3.Parents) != 2 {
		t.Fatalf("expected block3 to have 2 parents, got %d", len(block3.Parents))
	}
	if block3.Parents[0] != f.Blocks[1] || block3.Parents[1] != f.Blocks[2] {
		t.Fatalf("expected block3's parents in branch order [block1, block2]")
	}

	phi := block3.Insns[0]
	if phi.Op != types.PHI {
		t.Fatalf("expected block3's first instruction to be a phi, got %s", phi.Op)
	}
	if len(phi.PhiOperands) != 2 {
		t.Fatalf("expected 2 phi operands, got %d", len(phi.PhiOperands))
	}
}

// TestParseAndSimplifyDeadCode checks that an unused computation parsed
// from source is actually removed by Simplify, not just accepted by the
// parser.
func TestParseAndSimplifyDeadCode(t *testing.T) {
	src := `module m

func f(1) -> int:
block0:
    %r1 = add.32 %arg0, 1
    ret %arg0
`
	mod, err := Parse(src, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := mod.GetFunction("f")
	if len(f.Entry.Insns) != 2 {
		t.Fatalf("expected 2 instructions before simplification, got %d", len(f.Entry.Insns))
	}

	ssa.Simplify(f)

	if len(f.Entry.Insns) != 1 {
		t.Fatalf("expected the dead add to be removed, got %d instructions", len(f.Entry.Insns))
	}
	if f.Entry.Insns[0].Op != types.RET {
		t.Fatalf("expected the sole remaining instruction to be ret, got %s", f.Entry.Insns[0].Op)
	}
}

// TestParseUndefinedBlockReference checks that a dangling branch target
// reports a parse error instead of panicking.
func TestParseUndefinedBlockReference(t *testing.T) {
	src := `module m

func f(0) -> int:
block0:
    br nosuchblock
`
	if _, err := Parse(src, nil); err == nil {
		t.Fatal("expected an error referencing an undefined block, got nil")
	}
}
