package ssa

import (
	"fmt"
	"strings"

	"go.uber.org/atomic"
	"midir/src/ir/ssa/types"
)

// Function is an entrypoint: a name, an entry block, the list of blocks
// reachable from it, the symbol table of locals, and a phi-accesses list
// mem2reg (external, out of core scope) consumes.
type Function struct {
	M           *Module
	Name        string
	Entry       *Block
	Blocks      []*Block
	Locals      map[string]*Symbol
	PhiAccesses []*Instruction
	RetType     types.DataType
	Args        []*Pseudo

	// CFGCleanupPending is set once Simplify raises RepeatCFGCleanup and
	// stays set until a driver host runs its own CFG cleanup and clears
	// it. Rules that would otherwise warn about a shape that a pending
	// edge removal or block merge could still resolve check this first.
	CFGCleanupPending bool

	blockSeq atomic.Uint64
	insnSeq  atomic.Uint64
	regSeq   atomic.Uint64

	interned map[int64]*Pseudo

	poCache    []*Block
	poValid    bool
	idomCache  map[*Block]*Block
	idomValid  bool
}

// CreateFunction creates a new function owned by m, with an entry block
// already attached.
func (m *Module) CreateFunction(name string, rtype types.DataType) *Function {
	f := &Function{
		Name:     name,
		Locals:   make(map[string]*Symbol, 8),
		RetType:  rtype,
		interned: make(map[int64]*Pseudo, 16),
	}
	f.M = m
	f.Entry = f.CreateBlock()
	m.addFunction(f)
	if m.DebugEntry {
		m.Diag.Emit(Diagnostic{Severity: SeverityWarning,
			Message: fmt.Sprintf("entry block%d created for function %s", f.Entry.id, name)})
	}
	return f
}

// CreateBlock allocates a new, empty, unparented block. Callers wire it
// into the CFG themselves via a terminator (CreateBranch,
// CreateConditionalBranch, ...).
func (f *Function) CreateBlock() *Block {
	b := &Block{F: f, id: f.blockSeq.Inc() - 1}
	f.Blocks = append(f.Blocks, b)
	f.invalidateCFG()
	return b
}

// CreateArg allocates the n-th formal parameter pseudo.
func (f *Function) CreateArg(n int) *Pseudo {
	p := &Pseudo{Kind: Arg, id: f.regSeq.Inc() - 1, Index: n}
	f.Args = append(f.Args, p)
	return p
}

// ValuePseudo returns the interned VAL pseudo for v: the same v always
// returns the same object.
func (f *Function) ValuePseudo(v int64) *Pseudo {
	if p, ok := f.interned[v]; ok {
		return p
	}
	p := &Pseudo{Kind: Val, Value: v}
	f.interned[v] = p
	return p
}

// SymPseudo wraps sym in a SYM pseudo. Unlike VAL, symbol pseudos are not
// interned here: linearize is expected to hand out one SYM pseudo per
// declaration and share it itself.
func (f *Function) SymPseudo(sym *Symbol) *Pseudo {
	return &Pseudo{Kind: Sym, id: f.regSeq.Inc() - 1, Sym: sym}
}

// allocReg creates and returns a fresh REG pseudo defined by insn. It does
// not install it as insn's target; callers assign the result to
// insn.Target themselves, and only for opcodes that produce a result.
func (f *Function) allocReg(insn *Instruction) *Pseudo {
	p := &Pseudo{Kind: Reg, id: f.regSeq.Inc() - 1, Def: insn}
	return p
}

// allocPhi creates a fresh PHI pseudo defined by insn, the PHI node whose
// result it is.
func (f *Function) allocPhi(insn *Instruction) *Pseudo {
	p := &Pseudo{Kind: Phi, id: f.regSeq.Inc() - 1, Def: insn}
	return p
}

func (f *Function) nextInsnID() uint64 { return f.insnSeq.Inc() - 1 }

// invalidateCFG drops any cached reverse-postorder/dominator information.
// Every structural CFG edit (adding or removing a block edge) must call
// this; the fixed-point driver recomputes lazily on next use, the same
// "cachedPostorder = nil on invalidateCFG" idiom used by the postorder
// cache in Go's own SSA backend.
func (f *Function) invalidateCFG() {
	f.poCache = nil
	f.poValid = false
	f.idomCache = nil
	f.idomValid = false
}

func (f *Function) String() string {
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "function %s(", f.Name)
	for i, a := range f.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s", a)
	}
	fmt.Fprintf(&sb, "): %s {\n", f.RetType)
	for _, b := range f.Blocks {
		sb.WriteString(b.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}
