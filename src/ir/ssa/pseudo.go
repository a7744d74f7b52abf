package ssa

import "fmt"

// PseudoKind discriminates the variant a Pseudo holds, per the SSA value
// handle described in the data model: VOID, VAL, SYM, REG, ARG, PHI.
type PseudoKind uint8

const (
	// Void is the sentinel for "no value / deleted operand".
	Void PseudoKind = iota
	// Val is an interned integer literal.
	Val
	// Sym references a named declaration: global, function or string
	// literal.
	Sym
	// Reg is a temporary defined by exactly one instruction.
	Reg
	// Arg is the n-th formal parameter of the current function.
	Arg
	// Phi is the result of a PHI node (CreatePhi allocates it as the node's
	// target) and may be used by any instruction. No builder creates
	// phi-source instructions; a PHI's operands are ordinary pseudos.
	Phi
)

func (k PseudoKind) String() string {
	switch k {
	case Void:
		return "void"
	case Val:
		return "val"
	case Sym:
		return "sym"
	case Reg:
		return "reg"
	case Arg:
		return "arg"
	case Phi:
		return "phi"
	default:
		return fmt.Sprintf("pseudokind(%d)", k)
	}
}

// Symbol is the metadata linearize attaches to a named declaration: a
// global, a function, or a string literal. is_ptr_type, is_float_type, bit
// size, signedness and the VOLATILE/PURE modifiers are all consumed from
// here by the evaluator and the killer's side-effect guard.
type Symbol struct {
	Name     string
	Pointer  bool
	Float    bool
	Size     uint8
	Signed   bool
	Volatile bool
	Pure     bool
}

// voidPseudo is the single shared VOID sentinel. VOID carries no use list
// and no identity beyond "no value here", so one instance suffices for an
// entire module.
var voidPseudo = &Pseudo{Kind: Void}

// VoidPseudo returns the shared VOID sentinel pseudo.
func VoidPseudo() *Pseudo { return voidPseudo }

// Use is one entry of a pseudo's user list: the instruction holding the
// use, and a pointer directly at the operand slot inside it. The slot
// pointer is what lets replaceTarget and switchPseudo rewire a use without
// searching the instruction for which field holds the pseudo.
type Use struct {
	Insn *Instruction
	Slot **Pseudo
}

// Pseudo is a polymorphic SSA value handle. Only Reg, Arg and Phi carry a
// non-nil Def or an Index as appropriate; only pseudos for which HasUseList
// reports true ever have a non-nil users slice.
type Pseudo struct {
	Kind PseudoKind
	id   uint64

	Value int64   // Val
	Sym   *Symbol // Sym: the referenced declaration
	Index int     // Arg: formal-parameter position

	Def *Instruction // Reg: the one instruction defining it
	                  // Phi: the PHI node whose result it is

	users []Use
}

// ID returns the pseudo's allocation sequence number. It is meaningful as
// a tie-break for canonical ordering between two REG pseudos that are
// otherwise indistinguishable (linearize.h orders these by pseudo->nr).
func (p *Pseudo) ID() uint64 { return p.id }

// HasUseList reports whether p accumulates a user list at all. VOID and
// VAL pseudos never do.
func (p *Pseudo) HasUseList() bool {
	return p != nil && p.Kind != Void && p.Kind != Val
}

// Users returns p's current use list. Callers must not mutate the
// returned slice; go through the use-def primitives in usedef.go instead.
func (p *Pseudo) Users() []Use { return p.users }

// IsVal reports whether p is a VAL pseudo equal to v.
func (p *Pseudo) IsVal(v int64) bool { return p != nil && p.Kind == Val && p.Value == v }

func (p *Pseudo) String() string {
	if p == nil {
		return "<nil>"
	}
	switch p.Kind {
	case Void:
		return "VOID"
	case Val:
		return fmt.Sprintf("%d", p.Value)
	case Sym:
		if p.Sym != nil {
			return p.Sym.Name
		}
		return "<sym>"
	case Reg:
		return fmt.Sprintf("%%r%d", p.id)
	case Arg:
		return fmt.Sprintf("%%arg%d", p.Index)
	case Phi:
		return fmt.Sprintf("%%phi%d", p.id)
	default:
		return "<bad-pseudo>"
	}
}

// appendUser records that insn holds p in the operand slot identified by
// slot. Callers should use the use() primitive in usedef.go rather than
// calling this directly.
func (p *Pseudo) appendUser(insn *Instruction, slot **Pseudo) {
	p.users = append(p.users, Use{Insn: insn, Slot: slot})
}

// removeUser removes the first user entry matching slot. It is a no-op if
// no such entry exists.
func (p *Pseudo) removeUser(slot **Pseudo) {
	for i, u := range p.users {
		if u.Slot == slot {
			p.users = append(p.users[:i], p.users[i+1:]...)
			return
		}
	}
}
