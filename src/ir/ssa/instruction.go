package ssa

import (
	"fmt"
	"strings"

	"go.lsp.dev/protocol"
	"midir/src/ir/ssa/types"
)

// SwitchCase is one entry of a SWITCH instruction's jump table: the range
// [Low, High] of selector values that jump to Target. A "default" entry is
// encoded with Low > High, per linearize's own representation.
type SwitchCase struct {
	Low, High int64
	Target    *Block
}

// Instruction is a single tagged record keyed by Op. Rather than one Go
// type per opcode, the payload fields below double as the union
// linearize.h expresses with a bitfield header and a C union: only the
// fields relevant to Op are ever populated, and the simplifier's dispatch
// (by opcode, or by opcode range) is the only thing that knows which ones
// to look at.
type Instruction struct {
	Op     types.Opcode
	Target *Pseudo // result pseudo, nil if the instruction produces none
	Type   types.DataType
	Size   uint8 // bit width of the result / of the dominant operand
	Signed bool

	BB  *Block // owning block; nil means the instruction is deleted
	Pos protocol.Position

	id uint64

	// Binary / compare / select.
	Src1 *Pseudo
	Src2 *Pseudo
	Src3 *Pseudo

	// Unary / cast.
	Src        *Pseudo
	OrigType   types.DataType
	OrigSize   uint8
	OrigSigned bool
	IsPtrCast  bool

	// Memory (LOAD/STORE). Src holds the base address and Offset the
	// folded displacement for both. LOAD additionally sets Target to the
	// loaded value; STORE has no Target and instead sets Src2 to the
	// value being stored. Volatile mirrors the addressed declaration's
	// VOLATILE modifier; the killer's side-effect guard consults it
	// directly rather than through the loaded value's pseudo, since
	// volatility is a property of the access, not of the register it
	// happens to land in.
	Offset   int64
	Volatile bool

	// Terminators.
	Cond  *Pseudo
	True  *Block
	False *Block
	Cases []SwitchCase

	// Phi-node: one operand pseudo per block parent, parallel to
	// BB.Parents. Phi-source: the single value being fed into some phi,
	// plus the back-list of PHI instructions consuming it.
	PhiOperands []*Pseudo
	PhiSrc      *Pseudo
	PhiUsers    []*Instruction

	// Call.
	Func     *Pseudo
	Args     []*Pseudo
	ArgTypes []types.DataType

	// Misc leaves.
	Str     string  // string literal / asm rule text
	Sym     *Pseudo // SYMADDR operand
	FVal    float64 // long-double literal (SETFVAL)
	Context string

	// RANGE (vestigial bounds-check hint): Src is the checked value, the
	// statically known range is [RangeLow, RangeHigh].
	RangeLow, RangeHigh int64
}

// ID returns the instruction's allocation sequence number.
func (i *Instruction) ID() uint64 { return i.id }

// Dead reports whether the instruction has been removed from its block.
// Per the data model, BB == nil is the sole marker of deletion; a dead
// instruction's operands must already have had their uses removed.
func (i *Instruction) Dead() bool { return i == nil || i.BB == nil }

// IsTerminator reports whether i ends a basic block.
func (i *Instruction) IsTerminator() bool { return i.Op.InTerminatorRange() }

func (i *Instruction) String() string {
	if i == nil {
		return "<nil>"
	}
	sb := strings.Builder{}
	if i.Target != nil {
		sb.WriteString(i.Target.String())
		sb.WriteString(" = ")
	}
	sb.WriteString(i.Op.String())
	switch {
	case i.Op.InTerminatorRange():
		switch i.Op {
		case types.RET:
			if i.Src1 != nil {
				fmt.Fprintf(&sb, " %s", i.Src1)
			}
		case types.BR:
			fmt.Fprintf(&sb, " block%d", blockID(i.True))
		case types.CBR:
			fmt.Fprintf(&sb, " %s, block%d, block%d", i.Cond, blockID(i.True), blockID(i.False))
		case types.SWITCH:
			fmt.Fprintf(&sb, " %s", i.Src1)
			for _, c := range i.Cases {
				if c.Low > c.High {
					fmt.Fprintf(&sb, ", default->block%d", blockID(c.Target))
				} else {
					fmt.Fprintf(&sb, ", [%d..%d]->block%d", c.Low, c.High, blockID(c.Target))
				}
			}
		}
	case i.Op.InBinaryRange() || i.Op.IsCompare():
		fmt.Fprintf(&sb, " %s, %s", i.Src1, i.Src2)
	case i.Op == types.SEL:
		fmt.Fprintf(&sb, " %s, %s, %s", i.Src1, i.Src2, i.Src3)
	case i.Op == types.NOT || i.Op == types.NEG || i.Op == types.FNEG:
		fmt.Fprintf(&sb, " %s", i.Src)
	case i.Op == types.CAST || i.Op == types.SCAST || i.Op == types.FPCAST || i.Op == types.PTRCAST:
		fmt.Fprintf(&sb, ".%d %s", i.Size, i.Src)
	case i.Op == types.LOAD:
		fmt.Fprintf(&sb, ".i%d [%s+%d]", i.Size, i.Src, i.Offset)
	case i.Op == types.STORE:
		fmt.Fprintf(&sb, ".i%d [%s+%d], %s", i.Size, i.Src, i.Offset, i.Src2)
	case i.Op == types.PHI:
		parts := make([]string, len(i.PhiOperands))
		for j, p := range i.PhiOperands {
			parts[j] = p.String()
		}
		fmt.Fprintf(&sb, " [%s]", strings.Join(parts, ", "))
	case i.Op == types.PHISOURCE:
		fmt.Fprintf(&sb, " %s", i.PhiSrc)
	case i.Op == types.SYMADDR:
		fmt.Fprintf(&sb, " %s", i.Sym)
	case i.Op == types.SETVAL:
		fmt.Fprintf(&sb, " %s", i.Src1)
	case i.Op == types.SETFVAL:
		fmt.Fprintf(&sb, " %g", i.FVal)
	case i.Op == types.CALL || i.Op == types.INLINED_CALL:
		parts := make([]string, len(i.Args))
		for j, a := range i.Args {
			parts[j] = a.String()
		}
		fmt.Fprintf(&sb, " %s(%s)", i.Func, strings.Join(parts, ", "))
	case i.Op == types.RANGE:
		fmt.Fprintf(&sb, " %s, [%d..%d]", i.Src, i.RangeLow, i.RangeHigh)
	case i.Op == types.COPY:
		fmt.Fprintf(&sb, " %s", i.Src)
	}
	return sb.String()
}

func blockID(b *Block) uint64 {
	if b == nil {
		return ^uint64(0)
	}
	return b.id
}
