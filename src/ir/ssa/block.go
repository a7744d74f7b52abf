package ssa

import (
	"fmt"
	"strings"

	"midir/src/ir/ssa/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Block is a basic block: an ordered instruction sequence, terminated
// when well-formed by exactly one instruction in the terminator range, with
// parent (predecessor) and child (successor) edges to its neighbors.
type Block struct {
	F        *Function
	id       uint64
	Insns    []*Instruction
	Parents  []*Block
	Children []*Block
}

// labelBlockPrefix is used when rendering a block's textual label.
const labelBlockPrefix = "block"

// Id returns the block's unique identifier within its function.
func (b *Block) Id() uint64 { return b.id }

// Terminator returns the block's terminating instruction, or nil if the
// block is currently ill-formed (empty, or its last instruction is not a
// terminator).
func (b *Block) Terminator() *Instruction {
	if len(b.Insns) == 0 {
		return nil
	}
	last := b.Insns[len(b.Insns)-1]
	if !last.IsTerminator() {
		return nil
	}
	return last
}

// WellFormed reports whether the block ends with exactly one terminator,
// per the "block well-formedness" testable property. An empty block is
// trivially well-formed (it has not been terminated yet, typically because
// it is being built).
func (b *Block) WellFormed() bool {
	if len(b.Insns) == 0 {
		return true
	}
	for _, insn := range b.Insns[:len(b.Insns)-1] {
		if insn.IsTerminator() {
			return false
		}
	}
	return b.Insns[len(b.Insns)-1].IsTerminator()
}

// Append places insn at the end of the block's instruction list and wires
// its BB back-pointer. It does not touch use-def state; callers build
// instructions through the Create* helpers, which call use() for every
// operand themselves.
func (b *Block) Append(insn *Instruction) {
	insn.BB = b
	b.Insns = append(b.Insns, insn)
}

// InsertBefore splices insn into the block immediately before mark. Used
// by insertSelect (see insert.go), which if-conversion calls to
// materialize a SEL ahead of a block's existing terminator, and by
// cloneCompareWithOp.
func (b *Block) InsertBefore(mark, insn *Instruction) {
	for i, e := range b.Insns {
		if e == mark {
			b.Insns = append(b.Insns[:i], append([]*Instruction{insn}, b.Insns[i:]...)...)
			insn.BB = b
			return
		}
	}
	b.Append(insn)
}

// Remove physically detaches insn from the block's instruction list. The
// killer calls this after it has already cleared insn's operand uses and
// set insn.BB = nil.
func (b *Block) Remove(insn *Instruction) {
	for i, e := range b.Insns {
		if e == insn {
			b.Insns = append(b.Insns[:i], b.Insns[i+1:]...)
			return
		}
	}
}

// addChild records dst as a successor of b and b as a parent of dst,
// unless the edge already exists.
func (b *Block) addChild(dst *Block) {
	for _, c := range b.Children {
		if c == dst {
			return
		}
	}
	b.Children = append(b.Children, dst)
	dst.Parents = append(dst.Parents, b)
}

// removeChild deletes one occurrence of the b->dst edge (both directions).
// It removes at most one matching parent entry on dst, per the branch
// simplification rule that collapses a duplicate CBR edge rather than
// every occurrence of it.
func (b *Block) removeChild(dst *Block) {
	for i, c := range b.Children {
		if c == dst {
			b.Children = append(b.Children[:i], b.Children[i+1:]...)
			break
		}
	}
	for i, p := range dst.Parents {
		if p == b {
			dst.Parents = append(dst.Parents[:i], dst.Parents[i+1:]...)
			break
		}
	}
	b.F.invalidateCFG()
}

func (b *Block) String() string {
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "%s%d:\n", labelBlockPrefix, b.id)
	for _, insn := range b.Insns {
		if insn.Dead() {
			continue
		}
		sb.WriteRune('\t')
		sb.WriteString(insn.String())
		sb.WriteRune('\n')
	}
	if b.Terminator() == nil {
		sb.WriteString("\t; error: basic block is not terminated\n")
	}
	return sb.String()
}

// ----- Create* builders -----
//
// Every builder appends the new instruction to the block, wires its
// operand uses through use() and bumps the function's repeat phase when
// appropriate is left to the caller (construction itself never sets
// repeat flags; only simplification does).

func (b *Block) newInsn(op types.Opcode) *Instruction {
	insn := &Instruction{Op: op, id: b.F.nextInsnID()}
	return insn
}

// CreateBinary creates a binary instruction of the given opcode with the
// two operands wired through use-def.
func (b *Block) CreateBinary(op types.Opcode, size uint8, src1, src2 *Pseudo) *Instruction {
	insn := b.newInsn(op)
	insn.Size = size
	insn.Type = types.Int
	b.Append(insn)
	use(insn, &insn.Src1, src1)
	use(insn, &insn.Src2, src2)
	insn.Target = b.F.allocReg(insn)
	return insn
}

// CreateCompare creates a compare instruction (integer or floating-point).
func (b *Block) CreateCompare(op types.Opcode, size uint8, src1, src2 *Pseudo) *Instruction {
	insn := b.CreateBinary(op, size, src1, src2)
	insn.Op = op
	return insn
}

// CreateUnary creates a NOT/NEG/FNEG instruction.
func (b *Block) CreateUnary(op types.Opcode, size uint8, src *Pseudo) *Instruction {
	insn := b.newInsn(op)
	insn.Size = size
	insn.Type = types.Int
	b.Append(insn)
	use(insn, &insn.Src, src)
	insn.Target = b.F.allocReg(insn)
	return insn
}

// CreateSelect creates a SEL ternary-select instruction.
func (b *Block) CreateSelect(size uint8, cond, ifTrue, ifFalse *Pseudo) *Instruction {
	insn := b.newInsn(types.SEL)
	insn.Size = size
	insn.Type = types.Int
	b.Append(insn)
	use(insn, &insn.Src1, cond)
	use(insn, &insn.Src2, ifTrue)
	use(insn, &insn.Src3, ifFalse)
	insn.Target = b.F.allocReg(insn)
	return insn
}

// CreateLoad creates a LOAD from base address src at the given offset.
func (b *Block) CreateLoad(size uint8, src *Pseudo, offset int64, volatile bool) *Instruction {
	insn := b.newInsn(types.LOAD)
	insn.Size = size
	insn.Type = types.Int
	insn.Offset = offset
	insn.Volatile = volatile
	b.Append(insn)
	use(insn, &insn.Src, src)
	insn.Target = b.F.allocReg(insn)
	return insn
}

// CreateStore creates a STORE of val to base address dst at the given
// offset.
func (b *Block) CreateStore(size uint8, val, dst *Pseudo, offset int64) *Instruction {
	insn := b.newInsn(types.STORE)
	insn.Size = size
	insn.Offset = offset
	b.Append(insn)
	use(insn, &insn.Src2, val)
	use(insn, &insn.Src, dst)
	return insn
}

// CreateCast creates a CAST/SCAST/FPCAST/PTRCAST.
func (b *Block) CreateCast(op types.Opcode, dstSize uint8, srcType types.DataType, srcSize uint8, src *Pseudo) *Instruction {
	insn := b.newInsn(op)
	insn.Size = dstSize
	insn.Type = types.Int
	insn.OrigType = srcType
	insn.OrigSize = srcSize
	b.Append(insn)
	use(insn, &insn.Src, src)
	insn.Target = b.F.allocReg(insn)
	return insn
}

// CreateSymaddr creates a SYMADDR referencing sym.
func (b *Block) CreateSymaddr(sym *Pseudo) *Instruction {
	insn := b.newInsn(types.SYMADDR)
	insn.Type = types.Pointer
	b.Append(insn)
	use(insn, &insn.Sym, sym)
	insn.Target = b.F.allocReg(insn)
	return insn
}

// CreateSetval materializes a VAL into a fresh REG.
func (b *Block) CreateSetval(v *Pseudo) *Instruction {
	insn := b.newInsn(types.SETVAL)
	insn.Type = types.Int
	b.Append(insn)
	use(insn, &insn.Src1, v)
	insn.Target = b.F.allocReg(insn)
	return insn
}

// CreateReturn creates a RET terminator and links the block to no
// children (a return leaves the function).
func (b *Block) CreateReturn(val *Pseudo) *Instruction {
	insn := b.newInsn(types.RET)
	b.Append(insn)
	if val != nil {
		use(insn, &insn.Src1, val)
	}
	return insn
}

// CreateBranch creates an unconditional BR to dst and links the CFG edge.
func (b *Block) CreateBranch(dst *Block) *Instruction {
	insn := b.newInsn(types.BR)
	insn.True = dst
	b.Append(insn)
	b.addChild(dst)
	return insn
}

// CreateConditionalBranch creates a CBR on cond, branching to ifTrue or
// ifFalse, and links both CFG edges.
func (b *Block) CreateConditionalBranch(cond *Pseudo, ifTrue, ifFalse *Block) *Instruction {
	insn := b.newInsn(types.CBR)
	insn.True = ifTrue
	insn.False = ifFalse
	b.Append(insn)
	use(insn, &insn.Cond, cond)
	b.addChild(ifTrue)
	b.addChild(ifFalse)
	return insn
}

// CreateSwitch creates a SWITCH on selector and links an edge to every
// distinct target named by cases.
func (b *Block) CreateSwitch(selector *Pseudo, cases []SwitchCase) *Instruction {
	insn := b.newInsn(types.SWITCH)
	insn.Cases = cases
	b.Append(insn)
	use(insn, &insn.Src1, selector)
	seen := map[*Block]bool{}
	for _, c := range cases {
		if !seen[c.Target] {
			seen[c.Target] = true
			b.addChild(c.Target)
		}
	}
	return insn
}

// CreatePhi creates a PHI with one operand slot per block parent, all
// initially VOID.
func (b *Block) CreatePhi() *Instruction {
	insn := b.newInsn(types.PHI)
	insn.Type = types.Int
	insn.PhiOperands = make([]*Pseudo, len(b.Parents))
	b.Insns = append([]*Instruction{insn}, b.Insns...)
	insn.BB = b
	insn.Target = b.F.allocPhi(insn)
	for i := range insn.PhiOperands {
		use(insn, &insn.PhiOperands[i], voidPseudo)
	}
	return insn
}

// SetPhiOperand rebinds insn's i-th phi operand to v, the entry point
// external builders (the assembler frontend, standing in for linearize)
// use to fill in operands CreatePhi initialized to VOID.
func SetPhiOperand(insn *Instruction, i int, v *Pseudo) {
	removeUse(&insn.PhiOperands[i])
	use(insn, &insn.PhiOperands[i], v)
}

// CreateSetfval materializes a floating-point literal into a fresh REG.
func (b *Block) CreateSetfval(v float64) *Instruction {
	insn := b.newInsn(types.SETFVAL)
	insn.Type = types.Float
	insn.FVal = v
	b.Append(insn)
	insn.Target = b.F.allocReg(insn)
	return insn
}

// CreateRange attaches a statically known bounds hint [low, high] to src,
// passing it through to a fresh REG. The simplifier folds the RANGE away
// once src is a VAL pseudo inside the stated bounds.
func (b *Block) CreateRange(src *Pseudo, low, high int64) *Instruction {
	insn := b.newInsn(types.RANGE)
	insn.Type = types.Int
	insn.RangeLow = low
	insn.RangeHigh = high
	b.Append(insn)
	use(insn, &insn.Src, src)
	insn.Target = b.F.allocReg(insn)
	return insn
}

// CreateCopy creates a COPY, a bare identity alias for src that the
// simplifier bypasses unconditionally via target replacement.
func (b *Block) CreateCopy(src *Pseudo) *Instruction {
	insn := b.newInsn(types.COPY)
	insn.Type = types.Int
	b.Append(insn)
	use(insn, &insn.Src, src)
	insn.Target = b.F.allocReg(insn)
	return insn
}

// CreateCall creates a CALL or INLINED_CALL to fn with the given arguments.
// retType == types.Void produces no result pseudo, matching a void call's
// inability to be dead-code eliminated through deadInsn (it has no target
// to check a use list on).
func (b *Block) CreateCall(op types.Opcode, fn *Pseudo, args []*Pseudo, argTypes []types.DataType, retType types.DataType) *Instruction {
	insn := b.newInsn(op)
	insn.Type = retType
	insn.ArgTypes = argTypes
	insn.Args = make([]*Pseudo, len(args))
	b.Append(insn)
	use(insn, &insn.Func, fn)
	for i, a := range args {
		use(insn, &insn.Args[i], a)
	}
	if retType != types.Void {
		insn.Target = b.F.allocReg(insn)
	}
	return insn
}
