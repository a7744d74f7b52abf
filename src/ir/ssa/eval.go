package ssa

import (
	"math"

	"midir/src/ir/ssa/types"
)

// maskFor returns the bitmask for a width-w quantity, and the sign bit at
// that width. w must be in [1,64].
func maskFor(w uint8) (mask, sign int64) {
	if w >= 64 {
		return -1, math.MinInt64
	}
	return (int64(1) << w) - 1, int64(1) << (w - 1)
}

// signExtend sign-extends the low w bits of v to a full int64, per
// eval_insn's (v ^ sign) - sign trick.
func signExtend(v int64, w uint8) int64 {
	mask, sign := maskFor(w)
	v &= mask
	return (v ^ sign) - sign
}

// zeroExtend returns the low w bits of v, unsigned.
func zeroExtend(v int64, w uint8) int64 {
	mask, _ := maskFor(w)
	return v & mask
}

// eval folds a binary or compare instruction over two VAL operands.
// It returns (result, true) on success; (nil, false) means "decline to
// fold", which the caller must treat identically to "no rule matched".
func eval(insn *Instruction, f *Function) (*Pseudo, bool) {
	if insn.Src1 == nil || insn.Src2 == nil || insn.Src1.Kind != Val || insn.Src2.Kind != Val {
		return nil, false
	}
	w := insn.Size
	if w == 0 {
		w = 64
	}
	mask, _ := maskFor(w)

	a, b := insn.Src1.Value, insn.Src2.Value

	switch insn.Op {
	case types.ADD:
		return f.ValuePseudo((a + b) & mask), true
	case types.SUB:
		return f.ValuePseudo((a - b) & mask), true
	case types.MUL:
		return f.ValuePseudo((a * b) & mask), true
	case types.DIVU:
		ub := zeroExtend(b, w)
		if ub == 0 {
			return nil, false
		}
		return f.ValuePseudo((zeroExtend(a, w) / ub) & mask), true
	case types.DIVS:
		sa, sb := signExtend(a, w), signExtend(b, w)
		if sb == 0 {
			return nil, false
		}
		_, sign := maskFor(w)
		if sa == -sign && sb == -1 {
			// INT_MIN / -1 is undefined regardless of platform
			// representation; see the Open Question decision in
			// DESIGN.md.
			return nil, false
		}
		return f.ValuePseudo((sa / sb) & mask), true
	case types.MODU:
		ub := zeroExtend(b, w)
		if ub == 0 {
			return nil, false
		}
		return f.ValuePseudo((zeroExtend(a, w) % ub) & mask), true
	case types.MODS:
		sa, sb := signExtend(a, w), signExtend(b, w)
		if sb == 0 {
			return nil, false
		}
		_, sign := maskFor(w)
		if sa == -sign && sb == -1 {
			return nil, false
		}
		return f.ValuePseudo((sa % sb) & mask), true
	case types.SHL:
		return f.ValuePseudo((a << uint64(b)) & mask), true
	case types.LSR:
		return f.ValuePseudo((zeroExtend(a, w) >> uint64(b)) & mask), true
	case types.ASR:
		if uint8(b) >= w {
			return nil, false // caller warns and folds to 0 via the boundary rule, not here
		}
		return f.ValuePseudo((signExtend(a, w) >> uint64(b)) & mask), true
	case types.AND:
		return f.ValuePseudo(a & b & mask), true
	case types.OR:
		return f.ValuePseudo((a | b) & mask), true
	case types.XOR:
		return f.ValuePseudo((a ^ b) & mask), true
	case types.AND_BOOL:
		return f.ValuePseudo(boolVal(a != 0 && b != 0)), true
	case types.OR_BOOL:
		return f.ValuePseudo(boolVal(a != 0 || b != 0)), true

	case types.SET_EQ:
		return f.ValuePseudo(boolVal(zeroExtend(a, w) == zeroExtend(b, w))), true
	case types.SET_NE:
		return f.ValuePseudo(boolVal(zeroExtend(a, w) != zeroExtend(b, w))), true
	case types.SET_LT:
		return f.ValuePseudo(boolVal(signExtend(a, w) < signExtend(b, w))), true
	case types.SET_LE:
		return f.ValuePseudo(boolVal(signExtend(a, w) <= signExtend(b, w))), true
	case types.SET_GT:
		return f.ValuePseudo(boolVal(signExtend(a, w) > signExtend(b, w))), true
	case types.SET_GE:
		return f.ValuePseudo(boolVal(signExtend(a, w) >= signExtend(b, w))), true
	case types.SET_B:
		return f.ValuePseudo(boolVal(zeroExtend(a, w) < zeroExtend(b, w))), true
	case types.SET_BE:
		return f.ValuePseudo(boolVal(zeroExtend(a, w) <= zeroExtend(b, w))), true
	case types.SET_A:
		return f.ValuePseudo(boolVal(zeroExtend(a, w) > zeroExtend(b, w))), true
	case types.SET_AE:
		return f.ValuePseudo(boolVal(zeroExtend(a, w) >= zeroExtend(b, w))), true
	}

	// Floating-point ops (FADD..FDIV, FCMP_*, FNEG) are never folded here;
	// floating-point constant folding is out of scope.
	return nil, false
}

// evalUnary folds NOT/NEG over a single VAL operand.
func evalUnary(insn *Instruction, f *Function) (*Pseudo, bool) {
	if insn.Src == nil || insn.Src.Kind != Val {
		return nil, false
	}
	w := insn.Size
	if w == 0 {
		w = 64
	}
	mask, _ := maskFor(w)
	v := insn.Src.Value
	switch insn.Op {
	case types.NOT:
		return f.ValuePseudo((^v) & mask), true
	case types.NEG:
		return f.ValuePseudo((-v) & mask), true
	}
	return nil, false
}

func boolVal(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
