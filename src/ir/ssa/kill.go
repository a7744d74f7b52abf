package ssa

import (
	"fmt"

	"midir/src/ir/ssa/types"
)

// killInsn removes insn safely. Per the side-effect guard, without
// force: STORE is never killed; LOAD from a volatile-qualified symbol is
// never killed; CALL is killed only when its callee is a statically known,
// pure symbol. On success it detaches insn's operand uses (per the
// opcode's operand shape), clears insn.BB, removes it from its block's
// instruction list, and reports true.
func killInsn(insn *Instruction, force bool) bool {
	if insn.Dead() {
		return false
	}
	if !force && !killableWithoutForce(insn) {
		return false
	}

	killOperands(insn)

	bb := insn.BB
	if bb.F.M.DebugDead {
		bb.F.M.Diag.Emit(Diagnostic{Severity: SeverityWarning,
			Message: fmt.Sprintf("killed %s in block%d of %s", insn, bb.id, bb.F.Name)})
	}
	insn.BB = nil
	bb.Remove(insn)
	return true
}

// killableWithoutForce implements the instruction killer's side-effect guard.
func killableWithoutForce(insn *Instruction) bool {
	switch insn.Op {
	case types.STORE:
		return false
	case types.LOAD:
		return !insn.Volatile
	case types.CALL, types.INLINED_CALL:
		return isPureCall(insn)
	default:
		return true
	}
}

// isPureCall reports whether insn calls a statically known symbol marked
// pure, the only condition under which an unforced kill may remove a call.
func isPureCall(insn *Instruction) bool {
	if insn.Func == nil || insn.Func.Kind != Sym || insn.Func.Sym == nil {
		return false
	}
	return insn.Func.Sym.Pure
}

// killOperands detaches every use insn holds, dispatching on the opcode's
// structural category exactly as simplify.c's kill_insn does.
func killOperands(insn *Instruction) {
	switch {
	case insn.Op.InTerminatorRange():
		switch insn.Op {
		case types.RET:
			removeUse(&insn.Src1)
		case types.CBR:
			removeUse(&insn.Cond)
		case types.SWITCH:
			removeUse(&insn.Src1)
		}
		// BR and COMPUTEDGOTO hold no pseudo operands.
	case insn.Op.InBinaryRange() || insn.Op.IsCompare():
		removeUse(&insn.Src1)
		removeUse(&insn.Src2)
	case insn.Op == types.SEL:
		removeUse(&insn.Src1)
		removeUse(&insn.Src2)
		removeUse(&insn.Src3)
	case insn.Op == types.NOT || insn.Op == types.NEG || insn.Op == types.FNEG:
		removeUse(&insn.Src)
	case insn.Op == types.CAST || insn.Op == types.SCAST || insn.Op == types.FPCAST || insn.Op == types.PTRCAST:
		removeUse(&insn.Src)
	case insn.Op == types.LOAD:
		removeUse(&insn.Src)
	case insn.Op == types.STORE:
		removeUse(&insn.Src)
		removeUse(&insn.Src2)
	case insn.Op == types.SYMADDR:
		removeUse(&insn.Sym)
	case insn.Op == types.SETVAL:
		removeUse(&insn.Src1)
	case insn.Op == types.PHI:
		for i := range insn.PhiOperands {
			removeUse(&insn.PhiOperands[i])
		}
	case insn.Op == types.PHISOURCE:
		removeUse(&insn.PhiSrc)
		for _, user := range insn.PhiUsers {
			for i, op := range user.PhiOperands {
				if op == insn.Target {
					user.PhiOperands[i] = voidPseudo
				}
			}
		}
	case insn.Op == types.CALL || insn.Op == types.INLINED_CALL:
		removeUse(&insn.Func)
		for i := range insn.Args {
			removeUse(&insn.Args[i])
		}
	}
}

// deadInsn is the shorthand simplify.c calls from nearly every rule as
// its first check: if insn.target has no users, kill the operand uses
// named in slots and mark the instruction dead. It reports whether the
// kill happened.
func deadInsn(insn *Instruction, slots ...**Pseudo) bool {
	if insn.Target == nil || len(insn.Target.users) > 0 {
		return false
	}
	for _, s := range slots {
		removeUse(s)
	}
	bb := insn.BB
	insn.BB = nil
	bb.Remove(insn)
	return true
}
