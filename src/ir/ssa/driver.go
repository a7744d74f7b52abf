package ssa

// Simplify runs the fixed-point driver over f: each outer iteration
// clears the repeat mask, visits every reachable block in reverse
// postorder, offers each instruction in the block to simplifyInstruction,
// and ORs the result into the mask. The driver exits once an iteration
// raises nothing. The union of every mask raised across the whole run is
// returned so a driver host can decide whether SYMBOL_CLEANUP or
// CFG_CLEANUP passes need to run afterward.
func Simplify(f *Function) RepeatMask {
	var total RepeatMask
	for {
		var mask RepeatMask
		for _, b := range reversePostorder(f) {
			// Snapshot the block's instruction list before visiting it:
			// if-conversion and branch/switch folding splice new
			// instructions into a block or remove its terminator while a
			// rule for an earlier instruction in the same block is still
			// running, and the snapshot keeps this iteration from either
			// skipping or double-visiting an instruction because of it.
			// Instructions inserted mid-pass are picked up on the next
			// outer iteration, once the mask that triggered their
			// insertion forces a re-run.
			insns := make([]*Instruction, len(b.Insns))
			copy(insns, b.Insns)
			for _, insn := range insns {
				if insn.Dead() {
					continue
				}
				m := simplifyInstruction(insn, f)
				if m&RepeatCFGCleanup != 0 {
					f.CFGCleanupPending = true
				}
				mask |= m
			}
		}
		total |= mask
		if !mask.Any() {
			break
		}
	}
	return total
}

// SimplifyModule runs Simplify over every function in m, in the order they
// were created, and returns the union of every function's repeat mask.
func SimplifyModule(m *Module) RepeatMask {
	var total RepeatMask
	for _, f := range m.Functions() {
		total |= Simplify(f)
	}
	return total
}
