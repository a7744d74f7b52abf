package ssa

// RepeatMask is the bitset the fixed-point driver ORs across every
// instruction it offers to the simplifier. A non-zero mask after a full
// pass means at least one rule fired and another scan may find more.
type RepeatMask uint8

const (
	// RepeatCSE marks that a rewrite created or exposed a redundant
	// computation a later scan might fold or common.
	RepeatCSE RepeatMask = 1 << iota
	// RepeatSymbolCleanup marks that a symbol (typically a local whose
	// last use just vanished) may now be eligible for removal by mem2reg.
	RepeatSymbolCleanup
	// RepeatCFGCleanup marks that an edge was pruned or a block emptied,
	// and CFG simplification (outside the core) should run again.
	RepeatCFGCleanup
)

// Any reports whether any flag is set.
func (r RepeatMask) Any() bool { return r != 0 }
