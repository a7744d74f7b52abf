package ssa

import (
	"fmt"
	"strings"
)

// postorder computes a postorder traversal of the blocks reachable from
// f.Entry using an explicit stack rather than recursion, the same shape as
// cmd/compile/internal/ssa's postorder walk (the Go compiler's own
// backend, vendored standalone in the retrieval pack): each stack frame
// remembers how far it has advanced through its block's children so the
// walk can resume without recursing.
func postorder(f *Function) []*Block {
	if f.Entry == nil {
		return nil
	}
	type frame struct {
		b *Block
		i int
	}
	seen := make(map[*Block]bool, len(f.Blocks))
	order := make([]*Block, 0, len(f.Blocks))
	stack := []frame{{f.Entry, 0}}
	seen[f.Entry] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.i < len(top.b.Children) {
			c := top.b.Children[top.i]
			top.i++
			if !seen[c] {
				seen[c] = true
				stack = append(stack, frame{c, 0})
			}
			continue
		}
		order = append(order, top.b)
		stack = stack[:len(stack)-1]
	}
	return order
}

// reversePostorder returns f's reachable blocks in reverse postorder,
// caching the result until the next CFG edit invalidates it (see
// Function.invalidateCFG).
func reversePostorder(f *Function) []*Block {
	if f.poValid {
		return f.poCache
	}
	po := postorder(f)
	rpo := make([]*Block, len(po))
	for i, b := range po {
		rpo[len(po)-1-i] = b
	}
	f.poCache = rpo
	f.poValid = true
	if f.M != nil && f.M.DebugPostorder {
		names := make([]string, len(rpo))
		for i, b := range rpo {
			names[i] = fmt.Sprintf("block%d", b.id)
		}
		f.M.Diag.Emit(Diagnostic{Severity: SeverityWarning,
			Message: fmt.Sprintf("%s reverse postorder: [%s]", f.Name, strings.Join(names, ", "))})
	}
	return rpo
}

// idom computes the immediate dominator of every reachable block using the
// iterative data-flow algorithm from cmd/compile/internal/ssa's dom.go
// (Cooper, Harvey & Kennedy's "A Simple, Fast Dominance Algorithm").
// Nothing in the simplifier currently consumes this; it is exposed for the
// driver host's later passes (mem2reg-style promotion needs dominance and
// is out of core scope).
func idom(f *Function) map[*Block]*Block {
	if f.idomValid {
		return f.idomCache
	}
	rpo := reversePostorder(f)
	if len(rpo) == 0 {
		f.idomCache = map[*Block]*Block{}
		f.idomValid = true
		return f.idomCache
	}
	index := make(map[*Block]int, len(rpo))
	for i, b := range rpo {
		index[b] = i
	}

	doms := make(map[*Block]*Block, len(rpo))
	doms[rpo[0]] = rpo[0]
	changed := true
	for changed {
		changed = false
		for _, b := range rpo[1:] {
			var newIdom *Block
			for _, p := range b.Parents {
				if doms[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersectDom(newIdom, p, doms, index)
			}
			if doms[b] != newIdom {
				doms[b] = newIdom
				changed = true
			}
		}
	}
	f.idomCache = doms
	f.idomValid = true
	return doms
}

func intersectDom(b1, b2 *Block, doms map[*Block]*Block, index map[*Block]int) *Block {
	for b1 != b2 {
		for index[b1] > index[b2] {
			b1 = doms[b1]
		}
		for index[b2] > index[b1] {
			b2 = doms[b2]
		}
	}
	return b1
}
