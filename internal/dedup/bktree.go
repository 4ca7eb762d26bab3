package dedup

import (
	"iter"
	"math/bits"
)

// hamming is the metric the index is built on: population count of the XOR
// of two 64-bit codes.
func hamming(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// bkNode is one entry in the tree arena. Children are keyed by the Hamming
// distance of their code to this node's code and hold arena indices, so a
// whole tree is dropped by letting the arena go — no pointer graph to tear
// down on the rebuild-from-scratch each run requires.
type bkNode struct {
	code     uint64
	owner    int64
	children map[int]int32
}

// BKTree indexes 64-bit hash codes under Hamming distance for range queries.
// Build the tree fully before querying; Insert must not be called
// concurrently with anything.
type BKTree struct {
	nodes []bkNode
}

// Len returns the number of indexed entries.
func (t *BKTree) Len() int {
	return len(t.nodes)
}

// Insert adds a (code, owner) entry. Equal codes are kept as distinct
// co-located entries chained on the zero-distance edge, never merged.
func (t *BKTree) Insert(code uint64, owner int64) {
	t.nodes = append(t.nodes, bkNode{code: code, owner: owner})
	added := int32(len(t.nodes) - 1)
	if added == 0 {
		return
	}

	cur := int32(0)
	for {
		n := &t.nodes[cur]
		d := hamming(code, n.code)
		child, ok := n.children[d]
		if !ok {
			if n.children == nil {
				n.children = make(map[int]int32)
			}
			n.children[d] = added
			return
		}
		cur = child
	}
}

// Within yields every indexed (owner, distance) pair whose code lies within
// maxDist Hamming bits of code. The sequence is lazy, finite, and
// restartable; yield order is unspecified, so callers needing determinism
// collect and sort. Pruning follows the standard BK rule: a child on edge d
// is explored only when |dist(query, parent) - d| <= maxDist.
func (t *BKTree) Within(code uint64, maxDist int) iter.Seq2[int64, int] {
	return func(yield func(int64, int) bool) {
		if len(t.nodes) == 0 {
			return
		}
		stack := []int32{0}
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			n := &t.nodes[idx]
			d := hamming(code, n.code)
			if d <= maxDist {
				if !yield(n.owner, d) {
					return
				}
			}
			for edge, child := range n.children {
				if edge >= d-maxDist && edge <= d+maxDist {
					stack = append(stack, child)
				}
			}
		}
	}
}
