// Package tree represents rooted clone trees as K x K adjacency matrices.
// Node 0 is the fixed germline root; nodes 1..K-1 correspond to mutation
// clusters 0..K-2. adj[i][j] = 1 iff i == j or i is the immediate parent
// of j. Trees are treated as immutable values: every structural edit copies.
package tree

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Validate checks the structural invariants of an adjacency matrix: all-1
// diagonal, the root column summing to 1 and every other column to 2, and a
// single connected acyclic tree reachable from node 0.
func Validate(adj [][]int) error {
	k := len(adj)
	if k == 0 {
		return fmt.Errorf("empty adjacency matrix")
	}
	for i, row := range adj {
		if len(row) != k {
			return fmt.Errorf("adjacency row %d has length %d, want %d", i, len(row), k)
		}
		if row[i] != 1 {
			return fmt.Errorf("adjacency diagonal entry %d is %d, want 1", i, row[i])
		}
		for j, v := range row {
			if v != 0 && v != 1 {
				return fmt.Errorf("adjacency entry (%d,%d) is %d, want 0 or 1", i, j, v)
			}
		}
	}
	for j := 0; j < k; j++ {
		sum := 0
		for i := 0; i < k; i++ {
			sum += adj[i][j]
		}
		if j == 0 && sum != 1 {
			return fmt.Errorf("root column sums to %d, want 1", sum)
		}
		if j != 0 && sum != 2 {
			return fmt.Errorf("column %d sums to %d, want 2 (self + one parent)", j, sum)
		}
	}

	// A traversal from the root must visit every node exactly once.
	visited := make([]bool, k)
	stack := []int{0}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[p] {
			return fmt.Errorf("node %d visited twice: adjacency contains a cycle", p)
		}
		visited[p] = true
		for c := range adj[p] {
			if c != p && adj[p][c] == 1 {
				stack = append(stack, c)
			}
		}
	}
	for i, v := range visited {
		if !v {
			return fmt.Errorf("node %d unreachable from root", i)
		}
	}
	return nil
}

// MustValidate panics if adj violates the tree invariants. Sampler code uses
// this at points where a malformed tree indicates a programming fault that
// would invalidate the statistical guarantees of the chain.
func MustValidate(adj [][]int) {
	if err := Validate(adj); err != nil {
		panic("invalid tree: " + err.Error())
	}
}

// MakeAncestral computes the transitive closure of an adjacency matrix:
// anc[i][j] = 1 iff i == j or i is a proper ancestor of j. Descendant sets
// are evaluated with an explicit stack and a per-node memo table, so the
// computation is iterative and independent of node ordering.
func MakeAncestral(adj [][]int) [][]int {
	k := len(adj)
	memo := make([][]int, k)

	children := make([][]int, k)
	for p := range adj {
		for c := range adj[p] {
			if c != p && adj[p][c] == 1 {
				children[p] = append(children[p], c)
			}
		}
	}

	for start := 0; start < k; start++ {
		if memo[start] != nil {
			continue
		}
		stack := []int{start}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			ready := true
			for _, c := range children[n] {
				if memo[c] == nil {
					stack = append(stack, c)
					ready = false
				}
			}
			if !ready {
				continue
			}
			stack = stack[:len(stack)-1]
			desc := make([]int, k)
			desc[n] = 1
			for _, c := range children[n] {
				for j, v := range memo[c] {
					if v == 1 {
						desc[j] = 1
					}
				}
			}
			memo[n] = desc
		}
	}
	return memo
}

// DepthFractions returns each node's depth from the root normalized by the
// maximum depth. The root is always 0; in any tree with depth > 0 all other
// entries are in (0, 1] and the maximum is exactly 1.
func DepthFractions(adj [][]int) []float64 {
	k := len(adj)
	depth := make([]int, k)
	stack := []int{0}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for c := range adj[p] {
			if c != p && adj[p][c] == 1 {
				depth[c] = depth[p] + 1
				stack = append(stack, c)
			}
		}
	}

	maxDepth := 0
	for _, d := range depth {
		if d > maxDepth {
			maxDepth = d
		}
	}
	frac := make([]float64, k)
	if maxDepth == 0 {
		return frac
	}
	for i, d := range depth {
		frac[i] = float64(d) / float64(maxDepth)
	}
	return frac
}

// Parent returns the parent of the given non-root node.
func Parent(adj [][]int, node int) int {
	if node <= 0 || node >= len(adj) {
		panic(fmt.Sprintf("node %d has no parent", node))
	}
	parent := -1
	for i := range adj {
		if i != node && adj[i][node] == 1 {
			if parent != -1 {
				panic(fmt.Sprintf("node %d has multiple parents", node))
			}
			parent = i
		}
	}
	if parent == -1 {
		panic(fmt.Sprintf("node %d has no parent", node))
	}
	return parent
}

// Parents returns the parent of every non-root node, indexed from node 1.
func Parents(adj [][]int) []int {
	parents := make([]int, len(adj)-1)
	for n := 1; n < len(adj); n++ {
		parents[n-1] = Parent(adj, n)
	}
	return parents
}

// Linear builds the chain 0 -> 1 -> ... -> K-1.
func Linear(k int) [][]int {
	adj := eye(k)
	for n := 1; n < k; n++ {
		adj[n-1][n] = 1
	}
	return adj
}

// Branching attaches every non-root node directly to the root. No node is
// treated as a privileged clonal cluster.
func Branching(k int) [][]int {
	adj := eye(k)
	for n := 1; n < k; n++ {
		adj[0][n] = 1
	}
	return adj
}

// Random assigns each node n a parent drawn uniformly from nodes below it.
// Parents always precede children in index order, which rules out cycles but
// also means the result is not uniform over tree space.
func Random(k int, rng *rand.Rand) [][]int {
	adj := eye(k)
	for n := 1; n < k; n++ {
		adj[rng.Intn(n)][n] = 1
	}
	return adj
}

func eye(k int) [][]int {
	adj := make([][]int, k)
	for i := range adj {
		adj[i] = make([]int, k)
		adj[i][i] = 1
	}
	return adj
}

// Clone deep-copies an adjacency (or ancestry) matrix.
func Clone(m [][]int) [][]int {
	out := make([][]int, len(m))
	for i, row := range m {
		out[i] = make([]int, len(row))
		copy(out[i], row)
	}
	return out
}
