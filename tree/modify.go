package tree

import "fmt"

// Modify transforms a tree by relocating node b with respect to node a and
// returns the new adjacency matrix; the inputs are never mutated. If b is an
// ancestor of a (per anc), the two nodes swap positions in the tree: each
// takes over the other's children, and a direct a-b edge is re-attached in
// the opposite orientation. Relocating b beneath one of its own descendants
// would otherwise create a cycle. In every other case b is detached from its
// parent and attached as a direct child of a, carrying its subtree with it.
//
// a may be the root; b must not be, since node 0 must stay the root.
func Modify(adj, anc [][]int, a, b int) [][]int {
	k := len(adj)
	if a < 0 || a >= k || b <= 0 || b >= k || a == b {
		panic(fmt.Sprintf("cannot modify tree with a=%d, b=%d (K=%d)", a, b, k))
	}
	MustValidate(adj)

	adj = Clone(adj)
	anc = Clone(anc)
	for i := 0; i < k; i++ {
		adj[i][i] = 0
		anc[i][i] = 0
	}

	if anc[b][a] == 1 {
		if anc[a][b] != 0 || adj[a][b] != 0 {
			panic(fmt.Sprintf("ancestry matrix is inconsistent for nodes %d and %d", a, b))
		}
		adjBA := adj[b][a]
		if adjBA == 1 {
			adj[b][a] = 0
		}

		// Swap a and b: exchange both their rows (children) and their
		// columns (parents).
		for j := 0; j < k; j++ {
			adj[a][j], adj[b][j] = adj[b][j], adj[a][j]
		}
		for i := 0; i < k; i++ {
			adj[i][a], adj[i][b] = adj[i][b], adj[i][a]
		}

		if adjBA == 1 {
			adj[a][b] = 1
		}
	} else {
		// Move b, with its subtree intact, under a.
		for i := 0; i < k; i++ {
			adj[i][b] = 0
		}
		adj[a][b] = 1
	}

	for i := 0; i < k; i++ {
		adj[i][i] = 1
	}
	return adj
}
