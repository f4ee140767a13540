package mutrel

import (
	"fmt"
	"math"
)

// NodeRelations maps every ordered pair of tree nodes to the relation class
// the tree implies for it. Node 0 is the root; classes are assigned walking
// root-outward with an explicit stack, so input need not be topologically
// sorted. The result uses node indexing (K x K), with the diagonal set to
// Cocluster and the root ancestral to everything.
func NodeRelations(adj [][]int) [][]Relation {
	k := len(adj)
	rels := make([][]Relation, k)
	for i := range rels {
		rels[i] = make([]Relation, k)
		for j := range rels[i] {
			rels[i][j] = DiffBranches
		}
		rels[i][i] = Cocluster
	}
	for j := 1; j < k; j++ {
		rels[0][j] = AncDesc
		rels[j][0] = DescAnc
	}

	visited := make([]bool, k)
	stack := []int{0}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited[p] = true

		var children []int
		for c := range adj[p] {
			if c != p && adj[p][c] == 1 {
				children = append(children, c)
			}
		}
		if len(children) == 0 {
			continue
		}

		// Ancestors of p, plus p itself, are ancestors of p's children.
		ancestors := []int{p}
		for i := range rels[p] {
			if rels[p][i] == DescAnc {
				ancestors = append(ancestors, i)
			}
		}
		for _, a := range ancestors {
			for _, c := range children {
				rels[a][c] = AncDesc
				rels[c][a] = DescAnc
			}
		}
		stack = append(stack, children...)
	}

	for i, v := range visited {
		if !v {
			panic(fmt.Sprintf("node %d unreachable from root: adjacency is not a tree", i))
		}
	}
	return rels
}

// TreeLogScore evaluates, for every node pair, the log-probability the
// relation model assigns to the relation the tree implies for that pair.
// The result is a symmetric K x K matrix with zero entries on the root row
// and column and on the diagonal; all entries are <= 0.
func TreeLogScore(adj [][]int, lm LogMutrel) [][]float64 {
	k := len(adj)
	if lm.NumClusters() != k-1 {
		panic(fmt.Sprintf("relation model covers %d clusters but tree has %d non-root nodes", lm.NumClusters(), k-1))
	}
	nodeRels := NodeRelations(adj)

	score := make([][]float64, k)
	for i := range score {
		score[i] = make([]float64, k)
	}
	for i := 1; i < k; i++ {
		for j := 1; j < k; j++ {
			if i == j {
				continue
			}
			lp := lm.Rels[i-1][j-1][nodeRels[i][j]]
			if math.IsNaN(lp) {
				panic(fmt.Sprintf("relation model log-probability for pair (%d,%d) is NaN", i, j))
			}
			score[i][j] = lp
		}
	}
	return score
}

// NumClusters returns the number of clusters the log model covers.
func (lm LogMutrel) NumClusters() int { return len(lm.Rels) }
