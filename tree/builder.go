package tree

import (
	"errors"
	"fmt"

	"clonetree/mutrel"
)

// ErrCannotBuildTree reports that a complete pairwise relation assignment
// does not correspond to any valid tree. Callers must treat this as a
// rejection of the input data, not something to retry.
var ErrCannotBuildTree = errors.New("cannot build tree from relations")

// FromRelations deterministically constructs an adjacency matrix from a
// complete, consistent K x K node-relation assignment (as produced by
// mutrel.NodeRelations). No search is involved: node i is attached beneath
// the highest-indexed earlier node marked as its ancestor, which recovers
// the source tree exactly when parents precede children in index order.
func FromRelations(rels [][]mutrel.Relation) ([][]int, error) {
	n := len(rels)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least a root and one subclone, got %d nodes", ErrCannotBuildTree, n)
	}
	for i, row := range rels {
		if len(row) != n {
			return nil, fmt.Errorf("%w: relation row %d has length %d, want %d", ErrCannotBuildTree, i, len(row), n)
		}
	}
	if rels[1][0] != mutrel.DescAnc {
		return nil, fmt.Errorf("%w: first subclone is not a child of the clonal node", ErrCannotBuildTree)
	}

	adj := eye(n)
	adj[0][1] = 1

	for i := 2; i < n; i++ {
		placed := false
		for j := i - 1; j >= 0; j-- {
			switch rels[i][j] {
			case mutrel.DescAnc:
				if !placed {
					adj[j][i] = 1
					placed = true
				}
			case mutrel.DiffBranches:
				// No constraint between i and j.
			default:
				return nil, fmt.Errorf("%w: unexpected relation %s for pair (%d,%d)", ErrCannotBuildTree, rels[i][j], i, j)
			}
		}
		if !placed {
			return nil, fmt.Errorf("%w: node %d has no ancestor among already-placed nodes", ErrCannotBuildTree, i)
		}
	}
	return adj, nil
}
