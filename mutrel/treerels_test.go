package mutrel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func adjFromParents(parents ...int) [][]int {
	k := len(parents) + 1
	adj := make([][]int, k)
	for i := range adj {
		adj[i] = make([]int, k)
		adj[i][i] = 1
	}
	for n, p := range parents {
		adj[p][n+1] = 1
	}
	return adj
}

func TestNodeRelations(t *testing.T) {
	t.Run("chain with a side branch", func(t *testing.T) {
		// 0 -> 1 -> 2, 1 -> 3
		rels := NodeRelations(adjFromParents(0, 1, 1))

		require.Equal(t, Cocluster, rels[2][2])
		require.Equal(t, AncDesc, rels[0][3], "root is ancestral to everything")
		require.Equal(t, DescAnc, rels[3][0])
		require.Equal(t, AncDesc, rels[1][2])
		require.Equal(t, DescAnc, rels[2][1])
		require.Equal(t, DiffBranches, rels[2][3], "siblings lie on different branches")
		require.Equal(t, DiffBranches, rels[3][2])
	})

	t.Run("works on non-topologically-sorted trees", func(t *testing.T) {
		// 0 -> 3 -> 1 -> 2
		rels := NodeRelations(adjFromParents(3, 1, 0))
		require.Equal(t, AncDesc, rels[3][2])
		require.Equal(t, DescAnc, rels[2][3])
		require.Equal(t, AncDesc, rels[1][2])
		require.Equal(t, Cocluster, rels[1][1])
	})
}

func TestTreeLogScore(t *testing.T) {
	certain := func(k int, class func(a, b int) Relation) Mutrel {
		m := New(k)
		for a := 0; a < k; a++ {
			for b := 0; b < k; b++ {
				if a == b {
					m.Rels[a][b][Cocluster] = 1
				} else {
					m.Rels[a][b][class(a, b)] = 1
				}
			}
		}
		return m
	}

	t.Run("tree matching the model scores near zero", func(t *testing.T) {
		// Model certain that cluster 0 is ancestral to cluster 1, i.e.
		// node 1 ancestral to node 2.
		m := certain(2, func(a, b int) Relation {
			if a < b {
				return AncDesc
			}
			return DescAnc
		})
		score := TreeLogScore(adjFromParents(0, 1), MakeLogMutrel(m))

		require.InDelta(t, 0.0, score[1][2], 0.01,
			"pair placed as the model expects scores close to log(1)")
		require.Equal(t, score[1][2], score[2][1], "score matrix is symmetric")
		for i := range score {
			require.Equal(t, 0.0, score[0][i])
			require.Equal(t, 0.0, score[i][0])
			require.Equal(t, 0.0, score[i][i])
		}
	})

	t.Run("tree contradicting the model scores poorly", func(t *testing.T) {
		m := certain(2, func(a, b int) Relation { return DiffBranches })
		score := TreeLogScore(adjFromParents(0, 1), MakeLogMutrel(m))

		require.Less(t, score[1][2], math.Log(0.01),
			"ancestral placement against a certain different-branches model must be penalized")
	})
}
