package sampler

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"clonetree/tree"
	"clonetree/variants"
)

func TestThinningSchedule(t *testing.T) {
	t.Run("3000 iterations at 0.3 retain exactly 1000 trees", func(t *testing.T) {
		cfg := testConfig()
		cfg.TreesPerChain = 3000
		cfg.ThinnedFrac = 0.3 // record_every = round(1/0.3) = 3
		s := mustSampler(uniformRel(2), testSupervariants(6, 4), cfg)

		res, err := s.runChain(0, 1)
		require.NoError(t, err)
		require.Len(t, res.adjs, 1+(3000-1)/3)
		require.Len(t, res.adjs, 1000)
	})

	t.Run("thinned_frac of 1 retains every iteration", func(t *testing.T) {
		cfg := testConfig()
		cfg.TreesPerChain = 57
		s := mustSampler(uniformRel(2), testSupervariants(6, 4), cfg)

		res, err := s.runChain(0, 1)
		require.NoError(t, err)
		require.Len(t, res.adjs, 57)
		require.Len(t, res.phis, 57)
		require.Len(t, res.llhs, 57)
	})

	t.Run("initialization sample is always retained", func(t *testing.T) {
		cfg := testConfig()
		cfg.TreesPerChain = 1
		s := mustSampler(uniformRel(2), testSupervariants(6, 4), cfg)

		res, err := s.runChain(0, 1)
		require.NoError(t, err)
		require.Len(t, res.adjs, 1)
		require.Equal(t, 0, res.accepted)
	})
}

func TestSampleTreesMerging(t *testing.T) {
	t.Run("burn-in discard leaves the documented count", func(t *testing.T) {
		cfg := testConfig()
		cfg.Chains = 4
		cfg.TreesPerChain = 1000
		cfg.Burnin = 0.1
		s := mustSampler(uniformRel(2), testSupervariants(6, 4), cfg)

		res, err := s.SampleTrees()
		require.NoError(t, err)
		require.Len(t, res.Adjs, 4*(1000-100))
		require.Len(t, res.Phis, 3600)
		require.Len(t, res.LLHs, 3600)
	})

	t.Run("every retained sample is a valid tree", func(t *testing.T) {
		cfg := testConfig()
		cfg.Chains = 2
		cfg.TreesPerChain = 200
		cfg.Burnin = 0.25
		s := mustSampler(uniformRel(3), testSupervariants(8, 6, 4), cfg)

		res, err := s.SampleTrees()
		require.NoError(t, err)
		require.Len(t, res.Adjs, 2*150)
		for i, adj := range res.Adjs {
			require.NoError(t, tree.Validate(adj), "sample %d", i)
		}
	})
}

func TestDeterminism(t *testing.T) {
	run := func(parallel int) Results {
		cfg := testConfig()
		cfg.Chains = 3
		cfg.TreesPerChain = 150
		cfg.Seed = 42
		cfg.Parallel = parallel
		s := mustSampler(uniformRel(3), testSupervariants(8, 6, 4), cfg)
		res, err := s.SampleTrees()
		require.NoError(t, err)
		return res
	}

	t.Run("identical results for repeated runs", func(t *testing.T) {
		require.Equal(t, run(0), run(0))
	})

	t.Run("parallel execution matches sequential bit for bit", func(t *testing.T) {
		sequential := run(0)
		require.Equal(t, sequential, run(2))
		require.Equal(t, sequential, run(3))
	})

	t.Run("different seeds explore differently", func(t *testing.T) {
		cfg := testConfig()
		cfg.TreesPerChain = 100
		a := mustSampler(uniformRel(3), testSupervariants(8, 6, 4), cfg)
		cfg.Seed = 1000
		b := mustSampler(uniformRel(3), testSupervariants(8, 6, 4), cfg)

		resA, err := a.SampleTrees()
		require.NoError(t, err)
		resB, err := b.SampleTrees()
		require.NoError(t, err)
		require.NotEqual(t, resA.LLHs, resB.LLHs)
	})
}

func TestChainInitialization(t *testing.T) {
	t.Run("produces valid trees for arbitrary seeds", func(t *testing.T) {
		s := mustSampler(uniformRel(4), testSupervariants(9, 7, 5, 3), testConfig())
		for seed := uint64(0); seed < 25; seed++ {
			rng := rand.New(rand.NewSource(seed))
			samp, err := s.initChain(rng)
			require.NoError(t, err)
			require.NoError(t, tree.Validate(samp.adj))
			require.Equal(t, samp.anc, tree.MakeAncestral(samp.adj))
		}
	})

	t.Run("follows a confident relation model", func(t *testing.T) {
		// Model certain of the chain 0 -> 1 -> 2 -> 3.
		want := adjFromParents(0, 1, 2)
		cfg := testConfig()
		cfg.Theta = 10
		cfg.Kappa = 0
		s := mustSampler(certainRel(want), testSupervariants(9, 7, 5), cfg)

		matches := 0
		for seed := uint64(0); seed < 40; seed++ {
			rng := rand.New(rand.NewSource(seed))
			samp, err := s.initChain(rng)
			require.NoError(t, err)
			if equalAdj(samp.adj, want) {
				matches++
			}
		}
		require.Greater(t, matches, 20,
			"a near-certain model should usually reproduce its tree at initialization")
	})
}

func equalAdj(a, b [][]int) bool {
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func TestScoreTrees(t *testing.T) {
	t.Run("scores supplied topologies without sampling", func(t *testing.T) {
		s := mustSampler(uniformRel(3), testSupervariants(8, 6, 4), testConfig())
		adjs := [][][]int{
			tree.Linear(4),
			tree.Branching(4),
		}

		res, err := s.ScoreTrees(adjs)
		require.NoError(t, err)
		require.Len(t, res.Adjs, 2)
		require.Len(t, res.LLHs, 2)

		// The scores must equal a direct fit-and-score of each tree.
		v, n, omega := variants.BinomParams(testSupervariants(8, 6, 4))
		for i, adj := range adjs {
			phi, _, err := depthFitter{}.Fit(adj, nil, testSupervariants(8, 6, 4))
			require.NoError(t, err)
			require.Equal(t, phi, res.Phis[i])
			require.Equal(t, variants.LogLikelihood(phi, v, n, omega), res.LLHs[i])
		}
	})

	t.Run("rejects malformed topologies", func(t *testing.T) {
		s := mustSampler(uniformRel(3), testSupervariants(8, 6, 4), testConfig())
		bad := tree.Linear(4)
		bad[2][2] = 0
		_, err := s.ScoreTrees([][][]int{bad})
		require.Error(t, err)
	})
}

func TestNewValidation(t *testing.T) {
	svs := testSupervariants(8, 6)

	t.Run("rejects cluster count mismatch", func(t *testing.T) {
		_, err := New(uniformRel(3), svs, variants.MakeSuperclusters(2), depthFitter{}, testConfig())
		require.Error(t, err)
	})

	t.Run("rejects a single cluster", func(t *testing.T) {
		_, err := New(uniformRel(1), testSupervariants(8), variants.MakeSuperclusters(1), depthFitter{}, testConfig())
		require.Error(t, err)
	})

	t.Run("rejects a nil fitter", func(t *testing.T) {
		_, err := New(uniformRel(2), svs, variants.MakeSuperclusters(2), nil, testConfig())
		require.Error(t, err)
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		cfg := testConfig()
		cfg.ThinnedFrac = 0
		_, err := New(uniformRel(2), svs, variants.MakeSuperclusters(2), depthFitter{}, cfg)
		require.Error(t, err)
	})
}

func TestProgressSignals(t *testing.T) {
	cfg := testConfig()
	cfg.Chains = 2
	cfg.TreesPerChain = 50

	ch := make(chan Progress, cfg.Chains*cfg.TreesPerChain)
	s := mustSampler(uniformRel(2), testSupervariants(6, 4), cfg, WithProgress(ch))

	_, err := s.SampleTrees()
	require.NoError(t, err)
	close(ch)

	count := 0
	for range ch {
		count++
	}
	require.Equal(t, cfg.Chains*cfg.TreesPerChain, count,
		"with sufficient buffer every iteration signals exactly once")
}
