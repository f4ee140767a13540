package sampler

import (
	"math"

	"golang.org/x/exp/rand"

	"clonetree/mutrel"
	"clonetree/tree"
)

// Floor applied to parent-choice weights during initialization.
const initWeightFloor = 1e-5

// initChain builds a chain's first tree by relation-informed random
// construction: the tree grows one node at a time, each step sampling a new
// node weighted by its aggregate ancestor-of-someone relation strength, then
// sampling its parent among already-placed nodes weighted by
// ancestor-probability (Theta) and current depth (Kappa, which discourages
// excessively deep chains). The result is traversal-checked before the
// chain proceeds.
func (s *Sampler) initChain(rng *rand.Rand) (sample, error) {
	k := s.rel.NumClusters() + 1

	adj := make([][]int, k)
	for i := range adj {
		adj[i] = make([]int, k)
		adj[i][i] = 1
	}
	depth := make([]int, k)
	inTree := make([]bool, k)
	inTree[0] = true
	remaining := k - 1

	// Node weights: how strongly each cluster looks ancestral to others.
	// The root carries zero weight and is never selected.
	wNodes := make([]float64, k)
	for c := 0; c < k-1; c++ {
		for j := 0; j < k-1; j++ {
			wNodes[c+1] += s.rel.Rels[c][j][mutrel.AncDesc]
		}
	}

	for remaining > 0 {
		allZero := true
		for n := 1; n < k; n++ {
			if !inTree[n] && wNodes[n] != 0 {
				allZero = false
			}
		}
		if allZero {
			for n := 1; n < k; n++ {
				if !inTree[n] {
					wNodes[n] = 1
				}
			}
		}
		wNorm := make([]float64, k)
		copy(wNorm, wNodes)
		normalize(wNorm)
		nidx := sampleCat(rng, wNorm)
		cidx := nidx - 1

		// Probability that each other cluster is ancestral to the chosen one.
		ancProbs := make([]float64, k-1)
		maxAnc := 0.0
		for j := 0; j < k-1; j++ {
			ancProbs[j] = s.rel.Rels[cidx][j][mutrel.DescAnc]
			if ancProbs[j] > maxAnc {
				maxAnc = ancProbs[j]
			}
		}

		depthFrac := make([]float64, k)
		maxDepth := 0
		for _, d := range depth {
			if d > maxDepth {
				maxDepth = d
			}
		}
		if maxDepth > 0 {
			for i, d := range depth {
				depthFrac[i] = float64(d) / float64(maxDepth)
			}
		}

		wParents := make([]float64, k)
		wParents[0] = s.cfg.Theta * (1 - maxAnc)
		for j := 0; j < k-1; j++ {
			wParents[j+1] = s.cfg.Theta * ancProbs[j]
		}
		for i := 0; i < k; i++ {
			wParents[i] += s.cfg.Kappa * depthFrac[i]
		}

		// Candidate parents are only the nodes already placed. If all of
		// them carry zero weight (e.g. zero ancestral probabilities), fall
		// back to a uniform choice among them.
		for i := 0; i < k; i++ {
			if !inTree[i] {
				wParents[i] = 0
			}
		}
		inTreeZero := true
		for i := 0; i < k; i++ {
			if inTree[i] && wParents[i] != 0 {
				inTreeZero = false
			}
		}
		if inTreeZero {
			for i := 0; i < k; i++ {
				if inTree[i] {
					wParents[i] = 1
				}
			}
		}
		normalize(wParents)
		for i := 0; i < k; i++ {
			if inTree[i] {
				wParents[i] = math.Max(initWeightFloor, wParents[i])
			}
		}
		normalize(wParents)

		parent := sampleCat(rng, wParents)
		adj[parent][nidx] = 1
		depth[nidx] = depth[parent] + 1
		inTree[nidx] = true
		wNodes[nidx] = 0
		remaining--
	}

	tree.MustValidate(adj)
	return s.fitSample(adj)
}
