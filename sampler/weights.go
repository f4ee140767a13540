package sampler

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"clonetree/mutrel"
	"clonetree/tree"
)

// Weight vectors are clipped to a small positive floor before
// renormalization so that no reachable event carries exactly zero
// probability, which would make the reverse-proposal probability
// unrecoverable.
const weightFloor = 1e-10

// wNodesUniform distributes subtree-choice weight uniformly over all
// non-root nodes.
func wNodesUniform(k int) []float64 {
	w := make([]float64, k)
	for i := 1; i < k; i++ {
		w[i] = 1
	}
	normalize(w)
	return w
}

// wNodesInformed weights each non-root node by how strongly the current
// tree's implied relations for its pairs disagree with the relation model.
// Per-pair disagreement (one minus the model probability of the implied
// class) is aggregated per node with a log-sum-exp, then softmaxed, so
// poorly-placed subtrees are more likely to be chosen for relocation.
func wNodesInformed(adj [][]int, lm mutrel.LogMutrel) []float64 {
	k := len(adj)
	treeScore := mutrel.TreeLogScore(adj, lm)

	nodeErr := make([]float64, k)
	logPairErr := make([]float64, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			pairErr := 1 - math.Exp(treeScore[i][j])
			logPairErr[j] = math.Log(math.Max(weightFloor, pairErr))
		}
		nodeErr[i] = floats.LogSumExp(logPairErr)
	}

	w := make([]float64, k)
	copy(w[1:], softmax(nodeErr[1:]))
	for i := 1; i < k; i++ {
		w[i] = math.Max(weightFloor, w[i])
	}
	normalize(w)
	return w
}

// wDestsUniform distributes destination weight uniformly over all nodes
// except the relocated subtree's head and its current parent.
func wDestsUniform(head, curParent, k int) []float64 {
	w := make([]float64, k)
	for i := 0; i < k; i++ {
		w[i] = 1
	}
	w[head] = 0
	w[curParent] = 0
	normalize(w)
	return w
}

// wDestsInformed weights each candidate destination by the total relation
// score of the tree that would result from relocating the subtree there.
// Every candidate is evaluated by actually building the hypothetical tree
// and rescoring its upper-triangular relation matrix; the resulting log
// scores are softmaxed. Invalid destinations (the head itself and its
// current parent) are masked to zero and the remainder renormalized.
func wDestsInformed(head, curParent int, adj, anc [][]int, lm mutrel.LogMutrel) []float64 {
	k := len(adj)
	if adj[curParent][head] != 1 {
		panic(fmt.Sprintf("node %d is not the parent of node %d", curParent, head))
	}

	logw := make([]float64, k)
	for i := range logw {
		logw[i] = math.Inf(-1)
	}
	any := false
	for dest := 0; dest < k; dest++ {
		if dest == head || dest == curParent {
			continue
		}
		cand := tree.Modify(adj, anc, dest, head)
		score := mutrel.TreeLogScore(cand, lm)
		total := 0.0
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				total += score[i][j]
			}
		}
		if math.IsNaN(total) || math.IsInf(total, 0) {
			panic(fmt.Sprintf("relation score for destination %d is %g", dest, total))
		}
		logw[dest] = total
		any = true
	}
	if !any {
		panic(fmt.Sprintf("no valid destination for subtree %d", head))
	}

	w := softmax(logw)
	for i := range w {
		w[i] = math.Max(weightFloor, w[i])
	}
	w[head] = 0
	w[curParent] = 0
	normalize(w)
	return w
}

// mix combines a uniform and an informed weight vector with mixture weight
// wu on the uniform component.
func mix(uniform, informed []float64, wu float64) []float64 {
	w := make([]float64, len(uniform))
	for i := range w {
		w[i] = wu*uniform[i] + (1-wu)*informed[i]
	}
	return w
}

// softmax maps log weights to a normalized distribution. -Inf entries map
// to zero.
func softmax(logw []float64) []float64 {
	max := math.Inf(-1)
	for _, v := range logw {
		if v > max {
			max = v
		}
	}
	if math.IsInf(max, -1) {
		panic("softmax over all -Inf weights")
	}
	w := make([]float64, len(logw))
	sum := 0.0
	for i, v := range logw {
		w[i] = math.Exp(v - max)
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

func normalize(w []float64) {
	sum := floats.Sum(w)
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		panic(fmt.Sprintf("weight vector sums to %g", sum))
	}
	floats.Scale(1/sum, w)
}

// sampleCat draws an index from a normalized categorical distribution.
// Drawing a zero-weight index indicates a corrupted weight vector and
// panics.
func sampleCat(rng *rand.Rand, w []float64) int {
	sum := floats.Sum(w)
	if math.Abs(sum-1) > 1e-6 {
		panic(fmt.Sprintf("categorical weights sum to %g, want 1", sum))
	}
	u := rng.Float64()
	cum := 0.0
	choice := -1
	for i, v := range w {
		cum += v
		if u < cum {
			choice = i
			break
		}
	}
	if choice == -1 {
		// u landed in the float rounding gap past the last nonzero weight.
		for i := len(w) - 1; i >= 0; i-- {
			if w[i] > 0 {
				choice = i
				break
			}
		}
	}
	if choice == -1 || w[choice] == 0 {
		panic(fmt.Sprintf("sampled zero-probability category %d", choice))
	}
	return choice
}
